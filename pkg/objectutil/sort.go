/*
Copyright 2021 Stefan Prodan

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package objectutil

import (
	"sort"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/cli-utils/pkg/object"
)

// SortableUnstructureds orders objects by kind priority, then by namespace and name.
// It is used to print reports in a stable order, the apply order is never changed.
type SortableUnstructureds []*unstructured.Unstructured

var _ sort.Interface = SortableUnstructureds{}

func (a SortableUnstructureds) Len() int      { return len(a) }
func (a SortableUnstructureds) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a SortableUnstructureds) Less(i, j int) bool {
	first := object.UnstructuredToObjMetadata(a[i])
	second := object.UnstructuredToObjMetadata(a[j])
	if first.GroupKind != second.GroupKind {
		return IsLessThan(first.GroupKind, second.GroupKind)
	}
	if first.Namespace != second.Namespace {
		return first.Namespace < second.Namespace
	}
	return first.Name < second.Name
}

// kindOrder places cluster definitions first and admission webhooks last.
var kindOrder = func() map[string]int {
	first := []string{
		"CustomResourceDefinition",
		"Namespace",
		"ResourceQuota",
		"StorageClass",
		"ServiceAccount",
		"PodSecurityPolicy",
		"Role",
		"ClusterRole",
		"RoleBinding",
		"ClusterRoleBinding",
		"ConfigMap",
		"Secret",
		"Service",
		"LimitRange",
		"PriorityClass",
		"Deployment",
		"StatefulSet",
		"CronJob",
		"PodDisruptionBudget",
	}
	last := []string{
		"MutatingWebhookConfiguration",
		"ValidatingWebhookConfiguration",
	}
	index := make(map[string]int, len(first)+len(last))
	for i, kind := range first {
		index[kind] = i - len(first)
	}
	for i, kind := range last {
		index[kind] = i + 1
	}
	return index
}()

// IsLessThan compares two group kinds by kind priority, then by group and kind name.
func IsLessThan(i, j schema.GroupKind) bool {
	if oi, oj := kindOrder[i.Kind], kindOrder[j.Kind]; oi != oj {
		return oi < oj
	}
	if i.Group != j.Group {
		return i.Group < j.Group
	}
	return i.Kind < j.Kind
}
