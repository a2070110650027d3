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
	"testing"

	"github.com/google/go-cmp/cmp"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

func newObject(apiVersion, kind, namespace, name string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{}
	obj.SetAPIVersion(apiVersion)
	obj.SetKind(kind)
	obj.SetNamespace(namespace)
	obj.SetName(name)
	return obj
}

func TestSortableUnstructureds(t *testing.T) {
	objects := []*unstructured.Unstructured{
		newObject("admissionregistration.k8s.io/v1", "ValidatingWebhookConfiguration", "", "hook"),
		newObject("apps/v1", "Deployment", "b", "app"),
		newObject("example.com/v1", "Widget", "a", "w"),
		newObject("apps/v1", "Deployment", "a", "app"),
		newObject("v1", "Namespace", "", "a"),
		newObject("apiextensions.k8s.io/v1", "CustomResourceDefinition", "", "widgets.example.com"),
	}

	sort.Sort(SortableUnstructureds(objects))

	var got []string
	for _, obj := range objects {
		got = append(got, FmtUnstructured(obj))
	}

	want := []string{
		"CustomResourceDefinition/widgets.example.com",
		"Namespace/a",
		"Deployment/a/app",
		"Deployment/b/app",
		"Widget/a/w",
		"ValidatingWebhookConfiguration/hook",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sort order mismatch (-want +got):\n%s", diff)
	}
}

func TestFmtUnstructuredList(t *testing.T) {
	got := FmtUnstructuredList([]*unstructured.Unstructured{
		newObject("v1", "Namespace", "", "apps"),
		newObject("v1", "Secret", "apps", "token"),
	})
	if want := "Namespace/apps, Secret/apps/token"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := FmtUnstructuredList(nil); got != "" {
		t.Errorf("got %q for an empty list", got)
	}
}

func TestIsClusterScoped(t *testing.T) {
	tests := []struct {
		gk   schema.GroupKind
		want bool
	}{
		{schema.GroupKind{Kind: "Namespace"}, true},
		{schema.GroupKind{Group: "rbac.authorization.k8s.io", Kind: "ClusterRole"}, true},
		{schema.GroupKind{Kind: "ConfigMap"}, false},
		{schema.GroupKind{Group: "example.com", Kind: "Widget"}, false},
	}
	for _, tt := range tests {
		if got := IsClusterScoped(tt.gk); got != tt.want {
			t.Errorf("IsClusterScoped(%s) = %v, want %v", tt.gk, got, tt.want)
		}
	}
}
