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

package manifest

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Condition is a status condition reported by an object.
type Condition struct {
	Type    string
	Status  metav1.ConditionStatus
	Reason  string
	Message string
}

// ResourceStatus holds all the conditions of an installed object.
type ResourceStatus struct {
	Object     *unstructured.Unstructured
	Conditions []Condition
}

// Key returns the key of the object.
func (r ResourceStatus) Key() Key {
	return KeyOf(r.Object)
}

// ReadinessFunc decides if a condition makes an object ready.
// Conditions that are not relevant are ignored by the readiness checks.
type ReadinessFunc func(obj *unstructured.Unstructured, cond Condition) (ready bool, relevant bool)

// DefaultReadiness considers every condition relevant and ready when its status is True.
func DefaultReadiness(_ *unstructured.Unstructured, cond Condition) (bool, bool) {
	return cond.Status == metav1.ConditionTrue, true
}

// JobReadiness handles the conditions of batch Jobs: a Job is ready once Complete,
// a Failed job is not ready and the other conditions are ignored.
func JobReadiness(_ *unstructured.Unstructured, cond Condition) (bool, bool) {
	switch cond.Type {
	case "Complete":
		return cond.Status == metav1.ConditionTrue, true
	case "Failed":
		return cond.Status != metav1.ConditionTrue, true
	default:
		return false, false
	}
}

// ReadinessByKind dispatches to the function registered for the object kind,
// the other kinds are handled by the fallback or by DefaultReadiness if nil.
func ReadinessByKind(kinds map[string]ReadinessFunc, fallback ReadinessFunc) ReadinessFunc {
	if fallback == nil {
		fallback = DefaultReadiness
	}
	return func(obj *unstructured.Unstructured, cond Condition) (bool, bool) {
		if fn, ok := kinds[obj.GetKind()]; ok {
			return fn(obj, cond)
		}
		return fallback(obj, cond)
	}
}

// IsReady evaluates the condition of the object with the readiness policy of the manifest set.
func (m *ManifestSet) IsReady(obj *unstructured.Unstructured, cond Condition) (ready bool, relevant bool) {
	return m.readiness(obj, cond)
}

// Status returns the conditions of the installed objects that have a 'status.conditions' field.
func (m *ManifestSet) Status(ctx context.Context) ([]ResourceStatus, error) {
	installed, err := m.InstalledResources(ctx)
	if err != nil {
		return nil, err
	}

	var result []ResourceStatus
	for _, obj := range installed.Objects() {
		conditions, found, err := ObjectConditions(obj)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		result = append(result, ResourceStatus{Object: obj, Conditions: conditions})
	}
	return result, nil
}

// ObjectConditions extracts the 'status.conditions' of an object.
func ObjectConditions(obj *unstructured.Unstructured) ([]Condition, bool, error) {
	items, found, err := unstructured.NestedSlice(obj.Object, "status", "conditions")
	if err != nil {
		return nil, false, fmt.Errorf("%s status conditions are invalid, error: %w", KeyOf(obj), err)
	}
	if !found {
		return nil, false, nil
	}

	conditions := make([]Condition, 0, len(items))
	for _, item := range items {
		c, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		cond := Condition{}
		cond.Type, _, _ = unstructured.NestedString(c, "type")
		status, _, _ := unstructured.NestedString(c, "status")
		cond.Status = metav1.ConditionStatus(status)
		cond.Reason, _, _ = unstructured.NestedString(c, "reason")
		cond.Message, _, _ = unstructured.NestedString(c, "message")
		conditions = append(conditions, cond)
	}
	return conditions, true, nil
}
