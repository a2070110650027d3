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
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Key identifies an object by kind, namespace and name.
type Key struct {
	Kind      string
	Namespace string
	Name      string
}

// KeyOf returns the key of the given object.
func KeyOf(obj *unstructured.Unstructured) Key {
	return Key{
		Kind:      obj.GetKind(),
		Namespace: obj.GetNamespace(),
		Name:      obj.GetName(),
	}
}

// String returns the key in the format <kind>/<namespace>/<name>,
// the namespace is omitted for cluster-scoped objects.
func (k Key) String() string {
	if k.Namespace == "" {
		return fmt.Sprintf("%s/%s", k.Kind, k.Name)
	}
	return fmt.Sprintf("%s/%s/%s", k.Kind, k.Namespace, k.Name)
}

// Set is an ordered collection of objects without duplicate keys.
// The zero value is not usable, use NewSet.
type Set struct {
	keys    []Key
	objects map[Key]*unstructured.Unstructured
}

// NewSet returns a set holding the given objects,
// later objects replace earlier ones with the same key.
func NewSet(objects ...*unstructured.Unstructured) *Set {
	s := &Set{objects: make(map[Key]*unstructured.Unstructured, len(objects))}
	for _, obj := range objects {
		s.Add(obj)
	}
	return s
}

// Add appends the object to the set. If an object with the same key exists,
// it's replaced and keeps its position.
func (s *Set) Add(obj *unstructured.Unstructured) {
	key := KeyOf(obj)
	if _, ok := s.objects[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.objects[key] = obj
}

// Remove deletes the object with the given key, it returns false if there is none.
func (s *Set) Remove(key Key) bool {
	if _, ok := s.objects[key]; !ok {
		return false
	}
	delete(s.objects, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return true
}

func (s *Set) Has(key Key) bool {
	_, ok := s.objects[key]
	return ok
}

func (s *Set) Get(key Key) (*unstructured.Unstructured, bool) {
	obj, ok := s.objects[key]
	return obj, ok
}

func (s *Set) Len() int {
	return len(s.keys)
}

// Keys returns the keys in insertion order.
func (s *Set) Keys() []Key {
	keys := make([]Key, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Objects returns the objects in insertion order.
func (s *Set) Objects() []*unstructured.Unstructured {
	objects := make([]*unstructured.Unstructured, 0, len(s.keys))
	for _, key := range s.keys {
		objects = append(objects, s.objects[key])
	}
	return objects
}

// Difference returns the objects of this set whose keys are not in the other set.
func (s *Set) Difference(other *Set) *Set {
	result := NewSet()
	for _, key := range s.keys {
		if !other.Has(key) {
			result.Add(s.objects[key])
		}
	}
	return result
}

// Intersection returns the objects of this set whose keys are in the other set.
func (s *Set) Intersection(other *Set) *Set {
	result := NewSet()
	for _, key := range s.keys {
		if other.Has(key) {
			result.Add(s.objects[key])
		}
	}
	return result
}

// DeepCopy returns a set holding copies of the objects.
func (s *Set) DeepCopy() *Set {
	result := NewSet()
	for _, key := range s.keys {
		result.Add(s.objects[key].DeepCopy())
	}
	return result
}
