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
	"testing"

	. "github.com/onsi/gomega"
)

func TestSet(t *testing.T) {
	g := NewWithT(t)

	cm := newObject("v1", "ConfigMap", "default", "cfg")
	secret := newObject("v1", "Secret", "default", "app-secret")
	ns := newObject("v1", "Namespace", "", "default")

	s := NewSet(cm, secret, ns)
	g.Expect(keysOf(s)).To(Equal([]string{"ConfigMap/default/cfg", "Secret/default/app-secret", "Namespace/default"}))

	replacement := cm.DeepCopy()
	replacement.SetLabels(map[string]string{"replaced": "true"})
	s.Add(replacement)
	g.Expect(s.Len()).To(Equal(3))
	g.Expect(s.Keys()[0]).To(Equal(KeyOf(cm)))
	obj, ok := s.Get(KeyOf(cm))
	g.Expect(ok).To(BeTrue())
	g.Expect(obj.GetLabels()).To(HaveKeyWithValue("replaced", "true"))

	g.Expect(s.Remove(KeyOf(secret))).To(BeTrue())
	g.Expect(s.Remove(KeyOf(secret))).To(BeFalse())
	g.Expect(keysOf(s)).To(Equal([]string{"ConfigMap/default/cfg", "Namespace/default"}))

	other := NewSet(ns, secret)
	g.Expect(keysOf(s.Difference(other))).To(Equal([]string{"ConfigMap/default/cfg"}))
	g.Expect(keysOf(s.Intersection(other))).To(Equal([]string{"Namespace/default"}))

	copied := s.DeepCopy()
	first, _ := copied.Get(KeyOf(cm))
	first.SetName("changed")
	original, _ := s.Get(KeyOf(cm))
	g.Expect(original.GetName()).To(Equal("cfg"))
}
