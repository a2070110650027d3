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
	"strings"
	"testing"

	. "github.com/onsi/gomega"
)

func TestReadDocuments(t *testing.T) {
	g := NewWithT(t)

	data := `---
apiVersion: v1
kind: ConfigMap
metadata:
  name: test
data:
  replicas: "1"
---
# comment only
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: test
spec:
  replicas: 2
---
`
	objects, err := ReadDocuments(strings.NewReader(data))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(objects).To(HaveLen(2))
	g.Expect(FmtUnstructured(objects[0])).To(Equal("ConfigMap/test"))
	g.Expect(objects[1].Object["spec"]).To(HaveKeyWithValue("replicas", int64(2)))

	_, err = ReadDocuments(strings.NewReader("- a\n- b\n"))
	g.Expect(err).To(HaveOccurred())
}

func TestMaskSecret(t *testing.T) {
	g := NewWithT(t)

	objects, err := ReadDocuments(strings.NewReader(`apiVersion: v1
kind: Secret
metadata:
  name: app-secret
  namespace: default
data:
  token: c2VjcmV0
stringData:
  password: secret
`))
	g.Expect(err).ToNot(HaveOccurred())

	masked, err := MaskSecret(objects[0], "****")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(masked.Object["data"]).To(HaveKeyWithValue("token", "****"))
	g.Expect(masked.Object["stringData"]).To(HaveKeyWithValue("password", "****"))
	g.Expect(objects[0].Object["data"]).To(HaveKeyWithValue("token", "c2VjcmV0"))
	g.Expect(FmtUnstructured(masked)).To(Equal("Secret/default/app-secret"))
}
