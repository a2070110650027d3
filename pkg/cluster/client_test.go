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

package cluster

import (
	"context"
	"testing"

	"github.com/fluxcd/pkg/ssa"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
)

func newConfigMap(namespace, name string, labels map[string]string) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: namespace,
			Name:      name,
			Labels:    labels,
		},
	}
}

func newTestClient() *Client {
	kubeClient := fake.NewClientBuilder().
		WithScheme(NewScheme()).
		WithObjects(
			newConfigMap("default", "owned", map[string]string{"manifestor.dev/manifest": "test"}),
			newConfigMap("default", "other", nil),
			newConfigMap("kube-system", "owned", map[string]string{"manifestor.dev/manifest": "test"}),
		).
		Build()
	return New(kubeClient, nil, ssa.Owner{Field: "manifestor", Group: "manifestor.dev"})
}

func TestList(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	c := newTestClient()
	gvk := schema.GroupVersionKind{Version: "v1", Kind: "ConfigMap"}
	selector := map[string]string{"manifestor.dev/manifest": "test"}

	objects, err := c.List(ctx, gvk, "default", selector)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(objects).To(HaveLen(1))
	g.Expect(objects[0].GetName()).To(Equal("owned"))
	g.Expect(objects[0].GetKind()).To(Equal("ConfigMap"))

	objects, err = c.List(ctx, gvk, "", selector)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(objects).To(HaveLen(2))

	objects, err = c.List(ctx, gvk, "default", map[string]string{"manifestor.dev/manifest": "none"})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(objects).To(BeEmpty())
}

func TestDelete(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	c := newTestClient()

	obj := &unstructured.Unstructured{}
	obj.SetGroupVersionKind(schema.GroupVersionKind{Version: "v1", Kind: "ConfigMap"})
	obj.SetNamespace("default")
	obj.SetName("other")

	g.Expect(c.Delete(ctx, obj)).To(Succeed())

	err := c.Delete(ctx, obj)
	g.Expect(apierrors.IsNotFound(err)).To(BeTrue())
}

func TestWaitRequiresPoller(t *testing.T) {
	g := NewWithT(t)
	c := newTestClient()

	err := c.Wait(nil, 0, 0)
	g.Expect(err).To(HaveOccurred())
}
