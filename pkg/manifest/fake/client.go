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

// Package fake provides an in-memory cluster client for testing manifest sets.
package fake

import (
	"context"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/stefanprodan/manifestor/pkg/objectutil"
)

type objectID struct {
	groupKind schema.GroupKind
	namespace string
	name      string
}

func idOf(obj *unstructured.Unstructured) objectID {
	return objectID{
		groupKind: obj.GroupVersionKind().GroupKind(),
		namespace: obj.GetNamespace(),
		name:      obj.GetName(),
	}
}

// Client stores objects in memory. It's not safe for concurrent use.
type Client struct {
	ids     []objectID
	objects map[objectID]*unstructured.Unstructured

	// ListErr is returned by every List call when set.
	ListErr error
	// ApplyErr is returned by every Apply call when set.
	ApplyErr error
	// DeleteErrs holds the errors returned by Delete, keyed by object ID.
	DeleteErrs map[string]error

	// Applied records the IDs of the applied objects in call order.
	Applied []string
	// FieldManagers records the field manager of every Apply call.
	FieldManagers []string
	// Deleted records the IDs of the deleted objects in call order.
	Deleted []string
	// Lists counts the List calls.
	Lists int
}

// NewClient returns a client holding copies of the given objects.
func NewClient(objects ...*unstructured.Unstructured) *Client {
	c := &Client{
		objects:    make(map[objectID]*unstructured.Unstructured),
		DeleteErrs: make(map[string]error),
	}
	for _, obj := range objects {
		c.store(obj.DeepCopy())
	}
	return c
}

func (c *Client) store(obj *unstructured.Unstructured) {
	id := idOf(obj)
	if _, ok := c.objects[id]; !ok {
		c.ids = append(c.ids, id)
	}
	c.objects[id] = obj
}

// Objects returns copies of the stored objects in insertion order.
func (c *Client) Objects() []*unstructured.Unstructured {
	result := make([]*unstructured.Unstructured, 0, len(c.ids))
	for _, id := range c.ids {
		result = append(result, c.objects[id].DeepCopy())
	}
	return result
}

// Get returns a copy of the stored object with the same group, kind, namespace and name.
func (c *Client) Get(obj *unstructured.Unstructured) (*unstructured.Unstructured, bool) {
	found, ok := c.objects[idOf(obj)]
	if !ok {
		return nil, false
	}
	return found.DeepCopy(), true
}

func (c *Client) List(_ context.Context, gvk schema.GroupVersionKind, namespace string, labels map[string]string) ([]*unstructured.Unstructured, error) {
	c.Lists++
	if c.ListErr != nil {
		return nil, c.ListErr
	}

	var result []*unstructured.Unstructured
	for _, id := range c.ids {
		if id.groupKind != gvk.GroupKind() {
			continue
		}
		if namespace != "" && id.namespace != namespace {
			continue
		}
		obj := c.objects[id]
		if !matchLabels(obj.GetLabels(), labels) {
			continue
		}
		result = append(result, obj.DeepCopy())
	}
	return result, nil
}

func (c *Client) Apply(_ context.Context, obj *unstructured.Unstructured, fieldManager string, _ bool) error {
	if c.ApplyErr != nil {
		return c.ApplyErr
	}
	c.store(obj.DeepCopy())
	c.Applied = append(c.Applied, objectutil.FmtUnstructured(obj))
	c.FieldManagers = append(c.FieldManagers, fieldManager)
	return nil
}

func (c *Client) Delete(_ context.Context, obj *unstructured.Unstructured) error {
	subject := objectutil.FmtUnstructured(obj)
	if err, ok := c.DeleteErrs[subject]; ok {
		return err
	}

	id := idOf(obj)
	if _, ok := c.objects[id]; !ok {
		gvk := obj.GroupVersionKind()
		resource := schema.GroupResource{Group: gvk.Group, Resource: strings.ToLower(gvk.Kind) + "s"}
		return apierrors.NewNotFound(resource, obj.GetName())
	}

	delete(c.objects, id)
	for i, existing := range c.ids {
		if existing == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			break
		}
	}
	c.Deleted = append(c.Deleted, subject)
	return nil
}

func matchLabels(objLabels, selector map[string]string) bool {
	for k, v := range selector {
		if objLabels[k] != v {
			return false
		}
	}
	return true
}
