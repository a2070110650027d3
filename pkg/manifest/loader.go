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
	"bytes"
	"fmt"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	apiruntime "k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/stefanprodan/manifestor/pkg/objectutil"
	"github.com/stefanprodan/manifestor/pkg/release"
)

var crdGroupKind = schema.GroupKind{Group: apiextensionsv1.GroupName, Kind: "CustomResourceDefinition"}

// Loader reads the objects of a release from the catalog.
// The objects of each release are cached, the cache is not safe for concurrent use.
type Loader struct {
	catalog   *release.Catalog
	namespace string
	cache     map[string]*loaded
}

type loaded struct {
	objects       *Set
	clusterScoped map[schema.GroupKind]bool
}

// NewLoader returns a loader that sets the given namespace on the namespaced objects that have none.
func NewLoader(catalog *release.Catalog, namespace string) *Loader {
	return &Loader{
		catalog:   catalog,
		namespace: namespace,
		cache:     make(map[string]*loaded),
	}
}

// Load returns a copy of the objects of the given release.
func (l *Loader) Load(rel string) (*Set, error) {
	entry, err := l.load(rel)
	if err != nil {
		return nil, err
	}
	return entry.objects.DeepCopy(), nil
}

// SetDefaultNamespace sets the loader namespace on the object if it has no namespace
// and its kind is namespaced in the given release.
func (l *Loader) SetDefaultNamespace(rel string, obj *unstructured.Unstructured) error {
	entry, err := l.load(rel)
	if err != nil {
		return err
	}
	entry.setDefaultNamespace(obj, l.namespace)
	return nil
}

func (l *Loader) load(rel string) (*loaded, error) {
	if entry, ok := l.cache[rel]; ok {
		return entry, nil
	}

	files, err := l.catalog.ManifestFiles(rel)
	if err != nil {
		return nil, err
	}

	var objects []*unstructured.Unstructured
	for _, file := range files {
		objs, err := l.readFile(file)
		if err != nil {
			return nil, err
		}
		objects = append(objects, objs...)
	}

	entry := &loaded{
		objects:       NewSet(),
		clusterScoped: make(map[schema.GroupKind]bool),
	}

	for _, obj := range objects {
		if obj.GroupVersionKind().GroupKind() != crdGroupKind {
			continue
		}
		crd := &apiextensionsv1.CustomResourceDefinition{}
		if err := apiruntime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, crd); err != nil {
			return nil, fmt.Errorf("%s conversion failed, error: %w", objectutil.FmtUnstructured(obj), err)
		}
		gk := schema.GroupKind{Group: crd.Spec.Group, Kind: crd.Spec.Names.Kind}
		entry.clusterScoped[gk] = crd.Spec.Scope == apiextensionsv1.ClusterScoped
	}

	for _, obj := range objects {
		entry.setDefaultNamespace(obj, l.namespace)
		entry.objects.Add(obj)
	}

	l.cache[rel] = entry
	return entry, nil
}

func (l *Loader) readFile(file string) ([]*unstructured.Unstructured, error) {
	data, err := l.catalog.ReadFile(file)
	if err != nil {
		return nil, err
	}

	docs, err := objectutil.ReadDocuments(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResource, file, err)
	}

	var objects []*unstructured.Unstructured
	for i, doc := range docs {
		items := []*unstructured.Unstructured{doc}
		if doc.IsList() {
			list, err := doc.ToList()
			if err != nil {
				return nil, fmt.Errorf("%w: %s document %d: %v", ErrMalformedResource, file, i, err)
			}
			items = items[:0]
			for j := range list.Items {
				items = append(items, &list.Items[j])
			}
		}

		for _, obj := range items {
			if !objectutil.IsKubernetesObject(obj) {
				return nil, fmt.Errorf("%w: %s document %d: kind, apiVersion and metadata.name are required",
					ErrMalformedResource, file, i)
			}
			objects = append(objects, obj)
		}
	}
	return objects, nil
}

func (e *loaded) setDefaultNamespace(obj *unstructured.Unstructured, namespace string) {
	if obj.GetNamespace() != "" || namespace == "" {
		return
	}

	gk := obj.GroupVersionKind().GroupKind()
	if clusterScoped, ok := e.clusterScoped[gk]; ok {
		if !clusterScoped {
			obj.SetNamespace(namespace)
		}
		return
	}

	if !objectutil.IsClusterScoped(gk) {
		obj.SetNamespace(namespace)
	}
}
