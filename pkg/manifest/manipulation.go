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
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/stefanprodan/manifestor/pkg/config"
)

// Context is passed to the manipulations of a manifest set.
type Context struct {
	// Name of the manifest set.
	Name string
	// Application the manifest set belongs to.
	Application string
	// Namespace is the default namespace of the manifest set.
	Namespace string
	// Release is the release being built.
	Release string

	source    config.Source
	defaulter func(obj *unstructured.Unstructured) error
}

// Config reads the live configuration of the manifest set.
func (c Context) Config() (config.Values, error) {
	if c.source == nil {
		return config.Values{}, nil
	}
	return c.source.Values()
}

// SetDefaultNamespace sets the manifest set namespace on the object
// if it has none and its kind is namespaced in the release being built.
func (c Context) SetDefaultNamespace(obj *unstructured.Unstructured) error {
	if c.defaulter == nil {
		return nil
	}
	return c.defaulter(obj)
}

// Manipulation is implemented by Addition, Subtraction and Patch.
type Manipulation interface {
	// Name is used in logs and errors.
	Name() string
}

// Addition generates objects that are added to the release objects.
type Addition interface {
	Manipulation
	Add(ctx Context) ([]*unstructured.Unstructured, error)
}

// Subtraction selects the objects that are removed from the desired set.
// The set must not be modified.
type Subtraction interface {
	Manipulation
	Subtract(ctx Context, objects *Set) ([]Key, error)
}

// Patch mutates the fields of the objects whose kind is listed by Kinds,
// an empty list selects all kinds.
type Patch interface {
	Manipulation
	Kinds() []string
	Patch(ctx Context, obj *unstructured.Unstructured) error
}

// AdditionFunc adapts a function to the Addition interface.
func AdditionFunc(name string, fn func(ctx Context) ([]*unstructured.Unstructured, error)) Addition {
	return &additionFunc{name: name, fn: fn}
}

type additionFunc struct {
	name string
	fn   func(ctx Context) ([]*unstructured.Unstructured, error)
}

func (a *additionFunc) Name() string { return a.name }

func (a *additionFunc) Add(ctx Context) ([]*unstructured.Unstructured, error) {
	return a.fn(ctx)
}

// SubtractionFunc adapts a function to the Subtraction interface.
func SubtractionFunc(name string, fn func(ctx Context, objects *Set) ([]Key, error)) Subtraction {
	return &subtractionFunc{name: name, fn: fn}
}

type subtractionFunc struct {
	name string
	fn   func(ctx Context, objects *Set) ([]Key, error)
}

func (s *subtractionFunc) Name() string { return s.name }

func (s *subtractionFunc) Subtract(ctx Context, objects *Set) ([]Key, error) {
	return s.fn(ctx, objects)
}

// PatchFunc adapts a function to the Patch interface.
func PatchFunc(name string, kinds []string, fn func(ctx Context, obj *unstructured.Unstructured) error) Patch {
	return &patchFunc{name: name, kinds: kinds, fn: fn}
}

type patchFunc struct {
	name  string
	kinds []string
	fn    func(ctx Context, obj *unstructured.Unstructured) error
}

func (p *patchFunc) Name() string { return p.name }

func (p *patchFunc) Kinds() []string { return p.kinds }

func (p *patchFunc) Patch(ctx Context, obj *unstructured.Unstructured) error {
	return p.fn(ctx, obj)
}
