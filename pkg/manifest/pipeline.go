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

	"github.com/stefanprodan/manifestor/pkg/objectutil"
)

// BuildDesired computes the desired objects of the given release.
// The release objects are loaded, then the additions, subtractions and patches
// are run in this order, each group in registration order.
// The result is rebuilt from the loader cache on every call and never touches the cluster.
func (m *ManifestSet) BuildDesired(rel string) (*Set, error) {
	loadedObjects, err := m.loader.Load(rel)
	if err != nil {
		return nil, err
	}

	ctx := m.newContext(rel)

	// objects produced by additions come first, a later addition
	// overrides an earlier one and any loaded object with the same key
	added := NewSet()
	for _, a := range m.additions {
		objects, err := a.Add(ctx)
		if err != nil {
			return nil, fmt.Errorf("addition %s failed, error: %w", a.Name(), err)
		}
		for _, obj := range objects {
			if !objectutil.IsKubernetesObject(obj) {
				return nil, fmt.Errorf("addition %s failed, error: %w: kind, apiVersion and metadata.name are required",
					a.Name(), ErrMalformedResource)
			}
			obj = obj.DeepCopy()
			if err := m.loader.SetDefaultNamespace(rel, obj); err != nil {
				return nil, err
			}
			added.Add(obj)
		}
	}

	desired := NewSet(added.Objects()...)
	for _, obj := range loadedObjects.Objects() {
		if !added.Has(KeyOf(obj)) {
			desired.Add(obj)
		}
	}

	for _, s := range m.subtractions {
		keys, err := s.Subtract(ctx, desired)
		if err != nil {
			return nil, fmt.Errorf("subtraction %s failed, error: %w", s.Name(), err)
		}
		for _, key := range keys {
			if desired.Remove(key) {
				m.logger.V(1).Info("object subtracted", "manifest", m.name, "subtraction", s.Name(), "object", key.String())
			}
		}
	}

	for _, p := range m.patches {
		kinds := make(map[string]bool, len(p.Kinds()))
		for _, kind := range p.Kinds() {
			kinds[kind] = true
		}
		for _, obj := range desired.Objects() {
			if len(kinds) > 0 && !kinds[obj.GetKind()] {
				continue
			}
			key := KeyOf(obj)
			if err := p.Patch(ctx, obj); err != nil {
				return nil, fmt.Errorf("patch %s of %s failed, error: %w", p.Name(), key, err)
			}
			if KeyOf(obj) != key {
				return nil, fmt.Errorf("patch %s of %s failed, error: %w", p.Name(), key, ErrPatchIdentity)
			}
		}
	}

	return desired, nil
}

// DesiredResources computes the desired objects of the current release.
func (m *ManifestSet) DesiredResources() (*Set, error) {
	rel, err := m.CurrentRelease()
	if err != nil {
		return nil, err
	}
	return m.BuildDesired(rel)
}
