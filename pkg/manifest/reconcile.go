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

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/stefanprodan/manifestor/pkg/objectutil"
)

// ClusterClient performs the cluster operations of a manifest set.
type ClusterClient interface {
	// List returns the objects of the given kind in the namespace, or in all namespaces
	// if empty, matching all the labels. No matching objects is not an error.
	List(ctx context.Context, gvk schema.GroupVersionKind, namespace string, labels map[string]string) ([]*unstructured.Unstructured, error)

	// Apply creates or updates the object with server-side apply,
	// force takes the ownership of the conflicting fields.
	Apply(ctx context.Context, obj *unstructured.Unstructured, fieldManager string, force bool) error

	// Delete removes the object, a missing object yields a NotFound API error.
	Delete(ctx context.Context, obj *unstructured.Unstructured) error
}

// DeleteOptions contains options for delete requests.
type DeleteOptions struct {
	// IgnoreNotFound treats the objects that are already gone as deleted.
	IgnoreNotFound bool

	// IgnoreUnauthorized skips the objects the client is not allowed to delete.
	IgnoreUnauthorized bool
}

// DefaultDeleteOptions returns the default delete options where missing objects are ignored.
func DefaultDeleteOptions() DeleteOptions {
	return DeleteOptions{
		IgnoreNotFound:     true,
		IgnoreUnauthorized: false,
	}
}

// InstalledResources returns the objects applied by the current release.
// Only the kinds and namespaces of the desired objects are queried.
func (m *ManifestSet) InstalledResources(ctx context.Context) (*Set, error) {
	rel, err := m.CurrentRelease()
	if err != nil {
		return nil, err
	}
	desired, err := m.BuildDesired(rel)
	if err != nil {
		return nil, err
	}
	return m.query(ctx, listTargets(desired), m.Labels(rel))
}

// LabelledResources returns the objects applied by any release of this manifest set.
// The kinds and namespaces of the desired objects and of the objects shipped by
// the other releases in the catalog are queried.
func (m *ManifestSet) LabelledResources(ctx context.Context) (*Set, error) {
	rel, err := m.CurrentRelease()
	if err != nil {
		return nil, err
	}
	desired, err := m.BuildDesired(rel)
	if err != nil {
		return nil, err
	}

	targets := listTargets(desired)
	releases, err := m.catalog.Releases()
	if err != nil {
		return nil, err
	}
	for _, r := range releases {
		if r == rel {
			continue
		}
		objects, err := m.loader.Load(r)
		if err != nil {
			m.logger.Error(err, "skipping release", "manifest", m.name, "release", r)
			continue
		}
		targets = append(targets, listTargets(objects)...)
	}

	return m.query(ctx, targets, m.selector())
}

// ConflictingResources returns the cluster objects that have the key of a desired object
// of the current release but carry the application or manifest label of another owner,
// or no ownership labels at all.
func (m *ManifestSet) ConflictingResources(ctx context.Context) (*Set, error) {
	desired, err := m.DesiredResources()
	if err != nil {
		return nil, err
	}
	existing, err := m.query(ctx, listTargets(desired), nil)
	if err != nil {
		return nil, err
	}

	owner := m.selector()
	result := NewSet()
	for _, key := range desired.Keys() {
		obj, ok := existing.Get(key)
		if !ok {
			continue
		}
		labels := obj.GetLabels()
		for k, v := range owner {
			if labels[k] != v {
				result.Add(obj)
				break
			}
		}
	}
	return result, nil
}

type listTarget struct {
	gvk       schema.GroupVersionKind
	namespace string
}

func listTargets(objects *Set) []listTarget {
	var targets []listTarget
	for _, obj := range objects.Objects() {
		targets = append(targets, listTarget{gvk: obj.GroupVersionKind(), namespace: obj.GetNamespace()})
	}
	return targets
}

func (m *ManifestSet) query(ctx context.Context, targets []listTarget, labels map[string]string) (*Set, error) {
	if m.client == nil {
		return nil, fmt.Errorf("manifest set %s has no cluster client", m.name)
	}

	seen := make(map[listTarget]bool)
	result := NewSet()
	for _, t := range targets {
		if seen[t] {
			continue
		}
		seen[t] = true

		objects, err := m.client.List(ctx, t.gvk, t.namespace, labels)
		if err != nil {
			if isAbsent(err) {
				continue
			}
			subject := t.gvk.Kind
			if t.namespace != "" {
				subject = fmt.Sprintf("%s/%s", t.gvk.Kind, t.namespace)
			}
			return nil, newClientError("list", subject, err)
		}
		for _, obj := range objects {
			result.Add(obj)
		}
	}
	return result, nil
}

// ApplyManifests applies the desired objects of the current release.
func (m *ManifestSet) ApplyManifests(ctx context.Context) (*ChangeSet, error) {
	desired, err := m.DesiredResources()
	if err != nil {
		return nil, err
	}
	return m.ApplyResources(ctx, desired.Objects()...)
}

// ApplyResources stamps the ownership labels of the current release on copies of the given objects
// and applies them in order with forced server-side apply. It stops at the first failure and
// returns the change set of the objects applied so far.
func (m *ManifestSet) ApplyResources(ctx context.Context, objects ...*unstructured.Unstructured) (*ChangeSet, error) {
	if m.client == nil {
		return nil, fmt.Errorf("manifest set %s has no cluster client", m.name)
	}

	rel, err := m.CurrentRelease()
	if err != nil {
		return nil, err
	}
	if errs := validation.IsValidLabelValue(rel); len(errs) > 0 {
		return nil, fmt.Errorf("invalid release label value '%s': %v", rel, errs)
	}
	ownerLabels := m.Labels(rel)

	changeSet := NewChangeSet()
	for _, obj := range objects {
		applied := obj.DeepCopy()
		labels := applied.GetLabels()
		if labels == nil {
			labels = make(map[string]string, len(ownerLabels))
		}
		for k, v := range ownerLabels {
			labels[k] = v
		}
		applied.SetLabels(labels)

		subject := objectutil.FmtUnstructured(applied)
		if err := m.client.Apply(ctx, applied, m.fieldManager, true); err != nil {
			return changeSet, newClientError("apply", subject, err)
		}
		m.logger.V(1).Info("object applied", "manifest", m.name, "release", rel, "object", subject)
		changeSet.Add(ChangeSetEntry{Subject: subject, Action: string(AppliedAction)})
	}

	return changeSet, nil
}

// DeleteManifests deletes the desired objects of the current release.
func (m *ManifestSet) DeleteManifests(ctx context.Context, opts DeleteOptions) (*ChangeSet, error) {
	desired, err := m.DesiredResources()
	if err != nil {
		return nil, err
	}
	return m.DeleteResources(ctx, opts, desired.Objects()...)
}

// DeleteResources deletes the given objects in order. It stops at the first failure that
// is not ignored by the options and returns the change set of the objects processed so far.
func (m *ManifestSet) DeleteResources(ctx context.Context, opts DeleteOptions, objects ...*unstructured.Unstructured) (*ChangeSet, error) {
	if m.client == nil {
		return nil, fmt.Errorf("manifest set %s has no cluster client", m.name)
	}

	changeSet := NewChangeSet()
	for _, obj := range objects {
		subject := objectutil.FmtUnstructured(obj)
		err := m.client.Delete(ctx, obj)
		entry := ChangeSetEntry{Subject: subject, Action: string(DeletedAction)}
		switch {
		case err == nil:
		case opts.IgnoreNotFound && isAbsent(err):
			entry.Action, entry.Reason = string(SkippedAction), "not found"
		case opts.IgnoreUnauthorized && isUnauthorized(err):
			entry.Action, entry.Reason = string(SkippedAction), "unauthorized"
		default:
			return changeSet, newClientError("delete", subject, err)
		}
		changeSet.Add(entry)
		m.logger.V(1).Info("object "+entry.Action, "manifest", m.name, "object", subject, "reason", entry.Reason)
	}

	return changeSet, nil
}

func isAbsent(err error) bool {
	return apierrors.IsNotFound(err) || meta.IsNoMatchError(err)
}

func isUnauthorized(err error) bool {
	return apierrors.IsUnauthorized(err) || apierrors.IsForbidden(err)
}
