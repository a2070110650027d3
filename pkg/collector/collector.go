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

package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/stefanprodan/manifestor/pkg/manifest"
	"github.com/stefanprodan/manifestor/pkg/objectutil"
)

// Collector answers operational questions across manifest sets.
// It holds no state besides the manifest sets, every query is computed from scratch.
type Collector struct {
	sets   []*manifest.ManifestSet
	logger logr.Logger
}

// New returns a collector for the given manifest sets, ordered by name.
func New(logger logr.Logger, sets ...*manifest.ManifestSet) *Collector {
	sorted := make([]*manifest.ManifestSet, len(sets))
	copy(sorted, sets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name() < sorted[j].Name()
	})
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	return &Collector{sets: sorted, logger: logger}
}

// ManifestSets returns the manifest sets ordered by name.
func (c *Collector) ManifestSets() []*manifest.ManifestSet {
	return c.sets
}

// Versions holds the release information of a manifest set.
type Versions struct {
	Name     string
	Current  string
	Releases []string
	Err      error
}

// Others returns the available releases except the current one.
func (v Versions) Others() []string {
	var others []string
	for _, r := range v.Releases {
		if r != v.Current {
			others = append(others, r)
		}
	}
	return others
}

// ListVersions returns the current and the available releases of every manifest set.
func (c *Collector) ListVersions() []Versions {
	result := make([]Versions, 0, len(c.sets))
	for _, m := range c.sets {
		v := Versions{Name: m.Name()}
		v.Releases, v.Err = m.Releases()
		if v.Err == nil {
			v.Current, v.Err = m.CurrentRelease()
		}
		result = append(result, v)
	}
	return result
}

// ShortVersion returns the current releases joined by a comma.
func (c *Collector) ShortVersion() string {
	var versions []string
	for _, v := range c.ListVersions() {
		versions = append(versions, currentOrUnknown(v))
	}
	return strings.Join(versions, ",")
}

// LongVersion returns the current releases in the format 'Versions: a=v1, b=v2'.
func (c *Collector) LongVersion() string {
	var versions []string
	for _, v := range c.ListVersions() {
		versions = append(versions, fmt.Sprintf("%s=%s", v.Name, currentOrUnknown(v)))
	}
	return "Versions: " + strings.Join(versions, ", ")
}

func currentOrUnknown(v Versions) string {
	if v.Err != nil || v.Current == "" {
		return "unknown"
	}
	return v.Current
}

// ManifestConditions holds the conditions of the installed objects of a manifest set.
type ManifestConditions struct {
	Name      string
	Resources []manifest.ResourceStatus
	Err       error
}

// Conditions returns all the conditions of the installed objects of every manifest set.
// Query errors are recorded per manifest set.
func (c *Collector) Conditions(ctx context.Context) []ManifestConditions {
	result := make([]ManifestConditions, 0, len(c.sets))
	for _, m := range c.sets {
		statuses, err := m.Status(ctx)
		if err != nil {
			c.logger.Error(err, "status query failed", "manifest", m.Name())
		}
		result = append(result, ManifestConditions{Name: m.Name(), Resources: statuses, Err: err})
	}
	return result
}

// Unready returns the sorted descriptions of the conditions that make an installed object not ready.
// A manifest set whose query fails is reported as not ready with the error.
func (c *Collector) Unready(ctx context.Context) []string {
	var result []string
	for i, mc := range c.Conditions(ctx) {
		if mc.Err != nil {
			result = append(result, fmt.Sprintf("%s: %v", mc.Name, mc.Err))
			continue
		}
		m := c.sets[i]
		for _, rs := range mc.Resources {
			for _, cond := range rs.Conditions {
				ready, relevant := m.IsReady(rs.Object, cond)
				if relevant && !ready {
					result = append(result, fmt.Sprintf("%s: %s is not %s",
						mc.Name, objectutil.FmtUnstructured(rs.Object), cond.Type))
				}
			}
		}
	}
	sort.Strings(result)
	return result
}

// Filter selects the manifest sets and the kinds of a query, empty lists select everything.
// Kinds are matched case-insensitively.
type Filter struct {
	Manifests []string
	Kinds     []string
}

func (f Filter) matchManifest(name string) bool {
	if len(f.Manifests) == 0 {
		return true
	}
	for _, m := range f.Manifests {
		if m == name {
			return true
		}
	}
	return false
}

func (f Filter) objects(s *manifest.Set) []*unstructured.Unstructured {
	objects := s.Objects()
	if len(f.Kinds) == 0 {
		return objects
	}
	var result []*unstructured.Unstructured
	for _, obj := range objects {
		for _, kind := range f.Kinds {
			if strings.EqualFold(kind, obj.GetKind()) {
				result = append(result, obj)
				break
			}
		}
	}
	return result
}

// Analysis holds the comparison of the desired objects with the cluster.
type Analysis struct {
	// Correct objects are desired and installed by the current release.
	Correct []*unstructured.Unstructured
	// Extra objects are labelled by the manifest set but not desired.
	Extra []*unstructured.Unstructured
	// Missing objects are desired but not installed by the current release.
	Missing []*unstructured.Unstructured
	// Conflicting objects are in the cluster with the key of a desired object
	// but are owned by another application or manifest set. They are also missing.
	Conflicting []*unstructured.Unstructured
}

// ListResources compares the desired objects of every selected manifest set with the cluster.
func (c *Collector) ListResources(ctx context.Context, filter Filter) (map[string]*Analysis, error) {
	result := make(map[string]*Analysis)
	for _, m := range c.sets {
		if !filter.matchManifest(m.Name()) {
			continue
		}
		desired, err := m.DesiredResources()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name(), err)
		}
		installed, err := m.InstalledResources(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name(), err)
		}
		labelled, err := m.LabelledResources(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name(), err)
		}
		conflicting, err := m.ConflictingResources(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name(), err)
		}
		result[m.Name()] = &Analysis{
			Correct:     filter.objects(desired.Intersection(installed)),
			Extra:       filter.objects(labelled.Difference(desired)),
			Missing:     filter.objects(desired.Difference(installed)),
			Conflicting: filter.objects(conflicting),
		}
	}
	return result, nil
}

// ScrubResources returns, per manifest set, the objects labelled by any release that are not
// desired by the current release. Nothing is deleted, see PruneResources.
func (c *Collector) ScrubResources(ctx context.Context, filter Filter) (map[string][]*unstructured.Unstructured, error) {
	result := make(map[string][]*unstructured.Unstructured)
	for _, m := range c.sets {
		if !filter.matchManifest(m.Name()) {
			continue
		}
		desired, err := m.DesiredResources()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name(), err)
		}
		labelled, err := m.LabelledResources(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name(), err)
		}
		result[m.Name()] = filter.objects(labelled.Difference(desired))
	}
	return result, nil
}

// PruneResources deletes the objects returned by ScrubResources.
func (c *Collector) PruneResources(ctx context.Context, filter Filter, opts manifest.DeleteOptions) (map[string]*manifest.ChangeSet, error) {
	candidates, err := c.ScrubResources(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*manifest.ChangeSet)
	for _, m := range c.sets {
		objects, ok := candidates[m.Name()]
		if !ok {
			continue
		}
		changeSet, err := m.DeleteResources(ctx, opts, objects...)
		result[m.Name()] = changeSet
		if err != nil {
			return result, fmt.Errorf("%s: %w", m.Name(), err)
		}
		c.logger.Info("pruned stale objects", "manifest", m.Name(), "objects", objectutil.FmtUnstructuredList(objects))
	}
	return result, nil
}

// ApplyMissingResources applies, per manifest set, the desired objects
// that are not installed by the current release.
func (c *Collector) ApplyMissingResources(ctx context.Context, filter Filter) (map[string]*manifest.ChangeSet, error) {
	result := make(map[string]*manifest.ChangeSet)
	for _, m := range c.sets {
		if !filter.matchManifest(m.Name()) {
			continue
		}
		desired, err := m.DesiredResources()
		if err != nil {
			return result, fmt.Errorf("%s: %w", m.Name(), err)
		}
		installed, err := m.InstalledResources(ctx)
		if err != nil {
			return result, fmt.Errorf("%s: %w", m.Name(), err)
		}
		missing := filter.objects(desired.Difference(installed))
		changeSet, err := m.ApplyResources(ctx, missing...)
		result[m.Name()] = changeSet
		if err != nil {
			return result, fmt.Errorf("%s: %w", m.Name(), err)
		}
	}
	return result, nil
}
