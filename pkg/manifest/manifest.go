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
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/stefanprodan/manifestor/pkg/config"
	"github.com/stefanprodan/manifestor/pkg/release"
)

// Options holds the settings of a manifest set.
type Options struct {
	// Name of the manifest set, used as a label value.
	Name string

	// Application the manifest set belongs to, used as a label value.
	Application string

	// Namespace is set on the namespaced objects that have none.
	Namespace string

	// Catalog lists the releases of the manifest set.
	Catalog *release.Catalog

	// Source provides the live configuration, it's read on every access.
	Source config.Source

	// Client performs the cluster operations.
	Client ClusterClient

	// Manipulations are run in registration order, grouped by type.
	Manipulations []Manipulation

	// Readiness overrides DefaultReadiness.
	Readiness ReadinessFunc

	// FieldManager overrides the '<application>-<name>' field manager.
	FieldManager string

	// LabelGroup is the prefix of the ownership label keys.
	LabelGroup string

	// Logger defaults to a logger that discards everything.
	Logger logr.Logger
}

// ManifestSet binds a release catalog to the manipulations and the live configuration
// that produce the desired objects, and to the client that reconciles them.
type ManifestSet struct {
	name         string
	application  string
	namespace    string
	catalog      *release.Catalog
	loader       *Loader
	source       config.Source
	client       ClusterClient
	additions    []Addition
	subtractions []Subtraction
	patches      []Patch
	readiness    ReadinessFunc
	fieldManager string
	labelGroup   string
	logger       logr.Logger
}

// New returns a manifest set for the given options.
func New(opts Options) (*ManifestSet, error) {
	if opts.Name == "" {
		return nil, errors.New("manifest set name can't be empty")
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("manifest set %s has no release catalog", opts.Name)
	}
	for _, v := range []string{opts.Name, opts.Application} {
		if errs := validation.IsValidLabelValue(v); len(errs) > 0 {
			return nil, fmt.Errorf("invalid label value '%s': %v", v, errs)
		}
	}

	m := &ManifestSet{
		name:         opts.Name,
		application:  opts.Application,
		namespace:    opts.Namespace,
		catalog:      opts.Catalog,
		loader:       NewLoader(opts.Catalog, opts.Namespace),
		source:       opts.Source,
		client:       opts.Client,
		readiness:    opts.Readiness,
		fieldManager: opts.FieldManager,
		labelGroup:   opts.LabelGroup,
		logger:       logr.Discard(),
	}

	if m.source == nil {
		m.source = config.StaticSource{}
	}
	if m.readiness == nil {
		m.readiness = DefaultReadiness
	}
	if m.fieldManager == "" {
		m.fieldManager = fmt.Sprintf("%s-%s", m.application, m.name)
	}
	if m.labelGroup == "" {
		m.labelGroup = config.DefaultFieldManagerGroup
	}
	if opts.Logger.GetSink() != nil {
		m.logger = opts.Logger
	}

	for _, manipulation := range opts.Manipulations {
		switch v := manipulation.(type) {
		case Addition:
			m.additions = append(m.additions, v)
		case Subtraction:
			m.subtractions = append(m.subtractions, v)
		case Patch:
			m.patches = append(m.patches, v)
		default:
			return nil, fmt.Errorf("manipulation %s is not an addition, subtraction or patch", manipulation.Name())
		}
	}

	return m, nil
}

func (m *ManifestSet) Name() string {
	return m.name
}

func (m *ManifestSet) Application() string {
	return m.application
}

func (m *ManifestSet) Namespace() string {
	return m.namespace
}

func (m *ManifestSet) FieldManager() string {
	return m.fieldManager
}

func (m *ManifestSet) Catalog() *release.Catalog {
	return m.catalog
}

// Config reads the live configuration.
func (m *ManifestSet) Config() (config.Values, error) {
	return m.source.Values()
}

// Releases returns the available releases, highest first.
func (m *ManifestSet) Releases() ([]string, error) {
	return m.catalog.Releases()
}

// CurrentRelease resolves the release from the 'release' config value,
// the catalog default release or the highest available release, in this order.
func (m *ManifestSet) CurrentRelease() (string, error) {
	values, err := m.source.Values()
	if err != nil {
		return "", err
	}
	return m.catalog.Resolve(values.String(config.ReleaseKey))
}

// Labels returns the ownership labels stamped on the objects of the given release.
func (m *ManifestSet) Labels(rel string) map[string]string {
	labels := m.selector()
	labels[m.labelGroup+"/release"] = rel
	return labels
}

func (m *ManifestSet) selector() map[string]string {
	return map[string]string{
		m.labelGroup + "/application": m.application,
		m.labelGroup + "/manifest":    m.name,
	}
}

func (m *ManifestSet) newContext(rel string) Context {
	return Context{
		Name:        m.name,
		Application: m.application,
		Namespace:   m.namespace,
		Release:     rel,
		source:      m.source,
		defaulter: func(obj *unstructured.Unstructured) error {
			return m.loader.SetDefaultNamespace(rel, obj)
		},
	}
}
