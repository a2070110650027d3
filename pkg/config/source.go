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

package config

import (
	"fmt"
	"strings"

	"sigs.k8s.io/kustomize/kyaml/filesys"
	"sigs.k8s.io/yaml"
)

const (
	// ReleaseKey selects the release of a manifest set.
	ReleaseKey = "release"

	// ImageRegistryKey sets the registry that replaces the one of container images.
	ImageRegistryKey = "image-registry"
)

// Values holds the live configuration of a manifest set.
type Values map[string]interface{}

// String returns the value of the key as a trimmed string,
// or an empty string if the key is missing.
func (v Values) String(key string) string {
	val, ok := v[key]
	if !ok || val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(val))
}

// Source returns the live configuration, implementations must not cache
// the values since they can change between calls.
type Source interface {
	Values() (Values, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() (Values, error)

func (f SourceFunc) Values() (Values, error) { return f() }

// StaticSource returns a copy of the same values on every call.
type StaticSource Values

func (s StaticSource) Values() (Values, error) {
	values := make(Values, len(s))
	for k, v := range s {
		values[k] = v
	}
	return values, nil
}

// FileSource reads the values from a YAML file on every call.
// A missing file yields empty values.
type FileSource struct {
	fs   filesys.FileSystem
	path string
}

// NewFileSource returns a source backed by the YAML file at the given path.
func NewFileSource(fs filesys.FileSystem, path string) *FileSource {
	return &FileSource{fs: fs, path: path}
}

func (s *FileSource) Values() (Values, error) {
	values := make(Values)
	if !s.fs.Exists(s.path) {
		return values, nil
	}

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading values from %s failed, error: %w", s.path, err)
	}

	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing values from %s failed, error: %w", s.path, err)
	}
	if values == nil {
		values = make(Values)
	}
	return values, nil
}

// MergeSources returns a source that reads all the given sources in order,
// the values of the later sources take precedence.
func MergeSources(sources ...Source) Source {
	return SourceFunc(func() (Values, error) {
		values := make(Values)
		for _, src := range sources {
			if src == nil {
				continue
			}
			v, err := src.Values()
			if err != nil {
				return nil, err
			}
			for key, val := range v {
				values[key] = val
			}
		}
		return values, nil
	})
}

// SourceFor returns the source of the given manifest set: the inline values
// overridden by the values file, if any.
func SourceFor(fs filesys.FileSystem, spec ManifestSetSpec) Source {
	sources := []Source{StaticSource(spec.Values)}
	if spec.ValuesFile != "" {
		sources = append(sources, NewFileSource(fs, spec.ValuesFile))
	}
	return MergeSources(sources...)
}
