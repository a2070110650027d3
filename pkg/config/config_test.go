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
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"sigs.k8s.io/kustomize/kyaml/filesys"
)

func TestReadWrite(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config")

	cfg, err := Read(configPath)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(cfg.Application).To(Equal(DefaultApplication))
	g.Expect(cfg.FieldManager.Group).To(Equal(DefaultFieldManagerGroup))

	cfg.Application = "kubeflow"
	cfg.ManifestSets = []ManifestSetSpec{
		{
			Name:      "pipelines",
			Path:      "pipelines",
			Namespace: "kubeflow",
			Values:    Values{ReleaseKey: "v1.0"},
		},
	}
	g.Expect(cfg.Write(configPath)).To(Succeed())

	read, err := Read(configPath)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(read.Application).To(Equal("kubeflow"))
	g.Expect(read.ManifestSets).To(HaveLen(1))

	spec, ok := read.Lookup("pipelines")
	g.Expect(ok).To(BeTrue())
	g.Expect(spec.Path).To(Equal(filepath.Join(dir, "pipelines")))
	g.Expect(spec.Values.String(ReleaseKey)).To(Equal("v1.0"))
}

func TestReadInvalid(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config")

	data := `apiVersion: manifestor.dev/v1
kind: Config
application: kubeflow
manifestSets:
- name: pipelines
  path: /tmp/a
- name: pipelines
  path: /tmp/b
`
	g.Expect(os.WriteFile(configPath, []byte(data), 0644)).To(Succeed())

	_, err := Read(configPath)
	g.Expect(err).To(HaveOccurred())
	g.Expect(err.Error()).To(ContainSubstring("duplicate manifest set"))
}

func TestSources(t *testing.T) {
	g := NewWithT(t)
	fs := filesys.MakeFsInMemory()

	src := SourceFor(fs, ManifestSetSpec{
		Name:       "pipelines",
		ValuesFile: "/etc/values.yaml",
		Values:     Values{ReleaseKey: "v1.0", ImageRegistryKey: "docker.io"},
	})

	values, err := src.Values()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(values.String(ReleaseKey)).To(Equal("v1.0"))

	g.Expect(fs.MkdirAll("/etc")).To(Succeed())
	g.Expect(fs.WriteFile("/etc/values.yaml", []byte("release: v1.1\n"))).To(Succeed())

	values, err = src.Values()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(values.String(ReleaseKey)).To(Equal("v1.1"))
	g.Expect(values.String(ImageRegistryKey)).To(Equal("docker.io"))
	g.Expect(values.String("missing")).To(BeEmpty())

	values[ReleaseKey] = "changed"
	values, err = src.Values()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(values.String(ReleaseKey)).To(Equal("v1.1"))
}
