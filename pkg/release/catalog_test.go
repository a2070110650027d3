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

package release

import (
	"errors"
	"path"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/gomega"
	"sigs.k8s.io/kustomize/kyaml/filesys"
)

const testManifest = `apiVersion: v1
kind: ConfigMap
metadata:
  name: test
`

func makeCatalog(t *testing.T, version string, releases map[string][]string) *Catalog {
	fs := filesys.MakeFsInMemory()
	base := "/charm"
	if err := fs.MkdirAll(path.Join(base, ManifestsDir)); err != nil {
		t.Fatal(err)
	}
	for release, files := range releases {
		dir := path.Join(base, ManifestsDir, release)
		if err := fs.MkdirAll(dir); err != nil {
			t.Fatal(err)
		}
		for _, f := range files {
			if err := fs.WriteFile(path.Join(dir, f), []byte(testManifest)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if version != "" {
		if err := fs.WriteFile(path.Join(base, VersionFile), []byte(version+"\n")); err != nil {
			t.Fatal(err)
		}
	}
	return NewCatalog(fs, base)
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"v1.0", "v1.0", 0},
		{"v1.0", "v1.1", -1},
		{"v1.10", "v1.9", 1},
		{"v0.3.1", "v0.2", 1},
		{"v1.2", "v1.2.1", -1},
		{"v1.2.0-rc1", "v1.2.0-rc2", -1},
		{"v1.02", "v1.2", -1},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestReleases(t *testing.T) {
	g := NewWithT(t)
	c := makeCatalog(t, "", map[string][]string{
		"v0.2":   {"a.yaml"},
		"v0.3.1": {"a.yml", "b.yaml"},
		"v0.10":  {"a.yaml"},
		"empty":  {"README.md"},
	})

	releases, err := c.Releases()
	g.Expect(err).ToNot(HaveOccurred())
	if diff := cmp.Diff([]string{"v0.10", "v0.3.1", "v0.2"}, releases); diff != "" {
		t.Errorf("Mismatch from expected value (-want +got):\n%s", diff)
	}

	found, err := c.Has("v0.3.1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(found).To(BeTrue())

	found, err = c.Has("empty")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(found).To(BeFalse())

	files, err := c.ManifestFiles("v0.3.1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(files).To(Equal([]string{
		"/charm/manifests/v0.3.1/a.yml",
		"/charm/manifests/v0.3.1/b.yaml",
	}))
}

func TestResolve(t *testing.T) {
	t.Run("uses the default release", func(t *testing.T) {
		g := NewWithT(t)
		c := makeCatalog(t, "v1.0", map[string][]string{
			"v1.0": {"a.yaml"},
			"v1.1": {"a.yaml"},
		})

		release, err := c.Resolve("")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(release).To(Equal("v1.0"))
	})

	t.Run("configured release wins", func(t *testing.T) {
		g := NewWithT(t)
		c := makeCatalog(t, "v1.0", map[string][]string{
			"v1.0": {"a.yaml"},
			"v1.1": {"a.yaml"},
		})

		release, err := c.Resolve("v1.1")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(release).To(Equal("v1.1"))
	})

	t.Run("configured release must exist", func(t *testing.T) {
		g := NewWithT(t)
		c := makeCatalog(t, "", map[string][]string{
			"v1.0": {"a.yaml"},
		})

		_, err := c.Resolve("v1")
		g.Expect(errors.Is(err, ErrReleaseNotFound)).To(BeTrue())
	})

	t.Run("falls back to the highest release", func(t *testing.T) {
		g := NewWithT(t)
		c := makeCatalog(t, "v0.9", map[string][]string{
			"v1.9":  {"a.yaml"},
			"v1.10": {"a.yaml"},
		})

		release, err := c.Resolve("")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(release).To(Equal("v1.10"))

		latest, err := c.LatestRelease()
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(latest).To(Equal("v1.10"))
	})

	t.Run("fails on empty catalog", func(t *testing.T) {
		g := NewWithT(t)
		c := makeCatalog(t, "v1.0", nil)

		_, err := c.Resolve("")
		g.Expect(errors.Is(err, ErrNoAvailableRelease)).To(BeTrue())

		_, err = c.LatestRelease()
		g.Expect(errors.Is(err, ErrNoAvailableRelease)).To(BeTrue())
	})
}

func TestDefaultRelease(t *testing.T) {
	g := NewWithT(t)

	c := makeCatalog(t, "", map[string][]string{"v1.0": {"a.yaml"}})
	def, err := c.DefaultRelease()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(def).To(BeEmpty())

	c = makeCatalog(t, "v1.0", map[string][]string{"v1.0": {"a.yaml"}})
	def, err = c.DefaultRelease()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(def).To(Equal("v1.0"))
}

func TestFilter(t *testing.T) {
	g := NewWithT(t)
	c := makeCatalog(t, "", map[string][]string{
		"v1.0.0": {"a.yaml"},
		"v1.1.0": {"a.yaml"},
		"v2.0.0": {"a.yaml"},
		"latest": {"a.yaml"},
	})

	releases, err := c.Filter("1.x")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(releases).To(Equal([]string{"v1.1.0", "v1.0.0"}))

	_, err = c.Filter("not a constraint")
	g.Expect(err).To(HaveOccurred())
}
