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

package registry

import (
	"context"
	"fmt"
	"path"
	"strings"
	"testing"

	"filippo.io/age"
	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/gomega"
	"sigs.k8s.io/kustomize/kyaml/filesys"

	"github.com/stefanprodan/manifestor/pkg/release"
)

const testManifest = `apiVersion: v1
kind: ConfigMap
metadata:
  name: %s
data:
  key: value
`

func newReleaseFs(t *testing.T, base string, files map[string]string) filesys.FileSystem {
	t.Helper()
	fs := filesys.MakeFsInMemory()
	for name, body := range files {
		p := path.Join(base, name)
		if err := fs.MkdirAll(path.Dir(p)); err != nil {
			t.Fatal(err)
		}
		if err := fs.WriteFile(p, []byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestPushPullRelease(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()

	src := newReleaseFs(t, "/src", map[string]string{
		"manifests/v1.0.0/app.yaml": fmt.Sprintf(testManifest, "app"),
		"manifests/v1.0.0/rbac.yml": fmt.Sprintf(testManifest, "rbac"),
		"manifests/v1.0.0/README":   "skip",
	})
	catalog := release.NewCatalog(src, "/src")

	url := fmt.Sprintf("%s/%s:v1.0.0", registryHost, randStringRunes(5))
	digestURL, err := PushRelease(ctx, url, catalog, "v1.0.0", NewMetadata("demo", ""), nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(digestURL).To(ContainSubstring("@sha256:"))

	dst := newReleaseFs(t, "/dst", map[string]string{
		"manifests/v1.0.0/stale.yaml": fmt.Sprintf(testManifest, "stale"),
	})
	meta, err := PullRelease(ctx, url, dst, "/dst", nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(meta.Release).To(Equal("v1.0.0"))
	g.Expect(meta.Manifest).To(Equal("demo"))
	g.Expect(meta.Encrypted).To(BeEmpty())
	g.Expect(meta.Digest).To(Equal(digestURL))

	pulled := release.NewCatalog(dst, "/dst")
	files, err := pulled.ManifestFiles("v1.0.0")
	g.Expect(err).NotTo(HaveOccurred())
	if diff := cmp.Diff([]string{
		"/dst/manifests/v1.0.0/app.yaml",
		"/dst/manifests/v1.0.0/rbac.yml",
	}, files); diff != "" {
		t.Errorf("pulled files mismatch (-want +got):\n%s", diff)
	}

	data, err := pulled.ReadFile("/dst/manifests/v1.0.0/rbac.yml")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(data)).To(Equal(fmt.Sprintf(testManifest, "rbac")))
}

func TestPushPullEncryptedRelease(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()

	identity, err := age.GenerateX25519Identity()
	g.Expect(err).NotTo(HaveOccurred())

	src := newReleaseFs(t, "/src", map[string]string{
		"manifests/v2.0.0/secret.yaml": fmt.Sprintf(testManifest, "secret"),
	})
	catalog := release.NewCatalog(src, "/src")

	url := fmt.Sprintf("%s/%s:v2.0.0", registryHost, randStringRunes(5))
	_, err = PushRelease(ctx, url, catalog, "v2.0.0", NewMetadata("", ""), []age.Recipient{identity.Recipient()})
	g.Expect(err).NotTo(HaveOccurred())

	t.Run("fails without identities", func(t *testing.T) {
		g := NewWithT(t)
		dst := filesys.MakeFsInMemory()
		meta, err := PullRelease(ctx, url, dst, "/dst", nil)
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("encrypted artifact"))
		g.Expect(meta.Encrypted).To(Equal(AgeEncryptionVersion))
	})

	t.Run("fails with the wrong identity", func(t *testing.T) {
		g := NewWithT(t)
		other, err := age.GenerateX25519Identity()
		g.Expect(err).NotTo(HaveOccurred())
		dst := filesys.MakeFsInMemory()
		_, err = PullRelease(ctx, url, dst, "/dst", []age.Identity{other})
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("failed to decrypt"))
	})

	t.Run("decrypts with the identity", func(t *testing.T) {
		g := NewWithT(t)
		dst := filesys.MakeFsInMemory()
		_, err := PullRelease(ctx, url, dst, "/dst", []age.Identity{identity})
		g.Expect(err).NotTo(HaveOccurred())

		releases, err := release.NewCatalog(dst, "/dst").Releases()
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(releases).To(Equal([]string{"v2.0.0"}))
	})
}

func TestPushReleaseNotFound(t *testing.T) {
	g := NewWithT(t)

	src := newReleaseFs(t, "/src", map[string]string{
		"manifests/v1.0.0/app.yaml": fmt.Sprintf(testManifest, "app"),
	})
	catalog := release.NewCatalog(src, "/src")

	url := fmt.Sprintf("%s/%s:v9", registryHost, randStringRunes(5))
	_, err := PushRelease(context.Background(), url, catalog, "v9", NewMetadata("", ""), nil)
	g.Expect(err).To(MatchError(ContainSubstring(release.ErrReleaseNotFound.Error())))
}

func TestParseURL(t *testing.T) {
	g := NewWithT(t)

	url, err := ParseURL("oci://ghcr.io/org/app:v1.0.0")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(url).To(Equal("ghcr.io/org/app:v1.0.0"))

	_, err = ParseURL("ghcr.io/org/app:v1.0.0")
	g.Expect(err).To(HaveOccurred())

	_, err = ParseURL("oci://ghcr.io/org/APP:v1")
	g.Expect(err).To(HaveOccurred())
}

func TestUntarFilesRejectsPaths(t *testing.T) {
	g := NewWithT(t)

	data, err := tarFiles(map[string][]byte{"../escape.yaml": []byte("x")})
	g.Expect(err).NotTo(HaveOccurred())

	_, err = untarFiles(strings.NewReader(string(data)))
	g.Expect(err).To(MatchError(ContainSubstring("invalid file name")))
}

func TestMetadataAnnotations(t *testing.T) {
	g := NewWithT(t)

	meta := NewMetadata("demo", "v1")
	meta.Checksum = "abc"

	got, err := GetMetadata(meta.ToAnnotations())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(Equal(meta))

	_, err = GetMetadata(map[string]string{ReleaseAnnotation: "v1"})
	g.Expect(err).To(HaveOccurred())
}
