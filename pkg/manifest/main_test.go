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
	"path"
	"testing"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/kustomize/kyaml/filesys"

	"github.com/stefanprodan/manifestor/pkg/config"
	"github.com/stefanprodan/manifestor/pkg/manifest/fake"
	"github.com/stefanprodan/manifestor/pkg/release"
)

const testBase = "/charms/test"

const appManifest = `---
apiVersion: v1
kind: Secret
metadata:
  name: app-secret
stringData:
  token: secret
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: app
spec:
  template:
    spec:
      initContainers:
      - name: init
        image: docker.io/foo/init:v1
      containers:
      - name: app
        image: docker.io/foo/bar:tag
      tolerations:
      - key: dedicated
        operator: Equal
        value: app
        effect: NoSchedule
`

const rbacManifest = `apiVersion: rbac.authorization.k8s.io/v1
kind: ClusterRole
metadata:
  name: app-reader
rules: []
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: app-config
  namespace: kube-system
data:
  key: value
`

type testRelease map[string]string

func newTestCatalog(t *testing.T, version string, releases map[string]testRelease) *release.Catalog {
	t.Helper()
	fs := filesys.MakeFsInMemory()
	if err := fs.MkdirAll(testBase); err != nil {
		t.Fatal(err)
	}
	for rel, files := range releases {
		dir := path.Join(testBase, release.ManifestsDir, rel)
		if err := fs.MkdirAll(dir); err != nil {
			t.Fatal(err)
		}
		for file, content := range files {
			if err := fs.WriteFile(path.Join(dir, file), []byte(content)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if version != "" {
		if err := fs.WriteFile(path.Join(testBase, release.VersionFile), []byte(version)); err != nil {
			t.Fatal(err)
		}
	}
	return release.NewCatalog(fs, testBase)
}

func defaultReleases() map[string]testRelease {
	return map[string]testRelease{
		"v1.0": {"app.yaml": appManifest},
		"v1.1": {"app.yaml": appManifest, "rbac.yml": rbacManifest},
	}
}

func newTestManifestSet(t *testing.T, client *fake.Client, values config.Values, manipulations ...Manipulation) *ManifestSet {
	t.Helper()
	opts := Options{
		Name:          "test-manifest",
		Application:   "test-app",
		Namespace:     "default",
		Catalog:       newTestCatalog(t, "", defaultReleases()),
		Source:        config.StaticSource(values),
		Manipulations: manipulations,
		LabelGroup:    "manifestor.dev",
	}
	if client != nil {
		opts.Client = client
	}
	m, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func newObject(apiVersion, kind, namespace, name string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{}
	obj.SetAPIVersion(apiVersion)
	obj.SetKind(kind)
	obj.SetNamespace(namespace)
	obj.SetName(name)
	return obj
}

func keysOf(s *Set) []string {
	var keys []string
	for _, k := range s.Keys() {
		keys = append(keys, k.String())
	}
	return keys
}
