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

package main

import (
	"fmt"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/stefanprodan/manifestor/pkg/config"
)

func TestBuild(t *testing.T) {
	g := NewWithT(t)
	id := randStringRunes(5)

	dir, err := makeTestCatalog(id, "", map[string][]TestFile{
		"v1.0.0": testRelease(id, "ghcr.io/org/app:v1.0.0"),
		"v1.1.0": testRelease(id, "ghcr.io/org/app:v1.1.0"),
	})
	g.Expect(err).NotTo(HaveOccurred())

	cfgPath, err := makeTestConfig(id+"-config", config.ManifestSetSpec{
		Name:            "app",
		Path:            dir,
		Namespace:       id,
		CreateNamespace: true,
		Values: config.Values{
			config.ImageRegistryKey: "registry.local:5000",
		},
	})
	g.Expect(err).NotTo(HaveOccurred())

	t.Run("builds the latest release", func(t *testing.T) {
		g := NewWithT(t)
		output, err := executeCommand(fmt.Sprintf("build --config %s", cfgPath))
		g.Expect(err).NotTo(HaveOccurred())
		t.Logf("\n%s", output)

		g.Expect(output).To(ContainSubstring("kind: Namespace"))
		g.Expect(output).To(ContainSubstring(fmt.Sprintf("namespace: %s", id)))
		g.Expect(output).To(ContainSubstring("image: registry.local:5000/org/app:v1.1.0"))
		g.Expect(output).To(ContainSubstring("token: s3cr3t"))
	})

	t.Run("builds the given release with masked secrets", func(t *testing.T) {
		g := NewWithT(t)
		output, err := executeCommand(fmt.Sprintf("build --config %s -m app --release v1.0.0 --mask-secrets", cfgPath))
		g.Expect(err).NotTo(HaveOccurred())

		g.Expect(output).To(ContainSubstring("image: registry.local:5000/org/app:v1.0.0"))
		g.Expect(output).To(ContainSubstring("token: '****'"))
		g.Expect(output).NotTo(ContainSubstring("s3cr3t"))
	})

	t.Run("writes json", func(t *testing.T) {
		g := NewWithT(t)
		output, err := executeCommand(fmt.Sprintf("build --config %s -o json", cfgPath))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(output).To(ContainSubstring(`"kind": "List"`))
	})

	t.Run("requires a manifest set for a release", func(t *testing.T) {
		g := NewWithT(t)
		_, err := executeCommand(fmt.Sprintf("build --config %s --release v1.0.0", cfgPath))
		g.Expect(err).To(HaveOccurred())
	})

	t.Run("fails for unknown releases", func(t *testing.T) {
		g := NewWithT(t)
		_, err := executeCommand(fmt.Sprintf("build --config %s -m app --release v9.9.9", cfgPath))
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("release 'v9.9.9' not found"))
	})
}
