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
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/stefanprodan/manifestor/pkg/config"
)

func TestPushPullRelease(t *testing.T) {
	g := NewWithT(t)
	id := randStringRunes(5)

	srcDir, err := makeTestCatalog(id+"-src", "", map[string][]TestFile{
		"v1.0.0": testRelease(id, "ghcr.io/org/app:v1.0.0"),
		"v1.1.0": testRelease(id, "ghcr.io/org/app:v1.1.0"),
	})
	g.Expect(err).NotTo(HaveOccurred())

	dstDir, err := makeTestDir(id+"-dst", nil)
	g.Expect(err).NotTo(HaveOccurred())

	cfgPath, err := makeTestConfig(id+"-config",
		config.ManifestSetSpec{Name: "src", Path: srcDir},
		config.ManifestSetSpec{Name: "dst", Path: dstDir},
	)
	g.Expect(err).NotTo(HaveOccurred())

	artifact := fmt.Sprintf("oci://%s/%s:v1.0.0", registryHost, id)

	t.Run("push release", func(t *testing.T) {
		g := NewWithT(t)
		output, err := executeCommand(fmt.Sprintf(
			"push release %s --config %s -m src --release v1.0.0",
			artifact,
			cfgPath,
		))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(output).To(ContainSubstring("published digest"))
	})

	t.Run("pull release", func(t *testing.T) {
		g := NewWithT(t)
		output, err := executeCommand(fmt.Sprintf(
			"pull release %s --config %s -m dst",
			artifact,
			cfgPath,
		))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(output).To(ContainSubstring("pulled release v1.0.0"))

		data, err := os.ReadFile(filepath.Join(dstDir, "manifests", "v1.0.0", "app.yaml"))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(string(data)).To(ContainSubstring("ghcr.io/org/app:v1.0.0"))
	})

	t.Run("lists the pulled release", func(t *testing.T) {
		g := NewWithT(t)
		output, err := executeCommand(fmt.Sprintf("list versions --config %s -m dst", cfgPath))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(output).To(MatchRegexp(`dst\s+v1\.0\.0`))
	})

	t.Run("requires a manifest set", func(t *testing.T) {
		g := NewWithT(t)
		_, err := executeCommand(fmt.Sprintf("push release %s --config %s", artifact, cfgPath))
		g.Expect(err).To(HaveOccurred())
	})
}
