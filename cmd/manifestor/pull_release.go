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
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/kustomize/kyaml/filesys"

	"github.com/stefanprodan/manifestor/pkg/registry"
)

var pullReleaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Pull downloads a release from a container registry into the catalog of a manifest set.",
	Long: `The pull release command downloads the specified OCI artifact and writes its manifests to
'<catalog>/manifests/<release>', replacing an existing release directory with the same name.
For private registries, the pull command uses the credentials from '~/.docker/config.json'.`,
	Example: `  manifestor pull release <oci url> -m <manifest set>

  # Pull a release into the catalog of a manifest set
  manifestor pull release oci://ghcr.io/user/app:v1.0.0 -m app

  # Pull an encrypted release
  manifestor pull release oci://ghcr.io/user/app:v1.1.0 -m app --age-identities identities.txt
`,
	RunE: runPullReleaseCmd,
}

type pullReleaseFlags struct {
	manifest      string
	ageIdentities string
}

var pullReleaseArgs pullReleaseFlags

func init() {
	pullReleaseCmd.Flags().StringVarP(&pullReleaseArgs.manifest, "manifest", "m", "",
		"Name of the manifest set.")
	pullReleaseCmd.Flags().StringVar(&pullReleaseArgs.ageIdentities, "age-identities", "",
		"Path to a file containing a list of age private keys used for decryption.")
	pullCmd.AddCommand(pullReleaseCmd)
}

func runPullReleaseCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify an artifact name e.g. 'oci://docker.io/user/repo:tag'")
	}
	if pullReleaseArgs.manifest == "" {
		return fmt.Errorf("--manifest is required")
	}

	url, err := registry.ParseURL(args[0])
	if err != nil {
		return err
	}

	identities, err := registry.ParseAgeIdentities(pullReleaseArgs.ageIdentities)
	if err != nil {
		return fmt.Errorf("reading age identities failed, error: %w", err)
	}

	specs, err := selectManifestSets([]string{pullReleaseArgs.manifest})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	meta, err := registry.PullRelease(ctx, url, filesys.MakeFsOnDisk(), specs[0].Path, identities)
	if err != nil {
		return fmt.Errorf("pulling %s failed: %w", url, err)
	}

	logger.Println(fmt.Sprintf("pulled release %s from %s", meta.Release, meta.Digest))
	return nil
}
