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

var pushReleaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Push uploads a release of a manifest set to a container registry.",
	Long: `The push release command packages the manifest files of a release directory into an OCI artifact
and pushes the image to the container registry.
The push command uses the credentials from '~/.docker/config.json'.`,
	Example: `  manifestor push release <oci url> -m <manifest set> [--release <release>]

  # Push the current release of a manifest set to GitHub Container Registry
  manifestor push release oci://ghcr.io/user/app:v1.0.0 -m app

  # Push a specific release encrypted with age
  manifestor push release oci://ghcr.io/user/app:v1.1.0 -m app --release v1.1.0 --age-recipients recipients.txt
`,
	RunE: runPushReleaseCmd,
}

type pushReleaseFlags struct {
	manifest      string
	release       string
	ageRecipients string
}

var pushReleaseArgs pushReleaseFlags

func init() {
	pushReleaseCmd.Flags().StringVarP(&pushReleaseArgs.manifest, "manifest", "m", "",
		"Name of the manifest set.")
	pushReleaseCmd.Flags().StringVar(&pushReleaseArgs.release, "release", "",
		"The release to push, defaults to the current release.")
	pushReleaseCmd.Flags().StringVar(&pushReleaseArgs.ageRecipients, "age-recipients", "",
		"Path to a file containing a list of age public keys used for encryption.")
	pushCmd.AddCommand(pushReleaseCmd)
}

func runPushReleaseCmd(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("you must specify an artifact name e.g. 'oci://docker.io/user/repo:tag'")
	}
	if pushReleaseArgs.manifest == "" {
		return fmt.Errorf("--manifest is required")
	}

	url, err := registry.ParseURL(args[0])
	if err != nil {
		return err
	}

	recipients, err := registry.ParseAgeRecipients(pushReleaseArgs.ageRecipients)
	if err != nil {
		return fmt.Errorf("reading age recipients failed, error: %w", err)
	}

	specs, err := selectManifestSets([]string{pushReleaseArgs.manifest})
	if err != nil {
		return err
	}
	m, err := newManifestSet(filesys.MakeFsOnDisk(), specs[0], nil)
	if err != nil {
		return err
	}

	rel := pushReleaseArgs.release
	if rel == "" {
		rel, err = m.CurrentRelease()
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	logger.Println("pushing", rel, "to", url)
	digest, err := registry.PushRelease(ctx, url, m.Catalog(), rel,
		registry.NewMetadata(m.Name(), rel), recipients)
	if err != nil {
		return fmt.Errorf("pushing release failed, error: %w", err)
	}

	logger.Println("published digest", digest)
	return nil
}
