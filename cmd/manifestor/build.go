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

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/stefanprodan/manifestor/pkg/objectutil"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build computes the desired state of the manifest sets and prints the multi-doc to stdout.",
	Long: `The build command loads the selected release of each manifest set, runs the additions,
subtractions and patches, and prints the desired objects in apply order.
The build command never connects to the cluster.`,
	Example: `  manifestor build [-m <manifest set>] [--release <release>] [--mask-secrets] [-o yaml|json]

  # Build the current release of all manifest sets
  manifestor build

  # Build a specific release and hide the Secret values
  manifestor build -m app --release v1.2.0 --mask-secrets
`,
	RunE: runBuildCmd,
}

type buildFlags struct {
	manifests   []string
	release     string
	maskSecrets bool
	output      string
}

var buildArgs buildFlags

func init() {
	buildCmd.Flags().StringSliceVarP(&buildArgs.manifests, "manifest", "m", nil,
		"Name of the manifest set(s), defaults to all the manifest sets in the config.")
	buildCmd.Flags().StringVar(&buildArgs.release, "release", "",
		"Build the given release instead of the current one, requires a single manifest set.")
	buildCmd.Flags().BoolVar(&buildArgs.maskSecrets, "mask-secrets", false,
		"Replace the data values of the Kubernetes Secrets with '****'.")
	buildCmd.Flags().StringVarP(&buildArgs.output, "output", "o", "yaml",
		"Write manifests to stdout in YAML or JSON format.")

	rootCmd.AddCommand(buildCmd)
}

func runBuildCmd(cmd *cobra.Command, args []string) error {
	if buildArgs.release != "" && len(buildArgs.manifests) != 1 {
		return fmt.Errorf("--release requires a single --manifest")
	}

	c, _, err := newCollector(buildArgs.manifests, false)
	if err != nil {
		return err
	}

	var objects []*unstructured.Unstructured
	for _, m := range c.ManifestSets() {
		rel := buildArgs.release
		if rel == "" {
			rel, err = m.CurrentRelease()
			if err != nil {
				return fmt.Errorf("%s: %w", m.Name(), err)
			}
		} else {
			found, err := m.Catalog().Has(rel)
			if err != nil {
				return fmt.Errorf("%s: %w", m.Name(), err)
			}
			if !found {
				return fmt.Errorf("%s: release '%s' not found in %s", m.Name(), rel, m.Catalog().ManifestsPath())
			}
		}

		desired, err := m.BuildDesired(rel)
		if err != nil {
			return fmt.Errorf("%s: %w", m.Name(), err)
		}

		for _, obj := range desired.Objects() {
			if buildArgs.maskSecrets {
				obj, err = objectutil.MaskSecret(obj, "****")
				if err != nil {
					return err
				}
			}
			objects = append(objects, obj)
		}
	}

	switch buildArgs.output {
	case "yaml":
		yml, err := objectutil.ObjectsToYAML(objects)
		if err != nil {
			return err
		}
		rootCmd.Println(yml)
	case "json":
		json, err := objectutil.ObjectsToJSON(objects)
		if err != nil {
			return err
		}
		rootCmd.Println(json)
	default:
		return fmt.Errorf("unsupported output, can be yaml or json")
	}

	return nil
}
