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
	"time"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/stefanprodan/manifestor/pkg/collector"
)

const waitInterval = 2 * time.Second

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply reconciles the desired state of the manifest sets using server-side apply.",
	Long: `The apply command builds the desired objects of the current release of each manifest set,
labels them with the application, manifest set and release, and applies them in order.
With --missing, only the desired objects that are not installed by the current release are applied.`,
	Example: `  manifestor apply [-m <manifest set>] [--missing] [--wait]

  # Apply all manifest sets and wait for the objects to become ready
  manifestor apply --wait

  # Apply the missing Deployments of a manifest set
  manifestor apply -m app --missing --kind deployment
`,
	RunE: runApplyCmd,
}

type applyFlags struct {
	manifests []string
	kinds     []string
	missing   bool
	wait      bool
}

var applyArgs applyFlags

func init() {
	applyCmd.Flags().StringSliceVarP(&applyArgs.manifests, "manifest", "m", nil,
		"Name of the manifest set(s), defaults to all the manifest sets in the config.")
	applyCmd.Flags().StringSliceVar(&applyArgs.kinds, "kind", nil,
		"Restrict --missing to the given kinds, case-insensitive.")
	applyCmd.Flags().BoolVar(&applyArgs.missing, "missing", false,
		"Apply only the desired objects that are not installed by the current release.")
	applyCmd.Flags().BoolVar(&applyArgs.wait, "wait", false,
		"Wait for the applied Kubernetes objects to become ready.")

	rootCmd.AddCommand(applyCmd)
}

func runApplyCmd(cmd *cobra.Command, args []string) error {
	if len(applyArgs.kinds) > 0 && !applyArgs.missing {
		return fmt.Errorf("--kind can only be used with --missing")
	}

	c, kubeClient, err := newCollector(applyArgs.manifests, true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	if applyArgs.missing {
		result, err := c.ApplyMissingResources(ctx, collector.Filter{Kinds: applyArgs.kinds})
		for _, m := range c.ManifestSets() {
			printChangeSet(m.Name(), result[m.Name()])
		}
		if err != nil {
			return err
		}
	} else {
		for _, m := range c.ManifestSets() {
			logger.Println(fmt.Sprintf("applying %s...", m.Name()))
			changeSet, err := m.ApplyManifests(ctx)
			printChangeSet(m.Name(), changeSet)
			if err != nil {
				return err
			}
		}
	}

	if applyArgs.wait {
		var objects []*unstructured.Unstructured
		for _, m := range c.ManifestSets() {
			desired, err := m.DesiredResources()
			if err != nil {
				return fmt.Errorf("%s: %w", m.Name(), err)
			}
			objects = append(objects, desired.Objects()...)
		}

		logger.Println("waiting for resources to become ready...")
		if err := kubeClient.Wait(objects, waitInterval, rootArgs.timeout); err != nil {
			return err
		}
		logger.Println("all resources are ready")
	}

	logger.Println(c.LongVersion())
	return nil
}
