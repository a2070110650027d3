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
	"sort"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/stefanprodan/manifestor/pkg/collector"
	"github.com/stefanprodan/manifestor/pkg/manifest"
	"github.com/stefanprodan/manifestor/pkg/objectutil"
)

var scrubCmd = &cobra.Command{
	Use:   "scrub",
	Short: "Scrub finds the objects labelled by the manifest sets that are no longer desired.",
	Long: `The scrub command lists the objects that carry the labels of a manifest set, from any release,
but are not desired by the current release. With --prune, the stale objects are deleted.`,
	Example: `  manifestor scrub [-m <manifest set>] [--kind <kind>] [--prune]

  # List the stale objects left behind by previous releases
  manifestor scrub

  # Delete the stale ConfigMaps of a manifest set
  manifestor scrub -m app --kind configmap --prune
`,
	RunE: runScrubCmd,
}

type scrubFlags struct {
	manifests []string
	kinds     []string
	prune     bool
	wait      bool
}

var scrubArgs scrubFlags

func init() {
	scrubCmd.Flags().StringSliceVarP(&scrubArgs.manifests, "manifest", "m", nil,
		"Name of the manifest set(s), defaults to all the manifest sets in the config.")
	scrubCmd.Flags().StringSliceVar(&scrubArgs.kinds, "kind", nil,
		"Filter the stale objects by kind, case-insensitive.")
	scrubCmd.Flags().BoolVar(&scrubArgs.prune, "prune", false,
		"Delete the stale objects from the cluster.")
	scrubCmd.Flags().BoolVar(&scrubArgs.wait, "wait", false,
		"Wait for the pruned objects to be terminated.")

	rootCmd.AddCommand(scrubCmd)
}

func runScrubCmd(cmd *cobra.Command, args []string) error {
	c, kubeClient, err := newCollector(scrubArgs.manifests, true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	filter := collector.Filter{Kinds: scrubArgs.kinds}

	if !scrubArgs.prune {
		stale, err := c.ScrubResources(ctx, filter)
		if err != nil {
			return err
		}

		var rows [][]string
		for _, m := range c.ManifestSets() {
			objects := stale[m.Name()]
			sort.Sort(objectutil.SortableUnstructureds(objects))
			for _, obj := range objects {
				rows = append(rows, []string{m.Name(), objectutil.FmtUnstructured(obj)})
			}
		}
		printTable(rootCmd.OutOrStdout(), []string{"manifest", "stale resource"}, rows)
		return nil
	}

	var stale map[string][]*unstructured.Unstructured
	if scrubArgs.wait {
		stale, err = c.ScrubResources(ctx, filter)
		if err != nil {
			return err
		}
	}

	result, err := c.PruneResources(ctx, filter, manifest.DefaultDeleteOptions())
	for _, m := range c.ManifestSets() {
		printChangeSet(m.Name(), result[m.Name()])
	}
	if err != nil {
		return err
	}

	if scrubArgs.wait {
		var objects []*unstructured.Unstructured
		for _, list := range stale {
			objects = append(objects, list...)
		}
		if len(objects) > 0 {
			logger.Println("waiting for", objectutil.FmtUnstructuredList(objects), "to be terminated...")
			if err := kubeClient.WaitForTermination(objects, waitInterval, rootArgs.timeout); err != nil {
				return fmt.Errorf("waiting for termination failed, error: %w", err)
			}
		}
	}

	return nil
}
