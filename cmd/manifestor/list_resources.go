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
	"sort"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/stefanprodan/manifestor/pkg/collector"
	"github.com/stefanprodan/manifestor/pkg/objectutil"
)

var listResourcesCmd = &cobra.Command{
	Use:     "resources",
	Aliases: []string{"resource"},
	Short:   "List compares the desired resources of the manifest sets with the cluster.",
	Long: `The list resources command prints the desired objects and the objects labelled by the manifest sets.
An object is 'correct' when it's desired and installed by the current release, 'missing' when it's
desired but not installed by the current release, and 'extra' when it's labelled but not desired.
A desired object found in the cluster with the labels of another application or manifest set
is also listed as 'conflicting'.`,
	Example: `  manifestor list resources [-m <manifest set>] [--kind <kind>]

  # List the Deployments of a manifest set
  manifestor list resources -m app --kind deployment
`,
	RunE: runListResourcesCmd,
}

type listResourcesFlags struct {
	manifests []string
	kinds     []string
}

var listResourcesArgs listResourcesFlags

func init() {
	listResourcesCmd.Flags().StringSliceVarP(&listResourcesArgs.manifests, "manifest", "m", nil,
		"Name of the manifest set(s), defaults to all the manifest sets in the config.")
	listResourcesCmd.Flags().StringSliceVar(&listResourcesArgs.kinds, "kind", nil,
		"Filter the results by kind, case-insensitive.")
	listCmd.AddCommand(listResourcesCmd)
}

func runListResourcesCmd(cmd *cobra.Command, args []string) error {
	c, _, err := newCollector(listResourcesArgs.manifests, true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	result, err := c.ListResources(ctx, collector.Filter{Kinds: listResourcesArgs.kinds})
	if err != nil {
		return err
	}

	var rows [][]string
	for _, m := range c.ManifestSets() {
		analysis, ok := result[m.Name()]
		if !ok {
			continue
		}
		for _, group := range []struct {
			status  string
			objects []*unstructured.Unstructured
		}{
			{"correct", analysis.Correct},
			{"missing", analysis.Missing},
			{"extra", analysis.Extra},
			{"conflicting", analysis.Conflicting},
		} {
			sort.Sort(objectutil.SortableUnstructureds(group.objects))
			for _, obj := range group.objects {
				rows = append(rows, []string{m.Name(), objectutil.FmtUnstructured(obj), group.status})
			}
		}
	}

	printTable(rootCmd.OutOrStdout(), []string{"manifest", "resource", "status"}, rows)
	return nil
}
