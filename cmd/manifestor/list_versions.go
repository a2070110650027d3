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
	"strings"

	"github.com/spf13/cobra"

	"github.com/stefanprodan/manifestor/pkg/collector"
)

var listVersionsCmd = &cobra.Command{
	Use:     "versions",
	Aliases: []string{"version"},
	Short:   "List the current and the available releases of the manifest sets.",
	Long: `The list versions command prints the release that is selected for each manifest set
and the other releases found in its catalog, highest first.
If a semantic version constraint is specified, the available releases are filtered and ordered by semver.`,
	Example: `  manifestor list versions [-m <manifest set>] [--semver <constraint>]

  # List the releases of all manifest sets
  manifestor list versions

  # List the releases in the 1.x range
  manifestor list versions -m app --semver "1.x"
`,
	RunE: runListVersionsCmd,
}

type listVersionsFlags struct {
	manifests []string
	semverExp string
}

var listVersionsArgs listVersionsFlags

func init() {
	listVersionsCmd.Flags().StringSliceVarP(&listVersionsArgs.manifests, "manifest", "m", nil,
		"Name of the manifest set(s), defaults to all the manifest sets in the config.")
	listVersionsCmd.Flags().StringVar(&listVersionsArgs.semverExp, "semver", "",
		"Filter the available releases based on a semantic version constraint e.g. '1.x'.")
	listCmd.AddCommand(listVersionsCmd)
}

func runListVersionsCmd(cmd *cobra.Command, args []string) error {
	c, _, err := newCollector(listVersionsArgs.manifests, false)
	if err != nil {
		return err
	}

	var rows [][]string
	for i, v := range c.ListVersions() {
		if v.Err != nil {
			rows = append(rows, []string{v.Name, "unknown", v.Err.Error()})
			continue
		}

		available := v.Others()
		if exp := listVersionsArgs.semverExp; exp != "" {
			filtered, err := c.ManifestSets()[i].Catalog().Filter(exp)
			if err != nil {
				return err
			}
			available = collector.Versions{Current: v.Current, Releases: filtered}.Others()
		}

		rows = append(rows, []string{v.Name, v.Current, strings.Join(available, ", ")})
	}

	printTable(rootCmd.OutOrStdout(), []string{"manifest", "current", "available"}, rows)
	logger.Println(fmt.Sprintf("versions: %s", c.ShortVersion()))
	return nil
}
