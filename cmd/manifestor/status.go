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

	"github.com/spf13/cobra"

	"github.com/stefanprodan/manifestor/pkg/objectutil"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Status prints the conditions of the objects installed by the current release.",
	Example: `  manifestor status [-m <manifest set>]
`,
	RunE: runStatusCmd,
}

type statusFlags struct {
	manifests []string
}

var statusArgs statusFlags

func init() {
	statusCmd.Flags().StringSliceVarP(&statusArgs.manifests, "manifest", "m", nil,
		"Name of the manifest set(s), defaults to all the manifest sets in the config.")

	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	c, _, err := newCollector(statusArgs.manifests, true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	var rows [][]string
	for i, mc := range c.Conditions(ctx) {
		if mc.Err != nil {
			rows = append(rows, []string{mc.Name, "", "", "Unknown", mc.Err.Error()})
			continue
		}
		m := c.ManifestSets()[i]
		for _, rs := range mc.Resources {
			for _, cond := range rs.Conditions {
				ready, relevant := m.IsReady(rs.Object, cond)
				if !relevant {
					continue
				}
				status := "Ready"
				if !ready {
					status = "NotReady"
				}
				rows = append(rows, []string{
					mc.Name,
					objectutil.FmtUnstructured(rs.Object),
					cond.Type,
					status,
					cond.Message,
				})
			}
		}
	}

	printTable(rootCmd.OutOrStdout(), []string{"manifest", "resource", "condition", "status", "message"}, rows)
	return nil
}
