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
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/stefanprodan/manifestor/pkg/manifest"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete removes the desired objects of the manifest sets from the cluster.",
	Long: `The delete command removes the desired objects of the current release of each manifest set,
in apply order. Objects that are already gone are skipped.`,
	Example: `  manifestor delete [-m <manifest set>] [--wait]
`,
	RunE: runDeleteCmd,
}

type deleteFlags struct {
	manifests          []string
	wait               bool
	ignoreUnauthorized bool
}

var deleteArgs deleteFlags

func init() {
	deleteCmd.Flags().StringSliceVarP(&deleteArgs.manifests, "manifest", "m", nil,
		"Name of the manifest set(s), defaults to all the manifest sets in the config.")
	deleteCmd.Flags().BoolVar(&deleteArgs.wait, "wait", false,
		"Wait for the deleted Kubernetes objects to be terminated.")
	deleteCmd.Flags().BoolVar(&deleteArgs.ignoreUnauthorized, "ignore-unauthorized", false,
		"Skip the objects that can't be deleted due to RBAC restrictions.")

	rootCmd.AddCommand(deleteCmd)
}

func runDeleteCmd(cmd *cobra.Command, args []string) error {
	c, kubeClient, err := newCollector(deleteArgs.manifests, true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	opts := manifest.DefaultDeleteOptions()
	opts.IgnoreUnauthorized = deleteArgs.ignoreUnauthorized

	var deleted []*unstructured.Unstructured
	for _, m := range c.ManifestSets() {
		desired, err := m.DesiredResources()
		if err != nil {
			return fmt.Errorf("%s: %w", m.Name(), err)
		}

		changeSet, err := m.DeleteManifests(ctx, opts)
		printChangeSet(m.Name(), changeSet)
		if err != nil {
			return err
		}
		deleted = append(deleted, desired.Objects()...)
	}

	if deleteArgs.wait && len(deleted) > 0 {
		logger.Println("waiting for resources to be terminated...")
		if err := kubeClient.WaitForTermination(deleted, waitInterval, rootArgs.timeout); err != nil {
			return fmt.Errorf("waiting for termination failed, error: %w", err)
		}
		logger.Println("all resources have been deleted")
	}

	return nil
}
