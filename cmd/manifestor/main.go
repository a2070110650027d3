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
	"time"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"github.com/stefanprodan/manifestor/pkg/config"
)

var VERSION = "0.1.0-dev.0"

const PROJECT = "manifestor"

var rootCmd = &cobra.Command{
	Use:           PROJECT,
	Version:       VERSION,
	SilenceUsage:  true,
	SilenceErrors: true,
	Short:         "A command line utility to select, customize and reconcile versioned Kubernetes manifests.",
	Long: `Manifestor reconciles sets of Kubernetes manifests stored as versioned release directories.

Inspect the releases and the desired state:

- manifestor list versions [--semver <constraint>]
- manifestor build [-m <manifest set>] [--release <release>] [--mask-secrets]

Reconcile the desired state with the cluster:

- manifestor apply [-m <manifest set>] [--missing] [--wait]
- manifestor status [-m <manifest set>]
- manifestor unready
- manifestor scrub [-m <manifest set>] [--prune]
- manifestor delete [-m <manifest set>]

Distribute releases as OCI artifacts:

- manifestor push release oci://<image-url>:<tag> -m <manifest set> [--release <release>]
- manifestor pull release oci://<image-url>:<tag> -m <manifest set>
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

type rootFlags struct {
	timeout    time.Duration
	configPath string
}

var (
	rootArgs = rootFlags{}
	logger   = stderrLogger{stderr: os.Stderr}
	cfg      = config.NewConfig()
)

var kubeconfigArgs = genericclioptions.NewConfigFlags(false)

func init() {
	rootCmd.PersistentFlags().DurationVar(&rootArgs.timeout, "timeout", time.Minute,
		"The length of time to wait before giving up on the current operation.")
	rootCmd.PersistentFlags().StringVar(&rootArgs.configPath, "config", "",
		"Path to the config file, defaults to '$HOME/.manifestor/config'.")

	kubeconfigArgs.Timeout = nil
	kubeconfigArgs.Namespace = nil
	kubeconfigArgs.AddFlags(rootCmd.PersistentFlags())

	rootCmd.DisableAutoGenTag = true
	rootCmd.SetOut(os.Stdout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Println(`✗`, err)
		os.Exit(1)
	}
}

func loadConfig() error {
	c, err := config.Read(rootArgs.configPath)
	if err != nil {
		return fmt.Errorf("loading the config failed, error: %w", err)
	}
	cfg = c
	return nil
}
