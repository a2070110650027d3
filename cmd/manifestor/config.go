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
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/stefanprodan/manifestor/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the manifestor config file.",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Init writes a config file with default values at '$HOME/.manifestor/config' or at the --config path.",
	RunE:  runConfigInitCmd,
	// the config file may not exist yet
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var configViewCmd = &cobra.Command{
	Use: "view",
	Short: "Display the config values from '$HOME/.manifestor/config' or from the --config path. " +
		"If no config file is found, the default in-memory values are displayed.",
	RunE: runConfigViewCmd,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configViewCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInitCmd(cmd *cobra.Command, args []string) error {
	cfgPath := rootArgs.configPath
	if cfgPath == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		cfgPath = p
	}

	c := config.NewConfig()
	if err := c.Write(cfgPath); err != nil {
		return err
	}

	logger.Println("config written to", cfgPath)
	return nil
}

func runConfigViewCmd(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	rootCmd.Println(string(data))
	return nil
}
