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
)

var unreadyCmd = &cobra.Command{
	Use:   "unready",
	Short: "Unready prints the conditions that make the installed objects not ready.",
	Long: `The unready command prints one line per condition that makes an object not ready.
A manifest set that can't be queried is reported with the error. The command fails if anything is not ready.`,
	RunE: runUnreadyCmd,
}

func init() {
	rootCmd.AddCommand(unreadyCmd)
}

func runUnreadyCmd(cmd *cobra.Command, args []string) error {
	c, _, err := newCollector(nil, true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	unready := c.Unready(ctx)
	for _, line := range unready {
		rootCmd.Println(line)
	}

	if len(unready) > 0 {
		return fmt.Errorf("%d condition(s) not ready", len(unready))
	}

	logger.Println("all resources are ready")
	return nil
}
