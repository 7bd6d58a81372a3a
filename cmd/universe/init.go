// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shoprag/universe/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long:  "Write a commented universe.yaml to ~/.config/universe/ unless one already exists.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path := config.BootstrapConfig(); path != "" {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Created %s. Set your provider api_key before serving.\n", path)
				return err
			}

			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", path)
			return err
		},
	}
}
