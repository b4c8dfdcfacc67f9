// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wisegate/coordinates"
)

var debugOptions struct {
	CountryCode string
	Snapshot    string
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Inspection helpers",
}

var debugResolveCmd = &cobra.Command{
	Use:   "resolve <site_id>",
	Short: "Resolve one site identifier and print the match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		executor, cleanup, err := newExecutor(cmd.Context(), debugOptions.Snapshot)
		if err != nil {
			return err
		}
		defer cleanup()

		resolved, err := coordinates.NewResolver(executor).Resolve(cmd.Context(), args[0], debugOptions.CountryCode)
		if err != nil {
			return err
		}

		if resolved == nil {
			fmt.Fprintf(os.Stderr, "No coordinates found for %s\n", args[0])
			os.Exit(1)
		}

		out, err := json.MarshalIndent(resolved, "", "  ")
		if err != nil {
			return err
		}

		fmt.Println(string(out))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugResolveCmd)

	debugResolveCmd.Flags().StringVar(&debugOptions.CountryCode, "country", "", "ISO country code hint")
	debugResolveCmd.Flags().StringVar(&debugOptions.Snapshot, "snapshot", "", "resolve against a local DuckDB snapshot")
}
