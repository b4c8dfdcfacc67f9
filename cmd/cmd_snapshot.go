// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/spf13/cobra"

	"wisegate/snapshot"
)

var snapshotOptions struct {
	Dir string
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage the local DuckDB snapshot of the WISE tables",
}

var snapshotFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the WISE CSV exports into a local DuckDB snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := os.MkdirAll(snapshotOptions.Dir, 0o750); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}

		dbpath := filepath.Join(snapshotOptions.Dir, "wisegate.duckdb")

		db, err := sql.Open("duckdb", dbpath)
		if err != nil {
			return fmt.Errorf("opening snapshot database: %w", err)
		}
		defer db.Close()

		fetcher := snapshot.NewFetcher(db, snapshotOptions.Dir)
		if err := fetcher.Fetch(cmd.Context(), snapshot.DefaultSources); err != nil {
			return err
		}

		fmt.Printf("Snapshot ready at %s\n", dbpath)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotFetchCmd)

	snapshotCmd.PersistentFlags().StringVar(&snapshotOptions.Dir, "dir", "db", "directory for the snapshot database and downloads")
}
