// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/spf13/cobra"

	"wisegate/coordinates"
	"wisegate/dremio"
	"wisegate/server"
	"wisegate/snapshot"
	"wisegate/waterbase"
)

var serveOptions struct {
	Addr     string
	BaseURL  string
	Snapshot string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the water quality HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		executor, cleanup, err := newExecutor(cmd.Context(), serveOptions.Snapshot)
		if err != nil {
			return err
		}
		defer cleanup()

		srv := server.NewServer(
			coordinates.NewResolver(executor),
			waterbase.NewService(executor),
			server.Options{
				Addr:    serveOptions.Addr,
				BaseURL: serveOptions.BaseURL,
			},
		)

		return srv.Run()
	},
}

// newExecutor picks the query backend: a local DuckDB snapshot when a path
// is given, the remote Dremio lake otherwise.
func newExecutor(ctx context.Context, snapshotPath string) (dremio.Executor, func(), error) {
	if snapshotPath != "" {
		if _, err := os.Stat(snapshotPath); errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("snapshot not found at %s - run 'wisegate snapshot fetch' first", snapshotPath)
		}

		db, err := sql.Open("duckdb", snapshotPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening snapshot: %w", err)
		}

		log.Printf("Serving from snapshot %s", snapshotPath)

		return snapshot.NewStore(db), func() { db.Close() }, nil
	}

	cfg, err := dremio.ConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}

	client := dremio.NewClient(cfg)
	if err := client.Authenticate(ctx); err != nil {
		return nil, nil, fmt.Errorf("authenticating against dremio: %w", err)
	}

	log.Printf("Serving from remote lake %s", cfg.Server)

	return client, func() {}, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveOptions.Addr, "addr", "localhost:8080", "listen address")
	serveCmd.Flags().StringVar(&serveOptions.BaseURL, "base-url", "", "externally visible base URL for OGC links")
	serveCmd.Flags().StringVar(&serveOptions.Snapshot, "snapshot", "", "serve from a local DuckDB snapshot instead of the remote lake")
}
