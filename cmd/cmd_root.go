// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})

	// A missing .env is fine, the environment may be set directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Loading .env: %v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wisegate",
	Short: "European water quality data gateway",
	Long: `
wisegate serves EEA WISE water quality data: it resolves noisy monitoring
site identifiers to coordinates, lists measured determinands, and exposes
sites and measurements as OGC API Features collections. Queries run against
the remote Dremio lake or a local DuckDB snapshot.
`,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
