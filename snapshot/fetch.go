// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Source is one downloadable CSV export feeding a snapshot table.
type Source struct {
	Name  string
	URL   string
	Table string

	// Latin1 marks exports served in ISO 8859-1; they are transcoded to
	// UTF-8 on the way down so site names survive intact.
	Latin1 bool
}

// DefaultSources are the WISE SOE exports backing the two snapshot tables.
var DefaultSources = []Source{
	{
		Name:   "spatial objects",
		URL:    "https://discodata.eea.europa.eu/download/WISE_SOE/latest/Waterbase_S_WISE_SpatialObject_DerivedData.csv",
		Table:  SpatialTableName,
		Latin1: true,
	},
	{
		Name:  "measurements",
		URL:   "https://discodata.eea.europa.eu/download/WISE_SOE/latest/Waterbase_T_WISE6_DisaggregatedData.csv",
		Table: MeasurementTableName,
	},
}

// Fetcher downloads CSV exports and loads them into a DuckDB snapshot.
type Fetcher struct {
	client *http.Client
	db     *sql.DB
	dir    string
}

// NewFetcher creates a fetcher writing downloads under dir and loading
// into db. The caller keeps ownership of db.
func NewFetcher(db *sql.DB, dir string) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: 30 * time.Minute,
			Transport: &http.Transport{
				MaxIdleConns:          2,
				IdleConnTimeout:       30 * time.Second,
				ResponseHeaderTimeout: 2 * time.Minute,
			},
		},
		db:  db,
		dir: dir,
	}
}

// Fetch downloads every source and loads it into its snapshot table.
// Tables are replaced wholesale, a snapshot is always one coherent export.
func (f *Fetcher) Fetch(ctx context.Context, sources []Source) error {
	if len(sources) == 0 {
		sources = DefaultSources
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	for i, source := range sources {
		log.Printf("[%d/%d] Fetching %s", i+1, len(sources), source.Name)

		path, err := f.download(ctx, source)
		if err != nil {
			return fmt.Errorf("downloading %s: %w", source.Name, err)
		}

		if err := f.load(ctx, source, path); err != nil {
			return fmt.Errorf("loading %s: %w", source.Name, err)
		}
	}

	return nil
}

func (f *Fetcher) download(ctx context.Context, source Source) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	path := filepath.Join(f.dir, source.Table+".csv")

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}

	var body io.Reader = resp.Body
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetDescription("Downloading "+source.Name),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		body = io.TeeReader(body, bar)
	}

	if source.Latin1 {
		body = transform.NewReader(body, charmap.ISO8859_1.NewDecoder())
	}

	if _, err := io.Copy(out, body); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	if err := out.Close(); err != nil {
		return "", err
	}

	return path, nil
}

func (f *Fetcher) load(ctx context.Context, source Source, path string) error {
	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(?, header = true)",
		source.Table,
	)

	if _, err := f.db.ExecContext(ctx, query, path); err != nil {
		return err
	}

	var count int64
	if err := f.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+source.Table).Scan(&count); err != nil {
		return err
	}

	log.Printf("Loaded %d rows into %s", count, source.Table)

	return nil
}
