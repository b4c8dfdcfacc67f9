// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot serves queries from a local DuckDB copy of the WISE
// tables, for offline work and tests. It implements the same executor
// contract as the remote engine, so the rest of the service cannot tell
// the two apart.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"wisegate/coordinates"
	"wisegate/dremio"
	"wisegate/waterbase"
)

// Local table names the remote lake tables are rewritten to.
const (
	SpatialTableName     = "spatial_objects"
	MeasurementTableName = "measurements"
)

// tableAliases maps the fully qualified remote names, which DuckDB cannot
// resolve, to the snapshot's local tables. Queries are written once against
// the remote names and rewritten here.
var tableAliases = map[string]string{
	coordinates.SpatialTable:   SpatialTableName,
	waterbase.MeasurementTable: MeasurementTableName,
}

// Store is a dremio.Executor backed by a local DuckDB database.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open DuckDB handle. The caller keeps ownership of db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Execute runs query against the snapshot. Placeholders are bound natively
// by the driver, no literal substitution happens here.
func (s *Store) Execute(ctx context.Context, query string, args ...any) (*dremio.Result, error) {
	for remote, local := range tableAliases {
		query = strings.ReplaceAll(query, remote, local)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &dremio.QueryError{
			Type:    dremio.ErrorTypeQuery,
			Message: "snapshot query failed",
			Err:     err,
		}
	}
	defer rows.Close()

	return collect(rows)
}

func collect(rows *sql.Rows) (*dremio.Result, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading snapshot columns: %w", err)
	}

	result := &dremio.Result{Columns: make([]dremio.Column, len(names))}
	for i, name := range names {
		result.Columns[i] = dremio.Column{Name: name}
	}

	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))

		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}

		row := dremio.Row{Cells: make([]dremio.Cell, len(values))}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}

			row.Cells[i] = dremio.Cell{V: v}
		}

		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}

	return result, nil
}
