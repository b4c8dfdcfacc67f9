// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package dremio

import (
	"bytes"
	"encoding/json"
)

// Column describes one column of a query result.
type Column struct {
	Name string `json:"name"`
}

// Cell is one value of a result row. Dremio emits cells either as raw
// scalars or wrapped as {"v": scalar}; both decode to the inner value.
type Cell struct {
	V any
}

// UnmarshalJSON unwraps the {"v": ...} variant and keeps scalars as-is.
func (c *Cell) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}

		if v, ok := obj["v"]; ok {
			return json.Unmarshal(v, &c.V)
		}
	}

	return json.Unmarshal(data, &c.V)
}

// MarshalJSON writes the wrapped wire form.
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"v": c.V})
}

// Row is one result row. Dremio emits rows either as a flat value array or
// wrapped as {"row": [cells]}.
type Row struct {
	Cells []Cell
}

// UnmarshalJSON unwraps the {"row": [...]} variant.
func (r *Row) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Row []Cell `json:"row"`
		}

		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return err
		}

		r.Cells = wrapped.Row

		return nil
	}

	return json.Unmarshal(data, &r.Cells)
}

// MarshalJSON writes the wrapped wire form.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"row": r.Cells})
}

// Result is the decoded response of one SQL query.
type Result struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Empty reports whether the result carries no rows.
func (r *Result) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// Records zips rows against column names, producing flat records. Rows
// shorter than the column list leave the missing fields nil.
func (r *Result) Records() []map[string]any {
	if r == nil {
		return nil
	}

	records := make([]map[string]any, 0, len(r.Rows))

	for _, row := range r.Rows {
		record := make(map[string]any, len(r.Columns))

		for i, col := range r.Columns {
			if i < len(row.Cells) {
				record[col.Name] = row.Cells[i].V
			} else {
				record[col.Name] = nil
			}
		}

		records = append(records, record)
	}

	return records
}
