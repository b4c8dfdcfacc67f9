// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package dremio

import (
	"testing"
)

func TestRenderQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		args       []any
		want       string
		shouldFail bool
	}{
		{
			name:  "String binding",
			query: "SELECT * FROM sites WHERE id = ?",
			args:  []any{"FRFR05026000"},
			want:  "SELECT * FROM sites WHERE id = 'FRFR05026000'",
		},
		{
			name:  "Quote escaping",
			query: "SELECT * FROM sites WHERE name = ?",
			args:  []any{"L'Étang d'Or"},
			want:  "SELECT * FROM sites WHERE name = 'L''Étang d''Or'",
		},
		{
			name:  "Injection attempt stays inert",
			query: "SELECT * FROM sites WHERE id = ?",
			args:  []any{"x'; DROP TABLE sites; --"},
			want:  "SELECT * FROM sites WHERE id = 'x''; DROP TABLE sites; --'",
		},
		{
			name:  "Multiple args of mixed types",
			query: "SELECT * FROM t WHERE cc = ? AND n > ? LIMIT ?",
			args:  []any{"FR", 3.5, 100},
			want:  "SELECT * FROM t WHERE cc = 'FR' AND n > 3.5 LIMIT 100",
		},
		{
			name:  "Placeholder inside string literal untouched",
			query: "SELECT * FROM t WHERE a = 'what?' AND b = ?",
			args:  []any{"v"},
			want:  "SELECT * FROM t WHERE a = 'what?' AND b = 'v'",
		},
		{
			name:  "Nil becomes NULL",
			query: "SELECT ?",
			args:  []any{nil},
			want:  "SELECT NULL",
		},
		{
			name:  "Booleans",
			query: "SELECT ?, ?",
			args:  []any{true, false},
			want:  "SELECT TRUE, FALSE",
		},
		{
			name:       "Too few args",
			query:      "SELECT ? FROM t WHERE x = ?",
			args:       []any{"a"},
			shouldFail: true,
		},
		{
			name:       "Too many args",
			query:      "SELECT 1",
			args:       []any{"a"},
			shouldFail: true,
		},
		{
			name:       "Unsupported type",
			query:      "SELECT ?",
			args:       []any{[]string{"no"}},
			shouldFail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderQuery(tt.query, tt.args...)

			if tt.shouldFail {
				if err == nil {
					t.Errorf("renderQuery(%q) expected error, got %q", tt.query, got)
				}

				return
			}

			if err != nil {
				t.Fatalf("renderQuery(%q) error = %v", tt.query, err)
			}

			if got != tt.want {
				t.Errorf("renderQuery(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}
