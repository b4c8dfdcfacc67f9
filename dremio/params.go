// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package dremio

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// renderQuery substitutes each ? placeholder with the quoted literal of the
// corresponding arg. Placeholders inside single-quoted strings are left
// alone. Argument and placeholder counts must match.
func renderQuery(query string, args ...any) (string, error) {
	var sb strings.Builder

	sb.Grow(len(query))

	argIdx := 0
	inString := false

	for _, r := range query {
		switch {
		case r == '\'':
			inString = !inString

			sb.WriteRune(r)
		case r == '?' && !inString:
			if argIdx >= len(args) {
				return "", fmt.Errorf("query has more placeholders than arguments (%d)", len(args))
			}

			literal, err := quoteLiteral(args[argIdx])
			if err != nil {
				return "", fmt.Errorf("argument %d: %w", argIdx+1, err)
			}

			sb.WriteString(literal)

			argIdx++
		default:
			sb.WriteRune(r)
		}
	}

	if argIdx != len(args) {
		return "", fmt.Errorf("query has %d placeholders but %d arguments", argIdx, len(args))
	}

	return sb.String(), nil
}

// quoteLiteral renders one value as a SQL literal. Strings are quoted with
// embedded single quotes doubled; this is the only escaping path for values
// sent to the remote engine.
func quoteLiteral(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'", nil
	case bool:
		if val {
			return "TRUE", nil
		}

		return "FALSE", nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case time.Time:
		return "'" + val.UTC().Format("2006-01-02 15:04:05") + "'", nil
	default:
		return "", fmt.Errorf("unsupported parameter type %T", v)
	}
}
