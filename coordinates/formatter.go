// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package coordinates

import (
	"encoding/json"
	"strconv"
	"strings"
)

// unnamedSite is the display name of last resort: every resolved candidate
// carries a non-empty name.
const unnamedSite = "Unnamed Site"

// candidateFromRecord maps one flattened query record onto a Candidate,
// applying the display-name fallback: site name, then thematic identifier,
// then the placeholder.
func candidateFromRecord(record map[string]any) Candidate {
	c := Candidate{
		ThematicIdentifier:       asString(record["thematicIdIdentifier"]),
		ThematicIdentifierScheme: asString(record["thematicIdIdentifierScheme"]),
		Latitude:                 asFloat(record["lat"]),
		Longitude:                asFloat(record["lon"]),
		MonitoringSiteIdentifier: asString(record["monitoringSiteIdentifier"]),
		MonitoringSiteName:       asString(record["monitoringSiteName"]),
		CountryCode:              asString(record["countryCode"]),
	}

	if strings.TrimSpace(c.MonitoringSiteName) == "" {
		if c.ThematicIdentifier != "" {
			c.MonitoringSiteName = c.ThematicIdentifier
		} else {
			c.MonitoringSiteName = unnamedSite
		}
	}

	return c
}

func resolvedFromRecord(record map[string]any, confidence float64, querySite string) *Resolved {
	return &Resolved{
		Candidate:       candidateFromRecord(record),
		MatchConfidence: confidence,
		QuerySite:       querySite,
	}
}

func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

// asFloat handles the numeric shapes the query engine produces: native
// floats, integers, and numbers serialized as strings.
func asFloat(v any) *float64 {
	switch val := v.(type) {
	case float64:
		return &val
	case float32:
		f := float64(val)

		return &f
	case int:
		f := float64(val)

		return &f
	case int64:
		f := float64(val)

		return &f
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil
		}

		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}

		return &f
	default:
		return nil
	}
}
