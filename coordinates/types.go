// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package coordinates

// Candidate is one row of the WISE spatial object table: a site code as
// recorded by some coding scheme, with its coordinates when known.
type Candidate struct {
	ThematicIdentifier       string   `json:"thematic_identifier"`
	ThematicIdentifierScheme string   `json:"thematic_identifier_scheme"`
	Latitude                 *float64 `json:"latitude"`
	Longitude                *float64 `json:"longitude"`
	MonitoringSiteIdentifier string   `json:"monitoring_site_identifier"`
	MonitoringSiteName       string   `json:"monitoring_site_name"`
	CountryCode              string   `json:"country_code"`
}

// Resolved is the outcome of one cascade resolution: the winning candidate
// plus how much the caller should trust the match and which site was asked
// for. MatchConfidence is a rank over cascade tiers, not a probability.
type Resolved struct {
	Candidate
	MatchConfidence float64 `json:"match_confidence"`
	QuerySite       string  `json:"original_query_site"`
}
