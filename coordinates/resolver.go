// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package coordinates resolves noisy monitoring-site identifiers to
// geographic coordinate records from the WISE spatial object table.
//
// Site codes in the measurement and spatial datasets are maintained
// independently and only loosely correlated, so a single exact join misses
// a sizable minority of sites. Resolution therefore walks a fixed cascade
// of progressively looser strategies, stopping at the first hit and
// reporting a per-tier confidence so downstream consumers can filter or
// flag weak matches.
package coordinates

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"wisegate/dremio"
)

// SpatialTable is the fully qualified name of the WISE spatial object table.
const SpatialTable = `"Local S3"."datahub-pre-01".discodata."WISE_SOE".latest."Waterbase_S_WISE_SpatialObject_DerivedData"`

// preferredScheme recovers the large majority of sites; the alternates are
// tried in this fixed order when it misses.
const preferredScheme = "euMonitoringSiteCode"

var alternateSchemes = []string{"eionetMonitoringSiteCode", "euRBDCode", "euSubUnitCode"}

// prefixLength is how many leading characters a prefix-match strategy keeps.
// Identifiers no longer than this carry no extra material to loosen.
const prefixLength = 6

type matchKind int

const (
	// matchExact equality on the thematic identifier.
	matchExact matchKind = iota
	// matchPrefix prefix match on the identifier's first prefixLength characters.
	matchPrefix
	// matchCountry any located record of the requested country.
	matchCountry
)

// strategy is one tier of the cascade. Tiers run strictly in table order;
// within a tier, schemes are queried one at a time and the first hit wins.
type strategy struct {
	name       string
	kind       matchKind
	schemes    []string
	confidence float64
}

// The cascade. Confidence decreases monotonically from top to bottom:
// a later, looser tier never outranks an earlier one.
var cascade = []strategy{
	{name: "exact", kind: matchExact, schemes: []string{preferredScheme}, confidence: 1.0},
	{name: "exact-alt", kind: matchExact, schemes: alternateSchemes, confidence: 0.9},
	{name: "prefix", kind: matchPrefix, schemes: []string{preferredScheme}, confidence: 0.8},
	{name: "prefix-alt", kind: matchPrefix, schemes: alternateSchemes, confidence: 0.7},
	{name: "country", kind: matchCountry, schemes: []string{preferredScheme}, confidence: 0.3},
	{name: "country-alt", kind: matchCountry, schemes: alternateSchemes, confidence: 0.2},
}

const selectColumns = `
	SELECT
		thematicIdIdentifier,
		thematicIdIdentifierScheme,
		lat,
		lon,
		monitoringSiteIdentifier,
		monitoringSiteName,
		countryCode
	FROM ` + SpatialTable

// Resolver finds the best coordinate candidate for a site identifier. It
// holds only a read-only query handle and no mutable state: every Resolve
// call is an independent, idempotent computation, safe to run concurrently.
type Resolver struct {
	exec dremio.Executor
}

// NewResolver creates a resolver over the given query executor.
func NewResolver(exec dremio.Executor) *Resolver {
	return &Resolver{exec: exec}
}

// Resolve walks the cascade for siteID and returns the first candidate
// found, or (nil, nil) when every applicable tier comes up empty. The
// optional countryCode narrows every tier when present and enables the
// country-wide fallback tiers; without it those tiers are skipped.
//
// A query failure scoped to one tier is logged and treated as a miss so the
// remaining tiers still get their chance; only a channel-level failure
// (the engine itself unreachable) aborts and surfaces as an error.
func (r *Resolver) Resolve(ctx context.Context, siteID, countryCode string) (*Resolved, error) {
	if strings.TrimSpace(siteID) == "" {
		return nil, errors.New("site identifier must not be empty")
	}

	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))

	for _, tier := range cascade {
		if !tier.applicable(siteID, countryCode) {
			continue
		}

		for _, scheme := range tier.schemes {
			query, args := tier.buildQuery(siteID, countryCode, scheme)

			result, err := r.exec.Execute(ctx, query, args...)
			if err != nil {
				if dremio.IsUnavailable(err) {
					return nil, fmt.Errorf("resolving site %q: %w", siteID, err)
				}

				log.Printf("coordinate tier %s/%s failed for site %q, treating as miss: %v", tier.name, scheme, siteID, err)

				continue
			}

			if result.Empty() {
				continue
			}

			if tier.confidence < 1.0 {
				log.Printf("coordinate match for site %q via tier %s scheme %s (confidence %.1f)", siteID, tier.name, scheme, tier.confidence)
			}

			return resolvedFromRecord(result.Records()[0], tier.confidence, siteID), nil
		}
	}

	return nil, nil
}

func (s *strategy) applicable(siteID, countryCode string) bool {
	switch s.kind {
	case matchPrefix:
		return len(siteID) > prefixLength
	case matchCountry:
		return countryCode != ""
	default:
		return true
	}
}

// buildQuery produces one tier query with ? placeholders. Every cascade
// query carries an explicit ORDER BY so that "first row" is deterministic
// across runs.
func (s *strategy) buildQuery(siteID, countryCode, scheme string) (string, []any) {
	var (
		where []string
		args  []any
	)

	switch s.kind {
	case matchExact:
		where = append(where, "thematicIdIdentifier = ?")
		args = append(args, siteID)
	case matchPrefix:
		where = append(where, "thematicIdIdentifier LIKE ?")
		args = append(args, siteID[:prefixLength]+"%")
	case matchCountry:
		where = append(where, "lat IS NOT NULL", "lon IS NOT NULL")
	}

	where = append(where, "thematicIdIdentifierScheme = ?")
	args = append(args, scheme)

	if countryCode != "" {
		where = append(where, "UPPER(countryCode) = UPPER(?)")
		args = append(args, countryCode)
	}

	query := selectColumns +
		"\n\tWHERE " + strings.Join(where, "\n\t  AND ") +
		"\n\tORDER BY thematicIdIdentifier" +
		"\n\tLIMIT 1"

	return query, args
}

// ListByCountry returns up to limit located candidates of one country.
// This is a listing, not a resolution: no cascade, no confidence ranking.
func (r *Resolver) ListByCountry(ctx context.Context, countryCode string, limit int) ([]Candidate, error) {
	if strings.TrimSpace(countryCode) == "" {
		return nil, errors.New("country code must not be empty")
	}

	if limit <= 0 {
		limit = 1000
	}

	query := selectColumns + `
	WHERE UPPER(countryCode) = UPPER(?)
	  AND lat IS NOT NULL
	  AND lon IS NOT NULL
	ORDER BY thematicIdIdentifier
	LIMIT ?`

	result, err := r.exec.Execute(ctx, query, strings.TrimSpace(countryCode), limit)
	if err != nil {
		return nil, fmt.Errorf("listing coordinates for country %q: %w", countryCode, err)
	}

	return candidates(result), nil
}

// ListSites pages through all located candidates, optionally narrowed to
// one country. Ordering is stable so offset paging never skips or repeats
// a site between requests.
func (r *Resolver) ListSites(ctx context.Context, countryCode string, limit, offset int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 100
	}

	if offset < 0 {
		offset = 0
	}

	var (
		where = []string{"lat IS NOT NULL", "lon IS NOT NULL"}
		args  []any
	)

	if cc := strings.TrimSpace(countryCode); cc != "" {
		where = append(where, "UPPER(countryCode) = UPPER(?)")
		args = append(args, cc)
	}

	query := selectColumns +
		"\n\tWHERE " + strings.Join(where, "\n\t  AND ") +
		"\n\tORDER BY thematicIdIdentifier" +
		"\n\tLIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	result, err := r.exec.Execute(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing monitoring sites: %w", err)
	}

	return candidates(result), nil
}

// Search returns up to limit located candidates whose thematic identifier
// contains term.
func (r *Resolver) Search(ctx context.Context, term string, limit int) ([]Candidate, error) {
	if strings.TrimSpace(term) == "" {
		return nil, errors.New("search term must not be empty")
	}

	if limit <= 0 {
		limit = 100
	}

	query := selectColumns + `
	WHERE thematicIdIdentifier LIKE ?
	  AND lat IS NOT NULL
	  AND lon IS NOT NULL
	ORDER BY thematicIdIdentifier
	LIMIT ?`

	result, err := r.exec.Execute(ctx, query, "%"+strings.TrimSpace(term)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("searching coordinates for %q: %w", term, err)
	}

	return candidates(result), nil
}

func candidates(result *dremio.Result) []Candidate {
	records := result.Records()
	out := make([]Candidate, 0, len(records))

	for _, record := range records {
		out = append(out, candidateFromRecord(record))
	}

	return out
}
