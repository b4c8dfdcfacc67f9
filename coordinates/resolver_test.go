// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package coordinates

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisegate/dremio"
)

// fakeExecutor replays scripted responses. Each rule is matched against the
// rendered query and its arguments; the first matching rule answers, and an
// unmatched query yields an empty result.
type fakeExecutor struct {
	rules   []fakeRule
	queries []fakeCall
}

type fakeRule struct {
	contains string
	arg      string
	result   *dremio.Result
	err      error
}

type fakeCall struct {
	query string
	args  []any
}

func (f *fakeExecutor) Execute(_ context.Context, query string, args ...any) (*dremio.Result, error) {
	f.queries = append(f.queries, fakeCall{query: query, args: args})

	for _, rule := range f.rules {
		if rule.contains != "" && !strings.Contains(query, rule.contains) {
			continue
		}

		if rule.arg != "" && !hasArg(args, rule.arg) {
			continue
		}

		if rule.err != nil {
			return nil, rule.err
		}

		return rule.result, nil
	}

	return &dremio.Result{}, nil
}

func hasArg(args []any, want string) bool {
	for _, arg := range args {
		if s, ok := arg.(string); ok && s == want {
			return true
		}
	}

	return false
}

func siteResult(id, scheme, name, country string, lat, lon float64) *dremio.Result {
	return &dremio.Result{
		Columns: []dremio.Column{
			{Name: "thematicIdIdentifier"},
			{Name: "thematicIdIdentifierScheme"},
			{Name: "lat"},
			{Name: "lon"},
			{Name: "monitoringSiteIdentifier"},
			{Name: "monitoringSiteName"},
			{Name: "countryCode"},
		},
		Rows: []dremio.Row{{Cells: []dremio.Cell{
			{V: id}, {V: scheme}, {V: lat}, {V: lon}, {V: id}, {V: name}, {V: country},
		}}},
	}
}

func TestResolveExactPreferredScheme(t *testing.T) {
	exec := &fakeExecutor{rules: []fakeRule{{
		arg:    "FRFR05026000",
		result: siteResult("FRFR05026000", "euMonitoringSiteCode", "La Seine à Paris", "FR", 48.85, 2.35),
	}}}

	got, err := NewResolver(exec).Resolve(context.Background(), "FRFR05026000", "FR")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1.0, got.MatchConfidence)
	assert.Equal(t, "FRFR05026000", got.QuerySite)
	assert.Equal(t, "La Seine à Paris", got.MonitoringSiteName)
	require.Len(t, exec.queries, 1)
	assert.Contains(t, exec.queries[0].query, "thematicIdIdentifier = ?")
}

func TestResolvePrefixFallback(t *testing.T) {
	exec := &fakeExecutor{rules: []fakeRule{{
		arg:    "ES020E%",
		result: siteResult("ES020ESBT000099", "euMonitoringSiteCode", "Embalse", "ES", 41.6, -0.9),
	}}}

	got, err := NewResolver(exec).Resolve(context.Background(), "ES020ESBT000012", "ES")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0.8, got.MatchConfidence)
	assert.Equal(t, "ES020ESBT000012", got.QuerySite)

	// Both exact tiers ran and missed before the prefix tier hit:
	// 1 preferred + 3 alternates + 1 prefixed preferred.
	assert.Len(t, exec.queries, 5)
	assert.Contains(t, exec.queries[4].query, "LIKE ?")
}

func TestResolveCountryFallback(t *testing.T) {
	exec := &fakeExecutor{rules: []fakeRule{{
		contains: "lat IS NOT NULL",
		arg:      "euRBDCode",
		result:   siteResult("DERBD1000", "euRBDCode", "Rhein", "DE", 50.1, 7.6),
	}}}

	got, err := NewResolver(exec).Resolve(context.Background(), "DE0000000X", "DE")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0.2, got.MatchConfidence)
}

func TestResolveNotFound(t *testing.T) {
	exec := &fakeExecutor{}

	got, err := NewResolver(exec).Resolve(context.Background(), "ZZ999999X", "ZZ")

	require.NoError(t, err)
	assert.Nil(t, got)

	// Every tier applies: 2 exact tiers (4 schemes), 2 prefix tiers
	// (4 schemes), 2 country tiers (4 schemes).
	assert.Len(t, exec.queries, 12)
}

func TestResolveShortIdentifierSkipsPrefixTiers(t *testing.T) {
	exec := &fakeExecutor{}

	got, err := NewResolver(exec).Resolve(context.Background(), "AB12", "")

	require.NoError(t, err)
	assert.Nil(t, got)

	// No prefix tiers (identifier too short), no country tiers (no
	// country given): only the two exact tiers ran.
	assert.Len(t, exec.queries, 4)

	for _, call := range exec.queries {
		assert.NotContains(t, call.query, "LIKE")
	}
}

func TestResolveNoCountrySkipsCountryTiers(t *testing.T) {
	exec := &fakeExecutor{}

	_, err := NewResolver(exec).Resolve(context.Background(), "FRFR05026000", "")

	require.NoError(t, err)

	for _, call := range exec.queries {
		assert.NotContains(t, call.query, "lat IS NOT NULL")
	}
}

func TestResolveCountryNarrowsExactTiers(t *testing.T) {
	exec := &fakeExecutor{}

	_, err := NewResolver(exec).Resolve(context.Background(), "FRFR05026000", "fr")

	require.NoError(t, err)
	require.NotEmpty(t, exec.queries)
	assert.Contains(t, exec.queries[0].query, "UPPER(countryCode) = UPPER(?)")
	assert.True(t, hasArg(exec.queries[0].args, "FR"))
}

func TestResolveTransientFailureContinuesCascade(t *testing.T) {
	exec := &fakeExecutor{rules: []fakeRule{
		{
			arg: "euMonitoringSiteCode",
			err: &dremio.QueryError{Type: dremio.ErrorTypeTimeout, Message: "query timed out"},
		},
		{
			arg:    "eionetMonitoringSiteCode",
			result: siteResult("FRFR05026000", "eionetMonitoringSiteCode", "La Seine à Paris", "FR", 48.85, 2.35),
		},
	}}

	got, err := NewResolver(exec).Resolve(context.Background(), "FRFR05026000", "FR")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0.9, got.MatchConfidence)
}

func TestResolveUnavailablePropagates(t *testing.T) {
	exec := &fakeExecutor{rules: []fakeRule{{
		err: &dremio.QueryError{Type: dremio.ErrorTypeUnavailable, Message: "authentication failed"},
	}}}

	got, err := NewResolver(exec).Resolve(context.Background(), "FRFR05026000", "FR")

	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, dremio.IsUnavailable(err))
	assert.Len(t, exec.queries, 1)
}

func TestResolveEmptySiteIdentifier(t *testing.T) {
	_, err := NewResolver(&fakeExecutor{}).Resolve(context.Background(), "  ", "FR")

	assert.Error(t, err)
}

func TestResolveDeterministicOrder(t *testing.T) {
	exec := &fakeExecutor{}

	_, err := NewResolver(exec).Resolve(context.Background(), "FRFR05026000", "FR")

	require.NoError(t, err)

	for _, call := range exec.queries {
		assert.Contains(t, call.query, "ORDER BY thematicIdIdentifier")
		assert.Contains(t, call.query, "LIMIT 1")
	}
}

func TestResolveIdempotent(t *testing.T) {
	exec := &fakeExecutor{rules: []fakeRule{{
		arg:    "FRFR05026000",
		result: siteResult("FRFR05026000", "euMonitoringSiteCode", "La Seine à Paris", "FR", 48.85, 2.35),
	}}}
	resolver := NewResolver(exec)

	first, err := resolver.Resolve(context.Background(), "FRFR05026000", "FR")
	require.NoError(t, err)

	second, err := resolver.Resolve(context.Background(), "FRFR05026000", "FR")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestListByCountry(t *testing.T) {
	exec := &fakeExecutor{rules: []fakeRule{{
		arg:    "FR",
		result: siteResult("FRFR05026000", "euMonitoringSiteCode", "La Seine à Paris", "FR", 48.85, 2.35),
	}}}

	got, err := NewResolver(exec).ListByCountry(context.Background(), "FR", 10)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "FRFR05026000", got[0].ThematicIdentifier)
	require.Len(t, exec.queries, 1)
	assert.True(t, hasArg(exec.queries[0].args, "FR"))
	assert.Contains(t, exec.queries[0].query, "LIMIT ?")
}

func TestListByCountryEmptyCode(t *testing.T) {
	_, err := NewResolver(&fakeExecutor{}).ListByCountry(context.Background(), "", 10)

	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	exec := &fakeExecutor{rules: []fakeRule{{
		arg:    "%FR050%",
		result: siteResult("FRFR05026000", "euMonitoringSiteCode", "La Seine à Paris", "FR", 48.85, 2.35),
	}}}

	got, err := NewResolver(exec).Search(context.Background(), "FR050", 5)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "La Seine à Paris", got[0].MonitoringSiteName)
}

func TestSearchEmptyTerm(t *testing.T) {
	_, err := NewResolver(&fakeExecutor{}).Search(context.Background(), " ", 5)

	assert.Error(t, err)
}
