// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package waterbase queries the WISE disaggregated water-quality
// measurements and exposes them as time series at several granularities.
package waterbase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wisegate/coordinates"
	"wisegate/dremio"
)

// MeasurementTable is the fully qualified name of the WISE disaggregated
// measurement table.
const MeasurementTable = `"Local S3"."datahub-pre-01".discodata."WISE_SOE".latest."Waterbase_T_WISE6_DisaggregatedData"`

// Granularity selects how observations are aggregated over time.
type Granularity int

const (
	// Raw returns individual observations.
	Raw Granularity = iota
	// Monthly averages observations per calendar month.
	Monthly
	// Yearly averages observations per calendar year.
	Yearly
)

func (g Granularity) String() string {
	switch g {
	case Raw:
		return "raw"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// ParseGranularity maps the wire value to a Granularity. The empty string
// means Raw.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raw":
		return Raw, nil
	case "monthly":
		return Monthly, nil
	case "yearly":
		return Yearly, nil
	default:
		return Raw, fmt.Errorf("unknown granularity %q, want raw, monthly or yearly", s)
	}
}

// Observation is one point of a site's time series. Period is the raw
// sampling date, the month ("2019-07") or the year ("2019") depending on
// the granularity it was queried at. SampleCount is 1 for raw observations.
type Observation struct {
	SiteID      string   `json:"monitoring_site_identifier"`
	Determinand string   `json:"determinand_label"`
	Period      string   `json:"period"`
	Value       *float64 `json:"value"`
	Unit        string   `json:"unit"`
	SampleCount int      `json:"sample_count"`
}

// Parameter is one observed determinand, as listed for discovery.
type Parameter struct {
	Code  string `json:"determinand_code"`
	Label string `json:"determinand_label"`
	Sites int    `json:"site_count"`
}

// Service reads measurement series through a query executor.
type Service struct {
	exec dremio.Executor
}

func NewService(exec dremio.Executor) *Service {
	return &Service{exec: exec}
}

// TimeseriesRequest names a series. Determinand filters by label when set;
// StartDate and EndDate (YYYY-MM-DD, inclusive) bound the sampling dates;
// Limit caps the number of points (a positive default applies when zero).
type TimeseriesRequest struct {
	SiteID      string
	Determinand string
	StartDate   string
	EndDate     string
	Granularity Granularity
	Limit       int
}

const defaultSeriesLimit = 10000

// Timeseries returns the site's observations at the requested granularity,
// ordered by period ascending.
func (s *Service) Timeseries(ctx context.Context, req TimeseriesRequest) ([]Observation, error) {
	if strings.TrimSpace(req.SiteID) == "" {
		return nil, errors.New("site identifier must not be empty")
	}

	if req.Limit <= 0 {
		req.Limit = defaultSeriesLimit
	}

	query, args := buildTimeseriesQuery(req)

	result, err := s.exec.Execute(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s timeseries for site %q: %w", req.Granularity, req.SiteID, err)
	}

	return observations(result, req.Granularity), nil
}

func buildTimeseriesQuery(req TimeseriesRequest) (string, []any) {
	var (
		where = []string{"monitoringSiteIdentifier = ?", "resultObservedValue IS NOT NULL"}
		args  = []any{strings.TrimSpace(req.SiteID)}
	)

	if strings.TrimSpace(req.Determinand) != "" {
		where = append(where, "observedPropertyDeterminandLabel = ?")
		args = append(args, strings.TrimSpace(req.Determinand))
	}

	if req.StartDate != "" {
		where = append(where, "phenomenonTimeSamplingDate >= CAST(? AS DATE)")
		args = append(args, req.StartDate)
	}

	if req.EndDate != "" {
		where = append(where, "phenomenonTimeSamplingDate <= CAST(? AS DATE)")
		args = append(args, req.EndDate)
	}

	filter := strings.Join(where, "\n\t  AND ")

	var query string

	switch req.Granularity {
	case Monthly:
		query = `
	SELECT
		monitoringSiteIdentifier,
		observedPropertyDeterminandLabel,
		SUBSTR(CAST(phenomenonTimeSamplingDate AS VARCHAR), 1, 7) AS period,
		AVG(CAST(resultObservedValue AS DOUBLE)) AS value,
		MAX(resultUom) AS unit,
		COUNT(*) AS sample_count
	FROM ` + MeasurementTable + `
	WHERE ` + filter + `
	GROUP BY monitoringSiteIdentifier, observedPropertyDeterminandLabel,
		SUBSTR(CAST(phenomenonTimeSamplingDate AS VARCHAR), 1, 7)
	ORDER BY period
	LIMIT ?`
	case Yearly:
		query = `
	SELECT
		monitoringSiteIdentifier,
		observedPropertyDeterminandLabel,
		SUBSTR(CAST(phenomenonTimeSamplingDate AS VARCHAR), 1, 4) AS period,
		AVG(CAST(resultObservedValue AS DOUBLE)) AS value,
		MAX(resultUom) AS unit,
		COUNT(*) AS sample_count
	FROM ` + MeasurementTable + `
	WHERE ` + filter + `
	GROUP BY monitoringSiteIdentifier, observedPropertyDeterminandLabel,
		SUBSTR(CAST(phenomenonTimeSamplingDate AS VARCHAR), 1, 4)
	ORDER BY period
	LIMIT ?`
	default:
		query = `
	SELECT
		monitoringSiteIdentifier,
		observedPropertyDeterminandLabel,
		CAST(phenomenonTimeSamplingDate AS VARCHAR) AS period,
		CAST(resultObservedValue AS DOUBLE) AS value,
		resultUom AS unit
	FROM ` + MeasurementTable + `
	WHERE ` + filter + `
	ORDER BY period
	LIMIT ?`
	}

	args = append(args, req.Limit)

	return query, args
}

// Parameters lists the distinct determinands observed in the lake, most
// widely measured first. When countryCode is set the listing is narrowed
// to sites of that country.
func (s *Service) Parameters(ctx context.Context, countryCode string) ([]Parameter, error) {
	var (
		where string
		args  []any
	)

	if cc := strings.TrimSpace(countryCode); cc != "" {
		where = "\n\tWHERE UPPER(countryCode) = UPPER(?)"
		args = append(args, cc)
	}

	query := `
	SELECT
		observedPropertyDeterminandCode,
		observedPropertyDeterminandLabel,
		COUNT(DISTINCT monitoringSiteIdentifier) AS site_count
	FROM ` + MeasurementTable + where + `
	GROUP BY observedPropertyDeterminandCode, observedPropertyDeterminandLabel
	ORDER BY site_count DESC, observedPropertyDeterminandLabel`

	result, err := s.exec.Execute(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing determinands: %w", err)
	}

	records := result.Records()
	out := make([]Parameter, 0, len(records))

	for _, record := range records {
		out = append(out, Parameter{
			Code:  asString(record["observedPropertyDeterminandCode"]),
			Label: asString(record["observedPropertyDeterminandLabel"]),
			Sites: asInt(record["site_count"]),
		})
	}

	return out, nil
}

// SiteObservation is an observation joined to its site's coordinates, as
// served by the measurements feature collection.
type SiteObservation struct {
	Observation
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ListObservations pages through located observations, newest first,
// optionally narrowed by country or determinand label. Sites without a
// coordinate record are excluded by the join.
func (s *Service) ListObservations(ctx context.Context, countryCode, determinand string, limit, offset int) ([]SiteObservation, error) {
	if limit <= 0 {
		limit = 100
	}

	if offset < 0 {
		offset = 0
	}

	var (
		where = []string{"t.resultObservedValue IS NOT NULL"}
		args  []any
	)

	if cc := strings.TrimSpace(countryCode); cc != "" {
		where = append(where, "UPPER(t.countryCode) = UPPER(?)")
		args = append(args, cc)
	}

	if d := strings.TrimSpace(determinand); d != "" {
		where = append(where, "t.observedPropertyDeterminandLabel = ?")
		args = append(args, d)
	}

	query := `
	SELECT
		t.monitoringSiteIdentifier,
		t.observedPropertyDeterminandLabel,
		CAST(t.phenomenonTimeSamplingDate AS VARCHAR) AS period,
		CAST(t.resultObservedValue AS DOUBLE) AS value,
		t.resultUom AS unit,
		s.lat,
		s.lon
	FROM ` + MeasurementTable + ` t
	JOIN ` + coordinates.SpatialTable + ` s
	  ON s.monitoringSiteIdentifier = t.monitoringSiteIdentifier
	WHERE ` + strings.Join(where, "\n\t  AND ") + `
	  AND s.lat IS NOT NULL
	  AND s.lon IS NOT NULL
	ORDER BY period DESC, t.monitoringSiteIdentifier
	LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	result, err := s.exec.Execute(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing observations: %w", err)
	}

	records := result.Records()
	out := make([]SiteObservation, 0, len(records))

	for _, record := range records {
		obs := SiteObservation{Observation: Observation{
			SiteID:      asString(record["monitoringSiteIdentifier"]),
			Determinand: asString(record["observedPropertyDeterminandLabel"]),
			Period:      asString(record["period"]),
			Unit:        asString(record["unit"]),
			SampleCount: 1,
		}}

		if value, ok := asFloat(record["value"]); ok {
			obs.Value = &value
		}

		if lat, ok := asFloat(record["lat"]); ok {
			obs.Latitude = &lat
		}

		if lon, ok := asFloat(record["lon"]); ok {
			obs.Longitude = &lon
		}

		out = append(out, obs)
	}

	return out, nil
}

func observations(result *dremio.Result, g Granularity) []Observation {
	records := result.Records()
	out := make([]Observation, 0, len(records))

	for _, record := range records {
		obs := Observation{
			SiteID:      asString(record["monitoringSiteIdentifier"]),
			Determinand: asString(record["observedPropertyDeterminandLabel"]),
			Period:      asString(record["period"]),
			Unit:        asString(record["unit"]),
			SampleCount: 1,
		}

		if value, ok := asFloat(record["value"]); ok {
			obs.Value = &value
		}

		if g != Raw {
			obs.SampleCount = asInt(record["sample_count"])
		}

		out = append(out, obs)
	}

	return out
}
