// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package geojson renders monitoring-site candidates as RFC 7946 documents.
package geojson

import (
	"fmt"

	"wisegate/coordinates"
	"wisegate/spatial"
)

// clusterResolution is the H3 resolution used to tag each feature with a
// cell index. Resolution 7 cells average about 5 km2, a good grain for
// map-side clustering of monitoring sites.
const clusterResolution = 7

// Geometry is a GeoJSON point geometry. Coordinates are [longitude, latitude].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeature builds one point feature from a candidate, or nil when the
// candidate has no usable coordinates. Coordinate values live only in the
// geometry, never duplicated into properties.
func NewFeature(c coordinates.Candidate) *Feature {
	if c.Latitude == nil || c.Longitude == nil {
		return nil
	}

	point := spatial.Point{Lat: *c.Latitude, Lng: *c.Longitude}
	if !point.Valid() {
		return nil
	}

	properties := map[string]any{
		"thematic_identifier":        c.ThematicIdentifier,
		"thematic_identifier_scheme": c.ThematicIdentifierScheme,
		"monitoring_site_identifier": c.MonitoringSiteIdentifier,
		"monitoring_site_name":       c.MonitoringSiteName,
		"country_code":               c.CountryCode,
	}

	if cell, err := point.Cell(clusterResolution); err == nil {
		properties["h3_cell"] = fmt.Sprintf("%x", cell)
	}

	return &Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: [2]float64{*c.Longitude, *c.Latitude},
		},
		Properties: properties,
	}
}

// NewResolvedFeature is NewFeature plus the resolution metadata.
func NewResolvedFeature(r coordinates.Resolved) *Feature {
	feature := NewFeature(r.Candidate)
	if feature == nil {
		return nil
	}

	feature.Properties["match_confidence"] = r.MatchConfidence
	feature.Properties["original_query_site"] = r.QuerySite

	return feature
}

// NewCollection builds a feature collection from candidates, silently
// skipping those without coordinates. Features is never nil so the
// document always serializes with a "features" array.
func NewCollection(cs []coordinates.Candidate) FeatureCollection {
	features := make([]Feature, 0, len(cs))

	for _, c := range cs {
		if feature := NewFeature(c); feature != nil {
			features = append(features, *feature)
		}
	}

	return FeatureCollection{Type: "FeatureCollection", Features: features}
}
