// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package ogc models the OGC API Features discovery surface: landing page,
// conformance declaration, collection metadata and pagination links.
package ogc

import (
	"fmt"
)

// ConformanceClasses declared by this service.
var ConformanceClasses = []string{
	"http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/core",
	"http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/geojson",
	"http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/oas30",
}

type Link struct {
	Href  string `json:"href"`
	Rel   string `json:"rel"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Extent is the collection's spatial extent in WGS 84.
type Extent struct {
	Spatial SpatialExtent `json:"spatial"`
}

type SpatialExtent struct {
	Bbox [][4]float64 `json:"bbox"`
	CRS  string       `json:"crs"`
}

type Collection struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ItemType    string `json:"itemType"`
	Extent      Extent `json:"extent"`
	Links       []Link `json:"links"`
}

const wgs84 = "http://www.opengis.net/def/crs/OGC/1.3/CRS84"

// europeanExtent covers the EEA reporting area, outermost regions included.
var europeanExtent = Extent{
	Spatial: SpatialExtent{
		Bbox: [][4]float64{{-61.9, 27.6, 44.8, 71.2}},
		CRS:  wgs84,
	},
}

// Catalog is the fixed set of feature collections this service serves.
// Collection order is stable so document renderings are deterministic.
type Catalog struct {
	collections []Collection
}

// NewCatalog builds the catalog with links rooted at baseURL.
func NewCatalog(baseURL string) *Catalog {
	return &Catalog{collections: []Collection{
		{
			ID:          "monitoring_sites",
			Title:       "Water quality monitoring sites",
			Description: "EEA WISE surface and groundwater monitoring sites with resolved coordinates.",
			ItemType:    "feature",
			Extent:      europeanExtent,
			Links:       collectionLinks(baseURL, "monitoring_sites"),
		},
		{
			ID:          "measurements",
			Title:       "Water quality measurements",
			Description: "Disaggregated WISE water quality observations, joined to site coordinates.",
			ItemType:    "feature",
			Extent:      europeanExtent,
			Links:       collectionLinks(baseURL, "measurements"),
		},
	}}
}

func collectionLinks(baseURL, id string) []Link {
	return []Link{
		{
			Href: fmt.Sprintf("%s/collections/%s", baseURL, id),
			Rel:  "self",
			Type: "application/json",
		},
		{
			Href: fmt.Sprintf("%s/collections/%s/items", baseURL, id),
			Rel:  "items",
			Type: "application/geo+json",
		},
	}
}

// Collections returns all collections, in declaration order.
func (c *Catalog) Collections() []Collection {
	return c.collections
}

// Collection returns the collection named id, or false when unknown.
func (c *Catalog) Collection(id string) (Collection, bool) {
	for _, collection := range c.collections {
		if collection.ID == id {
			return collection, true
		}
	}

	return Collection{}, false
}

// LandingPage is the API root document.
type LandingPage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Links       []Link `json:"links"`
}

func (c *Catalog) Landing(baseURL string) LandingPage {
	return LandingPage{
		Title:       "WiseGate water quality features",
		Description: "OGC API Features access to EEA WISE water quality monitoring sites and measurements.",
		Links: []Link{
			{Href: baseURL + "/", Rel: "self", Type: "application/json"},
			{Href: baseURL + "/conformance", Rel: "conformance", Type: "application/json"},
			{Href: baseURL + "/collections", Rel: "data", Type: "application/json"},
		},
	}
}

// ConformanceDocument declares the implemented conformance classes.
type ConformanceDocument struct {
	ConformsTo []string `json:"conformsTo"`
}

func (c *Catalog) Conformance() ConformanceDocument {
	return ConformanceDocument{ConformsTo: ConformanceClasses}
}

// Page describes one items page. Returned is how many features the page
// actually carries; a next link is emitted only when the page is full,
// which can produce one trailing empty page when the total is an exact
// multiple of the limit.
type Page struct {
	Limit    int
	Offset   int
	Returned int
}

// Links builds the navigation links for an items page under
// baseURL/collections/<id>/items. extraQuery, when set, is appended
// verbatim to every href so filter parameters survive pagination.
func (p Page) Links(baseURL, collectionID, extraQuery string) []Link {
	href := func(offset int) string {
		u := fmt.Sprintf("%s/collections/%s/items?limit=%d&offset=%d", baseURL, collectionID, p.Limit, offset)
		if extraQuery != "" {
			u += "&" + extraQuery
		}

		return u
	}

	links := []Link{{Href: href(p.Offset), Rel: "self", Type: "application/geo+json"}}

	if p.Returned == p.Limit {
		links = append(links, Link{Href: href(p.Offset + p.Limit), Rel: "next", Type: "application/geo+json"})
	}

	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}

		links = append(links, Link{Href: href(prev), Rel: "prev", Type: "application/geo+json"})
	}

	return links
}
