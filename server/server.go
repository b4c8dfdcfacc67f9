// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the coordinate resolver, the measurement series
// and the OGC API Features surface over HTTP.
package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"wisegate/coordinates"
	"wisegate/dremio"
	"wisegate/geojson"
	"wisegate/ogc"
	"wisegate/spatial"
	"wisegate/waterbase"
)

// Options configures the HTTP server.
type Options struct {
	// Addr is the listen address, host:port.
	Addr string

	// BaseURL is the externally visible root used in OGC links. Derived
	// from Addr when empty.
	BaseURL string
}

type Server struct {
	resolver *coordinates.Resolver
	series   *waterbase.Service
	catalog  *ogc.Catalog
	options  Options
}

func NewServer(resolver *coordinates.Resolver, series *waterbase.Service, options Options) *Server {
	if options.Addr == "" {
		options.Addr = "localhost:8080"
	}

	if options.BaseURL == "" {
		options.BaseURL = "http://" + options.Addr
	}

	return &Server{
		resolver: resolver,
		series:   series,
		catalog:  ogc.NewCatalog(options.BaseURL),
		options:  options,
	}
}

// Routes assembles the gin engine. Split from Run so tests can drive the
// routes without a listener.
func (s *Server) Routes() *gin.Engine {
	r := gin.Default()

	r.GET("/healthCheck", s.healthCheck)

	r.GET("/", s.landing)
	r.GET("/conformance", s.conformance)
	r.GET("/collections", s.listCollections)
	r.GET("/collections/:collection_id", s.getCollection)
	r.GET("/collections/:collection_id/items", s.collectionItems)

	r.GET("/coordinates/site/:site_id", s.resolveSite)
	r.GET("/coordinates/country/:country_code", s.listCountry)
	r.GET("/coordinates/search", s.searchSites)

	r.GET("/parameters", s.listParameters)
	r.GET("/timeseries/site/:site_id", s.siteTimeseries)

	return r
}

func (s *Server) Run() error {
	log.Printf("Serving on %s", s.options.Addr)

	return s.Routes().Run(s.options.Addr)
}

// queryFailure maps the executor error taxonomy to HTTP statuses: an
// unreachable engine is 503, anything else 500.
func queryFailure(ctx *gin.Context, err error) {
	if dremio.IsUnavailable(err) {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "data lake unavailable", "details": err.Error()})

		return
	}

	ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) healthCheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) landing(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.catalog.Landing(s.options.BaseURL))
}

func (s *Server) conformance(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.catalog.Conformance())
}

func (s *Server) listCollections(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"collections": s.catalog.Collections()})
}

func (s *Server) getCollection(ctx *gin.Context) {
	collection, ok := s.catalog.Collection(ctx.Param("collection_id"))
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})

		return
	}

	ctx.JSON(http.StatusOK, collection)
}

const (
	defaultPageLimit = 100
	maxPageLimit     = 10000
)

func pageParams(ctx *gin.Context) (limit, offset int, err error) {
	limit = defaultPageLimit

	if v := ctx.Query("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return 0, 0, errors.New("limit must be a positive integer")
		}

		if limit > maxPageLimit {
			limit = maxPageLimit
		}
	}

	if v := ctx.Query("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
	}

	return limit, offset, nil
}

func (s *Server) collectionItems(ctx *gin.Context) {
	collectionID := ctx.Param("collection_id")
	if _, ok := s.catalog.Collection(collectionID); !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})

		return
	}

	limit, offset, err := pageParams(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	countryCode := ctx.Query("country_code")

	var box *spatial.BBox

	if v := ctx.Query("bbox"); v != "" {
		box, err = spatial.ParseBBox(v)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}
	}

	var (
		features   []geojson.Feature
		extraQuery []string
	)

	if countryCode != "" {
		extraQuery = append(extraQuery, "country_code="+countryCode)
	}

	if v := ctx.Query("bbox"); v != "" {
		extraQuery = append(extraQuery, "bbox="+v)
	}

	switch collectionID {
	case "monitoring_sites":
		sites, err := s.resolver.ListSites(ctx.Request.Context(), countryCode, limit, offset)
		if err != nil {
			queryFailure(ctx, err)

			return
		}

		features = geojson.NewCollection(sites).Features
	case "measurements":
		determinand := ctx.Query("determinand")
		if determinand != "" {
			extraQuery = append(extraQuery, "determinand="+determinand)
		}

		observations, err := s.series.ListObservations(ctx.Request.Context(), countryCode, determinand, limit, offset)
		if err != nil {
			queryFailure(ctx, err)

			return
		}

		features = observationFeatures(observations)
	}

	// Paging counts the fetched page; the bbox narrows within it.
	page := ogc.Page{Limit: limit, Offset: offset, Returned: len(features)}

	if box != nil {
		features = filterByBBox(features, box)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"type":           "FeatureCollection",
		"features":       features,
		"numberReturned": len(features),
		"links":          page.Links(s.options.BaseURL, collectionID, strings.Join(extraQuery, "&")),
	})
}

func filterByBBox(features []geojson.Feature, box *spatial.BBox) []geojson.Feature {
	kept := features[:0]

	for _, feature := range features {
		p := spatial.Point{
			Lat: feature.Geometry.Coordinates[1],
			Lng: feature.Geometry.Coordinates[0],
		}

		if box.Contains(p) {
			kept = append(kept, feature)
		}
	}

	return kept
}

func observationFeatures(observations []waterbase.SiteObservation) []geojson.Feature {
	features := make([]geojson.Feature, 0, len(observations))

	for _, obs := range observations {
		if obs.Latitude == nil || obs.Longitude == nil {
			continue
		}

		features = append(features, geojson.Feature{
			Type: "Feature",
			Geometry: geojson.Geometry{
				Type:        "Point",
				Coordinates: [2]float64{*obs.Longitude, *obs.Latitude},
			},
			Properties: map[string]any{
				"monitoring_site_identifier": obs.SiteID,
				"determinand_label":          obs.Determinand,
				"period":                     obs.Period,
				"value":                      obs.Value,
				"unit":                       obs.Unit,
			},
		})
	}

	return features
}

func (s *Server) resolveSite(ctx *gin.Context) {
	siteID := ctx.Param("site_id")
	countryCode := ctx.Query("country_code")

	resolved, err := s.resolver.Resolve(ctx.Request.Context(), siteID, countryCode)
	if err != nil {
		queryFailure(ctx, err)

		return
	}

	if resolved == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no coordinates found for site", "site_id": siteID})

		return
	}

	if ctx.Query("format") == "geojson" {
		feature := geojson.NewResolvedFeature(*resolved)
		if feature == nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "matched site has no usable coordinates", "site_id": siteID})

			return
		}

		ctx.JSON(http.StatusOK, feature)

		return
	}

	ctx.JSON(http.StatusOK, resolved)
}

func (s *Server) listCountry(ctx *gin.Context) {
	limit, _, err := pageParams(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	sites, err := s.resolver.ListByCountry(ctx.Request.Context(), ctx.Param("country_code"), limit)
	if err != nil {
		queryFailure(ctx, err)

		return
	}

	if ctx.Query("format") == "geojson" {
		ctx.JSON(http.StatusOK, geojson.NewCollection(sites))

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"sites": sites, "count": len(sites)})
}

func (s *Server) searchSites(ctx *gin.Context) {
	term := ctx.Query("q")
	if term == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})

		return
	}

	limit, _, err := pageParams(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	sites, err := s.resolver.Search(ctx.Request.Context(), term, limit)
	if err != nil {
		queryFailure(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"sites": sites, "count": len(sites)})
}

func (s *Server) listParameters(ctx *gin.Context) {
	parameters, err := s.series.Parameters(ctx.Request.Context(), ctx.Query("country_code"))
	if err != nil {
		queryFailure(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"parameters": parameters, "count": len(parameters)})
}

func (s *Server) siteTimeseries(ctx *gin.Context) {
	granularity, err := waterbase.ParseGranularity(ctx.Query("granularity"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	limit, _, err := pageParams(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	// No explicit limit keeps the series default, which is much larger
	// than a listing page.
	if ctx.Query("limit") == "" {
		limit = 0
	}

	observations, err := s.series.Timeseries(ctx.Request.Context(), waterbase.TimeseriesRequest{
		SiteID:      ctx.Param("site_id"),
		Determinand: ctx.Query("determinand"),
		StartDate:   ctx.Query("start_date"),
		EndDate:     ctx.Query("end_date"),
		Granularity: granularity,
		Limit:       limit,
	})
	if err != nil {
		queryFailure(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"site_id":      ctx.Param("site_id"),
		"granularity":  granularity.String(),
		"observations": observations,
		"count":        len(observations),
	})
}
