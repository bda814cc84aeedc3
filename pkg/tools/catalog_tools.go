package tools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/co2mcp/pkg/core"
	"github.com/NERVsystems/co2mcp/pkg/monitoring"
	"github.com/NERVsystems/co2mcp/pkg/tracing"
)

// CityList is the list_cities result
type CityList struct {
	Cities []string `json:"cities"`
	Count  int      `json:"count"`
}

// DistanceResult is the find_distance result
type DistanceResult struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	DistanceKm  float64 `json:"distance_km"`
	Display     string  `json:"display"`
}

// HandleListCities returns every city known to the catalog
func (r *Registry) HandleListCities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "list_cities")

	cities := r.catalog.Cities()
	return JSONResult(logger, CityList{Cities: cities, Count: len(cities)}), nil
}

// HandleFindDistance looks up the distance between two cities
func (r *Registry) HandleFindDistance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "find_distance")

	origin := req.GetString("origin", "")
	destination := req.GetString("destination", "")
	if err := core.ValidatePlace("origin", origin); err != nil {
		return ErrorResult(logger, err), nil
	}
	if err := core.ValidatePlace("destination", destination); err != nil {
		return ErrorResult(logger, err), nil
	}

	km, ok := r.catalog.FindDistance(origin, destination)
	monitoring.RecordRouteLookup(ok)
	tracing.SetAttributes(ctx, tracingRouteFound(ok))
	if !ok {
		logger.Info("route not found", "origin", origin, "destination", destination)
		return core.RouteNotFoundError(origin, destination).ToMCPResult(), nil
	}

	return JSONResult(logger, DistanceResult{
		Origin:      origin,
		Destination: destination,
		DistanceKm:  km,
		Display:     r.printer.Km(km),
	}), nil
}
