package tools

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/co2mcp/pkg/cache"
	"github.com/NERVsystems/co2mcp/pkg/core"
	"github.com/NERVsystems/co2mcp/pkg/emission"
	"github.com/NERVsystems/co2mcp/pkg/monitoring"
	"github.com/NERVsystems/co2mcp/pkg/tracing"
)

// Distance sources reported by estimate_trip
const (
	SourceCatalog        = "catalog"
	SourceManual         = "manual"
	SourceManualRequired = "manual_required"
)

// TripInput is the estimate_trip input
type TripInput struct {
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Mode        string   `json:"mode"`
	DistanceKm  *float64 `json:"distance_km,omitempty"`
}

// TripEstimate is the estimate_trip result. Report is nil when the
// distance is unknown and must be supplied by the caller.
type TripEstimate struct {
	Origin         string               `json:"origin,omitempty"`
	Destination    string               `json:"destination,omitempty"`
	DistanceSource string               `json:"distance_source"`
	CatalogKm      *float64             `json:"catalog_distance_km,omitempty"`
	Report         *emission.TripReport `json:"report,omitempty"`
	Display        map[string]string    `json:"display,omitempty"`
	Guidance       string               `json:"guidance,omitempty"`
}

func (r *Registry) estimateTripTool() mcp.Tool {
	modes := make([]string, 0, len(emission.Modes()))
	for _, m := range emission.Modes() {
		modes = append(modes, string(m))
	}
	return mcp.NewTool("estimate_trip",
		mcp.WithDescription("Estimate emission, savings versus car, mode comparison, carbon credits and price for a trip. "+
			"The distance comes from the route catalog unless distance_km is given, which always takes precedence."),
		mcp.WithString("origin", mcp.Description("Origin city, e.g. \"São Paulo, SP\"")),
		mcp.WithString("destination", mcp.Description("Destination city, e.g. \"Rio de Janeiro, RJ\"")),
		mcp.WithString("mode",
			mcp.Required(),
			mcp.Description("Transport mode: "+strings.Join(modes, ", ")),
			mcp.Enum(modes...),
		),
		mcp.WithNumber("distance_km", mcp.Description("Manual distance in km; overrides the catalog distance and is required when the city pair is unknown")),
	)
}

// HandleEstimateTrip runs the full estimate for a trip
func (r *Registry) HandleEstimateTrip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("estimate_trip", r.estimateTrip)(ctx, req)
}

func (r *Registry) estimateTrip(ctx context.Context, input TripInput, logger *slog.Logger) (any, error) {
	mode, err := core.ParseMode(input.Mode)
	if err != nil {
		return nil, err
	}

	out := TripEstimate{
		Origin:      strings.TrimSpace(input.Origin),
		Destination: strings.TrimSpace(input.Destination),
	}

	var km float64
	hasPair := out.Origin != "" && out.Destination != ""
	found := false
	if hasPair {
		km, found = r.catalog.FindDistance(out.Origin, out.Destination)
		monitoring.RecordRouteLookup(found)
		tracing.SetAttributes(ctx, tracingRouteFound(found))
	}

	switch {
	case input.DistanceKm != nil:
		if found {
			catalogKm := km
			out.CatalogKm = &catalogKm
			logger.Info("manual distance overrides catalog",
				"origin", out.Origin,
				"destination", out.Destination,
				"catalog_km", catalogKm,
				"manual_km", *input.DistanceKm)
		}
		km = *input.DistanceKm
		out.DistanceSource = SourceManual
	case found:
		out.DistanceSource = SourceCatalog
	case hasPair:
		logger.Info("distance unknown, manual entry required", "origin", out.Origin, "destination", out.Destination)
		out.DistanceSource = SourceManualRequired
		out.Guidance = "Distance between these cities is unknown. Call estimate_trip again with distance_km."
		return out, nil
	default:
		return nil, core.NewValidationError(core.ErrMissingParameter,
			"Provide origin and destination, or distance_km")
	}

	if err := core.ValidateDistance(km); err != nil {
		return nil, err
	}

	report, hit := r.reports.GetOrCompute(cache.Key{DistanceKm: km, Mode: mode}, func() emission.TripReport {
		return r.engine.Estimate(km, mode)
	})
	monitoring.RecordEstimate(string(mode))
	tracing.SetAttributes(ctx, tracing.CacheAttributes(cache.CacheType, hit)...)
	tracing.SetAttributes(ctx, tracing.TripAttributes(km, string(mode), report.EmissionKg)...)

	out.Report = &report
	out.Display = r.reportDisplay(report)
	return out, nil
}

func (r *Registry) reportDisplay(rep emission.TripReport) map[string]string {
	d := map[string]string{
		"distance":      r.printer.Km(rep.DistanceKm),
		"emission":      r.printer.Kg(rep.EmissionKg),
		"baseline":      r.printer.Kg(rep.BaselineKg),
		"credits":       r.printer.Credits(rep.Credits),
		"price_min":     r.printer.Currency(rep.Price.Min),
		"price_max":     r.printer.Currency(rep.Price.Max),
		"price_average": r.printer.Currency(rep.Price.Average),
		"mode":          emission.DisplayFor(rep.Mode).Label,
	}
	if rep.Savings != nil {
		d["saved"] = r.printer.Kg(rep.Savings.SavedKg)
		d["saved_percentage"] = r.printer.Percent(rep.Savings.Percentage)
	}
	return d
}
