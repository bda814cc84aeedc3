package tools

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/NERVsystems/co2mcp/pkg/core"
	"github.com/NERVsystems/co2mcp/pkg/emission"
	"github.com/NERVsystems/co2mcp/pkg/tracing"
)

// EmissionResult is the compute_emission result
type EmissionResult struct {
	DistanceKm float64       `json:"distance_km"`
	Mode       emission.Mode `json:"mode"`
	EmissionKg float64       `json:"emission_kg"`
	Display    string        `json:"display"`
}

// ModeComparison is one row of the compare_modes result
type ModeComparison struct {
	emission.ComparisonEntry
	emission.Display
	EmissionDisplay string `json:"emission_display"`
}

// ComparisonResult is the compare_modes result
type ComparisonResult struct {
	DistanceKm float64          `json:"distance_km"`
	Baseline   emission.Mode    `json:"baseline"`
	BaselineKg float64          `json:"baseline_kg"`
	Modes      []ModeComparison `json:"modes"`
}

// SavingsResult is the compute_savings result
type SavingsResult struct {
	emission.Savings
	Display string `json:"display"`
	Note    string `json:"note,omitempty"`
}

// CreditsResult is the compute_carbon_credits result
type CreditsResult struct {
	EmissionKg float64 `json:"emission_kg"`
	Credits    float64 `json:"credits"`
	Display    string  `json:"display"`
}

// PriceResult is the estimate_credit_price result
type PriceResult struct {
	Credits float64 `json:"credits"`
	emission.PriceEstimate
	Currency string            `json:"currency"`
	Display  map[string]string `json:"display"`
}

// HandleComputeEmission computes kg of CO2 for a distance and mode
func (r *Registry) HandleComputeEmission(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "compute_emission")

	km, mode, err := core.ParseDistanceAndModeWithLog(req, logger)
	if err != nil {
		return ErrorResult(logger, err), nil
	}

	kg, err := r.engine.EmissionStrict(km, mode)
	if err != nil {
		return ErrorResult(logger, err), nil
	}
	tracing.SetAttributes(ctx, tracing.TripAttributes(km, string(mode), kg)...)

	return JSONResult(logger, EmissionResult{
		DistanceKm: km,
		Mode:       mode,
		EmissionKg: kg,
		Display:    r.printer.Kg(kg),
	}), nil
}

// HandleCompareModes computes every mode for a distance, sorted ascending
func (r *Registry) HandleCompareModes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "compare_modes")

	km, err := core.ParseDistance(req, "distance_km")
	if err != nil {
		return ErrorResult(logger, err), nil
	}

	return JSONResult(logger, r.comparison(km)), nil
}

func (r *Registry) comparison(km float64) ComparisonResult {
	entries := r.engine.AllModes(km)
	rows := make([]ModeComparison, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, ModeComparison{
			ComparisonEntry: e,
			Display:         emission.DisplayFor(e.Mode),
			EmissionDisplay: r.printer.Kg(e.EmissionKg),
		})
	}
	return ComparisonResult{
		DistanceKm: km,
		Baseline:   emission.Baseline,
		BaselineKg: r.engine.Emission(km, emission.Baseline),
		Modes:      rows,
	}
}

// HandleComputeSavings compares an emission with a baseline emission
func (r *Registry) HandleComputeSavings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "compute_savings")

	kg, err := r.parseAmount(req, "emission_kg")
	if err != nil {
		return ErrorResult(logger, err), nil
	}
	baseline, err := r.parseAmount(req, "baseline_kg")
	if err != nil {
		return ErrorResult(logger, err), nil
	}

	s, err := r.engine.SavingsStrict(kg, baseline)
	result := SavingsResult{Savings: s}
	if errors.Is(err, emission.ErrZeroBaseline) {
		result.Note = "baseline is zero; savings reported as zero"
	} else if err != nil {
		return ErrorResult(logger, err), nil
	}
	result.Display = r.printer.Kg(result.SavedKg) + " (" + r.printer.Percent(result.Percentage) + ")"

	return JSONResult(logger, result), nil
}

// HandleComputeCarbonCredits converts kg of CO2 to credits
func (r *Registry) HandleComputeCarbonCredits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "compute_carbon_credits")

	kg, err := r.parseAmount(req, "emission_kg")
	if err != nil {
		return ErrorResult(logger, err), nil
	}

	credits, err := r.engine.CarbonCreditsStrict(kg)
	if err != nil {
		return ErrorResult(logger, err), nil
	}

	return JSONResult(logger, CreditsResult{
		EmissionKg: kg,
		Credits:    credits,
		Display:    r.printer.Credits(credits),
	}), nil
}

// HandleEstimateCreditPrice estimates the BRL price range of credits
func (r *Registry) HandleEstimateCreditPrice(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "estimate_credit_price")

	credits, err := r.parseAmount(req, "credits")
	if err != nil {
		return ErrorResult(logger, err), nil
	}

	price, err := r.engine.CreditPriceStrict(credits)
	if err != nil {
		return ErrorResult(logger, err), nil
	}

	return JSONResult(logger, PriceResult{
		Credits:       credits,
		PriceEstimate: price,
		Currency:      "BRL",
		Display:       r.priceDisplay(price),
	}), nil
}

func (r *Registry) priceDisplay(p emission.PriceEstimate) map[string]string {
	return map[string]string{
		"min":     r.printer.Currency(p.Min),
		"max":     r.printer.Currency(p.Max),
		"average": r.printer.Currency(p.Average),
	}
}

func (r *Registry) parseAmount(req mcp.CallToolRequest, key string) (float64, error) {
	v, err := req.RequireFloat(key)
	if err != nil {
		return 0, core.NewValidationError(core.ErrMissingParameter, "Parameter \""+key+"\" is required and must be a number")
	}
	if err := core.ValidateAmount(key, v); err != nil {
		return 0, err
	}
	return v, nil
}

func tracingRouteFound(found bool) attribute.KeyValue {
	return attribute.Bool(tracing.AttrRouteFound, found)
}
