package core

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/co2mcp/pkg/emission"
)

// MaxDistanceKm bounds distances accepted from tool callers.
const MaxDistanceKm = 40075

// ValidateDistance checks that a distance is finite, non-negative and within MaxDistanceKm.
func ValidateDistance(km float64) error {
	if math.IsNaN(km) || math.IsInf(km, 0) || km < 0 {
		return NewValidationError(ErrInvalidDistance,
			fmt.Sprintf("Distance must be a finite number >= 0, got %v", km))
	}
	if km > MaxDistanceKm {
		return NewError(ErrInvalidDistance,
			fmt.Sprintf("Distance must be at most %d km, got %v", MaxDistanceKm, km)).
			WithGuidance("Split very long journeys into legs.")
	}
	return nil
}

// ValidateAmount checks that a kg or credit amount is finite and non-negative.
func ValidateAmount(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return NewValidationError(ErrInvalidAmount,
			fmt.Sprintf("%s must be a finite number >= 0, got %v", name, v))
	}
	return nil
}

// ParseMode resolves a mode name or alias, returning a guided error for unknown modes.
func ParseMode(s string) (emission.Mode, error) {
	if strings.TrimSpace(s) == "" {
		return "", NewValidationError(ErrMissingParameter, "Transport mode is required")
	}
	m, ok := emission.ParseMode(s)
	if !ok {
		names := make([]string, 0, len(emission.Modes()))
		for _, k := range emission.Modes() {
			names = append(names, string(k))
		}
		return "", NewError(ErrUnknownMode, fmt.Sprintf("Unknown transport mode: %s", s)).
			WithSuggestions(names...).
			WithGuidance("Use one of: " + strings.Join(names, ", "))
	}
	return m, nil
}

// ValidatePlace checks that a place name is present.
func ValidatePlace(param, name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError(ErrMissingParameter, fmt.Sprintf("Parameter %q is required", param))
	}
	return nil
}

// ParseDistance extracts and validates a distance from a CallToolRequest
func ParseDistance(req mcp.CallToolRequest, key string) (float64, error) {
	if key == "" {
		key = "distance_km"
	}

	km, err := req.RequireFloat(key)
	if err != nil {
		return 0, NewValidationError(ErrMissingParameter, fmt.Sprintf("Parameter %q is required and must be a number", key))
	}

	if err := ValidateDistance(km); err != nil {
		return 0, err
	}
	return km, nil
}

// ParseDistanceAndMode combines distance and mode parsing with validation
func ParseDistanceAndMode(req mcp.CallToolRequest) (float64, emission.Mode, error) {
	km, err := ParseDistance(req, "distance_km")
	if err != nil {
		return 0, "", err
	}

	mode, err := ParseMode(req.GetString("mode", ""))
	if err != nil {
		return km, "", err
	}
	return km, mode, nil
}

// ParseDistanceAndModeWithLog combines distance and mode parsing with logging
func ParseDistanceAndModeWithLog(req mcp.CallToolRequest, logger *slog.Logger) (float64, emission.Mode, error) {
	km, mode, err := ParseDistanceAndMode(req)
	if err != nil {
		logger.Error("invalid parameters", "error", err)
	}
	return km, mode, err
}
