package tools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/co2mcp/pkg/emission"
)

// ModeInfo describes one transport mode
type ModeInfo struct {
	Mode          emission.Mode `json:"mode"`
	FactorKgPerKm float64       `json:"factor_kg_per_km"`
	Baseline      bool          `json:"baseline"`
	emission.Display
}

// ModeList is the list_transport_modes result
type ModeList struct {
	Modes       []ModeInfo         `json:"modes"`
	KgPerCredit float64            `json:"kg_per_credit"`
	PriceRange  map[string]float64 `json:"price_per_credit_brl"`
}

// HandleListTransportModes lists the modes with their factor and display metadata
func (r *Registry) HandleListTransportModes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "list_transport_modes")

	cfg := r.engine.Config()
	out := ModeList{
		Modes:       make([]ModeInfo, 0, len(emission.Modes())),
		KgPerCredit: cfg.Credits.KgPerCredit,
		PriceRange: map[string]float64{
			"min": cfg.Credits.PriceMinPerCredit,
			"max": cfg.Credits.PriceMaxPerCredit,
		},
	}
	for _, m := range emission.Modes() {
		factor, _ := r.engine.Factor(m)
		out.Modes = append(out.Modes, ModeInfo{
			Mode:          m,
			FactorKgPerKm: factor,
			Baseline:      m == emission.Baseline,
			Display:       emission.DisplayFor(m),
		})
	}

	return JSONResult(logger, out), nil
}
