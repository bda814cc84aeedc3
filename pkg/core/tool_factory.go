package core

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/co2mcp/pkg/emission"
)

// ToolFactory builds tool definitions with the estimator's common parameter shapes.
type ToolFactory struct {
	modes []string
}

// NewToolFactory creates a new tool factory
func NewToolFactory() *ToolFactory {
	modes := make([]string, 0, len(emission.Modes()))
	for _, m := range emission.Modes() {
		modes = append(modes, string(m))
	}
	return &ToolFactory{modes: modes}
}

func (f *ToolFactory) modeDescription() string {
	return "Transport mode: " + strings.Join(f.modes, ", ")
}

// CreateBasicTool creates a parameterless tool
func (f *ToolFactory) CreateBasicTool(name, description string) mcp.Tool {
	return mcp.NewTool(name, mcp.WithDescription(description))
}

// CreateDistanceTool creates a tool taking a distance and, optionally, a mode
func (f *ToolFactory) CreateDistanceTool(name, description string, withMode bool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithNumber("distance_km",
			mcp.Required(),
			mcp.Description("Trip distance in kilometers (>= 0)"),
		),
	}
	if withMode {
		opts = append(opts, mcp.WithString("mode",
			mcp.Required(),
			mcp.Description(f.modeDescription()),
			mcp.Enum(f.modes...),
		))
	}
	return mcp.NewTool(name, opts...)
}

// CreateAmountTool creates a tool taking a single non-negative amount
func (f *ToolFactory) CreateAmountTool(name, description, param, paramDescription string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithNumber(param,
			mcp.Required(),
			mcp.Description(paramDescription),
		),
	)
}

// CreatePlacePairTool creates a tool taking an origin and a destination
func (f *ToolFactory) CreatePlacePairTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Origin place, e.g. \"São Paulo, SP\""),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination place, e.g. \"Rio de Janeiro, RJ\""),
		),
	)
}
