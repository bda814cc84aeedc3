// Package tools provides the CO2 estimator MCP tool implementations.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/co2mcp/pkg/cache"
	"github.com/NERVsystems/co2mcp/pkg/core"
	"github.com/NERVsystems/co2mcp/pkg/emission"
	"github.com/NERVsystems/co2mcp/pkg/format"
	"github.com/NERVsystems/co2mcp/pkg/monitoring"
	"github.com/NERVsystems/co2mcp/pkg/routes"
	"github.com/NERVsystems/co2mcp/pkg/tracing"
)

// HandlerFunc is the signature shared by every tool handler.
type HandlerFunc = server.ToolHandlerFunc

// Deps are the collaborators the tool handlers compute with.
type Deps struct {
	Catalog *routes.Catalog
	Engine  *emission.Engine
	Reports *cache.ReportCache
	Printer *format.Printer
}

// Registry contains all tool definitions and handlers
type Registry struct {
	logger  *slog.Logger
	factory *core.ToolFactory
	catalog *routes.Catalog
	engine  *emission.Engine
	reports *cache.ReportCache
	printer *format.Printer
}

// NewRegistry creates a new tool registry. Missing dependencies are
// replaced with the built-in defaults.
func NewRegistry(logger *slog.Logger, deps Deps) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		logger:  logger,
		factory: core.NewToolFactory(),
		catalog: deps.Catalog,
		engine:  deps.Engine,
		reports: deps.Reports,
		printer: deps.Printer,
	}

	if r.catalog == nil {
		r.catalog = routes.DefaultCatalog()
	}
	if r.engine == nil {
		engine, err := emission.New(emission.DefaultConfig(), emission.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("creating emission engine: %w", err)
		}
		r.engine = engine
	}
	if r.reports == nil {
		reports, err := cache.NewReportCache(cache.DefaultSize)
		if err != nil {
			return nil, fmt.Errorf("creating report cache: %w", err)
		}
		r.reports = reports
	}
	if r.printer == nil {
		r.printer = format.NewPrinter()
	}

	return r, nil
}

// ToolDefinition represents a CO2 estimator MCP tool definition.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     HandlerFunc
}

// GetToolDefinitions returns the list of all available tools.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "get_version",
			Description: "Get the version information for this CO2 estimator MCP",
			Tool:        r.factory.CreateBasicTool("get_version", "Get the version and build information of the CO2 estimator service"),
			Handler:     r.HandleGetVersion,
		},

		// Route catalog
		{
			Name:        "list_cities",
			Description: "List every city known to the route catalog, sorted alphabetically",
			Tool:        r.factory.CreateBasicTool("list_cities", "List every city with a known road distance, sorted alphabetically"),
			Handler:     r.HandleListCities,
		},
		{
			Name:        "find_distance",
			Description: "Look up the road distance between two cities. Parameters: origin (string), destination (string)",
			Tool:        r.factory.CreatePlacePairTool("find_distance", "Look up the road distance in km between two cities. Lookup is symmetric and ignores case and surrounding spaces."),
			Handler:     r.HandleFindDistance,
		},

		// Emission engine
		{
			Name:        "compute_emission",
			Description: "Compute kg of CO2 for a trip. Parameters: distance_km (number), mode (string)",
			Tool:        r.factory.CreateDistanceTool("compute_emission", "Compute kg of CO2 emitted for a trip of distance_km using the given transport mode", true),
			Handler:     r.HandleComputeEmission,
		},
		{
			Name:        "compare_modes",
			Description: "Compare every transport mode for a distance, cheapest first. Parameters: distance_km (number)",
			Tool:        r.factory.CreateDistanceTool("compare_modes", "Compare the CO2 of every transport mode for distance_km, sorted ascending, with the percentage relative to car", false),
			Handler:     r.HandleCompareModes,
		},
		{
			Name:        "compute_savings",
			Description: "Compute kg and percent saved relative to a baseline. Parameters: emission_kg (number), baseline_kg (number)",
			Tool: mcp.NewTool("compute_savings",
				mcp.WithDescription("Compute the kg of CO2 saved and the percentage saved relative to a baseline emission (usually car)"),
				mcp.WithNumber("emission_kg", mcp.Required(), mcp.Description("Emission of the chosen mode in kg CO2")),
				mcp.WithNumber("baseline_kg", mcp.Required(), mcp.Description("Baseline emission in kg CO2")),
			),
			Handler: r.HandleComputeSavings,
		},
		{
			Name:        "compute_carbon_credits",
			Description: "Convert kg of CO2 into carbon credits. Parameters: emission_kg (number)",
			Tool:        r.factory.CreateAmountTool("compute_carbon_credits", "Convert kg of CO2 into carbon credits (1 credit = 1 tonne by default)", "emission_kg", "Emission in kg CO2 (>= 0)"),
			Handler:     r.HandleComputeCarbonCredits,
		},
		{
			Name:        "estimate_credit_price",
			Description: "Estimate the BRL price range for a number of credits. Parameters: credits (number)",
			Tool:        r.factory.CreateAmountTool("estimate_credit_price", "Estimate the minimum, maximum and average price in BRL for a number of carbon credits", "credits", "Number of carbon credits (>= 0)"),
			Handler:     r.HandleEstimateCreditPrice,
		},

		// Combined flow
		{
			Name:        "estimate_trip",
			Description: "Full trip estimate between two cities. Parameters: origin (string), destination (string), mode (string), distance_km (number, optional)",
			Tool:        r.estimateTripTool(),
			Handler:     r.HandleEstimateTrip,
		},
		{
			Name:        "list_transport_modes",
			Description: "List transport modes with their emission factor and display metadata",
			Tool:        r.factory.CreateBasicTool("list_transport_modes", "List the supported transport modes with emission factor, label, icon and color"),
			Handler:     r.HandleListTransportModes,
		},
	}
}

// RegisterTools registers all tools with the MCP server.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Info("registering tool", "name", def.Name)
		mcpServer.AddTool(def.Tool, r.wrapWithTracing(def.Name, def.Handler))
	}
}

// wrapWithTracing wraps a tool handler with a span and request metrics
func (r *Registry) wrapWithTracing(toolName string, handler HandlerFunc) HandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("mcp.tool.%s", toolName),
			trace.WithAttributes(
				attribute.String(tracing.AttrMCPToolName, toolName),
			),
		)
		defer span.End()

		startTime := time.Now()
		result, err := handler(ctx, req)
		duration := time.Since(startTime)

		status := tracing.StatusSuccess
		switch {
		case err != nil:
			status = tracing.StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case result != nil && result.IsError:
			status = tracing.StatusError
			span.SetStatus(codes.Error, "tool returned error result")
		default:
			span.SetStatus(codes.Ok, "")
		}

		resultSize := 0
		if result != nil && result.Content != nil {
			if data, marshalErr := json.Marshal(result.Content); marshalErr == nil {
				resultSize = len(data)
			}
		}

		span.SetAttributes(tracing.MCPToolAttributes(toolName, status, duration.Milliseconds(), resultSize)...)
		monitoring.RecordMCPRequest(toolName, duration, status == tracing.StatusSuccess)

		r.logger.Debug("tool execution traced",
			"tool", toolName,
			"duration_ms", duration.Milliseconds(),
			"status", status,
			"result_size", resultSize,
		)

		return result, err
	}
}

// GetToolNames returns a list of all tool names.
func (r *Registry) GetToolNames() []string {
	defs := r.GetToolDefinitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// Handler returns the traced handler of the named tool.
func (r *Registry) Handler(name string) (HandlerFunc, bool) {
	for _, def := range r.GetToolDefinitions() {
		if def.Name == name {
			return r.wrapWithTracing(def.Name, def.Handler), true
		}
	}
	return nil, false
}

// RegisterAll registers all tools and prompts with the MCP server.
func (r *Registry) RegisterAll(mcpServer *server.MCPServer) {
	r.RegisterTools(mcpServer)
	r.RegisterPrompts(mcpServer)
}
