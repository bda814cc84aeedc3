package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// EstimatorSystemPrompt explains to the model how the estimator tools fit together.
func EstimatorSystemPrompt() string {
	return `You estimate CO2 emissions of trips between Brazilian cities.

Workflow:
1. Call list_cities to see the supported cities. Names look like "São Paulo, SP".
2. Call estimate_trip with origin, destination and mode. If distance_source is
   "manual_required", ask the user for the distance and call estimate_trip again
   with distance_km.
3. Use compare_modes to show every transport mode for the same distance, and
   list_transport_modes for labels and emission factors.

Car is the baseline. Positive savings mean the chosen mode emits less than a car;
negative savings mean it emits more. One carbon credit is one tonne of CO2.
Prices are estimates in BRL and are not quotes.`
}

// RegisterPrompts registers all prompts with the MCP server.
func (r *Registry) RegisterPrompts(mcpServer *server.MCPServer) {
	r.logger.Info("registering estimator prompts")

	prompt := mcp.NewPrompt("estimator_system",
		mcp.WithPromptDescription("System prompt with CO2 estimator instructions"),
	)
	mcpServer.AddPrompt(prompt, func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return mcp.NewGetPromptResult(
			"CO2 Estimator Instructions",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleAssistant, mcp.NewTextContent(EstimatorSystemPrompt())),
			},
		), nil
	})
}
