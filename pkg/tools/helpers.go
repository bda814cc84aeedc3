package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/co2mcp/pkg/core"
)

// InputParser is a generic function to parse request arguments into a strongly typed struct
func InputParser[T any](req mcp.CallToolRequest) (T, *mcp.CallToolResult, error) {
	var input T

	inputJSON, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return input, ErrorResponse(fmt.Sprintf("Invalid input format: %v", err)), err
	}

	if err := json.Unmarshal(inputJSON, &input); err != nil {
		return input, core.NewValidationError(core.ErrInvalidInput,
			fmt.Sprintf("Failed to parse input: %v", err)).ToMCPResult(), err
	}

	return input, nil, nil
}

// WithParsedInput is a higher-order function that handles request parsing and error handling.
// Handler errors of type *core.MCPError are returned to the caller as is.
func WithParsedInput[T any](
	handlerName string,
	handler func(ctx context.Context, input T, logger *slog.Logger) (any, error),
) HandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := slog.Default().With("tool", handlerName)

		input, errResult, err := InputParser[T](req)
		if err != nil {
			logger.Error("failed to parse input", "error", err)
			return errResult, nil
		}

		result, err := handler(ctx, input, logger)
		if err != nil {
			return ErrorResult(logger, err), nil
		}

		return JSONResult(logger, result), nil
	}
}

// JSONResult marshals v into a text result.
func JSONResult(logger *slog.Logger, v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result")
	}
	return mcp.NewToolResultText(string(data))
}

// ErrorResult renders err as an MCP error result, keeping the code and
// guidance of *core.MCPError values.
func ErrorResult(logger *slog.Logger, err error) *mcp.CallToolResult {
	var mcpErr *core.MCPError
	if errors.As(err, &mcpErr) {
		logger.Info("rejected request", "code", mcpErr.Code, "message", mcpErr.Message)
		return mcpErr.ToMCPResult()
	}
	logger.Error("handler error", "error", err)
	return core.NewError(core.ErrInternalError, fmt.Sprintf("Failed to process request: %v", err)).ToMCPResult()
}

// ErrorResponse creates a plain error result
func ErrorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}
