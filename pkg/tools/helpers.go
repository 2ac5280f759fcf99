package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/NERVsystems/tripmcp/pkg/core"
	"github.com/mark3labs/mcp-go/mcp"
)

// InputParser decodes the request arguments into T and checks its validate tags
func InputParser[T any](req mcp.CallToolRequest) (T, *mcp.CallToolResult, error) {
	var input T

	raw, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return input, ErrorResponse(fmt.Sprintf("Invalid input format: %v", err)), err
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return input, core.NewError(core.ErrInvalidInput, fmt.Sprintf("Failed to parse input: %v", err)).ToMCPResult(), err
	}
	if err := core.ValidateStruct(input); err != nil {
		return input, core.FromError(err).ToMCPResult(), err
	}

	return input, nil, nil
}

// WithParsedInput adapts a typed handler into an MCP handler. Errors
// returned by the handler become structured error results.
func WithParsedInput[T any](
	handlerName string,
	handler func(ctx context.Context, input T, logger *slog.Logger) (any, error),
) HandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := slog.Default().With("tool", handlerName)

		input, errResult, err := InputParser[T](req)
		if err != nil {
			logger.Debug("rejected input", "error", err)
			return errResult, nil
		}

		result, err := handler(ctx, input, logger)
		if err != nil {
			logger.Debug("handler error", "error", err)
			return ToolError(err), nil
		}

		return JSONResult(logger, result), nil
	}
}

// JSONResult marshals v into a text result
func JSONResult(logger *slog.Logger, v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result")
	}
	return mcp.NewToolResultText(string(data))
}

// ErrorResponse is a plain-text error result
func ErrorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}
