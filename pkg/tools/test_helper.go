package tools

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

// NewRequest builds a CallToolRequest for name with args
func NewRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// IsErrorResult reports whether result carries the error flag
func IsErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// AssertErrorResult fails the test unless result is an error result
func AssertErrorResult(t *testing.T, result *mcp.CallToolResult, message string) {
	t.Helper()
	if !IsErrorResult(result) {
		t.Error(message)
	}
}

// AssertSuccessResult fails the test if result is an error result, printing its text
func AssertSuccessResult(t *testing.T, result *mcp.CallToolResult, message string) {
	t.Helper()
	if IsErrorResult(result) {
		t.Fatalf("%s. Got error: %s", message, ResultText(result))
	}
}

// AssertErrorCode fails the test unless result is an error result with the given MCPError code
func AssertErrorCode(t *testing.T, result *mcp.CallToolResult, code string) {
	t.Helper()
	if !IsErrorResult(result) {
		t.Fatalf("expected %s error, got success: %s", code, ResultText(result))
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := ParseResultJSON(result, &body); err != nil {
		t.Fatalf("error result is not JSON: %s", ResultText(result))
	}
	if body.Code != code {
		t.Errorf("error code = %s, want %s (%s)", body.Code, code, ResultText(result))
	}
}

// ResultText returns the first text content of result
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

// ParseResultJSON decodes the first text content of result into out
func ParseResultJSON(result *mcp.CallToolResult, out any) error {
	return json.Unmarshal([]byte(ResultText(result)), out)
}
