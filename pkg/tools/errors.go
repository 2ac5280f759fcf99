package tools

import (
	"strings"

	"github.com/NERVsystems/tripmcp/pkg/core"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolError converts any error into a structured error result carrying a usage hint
func ToolError(err error) *mcp.CallToolResult {
	return core.FromError(err).ToMCPResult()
}

// GetToolUsageExample returns an example argument object for a tool
func GetToolUsageExample(toolName string) string {
	examples := map[string]string{
		"list_locations": `{
  "city": "London",
  "type": "train_station"
}`,
		"get_location": `{
  "id": "nyc-gct"
}`,
		"find_nearby_locations": `{
  "position": "40.758, -73.9855",
  "radius_km": 3
}`,
		"geo_distance": `{
  "from": "nyc-jfk",
  "to": "40°45'29\"N 73°59'08\"W"
}`,
		"estimate_mode": `{
  "mode": "subway",
  "from": "nyc-jfk",
  "to": "nyc-ts"
}`,
		"search_routes": `{
  "from": "nyc-jfk",
  "to": "nyc-ts",
  "departure_time": "09:00"
}`,
		"refine_routes": `{
  "search_id": "<search_id from search_routes>",
  "sort_by": "price",
  "max_duration": 60,
  "modes": ["subway", "train", "taxi"]
}`,
		"get_search": `{
  "search_id": "<search_id from search_routes>"
}`,
	}

	if example, ok := examples[toolName]; ok {
		return example
	}
	return "{}"
}

func withExample(e *core.MCPError, toolName string) *mcp.CallToolResult {
	guidance := strings.TrimSpace(e.Guidance + " Example: " + GetToolUsageExample(toolName))
	return e.WithGuidance(guidance).ToMCPResult()
}
