package core

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolFactory builds tool definitions that share parameter conventions
type ToolFactory struct {
	// DefaultDeparture is advertised as the default departure_time
	DefaultDeparture string
}

// NewToolFactory creates a new tool factory
func NewToolFactory(defaultDeparture string) *ToolFactory {
	if defaultDeparture == "" {
		defaultDeparture = "09:00"
	}
	return &ToolFactory{DefaultDeparture: defaultDeparture}
}

// CreateBasicTool creates a new tool with the specified name and description
func (f *ToolFactory) CreateBasicTool(name, description string) mcp.Tool {
	return mcp.NewTool(name, mcp.WithDescription(description))
}

// filterOptions are the refinement parameters shared by search_routes and refine_routes
func filterOptions(sortRequired bool) []mcp.ToolOption {
	sortOpts := []mcp.PropertyOption{
		mcp.Description("Sort key: price, duration, departureTime, arrivalTime or emissions"),
		mcp.Enum("price", "duration", "departureTime", "arrivalTime", "emissions", "departure", "arrival"),
	}
	if sortRequired {
		sortOpts = append(sortOpts, mcp.Required())
	} else {
		sortOpts = append(sortOpts, mcp.DefaultString("duration"))
	}

	return []mcp.ToolOption{
		mcp.WithString("sort_by", sortOpts...),
		mcp.WithNumber("max_price",
			mcp.Description("Only keep routes costing at most this much (USD)"),
			mcp.Min(0),
		),
		mcp.WithNumber("max_duration",
			mcp.Description("Only keep routes taking at most this many minutes"),
			mcp.Min(0),
		),
		mcp.WithArray("modes",
			mcp.Description("Transport mode ids to keep. Omit to keep every mode; an empty list keeps none"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	}
}

// CreateSearchTool creates the route search tool
func (f *ToolFactory) CreateSearchTool(name, description string) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("Origin location id, e.g. nyc-jfk"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Destination location id, e.g. nyc-ts"),
		),
		mcp.WithString("departure_time",
			mcp.Description("Departure time as HH:MM on a 24-hour clock"),
			mcp.DefaultString(f.DefaultDeparture),
		),
	}
	return mcp.NewTool(name, append(opts, filterOptions(false)...)...)
}

// CreateRefineTool creates the tool that re-filters a stored search
func (f *ToolFactory) CreateRefineTool(name, description string) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("search_id",
			mcp.Required(),
			mcp.Description("The search_id returned by search_routes"),
		),
	}
	return mcp.NewTool(name, append(opts, filterOptions(true)...)...)
}

// CreateNearbyTool creates a tool that takes a position and a radius in kilometers
func (f *ToolFactory) CreateNearbyTool(name, description string, defaultRadius, maxRadius float64, defaultLimit int) mcp.Tool {
	radiusDesc := "Search radius in kilometers"
	if maxRadius > 0 {
		radiusDesc += fmt.Sprintf(" (max %g)", maxRadius)
	}

	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("position",
			mcp.Description("Position as decimal degrees (\"40.758, -73.9855\"), DMS or MGRS. Overrides latitude/longitude"),
		),
		mcp.WithNumber("latitude",
			mcp.Description("Latitude of the center point"),
		),
		mcp.WithNumber("longitude",
			mcp.Description("Longitude of the center point"),
		),
		mcp.WithNumber("radius_km",
			mcp.Description(radiusDesc),
			mcp.DefaultNumber(defaultRadius),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return"),
			mcp.DefaultNumber(float64(defaultLimit)),
		),
	)
}
