// Package tools implements the trip planning MCP tools.
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

	"github.com/NERVsystems/tripmcp/pkg/cache"
	"github.com/NERVsystems/tripmcp/pkg/catalog"
	"github.com/NERVsystems/tripmcp/pkg/core"
	"github.com/NERVsystems/tripmcp/pkg/monitoring"
	"github.com/NERVsystems/tripmcp/pkg/tools/prompts"
	"github.com/NERVsystems/tripmcp/pkg/tracing"
	"github.com/NERVsystems/tripmcp/pkg/trip"
)

// HandlerFunc is the signature every tool handler shares
type HandlerFunc func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Registry owns the tool definitions and the state their handlers share
type Registry struct {
	logger  *slog.Logger
	factory *core.ToolFactory

	catalog *catalog.Catalog
	synth   *trip.Synthesizer
	store   *cache.SearchStore

	defaultDeparture string
}

// Option configures a Registry
type Option func(*Registry)

func WithCatalog(c *catalog.Catalog) Option {
	return func(r *Registry) { r.catalog = c }
}

func WithSynthesizer(s *trip.Synthesizer) Option {
	return func(r *Registry) { r.synth = s }
}

func WithSearchStore(s *cache.SearchStore) Option {
	return func(r *Registry) { r.store = s }
}

// WithDefaultDeparture sets the departure used when search_routes omits one
func WithDefaultDeparture(hhmm string) Option {
	return func(r *Registry) { r.defaultDeparture = hhmm }
}

// NewRegistry creates a registry over the built-in catalog and the global search store
func NewRegistry(logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{logger: logger, defaultDeparture: "09:00"}
	for _, opt := range opts {
		opt(r)
	}
	if r.catalog == nil {
		r.catalog = catalog.Default()
	}
	if r.synth == nil {
		r.synth = trip.NewSynthesizer(r.catalog, trip.WithModes(r.catalog.ModeIDs()...))
	}
	if r.store == nil {
		r.store = cache.Global()
	}
	r.factory = core.NewToolFactory(r.defaultDeparture)
	return r
}

// Catalog returns the catalog the tools resolve ids against
func (r *Registry) Catalog() *catalog.Catalog { return r.catalog }

// Store returns the search store backing search_routes and refine_routes
func (r *Registry) Store() *cache.SearchStore { return r.store }

// ToolDefinition pairs an MCP tool with its handler
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     HandlerFunc
}

// GetToolDefinitions returns every tool in registration order
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	defs := []ToolDefinition{
		{
			Name:        "get_version",
			Description: "Get version and build information for this trip planning server",
		},

		// Catalog
		{
			Name:        "list_cities",
			Description: "List the cities that have known locations, with how many locations each has",
		},
		{
			Name:        "list_locations",
			Description: "List known locations. Filter by city, by type (airport, train_station, landmark) or by a free-text query",
		},
		{
			Name:        "get_location",
			Description: "Get one location by id, with its MGRS grid reference and distances to the other locations in its city",
		},
		{
			Name:        "list_transport_modes",
			Description: "List the transport modes with their speed, fare and emission parameters",
		},
		{
			Name:        "find_nearby_locations",
			Description: "Find known locations within a radius of a position. The position may be a location id, decimal degrees, DMS or MGRS",
		},

		// Geo and mode estimates
		{
			Name:        "geo_distance",
			Description: "Great-circle distance in kilometers between two positions (location ids or coordinates)",
		},
		{
			Name:        "estimate_mode",
			Description: "Estimate duration, price and CO2 for one transport mode over a distance or between two positions",
		},

		// Trip search
		{
			Name:        "search_routes",
			Description: "Build one route per transport mode between two location ids and store the result. Returns a search_id for refine_routes",
		},
		{
			Name:        "refine_routes",
			Description: "Filter and sort the routes of a previous search. Each refinement starts from the full route set",
		},
		{
			Name:        "get_search",
			Description: "Show the current refinement of a previous search",
		},
	}

	tools := map[string]func(string, string) (mcp.Tool, HandlerFunc){
		"get_version":           func(n, d string) (mcp.Tool, HandlerFunc) { return r.factory.CreateBasicTool(n, d), r.HandleGetVersion },
		"list_cities":           func(n, d string) (mcp.Tool, HandlerFunc) { return r.factory.CreateBasicTool(n, d), r.HandleListCities },
		"list_locations":        func(n, d string) (mcp.Tool, HandlerFunc) { return ListLocationsTool(n, d), r.HandleListLocations },
		"get_location":          func(n, d string) (mcp.Tool, HandlerFunc) { return GetLocationTool(n, d), r.HandleGetLocation },
		"list_transport_modes":  func(n, d string) (mcp.Tool, HandlerFunc) { return r.factory.CreateBasicTool(n, d), r.HandleListTransportModes },
		"find_nearby_locations": func(n, d string) (mcp.Tool, HandlerFunc) { return r.factory.CreateNearbyTool(n, d, DefaultNearbyRadiusKm, MaxNearbyRadiusKm, DefaultNearbyLimit), r.HandleFindNearbyLocations },
		"geo_distance":          func(n, d string) (mcp.Tool, HandlerFunc) { return GeoDistanceTool(n, d), r.HandleGeoDistance },
		"estimate_mode":         func(n, d string) (mcp.Tool, HandlerFunc) { return EstimateModeTool(n, d), r.HandleEstimateMode },
		"search_routes":         func(n, d string) (mcp.Tool, HandlerFunc) { return r.factory.CreateSearchTool(n, d), r.HandleSearchRoutes },
		"refine_routes":         func(n, d string) (mcp.Tool, HandlerFunc) { return r.factory.CreateRefineTool(n, d), r.HandleRefineRoutes },
		"get_search":            func(n, d string) (mcp.Tool, HandlerFunc) { return GetSearchTool(n, d), r.HandleGetSearch },
	}

	for i := range defs {
		defs[i].Tool, defs[i].Handler = tools[defs[i].Name](defs[i].Name, defs[i].Description)
	}
	return defs
}

// Handler looks up the instrumented handler for a tool by name
func (r *Registry) Handler(name string) (HandlerFunc, bool) {
	for _, def := range r.GetToolDefinitions() {
		if def.Name == name {
			return r.instrument(def.Name, def.Handler), true
		}
	}
	return nil, false
}

// RegisterTools registers all tools with the MCP server
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Debug("registering tool", "name", def.Name)
		mcpServer.AddTool(def.Tool, server.ToolHandlerFunc(r.instrument(def.Name, def.Handler)))
	}
}

// instrument wraps a handler with a span and request metrics
func (r *Registry) instrument(toolName string, handler HandlerFunc) HandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("mcp.tool.%s", toolName),
			trace.WithAttributes(attribute.String(tracing.AttrMCPToolName, toolName)),
		)
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, req)
		duration := time.Since(start)

		status := tracing.StatusSuccess
		switch {
		case err != nil:
			status = tracing.StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case result != nil && result.IsError:
			status = tracing.StatusError
			span.SetStatus(codes.Error, "tool returned an error result")
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
		if status != tracing.StatusSuccess {
			monitoring.RecordError("tool", toolName)
		}

		r.logger.Debug("tool executed",
			"tool", toolName,
			"duration_ms", duration.Milliseconds(),
			"status", status,
			"result_size", resultSize,
		)

		return result, err
	}
}

// RegisterPrompts registers the trip planning prompts
func (r *Registry) RegisterPrompts(mcpServer *server.MCPServer) {
	prompts.RegisterTripPrompts(mcpServer)
}

// GetToolNames returns the tool names in registration order
func (r *Registry) GetToolNames() []string {
	defs := r.GetToolDefinitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// RegisterAll registers all tools and prompts with the MCP server
func (r *Registry) RegisterAll(mcpServer *server.MCPServer) {
	r.RegisterTools(mcpServer)
	r.RegisterPrompts(mcpServer)
}
