package tracing

import (
	"go.opentelemetry.io/otel/attribute"
)

const (
	AttrMCPToolName     = "mcp.tool.name"
	AttrMCPToolStatus   = "mcp.tool.status"
	AttrMCPToolDuration = "mcp.tool.duration_ms"
	AttrMCPResultSize   = "mcp.tool.result_size"

	AttrTripOrigin      = "trip.origin"
	AttrTripDestination = "trip.destination"
	AttrTripDeparture   = "trip.departure_time"
	AttrTripRouteCount  = "trip.route_count"
	AttrTripSortKey     = "trip.sort_key"
	AttrTripSearchID    = "trip.search_id"

	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPPath       = "http.path"

	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusRateLimited = "rate_limited"
)

// MCPToolAttributes describes one finished tool call
func MCPToolAttributes(toolName, status string, durationMs int64, resultSize int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrMCPToolName, toolName),
		attribute.String(AttrMCPToolStatus, status),
		attribute.Int64(AttrMCPToolDuration, durationMs),
		attribute.Int(AttrMCPResultSize, resultSize),
	}
}

// SearchAttributes describes a route search and how many routes it produced
func SearchAttributes(origin, destination, departure string, routes int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrTripOrigin, origin),
		attribute.String(AttrTripDestination, destination),
		attribute.String(AttrTripDeparture, departure),
		attribute.Int(AttrTripRouteCount, routes),
	}
}

// RefineAttributes describes a refinement of a stored search
func RefineAttributes(searchID, sortKey string, routes int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrTripSearchID, searchID),
		attribute.String(AttrTripSortKey, sortKey),
		attribute.Int(AttrTripRouteCount, routes),
	}
}

// ErrorAttributes returns nil for a nil error
func ErrorAttributes(err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, "error"),
		attribute.String(AttrErrorMessage, err.Error()),
	}
}
