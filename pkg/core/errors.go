// Package core provides the error model, input validation and shared helpers
// used by the trip planner's MCP tools and REST handlers.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/NERVsystems/tripmcp/pkg/cache"
	"github.com/NERVsystems/tripmcp/pkg/trip"
	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorCode defines standard error codes for MCP tools
type ErrorCode string

// Standard error codes
const (
	// Input validation errors
	ErrInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrInvalidLatitude  ErrorCode = "INVALID_LATITUDE"
	ErrInvalidLongitude ErrorCode = "INVALID_LONGITUDE"
	ErrInvalidRadius    ErrorCode = "INVALID_RADIUS"
	ErrRadiusTooLarge   ErrorCode = "RADIUS_TOO_LARGE"
	ErrMissingParameter ErrorCode = "MISSING_PARAMETER"
	ErrInvalidParameter ErrorCode = "INVALID_PARAMETER"
	ErrInvalidTime      ErrorCode = "INVALID_TIME"
	ErrInvalidSortKey   ErrorCode = "INVALID_SORT_KEY"
	ErrInvalidFilter    ErrorCode = "INVALID_FILTER"

	// Lookup errors
	ErrLocationNotFound ErrorCode = "LOCATION_NOT_FOUND"
	ErrModeNotFound     ErrorCode = "MODE_NOT_FOUND"
	ErrSearchNotFound   ErrorCode = "SEARCH_NOT_FOUND"
	ErrNoResults        ErrorCode = "NO_RESULTS"

	// Server errors
	ErrRateLimit     ErrorCode = "RATE_LIMIT"
	ErrUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// MCPError represents a detailed error structure for MCP tool responses
type MCPError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Query       string   `json:"query,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Guidance    string   `json:"guidance,omitempty"`
}

// Error implements the error interface
func (e MCPError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", e.Code, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new MCPError with the given code and message
func NewError(code ErrorCode, message string) *MCPError {
	return &MCPError{
		Code:    string(code),
		Message: message,
	}
}

// WithQuery adds query information to the error
func (e *MCPError) WithQuery(query string) *MCPError {
	e.Query = query
	return e
}

// WithGuidance adds guidance information to the error
func (e *MCPError) WithGuidance(guidance string) *MCPError {
	e.Guidance = guidance
	return e
}

// WithSuggestions adds suggestions to the error
func (e *MCPError) WithSuggestions(suggestions ...string) *MCPError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// ToMCPResult converts the error to an MCP tool result
func (e *MCPError) ToMCPResult() *mcp.CallToolResult {
	errorJSON, err := json.Marshal(e)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ERROR: %s - %s", e.Code, e.Message))
	}
	return mcp.NewToolResultError(string(errorJSON))
}

// HTTPStatus maps the error code to the status a REST client receives
func (e *MCPError) HTTPStatus() int {
	switch ErrorCode(e.Code) {
	case ErrLocationNotFound, ErrModeNotFound, ErrSearchNotFound, ErrNoResults:
		return http.StatusNotFound
	case ErrRateLimit:
		return http.StatusTooManyRequests
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// FromError converts a domain error into an MCPError with guidance for the caller.
// Errors that are already MCPError or ValidationError keep their code.
func FromError(err error) *MCPError {
	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}
	var verr ValidationError
	if errors.As(err, &verr) {
		return NewError(ErrorCode(verr.Code), verr.Message).WithGuidance(verr.Guidance)
	}
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		if len(verrs) == 1 {
			return NewValidationError(ErrorCode(verrs[0].Code), verrs[0].Message)
		}
		return NewValidationError(ErrInvalidInput, verrs.Error())
	}

	switch {
	case errors.Is(err, trip.ErrLocationNotFound):
		return NewError(ErrLocationNotFound, err.Error()).
			WithGuidance("Use list_locations to find valid location ids.")
	case errors.Is(err, trip.ErrModeNotFound):
		return NewError(ErrModeNotFound, err.Error()).
			WithGuidance("Use list_transport_modes to find valid mode ids.")
	case errors.Is(err, cache.ErrSearchNotFound):
		return NewError(ErrSearchNotFound, err.Error()).
			WithGuidance("Searches expire after a while. Run search_routes again to get a new search_id.")
	case errors.Is(err, trip.ErrInvalidTime):
		return NewValidationError(ErrInvalidTime, err.Error()).
			WithSuggestions("09:00", "17:30")
	case errors.Is(err, trip.ErrInvalidSortKey):
		keys := make([]string, 0, len(trip.SortKeys()))
		for _, k := range trip.SortKeys() {
			keys = append(keys, string(k))
		}
		return NewValidationError(ErrInvalidSortKey, err.Error()).WithSuggestions(keys...)
	case errors.Is(err, trip.ErrInvalidFilter):
		return NewValidationError(ErrInvalidFilter, err.Error())
	}

	return NewError(ErrInternalError, err.Error())
}

// NewValidationError creates an error for validation failures
func NewValidationError(code ErrorCode, message string) *MCPError {
	return NewError(code, message).
		WithGuidance("Please correct the parameters and try again.")
}
