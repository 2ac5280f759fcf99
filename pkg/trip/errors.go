package trip

import "errors"

var (
	// ErrLocationNotFound is returned when an origin or destination id is not in the catalog
	ErrLocationNotFound = errors.New("location not found")

	// ErrModeNotFound is returned by catalog-backed transport mode lookups
	ErrModeNotFound = errors.New("transport mode not found")

	// ErrInvalidTime is returned for clock values that are not strict HH:MM in 00:00-23:59
	ErrInvalidTime = errors.New("invalid time")

	// ErrInvalidSortKey is returned for an unrecognised sort key
	ErrInvalidSortKey = errors.New("invalid sort key")

	// ErrInvalidFilter is returned for a filter with a negative ceiling
	ErrInvalidFilter = errors.New("invalid filter")
)
