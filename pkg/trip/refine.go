package trip

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Filter narrows a route set. Nil ceilings are not applied; an empty Modes
// list admits no route at all.
type Filter struct {
	MaxPrice    *float64 `json:"max_price,omitempty"`
	MaxDuration *int     `json:"max_duration,omitempty"`
	Modes       []string `json:"modes"`
}

// DefaultFilter admits every route in routes: no ceilings and every mode present
func DefaultFilter(routes []Route) Filter {
	modes := make([]string, 0, len(routes))
	for _, r := range routes {
		if !slices.Contains(modes, r.ModeID) {
			modes = append(modes, r.ModeID)
		}
	}
	return Filter{Modes: modes}
}

// Validate rejects negative ceilings
func (f Filter) Validate() error {
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return fmt.Errorf("%w: max price %v is negative", ErrInvalidFilter, *f.MaxPrice)
	}
	if f.MaxDuration != nil && *f.MaxDuration < 0 {
		return fmt.Errorf("%w: max duration %d is negative", ErrInvalidFilter, *f.MaxDuration)
	}
	return nil
}

// Allows reports whether r passes every criterion of the filter
func (f Filter) Allows(r Route) bool {
	if f.MaxPrice != nil && r.Price > *f.MaxPrice {
		return false
	}
	if f.MaxDuration != nil && r.DurationMinutes > *f.MaxDuration {
		return false
	}
	return slices.Contains(f.Modes, r.ModeID)
}

// SortKey selects the route ordering
type SortKey string

const (
	SortByPrice     SortKey = "price"
	SortByDuration  SortKey = "duration"
	SortByDeparture SortKey = "departureTime"
	SortByArrival   SortKey = "arrivalTime"
	SortByEmissions SortKey = "emissions"
)

// DefaultSortKey orders routes by duration
const DefaultSortKey = SortByDuration

// SortKeys lists the canonical sort keys
func SortKeys() []SortKey {
	return []SortKey{SortByPrice, SortByDuration, SortByDeparture, SortByArrival, SortByEmissions}
}

// ParseSortKey accepts a canonical key or one of the aliases "departure" and
// "arrival", ignoring case. The empty string selects DefaultSortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultSortKey, nil
	case "price":
		return SortByPrice, nil
	case "duration":
		return SortByDuration, nil
	case "departuretime", "departure":
		return SortByDeparture, nil
	case "arrivaltime", "arrival":
		return SortByArrival, nil
	case "emissions":
		return SortByEmissions, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSortKey, s)
}

func compareBy(key SortKey) func(a, b Route) int {
	switch key {
	case SortByPrice:
		return func(a, b Route) int { return cmp.Compare(a.Price, b.Price) }
	case SortByDeparture:
		return func(a, b Route) int { return strings.Compare(a.DepartureTime, b.DepartureTime) }
	case SortByArrival:
		return func(a, b Route) int { return strings.Compare(a.ArrivalTime, b.ArrivalTime) }
	case SortByEmissions:
		return func(a, b Route) int { return cmp.Compare(a.CO2Kg, b.CO2Kg) }
	default:
		return func(a, b Route) int { return cmp.Compare(a.DurationMinutes, b.DurationMinutes) }
	}
}

// Refine returns the routes admitted by f, stably sorted by key.
// The input slice is never modified. Unknown keys sort by duration.
func Refine(routes []Route, f Filter, key SortKey) []Route {
	out := make([]Route, 0, len(routes))
	for _, r := range routes {
		if f.Allows(r) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, compareBy(key))
	return out
}
