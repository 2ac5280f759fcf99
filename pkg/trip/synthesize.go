package trip

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/NERVsystems/tripmcp/pkg/catalog"
	"github.com/NERVsystems/tripmcp/pkg/geo"
	"github.com/google/uuid"
)

// Locator resolves location ids. *catalog.Catalog satisfies it.
type Locator interface {
	LocationByID(id string) (catalog.Location, bool)
}

// Synthesizer builds one route per transport mode between two locations
type Synthesizer struct {
	locations Locator
	modes     []string
	wait      WaitSource
	newKey    func() string
}

// Option configures a Synthesizer
type Option func(*Synthesizer)

// WithModes restricts or reorders the modes routes are built for.
// Ids missing from the parameter table use DefaultParameters.
func WithModes(modeIDs ...string) Option {
	return func(s *Synthesizer) {
		s.modes = append([]string(nil), modeIDs...)
	}
}

// WithWaitSource replaces the random scheduled-transit wait
func WithWaitSource(w WaitSource) Option {
	return func(s *Synthesizer) {
		s.wait = w
	}
}

// WithKeyFunc replaces the route key generator
func WithKeyFunc(f func() string) Option {
	return func(s *Synthesizer) {
		s.newKey = f
	}
}

// NewSynthesizer returns a Synthesizer resolving ids through locations.
// A nil locator uses the default catalog.
func NewSynthesizer(locations Locator, opts ...Option) *Synthesizer {
	if locations == nil {
		locations = catalog.Default()
	}
	s := &Synthesizer{
		locations: locations,
		modes:     catalog.Default().ModeIDs(),
		wait:      NewRandomWait(uint64(time.Now().UnixNano())),
		newKey:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Modes returns the mode ids this synthesizer builds routes for
func (s *Synthesizer) Modes() []string {
	return append([]string(nil), s.modes...)
}

// Synthesize builds the routes from originID to destinationID leaving at
// departure ("HH:MM"), sorted by ascending duration. Ties keep mode order.
func (s *Synthesizer) Synthesize(originID, destinationID, departure string) ([]Route, error) {
	origin, ok := s.locations.LocationByID(originID)
	if !ok {
		return nil, fmt.Errorf("origin %q: %w", originID, ErrLocationNotFound)
	}
	destination, ok := s.locations.LocationByID(destinationID)
	if !ok {
		return nil, fmt.Errorf("destination %q: %w", destinationID, ErrLocationNotFound)
	}

	dep, err := ParseClock(departure)
	if err != nil {
		return nil, err
	}

	distance := geo.DistanceKm(origin.Coordinates, destination.Coordinates)

	routes := make([]Route, 0, len(s.modes))
	for _, mode := range s.modes {
		duration := Duration(distance, mode, s.wait)
		routes = append(routes, Route{
			ID:              RouteID(originID, destinationID, mode, departure),
			Key:             s.newKey(),
			OriginID:        originID,
			DestinationID:   destinationID,
			ModeID:          mode,
			DurationMinutes: duration,
			Price:           Price(distance, mode),
			DepartureTime:   departure,
			ArrivalTime:     FormatClock(dep + duration),
			DistanceKm:      distance,
			CO2Kg:           Emissions(distance, mode),
		})
	}

	slices.SortStableFunc(routes, func(a, b Route) int {
		return cmp.Compare(a.DurationMinutes, b.DurationMinutes)
	})
	return routes, nil
}
