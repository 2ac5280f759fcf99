// Package catalog holds the immutable reference data of the trip planner:
// the known locations of each supported city and the transport modes.
package catalog

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/NERVsystems/tripmcp/pkg/geo"
	"github.com/tidwall/rtree"
)

// Kind classifies a location
type Kind string

const (
	KindAirport      Kind = "airport"
	KindTrainStation Kind = "train_station"
	KindBusStation   Kind = "bus_station"
	KindMetroStation Kind = "metro_station"
	KindLandmark     Kind = "landmark"
)

// Valid reports whether k is one of the known location kinds
func (k Kind) Valid() bool {
	switch k {
	case KindAirport, KindTrainStation, KindBusStation, KindMetroStation, KindLandmark:
		return true
	}
	return false
}

// Location is a named place inside a city
type Location struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	City        string       `json:"city"`
	Kind        Kind         `json:"type"`
	Coordinates geo.Location `json:"coordinates"`
}

// TransportMode describes a way of travelling between two locations
type TransportMode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// Catalog is a read-only, indexed view over locations and transport modes.
// It is safe for concurrent use once constructed.
type Catalog struct {
	locations []Location
	modes     []TransportMode

	byID     map[string]int
	byCity   map[string][]int
	cities   []string
	modeByID map[string]int

	spatial rtree.RTreeG[string]
}

// New builds a catalog from the given tables. Location and mode ids must be unique.
func New(locations []Location, modes []TransportMode) (*Catalog, error) {
	c := &Catalog{
		locations: append([]Location(nil), locations...),
		modes:     append([]TransportMode(nil), modes...),
		byID:      make(map[string]int, len(locations)),
		byCity:    make(map[string][]int),
		modeByID:  make(map[string]int, len(modes)),
	}

	for i, l := range c.locations {
		if l.ID == "" {
			return nil, fmt.Errorf("location %d has no id", i)
		}
		if _, dup := c.byID[l.ID]; dup {
			return nil, fmt.Errorf("duplicate location id %q", l.ID)
		}
		if !l.Kind.Valid() {
			return nil, fmt.Errorf("location %q has unknown type %q", l.ID, l.Kind)
		}
		c.byID[l.ID] = i

		key := strings.ToLower(l.City)
		if _, seen := c.byCity[key]; !seen {
			c.cities = append(c.cities, l.City)
		}
		c.byCity[key] = append(c.byCity[key], i)

		pt := [2]float64{l.Coordinates.Longitude, l.Coordinates.Latitude}
		c.spatial.Insert(pt, pt, l.ID)
	}

	for i, m := range c.modes {
		if m.ID == "" {
			return nil, fmt.Errorf("transport mode %d has no id", i)
		}
		if _, dup := c.modeByID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate transport mode id %q", m.ID)
		}
		c.modeByID[m.ID] = i
	}

	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog of New York, San Francisco and London
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := New(defaultLocations, defaultModes)
		if err != nil {
			// built-in tables are fixed; this only trips on a bad edit
			panic(err)
		}
		slog.Debug("catalog loaded", "locations", len(c.locations), "cities", len(c.cities), "modes", len(c.modes))
		defaultCatalog = c
	})
	return defaultCatalog
}

// LocationByID looks up a location by its exact id
func (c *Catalog) LocationByID(id string) (Location, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Location{}, false
	}
	return c.locations[i], true
}

// LocationsByCity returns the locations of a city in catalog order.
// The city name is matched case-insensitively.
func (c *Catalog) LocationsByCity(city string) []Location {
	idx := c.byCity[strings.ToLower(strings.TrimSpace(city))]
	out := make([]Location, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.locations[i])
	}
	return out
}

// Cities returns the distinct city names in first-seen order
func (c *Catalog) Cities() []string {
	return append([]string(nil), c.cities...)
}

// Locations returns every location in catalog order
func (c *Catalog) Locations() []Location {
	return append([]Location(nil), c.locations...)
}

// TransportModeByID looks up a transport mode by id
func (c *Catalog) TransportModeByID(id string) (TransportMode, bool) {
	i, ok := c.modeByID[id]
	if !ok {
		return TransportMode{}, false
	}
	return c.modes[i], true
}

// TransportModes returns every transport mode in catalog order
func (c *Catalog) TransportModes() []TransportMode {
	return append([]TransportMode(nil), c.modes...)
}

// ModeIDs returns the transport mode ids in catalog order
func (c *Catalog) ModeIDs() []string {
	ids := make([]string, len(c.modes))
	for i, m := range c.modes {
		ids[i] = m.ID
	}
	return ids
}

// Search returns the locations whose id, name or city contains query,
// ignoring case. An empty query matches everything.
func (c *Catalog) Search(query string) []Location {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.Locations()
	}

	var out []Location
	for _, l := range c.locations {
		if strings.Contains(strings.ToLower(l.Name), q) ||
			strings.Contains(strings.ToLower(l.City), q) ||
			strings.Contains(l.ID, q) {
			out = append(out, l)
		}
	}
	return out
}
