package tools

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/NERVsystems/tripmcp/pkg/catalog"
	"github.com/NERVsystems/tripmcp/pkg/coords"
	"github.com/NERVsystems/tripmcp/pkg/core"
	"github.com/NERVsystems/tripmcp/pkg/geo"
	"github.com/NERVsystems/tripmcp/pkg/trip"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	DefaultNearbyRadiusKm = 5.0
	MaxNearbyRadiusKm     = 100.0
	DefaultNearbyLimit    = 10
)

type CitySummary struct {
	Name      string `json:"name"`
	Locations int    `json:"location_count"`
}

type ListCitiesOutput struct {
	Cities []CitySummary `json:"cities"`
}

func (r *Registry) HandleListCities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "list_cities")

	out := ListCitiesOutput{Cities: []CitySummary{}}
	for _, city := range r.catalog.Cities() {
		out.Cities = append(out.Cities, CitySummary{
			Name:      city,
			Locations: len(r.catalog.LocationsByCity(city)),
		})
	}
	return JSONResult(logger, out), nil
}

func ListLocationsTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("city",
			mcp.Description("City name, case-insensitive"),
		),
		mcp.WithString("type",
			mcp.Description("Location type"),
			mcp.Enum(
				string(catalog.KindAirport),
				string(catalog.KindTrainStation),
				string(catalog.KindBusStation),
				string(catalog.KindMetroStation),
				string(catalog.KindLandmark),
			),
		),
		mcp.WithString("query",
			mcp.Description("Case-insensitive text matched against name, city and id"),
		),
	)
}

type ListLocationsInput struct {
	City  string `json:"city"`
	Type  string `json:"type"`
	Query string `json:"query"`
}

type ListLocationsOutput struct {
	Count     int                `json:"count"`
	Locations []catalog.Location `json:"locations"`
}

func (r *Registry) HandleListLocations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("list_locations", func(ctx context.Context, in ListLocationsInput, logger *slog.Logger) (any, error) {
		kind := catalog.Kind(strings.ToLower(strings.TrimSpace(in.Type)))
		if kind != "" && !kind.Valid() {
			return nil, core.NewValidationError(core.ErrInvalidParameter, fmt.Sprintf("unknown location type %q", in.Type)).
				WithSuggestions(string(catalog.KindAirport), string(catalog.KindTrainStation), string(catalog.KindLandmark))
		}

		locations := r.catalog.Search(in.Query)
		if city := strings.TrimSpace(in.City); city != "" {
			locations = slices.DeleteFunc(locations, func(l catalog.Location) bool {
				return !strings.EqualFold(l.City, city)
			})
			if len(r.catalog.LocationsByCity(city)) == 0 {
				return nil, core.NewError(core.ErrNoResults, fmt.Sprintf("no locations in %q", city)).
					WithQuery(city).
					WithSuggestions(r.catalog.Cities()...)
			}
		}
		if kind != "" {
			locations = slices.DeleteFunc(locations, func(l catalog.Location) bool { return l.Kind != kind })
		}

		if locations == nil {
			locations = []catalog.Location{}
		}
		return ListLocationsOutput{Count: len(locations), Locations: locations}, nil
	})(ctx, req)
}

func GetLocationTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Location id, e.g. lon-stp"),
		),
	)
}

type GetLocationInput struct {
	ID string `json:"id" validate:"required"`
}

// CityNeighbor is another location of the same city and how far it is
type CityNeighbor struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distance_km"`
}

type LocationDetail struct {
	catalog.Location
	MGRS      string         `json:"mgrs,omitempty"`
	Neighbors []CityNeighbor `json:"neighbors"`
}

func (r *Registry) HandleGetLocation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("get_location", func(ctx context.Context, in GetLocationInput, logger *slog.Logger) (any, error) {
		loc, ok := r.catalog.LocationByID(strings.TrimSpace(in.ID))
		if !ok {
			return nil, fmt.Errorf("location %q: %w", in.ID, trip.ErrLocationNotFound)
		}

		detail := LocationDetail{Location: loc, Neighbors: []CityNeighbor{}}
		if grid, err := coords.ToMGRS(loc.Coordinates, 5); err == nil {
			detail.MGRS = grid
		} else {
			logger.Warn("MGRS conversion failed", "id", loc.ID, "error", err)
		}

		for _, other := range r.catalog.LocationsByCity(loc.City) {
			if other.ID == loc.ID {
				continue
			}
			detail.Neighbors = append(detail.Neighbors, CityNeighbor{
				ID:         other.ID,
				Name:       other.Name,
				DistanceKm: geo.DistanceKm(loc.Coordinates, other.Coordinates),
			})
		}
		slices.SortStableFunc(detail.Neighbors, func(a, b CityNeighbor) int {
			switch {
			case a.DistanceKm < b.DistanceKm:
				return -1
			case a.DistanceKm > b.DistanceKm:
				return 1
			}
			return 0
		})

		return detail, nil
	})(ctx, req)
}

type ListTransportModesOutput struct {
	Modes []trip.ModeInfo `json:"modes"`
}

func (r *Registry) HandleListTransportModes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "list_transport_modes")
	return JSONResult(logger, ListTransportModesOutput{Modes: trip.DescribeModes(r.catalog)}), nil
}

type NearbyOutput struct {
	Center    coords.Position          `json:"center"`
	RadiusKm  float64                  `json:"radius_km"`
	Count     int                      `json:"count"`
	Locations []catalog.NearbyLocation `json:"locations"`
}

// HandleFindNearbyLocations accepts either a position string or latitude/longitude
func (r *Registry) HandleFindNearbyLocations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "find_nearby_locations")

	var center coords.Position
	if position := req.GetString("position", ""); position != "" {
		pos, err := coords.Resolve(position, r.catalog)
		if err != nil {
			return withExample(core.NewValidationError(core.ErrInvalidParameter, err.Error()).WithQuery(position), "find_nearby_locations"), nil
		}
		center = pos
	} else {
		lat, lon, err := core.ParseCoords(req, "latitude", "longitude")
		if err != nil {
			return ToolError(err), nil
		}
		center = coords.Position{Location: geo.Location{Latitude: lat, Longitude: lon}, Format: coords.FormatDecimal}
	}

	radius, err := core.ParseRadius(req, "radius_km", DefaultNearbyRadiusKm, MaxNearbyRadiusKm)
	if err != nil {
		return ToolError(err), nil
	}
	limit := mcp.ParseInt(req, "limit", DefaultNearbyLimit)
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}

	found := r.catalog.Nearby(center.Location, radius, limit)
	if found == nil {
		found = []catalog.NearbyLocation{}
	}
	logger.Debug("nearby search", "lat", center.Latitude, "lon", center.Longitude, "radius_km", radius, "found", len(found))

	return JSONResult(logger, NearbyOutput{
		Center:    center,
		RadiusKm:  radius,
		Count:     len(found),
		Locations: found,
	}), nil
}
