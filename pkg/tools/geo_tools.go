package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NERVsystems/tripmcp/pkg/coords"
	"github.com/NERVsystems/tripmcp/pkg/core"
	"github.com/NERVsystems/tripmcp/pkg/geo"
	"github.com/NERVsystems/tripmcp/pkg/trip"
	"github.com/mark3labs/mcp-go/mcp"
)

func GeoDistanceTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("Starting position: location id, \"lat, lon\", DMS or MGRS"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Ending position: location id, \"lat, lon\", DMS or MGRS"),
		),
	)
}

type GeoDistanceInput struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

type GeoDistanceOutput struct {
	From       coords.Position `json:"from"`
	To         coords.Position `json:"to"`
	DistanceKm float64         `json:"distance_km"`
	DistanceM  float64         `json:"distance_m"`
}

// resolveEndpoints turns two position strings into points, naming the bad one on failure
func (r *Registry) resolveEndpoints(from, to string) (coords.Position, coords.Position, error) {
	a, err := coords.Resolve(from, r.catalog)
	if err != nil {
		return coords.Position{}, coords.Position{}, core.NewValidationError(core.ErrInvalidParameter, fmt.Sprintf("from: %v", err)).WithQuery(from)
	}
	b, err := coords.Resolve(to, r.catalog)
	if err != nil {
		return coords.Position{}, coords.Position{}, core.NewValidationError(core.ErrInvalidParameter, fmt.Sprintf("to: %v", err)).WithQuery(to)
	}
	return a, b, nil
}

func (r *Registry) HandleGeoDistance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("geo_distance", func(ctx context.Context, in GeoDistanceInput, logger *slog.Logger) (any, error) {
		from, to, err := r.resolveEndpoints(in.From, in.To)
		if err != nil {
			return nil, err
		}
		return GeoDistanceOutput{
			From:       from,
			To:         to,
			DistanceKm: geo.DistanceKm(from.Location, to.Location),
			DistanceM:  geo.Round(geo.HaversineDistance(from.Latitude, from.Longitude, to.Latitude, to.Longitude), 0),
		}, nil
	})(ctx, req)
}

func EstimateModeTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("mode",
			mcp.Required(),
			mcp.Description("Transport mode id, e.g. subway"),
		),
		mcp.WithNumber("distance_km",
			mcp.Description("Distance to estimate for. Required unless from and to are given"),
			mcp.Min(0),
		),
		mcp.WithString("from",
			mcp.Description("Starting position, used when distance_km is omitted"),
		),
		mcp.WithString("to",
			mcp.Description("Ending position, used when distance_km is omitted"),
		),
	)
}

type EstimateModeInput struct {
	Mode       string   `json:"mode" validate:"required"`
	DistanceKm *float64 `json:"distance_km" validate:"omitempty,gte=0"`
	From       string   `json:"from"`
	To         string   `json:"to"`
}

// ModeEstimate brackets the duration by the shortest and longest scheduled wait
type ModeEstimate struct {
	Mode            string        `json:"mode"`
	Name            string        `json:"name"`
	Icon            string        `json:"icon"`
	DistanceKm      float64       `json:"distance_km"`
	MinDuration     int           `json:"min_duration_minutes"`
	MaxDuration     int           `json:"max_duration_minutes"`
	Price           float64       `json:"price"`
	PriceLabel      string        `json:"price_label"`
	CO2Kg           float64       `json:"co2_kg"`
	CO2Level        trip.CO2Level `json:"co2_level"`
	Scheduled       bool          `json:"scheduled"`
	UsesDefaultRate bool          `json:"uses_default_parameters,omitempty"`
}

func (r *Registry) HandleEstimateMode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("estimate_mode", func(ctx context.Context, in EstimateModeInput, logger *slog.Logger) (any, error) {
		mode := strings.TrimSpace(in.Mode)
		info, err := trip.DescribeMode(r.catalog, mode)
		if err != nil {
			return nil, err
		}

		var distance float64
		switch {
		case in.DistanceKm != nil:
			distance = geo.Round(*in.DistanceKm, 1)
		case in.From != "" && in.To != "":
			from, to, err := r.resolveEndpoints(in.From, in.To)
			if err != nil {
				return nil, err
			}
			distance = geo.DistanceKm(from.Location, to.Location)
		default:
			return nil, core.NewValidationError(core.ErrMissingParameter, "either distance_km or both from and to are required")
		}

		_, known := trip.Parameters(mode)
		price := trip.Price(distance, mode)
		co2 := trip.Emissions(distance, mode)

		return ModeEstimate{
			Mode:            mode,
			Name:            info.Name,
			Icon:            info.Icon,
			DistanceKm:      distance,
			MinDuration:     trip.Duration(distance, mode, trip.FixedWait(trip.MinWait)),
			MaxDuration:     trip.Duration(distance, mode, trip.FixedWait(trip.MaxWait)),
			Price:           price,
			PriceLabel:      trip.PriceLabel(price),
			CO2Kg:           co2,
			CO2Level:        trip.EmissionLevel(co2),
			Scheduled:       info.Parameters.Scheduled,
			UsesDefaultRate: !known,
		}, nil
	})(ctx, req)
}
