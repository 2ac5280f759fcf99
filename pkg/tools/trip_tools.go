package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NERVsystems/tripmcp/pkg/cache"
	"github.com/NERVsystems/tripmcp/pkg/catalog"
	"github.com/NERVsystems/tripmcp/pkg/core"
	"github.com/NERVsystems/tripmcp/pkg/geo"
	"github.com/NERVsystems/tripmcp/pkg/monitoring"
	"github.com/NERVsystems/tripmcp/pkg/tracing"
	"github.com/NERVsystems/tripmcp/pkg/trip"
	"github.com/mark3labs/mcp-go/mcp"
)

// RefineParams are the filter and sort arguments shared by search_routes and refine_routes.
// A nil Modes keeps every mode; an empty list keeps none.
type RefineParams struct {
	SortBy      string   `json:"sort_by" validate:"omitempty,sortkey"`
	MaxPrice    *float64 `json:"max_price" validate:"omitempty,gte=0"`
	MaxDuration *int     `json:"max_duration" validate:"omitempty,gte=0"`
	Modes       []string `json:"modes"`
}

// Filter builds a trip.Filter; all is the mode list used when Modes is nil
func (p RefineParams) Filter(all []trip.Route) trip.Filter {
	f := trip.DefaultFilter(all)
	if p.Modes != nil {
		f.Modes = make([]string, 0, len(p.Modes))
		for _, m := range p.Modes {
			f.Modes = append(f.Modes, strings.TrimSpace(m))
		}
	}
	f.MaxPrice = p.MaxPrice
	f.MaxDuration = p.MaxDuration
	return f
}

// IsDefault reports whether the params leave the stored view untouched
func (p RefineParams) IsDefault() bool {
	return p.SortBy == "" && p.MaxPrice == nil && p.MaxDuration == nil && p.Modes == nil
}

type SearchRoutesInput struct {
	From          string `json:"from" validate:"required"`
	To            string `json:"to" validate:"required"`
	DepartureTime string `json:"departure_time" validate:"omitempty,clock"`
	RefineParams
}

type RefineRoutesInput struct {
	SearchID string `json:"search_id" validate:"required"`
	SortBy   string `json:"sort_by" validate:"required,sortkey"`
	RefineParams
}

type GetSearchInput struct {
	SearchID string `json:"search_id" validate:"required"`
}

// RouteView is a route with the labels a trip card shows
type RouteView struct {
	trip.Route
	ModeName       string        `json:"mode_name"`
	ModeIcon       string        `json:"mode_icon"`
	PriceLabel     string        `json:"price_label"`
	DepartureLabel string        `json:"departure_label"`
	ArrivalLabel   string        `json:"arrival_label"`
	CO2Level       trip.CO2Level `json:"co2_level"`
	Geometry       string        `json:"geometry,omitempty"`
}

// SearchView is the stored search as returned by the trip tools
type SearchView struct {
	SearchID      string           `json:"search_id"`
	From          catalog.Location `json:"from"`
	To            catalog.Location `json:"to"`
	DepartureTime string           `json:"departure_time"`
	DistanceKm    float64          `json:"distance_km"`
	ExpiresAt     time.Time        `json:"expires_at"`

	Revision uint64       `json:"revision"`
	SortBy   trip.SortKey `json:"sort_by"`
	Filter   trip.Filter  `json:"filter"`
	Total    int          `json:"total"`
	Count    int          `json:"count"`
	Routes   []RouteView  `json:"routes"`
}

// GetSearchOutput pairs the current view with the full unfiltered set
type GetSearchOutput struct {
	SearchView
	AllRoutes []RouteView `json:"all_routes"`
}

// routeViews decorates routes. Every route of one search shares origin and destination.
func (r *Registry) routeViews(routes []trip.Route) []RouteView {
	views := make([]RouteView, 0, len(routes))
	geometry := map[[2]string]string{}

	for _, rt := range routes {
		v := RouteView{
			Route:      rt,
			ModeName:   rt.ModeID,
			PriceLabel: trip.PriceLabel(rt.Price),
			CO2Level:   trip.EmissionLevel(rt.CO2Kg),
		}
		if m, ok := r.catalog.TransportModeByID(rt.ModeID); ok {
			v.ModeName, v.ModeIcon = m.Name, m.Icon
		}
		v.DepartureLabel, _ = trip.FormatClock12(rt.DepartureTime)
		v.ArrivalLabel, _ = trip.FormatClock12(rt.ArrivalTime)

		key := [2]string{rt.OriginID, rt.DestinationID}
		g, seen := geometry[key]
		if !seen {
			from, okFrom := r.catalog.LocationByID(rt.OriginID)
			to, okTo := r.catalog.LocationByID(rt.DestinationID)
			if okFrom && okTo {
				g = core.LegGeometry(from.Coordinates, to.Coordinates)
			}
			geometry[key] = g
		}
		v.Geometry = g

		views = append(views, v)
	}
	return views
}

// SearchView builds the view of a refinement of search
func (r *Registry) SearchView(search *cache.Search, ref cache.Refinement) SearchView {
	from, _ := r.catalog.LocationByID(search.Request.OriginID)
	to, _ := r.catalog.LocationByID(search.Request.DestinationID)

	return SearchView{
		SearchID:      search.ID,
		From:          from,
		To:            to,
		DepartureTime: search.Request.Departure,
		DistanceKm:    geo.DistanceKm(from.Coordinates, to.Coordinates),
		ExpiresAt:     search.CreatedAt.Add(r.store.TTL()),
		Revision:      ref.Revision,
		SortBy:        ref.SortKey,
		Filter:        ref.Filter,
		Total:         ref.Total,
		Count:         len(ref.Routes),
		Routes:        r.routeViews(ref.Routes),
	}
}

// Search synthesizes routes, stores them and applies the optional refinement.
// It backs search_routes and the REST search endpoint.
func (r *Registry) Search(ctx context.Context, in SearchRoutesInput) (SearchView, error) {
	departure := in.DepartureTime
	if departure == "" {
		departure = r.defaultDeparture
	}

	city := ""
	if origin, ok := r.catalog.LocationByID(in.From); ok {
		city = origin.City
	}

	routes, err := r.synth.Synthesize(in.From, in.To, departure)
	if err != nil {
		monitoring.RecordSearch(city, nil, false)
		tracing.RecordError(ctx, err)
		return SearchView{}, err
	}

	modes := make([]string, len(routes))
	for i, rt := range routes {
		modes[i] = rt.ModeID
	}
	monitoring.RecordSearch(city, modes, true)
	tracing.SetAttributes(ctx, tracing.SearchAttributes(in.From, in.To, departure, len(routes))...)

	search := r.store.Put(cache.SearchRequest{
		OriginID:      in.From,
		DestinationID: in.To,
		Departure:     departure,
	}, routes)

	ref := search.Current()
	if !in.RefineParams.IsDefault() {
		key, err := trip.ParseSortKey(in.SortBy)
		if err != nil {
			return SearchView{}, err
		}
		ref, err = r.store.Refine(search.ID, in.RefineParams.Filter(routes), key)
		if err != nil {
			return SearchView{}, err
		}
	}

	slog.Default().Debug("search stored", "search_id", search.ID, "routes", len(routes), "shown", len(ref.Routes))
	return r.SearchView(search, ref), nil
}

// Refine applies a refinement to a stored search.
// It backs refine_routes and the REST refine endpoint.
func (r *Registry) Refine(ctx context.Context, in RefineRoutesInput) (SearchView, error) {
	key, err := trip.ParseSortKey(in.SortBy)
	if err != nil {
		return SearchView{}, err
	}

	search, err := r.store.Get(in.SearchID)
	if err != nil {
		return SearchView{}, err
	}

	ref, err := r.store.Refine(search.ID, in.RefineParams.Filter(search.Routes()), key)
	if err != nil {
		return SearchView{}, err
	}
	tracing.SetAttributes(ctx, tracing.RefineAttributes(search.ID, string(key), len(ref.Routes))...)

	return r.SearchView(search, ref), nil
}

// LookupSearch returns the current view and the full route set of a stored search
func (r *Registry) LookupSearch(id string) (GetSearchOutput, error) {
	search, err := r.store.Get(id)
	if err != nil {
		return GetSearchOutput{}, err
	}
	return GetSearchOutput{
		SearchView: r.SearchView(search, search.Current()),
		AllRoutes:  r.routeViews(search.Routes()),
	}, nil
}

func (r *Registry) HandleSearchRoutes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("search_routes", func(ctx context.Context, in SearchRoutesInput, logger *slog.Logger) (any, error) {
		in.From, in.To = strings.TrimSpace(in.From), strings.TrimSpace(in.To)
		view, err := r.Search(ctx, in)
		if err != nil {
			return nil, err
		}
		logger.Info("routes synthesized",
			"from", in.From,
			"to", in.To,
			"search_id", view.SearchID,
			"routes", view.Total,
		)
		return view, nil
	})(ctx, req)
}

func (r *Registry) HandleRefineRoutes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("refine_routes", func(ctx context.Context, in RefineRoutesInput, logger *slog.Logger) (any, error) {
		view, err := r.Refine(ctx, in)
		if err != nil {
			return nil, err
		}
		logger.Debug("routes refined", "search_id", view.SearchID, "revision", view.Revision, "count", view.Count)
		return view, nil
	})(ctx, req)
}

func GetSearchTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("search_id",
			mcp.Required(),
			mcp.Description("The search_id returned by search_routes"),
		),
	)
}

func (r *Registry) HandleGetSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("get_search", func(ctx context.Context, in GetSearchInput, logger *slog.Logger) (any, error) {
		out, err := r.LookupSearch(in.SearchID)
		if err != nil {
			return nil, fmt.Errorf("get_search: %w", err)
		}
		return out, nil
	})(ctx, req)
}
