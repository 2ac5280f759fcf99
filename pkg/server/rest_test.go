package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NERVsystems/tripmcp/pkg/tools"
)

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func getJSON(t *testing.T, h http.Handler, method, target, body string, out any) int {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := serve(h, req)
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: body is not JSON: %s", method, target, rec.Body.String())
		}
	}
	return rec.Code
}

func TestRESTLookups(t *testing.T) {
	h := newTestTransport(t, HTTPTransportConfig{}).Handler()

	var cities tools.ListCitiesOutput
	if code := getJSON(t, h, http.MethodGet, "/api/cities", "", &cities); code != http.StatusOK || len(cities.Cities) != 3 {
		t.Errorf("cities: %d %+v", code, cities)
	}

	var london tools.ListLocationsOutput
	if code := getJSON(t, h, http.MethodGet, "/api/cities/London/locations?type=airport", "", &london); code != http.StatusOK || london.Count != 2 {
		t.Errorf("london airports: %d %+v", code, london)
	}

	var detail tools.LocationDetail
	if code := getJSON(t, h, http.MethodGet, "/api/locations/nyc-ts", "", &detail); code != http.StatusOK || detail.Name != "Times Square" {
		t.Errorf("location: %d %+v", code, detail)
	}

	var nearby tools.NearbyOutput
	if code := getJSON(t, h, http.MethodGet, "/api/nearby?position=nyc-ts&radius_km=2", "", &nearby); code != http.StatusOK || nearby.Count != 3 {
		t.Errorf("nearby: %d %+v", code, nearby)
	}

	var dist tools.GeoDistanceOutput
	if code := getJSON(t, h, http.MethodGet, "/api/distance?from=nyc-jfk&to=nyc-ts", "", &dist); code != http.StatusOK || dist.DistanceKm != 21.8 {
		t.Errorf("distance: %d %+v", code, dist)
	}

	var estimate tools.ModeEstimate
	if code := getJSON(t, h, http.MethodGet, "/api/modes/subway/estimate?distance_km=21.8", "", &estimate); code != http.StatusOK || estimate.MinDuration != 42 {
		t.Errorf("estimate: %d %+v", code, estimate)
	}

	var modes tools.ListTransportModesOutput
	if code := getJSON(t, h, http.MethodGet, "/api/modes", "", &modes); code != http.StatusOK || len(modes.Modes) != 11 {
		t.Errorf("modes: %d, %d modes", code, len(modes.Modes))
	}
}

func TestRESTLookupErrors(t *testing.T) {
	h := newTestTransport(t, HTTPTransportConfig{}).Handler()

	tests := []struct {
		target string
		status int
		code   string
	}{
		{"/api/locations/par-cdg", http.StatusNotFound, "LOCATION_NOT_FOUND"},
		{"/api/cities/Paris/locations", http.StatusNotFound, "NO_RESULTS"},
		{"/api/nearby?position=nyc-ts&radius_km=far", http.StatusBadRequest, "INVALID_PARAMETER"},
		{"/api/nearby?position=nyc-ts&radius_km=500", http.StatusBadRequest, "RADIUS_TOO_LARGE"},
		{"/api/modes/hovercraft/estimate?distance_km=2", http.StatusNotFound, "MODE_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			var body apiError
			code := getJSON(t, h, http.MethodGet, tt.target, "", &body)
			if code != tt.status || body.Error.Code != tt.code {
				t.Errorf("got %d %s, want %d %s", code, body.Error.Code, tt.status, tt.code)
			}
		})
	}
}

func TestRESTSearchLifecycle(t *testing.T) {
	h := newTestTransport(t, HTTPTransportConfig{}).Handler()

	var search tools.SearchView
	code := getJSON(t, h, http.MethodGet, "/api/routes?from=nyc-jfk&to=nyc-ts&departure_time=08:15", "", &search)
	if code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", code)
	}
	if search.Total != 11 || search.Routes[0].ModeID != "train" || search.Routes[0].ArrivalTime != "08:42" {
		t.Fatalf("unexpected search %+v", search)
	}

	var refined tools.SearchView
	code = getJSON(t, h, http.MethodPost, "/api/routes/"+search.SearchID+"/refine", `{"sort_by":"price","max_price":3}`, &refined)
	if code != http.StatusOK {
		t.Fatalf("refine: expected 200, got %d", code)
	}
	if refined.Count != 4 || refined.Routes[0].ModeID != "walk" {
		t.Errorf("unexpected refinement %+v", refined)
	}

	var stored tools.GetSearchOutput
	if code := getJSON(t, h, http.MethodGet, "/api/routes/"+search.SearchID, "", &stored); code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", code)
	}
	if stored.Count != 4 || len(stored.AllRoutes) != 11 || stored.SortBy != "price" {
		t.Errorf("stored search should reflect the refinement: count %d, all %d, sort %s",
			stored.Count, len(stored.AllRoutes), stored.SortBy)
	}
}

func TestRESTSearchFilters(t *testing.T) {
	h := newTestTransport(t, HTTPTransportConfig{}).Handler()

	var view tools.SearchView
	getJSON(t, h, http.MethodGet, "/api/routes?from=nyc-jfk&to=nyc-ts&sort_by=price&modes=subway,taxi,walk&max_duration=60", "", &view)
	if view.Count != 2 || view.Routes[0].ModeID != "subway" || view.Routes[1].ModeID != "taxi" {
		t.Errorf("unexpected filtered view %+v", view.Routes)
	}

	getJSON(t, h, http.MethodGet, "/api/routes?from=nyc-jfk&to=nyc-ts&time=23:30&sort=arrival&modes=subway", "", &view)
	if view.DepartureTime != "23:30" || view.SortBy != "arrivalTime" || view.Routes[0].ArrivalTime != "00:12" {
		t.Errorf("short aliases not applied: %s %s %+v", view.DepartureTime, view.SortBy, view.Routes)
	}

	getJSON(t, h, http.MethodGet, "/api/routes?from=nyc-jfk&to=nyc-ts&modes=", "", &view)
	if view.Count != 0 || view.Total != 11 {
		t.Errorf("empty modes should keep nothing: count %d of %d", view.Count, view.Total)
	}
}

func TestRESTSearchErrors(t *testing.T) {
	h := newTestTransport(t, HTTPTransportConfig{}).Handler()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
		code   string
	}{
		{"unknown origin", http.MethodGet, "/api/routes?from=par-cdg&to=nyc-ts", "", http.StatusNotFound, "LOCATION_NOT_FOUND"},
		{"bad departure", http.MethodGet, "/api/routes?from=nyc-jfk&to=nyc-ts&departure_time=25:00", "", http.StatusBadRequest, "INVALID_TIME"},
		{"missing destination", http.MethodGet, "/api/routes?from=nyc-jfk", "", http.StatusBadRequest, "MISSING_PARAMETER"},
		{"bad price", http.MethodGet, "/api/routes?from=nyc-jfk&to=nyc-ts&max_price=cheap", "", http.StatusBadRequest, "INVALID_PARAMETER"},
		{"bad sort key", http.MethodGet, "/api/routes?from=nyc-jfk&to=nyc-ts&sort_by=cheapest", "", http.StatusBadRequest, "INVALID_SORT_KEY"},
		{"unknown search", http.MethodGet, "/api/routes/does-not-exist", "", http.StatusNotFound, "SEARCH_NOT_FOUND"},
		{"refine unknown search", http.MethodPost, "/api/routes/does-not-exist/refine", `{"sort_by":"price"}`, http.StatusNotFound, "SEARCH_NOT_FOUND"},
		{"refine bad json", http.MethodPost, "/api/routes/x/refine", `{"sort_by":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"refine unknown field", http.MethodPost, "/api/routes/x/refine", `{"sort_by":"price","colour":"red"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"refine without sort", http.MethodPost, "/api/routes/x/refine", `{}`, http.StatusBadRequest, "MISSING_PARAMETER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body apiError
			code := getJSON(t, h, tt.method, tt.target, tt.body, &body)
			if code != tt.status || body.Error.Code != tt.code {
				t.Errorf("got %d %s (%s), want %d %s", code, body.Error.Code, body.Error.Message, tt.status, tt.code)
			}
		})
	}
}
