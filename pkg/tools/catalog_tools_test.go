package tools

import (
	"context"
	"strings"
	"testing"
)

func TestHandleListCities(t *testing.T) {
	r := newTestRegistry(t)

	result, err := r.HandleListCities(context.Background(), NewRequest("list_cities", nil))
	if err != nil {
		t.Fatal(err)
	}
	AssertSuccessResult(t, result, "list_cities should succeed")

	var out ListCitiesOutput
	if err := ParseResultJSON(result, &out); err != nil {
		t.Fatal(err)
	}
	want := []CitySummary{{"New York", 7}, {"San Francisco", 5}, {"London", 6}}
	if len(out.Cities) != len(want) {
		t.Fatalf("got %v, want %v", out.Cities, want)
	}
	for i := range want {
		if out.Cities[i] != want[i] {
			t.Errorf("city %d = %+v, want %+v", i, out.Cities[i], want[i])
		}
	}
}

func TestHandleListLocations(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name    string
		args    map[string]any
		wantIDs []string
		errCode string
	}{
		{name: "no filter", args: nil},
		{name: "city and type", args: map[string]any{"city": "london", "type": "train_station"}, wantIDs: []string{"lon-stp", "lon-vic"}},
		{name: "query", args: map[string]any{"query": "airport", "city": "San Francisco"}, wantIDs: []string{"sf-sfo", "sf-oak", "sf-sjc"}},
		{name: "no match", args: map[string]any{"city": "New York", "query": "bridge"}, wantIDs: []string{}},
		{name: "unknown city", args: map[string]any{"city": "Paris"}, errCode: "NO_RESULTS"},
		{name: "unknown type", args: map[string]any{"type": "harbor"}, errCode: "INVALID_PARAMETER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.HandleListLocations(context.Background(), NewRequest("list_locations", tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if tt.errCode != "" {
				AssertErrorCode(t, result, tt.errCode)
				return
			}
			AssertSuccessResult(t, result, "list_locations should succeed")

			var out ListLocationsOutput
			if err := ParseResultJSON(result, &out); err != nil {
				t.Fatal(err)
			}
			if tt.wantIDs == nil {
				if out.Count != 18 {
					t.Errorf("unfiltered count = %d, want 18", out.Count)
				}
				return
			}
			if out.Count != len(tt.wantIDs) {
				t.Fatalf("count = %d, want %d", out.Count, len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if out.Locations[i].ID != id {
					t.Errorf("location %d = %s, want %s", i, out.Locations[i].ID, id)
				}
			}
		})
	}
}

func TestHandleGetLocation(t *testing.T) {
	r := newTestRegistry(t)

	result, err := r.HandleGetLocation(context.Background(), NewRequest("get_location", map[string]any{"id": "nyc-ts"}))
	if err != nil {
		t.Fatal(err)
	}
	AssertSuccessResult(t, result, "get_location should succeed")

	var out LocationDetail
	if err := ParseResultJSON(result, &out); err != nil {
		t.Fatal(err)
	}
	if out.Name != "Times Square" || out.City != "New York" {
		t.Errorf("unexpected location %+v", out.Location)
	}
	if !strings.HasPrefix(out.MGRS, "18T") {
		t.Errorf("MGRS = %q, want zone 18T", out.MGRS)
	}
	if len(out.Neighbors) != 6 {
		t.Fatalf("got %d neighbors, want 6", len(out.Neighbors))
	}
	if out.Neighbors[0].ID != "nyc-gct" || out.Neighbors[0].DistanceKm != 0.9 {
		t.Errorf("closest neighbor = %+v, want nyc-gct at 0.9 km", out.Neighbors[0])
	}
	if out.Neighbors[1].ID != "nyc-ps" || out.Neighbors[1].DistanceKm != 1.1 {
		t.Errorf("second neighbor = %+v, want nyc-ps at 1.1 km", out.Neighbors[1])
	}

	result, _ = r.HandleGetLocation(context.Background(), NewRequest("get_location", map[string]any{"id": "par-cdg"}))
	AssertErrorCode(t, result, "LOCATION_NOT_FOUND")

	result, _ = r.HandleGetLocation(context.Background(), NewRequest("get_location", nil))
	AssertErrorCode(t, result, "MISSING_PARAMETER")
}

func TestHandleListTransportModes(t *testing.T) {
	r := newTestRegistry(t)

	result, err := r.HandleListTransportModes(context.Background(), NewRequest("list_transport_modes", nil))
	if err != nil {
		t.Fatal(err)
	}

	var out struct {
		Modes []struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			Parameters struct {
				SpeedKmh  float64 `json:"speed_kmh"`
				Scheduled bool    `json:"scheduled"`
			} `json:"parameters"`
		} `json:"modes"`
	}
	if err := ParseResultJSON(result, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Modes) != 11 {
		t.Fatalf("got %d modes, want 11", len(out.Modes))
	}
	if out.Modes[0].ID != "taxi" || out.Modes[0].Parameters.SpeedKmh != 30 {
		t.Errorf("unexpected first mode %+v", out.Modes[0])
	}
	if out.Modes[3].ID != "subway" || !out.Modes[3].Parameters.Scheduled {
		t.Errorf("subway should be scheduled: %+v", out.Modes[3])
	}
}

func TestHandleFindNearbyLocations(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name    string
		args    map[string]any
		wantIDs []string
		errCode string
	}{
		{
			name:    "location id",
			args:    map[string]any{"position": "nyc-ts", "radius_km": 2},
			wantIDs: []string{"nyc-ts", "nyc-gct", "nyc-ps"},
		},
		{
			name:    "latitude and longitude",
			args:    map[string]any{"latitude": 40.758, "longitude": -73.9855, "radius_km": 2},
			wantIDs: []string{"nyc-ts", "nyc-gct", "nyc-ps"},
		},
		{
			name:    "dms with limit",
			args:    map[string]any{"position": `40°45'28.8"N 73°59'7.8"W`, "radius_km": 5, "limit": 2},
			wantIDs: []string{"nyc-ts", "nyc-gct"},
		},
		{
			name:    "nothing in range",
			args:    map[string]any{"position": "0, 0", "radius_km": 1},
			wantIDs: []string{},
		},
		{name: "radius too large", args: map[string]any{"position": "nyc-ts", "radius_km": 500}, errCode: "RADIUS_TOO_LARGE"},
		{name: "bad position", args: map[string]any{"position": "downtown"}, errCode: "INVALID_PARAMETER"},
		{name: "bad latitude", args: map[string]any{"latitude": 95, "longitude": 0}, errCode: "INVALID_LATITUDE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.HandleFindNearbyLocations(context.Background(), NewRequest("find_nearby_locations", tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if tt.errCode != "" {
				AssertErrorCode(t, result, tt.errCode)
				return
			}
			AssertSuccessResult(t, result, "find_nearby_locations should succeed")

			var out NearbyOutput
			if err := ParseResultJSON(result, &out); err != nil {
				t.Fatal(err)
			}
			if out.Count != len(tt.wantIDs) {
				t.Fatalf("count = %d, want %d", out.Count, len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if out.Locations[i].ID != id {
					t.Errorf("location %d = %s, want %s", i, out.Locations[i].ID, id)
				}
			}
		})
	}
}
