package tools

import (
	"context"
	"testing"

	"github.com/NERVsystems/tripmcp/pkg/coords"
)

func TestHandleGeoDistance(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name    string
		from    string
		to      string
		wantKm  float64
		errCode string
	}{
		{name: "location ids", from: "nyc-jfk", to: "nyc-ts", wantKm: 21.8},
		{name: "id and decimal", from: "nyc-ts", to: "40.7527, -73.9772", wantKm: 0.9},
		{name: "same point", from: "lon-eye", to: "lon-eye", wantKm: 0},
		{name: "bad from", from: "somewhere", to: "nyc-ts", errCode: "INVALID_PARAMETER"},
		{name: "missing to", from: "nyc-ts", errCode: "MISSING_PARAMETER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]any{"from": tt.from}
			if tt.to != "" {
				args["to"] = tt.to
			}
			result, err := r.HandleGeoDistance(context.Background(), NewRequest("geo_distance", args))
			if err != nil {
				t.Fatal(err)
			}
			if tt.errCode != "" {
				AssertErrorCode(t, result, tt.errCode)
				return
			}
			AssertSuccessResult(t, result, "geo_distance should succeed")

			var out GeoDistanceOutput
			if err := ParseResultJSON(result, &out); err != nil {
				t.Fatal(err)
			}
			if out.DistanceKm != tt.wantKm {
				t.Errorf("distance = %v km, want %v", out.DistanceKm, tt.wantKm)
			}
		})
	}
}

func TestGeoDistanceReportsFormats(t *testing.T) {
	r := newTestRegistry(t)

	result, _ := r.HandleGeoDistance(context.Background(), NewRequest("geo_distance", map[string]any{
		"from": "nyc-jfk",
		"to":   "40.758, -73.9855",
	}))
	AssertSuccessResult(t, result, "geo_distance should succeed")

	var out GeoDistanceOutput
	if err := ParseResultJSON(result, &out); err != nil {
		t.Fatal(err)
	}
	if out.From.Format != coords.FormatLocation || out.From.LocationID != "nyc-jfk" {
		t.Errorf("from = %+v, want catalog location", out.From)
	}
	if out.To.Format != coords.FormatDecimal {
		t.Errorf("to format = %s, want decimal", out.To.Format)
	}
	if out.DistanceM < 21700 || out.DistanceM > 21900 {
		t.Errorf("distance_m = %v, want about 21800", out.DistanceM)
	}
}

func TestHandleEstimateMode(t *testing.T) {
	r := newTestRegistry(t)

	t.Run("scheduled between locations", func(t *testing.T) {
		result, _ := r.HandleEstimateMode(context.Background(), NewRequest("estimate_mode", map[string]any{
			"mode": "subway",
			"from": "nyc-jfk",
			"to":   "nyc-ts",
		}))
		AssertSuccessResult(t, result, "estimate_mode should succeed")

		var out ModeEstimate
		if err := ParseResultJSON(result, &out); err != nil {
			t.Fatal(err)
		}
		if out.DistanceKm != 21.8 {
			t.Errorf("distance = %v, want 21.8", out.DistanceKm)
		}
		if out.MinDuration != 42 || out.MaxDuration != 51 {
			t.Errorf("duration range = %d..%d, want 42..51", out.MinDuration, out.MaxDuration)
		}
		if out.PriceLabel != "$2.75" || !out.Scheduled {
			t.Errorf("unexpected estimate %+v", out)
		}
	})

	t.Run("walking distance", func(t *testing.T) {
		result, _ := r.HandleEstimateMode(context.Background(), NewRequest("estimate_mode", map[string]any{
			"mode":        "walk",
			"distance_km": 3,
		}))
		AssertSuccessResult(t, result, "estimate_mode should succeed")

		var out ModeEstimate
		if err := ParseResultJSON(result, &out); err != nil {
			t.Fatal(err)
		}
		if out.MinDuration != 36 || out.MaxDuration != 36 {
			t.Errorf("duration range = %d..%d, want 36..36", out.MinDuration, out.MaxDuration)
		}
		if out.PriceLabel != "Free" || out.CO2Level != "none" {
			t.Errorf("unexpected estimate %+v", out)
		}
		if out.Name != "Walking" {
			t.Errorf("name = %q, want Walking", out.Name)
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		result, _ := r.HandleEstimateMode(context.Background(), NewRequest("estimate_mode", map[string]any{
			"mode":        "hovercraft",
			"distance_km": 3,
		}))
		AssertErrorCode(t, result, "MODE_NOT_FOUND")
	})

	t.Run("no distance", func(t *testing.T) {
		result, _ := r.HandleEstimateMode(context.Background(), NewRequest("estimate_mode", map[string]any{
			"mode": "bus",
			"from": "nyc-jfk",
		}))
		AssertErrorCode(t, result, "MISSING_PARAMETER")
	})
}
