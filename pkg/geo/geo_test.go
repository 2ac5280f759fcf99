package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jfk         = Location{Latitude: 40.6413, Longitude: -73.7781}
	timesSquare = Location{Latitude: 40.7580, Longitude: -73.9855}
	heathrow    = Location{Latitude: 51.4700, Longitude: -0.4543}
	stPancras   = Location{Latitude: 51.5320, Longitude: -0.1263}
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name string
		a, b Location
		want float64
	}{
		{"JFK to Times Square", jfk, timesSquare, 21.8},
		{"Heathrow to St Pancras", heathrow, stPancras, 23.7},
		{"Grand Central to Penn Station",
			Location{Latitude: 40.7527, Longitude: -73.9772},
			Location{Latitude: 40.7505, Longitude: -73.9935}, 1.4},
		{"same point", jfk, jfk, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DistanceKm(tt.a, tt.b))
		})
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	points := []Location{
		jfk, timesSquare, heathrow, stPancras,
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 0, Longitude: 0},
		{Latitude: 89.9, Longitude: 179.9},
		{Latitude: -45.5, Longitude: -179.5},
	}

	for _, a := range points {
		for _, b := range points {
			require.Equal(t, DistanceKm(a, b), DistanceKm(b, a), "a=%v b=%v", a, b)
			require.Equal(t, HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude),
				HaversineDistance(b.Latitude, b.Longitude, a.Latitude, a.Longitude))
		}
		assert.Zero(t, DistanceKm(a, a))
	}
}

func TestDistanceKmOutOfRange(t *testing.T) {
	// No validation is performed; the result is defined and non-negative.
	d := DistanceKm(Location{Latitude: 120, Longitude: 400}, Location{Latitude: -100, Longitude: -300})
	assert.GreaterOrEqual(t, d, 0.0)
}

func TestHaversineDistanceMeters(t *testing.T) {
	m := HaversineDistance(jfk.Latitude, jfk.Longitude, timesSquare.Latitude, timesSquare.Longitude)
	assert.InDelta(t, 21773, m, 5)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2.3, Round(2.25, 1))
	assert.Equal(t, -2.3, Round(-2.25, 1))
	assert.Equal(t, 48.6, Round(5+2*21.8, 2))
	assert.Equal(t, 3.27, Round(21.8*0.15, 2))
	assert.Equal(t, 17.0, Round(17.04, 0))
}

func inside(boxes []BoundingBox, lat, lon float64) bool {
	for _, b := range boxes {
		if lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon {
			return true
		}
	}
	return false
}

func TestBoundsAround(t *testing.T) {
	boxes := BoundsAround(timesSquare, 5)
	require.Len(t, boxes, 1)

	assert.True(t, inside(boxes, timesSquare.Latitude, timesSquare.Longitude))
	assert.True(t, inside(boxes, 40.7812, -73.9665)) // Central Park, ~3 km away
	assert.False(t, inside(boxes, jfk.Latitude, jfk.Longitude))

	polar := BoundsAround(Location{Latitude: 89.99, Longitude: 10}, 50)
	require.Len(t, polar, 1)
	assert.Equal(t, 90.0, polar[0].MaxLat)
	assert.Equal(t, -180.0, polar[0].MinLon)
	assert.Equal(t, 180.0, polar[0].MaxLon)
}

func TestBoundsAroundAntimeridian(t *testing.T) {
	// Taveuni, Fiji straddles the antimeridian
	east := BoundsAround(Location{Latitude: -16.8, Longitude: 179.95}, 20)
	require.Len(t, east, 2)
	assert.True(t, inside(east, -16.8, -179.95))
	assert.True(t, inside(east, -16.8, 179.9))
	assert.False(t, inside(east, -16.8, 0))

	west := BoundsAround(Location{Latitude: -16.8, Longitude: -179.95}, 20)
	require.Len(t, west, 2)
	assert.True(t, inside(west, -16.8, 179.95))
	assert.True(t, inside(west, -16.8, -179.9))
}
