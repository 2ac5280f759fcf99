package trip

import (
	"fmt"
	"testing"

	"github.com/NERVsystems/tripmcp/pkg/catalog"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modesOf(routes []Route) []string {
	out := make([]string, len(routes))
	for i, r := range routes {
		out[i] = r.ModeID
	}
	return out
}

func durationsOf(routes []Route) []int {
	out := make([]int, len(routes))
	for i, r := range routes {
		out[i] = r.DurationMinutes
	}
	return out
}

func TestSynthesizeJFKToTimesSquare(t *testing.T) {
	s := NewSynthesizer(catalog.Default(), WithWaitSource(FixedWait(5)))

	routes, err := s.Synthesize("nyc-jfk", "nyc-ts", "09:00")
	require.NoError(t, err)
	require.Len(t, routes, 11)

	assert.Equal(t, []string{
		"train", "subway", "taxi", "uber", "lyft", "tram", "bus", "ferry", "bike", "scooter", "walk",
	}, modesOf(routes))
	assert.Equal(t, []int{27, 42, 44, 44, 44, 57, 70, 70, 87, 87, 262}, durationsOf(routes))

	byMode := map[string]Route{}
	for _, r := range routes {
		assert.Equal(t, 21.8, r.DistanceKm)
		assert.Equal(t, "09:00", r.DepartureTime)
		assert.Equal(t, RouteID("nyc-jfk", "nyc-ts", r.ModeID, "09:00"), r.ID)
		byMode[r.ModeID] = r
	}

	assert.Equal(t, 48.6, byMode["taxi"].Price)
	assert.Equal(t, 3.27, byMode["taxi"].CO2Kg)
	assert.Equal(t, "09:44", byMode["taxi"].ArrivalTime)
	assert.Equal(t, 2.75, byMode["subway"].Price)
	assert.Equal(t, 0.0, byMode["walk"].Price)
	assert.Equal(t, 0.0, byMode["walk"].CO2Kg)
	assert.Equal(t, "13:22", byMode["walk"].ArrivalTime)
	assert.Equal(t, "nyc-jfk-nyc-ts-taxi-09:00", byMode["taxi"].ID)
}

func TestSynthesizeWrapsMidnight(t *testing.T) {
	s := NewSynthesizer(nil, WithModes("taxi"))

	routes, err := s.Synthesize("nyc-gct", "nyc-cp", "23:50")
	require.NoError(t, err)
	require.Len(t, routes, 1)

	// Grand Central to Central Park is 3.3 km, 7 minutes by taxi.
	assert.Equal(t, 7, routes[0].DurationMinutes)
	assert.Equal(t, "23:57", routes[0].ArrivalTime)

	routes, err = NewSynthesizer(nil, WithModes("walk")).Synthesize("nyc-gct", "nyc-cp", "23:50")
	require.NoError(t, err)
	assert.Equal(t, 40, routes[0].DurationMinutes)
	assert.Equal(t, "00:30", routes[0].ArrivalTime)
}

func TestSynthesizeShortTripFloor(t *testing.T) {
	s := NewSynthesizer(nil, WithWaitSource(FixedWait(MinWait)))

	routes, err := s.Synthesize("nyc-gct", "nyc-ps", "08:00")
	require.NoError(t, err)
	for _, r := range routes {
		assert.GreaterOrEqual(t, r.DurationMinutes, MinDuration, r.ModeID)
		assert.Equal(t, 1.4, r.DistanceKm)
	}
}

func TestSynthesizeSameLocation(t *testing.T) {
	routes, err := NewSynthesizer(nil).Synthesize("lon-eye", "lon-eye", "10:00")
	require.NoError(t, err)
	for _, r := range routes {
		assert.Zero(t, r.DistanceKm)
		assert.GreaterOrEqual(t, r.DurationMinutes, MinDuration)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	s := NewSynthesizer(catalog.Default())

	tests := []struct {
		name      string
		from, to  string
		departure string
		want      error
	}{
		{"unknown origin", "nyc-nope", "nyc-ts", "09:00", ErrLocationNotFound},
		{"unknown destination", "nyc-jfk", "", "09:00", ErrLocationNotFound},
		{"bad time", "nyc-jfk", "nyc-ts", "9am", ErrInvalidTime},
		{"out of range time", "nyc-jfk", "nyc-ts", "24:00", ErrInvalidTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routes, err := s.Synthesize(tt.from, tt.to, tt.departure)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, routes)
		})
	}
}

func TestSynthesizeCustomModes(t *testing.T) {
	s := NewSynthesizer(nil, WithModes("walk", "hovercraft"), WithWaitSource(FixedWait(5)))

	routes, err := s.Synthesize("nyc-jfk", "nyc-ts", "09:00")
	require.NoError(t, err)
	require.Len(t, routes, 2)

	assert.Equal(t, "hovercraft", routes[0].ModeID)
	assert.Equal(t, 44, routes[0].DurationMinutes)
	assert.Equal(t, 5.0, routes[0].Price)
	assert.Equal(t, 3.27, routes[0].CO2Kg)
	assert.Equal(t, []string{"walk", "hovercraft"}, s.Modes())
}

func TestSynthesizeKeys(t *testing.T) {
	routes, err := NewSynthesizer(nil).Synthesize("sf-sfo", "sf-gg", "07:30")
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, r := range routes {
		_, err := uuid.Parse(r.Key)
		require.NoError(t, err)
		assert.False(t, seen[r.Key], "duplicate key")
		seen[r.Key] = true
	}

	n := 0
	counter := func() string { n++; return fmt.Sprintf("k%d", n) }
	routes, err = NewSynthesizer(nil, WithModes("taxi", "walk"), WithKeyFunc(counter)).
		Synthesize("sf-sfo", "sf-gg", "07:30")
	require.NoError(t, err)
	assert.Equal(t, "k1", routes[0].Key)
	assert.Equal(t, "k2", routes[1].Key)
}

func TestSynthesizeJitterBand(t *testing.T) {
	s := NewSynthesizer(nil, WithModes("subway"), WithWaitSource(NewRandomWait(99)))
	base := BaseDuration(21.8, "subway")

	for range 200 {
		routes, err := s.Synthesize("nyc-jfk", "nyc-ts", "09:00")
		require.NoError(t, err)
		jitter := routes[0].DurationMinutes - base
		require.GreaterOrEqual(t, jitter, MinWait)
		require.LessOrEqual(t, jitter, MaxWait)
	}
}
