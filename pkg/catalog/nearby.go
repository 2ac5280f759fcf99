package catalog

import (
	"cmp"
	"slices"

	"github.com/NERVsystems/tripmcp/pkg/geo"
)

// NearbyLocation is a catalog location annotated with its distance from a query point
type NearbyLocation struct {
	Location
	DistanceM  float64 `json:"distance_m"`
	DistanceKm float64 `json:"distance_km"`
}

// Nearby returns the locations within radiusKm of point, closest first.
// A limit of zero or less returns every match.
func (c *Catalog) Nearby(point geo.Location, radiusKm float64, limit int) []NearbyLocation {
	if radiusKm <= 0 {
		return nil
	}

	radiusM := radiusKm * 1000

	var out []NearbyLocation
	for _, box := range geo.BoundsAround(point, radiusKm) {
		c.spatial.Search(
			[2]float64{box.MinLon, box.MinLat},
			[2]float64{box.MaxLon, box.MaxLat},
			func(_, _ [2]float64, id string) bool {
				l := c.locations[c.byID[id]]
				d := geo.HaversineDistance(point.Latitude, point.Longitude,
					l.Coordinates.Latitude, l.Coordinates.Longitude)
				if d <= radiusM {
					out = append(out, NearbyLocation{
						Location:   l,
						DistanceM:  geo.Round(d, 1),
						DistanceKm: geo.Round(d/1000, 1),
					})
				}
				return true
			})
	}

	slices.SortFunc(out, func(a, b NearbyLocation) int {
		if n := cmp.Compare(a.DistanceM, b.DistanceM); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
