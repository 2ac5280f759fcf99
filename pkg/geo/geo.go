// Package geo provides the geographic primitives shared by the trip planner:
// locations, great-circle distances and bounding boxes.
package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

const (
	// EarthRadiusKm is the mean Earth radius used for all distance calculations
	EarthRadiusKm = 6371.0

	// EarthRadius is EarthRadiusKm expressed in meters
	EarthRadius = EarthRadiusKm * 1000
)

// Location is a WGS84 coordinate in decimal degrees
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// BoundingBox is an axis-aligned latitude/longitude rectangle
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// BoundsAround returns boxes that together enclose every point within
// radiusKm of center. A span crossing the antimeridian is split into one box
// on each side, so callers must search all of them. Latitudes are clamped and
// near the poles the box covers every longitude.
func BoundsAround(center Location, radiusKm float64) []BoundingBox {
	dLat := radiusKm / EarthRadiusKm * 180 / math.Pi
	cosLat := math.Cos(center.Latitude * math.Pi / 180)

	minLat := math.Max(-90, center.Latitude-dLat)
	maxLat := math.Min(90, center.Latitude+dLat)
	full := []BoundingBox{{MinLat: minLat, MinLon: -180, MaxLat: maxLat, MaxLon: 180}}

	if cosLat <= 1e-9 || dLat/cosLat >= 180 {
		return full
	}
	dLon := dLat / cosLat
	west, east := center.Longitude-dLon, center.Longitude+dLon

	switch {
	case west < -180:
		return []BoundingBox{
			{MinLat: minLat, MinLon: -180, MaxLat: maxLat, MaxLon: east},
			{MinLat: minLat, MinLon: west + 360, MaxLat: maxLat, MaxLon: 180},
		}
	case east > 180:
		return []BoundingBox{
			{MinLat: minLat, MinLon: west, MaxLat: maxLat, MaxLon: 180},
			{MinLat: minLat, MinLon: -180, MaxLat: maxLat, MaxLon: east - 360},
		}
	}
	return []BoundingBox{{MinLat: minLat, MinLon: west, MaxLat: maxLat, MaxLon: east}}
}

// centralAngle returns the haversine angle in radians between two points.
// The endpoints are put in a fixed order first so that swapping them
// yields a bitwise identical result.
func centralAngle(lat1, lon1, lat2, lon2 float64) float64 {
	if lat2 < lat1 || (lat2 == lat1 && lon2 < lon1) {
		lat1, lon1, lat2, lon2 = lat2, lon2, lat1, lon1
	}
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians()
}

// HaversineDistance returns the great-circle distance in meters between two points
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return centralAngle(lat1, lon1, lat2, lon2) * EarthRadius
}

// DistanceKm returns the haversine distance between a and b in kilometers,
// rounded to one decimal place. Inputs are not validated.
func DistanceKm(a, b Location) float64 {
	km := centralAngle(a.Latitude, a.Longitude, b.Latitude, b.Longitude) * EarthRadiusKm
	return Round(km, 1)
}

// Round rounds x to the given number of decimal places, halves away from zero
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
