package core

import (
	"github.com/NERVsystems/tripmcp/pkg/geo"
	"github.com/twpayne/go-polyline"
)

// EncodePolyline encodes points in Google's polyline format with 5 decimal places
func EncodePolyline(points []geo.Location) string {
	if len(points) == 0 {
		return ""
	}
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Latitude, p.Longitude}
	}
	return string(polyline.EncodeCoords(coords))
}

// LegGeometry is the straight-line geometry of a single origin to destination leg
func LegGeometry(from, to geo.Location) string {
	return EncodePolyline([]geo.Location{from, to})
}
