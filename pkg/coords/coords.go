// Package coords turns user-supplied position strings into WGS84 points.
//
// A position may be written as decimal degrees ("40.758, -73.9855"),
// degrees/minutes/seconds ("40°45'29\"N 73°59'08\"W"), an MGRS grid
// reference ("18TWL8565011120") or the id of a catalog location.
package coords

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/NERVsystems/tripmcp/pkg/catalog"
	"github.com/NERVsystems/tripmcp/pkg/geo"
	"github.com/akhenakh/mgrs"
)

// Format identifies how a position string was written
type Format string

const (
	FormatUnknown  Format = "unknown"
	FormatDecimal  Format = "decimal"
	FormatDMS      Format = "dms"
	FormatMGRS     Format = "mgrs"
	FormatLocation Format = "location"
)

// ErrUnrecognized is returned when no format matches the input
var ErrUnrecognized = errors.New("unrecognized position format")

// Position is a parsed point together with the format it was read from
type Position struct {
	geo.Location
	Format     Format `json:"format"`
	Input      string `json:"input"`
	LocationID string `json:"location_id,omitempty"`
}

var (
	mgrsPattern    = regexp.MustCompile(`(?i)^(\d{1,2})([C-HJ-NP-X])([A-HJ-NP-Z]{2})(\d{2,10})$`)
	dmsPattern     = regexp.MustCompile(`(?i)^(\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([NS])[\s,]+(\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([EW])$`)
	decimalPattern = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\s*[,\s]\s*(-?\d+(?:\.\d+)?)$`)
)

// Detect reports the format of input without converting it.
// Location ids are never detected here since they need a catalog.
func Detect(input string) Format {
	s := strings.TrimSpace(input)
	switch {
	case mgrsPattern.MatchString(s):
		return FormatMGRS
	case dmsPattern.MatchString(s):
		return FormatDMS
	case decimalPattern.MatchString(s):
		return FormatDecimal
	}
	return FormatUnknown
}

// Parse converts a coordinate string in any supported notation
func Parse(input string) (Position, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Position{}, fmt.Errorf("empty position: %w", ErrUnrecognized)
	}

	var (
		loc geo.Location
		err error
	)
	format := Detect(s)
	switch format {
	case FormatMGRS:
		loc, err = parseMGRS(s)
	case FormatDMS:
		loc, err = parseDMS(s)
	case FormatDecimal:
		loc, err = parseDecimal(s)
	default:
		return Position{}, fmt.Errorf("%q: %w", s, ErrUnrecognized)
	}
	if err != nil {
		return Position{}, err
	}
	return Position{Location: loc, Format: format, Input: s}, nil
}

// Resolve is Parse with a fallback to catalog location ids.
// A nil catalog uses the built-in one.
func Resolve(input string, cat *catalog.Catalog) (Position, error) {
	s := strings.TrimSpace(input)
	if cat == nil {
		cat = catalog.Default()
	}
	if l, ok := cat.LocationByID(s); ok {
		return Position{Location: l.Coordinates, Format: FormatLocation, Input: s, LocationID: l.ID}, nil
	}
	return Parse(s)
}

func parseMGRS(s string) (geo.Location, error) {
	lat, lon, err := mgrs.MGRSToLatLng(strings.ToUpper(s))
	if err != nil {
		return geo.Location{}, fmt.Errorf("MGRS %q: %w", s, err)
	}
	return checkRange(lat, lon)
}

func parseDMS(s string) (geo.Location, error) {
	m := dmsPattern.FindStringSubmatch(s)
	lat, err := dmsValue(m[1], m[2], m[3], 90)
	if err != nil {
		return geo.Location{}, fmt.Errorf("latitude in %q: %w", s, err)
	}
	lon, err := dmsValue(m[5], m[6], m[7], 180)
	if err != nil {
		return geo.Location{}, fmt.Errorf("longitude in %q: %w", s, err)
	}
	if strings.EqualFold(m[4], "S") {
		lat = -lat
	}
	if strings.EqualFold(m[8], "W") {
		lon = -lon
	}
	return checkRange(lat, lon)
}

func dmsValue(deg, min, sec string, limit float64) (float64, error) {
	d, _ := strconv.ParseFloat(deg, 64)
	m, _ := strconv.ParseFloat(min, 64)
	s, _ := strconv.ParseFloat(sec, 64)
	if m >= 60 || s >= 60 {
		return 0, errors.New("minutes and seconds must be below 60")
	}
	v := d + m/60 + s/3600
	if v > limit {
		return 0, fmt.Errorf("%g exceeds %g degrees", v, limit)
	}
	return v, nil
}

func parseDecimal(s string) (geo.Location, error) {
	m := decimalPattern.FindStringSubmatch(s)
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return geo.Location{}, err
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return geo.Location{}, err
	}
	return checkRange(lat, lon)
}

func checkRange(lat, lon float64) (geo.Location, error) {
	if lat < -90 || lat > 90 {
		return geo.Location{}, fmt.Errorf("latitude %f out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return geo.Location{}, fmt.Errorf("longitude %f out of range", lon)
	}
	return geo.Location{Latitude: lat, Longitude: lon}, nil
}

// ToMGRS formats a point as MGRS. Precision 1..5 maps to 10km..1m;
// anything else means 1m.
func ToMGRS(loc geo.Location, precision int) (string, error) {
	if precision < 1 || precision > 5 {
		precision = 5
	}
	if _, err := checkRange(loc.Latitude, loc.Longitude); err != nil {
		return "", err
	}
	s, err := mgrs.LatLngToMGRS(loc.Latitude, loc.Longitude, precision)
	if err != nil {
		return "", fmt.Errorf("MGRS conversion failed: %w", err)
	}
	return s, nil
}
