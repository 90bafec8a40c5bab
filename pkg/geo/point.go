package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidPoint is returned when a longitude/latitude pair is outside the WGS84 range.
var ErrInvalidPoint = errors.New("invalid geographic point")

// Point is a geographic coordinate in degrees (EPSG:4326). The zero value is
// the point (0, 0). Points are immutable; build them with NewPoint.
type Point struct {
	lon float64
	lat float64
}

// NewPoint validates and builds a Point. Longitude must be within [-180, 180]
// and latitude within [-90, 90].
func NewPoint(lon, lat float64) (Point, error) {
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return Point{}, fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidPoint, lon)
	}
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Point{}, fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidPoint, lat)
	}
	return Point{lon: lon, lat: lat}, nil
}

// MustPoint is NewPoint for compile-time constants; it panics on invalid input.
func MustPoint(lon, lat float64) Point {
	p, err := NewPoint(lon, lat)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePoint reads a "lon,lat" pair, the order OSRM uses in request paths.
func ParsePoint(s string) (Point, error) {
	lon, lat, err := ParseLonLat(s)
	if err != nil {
		return Point{}, err
	}
	return NewPoint(lon, lat)
}

// ParseLonLat splits a "lon,lat" pair into numbers without range checks.
func ParseLonLat(s string) (lon, lat float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: expected \"lon,lat\", got %q", ErrInvalidPoint, s)
	}

	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude %q: %v", ErrInvalidPoint, parts[0], err)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude %q: %v", ErrInvalidPoint, parts[1], err)
	}
	return lon, lat, nil
}

// Lon returns the longitude in degrees.
func (p Point) Lon() float64 { return p.lon }

// Lat returns the latitude in degrees.
func (p Point) Lat() float64 { return p.lat }

// Project converts the point to Web Mercator meters.
func (p Point) Project() (Projected, error) {
	return Project(p)
}

// String formats the point as "lon,lat" with six decimals (~0.1 m).
func (p Point) String() string {
	return strconv.FormatFloat(p.lon, 'f', 6, 64) + "," + strconv.FormatFloat(p.lat, 'f', 6, 64)
}

// MarshalJSON encodes the point as a bare [lon, lat] array.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.lon, p.lat})
}

// UnmarshalJSON accepts a bare [lon, lat] array and validates the range.
func (p *Point) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: expected [lon, lat], got %d values", ErrInvalidPoint, len(pair))
	}

	parsed, err := NewPoint(pair[0], pair[1])
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
