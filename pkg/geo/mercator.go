package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMeters is the sphere radius used by EPSG:3857.
const EarthRadiusMeters = 6378137.0

// ErrDomain is matched by every DomainError.
var ErrDomain = errors.New("coordinate outside projection domain")

// DomainError reports a point the Web Mercator transform is undefined for.
type DomainError struct {
	Point  Point
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("cannot project (%s): %s", e.Point, e.Reason)
}

// Is lets errors.Is(err, ErrDomain) match.
func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}

// Projected is a planar Web Mercator coordinate in meters, origin at (0°, 0°).
type Projected struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Project applies the spherical Web Mercator forward transform. The poles
// map to infinity, so latitude ±90 is rejected.
func Project(p Point) (Projected, error) {
	if p.lat <= -90 || p.lat >= 90 {
		return Projected{}, &DomainError{Point: p, Reason: "latitude must be strictly between -90 and 90"}
	}

	return Projected{
		X: EarthRadiusMeters * toRad(p.lon),
		Y: EarthRadiusMeters * math.Log(math.Tan(math.Pi/4+toRad(p.lat)/2)),
	}, nil
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
