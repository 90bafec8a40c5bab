package geo

import "math"

const meanEarthRadiusMeters = 6371000.0

// Haversine calculates the great-circle distance in meters between two points
// on a sphere of mean Earth radius.
func Haversine(a, b Point) float64 {
	dLat := toRad(b.lat - a.lat)
	dLon := toRad(b.lon - a.lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.lat))*math.Cos(toRad(b.lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return meanEarthRadiusMeters * c
}
