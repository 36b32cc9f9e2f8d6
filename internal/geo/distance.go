// Package geo provides great-circle distance math for proximity checks.
package geo

import "math"

const earthRadiusKm = 6371

// Coordinate is a point on the Earth's surface in decimal degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// DistanceBetween returns the haversine distance between two coordinates in
// kilometers. It is symmetric and returns 0 for identical points.
func DistanceBetween(from, to Coordinate) float64 {
	if from == to {
		return 0
	}

	dLat := degToRad(to.Latitude - from.Latitude)
	dLon := degToRad(to.Longitude - from.Longitude)

	fromLatRad := degToRad(from.Latitude)
	toLatRad := degToRad(to.Latitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(fromLatRad)*math.Cos(toLatRad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degToRad(d float64) float64 {
	return d * (math.Pi / 180)
}
