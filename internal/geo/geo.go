// Package geo provides great-circle distance math and the human-readable
// formatting used by the nearby-facility results.
package geo

import (
	"fmt"
	"math"
)

// earthRadiusMeters is the mean Earth radius used by the Haversine formula.
const earthRadiusMeters = 6371000

// walkingMetersPerMinute approximates a typical walking pace (~4.8 km/h).
const walkingMetersPerMinute = 80

// Distance returns the great-circle distance in meters between two
// coordinates, rounded to the nearest meter.
func Distance(lat1, lng1, lat2, lng2 float64) int {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return int(math.Round(2 * earthRadiusMeters * math.Asin(math.Sqrt(a))))
}

// FormatDistance renders a meter count for display. A distance of exactly 0
// still renders as "0 m" rather than being treated as missing.
func FormatDistance(meters int) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", meters)
	}
	return fmt.Sprintf("%.1f km", float64(meters)/1000)
}

// WalkingTime estimates the walking duration for the given distance.
func WalkingTime(meters int) string {
	minutes := int(math.Ceil(float64(meters) / walkingMetersPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	if minutes < 60 {
		return fmt.Sprintf("%d min walk", minutes)
	}

	hours := minutes / 60
	rest := minutes % 60
	if rest == 0 {
		return fmt.Sprintf("%d h walk", hours)
	}
	return fmt.Sprintf("%d h %d min walk", hours, rest)
}
