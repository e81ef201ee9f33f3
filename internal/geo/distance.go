// Package geo holds the great-circle distance helpers shared by the
// restaurant and retail searches.
package geo

import (
	"math"

	"github.com/verre/backend/internal/domain"
)

const (
	earthRadiusKm     = 6371.0
	earthRadiusMeters = 6371000.0
	milesPerKm        = 0.621371
	metersPerMile     = 1609.344
)

// Miles returns the haversine distance between a and b in miles.
// Any non-finite component yields +Inf.
func Miles(a, b domain.Coordinate) float64 {
	if !a.Valid() || !b.Valid() {
		return math.Inf(1)
	}
	return earthRadiusKm * centralAngle(a, b) * milesPerKm
}

// Meters returns the haversine distance between a and b in meters.
// Any non-finite component yields +Inf.
func Meters(a, b domain.Coordinate) float64 {
	if !a.Valid() || !b.Valid() {
		return math.Inf(1)
	}
	return earthRadiusMeters * centralAngle(a, b)
}

func centralAngle(a, b domain.Coordinate) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// MilesToMeters converts miles to whole meters
func MilesToMeters(mi float64) float64 {
	return math.Round(mi * metersPerMile)
}

// RoundMiles rounds to one decimal, returning nil for non-finite input
func RoundMiles(mi float64) *float64 {
	if math.IsInf(mi, 0) || math.IsNaN(mi) {
		return nil
	}
	v := math.Round(mi*10) / 10
	return &v
}

// RoundMeters rounds to whole meters, returning nil for non-finite input
func RoundMeters(m float64) *float64 {
	if math.IsInf(m, 0) || math.IsNaN(m) {
		return nil
	}
	v := math.Round(m)
	return &v
}
