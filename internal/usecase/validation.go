package usecase

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultRadiusMiles is used when the requested radius is missing or not a number
	DefaultRadiusMiles = 15
	MinRadiusMiles     = 1
	MaxRadiusMiles     = 50
)

// ClampRadius parses a radius in miles, rounds it to the nearest integer and
// clamps it to [1, 50]. Missing or non-numeric input yields 15.
func ClampRadius(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultRadiusMiles
	}
	r, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(r) || math.IsInf(r, 0) {
		return DefaultRadiusMiles
	}
	return clampInt(int(math.Round(r)), MinRadiusMiles, MaxRadiusMiles)
}

// ParseCoordinate parses a decimal-degree query value
func ParseCoordinate(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// truncateRunes cuts s to at most n characters
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// capitalize upper-cases the first letter
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
