package domain

import (
	"math"
	"regexp"
)

// Coordinate is a WGS84 point in decimal degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both components are finite numbers
func (c Coordinate) Valid() bool {
	return isFinite(c.Latitude) && isFinite(c.Longitude)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// GeocodeResult is the outcome of resolving a postal code. Failures are
// reported through OK/Reason rather than an error.
type GeocodeResult struct {
	Coordinate
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// Geocode failure reasons
const (
	ReasonInvalidZip   = "invalid_zip"
	ReasonMissingKey   = "missing_key"
	ReasonHTTPError    = "http_error"
	ReasonNoResults    = "no_results"
	ReasonNetworkError = "network_error"
)

// Place is a normalized establishment returned by the places provider.
// Distances are computed locally from the query origin and are nil when
// either coordinate is unusable.
type Place struct {
	PlaceID        string   `json:"place_id"`
	Name           string   `json:"name"`
	Address        string   `json:"address,omitempty"`
	Cuisine        string   `json:"cuisine,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	Reviews        *int     `json:"reviews,omitempty"`
	Price          string   `json:"price,omitempty"`
	OpenNow        *bool    `json:"open_now,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Website        string   `json:"website,omitempty"`
	MapsURL        string   `json:"maps_url,omitempty"`
	Lat            float64  `json:"lat"`
	Lon            float64  `json:"lon"`
	Miles          *float64 `json:"miles,omitempty"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
	PhotoName      string   `json:"photo_name,omitempty"`
	PhotoURL       string   `json:"photo_url,omitempty"`
}

// Location returns the place coordinate
func (p Place) Location() Coordinate {
	return Coordinate{Latitude: p.Lat, Longitude: p.Lon}
}

// MilesOrInf returns the distance in miles, or +Inf when unknown
func (p Place) MilesOrInf() float64 {
	if p.Miles == nil {
		return math.Inf(1)
	}
	return *p.Miles
}

// MetersOrInf returns the distance in meters, or +Inf when unknown
func (p Place) MetersOrInf() float64 {
	if p.DistanceMeters == nil {
		return math.Inf(1)
	}
	return *p.DistanceMeters
}

// RatingOrZero returns the rating, treating a missing rating as 0
func (p Place) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// WineMenuCandidate is a restaurant whose website or map listing was probed
// for a wine menu
type WineMenuCandidate struct {
	Place
	HasWineMenu bool   `json:"has_wine_menu"`
	WineMenuURL string `json:"wine_menu_url,omitempty"`
}

// ProbeResult is the outcome of a wine-menu probe
type ProbeResult struct {
	Has bool   `json:"has"`
	URL string `json:"url,omitempty"`
}

var zip5Pattern = regexp.MustCompile(`^\d{5}$`)

// IsZip5 reports whether z is exactly five ASCII digits
func IsZip5(z string) bool {
	return zip5Pattern.MatchString(z)
}
