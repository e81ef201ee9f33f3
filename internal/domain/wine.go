package domain

import "math"

// Regional wine styles
const (
	StyleRed       = "red"
	StyleWhite     = "white"
	StyleRose      = "rosé"
	StyleSparkling = "sparkling"
	StyleDessert   = "dessert"
	StyleOrange    = "orange"
	StyleOther     = "other"
)

// RegionalWine is an advisory record describing a wine popular around a location
type RegionalWine struct {
	Name             string       `json:"name"`
	Style            string       `json:"style,omitempty"`
	Grape            string       `json:"grape,omitempty"`
	Region           string       `json:"region,omitempty"`
	Profile          string       `json:"profile,omitempty"`
	TypicalABV       *float64     `json:"typical_abv,omitempty"`
	TypicalPrice     TypicalPrice `json:"typical_price"`
	FoodPairings     []string     `json:"food_pairings"`
	NotableProducers []string     `json:"notable_producers"`
}

// TypicalPrice is a glass/bottle price hint
type TypicalPrice struct {
	Currency string   `json:"currency"`
	Glass    *float64 `json:"glass,omitempty"`
	Bottle   *float64 `json:"bottle,omitempty"`
}

// Money is an amount in a currency
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// StoreInfo describes where a retail item can be bought
type StoreInfo struct {
	Name           string   `json:"name"`
	Address        string   `json:"address,omitempty"`
	DistanceMeters *float64 `json:"distanceMeters,omitempty"`
	OpenNow        *bool    `json:"openNow,omitempty"`
	URL            string   `json:"url,omitempty"`
}

// RetailWineItem is a product listing scraped from a retailer
type RetailWineItem struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Varietal string     `json:"varietal,omitempty"`
	Price    *Money     `json:"price,omitempty"`
	Image    string     `json:"image,omitempty"`
	Rating   *float64   `json:"rating,omitempty"`
	Store    *StoreInfo `json:"store,omitempty"`
}

// DistanceOrInf returns the store distance in meters, or +Inf when unknown
func (it RetailWineItem) DistanceOrInf() float64 {
	if it.Store == nil || it.Store.DistanceMeters == nil {
		return math.Inf(1)
	}
	return *it.Store.DistanceMeters
}

// PriceOrInf returns the price amount, or +Inf when unknown
func (it RetailWineItem) PriceOrInf() float64 {
	if it.Price == nil {
		return math.Inf(1)
	}
	return it.Price.Amount
}

// StoreName returns the store name or an empty string
func (it RetailWineItem) StoreName() string {
	if it.Store == nil {
		return ""
	}
	return it.Store.Name
}

// ExtractedWine is one entry read off a photographed wine list
type ExtractedWine struct {
	Name           string   `json:"name" binding:"required"`
	Region         *string  `json:"region"`
	Country        *string  `json:"country"`
	VarietyOrStyle *string  `json:"variety_or_style"`
	Vintage        *float64 `json:"vintage"`
	Price          *float64 `json:"price"`
	ByGlass        *bool    `json:"by_glass"`
	Notes          *string  `json:"notes"`
}

// RankedPairing is one ranked wine suggestion for a meal
type RankedPairing struct {
	Wine           string   `json:"wine"`
	Score          float64  `json:"score"`
	Why            string   `json:"why"`
	EstimatedPrice *float64 `json:"estimated_price"`
}

// PairingResult is the ranked output for a meal
type PairingResult struct {
	Ranked []RankedPairing `json:"ranked"`
	Notes  string          `json:"notes"`
}
