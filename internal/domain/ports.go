package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Geocoder resolves a US postal code to a coordinate
type Geocoder interface {
	GeocodeZip(ctx context.Context, zip string) GeocodeResult
}

// PlacesFinder discovers nearby establishments. Implementations return an
// empty slice instead of an error when the provider is unavailable.
type PlacesFinder interface {
	NearbyRestaurants(ctx context.Context, center Coordinate, radiusMeters float64, maxResults int) []Place
	NearbyStores(ctx context.Context, center Coordinate, radiusMeters float64) []Place
}

// MenuProber checks whether a business publishes a wine menu online
type MenuProber interface {
	Probe(ctx context.Context, website, mapsURL string) ProbeResult
}

// Image is inline image content sent to a language model
type Image struct {
	MIMEType string
	Data     []byte
}

// Completion is a single prompt sent to a language model
type Completion struct {
	Model       string
	System      string
	Prompt      string
	Images      []Image
	Temperature float32
	MaxTokens   int32
	JSON        bool
}

// LanguageModel produces text for a prompt
type LanguageModel interface {
	Complete(ctx context.Context, req Completion) (string, error)
}

// RetailQuery is the context handed to each retailer scraper
type RetailQuery struct {
	Text   string
	Center *Coordinate
	Places []Place
}

// RetailerScraper extracts product listings from one retailer's search page
type RetailerScraper interface {
	Brand() string
	Search(ctx context.Context, query RetailQuery) ([]RetailWineItem, error)
}
