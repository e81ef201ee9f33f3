package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/verre/backend/internal/domain"
	"github.com/verre/backend/internal/geo"
)

const (
	maxNearbyResults = 20
	maxLegacyPages   = 2

	// both nearby-search endpoints reject a radius above 50 km
	minSearchRadiusMeters = 1.0
	maxSearchRadiusMeters = 50000.0
)

// StoreTypes are the legacy place types searched for wine retail
var StoreTypes = []string{"liquor_store", "supermarket", "grocery_or_supermarket"}

// nearbyFieldMask is required by places:searchNearby
var nearbyFieldMask = strings.Join([]string{
	"places.id",
	"places.displayName",
	"places.formattedAddress",
	"places.location",
	"places.primaryType",
	"places.types",
	"places.rating",
	"places.userRatingCount",
	"places.priceLevel",
	"places.currentOpeningHours.openNow",
	"places.websiteUri",
	"places.googleMapsUri",
	"places.nationalPhoneNumber",
	"places.photos.name",
}, ",")

var priceLevelSymbols = map[string]string{
	"PRICE_LEVEL_INEXPENSIVE":    "$",
	"PRICE_LEVEL_MODERATE":       "$$",
	"PRICE_LEVEL_EXPENSIVE":      "$$$",
	"PRICE_LEVEL_VERY_EXPENSIVE": "$$$$",
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type searchNearbyRequest struct {
	IncludedTypes       []string `json:"includedTypes"`
	MaxResultCount      int      `json:"maxResultCount"`
	LocationRestriction struct {
		Circle struct {
			Center latLng  `json:"center"`
			Radius float64 `json:"radius"`
		} `json:"circle"`
	} `json:"locationRestriction"`
}

type nearbyPlace struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress    string   `json:"formattedAddress"`
	Location            *latLng  `json:"location"`
	PrimaryType         string   `json:"primaryType"`
	Types               []string `json:"types"`
	Rating              *float64 `json:"rating"`
	UserRatingCount     *int     `json:"userRatingCount"`
	PriceLevel          string   `json:"priceLevel"`
	CurrentOpeningHours *struct {
		OpenNow *bool `json:"openNow"`
	} `json:"currentOpeningHours"`
	WebsiteURI          string `json:"websiteUri"`
	GoogleMapsURI       string `json:"googleMapsUri"`
	NationalPhoneNumber string `json:"nationalPhoneNumber"`
	Photos              []struct {
		Name string `json:"name"`
	} `json:"photos"`
}

type searchNearbyResponse struct {
	Places []nearbyPlace `json:"places"`
}

// NearbyRestaurants queries places:searchNearby for restaurants inside the
// circle. It returns an empty slice when the key is missing or the request
// fails.
func (c *Client) NearbyRestaurants(ctx context.Context, center domain.Coordinate, radiusMeters float64, maxResults int) []domain.Place {
	if c.apiKey == "" {
		c.logger.Warn("places search skipped: missing API key")
		return []domain.Place{}
	}

	var body searchNearbyRequest
	body.IncludedTypes = []string{"restaurant"}
	body.MaxResultCount = clampInt(maxResults, 1, maxNearbyResults)
	body.LocationRestriction.Circle.Center = latLng{Latitude: center.Latitude, Longitude: center.Longitude}
	body.LocationRestriction.Circle.Radius = clampSearchRadius(radiusMeters)

	payload, err := json.Marshal(body)
	if err != nil {
		return []domain.Place{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.placesBaseURL+"/places:searchNearby", bytes.NewReader(payload))
	if err != nil {
		return []domain.Place{}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", nearbyFieldMask)

	var data searchNearbyResponse
	if err := c.doJSON(req, &data); err != nil {
		c.logger.Warn("places search failed", zap.Error(err))
		return []domain.Place{}
	}

	seen := make(map[string]bool, len(data.Places))
	places := make([]domain.Place, 0, len(data.Places))
	for _, raw := range data.Places {
		p := normalizeNearbyPlace(raw, center)
		if p.PlaceID == "" && p.Name == "" {
			continue
		}
		if p.PlaceID != "" {
			if seen[p.PlaceID] {
				continue
			}
			seen[p.PlaceID] = true
		}
		places = append(places, p)
	}

	c.logger.Debug("places search", zap.Int("results", len(places)))
	return places
}

func normalizeNearbyPlace(raw nearbyPlace, center domain.Coordinate) domain.Place {
	p := domain.Place{
		PlaceID: raw.ID,
		Name:    raw.DisplayName.Text,
		Address: raw.FormattedAddress,
		Rating:  raw.Rating,
		Reviews: raw.UserRatingCount,
		Price:   priceLevelSymbols[raw.PriceLevel],
		Phone:   raw.NationalPhoneNumber,
		Website: raw.WebsiteURI,
		MapsURL: raw.GoogleMapsURI,
	}

	category := raw.PrimaryType
	if category == "" && len(raw.Types) > 0 {
		category = raw.Types[0]
	}
	p.Cuisine = NormalizeCategory(category)

	if raw.CurrentOpeningHours != nil {
		p.OpenNow = raw.CurrentOpeningHours.OpenNow
	}

	if raw.Location != nil {
		p.Lat, p.Lon = raw.Location.Latitude, raw.Location.Longitude
		setDistances(&p, center)
	}

	if len(raw.Photos) > 0 && raw.Photos[0].Name != "" {
		p.PhotoName = raw.Photos[0].Name
		p.PhotoURL = photoProxyPath + "?name=" + url.QueryEscape(p.PhotoName)
	}

	return p
}

type legacyPlace struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Vicinity string `json:"vicinity"`
	Geometry struct {
		Location *struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	OpeningHours *struct {
		OpenNow *bool `json:"open_now"`
	} `json:"opening_hours"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	PriceLevel       *int     `json:"price_level"`
	Types            []string `json:"types"`
	Photos           []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
}

type legacyNearbyResponse struct {
	Status        string        `json:"status"`
	NextPageToken string        `json:"next_page_token"`
	Results       []legacyPlace `json:"results"`
}

// NearbyStores queries the legacy nearbysearch endpoint for each store type,
// following at most two pages per type. Results are deduplicated by place id.
func (c *Client) NearbyStores(ctx context.Context, center domain.Coordinate, radiusMeters float64) []domain.Place {
	if c.apiKey == "" {
		c.logger.Warn("store search skipped: missing API key")
		return []domain.Place{}
	}

	index := make(map[string]int)
	stores := make([]domain.Place, 0)

	for _, placeType := range StoreTypes {
		pageToken := ""
		for page := 0; page < maxLegacyPages; page++ {
			params := url.Values{}
			params.Set("key", c.apiKey)
			params.Set("location", fmt.Sprintf("%v,%v", center.Latitude, center.Longitude))
			params.Set("radius", strconv.Itoa(int(clampSearchRadius(radiusMeters))))
			params.Set("type", placeType)
			if pageToken != "" {
				params.Set("pagetoken", pageToken)
			}

			data, ok := c.fetchLegacyPage(ctx, c.legacyBaseURL+"/nearbysearch/json?"+params.Encode())
			if !ok {
				break
			}

			for _, raw := range data.Results {
				p := normalizeLegacyPlace(raw, center)
				if p.PlaceID == "" && p.Name == "" {
					continue
				}
				key := p.PlaceID
				if key == "" {
					key = "name:" + strings.ToLower(p.Name)
				}
				if i, exists := index[key]; exists {
					stores[i] = p
					continue
				}
				index[key] = len(stores)
				stores = append(stores, p)
			}

			pageToken = data.NextPageToken
			if pageToken == "" || page+1 >= maxLegacyPages {
				break
			}
			if err := sleep(ctx, c.pageDelay); err != nil {
				return stores
			}
		}
	}

	c.logger.Debug("store search", zap.Int("results", len(stores)))
	return stores
}

// fetchLegacyPage tries a page twice, pausing briefly after a transport error
func (c *Client) fetchLegacyPage(ctx context.Context, rawURL string) (*legacyNearbyResponse, bool) {
	for attempt := 1; attempt <= 2; attempt++ {
		req, err := newGET(ctx, rawURL)
		if err != nil {
			return nil, false
		}

		var data legacyNearbyResponse
		err = c.doJSON(req, &data)
		if err == nil {
			return &data, true
		}
		if isUpstream(err) || ctx.Err() != nil {
			c.logger.Warn("store search page failed", zap.Error(err))
			return nil, false
		}

		c.logger.Debug("store search page retry", zap.Int("attempt", attempt), zap.Error(err))
		if err := sleep(ctx, c.retryDelay); err != nil {
			return nil, false
		}
	}
	return nil, false
}

func normalizeLegacyPlace(raw legacyPlace, center domain.Coordinate) domain.Place {
	p := domain.Place{
		PlaceID: raw.PlaceID,
		Name:    raw.Name,
		Address: raw.Vicinity,
		Rating:  raw.Rating,
		Reviews: raw.UserRatingsTotal,
	}
	if len(raw.Types) > 0 {
		p.Cuisine = NormalizeCategory(raw.Types[0])
	}
	if raw.PriceLevel != nil && *raw.PriceLevel >= 1 && *raw.PriceLevel <= 4 {
		p.Price = strings.Repeat("$", *raw.PriceLevel)
	}
	if raw.OpeningHours != nil {
		p.OpenNow = raw.OpeningHours.OpenNow
	}
	if loc := raw.Geometry.Location; loc != nil {
		p.Lat, p.Lon = loc.Lat, loc.Lng
		setDistances(&p, center)
	}
	if len(raw.Photos) > 0 && raw.Photos[0].PhotoReference != "" {
		p.PhotoURL = photoProxyPath + "?ref=" + url.QueryEscape(raw.Photos[0].PhotoReference) + "&w=600"
	}
	return p
}

func setDistances(p *domain.Place, center domain.Coordinate) {
	loc := p.Location()
	p.Miles = geo.RoundMiles(geo.Miles(center, loc))
	p.DistanceMeters = geo.RoundMeters(geo.Meters(center, loc))
}

// NormalizeCategory turns provider type ids like "wine_bar" into "wine bar"
func NormalizeCategory(t string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(t, "_", " ")))
}

// clampSearchRadius bounds a radius to what the provider accepts. NaN and
// +Inf become the maximum.
func clampSearchRadius(meters float64) float64 {
	switch {
	case math.IsNaN(meters) || meters > maxSearchRadiusMeters:
		return maxSearchRadiusMeters
	case meters < minSearchRadiusMeters:
		return minSearchRadiusMeters
	}
	return meters
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
