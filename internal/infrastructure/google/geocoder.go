package google

import (
	"context"
	"math"
	"net/url"

	"go.uber.org/zap"

	"github.com/verre/backend/internal/domain"
)

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat *float64 `json:"lat"`
				Lng *float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// GeocodeZip resolves a 5-digit US postal code. It never retries and never
// returns an error; failures are reported through Reason.
func (c *Client) GeocodeZip(ctx context.Context, zip string) domain.GeocodeResult {
	if !domain.IsZip5(zip) {
		return domain.GeocodeResult{Reason: domain.ReasonInvalidZip}
	}
	if c.apiKey == "" {
		return domain.GeocodeResult{Reason: domain.ReasonMissingKey}
	}

	params := url.Values{}
	params.Set("address", zip)
	params.Set("components", "country:US|postal_code:"+zip)
	params.Set("key", c.apiKey)

	req, err := newGET(ctx, c.geocodeBaseURL+"/json?"+params.Encode())
	if err != nil {
		return domain.GeocodeResult{Reason: domain.ReasonNetworkError}
	}

	var data geocodeResponse
	if err := c.doJSON(req, &data); err != nil {
		c.logger.Warn("geocode failed", zap.String("zip", zip), zap.Error(err))
		if isUpstream(err) {
			return domain.GeocodeResult{Reason: domain.ReasonHTTPError}
		}
		return domain.GeocodeResult{Reason: domain.ReasonNetworkError}
	}

	if len(data.Results) > 0 {
		loc := data.Results[0].Geometry.Location
		if loc.Lat != nil && loc.Lng != nil && finite(*loc.Lat) && finite(*loc.Lng) {
			return domain.GeocodeResult{
				Coordinate: domain.Coordinate{Latitude: *loc.Lat, Longitude: *loc.Lng},
				OK:         true,
			}
		}
	}

	c.logger.Info("geocode returned no usable result", zap.String("zip", zip), zap.String("status", data.Status))
	return domain.GeocodeResult{Reason: domain.ReasonNoResults}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
