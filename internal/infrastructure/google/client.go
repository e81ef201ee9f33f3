// Package google talks to the Google Maps Platform: geocoding, nearby
// places (both the Places API (New) and the legacy nearbysearch endpoint),
// and place photos.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/verre/backend/internal/domain"
)

const (
	// legacy nearbysearch tokens only become valid after a short delay
	defaultPageDelay  = 1500 * time.Millisecond
	defaultRetryDelay = 300 * time.Millisecond
	defaultTimeout    = 10 * time.Second

	photoProxyPath = "/api/placesPhoto"
)

// Options configures a Client
type Options struct {
	APIKey              string
	GeocodeBaseURL      string
	PlacesBaseURL       string
	LegacyPlacesBaseURL string
	Timeout             time.Duration
	RequestsPerSecond   int
}

// Client handles communication with the Google Maps Platform APIs
type Client struct {
	httpClient     *http.Client
	apiKey         string
	geocodeBaseURL string
	placesBaseURL  string
	legacyBaseURL  string
	rateLimiter    *rate.Limiter
	pageDelay      time.Duration
	retryDelay     time.Duration
	logger         *zap.Logger
}

// NewClient creates a new Google Maps Platform client
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:         opts.APIKey,
		geocodeBaseURL: opts.GeocodeBaseURL,
		placesBaseURL:  opts.PlacesBaseURL,
		legacyBaseURL:  opts.LegacyPlacesBaseURL,
		rateLimiter:    rate.NewLimiter(rate.Limit(rps), rps),
		pageDelay:      defaultPageDelay,
		retryDelay:     defaultRetryDelay,
		logger:         zap.L().Named("google"),
	}
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// doJSON executes req and decodes a 200 response body into out
func (c *Client) doJSON(req *http.Request, out interface{}) error {
	if err := c.rateLimiter.Wait(req.Context()); err != nil {
		return eris.Wrap(err, "rate limiter")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return eris.Wrapf(domain.ErrUpstream, "status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func newGET(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Verre/1.0")
	return req, nil
}

func isUpstream(err error) bool {
	return errors.Is(err, domain.ErrUpstream)
}
