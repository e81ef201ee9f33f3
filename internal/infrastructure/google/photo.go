package google

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/verre/backend/internal/domain"
)

const (
	minPhotoSize     = 32
	maxPhotoSize     = 1024
	defaultPhotoSize = 256
	maxPhotoBytes    = 10 << 20
)

// PhotoRequest identifies a place photo either by its resource name
// (places/{id}/photos/{ref}) or by a legacy photo reference. A zero Width or
// Height means the default size.
type PhotoRequest struct {
	Name      string
	Reference string
	Width     int
	Height    int
}

// Photo is the fetched image
type Photo struct {
	ContentType string
	Body        []byte
}

// ClampPhotoSize bounds a requested dimension to [32, 1024]
func ClampPhotoSize(v int) int {
	return clampInt(v, minPhotoSize, maxPhotoSize)
}

// ParsePhotoSize parses a query value. Only a missing or unparseable value
// falls back to the default; anything else is clamped.
func ParsePhotoSize(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultPhotoSize
	}
	return ClampPhotoSize(n)
}

// photoDimension treats an unset (zero) dimension as the default
func photoDimension(v int) int {
	if v == 0 {
		return defaultPhotoSize
	}
	return ClampPhotoSize(v)
}

// FetchPhoto downloads a place photo
func (c *Client) FetchPhoto(ctx context.Context, pr PhotoRequest) (*Photo, error) {
	if pr.Name == "" && pr.Reference == "" {
		return nil, eris.Wrap(domain.ErrInvalidRequest, "photo name or reference is required")
	}
	if c.apiKey == "" {
		return nil, domain.ErrMissingAPIKey
	}

	w, h := photoDimension(pr.Width), photoDimension(pr.Height)

	var req *http.Request
	var err error
	switch {
	case pr.Name != "":
		req, err = c.newPhotoRequest(ctx, pr.Name, w, h)
	default:
		params := url.Values{}
		params.Set("maxwidth", strconv.Itoa(w))
		params.Set("photo_reference", pr.Reference)
		params.Set("key", c.apiKey)
		req, err = newGET(ctx, c.legacyBaseURL+"/photo?"+params.Encode())
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "rate limiter")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "photo request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("photo fetch failed", zap.Int("status", resp.StatusCode))
		return nil, eris.Wrapf(domain.ErrUpstream, "photo status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return nil, eris.Wrap(err, "read photo body")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return &Photo{ContentType: contentType, Body: body}, nil
}

func (c *Client) newPhotoRequest(ctx context.Context, name string, w, h int) (*http.Request, error) {
	path, err := escapePhotoName(name)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("maxWidthPx", strconv.Itoa(w))
	params.Set("maxHeightPx", strconv.Itoa(h))

	req, err := newGET(ctx, c.placesBaseURL+"/"+path+"/media?"+params.Encode())
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	return req, nil
}

// escapePhotoName decodes the name once and re-escapes each path segment,
// so callers may pass it raw or percent-encoded
func escapePhotoName(name string) (string, error) {
	decoded, err := url.PathUnescape(name)
	if err != nil {
		return "", eris.Wrap(domain.ErrInvalidRequest, "malformed photo name")
	}
	decoded = strings.Trim(decoded, "/")
	if decoded == "" {
		return "", eris.Wrap(domain.ErrInvalidRequest, "empty photo name")
	}

	segments := strings.Split(decoded, "/")
	for i, s := range segments {
		if s == ".." || s == "." {
			return "", eris.Wrap(domain.ErrInvalidRequest, "invalid photo name")
		}
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/"), nil
}
