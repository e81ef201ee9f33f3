package usecase

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/verre/backend/internal/domain"
	"github.com/verre/backend/internal/infrastructure/retail"
)

const (
	DefaultSearchRadiusMeters = 8000
	DefaultSearchLimit        = 24
	minDiscoveryRadiusMeters  = 1000
)

// WineSearchRequest is the retail search body
type WineSearchRequest struct {
	Query             string   `json:"q"`
	Lat               *float64 `json:"lat"`
	Lng               *float64 `json:"lng"`
	RadiusMeters      *float64 `json:"radiusMeters"`
	MaxDistanceMeters *float64 `json:"maxDistanceMeters"`
	Limit             *int     `json:"limit"`
	StoresAllowlist   []string `json:"storesAllowlist"`
}

// WineSearchResult is the retail search response
type WineSearchResult struct {
	Items []domain.RetailWineItem `json:"items"`
}

// SearchObserver is told about every completed wine search
type SearchObserver interface {
	SearchCompleted(ctx context.Context, req WineSearchRequest, result WineSearchResult)
}

type noopObserver struct{}

func (noopObserver) SearchCompleted(context.Context, WineSearchRequest, WineSearchResult) {}

// LoggingObserver logs a one-line summary of each search
type LoggingObserver struct {
	Logger *zap.Logger
}

// SearchCompleted implements SearchObserver
func (o LoggingObserver) SearchCompleted(_ context.Context, req WineSearchRequest, result WineSearchResult) {
	logger := o.Logger
	if logger == nil {
		logger = zap.L()
	}
	logger.Info("wine search completed",
		zap.String("q", req.Query),
		zap.Bool("has_coordinates", req.Lat != nil && req.Lng != nil),
		zap.Int("items", len(result.Items)),
	)
}

// WineSearchServiceConfig holds configuration for the retail search
type WineSearchServiceConfig struct {
	ScraperTimeout time.Duration
	Observer       SearchObserver
}

// WineSearchService aggregates retailer listings near a location
type WineSearchService struct {
	places   domain.PlacesFinder
	registry *retail.Registry
	timeout  time.Duration
	observer SearchObserver
	logger   *zap.Logger
}

// NewWineSearchService creates a retail search service with dependencies
func NewWineSearchService(places domain.PlacesFinder, registry *retail.Registry, config WineSearchServiceConfig) *WineSearchService {
	timeout := config.ScraperTimeout
	if timeout <= 0 {
		timeout = retail.DefaultTimeout
	}
	observer := config.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	return &WineSearchService{
		places:   places,
		registry: registry,
		timeout:  timeout,
		observer: observer,
		logger:   zap.L().Named("winesearch"),
	}
}

// Search discovers nearby stores, runs the applicable scrapers, then merges,
// filters, sorts and backfills their listings. It never returns an empty
// list: when nothing is found the mock set is returned instead.
func (s *WineSearchService) Search(ctx context.Context, req WineSearchRequest) (*WineSearchResult, error) {
	req.Query = strings.TrimSpace(req.Query)
	hasCoords := req.Lat != nil && req.Lng != nil
	if !hasCoords && req.Query == "" {
		return nil, eris.Wrap(domain.ErrInvalidRequest, "Provide {lat,lng} for proximity search (optionally with 'q').")
	}

	limit := DefaultSearchLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	var places []domain.Place
	var center *domain.Coordinate
	if hasCoords {
		center = &domain.Coordinate{Latitude: *req.Lat, Longitude: *req.Lng}
		places = s.places.NearbyStores(ctx, *center, s.discoveryRadius(req))
	}

	scrapers := s.registry.Select(req.StoresAllowlist, places)
	raw := retail.RunAll(ctx, scrapers, domain.RetailQuery{Text: req.Query, Center: center, Places: places}, s.timeout)

	items := make([]domain.RetailWineItem, 0, len(raw))
	for _, it := range raw {
		if it.ID == "" && it.Name == "" {
			continue
		}
		items = append(items, NormalizeItem(it))
	}
	items = Dedupe(items)

	if req.MaxDistanceMeters != nil {
		items = FilterByDistance(items, *req.MaxDistanceMeters)
	}

	SortItems(items)
	BackfillImages(items, places)

	if len(items) == 0 {
		items = MockResults(req.Query, limit)
	} else if limit < 1 {
		items = items[:1]
	} else if len(items) > limit {
		items = items[:limit]
	}

	s.logger.Debug("wine search",
		zap.Int("stores", len(places)),
		zap.Int("scrapers", len(scrapers)),
		zap.Int("raw_items", len(raw)),
		zap.Int("items", len(items)),
	)

	result := &WineSearchResult{Items: items}
	s.observer.SearchCompleted(ctx, req, *result)
	return result, nil
}

// discoveryRadius is twice the hard distance filter when one is given, and
// never below 1000m
func (s *WineSearchService) discoveryRadius(req WineSearchRequest) float64 {
	radius := float64(DefaultSearchRadiusMeters)
	if req.RadiusMeters != nil && finite(*req.RadiusMeters) && *req.RadiusMeters > 0 {
		radius = *req.RadiusMeters
	}
	if req.MaxDistanceMeters != nil && finite(*req.MaxDistanceMeters) {
		radius = 2 * *req.MaxDistanceMeters
	}
	return math.Max(radius, minDiscoveryRadiusMeters)
}
