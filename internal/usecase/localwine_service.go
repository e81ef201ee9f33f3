package usecase

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verre/backend/internal/domain"
	"github.com/verre/backend/internal/geo"
	"github.com/verre/backend/internal/infrastructure/menuprobe"
)

const (
	maxRestaurantCandidates = 20
	maxRestaurantResults    = 12
	ratingTieTolerance      = 0.01

	CenterSourceZip = "zip"
	CenterSourceGPS = "gps"
)

// LocalWineQuery is a nearby wine-menu discovery request. Either Zip or both
// coordinates must be set.
type LocalWineQuery struct {
	Zip       string
	Latitude  *float64
	Longitude *float64
	Radius    string
}

// Center echoes the resolved search origin
type Center struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	RadiusMiles int     `json:"radius_miles"`
	Source      string  `json:"source"`
	Zip         string  `json:"zip,omitempty"`
}

// Sources names where each list came from
type Sources struct {
	Restaurants string `json:"restaurants"`
	Wines       string `json:"wines"`
}

// LocalWineResult is the discovery response
type LocalWineResult struct {
	Center      Center                     `json:"center"`
	Source      Sources                    `json:"source"`
	Wines       []domain.RegionalWine      `json:"wines"`
	Restaurants []domain.WineMenuCandidate `json:"restaurants"`
}

// LocalWineServiceConfig holds configuration for the discovery service
type LocalWineServiceConfig struct {
	ProbeBatchSize int
	MaxCandidates  int
}

// LocalWineService finds nearby restaurants that publish a wine menu and
// the wines the region is known for
type LocalWineService struct {
	geocoder      domain.Geocoder
	places        domain.PlacesFinder
	prober        domain.MenuProber
	advisor       *RegionalAdvisor
	model         domain.LanguageModel
	batchSize     int
	maxCandidates int
	logger        *zap.Logger
}

// NewLocalWineService creates a discovery service with dependencies
func NewLocalWineService(
	geocoder domain.Geocoder,
	places domain.PlacesFinder,
	prober domain.MenuProber,
	advisor *RegionalAdvisor,
	model domain.LanguageModel,
	config LocalWineServiceConfig,
) *LocalWineService {
	batch := config.ProbeBatchSize
	if batch < 1 {
		batch = menuprobe.DefaultBatchSize
	}
	maxCandidates := config.MaxCandidates
	if maxCandidates < 1 || maxCandidates > maxRestaurantCandidates {
		maxCandidates = maxRestaurantCandidates
	}
	return &LocalWineService{
		geocoder:      geocoder,
		places:        places,
		prober:        prober,
		advisor:       advisor,
		model:         model,
		batchSize:     batch,
		maxCandidates: maxCandidates,
		logger:        zap.L().Named("localwine"),
	}
}

// Discover resolves the center, probes nearby restaurants for wine menus and
// fetches regional wines concurrently.
func (s *LocalWineService) Discover(ctx context.Context, q LocalWineQuery) (*LocalWineResult, error) {
	if s.model == nil {
		return nil, eris.Wrap(domain.ErrMisconfigured, "language model API key is not set")
	}

	center, err := s.resolveCenter(ctx, q)
	if err != nil {
		return nil, err
	}
	at := domain.Coordinate{Latitude: center.Latitude, Longitude: center.Longitude}

	var (
		restaurants []domain.WineMenuCandidate
		wines       []domain.RegionalWine
	)

	var g errgroup.Group
	g.Go(func() error {
		restaurants = s.findRestaurants(ctx, at, center.RadiusMiles)
		return nil
	})
	g.Go(func() error {
		wines = s.advisor.PopularWines(ctx, at)
		return nil
	})
	_ = g.Wait()

	s.logger.Info("local wine discovery",
		zap.String("source", center.Source),
		zap.Int("radius_miles", center.RadiusMiles),
		zap.Int("restaurants", len(restaurants)),
		zap.Int("wines", len(wines)),
	)

	return &LocalWineResult{
		Center: center,
		Source: Sources{
			Restaurants: "google-places-new+wine-menu-probe",
			Wines:       "gemini-popular",
		},
		Wines:       wines,
		Restaurants: restaurants,
	}, nil
}

func (s *LocalWineService) resolveCenter(ctx context.Context, q LocalWineQuery) (Center, error) {
	center := Center{RadiusMiles: ClampRadius(q.Radius)}

	if q.Zip != "" {
		if !domain.IsZip5(q.Zip) {
			return center, eris.Wrap(domain.ErrInvalidRequest, "Invalid ZIP format. Use 5-digit US ZIP.")
		}
		res := s.geocoder.GeocodeZip(ctx, q.Zip)
		if !res.OK || !res.Coordinate.Valid() {
			s.logger.Info("zip not resolvable", zap.String("zip", q.Zip), zap.String("reason", res.Reason))
			return center, eris.Wrap(domain.ErrInvalidRequest, "Unable to resolve ZIP to coordinates.")
		}
		center.Latitude, center.Longitude = res.Latitude, res.Longitude
		center.Source = CenterSourceZip
		center.Zip = q.Zip
		return center, nil
	}

	if q.Latitude == nil || q.Longitude == nil {
		return center, eris.Wrap(domain.ErrInvalidRequest, "Latitude and longitude are required when ZIP is not provided.")
	}
	if !finite(*q.Latitude) || !finite(*q.Longitude) {
		return center, eris.Wrap(domain.ErrInvalidRequest, "Latitude/longitude must be valid numbers.")
	}
	center.Latitude, center.Longitude = *q.Latitude, *q.Longitude
	center.Source = CenterSourceGPS
	return center, nil
}

func (s *LocalWineService) findRestaurants(ctx context.Context, at domain.Coordinate, radiusMiles int) []domain.WineMenuCandidate {
	nearby := s.places.NearbyRestaurants(ctx, at, geo.MilesToMeters(float64(radiusMiles)), s.maxCandidates)
	if len(nearby) > s.maxCandidates {
		nearby = nearby[:s.maxCandidates]
	}

	probeable := make([]domain.Place, 0, len(nearby))
	for _, p := range nearby {
		if p.Website != "" || p.MapsURL != "" {
			probeable = append(probeable, p)
		}
	}

	found := menuprobe.ProbeAll(ctx, s.prober, probeable, s.batchSize)
	return RankRestaurants(found)
}

// RankRestaurants orders by rating descending; ratings within 0.01 of each
// other are ordered by distance. At most 12 are kept.
func RankRestaurants(candidates []domain.WineMenuCandidate) []domain.WineMenuCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i].RatingOrZero(), candidates[j].RatingOrZero()
		if math.Abs(ri-rj) > ratingTieTolerance {
			return ri > rj
		}
		return candidates[i].MilesOrInf() < candidates[j].MilesOrInf()
	})
	if len(candidates) > maxRestaurantResults {
		candidates = candidates[:maxRestaurantResults]
	}
	return candidates
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
