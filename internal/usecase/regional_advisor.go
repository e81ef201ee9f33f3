package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verre/backend/internal/domain"
)

const (
	advisorSystemPrompt = "You are a concise sommelier. Respond ONLY with JSON (no code fences, no prose)."
	minRegionalWines    = 3
)

// RegionalAdvisorConfig holds configuration for the regional wine advisor
type RegionalAdvisorConfig struct {
	Model    string
	CacheTTL time.Duration
}

// RegionalAdvisor asks a language model which wines a region is known for
type RegionalAdvisor struct {
	model    domain.LanguageModel
	cache    domain.CacheRepository
	name     string
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewRegionalAdvisor creates an advisor. model may be nil, in which case
// every call returns the fallback set.
func NewRegionalAdvisor(model domain.LanguageModel, cache domain.CacheRepository, config RegionalAdvisorConfig) *RegionalAdvisor {
	ttl := config.CacheTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &RegionalAdvisor{
		model:    model,
		cache:    cache,
		name:     config.Model,
		cacheTTL: ttl,
		logger:   zap.L().Named("advisor"),
	}
}

// PopularWines returns between three and six regional wines for a coordinate.
// Model failures and unusable output produce FallbackRegionalWines; answers
// with fewer than three records are padded from it.
func (a *RegionalAdvisor) PopularWines(ctx context.Context, at domain.Coordinate) []domain.RegionalWine {
	key := fmt.Sprintf("regional:%.2f,%.2f", at.Latitude, at.Longitude)
	if a.cache != nil {
		if cached, err := a.cache.Get(ctx, key); err == nil {
			if wines, ok := cached.([]domain.RegionalWine); ok && len(wines) > 0 {
				return wines
			}
		}
	}

	if a.model == nil {
		return FallbackRegionalWines()
	}

	raw, err := a.model.Complete(ctx, domain.Completion{
		Model:       a.name,
		System:      advisorSystemPrompt,
		Prompt:      regionalPrompt(at),
		Temperature: 0.2,
		MaxTokens:   800,
		JSON:        true,
	})
	if err != nil {
		a.logger.Warn("regional wine lookup failed, using fallback", zap.Error(err))
		return FallbackRegionalWines()
	}

	wines := CoerceRegionalWines(raw)
	if len(wines) == 0 {
		a.logger.Info("regional wine output unusable, using fallback", zap.Int("raw_len", len(raw)))
		return FallbackRegionalWines()
	}
	wines = padRegionalWines(wines)

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, wines, a.cacheTTL); err != nil {
			a.logger.Warn("failed to cache regional wines", zap.Error(err))
		}
	}
	return wines
}

func regionalPrompt(at domain.Coordinate) string {
	return fmt.Sprintf("Given latitude=%.5f and longitude=%.5f, ", at.Latitude, at.Longitude) +
		"list 4–6 **popular wines** associated with this region (styles or emblematic grapes/labels). " +
		`Return as {"wines":[{` +
		`"name":"",` +
		`"style":"red|white|rosé|sparkling|dessert|orange|other",` +
		`"grape":"",` +
		`"region":"",` +
		`"profile":"1–2 short sentences of tasting notes",` +
		`"typical_abv": <number>,` +
		`"typical_price":{"currency":"$","glass":<number|null>,"bottle":<number|null>},` +
		`"food_pairings":["",""],` +
		`"notable_producers":["",""]` +
		`}]}. Keep everything short and accurate. Do not include any keys not specified.`
}

// padRegionalWines tops up short answers with fallback records so callers
// always get at least three
func padRegionalWines(wines []domain.RegionalWine) []domain.RegionalWine {
	if len(wines) >= minRegionalWines {
		return wines
	}
	have := make(map[string]bool, len(wines))
	for _, w := range wines {
		have[strings.ToLower(w.Name)] = true
	}
	for _, fb := range FallbackRegionalWines() {
		if len(wines) >= minRegionalWines {
			break
		}
		if !have[strings.ToLower(fb.Name)] {
			wines = append(wines, fb)
		}
	}
	return wines
}

func f64(v float64) *float64 { return &v }

// FallbackRegionalWines is the fixed set shown when no model answer is usable
func FallbackRegionalWines() []domain.RegionalWine {
	return []domain.RegionalWine{
		{
			Name:             "Regional Red Blend",
			Style:            domain.StyleRed,
			Grape:            "Blend",
			Region:           "Local appellation",
			Profile:          "Medium-bodied, red berry and subtle spice.",
			TypicalABV:       f64(13.5),
			TypicalPrice:     domain.TypicalPrice{Currency: "$", Glass: f64(10), Bottle: f64(38)},
			FoodPairings:     []string{"Roast chicken", "Mushroom pasta"},
			NotableProducers: []string{"Local Estate", "Village Winery"},
		},
		{
			Name:             "Coastal Rosé",
			Style:            domain.StyleRose,
			Grape:            "Grenache",
			Region:           "Nearby coastal hills",
			Profile:          "Dry and crisp with strawberry and citrus.",
			TypicalABV:       f64(12.5),
			TypicalPrice:     domain.TypicalPrice{Currency: "$", Glass: f64(9), Bottle: f64(32)},
			FoodPairings:     []string{"Salads", "Seafood"},
			NotableProducers: []string{"Sunset Cellars"},
		},
		{
			Name:             "Cool-Climate Chardonnay",
			Style:            domain.StyleWhite,
			Grape:            "Chardonnay",
			Region:           "Regional AVA",
			Profile:          "Citrus, green apple, light oak.",
			TypicalABV:       f64(13.0),
			TypicalPrice:     domain.TypicalPrice{Currency: "$", Glass: f64(12), Bottle: f64(45)},
			FoodPairings:     []string{"Grilled fish", "Roast vegetables"},
			NotableProducers: []string{"Hillside Winery"},
		},
	}
}
