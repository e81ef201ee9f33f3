package retail

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verre/backend/internal/domain"
)

// DefaultTimeout is the shared ceiling for one scraper fan-out
const DefaultTimeout = 9 * time.Second

// Registry is an ordered set of retailer scrapers
type Registry struct {
	scrapers []domain.RetailerScraper
}

// NewRegistry creates a registry from scrapers, in order
func NewRegistry(scrapers ...domain.RetailerScraper) *Registry {
	return &Registry{scrapers: scrapers}
}

// DefaultRegistry holds the built-in retailers plus any extra specs
func DefaultRegistry(client *http.Client, extra ...RetailerSpec) *Registry {
	r := NewRegistry(
		NewSelectorScraper(TotalWine, client),
		NewSelectorScraper(BevMo, client),
	)
	for _, spec := range extra {
		r.Register(NewSelectorScraper(spec, client))
	}
	return r
}

// Register appends a scraper
func (r *Registry) Register(s domain.RetailerScraper) {
	r.scrapers = append(r.scrapers, s)
}

// Scrapers returns all registered scrapers
func (r *Registry) Scrapers() []domain.RetailerScraper {
	return r.scrapers
}

// Select applies the selection policy. With an allowlist, a scraper runs when
// its brand contains any allowlisted name. Without one, it runs when no
// places were discovered or when its brand and some nearby place name
// contain one another.
func (r *Registry) Select(allowlist []string, places []domain.Place) []domain.RetailerScraper {
	allowed := make([]string, 0, len(allowlist))
	for _, a := range allowlist {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			allowed = append(allowed, a)
		}
	}

	nearby := make([]string, 0, len(places))
	for _, p := range places {
		if n := strings.ToLower(strings.TrimSpace(p.Name)); n != "" {
			nearby = append(nearby, n)
		}
	}

	selected := make([]domain.RetailerScraper, 0, len(r.scrapers))
	for _, s := range r.scrapers {
		brand := strings.ToLower(s.Brand())
		switch {
		case len(allowed) > 0:
			if containsAny(brand, allowed) {
				selected = append(selected, s)
			}
		case len(places) == 0 || fuzzyMatch(brand, nearby):
			selected = append(selected, s)
		}
	}
	return selected
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func fuzzyMatch(brand string, names []string) bool {
	for _, n := range names {
		if strings.Contains(n, brand) || strings.Contains(brand, n) {
			return true
		}
	}
	return false
}

// RunAll runs scrapers concurrently under one shared timeout. Results are
// returned in scraper order; a scraper that errors or misses the deadline
// contributes nothing.
func RunAll(ctx context.Context, scrapers []domain.RetailerScraper, query domain.RetailQuery, timeout time.Duration) []domain.RetailWineItem {
	if len(scrapers) == 0 {
		return []domain.RetailWineItem{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := zap.L().Named("retail")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		results  = make([][]domain.RetailWineItem, len(scrapers))
		finished bool
	)

	var g errgroup.Group
	for i, s := range scrapers {
		g.Go(func() error {
			items, err := s.Search(ctx, query)
			if err != nil {
				logger.Warn("scraper failed", zap.String("brand", s.Brand()), zap.Error(err))
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			if !finished {
				results[i] = items
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("scraper fan-out timed out", zap.Duration("timeout", timeout))
	}

	mu.Lock()
	finished = true
	mu.Unlock()

	out := make([]domain.RetailWineItem, 0)
	for _, items := range results {
		out = append(out, items...)
	}
	return out
}
