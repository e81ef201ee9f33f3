package usecase

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/verre/backend/internal/domain"
	"github.com/verre/backend/internal/infrastructure/retail"
)

var varietalPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"pinot noir", regexp.MustCompile(`(?i)pinot\s*noir`)},
	{"cabernet sauvignon", regexp.MustCompile(`(?i)cab(ernet)?\s*sauv`)},
	{"sauvignon blanc", regexp.MustCompile(`(?i)sauvignon\s*blanc`)},
	{"chardonnay", regexp.MustCompile(`(?i)chardonnay`)},
	{"merlot", regexp.MustCompile(`(?i)merlot`)},
	{"syrah/shiraz", regexp.MustCompile(`(?i)(syrah|shiraz)`)},
	{"zinfandel", regexp.MustCompile(`(?i)zinfandel`)},
	{"sparkling", regexp.MustCompile(`(?i)(sparkling|prosecco|cava|champagne)`)},
	{"rosé", regexp.MustCompile(`(?i)(rose|rosé)`)},
}

// NormalizeVarietal maps a varietal onto the canonical vocabulary, or
// returns it sanitized when nothing matches
func NormalizeVarietal(v string) string {
	clean := retail.Sanitize(v)
	for _, vp := range varietalPatterns {
		if vp.pattern.MatchString(clean) {
			return vp.name
		}
	}
	return clean
}

// NormalizeItem drops a non-finite price and canonicalizes the varietal
func NormalizeItem(it domain.RetailWineItem) domain.RetailWineItem {
	if it.Price != nil && (math.IsNaN(it.Price.Amount) || math.IsInf(it.Price.Amount, 0)) {
		it.Price = nil
	}
	if it.Varietal != "" {
		it.Varietal = NormalizeVarietal(it.Varietal)
	}
	return it
}

// Dedupe keeps the first item for each lowercased name and store name
func Dedupe(items []domain.RetailWineItem) []domain.RetailWineItem {
	seen := make(map[string]bool, len(items))
	out := make([]domain.RetailWineItem, 0, len(items))
	for _, it := range items {
		key := strings.ToLower(it.Name) + "|" + strings.ToLower(it.StoreName())
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

// FilterByDistance keeps items whose store distance is known and at most
// maxMeters
func FilterByDistance(items []domain.RetailWineItem, maxMeters float64) []domain.RetailWineItem {
	out := make([]domain.RetailWineItem, 0, len(items))
	for _, it := range items {
		if it.Store == nil || it.Store.DistanceMeters == nil {
			continue
		}
		if *it.Store.DistanceMeters <= maxMeters {
			out = append(out, it)
		}
	}
	return out
}

// SortItems orders by store distance, then price, then name. Unknown
// distances and prices sort last.
func SortItems(items []domain.RetailWineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i].DistanceOrInf(), items[j].DistanceOrInf()
		if di != dj {
			return di < dj
		}
		pi, pj := items[i].PriceOrInf(), items[j].PriceOrInf()
		if pi != pj {
			return pi < pj
		}
		ni, nj := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name)
		if ni != nj {
			return ni < nj
		}
		return items[i].Name < items[j].Name
	})
}

// BackfillImages gives image-less items the photo of the nearest place
func BackfillImages(items []domain.RetailWineItem, places []domain.Place) {
	if len(places) == 0 {
		return
	}

	nearest := places[0]
	for _, p := range places[1:] {
		if p.MetersOrInf() < nearest.MetersOrInf() {
			nearest = p
		}
	}
	if nearest.PhotoURL == "" {
		return
	}

	for i := range items {
		if items[i].Image == "" {
			items[i].Image = nearest.PhotoURL
		}
	}
}

func boolPtr(b bool) *bool { return &b }

// MockResults is the fixed two-item set returned when nothing was found,
// cut to limit (at least one item)
func MockResults(q string, limit int) []domain.RetailWineItem {
	pinot, sauvBlanc := "Reserve Pinot Noir", "Crisp Sauvignon Blanc"
	if q != "" {
		pinot = capitalize(q) + " Reserve Pinot Noir"
		sauvBlanc = capitalize(q) + " Sauvignon Blanc"
	}

	sample := []domain.RetailWineItem{
		{
			ID:       "mock-1",
			Name:     pinot,
			Varietal: "Pinot Noir",
			Price:    &domain.Money{Amount: 24.99, Currency: "USD"},
			Image:    "https://images.unsplash.com/photo-1523365280197-f1783db9fe62?w=800&q=80",
			Rating:   f64(4.3),
			Store: &domain.StoreInfo{
				Name:           "Neighborhood Wine & Spirits",
				Address:        "123 Main St",
				DistanceMeters: f64(1200),
				OpenNow:        boolPtr(true),
				URL:            "https://example.com/pinot",
			},
		},
		{
			ID:       "mock-2",
			Name:     sauvBlanc,
			Varietal: "Sauvignon Blanc",
			Price:    &domain.Money{Amount: 17.5, Currency: "USD"},
			Image:    "https://images.unsplash.com/photo-1541976076758-347942db197e?w=800&q=80",
			Rating:   f64(4.1),
			Store: &domain.StoreInfo{
				Name:           "City Bottle Shop",
				Address:        "456 Oak Ave",
				DistanceMeters: f64(2600),
				OpenNow:        boolPtr(false),
				URL:            "https://example.com/sb",
			},
		},
	}

	return sample[:clampInt(limit, 1, len(sample))]
}
