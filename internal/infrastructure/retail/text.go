package retail

import (
	"regexp"
	"strings"

	"github.com/verre/backend/internal/domain"
)

var whitespace = regexp.MustCompile(`\s+`)

// Sanitize collapses whitespace and decodes the entities retailers leave in
// alt text
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ClosestStore picks the nearest discovered place whose name contains the
// brand. Without one, only the brand name and link are known.
func ClosestStore(brand string, places []domain.Place, link string) *domain.StoreInfo {
	b := strings.ToLower(brand)

	var best *domain.Place
	for i := range places {
		p := &places[i]
		if !strings.Contains(strings.ToLower(p.Name), b) {
			continue
		}
		if best == nil || p.MetersOrInf() < best.MetersOrInf() {
			best = p
		}
	}

	store := &domain.StoreInfo{Name: brand, URL: link}
	if best != nil {
		store.Name = best.Name
		store.Address = best.Address
		store.DistanceMeters = best.DistanceMeters
		store.OpenNow = best.OpenNow
	}
	return store
}
