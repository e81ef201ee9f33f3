// Package retail scrapes wine listings from retailer search pages.
package retail

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/verre/backend/internal/domain"
)

const (
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome Safari"
	maxPageBytes = 5 << 20
)

var pricePattern = regexp.MustCompile(`\$([0-9]+(?:\.[0-9]{2})?)`)

// RetailerSpec describes a retailer whose search page can be scraped with
// a single CSS selector per product card
type RetailerSpec struct {
	Brand        string `yaml:"brand"`
	BaseURL      string `yaml:"base_url"`
	SearchPath   string `yaml:"search_path"`
	QueryParam   string `yaml:"query_param"`
	CardSelector string `yaml:"card_selector"`
	MaxItems     int    `yaml:"max_items"`
	IDPrefix     string `yaml:"id_prefix"`
}

// TotalWine is the Total Wine & More search page
var TotalWine = RetailerSpec{
	Brand:        "Total Wine & More",
	BaseURL:      "https://www.totalwine.com",
	SearchPath:   "/search/all",
	QueryParam:   "text",
	CardSelector: `a[data-testid="productCard"]`,
	MaxItems:     12,
	IDPrefix:     "totalwine",
}

// BevMo is the BevMo! search page
var BevMo = RetailerSpec{
	Brand:        "BevMo!",
	BaseURL:      "https://www.bevmo.com",
	SearchPath:   "/search",
	QueryParam:   "q",
	CardSelector: "a.product-tile__image-link",
	MaxItems:     10,
	IDPrefix:     "bevmo",
}

// Validate checks the fields a scraper cannot work without
func (s RetailerSpec) Validate() error {
	if strings.TrimSpace(s.Brand) == "" {
		return eris.New("retailer brand is required")
	}
	if _, err := url.ParseRequestURI(s.BaseURL); err != nil {
		return eris.Wrapf(err, "retailer %q: invalid base_url", s.Brand)
	}
	if s.CardSelector == "" {
		return eris.Errorf("retailer %q: card_selector is required", s.Brand)
	}
	return nil
}

// SelectorScraper implements domain.RetailerScraper for a RetailerSpec
type SelectorScraper struct {
	spec       RetailerSpec
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSelectorScraper creates a scraper. A nil client uses http.DefaultClient;
// deadlines come from the request context.
func NewSelectorScraper(spec RetailerSpec, client *http.Client) *SelectorScraper {
	if client == nil {
		client = http.DefaultClient
	}
	if spec.MaxItems <= 0 {
		spec.MaxItems = 10
	}
	if spec.QueryParam == "" {
		spec.QueryParam = "q"
	}
	if spec.IDPrefix == "" {
		spec.IDPrefix = slug(spec.Brand)
	}
	return &SelectorScraper{
		spec:       spec,
		httpClient: client,
		logger:     zap.L().Named("retail").With(zap.String("brand", spec.Brand)),
	}
}

// Brand returns the retailer's display name
func (s *SelectorScraper) Brand() string {
	return s.spec.Brand
}

// SearchURL builds the retailer search URL for q
func (s *SelectorScraper) SearchURL(q string) string {
	return strings.TrimRight(s.spec.BaseURL, "/") + s.spec.SearchPath + "?" + s.spec.QueryParam + "=" + url.QueryEscape(q)
}

// Search fetches the search page and extracts product cards
func (s *SelectorScraper) Search(ctx context.Context, query domain.RetailQuery) ([]domain.RetailWineItem, error) {
	html, err := s.fetch(ctx, s.SearchURL(query.Text))
	if err != nil {
		return []domain.RetailWineItem{}, err
	}

	items, err := s.Parse(html, query.Places)
	if err != nil {
		return []domain.RetailWineItem{}, err
	}
	s.logger.Debug("scraped", zap.Int("items", len(items)))
	return items, nil
}

// Parse extracts up to MaxItems product cards from a search page
func (s *SelectorScraper) Parse(html string, places []domain.Place) ([]domain.RetailWineItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "parse search page")
	}

	base, _ := url.Parse(s.spec.BaseURL)
	items := make([]domain.RetailWineItem, 0)

	doc.Find(s.spec.CardSelector).EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= s.spec.MaxItems {
			return false
		}

		img := card.Find("img").First()
		name := Sanitize(img.AttrOr("alt", ""))
		if name == "" {
			name = "Wine"
		}

		href, ok := card.Attr("href")
		if !ok {
			href = card.Find("a[href]").First().AttrOr("href", "")
		}
		link := resolve(base, href)

		item := domain.RetailWineItem{
			ID:    fmt.Sprintf("%s-%d-%s", s.spec.IDPrefix, i, firstRunes(name, 12)),
			Name:  name,
			Image: resolve(base, img.AttrOr("src", "")),
			Store: ClosestStore(s.spec.Brand, places, link),
		}
		if amount, ok := cardPrice(card); ok {
			item.Price = &domain.Money{Amount: amount, Currency: "USD"}
		}

		items = append(items, item)
		return true
	})

	return items, nil
}

func (s *SelectorScraper) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "fetch search page")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", eris.Wrapf(domain.ErrUpstream, "search page status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", eris.Wrap(err, "read search page")
	}
	return string(body), nil
}

// cardPrice finds the first $NN or $NN.NN in the card text, then in its markup
func cardPrice(card *goquery.Selection) (float64, bool) {
	m := pricePattern.FindStringSubmatch(card.Text())
	if m == nil {
		if html, err := goquery.OuterHtml(card); err == nil {
			m = pricePattern.FindStringSubmatch(html)
		}
	}
	if m == nil {
		return 0, false
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http") || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return nonSlug.ReplaceAllString(strings.ToLower(s), "")
}
