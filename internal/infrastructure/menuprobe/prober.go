// Package menuprobe guesses whether a restaurant publishes a wine menu by
// fetching a handful of likely pages and scanning them for wine keywords.
package menuprobe

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verre/backend/internal/domain"
)

const (
	// DefaultTimeout bounds each candidate fetch
	DefaultTimeout = 3500 * time.Millisecond
	// DefaultBatchSize is the number of probes run concurrently
	DefaultBatchSize = 5

	maxBodyChars = 200000
)

// guessedPaths are tried after the site root, in order
var guessedPaths = []string{"menu", "wine", "wine-list", "drinks", "beverage"}

var wineKeywords = regexp.MustCompile(`(?i)\b(wine list|wines|wine|by the glass|bottle)\b`)

// Prober fetches candidate pages for wine keywords
type Prober struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *zap.Logger
}

// NewProber creates a prober with the given per-candidate timeout
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		httpClient: &http.Client{},
		timeout:    timeout,
		userAgent:  "Mozilla/5.0 (compatible; VerreBot/1.0)",
		logger:     zap.L().Named("menuprobe"),
	}
}

// Candidates returns the ordered list of URLs to try for a business
func Candidates(website, mapsURL string) []string {
	var out []string
	if website != "" {
		out = append(out, website)
		base := strings.TrimRight(website, "/")
		for _, p := range guessedPaths {
			out = append(out, base+"/"+p)
		}
	}
	if mapsURL != "" {
		out = append(out, mapsURL)
	}
	return out
}

// Probe returns the first candidate page mentioning wine. It never fails:
// fetch errors just move on to the next candidate.
func (p *Prober) Probe(ctx context.Context, website, mapsURL string) domain.ProbeResult {
	for _, u := range Candidates(website, mapsURL) {
		if ctx.Err() != nil {
			break
		}
		if p.check(ctx, u) {
			return domain.ProbeResult{Has: true, URL: u}
		}
	}
	return domain.ProbeResult{}
}

func (p *Prober) check(ctx context.Context, rawURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Debug("probe fetch failed", zap.String("url", rawURL), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}
	if !strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "text/html") {
		return false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyChars*4))
	if err != nil && len(body) == 0 {
		return false
	}
	return MentionsWine(truncateChars(string(body), maxBodyChars))
}

// MentionsWine reports whether an HTML page mentions wine. Visible text is
// checked first, then the raw markup (titles, alt text, link labels).
func MentionsWine(html string) bool {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find("script, style, noscript").Remove()
		if wineKeywords.MatchString(doc.Text()) {
			return true
		}
	}
	return wineKeywords.MatchString(html)
}

func truncateChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// ProbeAll probes restaurants in fixed-size batches. Each batch waits for
// every probe to finish or time out before the next batch starts. Only
// restaurants with a detected wine menu are returned, in input order.
func ProbeAll(ctx context.Context, prober domain.MenuProber, places []domain.Place, batchSize int) []domain.WineMenuCandidate {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	results := make([]domain.ProbeResult, len(places))
	for start := 0; start < len(places); start += batchSize {
		end := start + batchSize
		if end > len(places) {
			end = len(places)
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = prober.Probe(ctx, places[i].Website, places[i].MapsURL)
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make([]domain.WineMenuCandidate, 0)
	for i, r := range results {
		if !r.Has {
			continue
		}
		out = append(out, domain.WineMenuCandidate{
			Place:       places[i],
			HasWineMenu: true,
			WineMenuURL: r.URL,
		})
	}
	return out
}
