package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/verre/backend/internal/domain"
	"github.com/verre/backend/internal/infrastructure/llm"
)

const (
	extractSystemPrompt = `You are a sommelier's assistant. Given a photo of a wine list,
extract a structured JSON array of wines with fields:
- name (string)
- region (string | null)
- country (string | null)
- variety_or_style (string | null)
- vintage (number | null)
- price (number | null)  // numeric if price is visible; exclude currency symbol
- by_glass (boolean | null) // if obviously by the glass section
- notes (string | null) // any tasting notes/keywords if clearly shown
Return ONLY valid JSON and nothing else.`

	pairSystemPrompt = `You are a certified sommelier. Rank wines for the user's meal based on classic pairing principles (acidity, tannin, body, sweetness, regional matches, sauce, cooking method). Prefer user's favorites when ties occur, but do not force poor pairings.
Return a JSON object:
{
  "ranked": [
    {
      "wine": string, // human-readable summary (name, vintage, region if known)
      "score": number, // 0-100
      "why": string, // 1-2 sentences
      "estimated_price": number | null
    }
  ],
  "notes": string // brief global note if helpful
}`

	askSystemPrompt = `You are "Monsieur Verre," a friendly, certified sommelier.
Be concise and practical. Use classic pairing logic (acidity, tannin, sweetness, body, sauces, cooking methods, regional matches).
Prefer the user's favorites for ties, but never force a bad pairing.`

	askFallbackAnswer  = "I'm not sure yet."
	maxAskWinesJSON    = 8000
	minMealDescription = 3
	maxImageBytes      = 10 << 20
)

var dataURLPattern = regexp.MustCompile(`^data:(image/[a-zA-Z0-9.+-]+);base64,(.+)$`)

// PairRequest asks for wines ranked against a meal
type PairRequest struct {
	Favorites []string               `json:"favorites"`
	Meal      string                 `json:"meal"`
	Wines     []domain.ExtractedWine `json:"wines" binding:"dive"`
}

// AskRequest is a free-form question for the sommelier
type AskRequest struct {
	Question  string            `json:"question"`
	Meal      string            `json:"meal"`
	Favorites []string          `json:"favorites"`
	Wines     []json.RawMessage `json:"wines"`
}

// SommelierServiceConfig names the models used for each task
type SommelierServiceConfig struct {
	TextModel   string
	VisionModel string
}

// SommelierService reads wine lists, ranks pairings and answers questions
type SommelierService struct {
	model       domain.LanguageModel
	textModel   string
	visionModel string
	logger      *zap.Logger
}

// NewSommelierService creates a sommelier service. model may be nil; every
// call then fails with ErrMisconfigured.
func NewSommelierService(model domain.LanguageModel, config SommelierServiceConfig) *SommelierService {
	return &SommelierService{
		model:       model,
		textModel:   config.TextModel,
		visionModel: config.VisionModel,
		logger:      zap.L().Named("sommelier"),
	}
}

// DecodeImageDataURL splits a data:image/...;base64 URL into its parts
func DecodeImageDataURL(dataURL string) (domain.Image, error) {
	m := dataURLPattern.FindStringSubmatch(strings.TrimSpace(dataURL))
	if m == nil {
		return domain.Image{}, eris.Wrap(domain.ErrInvalidRequest, "imageDataUrl must be a base64 data:image URL")
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return domain.Image{}, eris.Wrap(domain.ErrInvalidRequest, "imageDataUrl is not valid base64")
	}
	if len(data) == 0 || len(data) > maxImageBytes {
		return domain.Image{}, eris.Wrap(domain.ErrInvalidRequest, "image is empty or too large")
	}
	return domain.Image{MIMEType: m[1], Data: data}, nil
}

// Extract reads the wines off a photographed wine list. Output the model
// wraps oddly or not at all yields an empty list.
func (s *SommelierService) Extract(ctx context.Context, imageDataURL string) ([]domain.ExtractedWine, error) {
	if s.model == nil {
		return nil, eris.Wrap(domain.ErrMisconfigured, "language model API key is not set")
	}
	img, err := DecodeImageDataURL(imageDataURL)
	if err != nil {
		return nil, err
	}

	raw, err := s.model.Complete(ctx, domain.Completion{
		Model:       s.visionModel,
		System:      extractSystemPrompt,
		Prompt:      "Extract the wine list as JSON.",
		Images:      []domain.Image{img},
		Temperature: 0.2,
		JSON:        true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract wine list")
	}

	wines := ParseExtractedWines(raw)
	s.logger.Debug("extracted wines", zap.Int("count", len(wines)))
	return wines, nil
}

// ParseExtractedWines accepts a bare array or {"wines": [...]}; entries
// without a name are dropped
func ParseExtractedWines(raw string) []domain.ExtractedWine {
	cleaned := []byte(llm.StripCodeFences(raw))

	var records []json.RawMessage
	if json.Unmarshal(cleaned, &records) != nil {
		var wrapped struct {
			Wines []json.RawMessage `json:"wines"`
		}
		if json.Unmarshal(cleaned, &wrapped) != nil {
			return []domain.ExtractedWine{}
		}
		records = wrapped.Wines
	}

	out := make([]domain.ExtractedWine, 0, len(records))
	for _, rec := range records {
		var w lenientExtractedWine
		if json.Unmarshal(rec, &w) != nil || w.Name.Value == "" {
			continue
		}
		out = append(out, w.toDomain())
	}
	return out
}

// lenientExtractedWine leaves a field empty when the model wrote the wrong
// JSON type for it, keeping the rest of the entry
type lenientExtractedWine struct {
	Name           lenientString `json:"name"`
	Region         lenientString `json:"region"`
	Country        lenientString `json:"country"`
	VarietyOrStyle lenientString `json:"variety_or_style"`
	Vintage        lenientNumber `json:"vintage"`
	Price          lenientNumber `json:"price"`
	ByGlass        lenientBool   `json:"by_glass"`
	Notes          lenientString `json:"notes"`
}

func (w lenientExtractedWine) toDomain() domain.ExtractedWine {
	return domain.ExtractedWine{
		Name:           w.Name.Value,
		Region:         w.Region.ptr(),
		Country:        w.Country.ptr(),
		VarietyOrStyle: w.VarietyOrStyle.ptr(),
		Vintage:        w.Vintage.ptr(),
		Price:          w.Price.ptr(),
		ByGlass:        w.ByGlass.ptr(),
		Notes:          w.Notes.ptr(),
	}
}

// Pair ranks the given wines for a meal, best first
func (s *SommelierService) Pair(ctx context.Context, req PairRequest) (*domain.PairingResult, error) {
	if len(strings.TrimSpace(req.Meal)) < minMealDescription {
		return nil, eris.Wrap(domain.ErrInvalidRequest, "meal must be at least 3 characters")
	}
	if req.Wines == nil {
		return nil, eris.Wrap(domain.ErrInvalidRequest, "wines is required")
	}
	if s.model == nil {
		return nil, eris.Wrap(domain.ErrMisconfigured, "language model API key is not set")
	}

	winesJSON, err := json.Marshal(req.Wines)
	if err != nil {
		return nil, eris.Wrap(err, "encode wines")
	}

	prompt := fmt.Sprintf("Meal: %s\nFavorites: %s\nWine Options JSON: %s\nRank the best pairings; return JSON only as specified.",
		req.Meal, strings.Join(req.Favorites, ", "), winesJSON)

	raw, err := s.model.Complete(ctx, domain.Completion{
		Model:       s.textModel,
		System:      pairSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.2,
		JSON:        true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "rank pairings")
	}

	var result domain.PairingResult
	if err := json.Unmarshal([]byte(llm.StripCodeFences(raw)), &result); err != nil {
		return nil, eris.Wrap(domain.ErrUnparseable, err.Error())
	}
	if result.Ranked == nil {
		result.Ranked = []domain.RankedPairing{}
	}
	sort.SliceStable(result.Ranked, func(i, j int) bool {
		return result.Ranked[i].Score > result.Ranked[j].Score
	})
	return &result, nil
}

// Ask answers a free-form question in the sommelier persona
func (s *SommelierService) Ask(ctx context.Context, req AskRequest) (string, error) {
	if strings.TrimSpace(req.Question) == "" {
		return "", eris.Wrap(domain.ErrInvalidRequest, "question is required")
	}
	if s.model == nil {
		return "", eris.Wrap(domain.ErrMisconfigured, "language model API key is not set")
	}

	wines := req.Wines
	if wines == nil {
		wines = []json.RawMessage{}
	}
	winesJSON, err := json.Marshal(wines)
	if err != nil {
		return "", eris.Wrap(domain.ErrInvalidRequest, "wines must be valid JSON")
	}

	raw, err := s.model.Complete(ctx, domain.Completion{
		Model:       s.textModel,
		System:      askSystemPrompt,
		Prompt:      askPrompt(req, truncateRunes(string(winesJSON), maxAskWinesJSON)),
		Temperature: 0.4,
	})
	if err != nil {
		if eris.Is(err, domain.ErrNoResults) {
			return askFallbackAnswer, nil
		}
		return "", eris.Wrap(err, "ask sommelier")
	}
	if strings.TrimSpace(raw) == "" {
		return askFallbackAnswer, nil
	}
	return raw, nil
}

func askPrompt(req AskRequest, winesJSON string) string {
	meal := req.Meal
	if meal == "" {
		meal = "(none provided)"
	}
	favorites := strings.Join(req.Favorites, ", ")
	if favorites == "" {
		favorites = "(none)"
	}

	return fmt.Sprintf(`Question: %s

Context:
- Meal: %s
- Favorites: %s
- Wines on the list: %s
(If the user asks something off-topic, still answer helpfully.)`, req.Question, meal, favorites, winesJSON)
}
