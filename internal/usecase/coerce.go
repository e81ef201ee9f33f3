package usecase

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/verre/backend/internal/domain"
	"github.com/verre/backend/internal/infrastructure/llm"
)

// The lenient* types decode whatever the model produced without ever
// failing. A value of the wrong JSON type, or null, is simply left unset.

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

type lenientString struct {
	Value string
	Set   bool
}

func (s *lenientString) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return nil
	}
	var v string
	if json.Unmarshal(b, &v) == nil {
		s.Value, s.Set = strings.TrimSpace(v), true
	}
	return nil
}

func (s lenientString) ptr() *string {
	if !s.Set {
		return nil
	}
	v := s.Value
	return &v
}

type lenientBool struct {
	Value bool
	Set   bool
}

func (l *lenientBool) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return nil
	}
	var v bool
	if json.Unmarshal(b, &v) == nil {
		l.Value, l.Set = v, true
		return nil
	}
	var s string
	if json.Unmarshal(b, &s) == nil {
		if v, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			l.Value, l.Set = v, true
		}
	}
	return nil
}

func (l lenientBool) ptr() *bool {
	if !l.Set {
		return nil
	}
	v := l.Value
	return &v
}

type lenientNumber struct {
	Value float64
	Set   bool
}

func (n *lenientNumber) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return nil
	}
	var f float64
	if json.Unmarshal(b, &f) == nil {
		n.set(f)
		return nil
	}
	var s string
	if json.Unmarshal(b, &s) == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			n.set(f)
		}
	}
	return nil
}

func (n *lenientNumber) set(f float64) {
	if !math.IsNaN(f) && !math.IsInf(f, 0) {
		n.Value, n.Set = f, true
	}
}

func (n lenientNumber) ptr() *float64 {
	if !n.Set {
		return nil
	}
	v := n.Value
	return &v
}

// lenientList keeps string and numeric entries of a JSON array
type lenientList []string

func (l *lenientList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if json.Unmarshal(b, &raw) != nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if json.Unmarshal(item, &s) == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			continue
		}
		var f float64
		if json.Unmarshal(item, &f) == nil {
			out = append(out, strconv.FormatFloat(f, 'f', -1, 64))
		}
	}
	*l = out
	return nil
}

type lenientPrice struct {
	Currency lenientString `json:"currency"`
	Glass    lenientNumber `json:"glass"`
	Bottle   lenientNumber `json:"bottle"`
	Set      bool          `json:"-"`
}

func (p *lenientPrice) UnmarshalJSON(b []byte) error {
	type plain lenientPrice
	var v plain
	if json.Unmarshal(b, &v) == nil && bytes.HasPrefix(bytes.TrimSpace(b), []byte("{")) {
		*p = lenientPrice(v)
		p.Set = true
	}
	return nil
}

// lenientWine is one regional wine record as the model wrote it
type lenientWine struct {
	Name             lenientString `json:"name"`
	Style            lenientString `json:"style"`
	Type             lenientString `json:"type"`
	Grape            lenientString `json:"grape"`
	Region           lenientString `json:"region"`
	Profile          lenientString `json:"profile"`
	Notes            lenientString `json:"notes"`
	Description      lenientString `json:"description"`
	TypicalABV       lenientNumber `json:"typical_abv"`
	TypicalPrice     lenientPrice  `json:"typical_price"`
	Price            lenientPrice  `json:"price"`
	FoodPairings     lenientList   `json:"food_pairings"`
	NotableProducers lenientList   `json:"notable_producers"`
}

func (w *lenientWine) UnmarshalJSON(b []byte) error {
	type plain lenientWine
	var v plain
	if json.Unmarshal(b, &v) == nil {
		*w = lenientWine(v)
	}
	return nil
}

const (
	maxRegionalWines  = 6
	maxListEntries    = 6
	maxListEntryChars = 60
)

// CoerceRegionalWines turns raw model output into at most six records.
// Output that cannot be parsed yields an empty slice.
func CoerceRegionalWines(raw string) []domain.RegionalWine {
	cleaned := llm.StripCodeFences(raw)
	if cleaned == "" {
		return []domain.RegionalWine{}
	}

	var records []lenientWine
	if json.Unmarshal([]byte(cleaned), &records) != nil {
		var wrapped struct {
			Wines []lenientWine `json:"wines"`
		}
		if json.Unmarshal([]byte(cleaned), &wrapped) != nil {
			return []domain.RegionalWine{}
		}
		records = wrapped.Wines
	}

	out := make([]domain.RegionalWine, 0, len(records))
	for _, rec := range records {
		w := rec.toDomain()
		if w.Name == "" {
			continue
		}
		out = append(out, w)
		if len(out) == maxRegionalWines {
			break
		}
	}
	return out
}

func (rec lenientWine) toDomain() domain.RegionalWine {
	style := firstSet(rec.Style, rec.Type)
	price := rec.TypicalPrice
	if !price.Set {
		price = rec.Price
	}

	currency := truncateRunes(price.Currency.Value, 3)
	if currency == "" {
		currency = "$"
	}

	return domain.RegionalWine{
		Name:       truncateRunes(rec.Name.Value, 140),
		Style:      NormalizeStyle(truncateRunes(style, 60)),
		Grape:      truncateRunes(rec.Grape.Value, 80),
		Region:     truncateRunes(rec.Region.Value, 120),
		Profile:    truncateRunes(firstSet(rec.Profile, rec.Notes, rec.Description), 300),
		TypicalABV: rec.TypicalABV.ptr(),
		TypicalPrice: domain.TypicalPrice{
			Currency: currency,
			Glass:    price.Glass.ptr(),
			Bottle:   price.Bottle.ptr(),
		},
		FoodPairings:     capList(rec.FoodPairings),
		NotableProducers: capList(rec.NotableProducers),
	}
}

func firstSet(values ...lenientString) string {
	for _, v := range values {
		if v.Value != "" {
			return v.Value
		}
	}
	return ""
}

func capList(l lenientList) []string {
	out := make([]string, 0, maxListEntries)
	for _, s := range l {
		out = append(out, truncateRunes(s, maxListEntryChars))
		if len(out) == maxListEntries {
			break
		}
	}
	return out
}

var styleAliases = map[string]string{
	"red":       domain.StyleRed,
	"white":     domain.StyleWhite,
	"rosé":      domain.StyleRose,
	"rose":      domain.StyleRose,
	"sparkling": domain.StyleSparkling,
	"dessert":   domain.StyleDessert,
	"orange":    domain.StyleOrange,
	"other":     domain.StyleOther,
}

// NormalizeStyle maps a style onto the fixed vocabulary when it matches one
// case-insensitively; anything else is returned unchanged
func NormalizeStyle(style string) string {
	if s, ok := styleAliases[strings.ToLower(strings.TrimSpace(style))]; ok {
		return s
	}
	return style
}
