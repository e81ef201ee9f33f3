package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verre/backend/internal/domain"
	"github.com/verre/backend/internal/infrastructure/retail"
)

func item(name, store string, dist *float64, price *float64) domain.RetailWineItem {
	it := domain.RetailWineItem{ID: name, Name: name}
	if store != "" || dist != nil {
		it.Store = &domain.StoreInfo{Name: store, DistanceMeters: dist}
	}
	if price != nil {
		it.Price = &domain.Money{Amount: *price, Currency: "USD"}
	}
	return it
}

func names(items []domain.RetailWineItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestNormalizeVarietal(t *testing.T) {
	tests := map[string]string{
		"Pinot  Noir":          "pinot noir",
		"PinotNoir":            "pinot noir",
		"Cab Sauv":             "cabernet sauvignon",
		"Cabernet Sauvignon":   "cabernet sauvignon",
		"Sauvignon Blanc":      "sauvignon blanc",
		"chardonnay":           "chardonnay",
		"Shiraz":               "syrah/shiraz",
		"Prosecco DOC":         "sparkling",
		"Rosé":                 "rosé",
		"Provence Rose":        "rosé",
		"  Grüner\nVeltliner ": "Grüner Veltliner",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeVarietal(in), in)
	}
}

func TestNormalizeItem(t *testing.T) {
	it := NormalizeItem(domain.RetailWineItem{Name: "x", Varietal: "merlot blend", Price: &domain.Money{Amount: math.NaN()}})
	assert.Nil(t, it.Price)
	assert.Equal(t, "merlot", it.Varietal)

	it = NormalizeItem(domain.RetailWineItem{Name: "y", Price: &domain.Money{Amount: 12, Currency: "USD"}})
	require.NotNil(t, it.Price)
	assert.Equal(t, 12.0, it.Price.Amount)
	assert.Empty(t, it.Varietal)
}

func TestDedupe(t *testing.T) {
	first := item("Meiomi Pinot Noir", "Total Wine", ptr(100.0), ptr(20.0))
	dup := item("MEIOMI pinot noir", "total wine", ptr(50.0), ptr(10.0))
	other := item("Meiomi Pinot Noir", "BevMo!", nil, nil)

	got := Dedupe([]domain.RetailWineItem{first, dup, other})
	require.Len(t, got, 2)
	assert.Equal(t, 100.0, *got[0].Store.DistanceMeters)
	assert.Equal(t, "BevMo!", got[1].StoreName())
}

func TestFilterByDistance(t *testing.T) {
	items := []domain.RetailWineItem{
		item("unknown", "Store", nil, ptr(1.0)),
		item("no-store", "", nil, nil),
		item("near", "Store", ptr(500.0), nil),
		item("edge", "Store", ptr(1000.0), nil),
		item("far", "Store", ptr(1000.5), nil),
	}
	assert.Equal(t, []string{"near", "edge"}, names(FilterByDistance(items, 1000)))
}

func TestSortItems(t *testing.T) {
	items := []domain.RetailWineItem{
		item("c-far", "S", ptr(50.0), ptr(5.0)),
		item("b-pricey", "S", ptr(10.0), ptr(20.0)),
		item("z-cheap", "S", ptr(10.0), ptr(5.0)),
		item("a-cheap", "S", ptr(10.0), ptr(5.0)),
		item("unknown", "", nil, ptr(1.0)),
		item("no-price", "S", ptr(10.0), nil),
	}
	SortItems(items)
	assert.Equal(t, []string{"a-cheap", "z-cheap", "b-pricey", "no-price", "c-far", "unknown"}, names(items))
}

func TestBackfillImages(t *testing.T) {
	items := []domain.RetailWineItem{{Name: "a"}, {Name: "b", Image: "https://img/b.png"}}
	places := []domain.Place{
		{Name: "far", DistanceMeters: ptr(900.0), PhotoURL: "/api/placesPhoto?ref=far"},
		{Name: "unknown", PhotoURL: "/api/placesPhoto?ref=unknown"},
		{Name: "near", DistanceMeters: ptr(100.0), PhotoURL: "/api/placesPhoto?ref=near"},
	}

	BackfillImages(items, places)
	assert.Equal(t, "/api/placesPhoto?ref=near", items[0].Image)
	assert.Equal(t, "https://img/b.png", items[1].Image)

	bare := []domain.RetailWineItem{{Name: "c"}}
	BackfillImages(bare, nil)
	assert.Empty(t, bare[0].Image)
}

func TestMockResults(t *testing.T) {
	got := MockResults("pinot", 24)
	require.Len(t, got, 2)
	assert.Equal(t, "Pinot Reserve Pinot Noir", got[0].Name)
	assert.Equal(t, "Pinot Sauvignon Blanc", got[1].Name)
	assert.Equal(t, 24.99, got[0].Price.Amount)

	unnamed := MockResults("", 24)
	assert.Equal(t, "Reserve Pinot Noir", unnamed[0].Name)
	assert.Equal(t, "Crisp Sauvignon Blanc", unnamed[1].Name)

	assert.Len(t, MockResults("x", 1), 1)
	assert.Len(t, MockResults("x", 0), 1)
	assert.Len(t, MockResults("x", -5), 1)
}

func newWineSearch(places *MockPlaces, scrapers ...domain.RetailerScraper) *WineSearchService {
	return NewWineSearchService(places, retail.NewRegistry(scrapers...), WineSearchServiceConfig{})
}

type recordingObserver struct {
	results []WineSearchResult
}

func (r *recordingObserver) SearchCompleted(_ context.Context, _ WineSearchRequest, res WineSearchResult) {
	r.results = append(r.results, res)
}

func TestWineSearch(t *testing.T) {
	t.Run("requires a query or coordinates", func(t *testing.T) {
		svc := newWineSearch(&MockPlaces{})
		_, err := svc.Search(context.Background(), WineSearchRequest{Query: "  "})
		assert.True(t, errors.Is(err, domain.ErrInvalidRequest))

		_, err = svc.Search(context.Background(), WineSearchRequest{Lat: ptr(38.0)})
		assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
	})

	t.Run("query without coordinates runs every scraper", func(t *testing.T) {
		places := &MockPlaces{}
		svc := newWineSearch(places,
			&MockScraper{brand: "Total Wine & More", items: []domain.RetailWineItem{item("B Wine", "Total Wine & More", nil, ptr(30.0))}},
			&MockScraper{brand: "BevMo!", items: []domain.RetailWineItem{item("A Wine", "BevMo!", nil, ptr(30.0))}},
		)

		res, err := svc.Search(context.Background(), WineSearchRequest{Query: "merlot"})
		require.NoError(t, err)
		assert.False(t, places.storesCalled)
		assert.Equal(t, []string{"A Wine", "B Wine"}, names(res.Items))
	})

	t.Run("nearby stores drive selection, filtering and backfill", func(t *testing.T) {
		places := &MockPlaces{stores: []domain.Place{
			{Name: "Total Wine & More", DistanceMeters: ptr(800.0), PhotoURL: "/api/placesPhoto?ref=tw"},
			{Name: "Safeway", DistanceMeters: ptr(300.0), PhotoURL: "/api/placesPhoto?ref=sw"},
		}}
		tw := &MockScraper{brand: "Total Wine & More", items: []domain.RetailWineItem{
			item("Near Cab", "Total Wine & More", ptr(800.0), ptr(25.0)),
			item("near cab", "total wine & more", ptr(800.0), ptr(15.0)),
			item("Unknown Distance", "Total Wine & More", nil, ptr(5.0)),
			item("Too Far", "Total Wine & More", ptr(5000.0), ptr(5.0)),
		}}
		bevmo := &MockScraper{brand: "BevMo!", items: []domain.RetailWineItem{item("Never", "BevMo!", ptr(1.0), nil)}}
		observer := &recordingObserver{}
		svc := NewWineSearchService(places, retail.NewRegistry(tw, bevmo), WineSearchServiceConfig{Observer: observer})

		res, err := svc.Search(context.Background(), WineSearchRequest{
			Lat: ptr(38.3), Lng: ptr(-122.3), MaxDistanceMeters: ptr(1000.0),
		})
		require.NoError(t, err)

		assert.True(t, places.storesCalled)
		assert.Equal(t, 2000.0, places.lastRadius)
		require.Len(t, res.Items, 1)
		assert.Equal(t, "Near Cab", res.Items[0].Name)
		assert.Equal(t, 25.0, res.Items[0].Price.Amount)
		assert.Equal(t, "/api/placesPhoto?ref=sw", res.Items[0].Image)
		require.Len(t, observer.results, 1)
		assert.Len(t, observer.results[0].Items, 1)
	})

	t.Run("empty results fall back to the mock set", func(t *testing.T) {
		svc := newWineSearch(&MockPlaces{},
			&MockScraper{brand: "Total Wine & More", err: errors.New("blocked")},
		)

		res, err := svc.Search(context.Background(), WineSearchRequest{Query: "pinot"})
		require.NoError(t, err)
		assert.Equal(t, []string{"mock-1", "mock-2"}, []string{res.Items[0].ID, res.Items[1].ID})

		res, err = svc.Search(context.Background(), WineSearchRequest{Query: "pinot", Limit: ptr(1)})
		require.NoError(t, err)
		assert.Len(t, res.Items, 1)
	})

	t.Run("limit truncates with a minimum of one", func(t *testing.T) {
		var many []domain.RetailWineItem
		for _, n := range []string{"a", "b", "c", "d"} {
			many = append(many, item(n, "S", nil, nil))
		}
		svc := newWineSearch(&MockPlaces{}, &MockScraper{brand: "S", items: many})

		res, _ := svc.Search(context.Background(), WineSearchRequest{Query: "x", Limit: ptr(2)})
		assert.Equal(t, []string{"a", "b"}, names(res.Items))

		res, _ = svc.Search(context.Background(), WineSearchRequest{Query: "x", Limit: ptr(0)})
		assert.Equal(t, []string{"a"}, names(res.Items))
	})
}

func TestDiscoveryRadius(t *testing.T) {
	svc := newWineSearch(&MockPlaces{})
	assert.Equal(t, 8000.0, svc.discoveryRadius(WineSearchRequest{}))
	assert.Equal(t, 3000.0, svc.discoveryRadius(WineSearchRequest{RadiusMeters: ptr(3000.0)}))
	assert.Equal(t, 1000.0, svc.discoveryRadius(WineSearchRequest{RadiusMeters: ptr(10.0)}))
	assert.Equal(t, 1000.0, svc.discoveryRadius(WineSearchRequest{MaxDistanceMeters: ptr(200.0)}))
	assert.Equal(t, 6000.0, svc.discoveryRadius(WineSearchRequest{RadiusMeters: ptr(500.0), MaxDistanceMeters: ptr(3000.0)}))
}
