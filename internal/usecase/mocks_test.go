package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/verre/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string]interface{}
	getCalled int
	setCalled int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled++
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled++
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockGeocoder returns a fixed result and counts calls
type MockGeocoder struct {
	mu     sync.Mutex
	result domain.GeocodeResult
	calls  int
}

func (m *MockGeocoder) GeocodeZip(ctx context.Context, zip string) domain.GeocodeResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.result
}

// MockPlaces returns canned restaurants and stores
type MockPlaces struct {
	restaurants  []domain.Place
	stores       []domain.Place
	lastRadius   float64
	lastMax      int
	storesCalled bool
}

func (m *MockPlaces) NearbyRestaurants(ctx context.Context, center domain.Coordinate, radiusMeters float64, maxResults int) []domain.Place {
	m.lastRadius = radiusMeters
	m.lastMax = maxResults
	return m.restaurants
}

func (m *MockPlaces) NearbyStores(ctx context.Context, center domain.Coordinate, radiusMeters float64) []domain.Place {
	m.storesCalled = true
	m.lastRadius = radiusMeters
	return m.stores
}

// MockProber reports a wine menu for the listed websites
type MockProber struct {
	mu     sync.Mutex
	menus  map[string]string
	probed []string
}

func (m *MockProber) Probe(ctx context.Context, website, mapsURL string) domain.ProbeResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probed = append(m.probed, website)
	if u, ok := m.menus[website]; ok {
		return domain.ProbeResult{Has: true, URL: u}
	}
	return domain.ProbeResult{}
}

// MockLanguageModel returns a canned answer and records the last request
type MockLanguageModel struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	last     domain.Completion
}

func (m *MockLanguageModel) Complete(ctx context.Context, req domain.Completion) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.last = req
	return m.response, m.err
}

// MockScraper returns canned items
type MockScraper struct {
	brand string
	items []domain.RetailWineItem
	err   error
}

func (m *MockScraper) Brand() string { return m.brand }

func (m *MockScraper) Search(ctx context.Context, q domain.RetailQuery) ([]domain.RetailWineItem, error) {
	return m.items, m.err
}

func ptr[T any](v T) *T { return &v }
