package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/grocerymatch/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string][]byte
	getError  error
	setError  error
	getCalled bool
	setCalled bool
	lastTTL   time.Duration
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalled = true
	m.lastTTL = ttl
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func newTestCatalogService(cache domain.CacheRepository) *CatalogService {
	return NewCatalogService(cache, CatalogServiceConfig{
		CacheTTL: 10 * time.Minute,
		Detector: DetectorConfig{
			Workers: 2,
			Now:     func() time.Time { return testNow },
		},
	})
}

func TestNewCatalogService(t *testing.T) {
	t.Run("uses default TTL when zero", func(t *testing.T) {
		svc := NewCatalogService(nil, CatalogServiceConfig{})
		if svc.cacheTTL != time.Hour {
			t.Errorf("cacheTTL = %v, want 1h (default)", svc.cacheTTL)
		}
	})

	t.Run("passes thresholds to the engine", func(t *testing.T) {
		svc := NewCatalogService(nil, CatalogServiceConfig{
			Matching: MatchConfig{DiscoveryThreshold: 0.7},
			Detector: DetectorConfig{MergeThreshold: 0.9},
		})
		if svc.matcher.discoveryThreshold != 0.7 {
			t.Errorf("discoveryThreshold = %v, want 0.7", svc.matcher.discoveryThreshold)
		}
		if svc.detector.mergeThreshold != 0.9 {
			t.Errorf("mergeThreshold = %v, want 0.9", svc.detector.mergeThreshold)
		}
	})
}

func TestDuplicateReport_CachesResult(t *testing.T) {
	cache := NewMockCacheRepository()
	svc := newTestCatalogService(cache)
	ctx := context.Background()
	products := leiteVariants()

	report, err := svc.DuplicateReport(ctx, products)
	if err != nil {
		t.Fatalf("DuplicateReport() error = %v", err)
	}
	if report.DuplicateProducts != 2 {
		t.Errorf("DuplicateProducts = %d, want 2", report.DuplicateProducts)
	}
	if !cache.setCalled {
		t.Fatal("expected report to be cached")
	}
	if cache.lastTTL != 10*time.Minute {
		t.Errorf("cache TTL = %v, want 10m", cache.lastTTL)
	}

	key, err := reportCacheKey(products)
	if err != nil {
		t.Fatalf("reportCacheKey() error = %v", err)
	}
	if _, ok := cache.data[key]; !ok {
		t.Errorf("cache has no entry under %q", key)
	}
}

func TestDuplicateReport_ServedFromCache(t *testing.T) {
	cache := NewMockCacheRepository()
	svc := newTestCatalogService(cache)
	products := leiteVariants()

	cached := domain.DuplicateReport{TotalProducts: 99, UniqueProducts: 99}
	payload, _ := json.Marshal(cached)
	key, _ := reportCacheKey(products)
	cache.data[key] = payload

	report, err := svc.DuplicateReport(context.Background(), products)
	if err != nil {
		t.Fatalf("DuplicateReport() error = %v", err)
	}
	if report.TotalProducts != 99 {
		t.Errorf("TotalProducts = %d, want 99 from cache", report.TotalProducts)
	}
	if cache.setCalled {
		t.Error("cache hit should not write back")
	}
}

func TestDuplicateReport_CacheFailuresIgnored(t *testing.T) {
	cache := NewMockCacheRepository()
	cache.getError = domain.ErrCacheUnavailable
	cache.setError = domain.ErrCacheUnavailable
	svc := newTestCatalogService(cache)

	report, err := svc.DuplicateReport(context.Background(), leiteVariants())
	if err != nil {
		t.Fatalf("DuplicateReport() error = %v, want nil despite cache failure", err)
	}
	if report.TotalProducts != 4 {
		t.Errorf("TotalProducts = %d, want 4", report.TotalProducts)
	}
}

func TestDuplicateReport_CorruptCacheEntry(t *testing.T) {
	cache := NewMockCacheRepository()
	svc := newTestCatalogService(cache)
	products := leiteVariants()

	key, _ := reportCacheKey(products)
	cache.data[key] = []byte("{not json")

	report, err := svc.DuplicateReport(context.Background(), products)
	if err != nil {
		t.Fatalf("DuplicateReport() error = %v", err)
	}
	if report.TotalProducts != 4 {
		t.Errorf("TotalProducts = %d, want 4 (recomputed)", report.TotalProducts)
	}
}

func TestDuplicateReport_NilCache(t *testing.T) {
	svc := newTestCatalogService(nil)

	report, err := svc.DuplicateReport(context.Background(), leiteVariants())
	if err != nil {
		t.Fatalf("DuplicateReport() error = %v", err)
	}
	if report.UniqueProducts != 2 {
		t.Errorf("UniqueProducts = %d, want 2", report.UniqueProducts)
	}
}

func TestDuplicateReport_Cancelled(t *testing.T) {
	svc := newTestCatalogService(NewMockCacheRepository())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.DuplicateReport(ctx, leiteVariants())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestReportCacheKey(t *testing.T) {
	a, _ := reportCacheKey(leiteVariants())
	b, _ := reportCacheKey(leiteVariants())
	c, _ := reportCacheKey(leiteVariants()[:3])

	if a != b {
		t.Errorf("same input produced different keys: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different input produced the same key")
	}
	if len(a) != len("dupreport:")+64 {
		t.Errorf("unexpected key format %q", a)
	}
}

func TestCatalogServiceDelegates(t *testing.T) {
	svc := newTestCatalogService(nil)
	ctx := context.Background()

	score, reasons := svc.Score(
		testProduct("1", "Leite UHT 1L", "Laticínios", "1.20"),
		testProduct("2", "Leite UHT 1 Litro", "Laticínios", "1.25"),
	)
	if score < 0.78 {
		t.Errorf("Score() = %v, want >= 0.78", score)
	}
	if len(reasons) != 3 {
		t.Errorf("reasons = %v, want 3 reasons", reasons)
	}

	standardized := svc.Standardize([]domain.Product{
		testProduct("1", "Arroz 1kg", "Cereais", "2.50"),
		testProduct("2", "Pão de Forma", "Padaria", ""),
	})
	if len(standardized) != 2 || !standardized[0].IsStandardized || standardized[1].IsStandardized {
		t.Errorf("Standardize() = %+v", standardized)
	}

	converted, ok := svc.ConvertPrice(decimal.RequireFromString("2.50"), "kg", "g")
	if !ok || !converted.Equal(decimal.RequireFromString("0.0025")) {
		t.Errorf("ConvertPrice() = %s, %v", converted, ok)
	}

	merged, err := svc.MergeDuplicates(ctx, leiteVariants())
	if err != nil || len(merged) != 2 {
		t.Errorf("MergeDuplicates() = %d products, err %v", len(merged), err)
	}

	groups, err := svc.DetectDuplicates(ctx, leiteVariants())
	if err != nil || len(groups) != 1 {
		t.Errorf("DetectDuplicates() = %d groups, err %v", len(groups), err)
	}

	matches, err := svc.FindSimilar(ctx, testProduct("t", "Leite UHT 1L", "Laticínios", "1.20"), leiteVariants())
	if err != nil || len(matches) == 0 {
		t.Errorf("FindSimilar() = %d matches, err %v", len(matches), err)
	}

	analysis := svc.Analyze(testProduct("1", "Leite Mimosa Sem Lactose", "", ""))
	if analysis.OverallScore != 1.0 {
		t.Errorf("Analyze().OverallScore = %v, want 1", analysis.OverallScore)
	}
}
