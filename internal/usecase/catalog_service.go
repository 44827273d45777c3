package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/grocerymatch/backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultReportTTL = time.Hour

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CacheTTL time.Duration
	Matching MatchConfig
	Detector DetectorConfig
	Logger   *zerolog.Logger
}

// CatalogService is the entry point transports use to reach the matching engine.
// Duplicate reports are cached by a fingerprint of their input.
type CatalogService struct {
	cache     domain.CacheRepository
	matcher   *MatchingService
	detector  *DuplicateDetector
	converter *UnitConverter
	cacheTTL  time.Duration
	logger    zerolog.Logger
}

// NewCatalogService creates a new catalog service with dependencies. cache may be nil.
func NewCatalogService(cache domain.CacheRepository, config CatalogServiceConfig) *CatalogService {
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	matching := config.Matching
	if matching.Logger == nil {
		matching.Logger = config.Logger
	}
	detector := config.Detector
	if detector.Logger == nil {
		detector.Logger = config.Logger
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = defaultReportTTL
	}

	matcher := NewMatchingService(matching)
	return &CatalogService{
		cache:     cache,
		matcher:   matcher,
		detector:  NewDuplicateDetector(matcher, detector),
		converter: NewUnitConverter(),
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// FindSimilar ranks candidates against the target product.
func (s *CatalogService) FindSimilar(ctx context.Context, target domain.Product, candidates []domain.Product) ([]domain.ProductMatch, error) {
	return s.matcher.FindSimilarProducts(ctx, target, candidates)
}

// Score returns the similarity of two products and the reasons behind it.
func (s *CatalogService) Score(p1, p2 domain.Product) (float64, []string) {
	return s.matcher.SimilarityScore(p1, p2), s.matcher.GetMatchReasons(p1, p2)
}

// Analyze returns the keyword analysis of a product.
func (s *CatalogService) Analyze(product domain.Product) domain.KeywordAnalysis {
	return s.matcher.Extractor().AnalyzeProduct(product)
}

// Standardize expresses each product's average price per standard unit.
func (s *CatalogService) Standardize(products []domain.Product) []domain.StandardizedProduct {
	result := make([]domain.StandardizedProduct, 0, len(products))
	for _, p := range products {
		result = append(result, s.converter.StandardizeProduct(p))
	}
	return result
}

// ConvertToStandardUnit converts a price given per unit into a price per standard unit.
func (s *CatalogService) ConvertToStandardUnit(name string, price decimal.Decimal, unit string) domain.ConversionResult {
	return s.converter.ConvertToStandardUnit(name, price, unit)
}

// ConvertPrice converts a price between two units of the same family.
func (s *CatalogService) ConvertPrice(price decimal.Decimal, fromUnit, toUnit string) (decimal.Decimal, bool) {
	return s.converter.ConvertPrice(price, fromUnit, toUnit), s.converter.AreUnitsComparable(fromUnit, toUnit)
}

// DetectDuplicates groups the products that denote the same item.
func (s *CatalogService) DetectDuplicates(ctx context.Context, products []domain.Product) ([]domain.DuplicateGroup, error) {
	return s.detector.DetectDuplicates(ctx, products)
}

// MergeDuplicates collapses each duplicate group into its representative.
func (s *CatalogService) MergeDuplicates(ctx context.Context, products []domain.Product) ([]domain.Product, error) {
	return s.detector.MergeDuplicates(ctx, products)
}

// DuplicateReport summarizes duplicates in the product list.
// Flow: check cache -> detect -> cache -> return
func (s *CatalogService) DuplicateReport(ctx context.Context, products []domain.Product) (domain.DuplicateReport, error) {
	cacheKey, err := reportCacheKey(products)
	if err != nil {
		return domain.DuplicateReport{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		s.logger.Debug().Str("key", cacheKey).Msg("duplicate report served from cache")
		return cached, nil
	}

	report, err := s.detector.GenerateDuplicateReport(ctx, products)
	if err != nil {
		return domain.DuplicateReport{}, err
	}

	if err := s.setInCache(ctx, cacheKey, report); err != nil {
		s.logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache duplicate report")
	}

	return report, nil
}

// reportCacheKey fingerprints the product list.
// Format: "dupreport:{sha256 of the JSON-encoded products}"
func reportCacheKey(products []domain.Product) (string, error) {
	payload, err := json.Marshal(products)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return "dupreport:" + hex.EncodeToString(sum[:]), nil
}

func (s *CatalogService) getFromCache(ctx context.Context, key string) (domain.DuplicateReport, error) {
	if s.cache == nil {
		return domain.DuplicateReport{}, domain.ErrCacheMiss
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return domain.DuplicateReport{}, err
	}

	var report domain.DuplicateReport
	if err := json.Unmarshal(value, &report); err != nil {
		return domain.DuplicateReport{}, domain.ErrCacheMiss
	}
	return report, nil
}

func (s *CatalogService) setInCache(ctx context.Context, key string, report domain.DuplicateReport) error {
	if s.cache == nil {
		return nil
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, payload, s.cacheTTL)
}
