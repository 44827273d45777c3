package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/grocerymatch/backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Term weights of the composite score
const (
	weightName     = 0.55
	weightCategory = 0.10
	weightKeyword  = 0.35
	weightPrice    = 0.10
)

// Term values
const (
	categorySame       = 1.0
	categoryRelated    = 0.8
	categoryUnrelated  = 0.1
	priceClose         = 1.0
	priceFar           = 0.1
	quantityBonus      = 0.10
	reasonNameMin      = 0.7
	reasonKeywordMin   = 0.5
	defaultDiscovery   = 0.65
	defaultQuantityMin = 0.62
)

// priceTolerance is the relative difference, against the mean price, under which two prices count as close.
var priceTolerance = decimal.RequireFromString("0.2")

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	DiscoveryThreshold float64 // Admit a candidate at or above this score
	QuantityThreshold  float64 // Lower bar for candidates sharing a quantity with the target
	Dictionaries       *Dictionaries
	EnableDebugLogging bool
	Logger             *zerolog.Logger
}

// MatchingService scores pairs of grocery products and ranks candidates against a target.
type MatchingService struct {
	normalizer         *Normalizer
	extractor          *TermExtractor
	discoveryThreshold float64
	quantityThreshold  float64
	enableDebugLogging bool
	logger             zerolog.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	discovery := config.DiscoveryThreshold
	if discovery <= 0 {
		discovery = defaultDiscovery
	}

	quantity := config.QuantityThreshold
	if quantity <= 0 {
		quantity = defaultQuantityMin
	}

	dictionaries := DefaultDictionaries()
	if config.Dictionaries != nil {
		dictionaries = *config.Dictionaries
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "matcher").Logger()
	}

	normalizer := NewNormalizer()
	return &MatchingService{
		normalizer:         normalizer,
		extractor:          NewTermExtractor(normalizer, dictionaries),
		discoveryThreshold: discovery,
		quantityThreshold:  quantity,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger,
	}
}

// Extractor returns the term extractor backing the service.
func (s *MatchingService) Extractor() *TermExtractor {
	return s.extractor
}

// productProfile is everything the score needs from one product, computed once.
type productProfile struct {
	name       string
	category   string
	keywords   map[string]bool
	quantities map[string]bool
	price      decimal.Decimal
	hasPrice   bool
}

func (s *MatchingService) profile(p domain.Product) productProfile {
	keywords := s.extractor.ExtractKeywords(p.Name)
	set := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		set[k] = true
	}

	prof := productProfile{
		name:       p.Name,
		keywords:   set,
		quantities: s.extractor.quantityKeys(p.Name),
	}
	if p.HasCategory() {
		prof.category = s.normalizer.NormalizeName(p.CategoryName())
	}
	if p.AveragePrice.Valid && p.AveragePrice.Decimal.IsPositive() {
		prof.price = p.AveragePrice.Decimal
		prof.hasPrice = true
	}
	return prof
}

// SimilarityScore returns the weighted similarity of two products in [0,1].
func (s *MatchingService) SimilarityScore(p1, p2 domain.Product) float64 {
	return s.scoreProfiles(s.profile(p1), s.profile(p2))
}

func (s *MatchingService) scoreProfiles(a, b productProfile) float64 {
	name := Similarity(a.name, b.name)
	category := s.categorySimilarity(a.category, b.category)
	keyword := jaccard(a.keywords, b.keywords)
	if sharesAny(a.quantities, b.quantities) {
		keyword = min(1.0, keyword+quantityBonus)
	}
	price := priceSimilarity(a, b)

	score := name*weightName + category*weightCategory + keyword*weightKeyword + price*weightPrice
	return min(1.0, score)
}

func (s *MatchingService) categorySimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return categorySame
	}
	if s.extractor.relatedCategories(a, b) {
		return categoryRelated
	}
	return categoryUnrelated
}

func priceSimilarity(a, b productProfile) float64 {
	if !a.hasPrice || !b.hasPrice {
		return 0
	}

	diff := a.price.Sub(b.price).Abs()
	avg := a.price.Add(b.price).Div(decimal.NewFromInt(2))
	if diff.Div(avg).LessThan(priceTolerance) {
		return priceClose
	}
	return priceFar
}

// jaccard returns |a∩b| / |a∪b|, or 0 when either set is empty.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func sharesAny(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

// SharesQuantity reports whether both names mention the same quantity, compared in canonical units.
func (s *MatchingService) SharesQuantity(p1, p2 domain.Product) bool {
	return sharesAny(s.extractor.quantityKeys(p1.Name), s.extractor.quantityKeys(p2.Name))
}

// FindSimilarProducts ranks the candidates that are similar enough to the target.
// A candidate is admitted at the discovery threshold, or at the lower quantity threshold
// when it shares a quantity with the target. Results are sorted by descending score;
// equal scores keep input order.
func (s *MatchingService) FindSimilarProducts(
	ctx context.Context,
	target domain.Product,
	candidates []domain.Product,
) ([]domain.ProductMatch, error) {
	if strings.TrimSpace(target.Name) == "" {
		return nil, fmt.Errorf("%w: target product name is required", domain.ErrInvalidRequest)
	}

	if s.enableDebugLogging {
		s.logger.Debug().Str("target", target.Name).Int("candidates", len(candidates)).Msg("finding similar products")
	}

	targetProfile := s.profile(target)
	matches := make([]domain.ProductMatch, 0)

	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		candidateProfile := s.profile(candidate)
		score := s.scoreProfiles(targetProfile, candidateProfile)
		shared := sharesAny(targetProfile.quantities, candidateProfile.quantities)

		if s.enableDebugLogging {
			s.logger.Debug().
				Str("candidate", candidate.Name).
				Float64("score", score).
				Bool("sharedQuantity", shared).
				Msg("scored candidate")
		}

		if score >= s.discoveryThreshold || (shared && score >= s.quantityThreshold) {
			matches = append(matches, domain.ProductMatch{
				Product:      candidate,
				Score:        score,
				MatchReasons: s.matchReasons(targetProfile, candidateProfile),
			})
		}
	}

	slices.SortStableFunc(matches, func(a, b domain.ProductMatch) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	return matches, nil
}

// GetMatchReasons explains in words why two products were considered similar.
func (s *MatchingService) GetMatchReasons(p1, p2 domain.Product) []string {
	return s.matchReasons(s.profile(p1), s.profile(p2))
}

func (s *MatchingService) matchReasons(a, b productProfile) []string {
	reasons := make([]string, 0, 3)

	if name := Similarity(a.name, b.name); name > reasonNameMin {
		reasons = append(reasons, fmt.Sprintf("similar names (%.0f%%)", name*100))
	}
	if a.category != "" && a.category == b.category {
		reasons = append(reasons, "same category")
	}
	if keyword := jaccard(a.keywords, b.keywords); keyword > reasonKeywordMin {
		reasons = append(reasons, fmt.Sprintf("similar keywords (%.0f%%)", keyword*100))
	}

	return reasons
}

// NormalizeProduct returns a copy of the product with a normalized name and a lower-cased
// category name. Accents in the category are kept.
func (s *MatchingService) NormalizeProduct(product domain.Product) domain.Product {
	normalized := product
	normalized.Name = s.normalizer.NormalizeName(product.Name)
	if product.Category != nil {
		category := *product.Category
		category.Name = strings.ToLower(category.Name)
		normalized.Category = &category
	}
	return normalized
}
