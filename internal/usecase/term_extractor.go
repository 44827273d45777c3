package usecase

import (
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/grocerymatch/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Compiled regex patterns for term extraction
var (
	// Splits a normalized name into word tokens; letters outside ASCII stay in their word
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

	// Matches quantity fragments like "1L", "500 g", "1,5kg"
	quantityPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(kg|g|l|ml)`)
)

const (
	minKeywordLength     = 3
	minKeywordRelevance  = 0.25
	facetPresentScore    = 1.0
	facetAbsentScore     = 0.0
	facetCountForOverall = 3
)

// TermExtractor derives keyword, brand, category and feature tags from product names.
type TermExtractor struct {
	normalizer *Normalizer
	dict       *frozenDictionaries
	now        func() time.Time
}

// NewTermExtractor creates a term extractor over a frozen copy of the given dictionaries.
func NewTermExtractor(normalizer *Normalizer, dictionaries Dictionaries) *TermExtractor {
	if normalizer == nil {
		normalizer = NewNormalizer()
	}
	return &TermExtractor{
		normalizer: normalizer,
		dict:       dictionaries.freeze(normalizer),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ExtractKeywords returns the de-duplicated significant words of a name followed by its
// compact quantity tokens. "Leite UHT 1 L" yields [leite uht 1l].
func (e *TermExtractor) ExtractKeywords(name string) []string {
	normalized := e.normalizer.NormalizeName(name)

	var keywords []string
	seen := make(map[string]bool)
	for _, word := range nonWordPattern.Split(normalized, -1) {
		if utf8.RuneCountInString(word) < minKeywordLength || e.dict.stopWords[word] {
			continue
		}
		if !seen[word] {
			seen[word] = true
			keywords = append(keywords, word)
		}
	}

	for _, token := range e.QuantityTokens(name) {
		if !seen[token] {
			seen[token] = true
			keywords = append(keywords, token)
		}
	}

	return keywords
}

// QuantityTokens returns the quantity fragments of the original name in compact form:
// digits followed by the unit, lower-cased, comma turned into a dot.
func (e *TermExtractor) QuantityTokens(name string) []string {
	var tokens []string
	for _, m := range quantityPattern.FindAllStringSubmatch(name, -1) {
		token := strings.ToLower(strings.ReplaceAll(m[1], ",", ".") + m[2])
		tokens = append(tokens, token)
	}
	return tokens
}

// quantityKeys returns the quantity fragments scaled to their canonical unit, so that
// "1L", "1 Litro" and "1000ml" all produce "1000ml".
func (e *TermExtractor) quantityKeys(name string) map[string]bool {
	keys := make(map[string]bool)
	for _, m := range quantityPattern.FindAllStringSubmatch(name, -1) {
		qty, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
		if err != nil {
			continue
		}
		unit, factor := e.normalizer.NormalizeUnit(m[2])
		keys[qty.Mul(factor).String()+unit] = true
	}
	return keys
}

// ExtractBrands returns the labels of every brand whose alias occurs in the name.
func (e *TermExtractor) ExtractBrands(name string) []string {
	return e.matchEntries(e.dict.brands, name)
}

// ExtractCategories returns the labels of every category whose alias occurs in the name.
func (e *TermExtractor) ExtractCategories(name string) []string {
	return e.matchEntries(e.dict.categories, name)
}

// ExtractFeatures returns the labels of every feature whose alias occurs in the name.
func (e *TermExtractor) ExtractFeatures(name string) []string {
	return e.matchEntries(e.dict.features, name)
}

func (e *TermExtractor) matchEntries(entries []frozenEntry, name string) []string {
	normalized := e.normalizer.NormalizeName(name)
	if normalized == "" {
		return nil
	}

	var labels []string
	for _, entry := range entries {
		for _, alias := range entry.aliases {
			if strings.Contains(normalized, alias) {
				labels = append(labels, entry.label)
				break
			}
		}
	}
	return labels
}

// RelevanceScore returns the fraction of targetKeywords found among the name's keywords.
func (e *TermExtractor) RelevanceScore(name string, targetKeywords []string) float64 {
	targets := make(map[string]bool, len(targetKeywords))
	for _, k := range targetKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			targets[k] = true
		}
	}

	keywords := e.ExtractKeywords(name)
	if len(targets) == 0 || len(keywords) == 0 {
		return 0
	}

	matched := 0
	for _, k := range keywords {
		if targets[k] {
			matched++
		}
	}
	return float64(matched) / float64(len(targets))
}

// AnalyzeProduct extracts every facet of the product name and scores facet coverage.
func (e *TermExtractor) AnalyzeProduct(product domain.Product) domain.KeywordAnalysis {
	analysis := domain.KeywordAnalysis{
		Product:    product,
		Keywords:   e.ExtractKeywords(product.Name),
		Brands:     e.ExtractBrands(product.Name),
		Categories: e.ExtractCategories(product.Name),
		Features:   e.ExtractFeatures(product.Name),
		AnalyzedAt: e.now(),
	}

	analysis.BrandScore = facetScore(analysis.Brands)
	analysis.CategoryScore = facetScore(analysis.Categories)
	analysis.FeatureScore = facetScore(analysis.Features)
	analysis.OverallScore = (analysis.BrandScore + analysis.CategoryScore + analysis.FeatureScore) / facetCountForOverall

	return analysis
}

func facetScore(facet []string) float64 {
	if len(facet) > 0 {
		return facetPresentScore
	}
	return facetAbsentScore
}

// FindSimilarByKeywords ranks candidates by how many of the target's keywords they carry.
// Candidates below 25% relevance are dropped; ties keep input order.
func (e *TermExtractor) FindSimilarByKeywords(target domain.Product, candidates []domain.Product) []domain.Product {
	targetKeywords := e.ExtractKeywords(target.Name)

	type scored struct {
		product domain.Product
		score   float64
	}
	var hits []scored
	for _, candidate := range candidates {
		score := e.RelevanceScore(candidate.Name, targetKeywords)
		if score >= minKeywordRelevance {
			hits = append(hits, scored{product: candidate, score: score})
		}
	}

	slices.SortStableFunc(hits, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	result := make([]domain.Product, 0, len(hits))
	for _, h := range hits {
		result = append(result, h.product)
	}
	return result
}

// relatedCategories reports whether two category names fall into one related-category cluster.
func (e *TermExtractor) relatedCategories(a, b string) bool {
	a = e.normalizer.NormalizeName(a)
	b = e.normalizer.NormalizeName(b)
	for _, cluster := range e.dict.relatedClusters {
		if cluster[a] && cluster[b] {
			return true
		}
	}
	return false
}
