package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a node of the external category tree. ParentID is empty for roots.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

// Product is a catalog listing as handed over by the scraping/persistence collaborators.
// The engine treats it as an immutable value record during a matching pass.
type Product struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Brand           string              `json:"brand,omitempty"`
	Description     string              `json:"description,omitempty"`
	Category        *Category           `json:"category,omitempty"`
	AveragePrice    decimal.NullDecimal `json:"averagePrice"`
	MinPrice        decimal.NullDecimal `json:"minPrice"`
	MaxPrice        decimal.NullDecimal `json:"maxPrice"`
	LastPriceUpdate *time.Time          `json:"lastPriceUpdate,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// HasCategory reports whether the product carries a named category.
func (p Product) HasCategory() bool {
	return p.Category != nil && p.Category.Name != ""
}

// CategoryName returns the category name or "" when absent.
func (p Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

// ProductMatch is one ranked candidate returned by similar-product discovery.
type ProductMatch struct {
	Product      Product  `json:"product"`
	Score        float64  `json:"score"`
	MatchReasons []string `json:"matchReasons"`
}

// DuplicateGroup holds listings judged to denote the same physical product.
// Confidence is the lowest seed-to-member score observed while the group was formed.
type DuplicateGroup struct {
	ID          string    `json:"id"`
	Products    []Product `json:"products"`
	BestProduct Product   `json:"bestProduct"`
	Confidence  float64   `json:"confidence"`
	Reasons     []string  `json:"reasons"`
}

// DuplicateReport summarizes a duplicate-detection pass over a product list.
type DuplicateReport struct {
	TotalProducts     int              `json:"totalProducts"`
	DuplicateProducts int              `json:"duplicateProducts"`
	UniqueProducts    int              `json:"uniqueProducts"`
	DuplicateGroups   []DuplicateGroup `json:"duplicateGroups"`
	DuplicateRate     float64          `json:"duplicateRate"`
	GeneratedAt       time.Time        `json:"generatedAt"`
}

// KeywordAnalysis is the dictionary-driven facet breakdown of one product name.
type KeywordAnalysis struct {
	Product       Product   `json:"product"`
	Keywords      []string  `json:"keywords"`
	Brands        []string  `json:"brands"`
	Categories    []string  `json:"categories"`
	Features      []string  `json:"features"`
	BrandScore    float64   `json:"brandScore"`
	CategoryScore float64   `json:"categoryScore"`
	FeatureScore  float64   `json:"featureScore"`
	OverallScore  float64   `json:"overallScore"`
	AnalyzedAt    time.Time `json:"analyzedAt"`
}
