package domain

import "github.com/shopspring/decimal"

// UnitFamily groups units that can be converted into each other.
type UnitFamily string

const (
	UnitFamilyUnknown UnitFamily = "unknown"
	UnitFamilyWeight  UnitFamily = "weight"
	UnitFamilyVolume  UnitFamily = "volume"
	UnitFamilyCount   UnitFamily = "count"
)

// UnitInfo is one quantity+unit occurrence found in a product name, e.g. "500g".
type UnitInfo struct {
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	StandardUnit string          `json:"standardUnit"`
	OriginalText string          `json:"originalText"`
}

// ConversionResult describes a price converted into its family's standard unit.
type ConversionResult struct {
	OriginalPrice    decimal.Decimal `json:"originalPrice"`
	OriginalUnit     string          `json:"originalUnit"`
	ConvertedPrice   decimal.Decimal `json:"convertedPrice"`
	StandardUnit     string          `json:"standardUnit"`
	ConversionFactor decimal.Decimal `json:"conversionFactor"`
	IsConverted      bool            `json:"isConverted"`
	ExtractedUnits   []UnitInfo      `json:"extractedUnits"`
}

// StandardizedProduct carries a product's average price expressed per standard unit
// (per g, per ml or per item) so listings from different retailers can be compared.
type StandardizedProduct struct {
	Product          Product           `json:"product"`
	StandardPrice    decimal.Decimal   `json:"standardPrice"`
	StandardUnit     string            `json:"standardUnit"`
	IsStandardized   bool              `json:"isStandardized"`
	ConversionResult *ConversionResult `json:"conversionResult,omitempty"`
}
