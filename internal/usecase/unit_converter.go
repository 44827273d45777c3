package usecase

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/grocerymatch/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// unitPatterns finds quantity+unit pairs in a product name, one pattern per unit family
// plus the spelled-out Portuguese forms.
var unitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(g|kg|mg|lb|oz)\b`),
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(ml|l|dl|cl|gal|pt)\b`),
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(un|pcs|pct|pack|caixa|embalagem)\b`),
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(grama|gramas|quilo|quilos|litro|litros|unidade|unidades)\b`),
}

// Factors to the family base unit: grams, millilitres, items.
var unitFactors = map[string]decimal.Decimal{
	"g":   decimal.NewFromInt(1),
	"kg":  decimal.NewFromInt(1000),
	"mg":  decimal.RequireFromString("0.001"),
	"lb":  decimal.RequireFromString("453.592"),
	"oz":  decimal.RequireFromString("28.3495"),
	"ml":  decimal.NewFromInt(1),
	"l":   decimal.NewFromInt(1000),
	"dl":  decimal.NewFromInt(100),
	"cl":  decimal.NewFromInt(10),
	"gal": decimal.RequireFromString("3785.41"),
	"pt":  decimal.RequireFromString("473.176"),

	"un":        decimal.NewFromInt(1),
	"pcs":       decimal.NewFromInt(1),
	"pct":       decimal.NewFromInt(1),
	"pack":      decimal.NewFromInt(1),
	"caixa":     decimal.NewFromInt(1),
	"embalagem": decimal.NewFromInt(1),
}

var unitAliases = map[string]string{
	// Weight
	"grama":      "g",
	"gramas":     "g",
	"quilo":      "kg",
	"quilos":     "kg",
	"kilograma":  "kg",
	"kilogramas": "kg",
	"libra":      "lb",
	"libras":     "lb",
	"onça":       "oz",
	"onças":      "oz",
	// Volume
	"mililitro":   "ml",
	"mililitros":  "ml",
	"litro":       "l",
	"litros":      "l",
	"decilitro":   "dl",
	"decilitros":  "dl",
	"centilitro":  "cl",
	"centilitros": "cl",
	"galão":       "gal",
	"galões":      "gal",
	"pinta":       "pt",
	"pintas":      "pt",
	// Count
	"unid":        "un",
	"unidade":     "un",
	"unidades":    "un",
	"peça":        "pcs",
	"peças":       "pcs",
	"pacote":      "pack",
	"pacotes":     "pack",
	"embalagens":  "embalagem",
	"caixas":      "caixa",
}

var unitFamilies = map[string]domain.UnitFamily{
	"g": domain.UnitFamilyWeight, "kg": domain.UnitFamilyWeight, "mg": domain.UnitFamilyWeight,
	"lb": domain.UnitFamilyWeight, "oz": domain.UnitFamilyWeight,
	"ml": domain.UnitFamilyVolume, "l": domain.UnitFamilyVolume, "dl": domain.UnitFamilyVolume,
	"cl": domain.UnitFamilyVolume, "gal": domain.UnitFamilyVolume, "pt": domain.UnitFamilyVolume,
	"un": domain.UnitFamilyCount, "pcs": domain.UnitFamilyCount, "pct": domain.UnitFamilyCount,
	"pack": domain.UnitFamilyCount, "caixa": domain.UnitFamilyCount, "embalagem": domain.UnitFamilyCount,
}

// UnitConverter extracts quantities from names and converts prices within a unit family.
type UnitConverter struct{}

// NewUnitConverter creates a new unit converter
func NewUnitConverter() *UnitConverter {
	return &UnitConverter{}
}

// normalizeUnit resolves aliases. Unknown units are returned lower-cased and untouched.
func (c *UnitConverter) normalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	return u
}

// UnitFamily returns the family of a unit or alias.
func (c *UnitConverter) UnitFamily(unit string) domain.UnitFamily {
	if family, ok := unitFamilies[c.normalizeUnit(unit)]; ok {
		return family
	}
	return domain.UnitFamilyUnknown
}

// StandardUnit returns the base unit of the unit's family; unknown units map to "un".
func (c *UnitConverter) StandardUnit(unit string) string {
	switch c.UnitFamily(unit) {
	case domain.UnitFamilyWeight:
		return "g"
	case domain.UnitFamilyVolume:
		return "ml"
	default:
		return "un"
	}
}

// ExtractUnitsFromName returns every quantity+unit occurrence in the name, in the order
// they appear.
func (c *UnitConverter) ExtractUnitsFromName(name string) []domain.UnitInfo {
	type located struct {
		offset int
		info   domain.UnitInfo
	}

	var found []located
	for _, pattern := range unitPatterns {
		for _, idx := range pattern.FindAllStringSubmatchIndex(name, -1) {
			qty, err := decimal.NewFromString(strings.ReplaceAll(name[idx[2]:idx[3]], ",", "."))
			if err != nil {
				continue
			}
			unit := c.normalizeUnit(name[idx[4]:idx[5]])
			found = append(found, located{offset: idx[0], info: domain.UnitInfo{
				Quantity:     qty,
				Unit:         unit,
				StandardUnit: c.StandardUnit(unit),
				OriginalText: name[idx[0]:idx[1]],
			}})
		}
	}
	slices.SortStableFunc(found, func(a, b located) int { return cmp.Compare(a.offset, b.offset) })

	var units []domain.UnitInfo
	for _, f := range found {
		units = append(units, f.info)
	}
	return units
}

// ConvertPrice re-expresses a price given per fromUnit as a price per toUnit.
// Unknown units and cross-family pairs return the price unchanged.
func (c *UnitConverter) ConvertPrice(price decimal.Decimal, fromUnit, toUnit string) decimal.Decimal {
	if fromUnit == toUnit {
		return price
	}

	from := c.normalizeUnit(fromUnit)
	to := c.normalizeUnit(toUnit)

	fromFactor, fromOK := unitFactors[from]
	toFactor, toOK := unitFactors[to]
	if !fromOK || !toOK || !fromFactor.IsPositive() || !toFactor.IsPositive() {
		return price
	}
	if unitFamilies[from] != unitFamilies[to] {
		return price
	}

	return price.Mul(toFactor).Div(fromFactor)
}

// AreUnitsComparable reports whether both units belong to the same known family.
func (c *UnitConverter) AreUnitsComparable(unit1, unit2 string) bool {
	f1 := c.UnitFamily(unit1)
	return f1 != domain.UnitFamilyUnknown && f1 == c.UnitFamily(unit2)
}

// ConvertToStandardUnit converts a price given per unit into a price per standard unit.
func (c *UnitConverter) ConvertToStandardUnit(name string, price decimal.Decimal, unit string) domain.ConversionResult {
	normalized := c.normalizeUnit(unit)
	standard := c.StandardUnit(normalized)

	return domain.ConversionResult{
		OriginalPrice:    price,
		OriginalUnit:     unit,
		ConvertedPrice:   c.ConvertPrice(price, normalized, standard),
		StandardUnit:     standard,
		ConversionFactor: c.conversionFactor(normalized, standard),
		IsConverted:      normalized != standard,
		ExtractedUnits:   c.ExtractUnitsFromName(name),
	}
}

func (c *UnitConverter) conversionFactor(from, to string) decimal.Decimal {
	if from == to {
		return factorOne
	}
	fromFactor, fromOK := unitFactors[from]
	toFactor, toOK := unitFactors[to]
	if !fromOK || !toOK || toFactor.IsZero() {
		return decimal.Zero
	}
	return fromFactor.Div(toFactor)
}

// StandardizeProduct expresses the product's average price per standard unit.
// The listing price is taken as the price of one package of the first quantity found in
// the name, so "Arroz 1kg" at 2.50 becomes 0.0025 per g. Products without an average
// price, or without a usable quantity, are returned unstandardized.
func (c *UnitConverter) StandardizeProduct(product domain.Product) domain.StandardizedProduct {
	if !product.AveragePrice.Valid {
		return domain.StandardizedProduct{
			Product:      product,
			StandardUnit: "un",
		}
	}

	price := product.AveragePrice.Decimal
	units := c.ExtractUnitsFromName(product.Name)
	if len(units) == 0 || !units[0].Quantity.IsPositive() {
		conversion := c.ConvertToStandardUnit(product.Name, price, "un")
		return domain.StandardizedProduct{
			Product:          product,
			StandardPrice:    conversion.ConvertedPrice,
			StandardUnit:     conversion.StandardUnit,
			ConversionResult: &conversion,
		}
	}

	pkg := units[0]
	conversion := c.ConvertToStandardUnit(product.Name, price.Div(pkg.Quantity), pkg.Unit)
	return domain.StandardizedProduct{
		Product:          product,
		StandardPrice:    conversion.ConvertedPrice,
		StandardUnit:     conversion.StandardUnit,
		IsStandardized:   true,
		ConversionResult: &conversion,
	}
}
