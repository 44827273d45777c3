package usecase

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	factorOne  = decimal.NewFromInt(1)
	factorKilo = decimal.NewFromInt(1000)
)

// Normalizer canonicalizes free-text product names and unit tokens.
type Normalizer struct{}

// NewNormalizer creates a new normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeName lower-cases text, strips diacritics and collapses whitespace.
// "Pão  de Forma" becomes "pao de forma".
func (n *Normalizer) NormalizeName(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	// transform.Chain keeps internal state, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		stripped = strings.ToLower(text)
	}

	return strings.Join(strings.Fields(stripped), " ")
}

// NormalizeUnit maps a unit token to one of g, ml or un together with the factor that
// converts a quantity in the token's unit into the canonical one.
// Unknown tokens, blank included, pass through lower-cased and trimmed with factor 1.
func (n *Normalizer) NormalizeUnit(token string) (string, decimal.Decimal) {
	u := strings.ToLower(strings.TrimSpace(token))
	switch u {
	case "kg":
		return "g", factorKilo
	case "g":
		return "g", factorOne
	case "l":
		return "ml", factorKilo
	case "ml":
		return "ml", factorOne
	case "un", "unid", "unidade":
		return "un", factorOne
	default:
		return u, factorOne
	}
}
