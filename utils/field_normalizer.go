package utils

import (
	"regexp"
	"strings"

	"github.com/Aashish23092/doc-field-extraction/dto"
)

var (
	documentNumberRegex = regexp.MustCompile(`[\w\-/]+`)

	// Separators are not back-referenced, so 01-02.2024 also matches.
	dateRegex = regexp.MustCompile(`\b\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}\b`)

	// Symbols are matched anywhere; word alternatives need word boundaries.
	currencyRegex = regexp.MustCompile(`(?i)(₹|\$|\b(?:USD|INR|EUR|GBP|AUD|CAD|CHF|JPY|CNY|Rupees?|Dollars?)\b)`)

	amountRegex  = regexp.MustCompile(`\d+(?:\.\d+)?`)
	subtypeRegex = regexp.MustCompile(`(?i)\b(import|export)\b`)
)

type normalizeFunc func(raw string) (string, bool)

var normalizers = map[dto.FieldName]normalizeFunc{
	dto.FieldDocumentNumber:   normalizeDocumentNumber,
	dto.FieldDocumentDate:     normalizeDate,
	dto.FieldValidityTillDate: normalizeDate,
	dto.FieldDocumentCurrency: normalizeCurrency,
	dto.FieldDocumentValue:    normalizeAmount,
	dto.FieldDocumentSubtype:  normalizeSubtype,
}

// Normalize strips the canonical value for field out of a verbose LLM answer.
// It never fails: when no rule matches, the trimmed answer is returned.
func Normalize(field dto.FieldName, raw string) string {
	if fn, ok := normalizers[field]; ok {
		if v, ok := fn(raw); ok {
			return v
		}
	}
	return strings.TrimSpace(raw)
}

// NormalizeAll normalizes a batch of raw answers, keeping their order
func NormalizeAll(raw []dto.RawAnswer) []dto.CleanAnswer {
	out := make([]dto.CleanAnswer, 0, len(raw))
	for _, r := range raw {
		out = append(out, dto.CleanAnswer{Field: r.Field, Value: Normalize(r.Field, r.Text)})
	}
	return out
}

func normalizeDocumentNumber(raw string) (string, bool) {
	m := documentNumberRegex.FindString(raw)
	return m, m != ""
}

func normalizeDate(raw string) (string, bool) {
	m := dateRegex.FindString(raw)
	return m, m != ""
}

func normalizeCurrency(raw string) (string, bool) {
	m := currencyRegex.FindString(raw)
	if m == "" {
		return "", false
	}
	return currencyCode(m), true
}

// currencyCode maps a matched symbol, name or code to its 3-letter code
func currencyCode(match string) string {
	lower := strings.ToLower(match)
	switch {
	case match == "₹", strings.HasPrefix(lower, "rupee"):
		return "INR"
	case match == "$", strings.HasPrefix(lower, "dollar"):
		return "USD"
	}
	return strings.ToUpper(match)
}

func normalizeAmount(raw string) (string, bool) {
	m := amountRegex.FindString(strings.ReplaceAll(raw, ",", ""))
	return m, m != ""
}

func normalizeSubtype(raw string) (string, bool) {
	m := subtypeRegex.FindStringSubmatch(raw)
	if len(m) < 2 {
		return "", false
	}
	word := strings.ToLower(m[1])
	return strings.ToUpper(word[:1]) + word[1:], true
}
