// Package gtin normalizes and scores GTINs from wholesale catalog data and
// generates alternative encodings to try against price-lookup APIs.
package gtin

import (
	"regexp"
	"strings"

	"github.com/dealscope/roi-service/internal/identifiers"
)

// Format identifies the GTIN encoding of a normalized code.
type Format string

const (
	FormatGTIN8  Format = "GTIN-8"
	FormatGTIN12 Format = "GTIN-12"
	FormatGTIN13 Format = "GTIN-13"
	FormatGTIN14 Format = "GTIN-14"
)

// Result holds the outcome of processing one raw GTIN. Process is a pure
// function: the same input always yields the same Result.
type Result struct {
	Original       string   `json:"original"`
	Normalized     string   `json:"normalized"`
	Format         Format   `json:"format,omitempty"`
	IsValid        bool     `json:"isValid"`
	CheckDigitOK   bool     `json:"checkDigitValid"`
	Confidence     int      `json:"confidence"`
	SearchVariants []string `json:"searchVariants,omitempty"`
}

var nonDigitRe = regexp.MustCompile(`\D`)

// Confidence levels per format. Codes with the right shape but a failing
// check digit keep roughly half confidence rather than zero: a single
// mistyped digit is far more likely than a fabricated code.
var confidenceTable = map[Format][2]int{
	FormatGTIN13: {95, 50},
	FormatGTIN12: {90, 40},
	FormatGTIN8:  {85, 30},
	FormatGTIN14: {80, 35},
}

// Process normalizes, classifies and scores a raw GTIN.
//
// Digit lengths 8/12/13/14 are accepted directly. Shorter codes are padded
// with leading zeros to UPC length (confidence -20). Codes of 15-18 digits
// are assumed to carry a prefix and are retried with their last 14, 13 and
// 12 digits (confidence -10 on success). Everything else is invalid with
// confidence 0.
func Process(raw string) Result {
	result := Result{Original: raw}

	digits := nonDigitRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if digits == "" {
		return result
	}

	switch length := len(digits); {
	case length == 8:
		result = classify(result, digits, FormatGTIN8)
	case length == 12:
		result = classify(result, digits, FormatGTIN12)
	case length == 13:
		result = classify(result, digits, FormatGTIN13)
	case length == 14:
		result = classify(result, digits, FormatGTIN14)
	case length < 8:
		result = classify(result, pad(digits, 12), FormatGTIN12)
		result.Confidence = max(0, result.Confidence-20)
	case length <= 18:
		for _, extract := range []int{14, 13, 12} {
			retry := Process(digits[length-extract:])
			if retry.IsValid {
				retry.Original = raw
				retry.Confidence = max(0, retry.Confidence-10)
				result = retry
				break
			}
		}
	}

	if result.Normalized != "" {
		result.SearchVariants = searchVariants(result.Normalized)
	}
	return result
}

func classify(result Result, digits string, format Format) Result {
	valid := identifiers.ValidateCheckDigit(digits)

	result.Normalized = digits
	result.Format = format
	result.IsValid = valid
	result.CheckDigitOK = valid

	levels := confidenceTable[format]
	if valid {
		result.Confidence = levels[0]
	} else {
		result.Confidence = levels[1]
	}
	return result
}

// searchVariants lists alternative encodings worth trying against a lookup
// API, self first, duplicates removed. GTIN-14 variants are never generated
// from EAN-13 codes: the synthesized packaging level is usually wrong.
func searchVariants(normalized string) []string {
	variants := []string{normalized}

	switch len(normalized) {
	case 12:
		// UPC-A is the EAN-13 with an implied leading zero.
		if ean13 := "0" + normalized; identifiers.ValidateCheckDigit(ean13) {
			variants = append(variants, ean13)
		}
	case 13:
		if strings.HasPrefix(normalized, "0") {
			if upc := normalized[1:]; identifiers.ValidateCheckDigit(upc) {
				variants = append(variants, upc)
			}
		}
	case 14:
		// Strip the packaging-indicator digit to recover the unit GTIN-13.
		if base := normalized[1:]; identifiers.ValidateCheckDigit(base) {
			variants = append(variants, base)
		}
	}

	return dedupe(variants)
}

// BestForLookup returns the variant most likely to match a price-lookup API,
// or "" when the code is invalid. EAN-13 is preferred (the primary key for
// European marketplaces), then UPC-12, then the normalized original.
func (r Result) BestForLookup() string {
	if !r.IsValid {
		return ""
	}
	for _, v := range r.SearchVariants {
		if len(v) == 13 && identifiers.ValidateCheckDigit(v) {
			return v
		}
	}
	for _, v := range r.SearchVariants {
		if len(v) == 12 && identifiers.ValidateCheckDigit(v) {
			return v
		}
	}
	return r.Normalized
}

// LookupOrder returns the search variants with the best lookup candidate
// moved to the front, preserving the relative order of the rest.
func (r Result) LookupOrder() []string {
	best := r.BestForLookup()
	if best == "" {
		return r.SearchVariants
	}
	ordered := []string{best}
	for _, v := range r.SearchVariants {
		if v != best {
			ordered = append(ordered, v)
		}
	}
	return ordered
}

func pad(digits string, width int) string {
	if len(digits) >= width {
		return digits
	}
	return strings.Repeat("0", width-len(digits)) + digits
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
