// Package identifiers classifies and validates product identifiers
// (ASIN, EAN, UPC, GTIN) entered by users or read from catalog data.
package identifiers

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is the detected identifier kind.
type Kind string

const (
	KindASIN    Kind = "ASIN"
	KindEAN     Kind = "EAN"
	KindUPC     Kind = "UPC"
	KindGTIN    Kind = "GTIN"
	KindUnknown Kind = "UNKNOWN"
)

// Identifier is the result of classifying a raw product code.
// It is a pure value: recomputed on every input, never mutated.
type Identifier struct {
	Original   string `json:"original"`
	Normalized string `json:"normalized"`
	Kind       Kind   `json:"kind"`
	Valid      bool   `json:"valid"`
	Formatted  string `json:"formatted"`
}

// CanLookup reports whether the identifier is usable as a price-lookup key.
func (id Identifier) CanLookup() bool {
	return id.Valid && id.Kind != KindUnknown
}

var separatorRe = regexp.MustCompile(`[-\s]`)
var nonDigitRe = regexp.MustCompile(`\D`)

// Normalize strips common separators and uppercases the code.
func Normalize(code string) string {
	return separatorRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(code)), "")
}

// Classify detects the kind of a product code and validates it.
// Unrecognized or malformed input yields Kind=UNKNOWN, Valid=false;
// it never returns an error so callers can always render something.
func Classify(code string) Identifier {
	normalized := Normalize(code)

	id := Identifier{
		Original:   code,
		Normalized: normalized,
		Kind:       KindUnknown,
		Formatted:  normalized,
	}
	if normalized == "" {
		return id
	}

	if looksLikeASIN(normalized) {
		id.Kind = KindASIN
		id.Valid = validASIN(normalized)
		id.Formatted = normalized
		return id
	}

	digits := nonDigitRe.ReplaceAllString(normalized, "")
	switch len(digits) {
	case 14:
		id.Kind = KindGTIN
	case 13:
		id.Kind = KindEAN
	case 12:
		id.Kind = KindUPC
	case 8:
		id.Kind = KindEAN
	default:
		return id
	}

	id.Normalized = digits
	id.Valid = ValidateCheckDigit(digits)
	id.Formatted = Format(digits, id.Kind)
	return id
}

// looksLikeASIN matches the ASIN shape: 10 alphanumeric chars starting with B.
func looksLikeASIN(code string) bool {
	if len(code) != 10 || code[0] != 'B' {
		return false
	}
	for _, c := range code {
		if !isDigit(byte(c)) && !isUpperLetter(byte(c)) {
			return false
		}
	}
	return true
}

// validASIN requires at least one digit and one letter after the leading B.
func validASIN(asin string) bool {
	if !looksLikeASIN(asin) {
		return false
	}
	hasDigit, hasLetter := false, false
	for i := 1; i < len(asin); i++ {
		if isDigit(asin[i]) {
			hasDigit = true
		} else if isUpperLetter(asin[i]) {
			hasLetter = true
		}
	}
	return hasDigit && hasLetter
}

// ValidateCheckDigit validates a GTIN-family code using the GS1 mod-10
// algorithm: from the rightmost payload digit moving left, weights alternate
// 3,1,3,1..., and the check digit is (10 - sum mod 10) mod 10.
func ValidateCheckDigit(code string) bool {
	if len(code) < 8 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !isDigit(code[i]) {
			return false
		}
	}

	sum := 0
	// Walk payload digits right-to-left, excluding the check digit itself.
	for i := 0; i < len(code)-1; i++ {
		d := int(code[len(code)-2-i] - '0')
		if i%2 == 0 {
			sum += d * 3
		} else {
			sum += d
		}
	}
	check := (10 - (sum % 10)) % 10
	return int(code[len(code)-1]-'0') == check
}

// Format inserts display spacing at fixed offsets per barcode kind.
// ASINs and unrecognized lengths are returned as-is.
func Format(code string, kind Kind) string {
	if kind == KindASIN || kind == KindUnknown {
		return code
	}
	switch len(code) {
	case 13: // EAN-13: XXX XXXX XXXXX X
		return fmt.Sprintf("%s %s %s %s", code[:3], code[3:7], code[7:12], code[12:])
	case 12: // UPC-A: X XXXXX XXXXX X
		return fmt.Sprintf("%s %s %s %s", code[:1], code[1:6], code[6:11], code[11:])
	case 8: // EAN-8: XXXX XXX X
		return fmt.Sprintf("%s %s %s", code[:4], code[4:7], code[7:])
	case 14: // GTIN-14: XX XXXXXX XXXXX X
		return fmt.Sprintf("%s %s %s %s", code[:2], code[2:8], code[8:13], code[13:])
	}
	return code
}

func isDigit(c byte) bool       { return c >= '0' && c <= '9' }
func isUpperLetter(c byte) bool { return c >= 'A' && c <= 'Z' }
