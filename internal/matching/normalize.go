package matching

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dealscope/roi-service/internal/catalog"
)

// Patterns stripped from product names before text search. Wholesale names
// carry volume, weight and pack-count suffixes that hurt marketplace search
// recall.
var nameNoiseRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+ml\b`),
	regexp.MustCompile(`(?i)\d+g\b`),
	regexp.MustCompile(`(?i)\d+oz\b`),
	regexp.MustCompile(`(?i)\d+x\d+`),
	regexp.MustCompile(`(?i)\d+pk\b`),
	regexp.MustCompile(`(?i)\d+ pack\b`),
	regexp.MustCompile(`- \w+$`),
}

// RemoveDiacritics strips combining marks so accented catalog names match
// their unaccented marketplace listings.
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// CleanName removes volume, pack-count and trailing-descriptor noise from a
// product name.
func CleanName(name string) string {
	cleaned := name
	for _, re := range nameNoiseRes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	return strings.Join(strings.Fields(cleaned), " ")
}

// SearchQueries builds fallback text-search queries in priority order, most
// specific first: brand plus cleaned name, brand plus original name, cleaned
// name, original name. Generic placeholder brands ("n/a", "unknown", "private
// label") are treated as no brand. Duplicates are removed case-insensitively
// while preserving order.
func SearchQueries(product catalog.WholesaleProduct) []string {
	brand := strings.TrimSpace(product.Brand)
	if isGenericBrand(brand) {
		brand = ""
	}
	name := strings.TrimSpace(product.Name)
	cleaned := CleanName(name)

	candidates := []string{
		strings.TrimSpace(brand + " " + cleaned),
		strings.TrimSpace(brand + " " + name),
		cleaned,
		name,
	}

	seen := make(map[string]bool, len(candidates))
	var queries []string
	for _, q := range candidates {
		q = RemoveDiacritics(q)
		key := strings.ToLower(q)
		if q != "" && !seen[key] {
			seen[key] = true
			queries = append(queries, q)
		}
	}
	return queries
}

// isGenericBrand checks if a brand is generic/unbranded.
func isGenericBrand(brand string) bool {
	generic := []string{"n/a", "unknown", "-", "", "private label", "own brand", "generic"}
	b := strings.ToLower(strings.TrimSpace(brand))
	for _, g := range generic {
		if b == g {
			return true
		}
	}
	return false
}
