package keepa

import "strings"

// Marketplace category names (amazon.fr mixes French and English labels)
// mapped to the fee-table categories.
var categoryMappings = map[string]string{
	"beauté et parfum":      "beauty",
	"beauty":                "beauty",
	"beauté":                "beauty",
	"parfum":                "beauty",
	"cosmetics":             "beauty",
	"hygiène et santé":      "beauty",
	"electronics":           "electronics",
	"électronique":          "electronics",
	"high-tech":             "electronics",
	"informatique":          "computers",
	"books":                 "books",
	"livres":                "books",
	"clothing":              "clothing",
	"vêtements":             "clothing",
	"mode":                  "clothing",
	"sports":                "sports",
	"sport":                 "sports",
	"toys":                  "toys",
	"jouets":                "toys",
	"jeux":                  "toys",
	"home":                  "home_garden",
	"maison":                "home_garden",
	"cuisine":               "home_garden",
	"jardin":                "home_garden",
	"auto":                  "automotive",
	"moto":                  "automotive",
	"bijoux":                "jewelry",
	"montres":               "watches",
	"animalerie":            "pet_supplies",
	"fournitures de bureau": "office_products",
}

// FeeCategory maps a marketplace category name to a fee-table category.
// Exact matches win over substring matches; unknown names map to default.
func FeeCategory(categoryName string) string {
	if categoryName == "" {
		return "default"
	}

	lower := strings.ToLower(categoryName)
	if mapped, ok := categoryMappings[lower]; ok {
		return mapped
	}
	for keyword, mapped := range categoryMappings {
		if strings.Contains(lower, keyword) {
			return mapped
		}
	}
	return "default"
}
