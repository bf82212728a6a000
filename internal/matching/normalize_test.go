package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dealscope/roi-service/internal/catalog"
)

func TestRemoveDiacritics(t *testing.T) {
	cases := map[string]string{
		"Crème Brûlée":   "Creme Brulee",
		"L'Oréal":        "L'Oreal",
		"Schwarzkopf":    "Schwarzkopf",
		"Nivea Señorita": "Nivea Senorita",
	}
	for in, want := range cases {
		assert.Equal(t, want, RemoveDiacritics(in))
	}
}

func TestCleanName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Shampoo 250ml", "Shampoo"},
		{"Body Lotion 400g", "Body Lotion"},
		{"Perfume 3oz", "Perfume"},
		{"Wipes 3x80", "Wipes"},
		{"Soap 6pk", "Soap"},
		{"Soap 6 pack", "Soap"},
		{"Face Cream - Limited", "Face Cream"},
		{"Plain Name", "Plain Name"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CleanName(tc.in), tc.in)
	}
}

func TestSearchQueries(t *testing.T) {
	product := catalog.WholesaleProduct{
		Brand: "L'Oréal",
		Name:  "Elvive Shampoo 250ml",
	}

	queries := SearchQueries(product)

	assert.Equal(t, []string{
		"L'Oreal Elvive Shampoo",
		"L'Oreal Elvive Shampoo 250ml",
		"Elvive Shampoo",
		"Elvive Shampoo 250ml",
	}, queries)
}

func TestSearchQueriesDedupes(t *testing.T) {
	// Clean name equals original: brand+name and name collapse to two queries.
	product := catalog.WholesaleProduct{Brand: "Acme", Name: "Soap Bar"}
	queries := SearchQueries(product)
	assert.Equal(t, []string{"Acme Soap Bar", "Soap Bar"}, queries)
}

func TestSearchQueriesNoBrand(t *testing.T) {
	product := catalog.WholesaleProduct{Name: "Soap Bar 100g"}
	queries := SearchQueries(product)
	assert.Equal(t, []string{"Soap Bar", "Soap Bar 100g"}, queries)
}

func TestSearchQueriesGenericBrand(t *testing.T) {
	// Placeholder brands must not leak into the queries.
	product := catalog.WholesaleProduct{Brand: "n/a", Name: "Soap Bar 100g"}
	queries := SearchQueries(product)
	assert.Equal(t, []string{"Soap Bar", "Soap Bar 100g"}, queries)

	product = catalog.WholesaleProduct{Brand: "Private Label", Name: "Soap Bar"}
	assert.Equal(t, []string{"Soap Bar"}, SearchQueries(product))
}

func TestIsGenericBrand(t *testing.T) {
	assert.True(t, isGenericBrand("n/a"))
	assert.True(t, isGenericBrand("  Private Label "))
	assert.True(t, isGenericBrand(""))
	assert.False(t, isGenericBrand("Nivea"))
}
