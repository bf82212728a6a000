package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `GTIN,Name,Category,Brand,€ Lowest Price inc. shipping,Unit,Lowest Priced Offer Inventory,Number of Offers,Product URL,Image URL
3600523951369,Elvive Shampoo 250ml,Hair Care,L'Oreal,"4,20",piece,150,3,https://qogita.example/p/1,https://qogita.example/i/1.jpg
96385074,Soap Bar,Bath,Acme,1.10,piece,40,1,https://qogita.example/p/2,
,Missing GTIN,Bath,Acme,1.00,piece,1,1,,
3600523951370,,Bath,Acme,1.00,piece,1,1,,
`

func TestParseCSV(t *testing.T) {
	products, err := ParseCSV(strings.NewReader(sampleCSV), 0)
	require.NoError(t, err)
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, "3600523951369", first.GTIN)
	assert.Equal(t, "Elvive Shampoo 250ml", first.Name)
	assert.Equal(t, "L'Oreal", first.Brand)
	assert.Equal(t, "Hair Care", first.Category)
	assert.Equal(t, 4.20, first.WholesalePrice)
	assert.Equal(t, 150, first.Stock)
	assert.Equal(t, 3, first.Suppliers)
	assert.Equal(t, "https://qogita.example/p/1", first.ProductURL)

	// Dot-decimal prices parse too.
	assert.Equal(t, 1.10, products[1].WholesalePrice)
}

func TestParseCSVLimit(t *testing.T) {
	products, err := ParseCSV(strings.NewReader(sampleCSV), 1)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestParseCSVNoGTINColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Name,Price\nSoap,1.00\n"), 0)
	assert.Error(t, err)
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""), 0)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestDetectColumnsAlternateHeaders(t *testing.T) {
	columns := detectColumns([]string{"EAN Code", "Product Title", "Wholesale Price", "Stock"})
	assert.Equal(t, 0, columns[colGTIN])
	assert.Equal(t, 1, columns[colName])
	assert.Equal(t, 2, columns[colPrice])
	assert.Equal(t, 3, columns[colStock])
}

func TestParsePrice(t *testing.T) {
	cases := map[string]float64{
		"4,20":     4.20,
		"4.20":     4.20,
		"€ 4,20":   4.20,
		"1 234.50": 1234.50,
		"":         0,
		"n/a":      0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parsePrice(in), in)
	}
}
