package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dealscope/roi-service/internal/catalog"
	"github.com/dealscope/roi-service/internal/gtin"
	"github.com/dealscope/roi-service/internal/matching"
	"github.com/dealscope/roi-service/internal/roi"
)

func sampleResults() []matching.MatchedProduct {
	price := 12.89
	calc := roi.NewCalculator(roi.DefaultSettings())
	analysis := calc.Compute(roi.Input{CostPrice: 4.20, SellingPrice: price, WeightKG: 0.11, Category: "beauty"})

	return []matching.MatchedProduct{
		{
			Product: catalog.WholesaleProduct{
				GTIN:           "3600523951369",
				Name:           "Elvive Shampoo",
				Brand:          "L'Oreal",
				Category:       "beauty",
				WholesalePrice: 4.20,
				Stock:          150,
				Suppliers:      3,
				ProductURL:     "https://qogita.example/p/1",
			},
			ASIN:           "B0BQBXBW88",
			AmazonURL:      "https://www.amazon.fr/dp/B0BQBXBW88",
			AmazonPrice:    &price,
			ROI:            &analysis,
			Status:         matching.StatusMatched,
			Confidence:     95,
			GTIN:           gtin.Process("3600523951369"),
			SearchAttempts: []string{"3600523951369"},
		},
		{
			Product: catalog.WholesaleProduct{GTIN: "bad-code", Name: "Mystery Item"},
			Status:  matching.StatusGTINInvalid,
			GTIN:    gtin.Process("bad-code"),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResults()))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	assert.Equal(t, "GTIN", header[0])
	assert.Equal(t, "Search_Attempts", header[len(header)-1])

	matched := records[1]
	assert.Equal(t, "3600523951369", matched[0])
	assert.Equal(t, "12.89", matched[5])
	assert.Equal(t, "matched", matched[8])
	assert.Equal(t, "95%", matched[9])
	assert.Equal(t, "GTIN-13", matched[15])
	assert.Equal(t, "Yes", matched[16])

	invalid := records[2]
	assert.Equal(t, "N/A", invalid[5])
	assert.Equal(t, "gtin_invalid", invalid[8])
	assert.Equal(t, "No", invalid[16])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleResults()))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows("Matches")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "GTIN", rows[0][0])
	assert.Equal(t, "3600523951369", rows[1][0])
}
