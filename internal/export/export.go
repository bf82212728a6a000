// Package export renders matched-product results as CSV and XLSX files for
// sourcing review.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dealscope/roi-service/internal/matching"
)

var columns = []string{
	"GTIN", "Brand", "Product_Name", "Category", "Wholesale_Price_EUR",
	"Amazon_Price_EUR", "Profit_EUR", "ROI_Percentage", "Match_Status",
	"Match_Confidence", "Amazon_ASIN", "Amazon_URL", "Qogita_URL",
	"Stock", "Suppliers", "GTIN_Format", "GTIN_Valid", "Search_Attempts",
}

// WriteCSV writes matched products as CSV.
func WriteCSV(w io.Writer, results []matching.MatchedProduct) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write(row(result)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes matched products as a single-sheet XLSX workbook.
func WriteXLSX(w io.Writer, results []matching.MatchedProduct) error {
	file := excelize.NewFile()
	defer file.Close()

	const sheet = "Matches"
	file.SetSheetName(file.GetSheetName(0), sheet)

	for i, name := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := file.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for rowIdx, result := range results {
		for colIdx, value := range row(result) {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("write row %d: %w", rowIdx+1, err)
			}
		}
	}

	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func row(result matching.MatchedProduct) []string {
	product := result.Product

	price := "N/A"
	if result.AmazonPrice != nil {
		price = money(*result.AmazonPrice)
	}
	profit := "N/A"
	roiPercent := "N/A"
	if result.ROI != nil {
		profit = money(result.ROI.Profit)
		roiPercent = strconv.FormatFloat(result.ROI.ROIPercent, 'f', 1, 64)
	}
	asin := result.ASIN
	if asin == "" {
		asin = "N/A"
	}
	amazonURL := result.AmazonURL
	if amazonURL == "" {
		amazonURL = "N/A"
	}
	valid := "No"
	if result.GTIN.IsValid {
		valid = "Yes"
	}

	return []string{
		product.GTIN,
		product.Brand,
		product.Name,
		product.Category,
		money(product.WholesalePrice),
		price,
		profit,
		roiPercent,
		string(result.Status),
		fmt.Sprintf("%d%%", result.Confidence),
		asin,
		amazonURL,
		product.ProductURL,
		strconv.Itoa(product.Stock),
		strconv.Itoa(product.Suppliers),
		string(result.GTIN.Format),
		valid,
		strings.Join(result.SearchAttempts, ", "),
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
