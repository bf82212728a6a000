package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoHeader is returned when the catalog file has no usable header row.
var ErrNoHeader = errors.New("catalog: no header row")

// column roles detected from header names.
type columnRole int

const (
	colGTIN columnRole = iota
	colName
	colBrand
	colCategory
	colPrice
	colUnit
	colStock
	colSuppliers
	colProductURL
	colImageURL
)

// Header keywords per role, checked by substring match on the lowercased
// header. Earlier keywords win when several headers qualify.
var columnKeywords = map[columnRole][]string{
	colGTIN:       {"gtin", "ean", "barcode", "upc"},
	colName:       {"name", "title", "product"},
	colBrand:      {"brand"},
	colCategory:   {"category"},
	colPrice:      {"price"},
	colUnit:       {"unit"},
	colStock:      {"inventory", "stock"},
	colSuppliers:  {"number of offers", "offers", "suppliers"},
	colProductURL: {"product url"},
	colImageURL:   {"image url", "image"},
}

// detectColumns maps each role to the first header that matches one of its
// keywords. Roles without a matching header are absent from the result.
func detectColumns(headers []string) map[columnRole]int {
	columns := make(map[columnRole]int)
	for role, keywords := range columnKeywords {
		for _, keyword := range keywords {
			for i, header := range headers {
				if strings.Contains(strings.ToLower(strings.TrimSpace(header)), keyword) {
					if _, taken := columns[role]; !taken {
						columns[role] = i
					}
				}
			}
			if _, found := columns[role]; found {
				break
			}
		}
	}
	return columns
}

// ParseCSV parses a catalog CSV export. Rows missing a GTIN or name are
// skipped, not errors. limit caps the number of returned products; 0 means
// unlimited.
func ParseCSV(r io.Reader, limit int) ([]WholesaleProduct, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := detectColumns(headers)
	if _, ok := columns[colGTIN]; !ok {
		return nil, fmt.Errorf("catalog: no GTIN column in header %v", headers)
	}

	var products []WholesaleProduct
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if limit > 0 && len(products) >= limit {
			break
		}
		if product, ok := buildProduct(row, columns); ok {
			products = append(products, product)
		}
	}
	return products, nil
}

// buildProduct maps one row to a product using the detected columns. Returns
// false for rows without a GTIN or name.
func buildProduct(row []string, columns map[columnRole]int) (WholesaleProduct, bool) {
	field := func(role columnRole) string {
		i, ok := columns[role]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	product := WholesaleProduct{
		GTIN:           field(colGTIN),
		Name:           field(colName),
		Brand:          field(colBrand),
		Category:       field(colCategory),
		Unit:           field(colUnit),
		ProductURL:     field(colProductURL),
		ImageURL:       field(colImageURL),
		WholesalePrice: parsePrice(field(colPrice)),
		Stock:          parseInt(field(colStock)),
		Suppliers:      parseInt(field(colSuppliers)),
	}

	if product.GTIN == "" || product.Name == "" {
		return WholesaleProduct{}, false
	}
	return product, true
}

// parsePrice handles both dot and comma decimal separators and currency
// symbols in price cells. Unparseable values yield 0.
func parsePrice(s string) float64 {
	cleaned := strings.NewReplacer("€", "", "$", "", " ", "", " ", "").Replace(s)
	if strings.Contains(cleaned, ",") && !strings.Contains(cleaned, ".") {
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

func parseInt(s string) int {
	value, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return value
}
