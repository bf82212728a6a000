package catalog

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX parses a catalog XLSX export. The first sheet is used; column
// detection and row handling match ParseCSV.
func ParseXLSX(r io.Reader, limit int) ([]WholesaleProduct, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	columns := detectColumns(rows[0])
	if _, ok := columns[colGTIN]; !ok {
		return nil, fmt.Errorf("catalog: no GTIN column in header %v", rows[0])
	}

	var products []WholesaleProduct
	for _, row := range rows[1:] {
		if limit > 0 && len(products) >= limit {
			break
		}
		if product, ok := buildProduct(row, columns); ok {
			products = append(products, product)
		}
	}
	return products, nil
}
