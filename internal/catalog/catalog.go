// Package catalog defines wholesale catalog records and parses catalog
// exports (CSV and XLSX) into them.
package catalog

// WholesaleProduct is one row of a wholesale catalog download. Immutable
// after parsing.
type WholesaleProduct struct {
	GTIN           string  `json:"gtin"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Brand          string  `json:"brand"`
	WholesalePrice float64 `json:"wholesalePrice"`
	Unit           string  `json:"unit,omitempty"`
	Stock          int     `json:"stock"`
	Suppliers      int     `json:"suppliers"`
	ProductURL     string  `json:"productUrl,omitempty"`
	ImageURL       string  `json:"imageUrl,omitempty"`
}
