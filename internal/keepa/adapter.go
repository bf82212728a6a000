package keepa

import (
	"context"
	"errors"

	"github.com/dealscope/roi-service/internal/matching"
)

// MatchSource adapts the Keepa client to the matcher's collaborator
// interfaces.
type MatchSource struct {
	client *Client
}

// NewMatchSource wraps a Keepa client for use by the product matcher.
func NewMatchSource(client *Client) *MatchSource {
	return &MatchSource{client: client}
}

// Lookup resolves a barcode to a listing.
func (s *MatchSource) Lookup(ctx context.Context, code string) (*matching.PriceRecord, error) {
	product, err := s.client.GetProduct(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return nil, matching.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toPriceRecord(product), nil
}

// Search finds listings by free-text query, best match first.
func (s *MatchSource) Search(ctx context.Context, query string) ([]matching.PriceRecord, error) {
	products, err := s.client.Search(ctx, query)
	if errors.Is(err, ErrNotFound) {
		return nil, matching.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	records := make([]matching.PriceRecord, 0, len(products))
	for _, product := range products {
		records = append(records, *toPriceRecord(product))
	}
	return records, nil
}

func toPriceRecord(product *Product) *matching.PriceRecord {
	return &matching.PriceRecord{
		ASIN:       product.ASIN,
		Title:      product.Title,
		Price:      product.CurrentPrice,
		WeightKG:   product.WeightKG,
		Dimensions: product.Dimensions,
		Category:   product.FeeCategory,
	}
}
