package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealscope/roi-service/internal/catalog"
	"github.com/dealscope/roi-service/internal/roi"
)

type stubLookup struct {
	records map[string]*PriceRecord
	err     error
	calls   []string
}

func (s *stubLookup) Lookup(_ context.Context, code string) (*PriceRecord, error) {
	s.calls = append(s.calls, code)
	if s.err != nil {
		return nil, s.err
	}
	if record, ok := s.records[code]; ok {
		return record, nil
	}
	return nil, ErrNotFound
}

type stubSearch struct {
	results map[string][]PriceRecord
	err     error
	calls   []string
}

func (s *stubSearch) Search(_ context.Context, query string) ([]PriceRecord, error) {
	s.calls = append(s.calls, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[query], nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MinRequestInterval = time.Microsecond
	return cfg
}

func priceOf(v float64) *float64 { return &v }

func testProduct() catalog.WholesaleProduct {
	return catalog.WholesaleProduct{
		GTIN:           "3600523951369",
		Name:           "Elvive Shampoo 250ml",
		Brand:          "L'Oreal",
		Category:       "beauty",
		WholesalePrice: 4.20,
	}
}

func TestMatchOneInvalidGTIN(t *testing.T) {
	lookup := &stubLookup{}
	matcher := NewMatcher(lookup, &stubSearch{}, nil, testConfig())

	result := matcher.MatchOne(context.Background(), catalog.WholesaleProduct{GTIN: "not-a-gtin"})

	assert.Equal(t, StatusGTINInvalid, result.Status)
	assert.Equal(t, 0, result.Confidence)
	assert.Nil(t, result.AmazonPrice)
	assert.Empty(t, lookup.calls)
}

func TestMatchOneDirectMatch(t *testing.T) {
	lookup := &stubLookup{records: map[string]*PriceRecord{
		"3600523951369": {ASIN: "B0BQBXBW88", Price: priceOf(12.89), WeightKG: 0.11, Category: "beauty"},
	}}
	calc := roi.NewCalculator(roi.DefaultSettings())
	matcher := NewMatcher(lookup, &stubSearch{}, calc, testConfig())

	result := matcher.MatchOne(context.Background(), testProduct())

	assert.Equal(t, StatusMatched, result.Status)
	assert.Equal(t, 95, result.Confidence)
	assert.Equal(t, "B0BQBXBW88", result.ASIN)
	assert.Equal(t, "https://www.amazon.fr/dp/B0BQBXBW88", result.AmazonURL)
	require.NotNil(t, result.AmazonPrice)
	assert.Equal(t, 12.89, *result.AmazonPrice)
	require.NotNil(t, result.ROI)
	assert.InDelta(t, result.ROI.NetProceeds-result.ROI.TotalCosts, result.ROI.Profit, 1e-9)
	assert.Equal(t, []string{"3600523951369"}, result.SearchAttempts)
}

func TestMatchOneVariantMatchReducedConfidence(t *testing.T) {
	// UPC whose EAN-13 form is the one the marketplace knows.
	lookup := &stubLookup{records: map[string]*PriceRecord{
		"0012345678905": {ASIN: "B0TESTASIN1", Price: priceOf(9.99)},
	}}
	matcher := NewMatcher(lookup, &stubSearch{}, nil, testConfig())

	product := testProduct()
	product.GTIN = "012345678905"
	result := matcher.MatchOne(context.Background(), product)

	assert.Equal(t, StatusMatched, result.Status)
	// Base UPC confidence 90, variant penalty brings it to 80.
	assert.Equal(t, 80, result.Confidence)
}

func TestMatchOneNoPrice(t *testing.T) {
	lookup := &stubLookup{records: map[string]*PriceRecord{
		"3600523951369": {ASIN: "B0TESTASIN1"},
	}}
	matcher := NewMatcher(lookup, &stubSearch{}, nil, testConfig())

	result := matcher.MatchOne(context.Background(), testProduct())

	assert.Equal(t, StatusNoPrice, result.Status)
	assert.Equal(t, 60, result.Confidence)
	assert.Nil(t, result.AmazonPrice)
	assert.Nil(t, result.ROI)
}

func TestMatchOneNameFallback(t *testing.T) {
	search := &stubSearch{results: map[string][]PriceRecord{
		"L'Oreal Elvive Shampoo": {{ASIN: "B0TESTASIN1", Price: priceOf(14.50)}},
	}}
	calc := roi.NewCalculator(roi.DefaultSettings())
	matcher := NewMatcher(&stubLookup{}, search, calc, testConfig())

	result := matcher.MatchOne(context.Background(), testProduct())

	assert.Equal(t, StatusMatchedByName, result.Status)
	assert.Equal(t, 60, result.Confidence)
	assert.NotNil(t, result.ROI)
	assert.Contains(t, result.SearchAttempts, "3600523951369")
	assert.Contains(t, result.SearchAttempts, "name:L'Oreal Elvive Shampoo")
}

func TestMatchOneNameFallbackNoPrice(t *testing.T) {
	search := &stubSearch{results: map[string][]PriceRecord{
		"L'Oreal Elvive Shampoo": {{ASIN: "B0TESTASIN1"}},
	}}
	matcher := NewMatcher(&stubLookup{}, search, nil, testConfig())

	result := matcher.MatchOne(context.Background(), testProduct())

	assert.Equal(t, StatusNoPrice, result.Status)
	assert.Equal(t, 40, result.Confidence)
}

func TestMatchOneNotFound(t *testing.T) {
	search := &stubSearch{}
	matcher := NewMatcher(&stubLookup{}, search, nil, testConfig())

	result := matcher.MatchOne(context.Background(), testProduct())

	assert.Equal(t, StatusNotFound, result.Status)
	assert.Equal(t, 0, result.Confidence)
	// Every query variant was attempted and recorded.
	assert.NotEmpty(t, search.calls)
}

func TestMatchOneUpstreamFailure(t *testing.T) {
	upstream := errors.New("keepa: 502")
	matcher := NewMatcher(&stubLookup{err: upstream}, &stubSearch{err: upstream}, nil, testConfig())

	result := matcher.MatchOne(context.Background(), testProduct())

	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, 0, result.Confidence)
	assert.Contains(t, result.Error, "502")
}

func TestMatchAllPreservesOrder(t *testing.T) {
	lookup := &stubLookup{records: map[string]*PriceRecord{
		"3600523951369": {ASIN: "B0TESTASIN1", Price: priceOf(10)},
	}}
	matcher := NewMatcher(lookup, &stubSearch{}, nil, testConfig())

	first := testProduct()
	second := testProduct()
	second.GTIN = "bad"
	third := testProduct()
	third.GTIN = "96385074"

	var progress []int
	results, err := matcher.MatchAll(context.Background(),
		[]catalog.WholesaleProduct{first, second, third},
		func(done, total int, _ MatchedProduct) { progress = append(progress, done) })

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, StatusMatched, results[0].Status)
	assert.Equal(t, StatusGTINInvalid, results[1].Status)
	assert.Equal(t, StatusNotFound, results[2].Status)
	assert.Equal(t, []int{1, 2, 3}, progress)
}

func TestMatchAllHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	matcher := NewMatcher(&stubLookup{}, &stubSearch{}, nil, testConfig())
	results, err := matcher.MatchAll(ctx, []catalog.WholesaleProduct{testProduct()}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}
