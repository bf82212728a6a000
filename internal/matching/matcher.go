// Package matching orchestrates GTIN processing, marketplace price lookup
// and ROI calculation to match wholesale catalog entries against Amazon
// listings.
package matching

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/dealscope/roi-service/internal/catalog"
	"github.com/dealscope/roi-service/internal/fees"
	"github.com/dealscope/roi-service/internal/gtin"
	"github.com/dealscope/roi-service/internal/roi"
)

// ErrNotFound is returned by collaborators when a code or query has no
// listing. Any other error is treated as an upstream failure.
var ErrNotFound = errors.New("listing not found")

// PriceRecord is what a price-lookup collaborator knows about one listing.
type PriceRecord struct {
	ASIN       string
	Title      string
	Price      *float64 // EUR, nil when no current price is retrievable
	WeightKG   float64
	Dimensions *fees.Dimensions
	Category   string
}

// PriceLookup resolves a GTIN/EAN/UPC code to a listing.
type PriceLookup interface {
	Lookup(ctx context.Context, code string) (*PriceRecord, error)
}

// TextSearch finds listings by free-text query, best match first.
type TextSearch interface {
	Search(ctx context.Context, query string) ([]PriceRecord, error)
}

// Status is the terminal outcome of matching one wholesale product.
type Status string

const (
	StatusPending       Status = "pending"
	StatusMatched       Status = "matched"
	StatusMatchedByName Status = "matched_by_name"
	StatusNotFound      Status = "not_found"
	StatusNoPrice       Status = "no_price"
	StatusGTINInvalid   Status = "gtin_invalid"
	StatusError         Status = "error"
)

// MatchedProduct is the result of matching one wholesale product. Confidence
// is always 0 for not_found, gtin_invalid and error outcomes.
type MatchedProduct struct {
	Product        catalog.WholesaleProduct `json:"product"`
	ASIN           string                   `json:"asin,omitempty"`
	AmazonURL      string                   `json:"amazonUrl,omitempty"`
	AmazonPrice    *float64                 `json:"amazonPrice,omitempty"`
	ROI            *roi.Result              `json:"roi,omitempty"`
	Status         Status                   `json:"status"`
	Confidence     int                      `json:"confidence"`
	GTIN           gtin.Result              `json:"gtin"`
	SearchAttempts []string                 `json:"searchAttempts,omitempty"`
	Error          string                   `json:"error,omitempty"`
}

// Config tunes matcher behavior.
type Config struct {
	// MinRequestInterval is the enforced gap between collaborator calls.
	MinRequestInterval time.Duration
	// MarketplaceURL prefixes matched ASINs to build listing URLs.
	MarketplaceURL string
	// DefaultWeightKG substitutes for listings without weight data.
	DefaultWeightKG float64
}

// DefaultConfig spaces requests 1.2s apart against the amazon.fr marketplace.
func DefaultConfig() Config {
	return Config{
		MinRequestInterval: 1200 * time.Millisecond,
		MarketplaceURL:     "https://www.amazon.fr/dp/",
		DefaultWeightKG:    0.5,
	}
}

// Matcher runs the per-product match state machine. Products are processed
// strictly sequentially; the limiter enforces the upstream request interval.
type Matcher struct {
	lookup  PriceLookup
	search  TextSearch
	calc    *roi.Calculator
	limiter *rate.Limiter
	cfg     Config
	metrics *MetricsRecorder
	logger  *slog.Logger
}

// NewMatcher creates a matcher over the given collaborators.
func NewMatcher(lookup PriceLookup, search TextSearch, calc *roi.Calculator, cfg Config) *Matcher {
	if cfg.MinRequestInterval <= 0 {
		cfg.MinRequestInterval = DefaultConfig().MinRequestInterval
	}
	if cfg.MarketplaceURL == "" {
		cfg.MarketplaceURL = DefaultConfig().MarketplaceURL
	}
	if cfg.DefaultWeightKG <= 0 {
		cfg.DefaultWeightKG = DefaultConfig().DefaultWeightKG
	}
	return &Matcher{
		lookup:  lookup,
		search:  search,
		calc:    calc,
		limiter: rate.NewLimiter(rate.Every(cfg.MinRequestInterval), 1),
		cfg:     cfg,
		metrics: NewMetricsRecorder(),
		logger:  slog.Default(),
	}
}

// MatchAll matches products sequentially, emitting results in input order.
// Cancellation is honored between items; on cancellation the partial results
// are returned together with the context error. onProgress may be nil.
func (m *Matcher) MatchAll(ctx context.Context, products []catalog.WholesaleProduct, onProgress func(done, total int, result MatchedProduct)) ([]MatchedProduct, error) {
	results := make([]MatchedProduct, 0, len(products))

	for i, product := range products {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := m.MatchOne(ctx, product)
		results = append(results, result)

		if onProgress != nil {
			onProgress(i+1, len(products), result)
		}
	}
	return results, nil
}

// MatchOne runs the full state machine for a single product. It never
// returns an error: failures terminate in an error-status result.
func (m *Matcher) MatchOne(ctx context.Context, product catalog.WholesaleProduct) MatchedProduct {
	start := time.Now()
	result := m.matchOne(ctx, product)
	m.metrics.RecordMatch(string(result.Status), time.Since(start))
	return result
}

func (m *Matcher) matchOne(ctx context.Context, product catalog.WholesaleProduct) MatchedProduct {
	result := MatchedProduct{
		Product: product,
		Status:  StatusPending,
		GTIN:    gtin.Process(product.GTIN),
	}

	if !result.GTIN.IsValid {
		m.logger.Debug("invalid gtin", "gtin", product.GTIN)
		result.Status = StatusGTINInvalid
		return result
	}

	record, matchedVariant, lookupErr := m.tryVariants(ctx, &result)
	if record != nil {
		m.finishDirect(&result, record, matchedVariant)
		return result
	}
	if ctx.Err() != nil {
		result.Status = StatusError
		result.Error = ctx.Err().Error()
		return result
	}

	found, searchErr := m.tryNameFallback(ctx, &result)
	if found {
		return result
	}
	if ctx.Err() != nil {
		result.Status = StatusError
		result.Error = ctx.Err().Error()
		return result
	}

	// Nothing matched. Distinguish a clean miss from an upstream failure.
	if lookupErr != nil || searchErr != nil {
		result.Status = StatusError
		result.Confidence = 0
		if lookupErr != nil {
			result.Error = lookupErr.Error()
		} else {
			result.Error = searchErr.Error()
		}
		return result
	}
	result.Status = StatusNotFound
	result.Confidence = 0
	return result
}

// tryVariants walks the GTIN search variants best-first. Every attempt is
// recorded. Not-found misses continue to the next variant; upstream errors
// are remembered and reported only if nothing else succeeds.
func (m *Matcher) tryVariants(ctx context.Context, result *MatchedProduct) (*PriceRecord, string, error) {
	var lastErr error
	for _, variant := range result.GTIN.LookupOrder() {
		result.SearchAttempts = append(result.SearchAttempts, variant)

		if err := m.limiter.Wait(ctx); err != nil {
			return nil, "", err
		}
		record, err := m.lookup.Lookup(ctx, variant)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			m.logger.Warn("gtin lookup failed", "variant", variant, "error", err)
			m.metrics.RecordLookupError()
			lastErr = err
			continue
		}
		return record, variant, nil
	}
	return nil, "", lastErr
}

// finishDirect resolves the terminal state for a successful variant lookup.
func (m *Matcher) finishDirect(result *MatchedProduct, record *PriceRecord, variant string) {
	m.attachListing(result, record)

	if record.Price == nil {
		result.Status = StatusNoPrice
		result.Confidence = 60
		return
	}

	result.Status = StatusMatched
	if variant == result.GTIN.Normalized {
		result.Confidence = result.GTIN.Confidence
	} else {
		// Variant matches carry slightly less certainty than the primary form.
		result.Confidence = max(70, result.GTIN.Confidence-10)
	}
}

// tryNameFallback walks the brand+name query ladder against the text-search
// collaborator. Returns true when a terminal state was reached.
func (m *Matcher) tryNameFallback(ctx context.Context, result *MatchedProduct) (bool, error) {
	var lastErr error
	for _, query := range SearchQueries(result.Product) {
		result.SearchAttempts = append(result.SearchAttempts, "name:"+query)

		if err := m.limiter.Wait(ctx); err != nil {
			return false, err
		}
		records, err := m.search.Search(ctx, query)
		if errors.Is(err, ErrNotFound) || (err == nil && len(records) == 0) {
			continue
		}
		if err != nil {
			m.logger.Warn("name search failed", "query", query, "error", err)
			m.metrics.RecordLookupError()
			lastErr = err
			continue
		}

		best := records[0]
		m.attachListing(result, &best)
		if best.Price != nil {
			result.Status = StatusMatchedByName
			result.Confidence = 60
		} else {
			result.Status = StatusNoPrice
			result.Confidence = 40
		}
		return true, nil
	}
	return false, lastErr
}

// attachListing copies listing data onto the result and computes ROI when a
// price is available.
func (m *Matcher) attachListing(result *MatchedProduct, record *PriceRecord) {
	result.ASIN = record.ASIN
	if record.ASIN != "" {
		result.AmazonURL = m.cfg.MarketplaceURL + record.ASIN
	}
	result.AmazonPrice = record.Price

	if record.Price == nil || m.calc == nil {
		return
	}

	weight := record.WeightKG
	if weight <= 0 {
		weight = m.cfg.DefaultWeightKG
	}
	category := record.Category
	if category == "" {
		category = result.Product.Category
	}

	analysis := m.calc.Compute(roi.Input{
		CostPrice:    result.Product.WholesalePrice,
		SellingPrice: *record.Price,
		WeightKG:     weight,
		Category:     category,
		Dimensions:   record.Dimensions,
	})
	result.ROI = &analysis
}
