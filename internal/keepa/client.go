// Package keepa is a client for the Keepa product-data API, used to resolve
// identifiers to Amazon listings and current prices.
package keepa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dealscope/roi-service/internal/fees"
	httpclient "github.com/dealscope/roi-service/internal/http"
	"github.com/dealscope/roi-service/internal/http/ratelimit"
	"github.com/dealscope/roi-service/internal/identifiers"
)

// ErrNotFound indicates Keepa has no product for the given identifier.
var ErrNotFound = errors.New("keepa: product not found")

// DomainFR is the Keepa domain id for amazon.fr.
const DomainFR = 8

// Config holds Keepa client configuration.
type Config struct {
	APIKey    string                  `mapstructure:"api_key"`
	BaseURL   string                  `mapstructure:"base_url"`
	Domain    int                     `mapstructure:"domain"`
	RateLimit ratelimit.PartialConfig `mapstructure:"rate_limit"`
}

// Product is a parsed Keepa listing.
type Product struct {
	ASIN         string           `json:"asin"`
	Title        string           `json:"title"`
	CurrentPrice *float64         `json:"currentPrice,omitempty"`
	SalesRank    *int64           `json:"salesRank,omitempty"`
	ReviewCount  int              `json:"reviewCount"`
	Rating       float64          `json:"rating"`
	Category     string           `json:"category,omitempty"`
	FeeCategory  string           `json:"feeCategory"`
	WeightKG     float64          `json:"weightKg"`
	Dimensions   *fees.Dimensions `json:"dimensions,omitempty"`
	InStock      bool             `json:"inStock"`
	LastUpdate   int64            `json:"lastUpdate"`
}

// Client talks to the Keepa API with rate limiting and retries.
type Client struct {
	apiKey  string
	baseURL string
	domain  int
	http    *httpclient.Client
	logger  zerolog.Logger
}

// NewClient creates a Keepa client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.keepa.com"
	}
	domain := cfg.Domain
	if domain == 0 {
		domain = DomainFR
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		domain:  domain,
		http:    httpclient.NewClient(ratelimit.WithOverrides(cfg.RateLimit)),
		logger:  logger.With().Str("component", "keepa").Logger(),
	}
}

// Keepa price history indices.
const (
	csvIndexAmazon    = 1
	csvIndexSalesRank = 3
)

// keepaProduct is the raw wire shape of one product.
type keepaProduct struct {
	ASIN         string    `json:"asin"`
	Title        string    `json:"title"`
	CSV          [][]int64 `json:"csv"`
	ReviewCount  int       `json:"reviewCount"`
	Rating       int       `json:"rating"`
	CategoryTree []struct {
		Name string `json:"name"`
	} `json:"categoryTree"`
	PackageWeight      int   `json:"packageWeight"` // grams
	PackageLength      int   `json:"packageLength"` // millimeters
	PackageWidth       int   `json:"packageWidth"`
	PackageHeight      int   `json:"packageHeight"`
	AvailabilityAmazon int   `json:"availabilityAmazon"`
	LastUpdate         int64 `json:"lastUpdate"`
}

type keepaResponse struct {
	Products []keepaProduct `json:"products"`
}

// GetProduct looks up one listing by ASIN or barcode. Non-ASIN identifiers
// are sent via Keepa's code parameter.
func (c *Client) GetProduct(ctx context.Context, code string) (*Product, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("domain", fmt.Sprintf("%d", c.domain))
	params.Set("stats", "1")

	if identifiers.Classify(code).Kind == identifiers.KindASIN {
		params.Set("asin", code)
	} else {
		params.Set("code", code)
	}

	resp, err := c.fetch(ctx, "/product", params)
	if err != nil {
		return nil, err
	}
	if len(resp.Products) == 0 {
		return nil, ErrNotFound
	}

	product := parseProduct(resp.Products[0])
	if product.ASIN == "" {
		return nil, ErrNotFound
	}
	return product, nil
}

// Search finds listings by free-text query, best match first.
func (c *Client) Search(ctx context.Context, query string) ([]*Product, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("domain", fmt.Sprintf("%d", c.domain))
	params.Set("type", "product")
	params.Set("term", query)

	resp, err := c.fetch(ctx, "/search", params)
	if err != nil {
		return nil, err
	}

	products := make([]*Product, 0, len(resp.Products))
	for _, raw := range resp.Products {
		if p := parseProduct(raw); p.ASIN != "" {
			products = append(products, p)
		}
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return products, nil
}

// PricePoint is one historical price observation.
type PricePoint struct {
	KeepaTime int64   `json:"keepaTime"`
	Price     float64 `json:"price"`
}

// GetPriceHistory returns the Amazon price history for an ASIN.
func (c *Client) GetPriceHistory(ctx context.Context, asin string, days int) ([]PricePoint, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("domain", fmt.Sprintf("%d", c.domain))
	params.Set("asin", asin)
	params.Set("history", "1")
	params.Set("days", fmt.Sprintf("%d", days))

	resp, err := c.fetch(ctx, "/product", params)
	if err != nil {
		return nil, err
	}
	if len(resp.Products) == 0 {
		return nil, ErrNotFound
	}

	series := csvSeries(resp.Products[0].CSV, csvIndexAmazon)
	history := make([]PricePoint, 0, len(series)/2)
	for i := 0; i+1 < len(series); i += 2 {
		if cents := series[i+1]; cents > 0 {
			history = append(history, PricePoint{
				KeepaTime: series[i],
				Price:     float64(cents) / 100,
			})
		}
	}
	return history, nil
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) (*keepaResponse, error) {
	resp, err := c.http.Get(ctx, c.baseURL+path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("keepa %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("keepa %s: read body: %w", path, err)
	}

	var parsed keepaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("keepa %s: decode response: %w", path, err)
	}
	return &parsed, nil
}

// parseProduct converts the raw wire shape into our model. Prices arrive in
// euro cents with -1 meaning no data.
func parseProduct(raw keepaProduct) *Product {
	product := &Product{
		ASIN:        raw.ASIN,
		Title:       raw.Title,
		ReviewCount: raw.ReviewCount,
		Rating:      float64(raw.Rating) / 10, // Keepa returns rating x10
		InStock:     raw.AvailabilityAmazon >= 0,
		LastUpdate:  raw.LastUpdate,
	}

	if cents := lastValue(csvSeries(raw.CSV, csvIndexAmazon)); cents > 0 {
		price := float64(cents) / 100
		product.CurrentPrice = &price
	}
	if rank := lastValue(csvSeries(raw.CSV, csvIndexSalesRank)); rank > 0 {
		product.SalesRank = &rank
	}

	if len(raw.CategoryTree) > 0 {
		product.Category = raw.CategoryTree[0].Name
	}
	product.FeeCategory = FeeCategory(product.Category)

	if raw.PackageWeight > 0 {
		product.WeightKG = float64(raw.PackageWeight) / 1000
	}
	if raw.PackageLength > 0 && raw.PackageWidth > 0 && raw.PackageHeight > 0 {
		product.Dimensions = &fees.Dimensions{
			LengthMM: float64(raw.PackageLength),
			WidthMM:  float64(raw.PackageWidth),
			HeightMM: float64(raw.PackageHeight),
		}
	}

	return product
}

func csvSeries(csv [][]int64, index int) []int64 {
	if index >= len(csv) {
		return nil
	}
	return csv[index]
}

// lastValue returns the final value of a [time, value, time, value...]
// series, or -1 when the series is empty.
func lastValue(series []int64) int64 {
	if len(series) < 2 {
		return -1
	}
	return series[len(series)-1]
}
