// Package qogita is a client for the Qogita wholesale marketplace API:
// authentication and catalog download.
package qogita

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dealscope/roi-service/internal/catalog"
	httpclient "github.com/dealscope/roi-service/internal/http"
	"github.com/dealscope/roi-service/internal/http/ratelimit"
)

// Config holds Qogita client configuration.
type Config struct {
	Email     string                  `mapstructure:"email"`
	Password  string                  `mapstructure:"password"`
	BaseURL   string                  `mapstructure:"base_url"`
	RateLimit ratelimit.PartialConfig `mapstructure:"rate_limit"`
}

// tokenTTL is assumed when the API does not state an expiry.
const tokenTTL = 24 * time.Hour

// Client talks to the Qogita API. Authentication is lazy: the first catalog
// call logs in, and the bearer token is refreshed when it ages out.
type Client struct {
	email    string
	password string
	baseURL  string
	http     *httpclient.Client
	logger   zerolog.Logger

	mu          sync.Mutex
	accessToken string
	cartQID     string
	expiresAt   time.Time
}

// NewClient creates a Qogita client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.qogita.com"
	}
	return &Client{
		email:    cfg.Email,
		password: cfg.Password,
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpclient.NewClient(ratelimit.WithOverrides(cfg.RateLimit)),
		logger:   logger.With().Str("component", "qogita").Logger(),
	}
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	User        struct {
		ActiveCartQID string `json:"activeCartQid"`
	} `json:"user"`
}

// Authenticate logs in and stores the bearer token.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticate(ctx)
}

// authenticate performs the login call. Callers must hold c.mu.
func (c *Client) authenticate(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"email":    c.email,
		"password": c.password,
	})
	if err != nil {
		return fmt.Errorf("qogita: marshal login: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(ctx, "POST", c.baseURL+"/auth/login/", payload, header)
	if err != nil {
		return fmt.Errorf("qogita: login: %w", err)
	}
	defer resp.Body.Close()

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return fmt.Errorf("qogita: decode login response: %w", err)
	}
	if login.AccessToken == "" {
		return fmt.Errorf("qogita: no access token in login response")
	}

	c.accessToken = login.AccessToken
	c.cartQID = login.User.ActiveCartQID
	c.expiresAt = time.Now().Add(tokenTTL)
	c.logger.Info().Msg("authenticated")
	return nil
}

// token returns a valid bearer token, logging in when the cached one is
// missing or aged out. The lock is held across the login, so concurrent
// callers trigger a single request.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		return c.accessToken, nil
	}
	if err := c.authenticate(ctx); err != nil {
		return "", err
	}
	return c.accessToken, nil
}

// CatalogFilter narrows a catalog download.
type CatalogFilter struct {
	Brand             string
	Category          string
	StockAvailability string
	Page              int
	Size              int
	MaxProducts       int
}

// DownloadCatalog fetches the catalog CSV export and parses it into
// wholesale products.
func (c *Client) DownloadCatalog(ctx context.Context, filter CatalogFilter) ([]catalog.WholesaleProduct, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	size := filter.Size
	if size <= 0 {
		size = 1000
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))
	if filter.Brand != "" {
		params.Set("brand_name", filter.Brand)
	}
	if filter.Category != "" {
		params.Set("category_name", filter.Category)
	}
	if filter.StockAvailability != "" {
		params.Set("stock_availability", filter.StockAvailability)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	resp, err := c.http.Do(ctx, "GET", c.baseURL+"/variants/search/download/?"+params.Encode(), nil, header)
	if err != nil {
		return nil, fmt.Errorf("qogita: catalog download: %w", err)
	}
	defer resp.Body.Close()

	products, err := catalog.ParseCSV(resp.Body, filter.MaxProducts)
	if err != nil {
		return nil, fmt.Errorf("qogita: parse catalog: %w", err)
	}

	c.logger.Info().
		Int("products", len(products)).
		Str("brand", filter.Brand).
		Str("category", filter.Category).
		Msg("catalog downloaded")
	return products, nil
}

// TestConnection verifies the credentials by logging in.
func (c *Client) TestConnection(ctx context.Context) error {
	return c.Authenticate(ctx)
}
