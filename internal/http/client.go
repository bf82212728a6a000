// Package http wraps net/http with rate limiting and retry logic shared by
// the marketplace and wholesale API clients.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dealscope/roi-service/internal/http/ratelimit"
)

// Client is an HTTP client with rate limiting and retry logic
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.RateLimiter
	config      ratelimit.Config
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(config ratelimit.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: ratelimit.NewRateLimiter(config),
		config:      config,
	}
}

// NewClientDefault creates a new HTTP client with default rate limiting
func NewClientDefault() *Client {
	return NewClient(ratelimit.DefaultConfig())
}

// Get performs a GET request with rate limiting and retry logic
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.Do(ctx, "GET", url, nil, nil)
}

// Do performs an HTTP request with rate limiting and retry logic. A non-nil
// body is sent in full on every attempt; a fresh reader is built per retry.
func (c *Client) Do(ctx context.Context, method, url string, body []byte, header http.Header) (*http.Response, error) {
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.rateLimiter.Throttle(); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		var reqBody io.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", "DealScope-ROIService/1.0")
		req.Header.Set("Accept", "application/json")
		for key, values := range header {
			req.Header[key] = values
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < c.config.MaxRetries {
				sleep(ctx, ratelimit.CalculateBackoff(attempt, c.config))
				continue
			}
			return nil, &ratelimit.FetchRetryError{
				URL:        url,
				Attempts:   attempt + 1,
				LastStatus: lastStatus,
				LastError:  lastErr,
			}
		}

		lastStatus = resp.StatusCode

		// Success - return immediately
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		// Non-retryable error - fail immediately
		if !ratelimit.IsRetryableStatus(resp.StatusCode) {
			resp.Body.Close()
			return nil, &ratelimit.FetchRetryError{
				URL:        url,
				Attempts:   attempt + 1,
				LastStatus: resp.StatusCode,
			}
		}

		if attempt == c.config.MaxRetries {
			resp.Body.Close()
			return nil, &ratelimit.FetchRetryError{
				URL:        url,
				Attempts:   attempt + 1,
				LastStatus: resp.StatusCode,
			}
		}

		var backoff time.Duration
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := resp.Header.Get("Retry-After")
			var retryAfterPtr *string
			if retryAfter != "" {
				retryAfterPtr = &retryAfter
			}
			backoff = ratelimit.CalculateRateLimitBackoff(attempt, c.config, retryAfterPtr)
		} else {
			backoff = ratelimit.CalculateBackoff(attempt, c.config)
		}

		resp.Body.Close()
		sleep(ctx, backoff)
	}

	return nil, &ratelimit.FetchRetryError{
		URL:        url,
		Attempts:   c.config.MaxRetries + 1,
		LastStatus: lastStatus,
		LastError:  lastErr,
	}
}

// GetBytes performs a GET request and returns the response body as bytes
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// GetConfig returns the current rate limit config
func (c *Client) GetConfig() ratelimit.Config {
	return c.config
}

// SetConfig updates the rate limit config
func (c *Client) SetConfig(config ratelimit.Config) {
	c.config = config
	c.rateLimiter.SetConfig(config)
}

// sleep blocks for the backoff duration or until the context is done.
func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
