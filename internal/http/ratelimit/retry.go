package ratelimit

import (
	"math"
	"math/rand/v2"
	"strconv"
	"time"
)

// FetchRetryError represents an error when all retry attempts are exhausted
type FetchRetryError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastError  error
}

func (e *FetchRetryError) Error() string {
	msg := "failed to fetch " + e.URL + " after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastStatus != 0 {
		msg += " (HTTP " + strconv.Itoa(e.LastStatus) + ")"
	}
	if e.LastError != nil {
		msg += ": " + e.LastError.Error()
	}
	return msg
}

func (e *FetchRetryError) Unwrap() error {
	return e.LastError
}

// IsRetryableStatus checks if an HTTP status code is retryable
// Retryable: 429, 500-599
func IsRetryableStatus(status int) bool {
	return status == 429 || (status >= 500 && status < 600)
}

// CalculateBackoff calculates exponential backoff delay for a given attempt
// with 0-25% jitter.
func CalculateBackoff(attempt int, config Config) time.Duration {
	exponentialDelay := float64(config.InitialBackoffMs) * math.Pow(2.0, float64(attempt))
	cappedDelay := math.Min(exponentialDelay, float64(config.MaxBackoffMs))
	jitter := rand.Float64() * 0.25 * cappedDelay
	return time.Duration(cappedDelay+jitter) * time.Millisecond
}

// CalculateRateLimitBackoff calculates backoff for HTTP 429 responses. A
// server-provided Retry-After wins; otherwise a steeper 3x exponential is
// used so we back off harder than for plain server errors.
func CalculateRateLimitBackoff(attempt int, config Config, retryAfterHeader *string) time.Duration {
	if retryAfterHeader != nil {
		if seconds, err := strconv.Atoi(*retryAfterHeader); err == nil && seconds > 0 {
			jitter := time.Duration(rand.Float64() * float64(time.Second))
			return time.Duration(seconds)*time.Second + jitter
		}
	}

	exponentialDelay := float64(config.InitialBackoffMs) * math.Pow(3.0, float64(attempt))
	cappedDelay := math.Min(exponentialDelay, float64(config.MaxBackoffMs))
	jitter := rand.Float64() * 0.25 * cappedDelay
	return time.Duration(cappedDelay+jitter) * time.Millisecond
}
