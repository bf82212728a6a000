package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealscope/roi-service/internal/http/ratelimit"
)

func fastConfig(maxRetries int) ratelimit.Config {
	return ratelimit.Config{
		RequestsPerMinute: 0,
		MaxRetries:        maxRetries,
		InitialBackoffMs:  1,
		MaxBackoffMs:      5,
	}
}

func TestDoReplaysBodyOnRetry(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		mu.Lock()
		bodies = append(bodies, string(data))
		failFirst := len(bodies) == 1
		mu.Unlock()

		if failFirst {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(fastConfig(2))
	resp, err := client.Do(context.Background(), "POST", server.URL, []byte(`{"email":"x","password":"y"}`), nil)
	require.NoError(t, err)
	resp.Body.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 2)
	assert.Equal(t, `{"email":"x","password":"y"}`, bodies[0])
	assert.Equal(t, `{"email":"x","password":"y"}`, bodies[1])
}

func TestDoStopsOnNonRetryableStatus(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(fastConfig(3))
	_, err := client.Do(context.Background(), "GET", server.URL, nil, nil)
	require.Error(t, err)

	var retryErr *ratelimit.FetchRetryError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, http.StatusBadRequest, retryErr.LastStatus)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, attempts)
}

func TestDoExhaustsRetries(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(fastConfig(2))
	_, err := client.Do(context.Background(), "GET", server.URL, nil, nil)
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts)
}
