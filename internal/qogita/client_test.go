package qogita

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealscope/roi-service/internal/http/ratelimit"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	noLimit := 0
	noRetry := 0
	return NewClient(Config{
		Email:    "buyer@example.com",
		Password: "secret",
		BaseURL:  server.URL,
		RateLimit: ratelimit.PartialConfig{
			RequestsPerMinute: &noLimit,
			MaxRetries:        &noRetry,
		},
	}, zerolog.Nop())
}

func TestAuthenticate(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/auth/login/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "buyer@example.com", body["email"])
		assert.Equal(t, "secret", body["password"])

		w.Write([]byte(`{"accessToken":"tok123","user":{"activeCartQid":"cart-1"}}`))
	}))

	require.NoError(t, client.Authenticate(context.Background()))
	assert.Equal(t, "tok123", client.accessToken)
	assert.Equal(t, "cart-1", client.cartQID)
}

func TestAuthenticateMissingToken(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))

	err := client.Authenticate(context.Background())
	assert.ErrorContains(t, err, "no access token")
}

func TestDownloadCatalog(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"accessToken":"tok123","user":{}}`))
	})
	mux.HandleFunc("/variants/search/download/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		assert.Equal(t, "L'Oreal", r.URL.Query().Get("brand_name"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "1000", r.URL.Query().Get("size"))

		w.Write([]byte("GTIN,Name,Brand,€ Lowest Price inc. shipping,Number of Offers\n" +
			"3600523951369,Elvive Shampoo,L'Oreal,\"4,20\",3\n"))
	})
	client := testClient(t, mux)

	products, err := client.DownloadCatalog(context.Background(), CatalogFilter{Brand: "L'Oreal"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "3600523951369", products[0].GTIN)
	assert.Equal(t, 4.20, products[0].WholesalePrice)
	assert.Equal(t, 3, products[0].Suppliers)
}

func TestAuthenticateRetriesWithBody(t *testing.T) {
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
		w.Write([]byte(`{"accessToken":"tok123","user":{}}`))
	}))
	t.Cleanup(server.Close)

	noLimit := 0
	oneRetry := 1
	fastBackoff := 1
	client := NewClient(Config{
		Email:    "buyer@example.com",
		Password: "secret",
		BaseURL:  server.URL,
		RateLimit: ratelimit.PartialConfig{
			RequestsPerMinute: &noLimit,
			MaxRetries:        &oneRetry,
			InitialBackoffMs:  &fastBackoff,
		},
	}, zerolog.Nop())

	require.NoError(t, client.Authenticate(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 2)
	assert.JSONEq(t, `{"email":"buyer@example.com","password":"secret"}`, bodies[0])
	assert.Equal(t, bodies[0], bodies[1])
}

func TestConcurrentDownloadsShareLogin(t *testing.T) {
	var mu sync.Mutex
	logins := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		logins++
		mu.Unlock()
		w.Write([]byte(`{"accessToken":"tok123","user":{}}`))
	})
	mux.HandleFunc("/variants/search/download/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("GTIN,Name,Brand,€ Lowest Price inc. shipping,Number of Offers\n" +
			"3600523951369,Elvive Shampoo,L'Oreal,\"4,20\",3\n"))
	})
	client := testClient(t, mux)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			products, err := client.DownloadCatalog(context.Background(), CatalogFilter{})
			assert.NoError(t, err)
			assert.Len(t, products, 1)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, logins)
}

func TestDownloadCatalogAuthFailure(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.DownloadCatalog(context.Background(), CatalogFilter{})
	assert.Error(t, err)
}
