package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func protectedRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPIKeyAuth(t *testing.T) {
	r := protectedRouter(APIKeyAuth("secret"))

	assert.Equal(t, http.StatusUnauthorized, get(r, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, map[string]string{"X-API-Key": "wrong"}).Code)
	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-API-Key": "secret"}).Code)
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	r := protectedRouter(APIKeyAuth(""))
	assert.Equal(t, http.StatusOK, get(r, nil).Code)
}

func TestRateLimit(t *testing.T) {
	r := protectedRouter(RateLimit(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 2}))

	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, nil).Code)
}
