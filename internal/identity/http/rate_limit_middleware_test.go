package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupRateLimitedRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	router.Use(IPRateLimitMiddleware(rps, burst, logger))
	router.POST("/signin", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

func TestIPRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	router := setupRateLimitedRouter(10.0, 20)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/signin", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestIPRateLimitMiddleware_BlocksRequestsExceedingLimit(t *testing.T) {
	router := setupRateLimitedRouter(1.0, 2)

	// Burst capacity should succeed
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/signin", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// Next request should be rate limited
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/signin", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestIPRateLimitMiddleware_IndependentLimitsPerIP(t *testing.T) {
	router := setupRateLimitedRouter(1.0, 1)

	// First IP consumes its limit
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/signin", nil)
	req.RemoteAddr = "198.51.100.1:4000"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// First IP is now rate limited
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/signin", nil)
	req.RemoteAddr = "198.51.100.1:4000"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// A different IP still has its own independent limit
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/signin", nil)
	req.RemoteAddr = "198.51.100.2:4000"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIPRateLimitMiddleware_BurstCapacityWorks(t *testing.T) {
	router := setupRateLimitedRouter(1.0, 5)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/signin", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/signin", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestIPLimiterStore_CleanupStaleEntries(t *testing.T) {
	store := &ipLimiterStore{
		rps:   10.0,
		burst: 20,
	}

	limiter := store.getLimiter("198.51.100.1")
	assert.NotNil(t, limiter)

	_, ok := store.limiters.Load("198.51.100.1")
	assert.True(t, ok)

	// Age the entry past the staleness threshold
	if val, ok := store.limiters.Load("198.51.100.1"); ok {
		entry := val.(*ipLimiterEntry)
		entry.mu.Lock()
		entry.lastAccess = time.Now().Add(-2 * time.Hour)
		entry.mu.Unlock()
	}

	// Run cleanup manually
	threshold := time.Now().Add(-1 * time.Hour)
	store.limiters.Range(func(key, value interface{}) bool {
		entry := value.(*ipLimiterEntry)
		entry.mu.Lock()
		shouldDelete := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()

		if shouldDelete {
			store.limiters.Delete(key)
		}
		return true
	})

	_, ok = store.limiters.Load("198.51.100.1")
	assert.False(t, ok)
}
