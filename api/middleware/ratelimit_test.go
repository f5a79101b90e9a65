package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/marsscrape/config"
	"github.com/use-agent/marsscrape/models"
)

func limitedEngine(l *ClientLimiter, got *error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/scrape", l.Limit(func(c *gin.Context, err error) {
		*got = err
		c.String(http.StatusTooManyRequests, "slow down")
	}), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func get(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/scrape", nil)
	req.RemoteAddr = ip + ":1234"
	r.ServeHTTP(w, req)
	return w
}

func TestLimit_RejectsWithRetryAfter(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	l := newClientLimiter(config.RateLimitConfig{RequestsPerSecond: 0.5, Burst: 1}, func() time.Time { return now })
	var rejected error
	r := limitedEngine(l, &rejected)

	assert.Equal(t, http.StatusOK, get(r, "198.51.100.7").Code)

	w := get(r, "198.51.100.7")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	require.Error(t, rejected)
	assert.True(t, models.IsCode(rejected, models.ErrCodeRateLimited))

	// A rejected request does not consume the next token.
	now = now.Add(2 * time.Second)
	assert.Equal(t, http.StatusOK, get(r, "198.51.100.7").Code)
}

func TestLimit_ZeroBurstNeverAllows(t *testing.T) {
	l := newClientLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 0}, time.Now)
	var rejected error
	r := limitedEngine(l, &rejected)

	w := get(r, "198.51.100.7")

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Empty(t, w.Header().Get("Retry-After"))
}

func TestEvict_DropsIdleClients(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	l := newClientLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1}, func() time.Time { return now })

	l.reserve("198.51.100.7")
	now = now.Add(30 * time.Minute)
	l.reserve("203.0.113.9")
	now = now.Add(45 * time.Minute)
	l.evict()

	assert.NotContains(t, l.clients, "198.51.100.7")
	assert.Contains(t, l.clients, "203.0.113.9")
}
