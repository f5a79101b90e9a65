package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/marsscrape/config"
	"github.com/use-agent/marsscrape/models"
	"golang.org/x/time/rate"
)

const (
	idleTTL    = time.Hour
	evictEvery = 5 * time.Minute
)

// ClientLimiter keeps one token bucket per client IP. Every route wrapped by
// the same ClientLimiter draws on the same bucket, so the scrape page and the
// scrape API share a client's budget.
type ClientLimiter struct {
	rps   rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter returns a limiter whose idle buckets are evicted in the
// background.
func NewClientLimiter(cfg config.RateLimitConfig) *ClientLimiter {
	l := newClientLimiter(cfg, time.Now)
	go func() {
		ticker := time.NewTicker(evictEvery)
		defer ticker.Stop()
		for range ticker.C {
			l.evict()
		}
	}()
	return l
}

func newClientLimiter(cfg config.RateLimitConfig, now func() time.Time) *ClientLimiter {
	return &ClientLimiter{
		rps:     rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		now:     now,
		clients: make(map[string]*client),
	}
}

// Limit rejects a client that is over its rate by passing a RATE_LIMITED
// error to reject, then aborts the chain. Retry-After is set whenever the
// wait for the next token is known.
func (l *ClientLimiter) Limit(reject func(*gin.Context, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		wait, ok := l.reserve(c.ClientIP())
		if ok {
			c.Next()
			return
		}
		if wait > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		}
		reject(c, models.NewScrapeError(models.ErrCodeRateLimited,
			"too many scrape requests, try again later", nil))
		c.Abort()
	}
}

// reserve takes a token for ip. When none is available it returns the time
// until the next one; a zero wait means the bucket can never fill.
func (l *ClientLimiter) reserve(ip string) (time.Duration, bool) {
	now := l.now()

	l.mu.Lock()
	cl, ok := l.clients[ip]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = cl
	}
	cl.lastSeen = now
	l.mu.Unlock()

	r := cl.limiter.ReserveN(now, 1)
	if !r.OK() {
		return 0, false
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return wait, false
	}
	return 0, true
}

func (l *ClientLimiter) evict() {
	cutoff := l.now().Add(-idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, cl := range l.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}
