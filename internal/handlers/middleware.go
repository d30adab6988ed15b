package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ctxUserID is the Gin context key holding the authenticated operator id.
const ctxUserID = "userId"

const apiKeyHeader = "X-API-Key"

func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	userId, err := h.services.Authorization.ParseToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	// store in Gin context
	c.Set(ctxUserID, userId)
	c.Next()
}

// apiKeyMiddleware guards the homeowner API management talks to. Once the
// homeowner revokes access every key is rejected, even the right one.
func (h *Handler) apiKeyMiddleware(c *gin.Context) {
	got := c.GetHeader(apiKeyHeader)
	if got == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + apiKeyHeader + " header"})
		return
	}
	if h.opts.APIKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.opts.APIKey)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
		return
	}
	if h.services.Access != nil && h.services.Access.State().Revoked {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "management access revoked"})
		return
	}

	c.Next()
}

// clientLimiters keeps one token bucket per client address.
type clientLimiters struct {
	mu        sync.Mutex
	perMinute int
	buckets   map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Buckets idle longer than this are dropped once the map grows past
// maxClientBuckets.
const (
	clientBucketIdle = 10 * time.Minute
	maxClientBuckets = 4096
)

func newClientLimiters(perMinute int) *clientLimiters {
	return &clientLimiters{perMinute: perMinute, buckets: make(map[string]*clientBucket)}
}

func (l *clientLimiters) allow(client string, now time.Time) bool {
	if l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[client]
	if !ok {
		if len(l.buckets) >= maxClientBuckets {
			l.evictIdle(now)
		}
		b = &clientBucket{limiter: newLimiter(l.perMinute)}
		l.buckets[client] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

func (l *clientLimiters) evictIdle(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > clientBucketIdle {
			delete(l.buckets, k)
		}
	}
}

func newLimiter(perMinute int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
}

func (h *Handler) rateLimitMiddleware(c *gin.Context) {
	if !h.limiters.allow(c.ClientIP(), time.Now()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}
	c.Next()
}
