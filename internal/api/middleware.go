// internal/api/middleware.go
package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/akashia/dreambank/internal/utils"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"

	visitorIdleTTL = 10 * time.Minute
)

// RateLimiter keeps one token bucket per client key
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex

	limit rate.Limit
	burst int
	now   func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per minute per key, in bursts of
// up to perMinute. perMinute < 1 disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Inf,
		now:      time.Now,
	}
	if perMinute > 0 {
		rl.limit = rate.Every(time.Minute / time.Duration(perMinute))
		rl.burst = perMinute
	}
	return rl
}

func (rl *RateLimiter) Enabled() bool {
	return rl.limit != rate.Inf
}

// Reserve takes a token for key. When none is available it reports how long
// the caller would have to wait; the token is not consumed.
func (rl *RateLimiter) Reserve(key string) (bool, time.Duration) {
	if !rl.Enabled() {
		return true, 0
	}

	rl.mu.Lock()
	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()

	r := v.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	r.CancelAt(now)
	return false, delay
}

// Remaining is the whole number of tokens left for key
func (rl *RateLimiter) Remaining(key string) int {
	if !rl.Enabled() {
		return -1
	}
	rl.mu.Lock()
	v, ok := rl.visitors[key]
	rl.mu.Unlock()
	if !ok {
		return rl.burst
	}
	tokens := int(v.limiter.TokensAt(rl.now()))
	if tokens < 0 {
		return 0
	}
	return tokens
}

// Cleanup forgets keys idle for longer than ttl
func (rl *RateLimiter) Cleanup(ttl time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-ttl)
	removed := 0
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

// RunCleanup prunes idle keys until ctx is done
func (rl *RateLimiter) RunCleanup(ctx context.Context) error {
	ticker := time.NewTicker(visitorIdleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rl.Cleanup(visitorIdleTTL)
		}
	}
}

// RateLimitByIP rejects requests over the per-IP budget with 429
func RateLimitByIP(rl *RateLimiter, response *ResponseHelper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Enabled() {
			c.Next()
			return
		}

		key := c.ClientIP()
		allowed, wait := rl.Reserve(key)
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.burst))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", rl.Remaining(key)))
		if !allowed {
			utils.GetMetricsCollector().RecordError(ErrorRateLimitExceeded, "api")
			response.TooManyRequests(c, wait)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware propagates X-Request-ID, minting one when absent
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// MetricsMiddleware records every request under its route template
func MetricsMiddleware() gin.HandlerFunc {
	metrics := utils.GetMetricsCollector()
	logger := utils.GetLogger()

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()
		metrics.RecordHTTPRequest(c.Request.Method, route, status, elapsed)

		logger.Debug("http request", map[string]interface{}{
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"duration":   elapsed.String(),
			"request_id": c.GetString(requestIDKey),
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Admin-Password, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
