package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// visitorRegistry tracks one token bucket per client IP. Entries that
// have not been seen for a while are pruned so the map does not grow
// without bound under churny traffic.
type visitorRegistry struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	visitors  map[string]*visitor
	lastPrune time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	visitorTTL    = 10 * time.Minute
	pruneInterval = time.Minute
)

func (vr *visitorRegistry) limiterFor(ip string) *rate.Limiter {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	now := time.Now()
	if now.Sub(vr.lastPrune) > pruneInterval {
		for ip, v := range vr.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(vr.visitors, ip)
			}
		}
		vr.lastPrune = now
	}

	v, ok := vr.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(vr.limit, vr.burst)}
		vr.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// RateLimiter applies a per-client-IP token bucket to every request.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	registry := &visitorRegistry{
		limit:     r,
		burst:     b,
		visitors:  make(map[string]*visitor),
		lastPrune: time.Now(),
	}

	return func(c *gin.Context) {
		if !registry.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// RateLimit describes one named sliding-window limit. KeyFunc picks the
// bucket for a request; OnLimit, when set, replaces the default 429 body.
type RateLimit struct {
	Rate    int
	Window  time.Duration
	KeyFunc func(*gin.Context) string
	OnLimit func(*gin.Context)
}

// DistributedRateLimiter enforces limits shared across instances using
// redis sorted sets as sliding windows.
type DistributedRateLimiter struct {
	redis  *redis.Client
	limits map[string]*RateLimit
}

func NewDistributedRateLimiter(redisClient *redis.Client) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		redis:  redisClient,
		limits: make(map[string]*RateLimit),
	}
}

func (rl *DistributedRateLimiter) CreateMiddleware(name string, limit *RateLimit) gin.HandlerFunc {
	rl.limits[name] = limit

	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", name, limit.KeyFunc(c))

		allowed, err := rl.allow(c, key, limit)
		if err != nil {
			// Fail open: a redis outage must not take auth down with it.
			c.Header("X-RateLimit-Error", "true")
			c.Next()
			return
		}
		if allowed {
			c.Next()
			return
		}

		if limit.OnLimit != nil {
			limit.OnLimit(c)
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
		c.Header("X-RateLimit-Window", limit.Window.String())
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "Rate limit exceeded",
			"retry_after": limit.Window.Seconds(),
		})
	}
}

// allow records the request in the window and reports whether it fit.
// The trim, count, add and expire run in one pipeline round trip.
func (rl *DistributedRateLimiter) allow(c *gin.Context, key string, limit *RateLimit) (bool, error) {
	ctx := c.Request.Context()
	now := time.Now().UnixNano()
	cutoff := now - limit.Window.Nanoseconds()

	pipe := rl.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff, 10))
	inWindow := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.Expire(ctx, key, limit.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit pipeline failed: %w", err)
	}
	return inWindow.Val() < int64(limit.Rate), nil
}

func IPKeyFunc(c *gin.Context) string {
	return c.ClientIP()
}

// UserKeyFunc buckets by the authenticated user, falling back to the
// client IP for anonymous requests.
func UserKeyFunc(c *gin.Context) string {
	userID, exists := c.Get("user_id")
	if !exists {
		return c.ClientIP()
	}
	return fmt.Sprintf("user:%v", userID)
}
