package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/druk-edu/school-admin-service/internal/utils"
)

const (
	rateLimitWindow = 15 * time.Minute

	rateLimitAnonymous = 100
	rateLimitStandard  = 300
	rateLimitElevated  = 600
)

// RateLimiter enforces a fixed-window request quota per caller, backed by
// Redis. Anonymous callers are keyed by client IP, authenticated callers by
// user id. When Redis is unreachable requests pass through.
type RateLimiter struct {
	client *redis.Client
	logger utils.Logger
}

func NewRateLimiter(client *redis.Client, logger utils.Logger) *RateLimiter {
	return &RateLimiter{client: client, logger: logger}
}

// Middleware returns the Gin middleware enforcing the quota.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.client == nil {
			c.Next()
			return
		}

		key, limit := rl.callerKey(c)

		count, err := rl.client.Incr(c.Request.Context(), key).Result()
		if err != nil {
			rl.logger.Warn("Rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}

		if count == 1 {
			rl.client.Expire(c.Request.Context(), key, rateLimitWindow)
		}

		if count > int64(limit) {
			retryAfter := rateLimitWindow
			if ttl, err := rl.client.TTL(c.Request.Context(), key).Result(); err == nil && ttl > 0 {
				retryAfter = ttl
			}

			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limited",
				"message":     "too many requests",
				"retry_after": int(retryAfter.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) callerKey(c *gin.Context) (string, int) {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(uint); ok {
			limit := rateLimitStandard
			if isElevatedPath(c.Request.URL.Path) {
				limit = rateLimitElevated
			}
			return fmt.Sprintf("ratelimit:user:%d", id), limit
		}
	}
	return fmt.Sprintf("ratelimit:ip:%s", c.ClientIP()), rateLimitAnonymous
}

// isElevatedPath marks the read-heavy student endpoints that clients poll
// and therefore get the larger window quota.
func isElevatedPath(path string) bool {
	return strings.Contains(path, "/attendance/student") ||
		strings.Contains(path, "/timetable/student")
}
