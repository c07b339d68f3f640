package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"

	"tutorhub/internal/transport/http/response"
)

// RateLimit enforces a fixed-window per-user request limit backed by
// Redis. Unauthenticated requests are keyed by client IP. A Redis outage
// fails open: requests pass rather than the whole API going down.
func RateLimit(client *redisv9.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		subject := c.GetString(ContextUserIDKey)
		if subject == "" {
			subject = c.ClientIP()
		}
		key := fmt.Sprintf("ratelimit:%s:%d", subject, time.Now().Unix()/int64(window.Seconds()))

		ctx := c.Request.Context()
		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			_ = client.Expire(ctx, key, window).Err()
		}
		if count > int64(limit) {
			response.Error(c, http.StatusTooManyRequests, response.CodeRateLimited, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
