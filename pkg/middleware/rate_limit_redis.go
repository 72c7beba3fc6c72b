package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/slayerbot/panel/internal/apierr"
	"github.com/slayerbot/panel/pkg/logger"
	"github.com/slayerbot/panel/pkg/metrics"
)

// RedisRateLimitMiddleware allows max requests per key in each fixed window.
// A nil client falls back to the in-memory limiter with the same average rate.
func RedisRateLimitMiddleware(client *redis.Client, max int, window time.Duration) gin.HandlerFunc {
	if window < time.Second {
		window = time.Second
	}
	if client == nil {
		return RateLimitMiddleware(float64(max)/window.Seconds(), max)
	}
	windowSeconds := int64(window / time.Second)
	return func(c *gin.Context) {
		now := clock().Unix()
		bucket := now / windowSeconds
		redisKey := fmt.Sprintf("rl:%s:%d", rateKey(c), bucket)

		ctx := c.Request.Context()
		cnt, err := client.Incr(ctx, redisKey).Result()
		if err != nil {
			logger.Errorf("rate limit check failed: %v", err)
			apierr.Respond(c, apierr.Internal(fmt.Errorf("rate limit: %w", err)))
			return
		}
		if cnt == 1 {
			_ = client.Expire(ctx, redisKey, time.Duration(windowSeconds+1)*time.Second).Err()
		}
		if cnt > int64(max) {
			remaining := (bucket+1)*windowSeconds - now
			rejectRateLimited(c, "redis", time.Duration(remaining)*time.Second)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
