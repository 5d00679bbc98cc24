package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter shares rdb between every limiter built afterwards.
// Passing nil switches new limiters back to in-process counting.
func InitRedisRateLimiter(rdb *redis.Client) {
	redisClient = rdb
}

// RateLimit limits each client IP to limit requests per window, counted in
// Redis so every server instance shares the quota.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	rdb := redisClient
	if rdb == nil {
		return MemoryRateLimit(limit, window)
	}
	return func(c *gin.Context) {
		hits, err := redisHits(c.Request.Context(), rdb, ipKey(c.ClientIP(), window), window)
		if err != nil {
			failOpen(c, limiterRedis, err)
			return
		}
		admit(c, limiterRedis, limit, hits, window)
	}
}

func ipKey(ip string, window time.Duration) string {
	return fmt.Sprintf("ratelimit:ip:%s:%d", ip, int64(window.Seconds()))
}

// redisHits counts a hit on key. The first hit of a window sets its expiry.
func redisHits(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int64, error) {
	hits, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if hits == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return hits, nil
}

// failOpen lets the request through when the backend is down.
func failOpen(c *gin.Context, limiter string, err error) {
	APILimiterErrors.WithLabelValues(limiter).Inc()
	logger.Warn("rate limiter unavailable", "limiter", limiter, "route", routeLabel(c), "error", err)
	c.Next()
}
