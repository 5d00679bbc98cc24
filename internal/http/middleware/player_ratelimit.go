package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// PlayerRateLimit limits an authenticated player to limit requests per
// window, whatever address they come from. It must run after JWT.
func PlayerRateLimit(limit int, window time.Duration) gin.HandlerFunc {
	rdb := redisClient
	local := newWindowCounter(window)
	return func(c *gin.Context) {
		playerID := c.GetInt64("user_id")
		if playerID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if rdb == nil {
			admit(c, limiterPlayer, limit, local.incr(strconv.FormatInt(playerID, 10), time.Now()), window)
			return
		}
		hits, err := redisHits(c.Request.Context(), rdb, playerKey(playerID, window), window)
		if err != nil {
			failOpen(c, limiterPlayer, err)
			return
		}
		admit(c, limiterPlayer, limit, hits, window)
	}
}

func playerKey(playerID int64, window time.Duration) string {
	return fmt.Sprintf("ratelimit:player:%d:%d", playerID, int64(window.Seconds()))
}
