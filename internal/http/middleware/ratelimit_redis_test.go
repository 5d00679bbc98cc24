package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRedis connects to REDIS_ADDR or skips the test.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD"), DB: db})
	require.NoError(t, rdb.Ping(context.Background()).Err())

	InitRedisRateLimiter(rdb)
	t.Cleanup(func() {
		InitRedisRateLimiter(nil)
		rdb.Close()
	})
	return rdb
}

func TestRedisRateLimitSharesQuotaAcrossHandlers(t *testing.T) {
	rdb := testRedis(t)
	window := 2 * time.Second
	rdb.Del(context.Background(), ipKey("192.0.2.1", window))

	// two limiters stand in for two server instances
	first, second := gin.New(), gin.New()
	for _, r := range []*gin.Engine{first, second} {
		r.GET("/rooms", RateLimit(2, window), func(c *gin.Context) { c.Status(http.StatusOK) })
	}

	hit := func(r *gin.Engine) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, hit(first).Code)
	w := hit(second)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = hit(first)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	ttl, err := rdb.TTL(context.Background(), ipKey("192.0.2.1", window)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisRateLimitFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	defer rdb.Close()
	InitRedisRateLimiter(rdb)
	defer InitRedisRateLimiter(nil)

	r := gin.New()
	r.GET("/rooms", RateLimit(1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
