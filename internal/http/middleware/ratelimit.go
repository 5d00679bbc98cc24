package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type fixedWindow struct {
	start time.Time
	hits  int64
}

// windowCounter counts hits per key in fixed windows held in process memory.
// Expired windows are swept at most once per window length.
type windowCounter struct {
	window time.Duration

	mu        sync.Mutex
	keys      map[string]*fixedWindow
	lastSweep time.Time
}

func newWindowCounter(window time.Duration) *windowCounter {
	return &windowCounter{window: window, keys: make(map[string]*fixedWindow)}
}

func (w *windowCounter) incr(key string, now time.Time) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	if now.Sub(w.lastSweep) > w.window {
		for k, fw := range w.keys {
			if now.Sub(fw.start) > w.window {
				delete(w.keys, k)
			}
		}
		w.lastSweep = now
	}

	fw, ok := w.keys[key]
	if !ok || now.Sub(fw.start) > w.window {
		fw = &fixedWindow{start: now}
		w.keys[key] = fw
	}
	fw.hits++
	return fw.hits
}

func (w *windowCounter) size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.keys)
}

// MemoryRateLimit limits each client IP to limit requests per window without
// any shared backend. Counts are local to the process.
func MemoryRateLimit(limit int, window time.Duration) gin.HandlerFunc {
	counter := newWindowCounter(window)
	return func(c *gin.Context) {
		hits := counter.incr(c.ClientIP(), time.Now())
		admit(c, limiterMemory, limit, hits, window)
	}
}

// admit publishes the quota headers and either passes the request on or
// answers 429.
func admit(c *gin.Context, limiter string, limit int, hits int64, window time.Duration) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(limit)-hits), 10))

	if hits > int64(limit) {
		retry := int(window.Seconds())
		APIThrottled.WithLabelValues(limiter, routeLabel(c)).Inc()
		c.Header("Retry-After", strconv.Itoa(retry))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate limit exceeded",
			"retry_after": retry,
		})
		return
	}

	APIAdmitted.WithLabelValues(limiter, routeLabel(c)).Inc()
	c.Next()
}
