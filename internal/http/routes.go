package http

import (
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/http/handlers"
	"github.com/MmmDelicious/lovememory-sub007/internal/http/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	createRoomLimit  = 10
	createRoomWindow = time.Minute
)

type RouteOptions struct {
	AllowedOrigins []string
	APIRateLimit   int
	APIRateWindow  time.Duration
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, opts RouteOptions) {
	r.Use(middleware.Metrics())
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	// Health checks (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket gateway
	r.GET("/ws", h.WS)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(opts.APIRateLimit, opts.APIRateWindow))
	registerAPIRoutes(v1, h)
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler) {
	auth := middleware.JWT(h.Tokens)

	api.GET("/rooms", h.ListRooms)
	api.POST("/rooms", auth, middleware.PlayerRateLimit(createRoomLimit, createRoomWindow), h.CreateRoom)
	api.GET("/rooms/:id", h.GetRoom)
	api.GET("/rooms/:id/results", h.RoomResults)

	api.GET("/me", auth, h.Me)
	api.GET("/me/results", auth, h.MyResults)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
