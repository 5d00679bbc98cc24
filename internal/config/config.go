package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort   string
	JWTSecret string

	// Optional backends. Empty disables them.
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AllowedOrigins []string

	GracePeriod time.Duration
	ResumeTTL   time.Duration
	PlayerTTL   time.Duration

	// Inbound websocket messages per second and burst, per connection.
	WSRateLimit float64
	WSRateBurst int

	APIRateLimit  int
	APIRateWindow time.Duration

	PokerSmallBlind int64
	PokerBigBlind   int64
	PokerMaxBuyIn   int64

	LogLevel string
	LogJSON  bool
}

// Load reads the config from env (and .env when present).
func Load() *Config {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	var origins []string
	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		AppPort:   port,
		JWTSecret: jwtSecret,

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		AllowedOrigins: origins,

		GracePeriod: envSeconds("GRACE_PERIOD_SECONDS", 60*time.Second),
		ResumeTTL:   envSeconds("RESUME_TOKEN_TTL_SECONDS", 10*time.Minute),
		PlayerTTL:   envSeconds("PLAYER_TOKEN_TTL_SECONDS", 24*time.Hour),

		WSRateLimit: envFloat("WS_RATE_LIMIT", 10),
		WSRateBurst: envInt("WS_RATE_BURST", 20),

		APIRateLimit:  envInt("API_RATE_LIMIT", 60),
		APIRateWindow: envSeconds("API_RATE_WINDOW_SECONDS", time.Minute),

		PokerSmallBlind: int64(envInt("POKER_SMALL_BLIND", 5)),
		PokerBigBlind:   int64(envInt("POKER_BIG_BLIND", 10)),
		PokerMaxBuyIn:   int64(envInt("POKER_MAX_BUY_IN", 1000)),

		LogLevel: os.Getenv("LOG_LEVEL"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
		logger.Warn("ignoring invalid env value", "key", key, "value", v)
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			return n
		}
		logger.Warn("ignoring invalid env value", "key", key, "value", v)
	}
	return def
}

func envSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
		logger.Warn("ignoring invalid env value", "key", key, "value", v)
	}
	return def
}
