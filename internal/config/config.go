package config

import (
	"context"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	RateLimitSubmit int
	RateLimitWindow time.Duration

	SessionStore string // memory | redis
	SessionTTL   time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTelEnabled  bool
	OTelEndpoint string

	CouponCode            string
	CouponDiscountPercent int
	PlanPrices            string
}

// Load reads the environment, after merging a .env file when one exists.
// Variables already set in the environment win over .env.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env", "err", err)
	}

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 64<<10)),

		RateLimitSubmit: getEnvInt("RATE_LIMIT_SUBMIT", 20),
		RateLimitWindow: time.Duration(getEnvIntInRange("RATE_LIMIT_WINDOW_SECONDS", 60, 1, math.MaxInt32)) * time.Second,

		SessionStore: strings.ToLower(getEnv("SESSION_STORE", "memory")),
		SessionTTL:   time.Duration(getEnvIntInRange("SESSION_TTL_MINUTES", 30, 1, math.MaxInt32)) * time.Minute,

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		CouponCode:            getEnv("COUPON_CODE", "CMU2023"),
		CouponDiscountPercent: getEnvIntInRange("COUPON_DISCOUNT_PERCENT", 30, 1, 100),
		PlanPrices:            getEnv("PLAN_PRICES", ""),
	}
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	num, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}

	return num
}

// getEnvIntInRange is getEnvInt with the value bounded to [lo, hi].
// Out of range values are replaced by fallback with a warning.
func getEnvIntInRange(key string, fallback, lo, hi int) int {
	num := getEnvInt(key, fallback)
	if num < lo || num > hi {
		slog.Warn("out of range value in environment, using default",
			"key", key, "value", num, "min", lo, "max", hi, "default", fallback)
		return fallback
	}

	return num
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}

	return b
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
