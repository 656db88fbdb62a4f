package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Environment    string // ENV: production, development, etc.
	Port           string
	StoreDriver    string
	MongoURI       string
	PostgresURI    string
	RedisURI       string   // empty disables sessions and the shared rate limit
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL
	Host           string   // Raw HOST env (e.g. https://api.orally.app)
	AllowedHost    string   // Hostname only for strict host check (production only)
	TrustedProxies []string // CIDRs or IPs whose X-Forwarded-For is believed
	TipsFile       string
	TipFallback    string
	LogLevel       slog.Level
	RequestTimeout time.Duration
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "http://localhost:8080")

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = hostname(host)
	}

	allowedOrigins := parseList(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{getEnv("FRONTEND_URL", "http://localhost:3000")}
	}

	return &Config{
		Environment:    env,
		Port:           getEnv("PORT", "8080"),
		StoreDriver:    strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", DriverMemory))),
		MongoURI:       getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/orally")),
		PostgresURI:    getEnv("POSTGRES_URI", "postgres://localhost:5432/orally?sslmode=disable"),
		RedisURI:       os.Getenv("REDIS_URI"),
		AllowedOrigins: allowedOrigins,
		Host:           host,
		AllowedHost:    allowedHost,
		TrustedProxies: parseList(getEnv("TRUSTED_PROXIES", "")),
		TipsFile:       os.Getenv("TIPS_FILE"),
		TipFallback:    os.Getenv("TIP_FALLBACK"),
		LogLevel:       parseLevel(getEnv("LOG_LEVEL", "info")),
		RequestTimeout: parseDuration(getEnv("REQUEST_TIMEOUT", ""), 5*time.Second),
	}
}

// hostname strips scheme, path and port from a HOST value.
func hostname(host string) string {
	for _, prefix := range []string{"https://", "http://"} {
		host = strings.TrimPrefix(host, prefix)
	}
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return strings.TrimSpace(host)
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
