// Package config loads runtime configuration from the environment. A
// missing token-signing secret or database DSN is a startup failure, never
// a per-request error.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything cmd/api needs to boot.
type Config struct {
	Port        string
	DatabaseURL string

	JWTSecret  string
	JWTIssuer  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	SessionLimit int

	RateLimitBurst     int
	RateLimitPerSecond int
	CORSOrigins        []string
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	cfg := Config{
		Port:               fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("MEDQUEUE_PG_DSN")),
		JWTSecret:          strings.TrimSpace(os.Getenv("MEDQUEUE_JWT_SECRET")),
		JWTIssuer:          fallback(os.Getenv("MEDQUEUE_JWT_ISSUER"), "medqueue"),
		AccessTTL:          minutes(os.Getenv("MEDQUEUE_ACCESS_TTL_MINUTES"), 15),
		RefreshTTL:         24 * time.Hour * time.Duration(positiveInt(os.Getenv("MEDQUEUE_REFRESH_TTL_DAYS"), 30)),
		SessionLimit:       positiveInt(os.Getenv("MEDQUEUE_SESSION_LIMIT"), 5),
		RateLimitBurst:     positiveInt(os.Getenv("MEDQUEUE_RATE_BURST"), 20),
		RateLimitPerSecond: positiveInt(os.Getenv("MEDQUEUE_RATE_PER_SECOND"), 10),
		CORSOrigins:        parseCSV(os.Getenv("MEDQUEUE_CORS_ORIGINS")),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("MEDQUEUE_PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("MEDQUEUE_JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return Config{}, errors.New("MEDQUEUE_JWT_SECRET must be at least 32 bytes")
	}
	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func positiveInt(raw string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && v > 0 {
		return v
	}
	return def
}

func minutes(raw string, def int) time.Duration {
	return time.Duration(positiveInt(raw, def)) * time.Minute
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
