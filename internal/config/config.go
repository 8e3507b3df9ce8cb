// Package config reads server settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr       string
	DBPath     string
	StaticPath string
	CORSOrigin string

	JWTSecret string
	TokenTTL  time.Duration

	// RedisURL enables cross-instance relay fan-out when set.
	RedisURL   string
	InstanceID string

	RelaySendBuffer      int
	RelayMaxMessageBytes int64
	RelayWriteTimeout    time.Duration
	RelayJoinTimeout     time.Duration
}

func Load() Config {
	return Config{
		Addr:       getenv("ADDR", ":8080"),
		DBPath:     getenv("DB_PATH", "./data/relateos.db"),
		StaticPath: getenv("STATIC_PATH", "./frontend/dist"),
		CORSOrigin: getenv("CORS_ORIGIN", "*"),

		JWTSecret: getenv("JWT_SECRET", "relateos-dev-secret"),
		TokenTTL:  getenvDuration("TOKEN_TTL", 7*24*time.Hour),

		RedisURL:   getenv("REDIS_URL", ""),
		InstanceID: getenv("INSTANCE_ID", ""),

		RelaySendBuffer:      getenvInt("RELAY_SEND_BUFFER", 32),
		RelayMaxMessageBytes: int64(getenvInt("RELAY_MAX_MESSAGE_BYTES", 64<<10)),
		RelayWriteTimeout:    getenvDuration("RELAY_WRITE_TIMEOUT", 10*time.Second),
		RelayJoinTimeout:     getenvDuration("RELAY_JOIN_TIMEOUT", 0),
	}
}

// OriginPatterns splits CORSOrigin into WebSocket origin patterns.
func (c Config) OriginPatterns() []string {
	var patterns []string
	for _, p := range strings.Split(c.CORSOrigin, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		// Browsers send scheme://host; the relay matches on host only.
		p = strings.TrimPrefix(strings.TrimPrefix(p, "https://"), "http://")
		patterns = append(patterns, p)
	}
	return patterns
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getenvDuration accepts Go durations ("90s") or plain seconds ("90").
func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
