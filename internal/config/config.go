package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the settings shared by the plant store service and the web
// front-end. Each binary only reads the fields it needs.
type AppConfig struct {
	APIAddr     string
	APIPrefix   string
	WebAddr     string
	StoreURL    string
	DBDriver    string
	DBPath      string
	DBURL       string
	HTTPTimeout time.Duration
	LogLevel    slog.Level
}

// Load reads an optional .env file, then the environment, falling back to
// defaults for anything unset.
func Load() AppConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "err", err)
	}

	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}

	timeout, err := time.ParseDuration(get("HORTUS_HTTP_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		slog.Warn("invalid HORTUS_HTTP_TIMEOUT, using 10s", "value", os.Getenv("HORTUS_HTTP_TIMEOUT"))
		timeout = 10 * time.Second
	}

	return AppConfig{
		APIAddr:     get("HORTUS_API_ADDR", ":8000"),
		APIPrefix:   strings.TrimRight(get("HORTUS_API_PREFIX", "/api/v1"), "/"),
		WebAddr:     get("HORTUS_WEB_ADDR", ":8081"),
		StoreURL:    strings.TrimRight(get("HORTUS_STORE_URL", "http://localhost:8000/api/v1"), "/"),
		DBDriver:    strings.ToLower(get("HORTUS_DB_DRIVER", "memory")),
		DBPath:      get("HORTUS_DB_PATH", "hortus.db"),
		DBURL:       os.Getenv("HORTUS_DB_URL"),
		HTTPTimeout: timeout,
		LogLevel:    parseLevel(get("LOG_LEVEL", "info")),
	}
}

// Logger returns a text logger writing to stderr at the configured level.
func (c AppConfig) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
