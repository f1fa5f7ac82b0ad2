package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/neomorfeo/lifegarden/internal/adapter/otel"
	"github.com/neomorfeo/lifegarden/internal/adapter/vision"
)

// config is read once from the environment at start-up.
type config struct {
	Port         string
	DatabasePath string
	DailyLimit   *int // nil keeps the stored limit
	SeedFile     string
	Timezone     string
	LogLevel     string
	Vision       vision.Config
	OTel         otel.Config
}

func loadConfig() (config, error) {
	cfg := config{
		Port:         envOrDefault("PORT", "8080"),
		DatabasePath: envOrDefault("DATABASE_PATH", "lifegarden.db"),
		SeedFile:     os.Getenv("GARDEN_SEED_FILE"),
		Timezone:     os.Getenv("GARDEN_TIMEZONE"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		Vision: vision.Config{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   envOrDefault("OPENAI_MODEL", vision.DefaultModel),
		},
		OTel: otel.ConfigFromEnv(),
	}

	if v := os.Getenv("DAILY_WATERING_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return config{}, fmt.Errorf("parsing DAILY_WATERING_LIMIT: %w", err)
		}
		cfg.DailyLimit = &limit
	}

	return cfg, nil
}

// location resolves GARDEN_TIMEZONE. Empty means the host's local zone.
func (c config) location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading GARDEN_TIMEZONE: %w", err)
	}
	return loc, nil
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
