// Package config loads the bingo engine configuration from the environment.
// A .env file in the working directory is read first when present; real
// environment variables win.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Bounds for the per-attempt upstream timeout.
const (
	MinFetchTimeout = 4 * time.Second
	MaxFetchTimeout = 10 * time.Second
)

// Bounds for the draw cache ttl.
const (
	MinCacheTTL = 60 * time.Second
	MaxCacheTTL = 300 * time.Second
)

var ErrInvalidConfig = errors.New("config: invalid value")

// Config holds the application configuration.
type Config struct {
	Port     string
	LogLevel slog.Level

	// RedisURL selects the Redis draw cache; empty keeps it in memory.
	RedisURL    string
	CachePrefix string
	CacheTTL    time.Duration

	FetchTimeout time.Duration
	Strategies   []string // empty selects the default sweep

	BonusActive    bool
	AllowSynthetic bool

	RefreshSchedule string // cron spec; empty disables background refresh

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads the configuration. Out-of-range durations are clamped to their
// bounds; unparsable values are errors.
func Load() (*Config, error) {
	// Missing .env is fine; the variables may come from the real environment.
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		RedisURL:        getEnv("REDIS_URL", ""),
		CachePrefix:     getEnv("CACHE_PREFIX", "bingo:draws"),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "@every 1m"),
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "INFO")); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getDuration("FETCH_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.BonusActive, err = getBool("BONUS_ACTIVE", false); err != nil {
		return nil, err
	}
	if cfg.AllowSynthetic, err = getBool("ALLOW_SYNTHETIC", false); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	cfg.Strategies = splitList(getEnv("STRATEGIES", ""))

	cfg.CacheTTL = clamp(cfg.CacheTTL, MinCacheTTL, MaxCacheTTL)
	cfg.FetchTimeout = clamp(cfg.FetchTimeout, MinFetchTimeout, MaxFetchTimeout)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be clamped.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("%w: PORT %q", ErrInvalidConfig, c.Port)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("%w: RATE_LIMIT_RPS must not be negative", ErrInvalidConfig)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("%w: RATE_LIMIT_BURST must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// sweepHeadroom covers decoding and the handler's own work after the last
// attempt of a sweep.
const sweepHeadroom = 5 * time.Second

// SweepTimeout is the worst case for one aggregator sweep over strategies
// attempts, plus headroom. Request and job deadlines must not be shorter.
func (c *Config) SweepTimeout(strategies int) time.Duration {
	if strategies < 1 {
		strategies = 1
	}
	return c.FetchTimeout*time.Duration(strategies) + sweepHeadroom
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidConfig, key, raw)
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s %q", ErrInvalidConfig, key, raw)
	}
	return b, nil
}

func getInt(key string, def int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidConfig, key, raw)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidConfig, key, raw)
	}
	return f, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(raw))); err != nil {
		return 0, fmt.Errorf("%w: LOG_LEVEL %q", ErrInvalidConfig, raw)
	}
	return level, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
