// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort             = 3318
	DefaultDatabaseURL      = "file:stage.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	DefaultBaseURL          = "http://localhost:3318"
	DefaultGracePeriod      = 5 * time.Second
	DefaultFallbackInterval = 10 * time.Second
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	RedisURL     string
	BaseURL      string
	Debug        bool

	// Realtime reconciliation timings for presentation screens
	GracePeriod      time.Duration
	FallbackInterval time.Duration
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set.
// Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ParseFlags validates flags and falls back to environment variables
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("stage", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for cross-instance broadcasts (optional)")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "Public base URL used in QR codes")
	fs.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	fs.DurationVar(&cfg.GracePeriod, "grace", 0, "Realtime grace period before fallback polling")
	fs.DurationVar(&cfg.FallbackInterval, "fallback", 0, "Fallback polling interval")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "postgres" {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = DefaultDatabaseURL
	}

	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("PUBLIC_BASE_URL")
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultBaseURL
		}
	}

	if !cfg.Debug {
		if v := os.Getenv("DEBUG"); v != "" {
			debug, err := strconv.ParseBool(v)
			if err != nil {
				return Config{}, errors.New("invalid DEBUG env variable")
			}
			cfg.Debug = debug
		}
	}

	var err error
	if cfg.GracePeriod, err = durationOrEnv(cfg.GracePeriod, "REALTIME_GRACE", DefaultGracePeriod); err != nil {
		return Config{}, err
	}
	if cfg.FallbackInterval, err = durationOrEnv(cfg.FallbackInterval, "REALTIME_FALLBACK", DefaultFallbackInterval); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func durationOrEnv(v time.Duration, env string, def time.Duration) (time.Duration, error) {
	if v > 0 {
		return v, nil
	}
	s := os.Getenv(env)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s env variable", env)
	}
	return d, nil
}
