// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

LoadDotEnv reads an optional .env file, then ParseFlags returns a Config:

	_ = cliparse.LoadDotEnv()
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Connection string (default: local SQLite file)
  - DatabaseType: "sqlite" (default) or "postgres"
  - RedisURL: Optional Redis for cross-instance broadcasts
  - BaseURL: Public URL encoded into audience QR codes
  - Debug: Development logging
  - GracePeriod, FallbackInterval: presentation screen reconciliation timings

# CLI Flags and Environment Variables

	-p         PORT
	-d         DATABASE_URL
	-t         DATABASE_TYPE
	-redis     REDIS_URL
	-base-url  PUBLIC_BASE_URL
	-debug     DEBUG
	-grace     REALTIME_GRACE     (Go duration, default 5s)
	-fallback  REALTIME_FALLBACK  (Go duration, default 10s)

CLI flags take precedence over environment variables, which take precedence
over .env values.

# Validation

ParseFlags returns an error when PostgreSQL is selected without a URL, when
the database type is unknown, or when a numeric or duration value does not
parse.
*/
package cliparse
