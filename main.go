// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/stage/cliparse"
	"github.com/danielhkuo/stage/db"
	"github.com/danielhkuo/stage/logger"
	"github.com/danielhkuo/stage/middleware"
	"github.com/danielhkuo/stage/realtime"
	"github.com/danielhkuo/stage/router"
	"github.com/danielhkuo/stage/store"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := cliparse.LoadDotEnv(); err != nil {
		logger.Init(false)
		logger.Fatal("failed to load .env", zap.Error(err))
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		logger.Init(false)
		logger.Fatal("error parsing flags", zap.Error(err))
	}

	logger.Init(cfg.Debug)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	dbConn, dialect, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	if err := db.CreateSchema(dbConn, dialect); err != nil {
		logger.Fatal("schema creation failed", zap.Error(err))
	}
	logger.Info("database schema ready", zap.String("dialect", string(dialect)))

	hub := realtime.NewHub()
	defer hub.Close()

	if cfg.RedisURL != "" {
		relay, err := realtime.NewRedisRelay(ctx, cfg.RedisURL, hub)
		if err != nil {
			logger.Fatal("redis relay failed", zap.Error(err))
		}
		defer relay.Close()
		go relay.Run(ctx)
		logger.Info("redis relay enabled")
	}

	st := store.New(dbConn, dialect, hub)
	svc := router.NewServices(ctx, st, hub, cfg)
	defer svc.Registry.Close()

	server := http.Server{
		Handler:           middleware.CORS(router.NewRouter(svc)),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
			server.Close()
		}
	}()

	logger.Info("listening",
		zap.Int("port", cfg.Port),
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("realtime_grace", cfg.GracePeriod),
		zap.Duration("realtime_fallback", cfg.FallbackInterval))

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server closed", zap.Error(err))
		return
	}
	logger.Info("server closed")
}
