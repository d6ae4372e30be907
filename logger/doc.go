// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package logger holds the process-wide zap logger.

Call Init once at startup and Sync before exit:

	logger.Init(cfg.Debug)
	defer logger.Sync()

	logger.Info("poll launched", zap.String("poll_id", id))

Until Init is called every call is a no-op, which keeps package tests quiet.
*/
package logger
