// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.Logger]

func init() {
	current.Store(zap.NewNop())
}

// Init replaces the process logger. Debug mode switches to the development
// encoder and enables Debug level.
func Init(debug bool) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		// Fall back to a logger that can't fail to build
		l = zap.NewExample()
		l.Warn("failed to build configured logger", zap.Error(err))
	}
	current.Store(l)
}

// Set installs l as the process logger. Tests use it with zaptest/observer.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	current.Store(l)
}

func L() *zap.Logger { return current.Load() }

func Debug(msg string, fields ...zap.Field) { current.Load().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { current.Load().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { current.Load().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { current.Load().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { current.Load().Fatal(msg, fields...) }

// Sync flushes buffered entries. Errors from syncing stdout/stderr are ignored.
func Sync() {
	_ = current.Load().Sync()
}
