package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Package-level zap logger with printf-style helpers.
// Call Init early during startup; before that, logging is a no-op.

var (
	mu    sync.RWMutex
	log   = zap.NewNop()
	sugar = log.Sugar()
)

// Init configures the global logger at the given level (case-insensitive:
// debug, info, warn, error). Unknown levels fall back to info.
func Init(level string) {
	lvl := zapcore.InfoLevel
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn", "warning":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return
	}

	mu.Lock()
	log = l
	sugar = l.Sugar()
	mu.Unlock()
}

// L returns the underlying zap logger for callers that want structured
// fields, such as the audit sink.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Sync flushes buffered log entries. Safe to defer from main.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = log.Sync()
}

func Debugf(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Debugf(format, v...)
}

func Infof(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Infof(format, v...)
}

func Warnf(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Warnf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Errorf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	s.Fatalf(format, v...)
}
