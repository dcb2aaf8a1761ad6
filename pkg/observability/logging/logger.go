package logging

import (
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Package logging wraps zap behind the small printf-style surface the rest
// of the codebase uses. The process logger is replaced once at startup via
// InitLoggerFromEnv; before that, calls go to a no-op logger so library
// code and tests never have to care about initialization order.

var (
	mu    sync.RWMutex
	base  = zap.NewNop()
	sugar = base.Sugar()
)

// InitLoggerFromEnv builds the process logger from environment variables:
//
//	LOG_LEVEL:  debug | info | warn | error (default info)
//	LOG_FORMAT: json | console (default json)
//
// It installs the logger globally and returns it so callers can defer Sync.
func InitLoggerFromEnv() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
			return nil, err
		}
	}

	encoding := "json"
	if raw := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))); raw == "console" {
		encoding = "console"
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encoding,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	SetLogger(logger)
	return logger, nil
}

// SetLogger replaces the process logger. Tests use this to capture output.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	sugar = l.Sugar()
}

// Logger returns the current process logger.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Debugf(format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sugar.Fatalf(format, args...)
}

// LogEvent emits a structured analytics event. Fields are attached in key
// order so log lines stay stable across runs.
func LogEvent(event string, fields map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zfields := make([]zap.Field, 0, len(fields)+1)
	zfields = append(zfields, zap.String("event", event))
	for _, k := range keys {
		zfields = append(zfields, zap.Any(k, fields[k]))
	}

	mu.RLock()
	defer mu.RUnlock()
	base.Info("event", zfields...)
}
