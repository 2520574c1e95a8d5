// Package applog owns the process-wide zap logger.
//
// Init is called once at process start; before that (and in tests) L
// returns a no-op logger, so packages can log unconditionally.
// Covers: server start/stop, config, connections, parse diagnostics.
package applog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/DachengChen/chatdb/config"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Init builds the logger described by cfg and installs it.
func Init(cfg config.Log) (*zap.Logger, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	mu.Lock()
	logger = l
	mu.Unlock()
	return l, nil
}

// New builds a logger without installing it.
func New(cfg config.Log) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	zc.OutputPaths = []string{"stderr"}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0700); err != nil {
			return nil, fmt.Errorf("log dir: %w", err)
		}
		zc.OutputPaths = append(zc.OutputPaths, cfg.File)
	}

	return zc.Build()
}

// L returns the installed logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Named returns a child of the installed logger.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Replace installs l and returns a func restoring the previous logger.
func Replace(l *zap.Logger) func() {
	mu.Lock()
	prev := logger
	logger = l
	mu.Unlock()
	return func() {
		mu.Lock()
		logger = prev
		mu.Unlock()
	}
}

// Event logs a lifecycle event under a category.
func Event(category, msg string, fields ...zap.Field) {
	L().Info(msg, append([]zap.Field{zap.String("category", category)}, fields...)...)
}

// Sync flushes buffered entries.
func Sync() {
	_ = L().Sync()
}
