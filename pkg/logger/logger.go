// Package logger owns the process-wide zap logger.
//
// Call Init once from main; until then L returns a no-op logger so packages
// (and tests) can log unconditionally.
package logger

import (
	"fmt"
	"sync"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global = zap.NewNop()
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init builds the global logger.
// level: debug, info, warn, error
// format: json or console
func Init(lvl, format string) error {
	parsed := zap.NewAtomicLevel()
	if err := parsed.UnmarshalText([]byte(lvl)); err != nil {
		return fmt.Errorf("parse log level %q: %w", lvl, err)
	}

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json", "":
		cfg = zap.NewProductionConfig()
	default:
		return fmt.Errorf("unsupported log format %q", format)
	}
	cfg.Level = parsed

	built, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	mu.Lock()
	global = built
	level = parsed
	mu.Unlock()

	bridgeHertz(built)
	return nil
}

// bridgeHertz routes hertz's hlog output (access log, engine warnings) through zap.
func bridgeHertz(l *zap.Logger) {
	std, err := zap.NewStdLogAt(l.Named("hertz"), zapcore.InfoLevel)
	if err != nil {
		return
	}
	hlog.SetOutput(std.Writer())
}

// L returns the global logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Named returns a child of the global logger scoped to a component.
func Named(component string) *zap.Logger {
	return L().Named(component)
}

// SetLevel changes the log level at runtime.
func SetLevel(lvl string) error {
	mu.RLock()
	defer mu.RUnlock()
	return level.UnmarshalText([]byte(lvl))
}

// Level returns the current log level.
func Level() zapcore.Level {
	mu.RLock()
	defer mu.RUnlock()
	return level.Level()
}

// Sync flushes any buffered log entries.
func Sync() error {
	return L().Sync()
}
