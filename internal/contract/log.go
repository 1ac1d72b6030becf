package contract

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var defaultLoggerOnce sync.Once

// InitLogger builds the process logger and installs it as zap's global logger.
// format is "console" or "json"; level is any zapcore level name.
func InitLogger(level, format string) (*zap.Logger, error) {
	logger, err := buildLogger(level, format)
	if err != nil {
		return nil, err
	}
	defaultLoggerOnce.Do(func() {}) // an explicit logger wins over the default
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// Logger returns the process logger, falling back to a console logger at info
// level when InitLogger has not run yet.
func Logger() *zap.Logger {
	defaultLoggerOnce.Do(func() {
		if logger, err := buildLogger("info", "console"); err == nil {
			zap.ReplaceGlobals(logger)
		}
	})
	return zap.L()
}

func buildLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level.SetLevel(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch strings.ToLower(format) {
	case "", "console":
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.DisableStacktrace = true
	case "json":
		cfg.Encoding = "json"
	default:
		return nil, fmt.Errorf("invalid log format %q. must be console, json", format)
	}
	return cfg.Build()
}
