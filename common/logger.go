package common

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// loggerPtr stores the active logger shared by every engine package.
var loggerPtr atomic.Pointer[zap.Logger]

func init() {
	loggerPtr.Store(zap.NewNop())
}

// SetLogger configures the logger used by the engine and all of its sub-packages.
// By default the engine produces no log output. Passing nil restores the silent default.
//
// Levels used by the engine:
//   - Debug: pass planning, batch sizes, readback sizes
//   - Info: backend lifecycle (adapter selected, surface configured)
//   - Warn: recoverable failures such as a readback retry
//
// Parameters:
//   - l: the zap logger to install
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerPtr.Store(l)
}

// Logger returns the current engine logger. Safe for concurrent use.
//
// Returns:
//   - *zap.Logger: the active logger, never nil
func Logger() *zap.Logger {
	return loggerPtr.Load()
}

// NewDevelopmentLogger builds a human readable zap logger at the given level
// ("debug", "info", "warn", "error"). Unknown levels fall back to info.
//
// Parameters:
//   - level: the minimum level to emit
//
// Returns:
//   - *zap.Logger: the configured logger
//   - error: error if zap fails to build its sinks
func NewDevelopmentLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
