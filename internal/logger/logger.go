// Package logger holds the process-wide structured logger.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu    sync.Mutex
	sugar *zap.SugaredLogger
)

// Init configures the global logger for the given environment. "production"
// gets JSON output, "test" a silent logger so test output stays readable, and
// everything else a console encoder. The first call wins.
func Init(env string) {
	mu.Lock()
	defer mu.Unlock()
	if sugar != nil {
		return
	}

	var base *zap.Logger
	switch env {
	case "production":
		base, _ = zap.NewProduction()
	case "test":
		base = zap.NewNop()
	default:
		base, _ = zap.NewDevelopment()
	}
	if base == nil {
		base = zap.NewNop()
	}
	sugar = base.Sugar()
}

// Get returns the global sugared logger, initializing a development logger
// when Init was never called.
func Get() *zap.SugaredLogger {
	if sugar == nil {
		Init("development")
	}
	return sugar
}

// Sync flushes buffered entries. Call before the process exits.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
