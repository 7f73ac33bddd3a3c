// Package logger owns the process-wide zap logger.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	mu         sync.Mutex
	globalBase *zap.Logger
)

// Init builds the global logger. env "prod"/"production" selects zap's JSON
// production config; anything else gets the development console config.
// Calling Init again replaces the previous logger.
func Init(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(env, "prod") || strings.EqualFold(env, "production") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	// stdout belongs to command output.
	cfg.OutputPaths = []string{"stderr"}

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	mu.Lock()
	globalBase = base
	mu.Unlock()

	zap.ReplaceGlobals(base)
	_ = zap.RedirectStdLog(base)
	return base, nil
}

// L returns the global logger, initializing it from LOG_ENV on first use.
func L() *zap.Logger {
	mu.Lock()
	base := globalBase
	mu.Unlock()
	if base != nil {
		return base
	}

	base, err := Init(os.Getenv("LOG_ENV"))
	if err != nil {
		base, _ = zap.NewDevelopment()
		mu.Lock()
		globalBase = base
		mu.Unlock()
	}
	return base
}

// Sugar returns the sugared form of L.
func Sugar() *zap.SugaredLogger {
	return L().Sugar()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Sync flushes buffered entries.
func Sync() {
	mu.Lock()
	base := globalBase
	mu.Unlock()
	if base != nil {
		_ = base.Sync()
	}
}
