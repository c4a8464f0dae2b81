package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cclaudio/trustee/internal/config"
)

type Logger struct {
	*zap.SugaredLogger
}

// NewLogger builds a zap logger honoring the configured level and format.
func NewLogger(cfg config.ObservabilityConfig) (*Logger, error) {
	level := zapcore.InfoLevel
	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
		}
	}

	zc := zap.NewDevelopmentConfig()
	if cfg.LogFormat == "json" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{l.Sugar()}, nil
}

// NopLogger discards everything; used by tests and as a stand-in for nil loggers.
func NopLogger() *Logger { return &Logger{zap.NewNop().Sugar()} }

func (l *Logger) Sync() error { return l.SugaredLogger.Sync() }

// Named returns a child logger scoped to a component.
func (l *Logger) Named(name string) *Logger { return &Logger{l.SugaredLogger.Named(name)} }
