// Package logging provides the zap-backed logger used by the CLI and any
// embedding application. The pkg/client package only depends on its own
// minimal Logger interface; this package supplies implementations of it,
// so go.uber.org/zap never leaks into the SDK surface.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/protoqsar/protopred-go/internal/config"
)

// Logger is the leveled printf-style logging contract. It is a superset of
// the client's Logger interface, so any Logger built here can be passed to
// client.WithLogger directly.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// zapLogger wraps a *zap.SugaredLogger and satisfies the Logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l *zapLogger) Debugf(format string, args ...interface{}) { l.s.Debugf(format, args...) }
func (l *zapLogger) Infof(format string, args ...interface{})  { l.s.Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...interface{})  { l.s.Warnf(format, args...) }
func (l *zapLogger) Errorf(format string, args ...interface{}) { l.s.Errorf(format, args...) }

// parseLevel converts a string level to a zapcore.Level. Unknown values
// default to InfoLevel so the application remains operational.
func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug", "DEBUG":
		return zapcore.DebugLevel
	case "warn", "WARN":
		return zapcore.WarnLevel
	case "error", "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New constructs a Logger backed by zap according to cfg. The "text" format
// uses zap's console encoder; anything else falls back to JSON. Output goes
// to stderr unless cfg.Output names stdout or a file path.
func New(cfg config.LogConfig) (Logger, error) {
	var encCfg zapcore.EncoderConfig
	var encoding string
	switch cfg.Format {
	case "text":
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoding = "console"
	default:
		encCfg = zap.NewProductionEncoderConfig()
		encoding = "json"
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	output := cfg.Output
	if output == "" {
		output = "stderr"
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Encoding:         encoding,
		EncoderConfig:    encCfg,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}

	z, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: failed to build zap logger: %w", err)
	}
	return &zapLogger{s: z.Sugar()}, nil
}

// NewFromCore constructs a Logger from an existing zapcore.Core. This is
// primarily used for testing with observed logs.
func NewFromCore(core zapcore.Core) Logger {
	return &zapLogger{s: zap.New(core).Sugar()}
}

type nopLogger struct{}

func (nopLogger) Debugf(_ string, _ ...interface{}) {}
func (nopLogger) Infof(_ string, _ ...interface{})  {}
func (nopLogger) Warnf(_ string, _ ...interface{})  {}
func (nopLogger) Errorf(_ string, _ ...interface{}) {}

// Nop returns a Logger that discards all entries.
func Nop() Logger { return nopLogger{} }
