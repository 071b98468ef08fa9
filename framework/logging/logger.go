// Package logging builds the application's zap logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-async-ioc/framework/config"
)

// Option customizes New.
type Option func(*options)

type options struct {
	out     io.Writer
	appName string
}

// WithOutput sends log lines to w instead of stderr.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithAppName adds an "app" field to every entry.
func WithAppName(name string) Option {
	return func(o *options) { o.appName = name }
}

// New creates a logger for cfg. Format "json" produces production-style
// entries, anything else the development console encoder.
func New(cfg config.LogConfig, opts ...Option) (*zap.Logger, error) {
	o := options{out: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	var enc zapcore.Encoder
	switch cfg.Format {
	case "json":
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "console", "":
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(o.out), zap.NewAtomicLevelAt(level))
	log := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if o.appName != "" {
		log = log.With(zap.String("app", o.appName))
	}
	return log, nil
}

// Must is New for bootstrap code that cannot continue without a logger.
func Must(cfg config.LogConfig, opts ...Option) *zap.Logger {
	log, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return log
}
