// Package logging builds the process logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the level and destination of the logger.
type Options struct {
	// Level is a zap level name; empty means "warn", keeping normal CLI
	// output free of log lines.
	Level string
	// Debug forces the debug level.
	Debug bool
	// Path is a log file. Empty means stderr.
	Path string
}

// New returns a console logger with ISO8601 timestamps and the atomic level
// controlling it.
func New(opts Options) (*zap.Logger, zap.AtomicLevel, error) {
	level := zapcore.WarnLevel
	if opts.Level != "" {
		var err error
		level, err = zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, zap.AtomicLevel{}, fmt.Errorf("log setting: %w", err)
		}
	}
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil
	cc.OutputPaths = []string{"stderr"}
	cc.ErrorOutputPaths = []string{"stderr"}

	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o700); err != nil {
			return nil, zap.AtomicLevel{}, fmt.Errorf("creating log dir: %w", err)
		}
		cc.OutputPaths = []string{opts.Path}
	}

	log, err := cc.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("building logger: %w", err)
	}
	return log.Named("w3oracle"), cc.Level, nil
}
