// Package logging builds the process logger. Service code logs through the
// stdlib log package; Init points it at a rotated zap core.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger.
type Options struct {
	Level      string // debug, info, warn, error
	Path       string // log file; empty logs to stderr only
	MaxSizeMB  int
	MaxBackups int
}

// Init builds a zap logger per the options and redirects the stdlib log
// package to it, so existing log.Printf call sites write structured output.
// The returned function restores stdlib logging and flushes the logger.
func Init(opts Options) (*zap.Logger, func(), error) {
	level := zapcore.InfoLevel
	if err := level.Set(opts.Level); err != nil && opts.Level != "" {
		return nil, nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	sink := zapcore.AddSync(os.Stderr)
	if opts.Path != "" {
		rotated := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		})
		sink = zapcore.NewMultiWriteSyncer(sink, rotated)
	}

	logger := zap.New(zapcore.NewCore(encoder, sink, level))

	restoreStd := zap.RedirectStdLog(logger)

	cleanup := func() {
		restoreStd()
		_ = logger.Sync()
	}
	return logger, cleanup, nil
}
