// Package logging constructs the node's structured logger. It
// replaces the teacher's ad hoc log.Printf calls with zap, the way
// the rest of the example corpus's production nodes log.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.SugaredLogger: a human-readable console encoder
// in development (the default), switching to JSON when prod is true.
func New(prod bool, verbosity int) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if prod {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level := zapcore.InfoLevel
	if verbosity > 0 {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// EventHandler adapts a *zap.SugaredLogger into the blocktree
// EventHandler func(format string, args ...any) signature
// used for decoupled, optional event notifications.
func EventHandler(log *zap.SugaredLogger) func(string, ...any) {
	return func(format string, args ...any) {
		log.Infof(format, args...)
	}
}
