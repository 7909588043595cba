// Package logging wires the daemon's single *zap.SugaredLogger,
// optionally rotating the file target through lumberjack (§6
// persisted-state: rotating log file with size cap and backup count).
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the package-wide sugared logger, assigned once by
// CreateLogger at startup; package code elsewhere logs through it the
// same way the teacher's components log through a shared package
// variable.
var Logger = zap.NewNop().Sugar()

// ParseLogLevel maps a CLI verbosity string ("debug", "info", "warn",
// "error") to a zap level, defaulting to info for an empty string.
func ParseLogLevel(s string) (zap.AtomicLevel, error) {
	if s == "" {
		return zap.NewAtomicLevelAt(zap.InfoLevel), nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return zap.NewAtomicLevelAt(lvl), nil
}

// CreateLogger builds a sugared logger writing console-encoded lines
// to stderr and, if path is non-empty, also to a size-capped rotating
// file.
func CreateLogger(level zap.AtomicLevel, path string, maxSizeMB, maxBackups int) *zap.SugaredLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), level),
	}
	if path != "" {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			Compress:   false,
		}), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger.Sugar()
}
