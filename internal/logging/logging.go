// Package logging builds the zap logger used by the command line tool and
// the long running services.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelEnvVar is consulted when no level is given explicitly.
const LevelEnvVar = "SI7021_LOG_LEVEL"

// New returns a console logger at the given level ("debug", "info", "warn"
// or "error"). An empty level falls back to $SI7021_LOG_LEVEL, and if that
// is empty too the logger discards everything.
func New(level string) (*zap.Logger, error) {
	if level == "" {
		level = os.Getenv(LevelEnvVar)
	}
	if level == "" {
		return zap.NewNop(), nil
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
