// Package logger builds the application's zap logger.
package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"resourcehub/internal/config"
)

// New returns a zap logger configured from cfg. JSON output uses the "ts" key
// with RFC 3339 nanosecond timestamps so request, migration and tracing
// entries share one shape.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "ts"
		zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)
		zc.Sampling = nil
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
