// Package logger owns the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/huangsam/firewatch/schema"
	"github.com/rs/zerolog"
)

var (
	// Logger is the global logger instance. It discards everything until Init runs.
	Logger = zerolog.Nop()
)

// Init initializes the global logger. Unknown levels fall back to info.
func Init(level string, format schema.LogFormat, out io.Writer) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	if out == nil {
		out = os.Stderr
	}
	if format != schema.JSONLog {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	Logger = zerolog.New(out).
		With().
		Timestamp().
		Logger()

	Logger.Debug().
		Str("log_level", logLevel.String()).
		Str("format", string(format)).
		Msg("logger initialized")
}

// WithComponent returns a logger with a component field
func WithComponent(component string) *zerolog.Logger {
	l := Logger.With().Str("component", component).Logger()
	return &l
}

// WithDevice returns a logger with a device ID field
func WithDevice(deviceID string) *zerolog.Logger {
	l := Logger.With().Str("device_id", deviceID).Logger()
	return &l
}

// WithRequestID returns a logger with a request ID field
func WithRequestID(requestID string) *zerolog.Logger {
	l := Logger.With().Str("request_id", requestID).Logger()
	return &l
}
