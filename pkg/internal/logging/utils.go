package logging

import (
	"log/slog"
	"os"

	"github.com/evmgate/go-payment-middleware/pkg/defs"
)

const (
	ServiceKey = "service"
	ErrorKey   = "error"
)

// Child returns a new logger with the given service name added to the logger attrs.
func Child(logger *slog.Logger, serviceName string) *slog.Logger {
	return DefaultIfNil(logger).With(
		slog.String(ServiceKey, serviceName),
	)
}

func Error(err error) slog.Attr {
	return slog.String(ErrorKey, err.Error())
}

// DefaultIfNil returns the default logger if the given logger is nil.
func DefaultIfNil(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// New builds a logger writing to stderr with the configured level and handler type.
func New(level defs.LogLevel, handler defs.LogHandler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}

	switch handler {
	case defs.JSONHandler:
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	default:
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
}
