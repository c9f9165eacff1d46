// Package observability wires logging, metrics, and tracing.
package observability

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds the service-wide logger with the service name bound to
// every entry. An unknown level string falls back to info rather than
// failing startup.
func NewLogger(service, level string, output io.Writer) zerolog.Logger {
	if output == nil {
		output = os.Stdout
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(output).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Caller().
		Logger()
}
