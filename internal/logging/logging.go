// Package logging configures the shared zerolog logger.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns a console logger at the given level. Unknown level strings
// fall back to info.
func New(level string) zerolog.Logger {
	return NewWriter(zerolog.ConsoleWriter{Out: os.Stderr}, level)
}

// NewWriter returns a logger writing to the given writer; used by tests.
func NewWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
