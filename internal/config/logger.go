package config

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds the service logger writing JSON lines to w (stdout when nil)
func NewLogger(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
