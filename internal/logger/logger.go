package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options select the level and handler. Empty fields fall back to
// LOG_LEVEL and the text handler.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New returns a logger writing to stderr unless opts.Output is set. The level
// comes from opts.Level, then LOG_LEVEL, and defaults to warn.
func New(opts Options) *slog.Logger {
	level := slog.LevelWarn
	for _, candidate := range []string{os.Getenv("LOG_LEVEL"), opts.Level} {
		if candidate == "" {
			continue
		}
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(candidate)); err == nil {
			level = parsed
		}
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		h = slog.NewJSONHandler(out, handlerOpts)
	} else {
		h = slog.NewTextHandler(out, handlerOpts)
	}
	return slog.New(h)
}
