// Package logging builds the process logger from the configured level and
// format.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jgivc/harmonyfest/internal/config"
)

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case config.LogLevelDebug:
		return slog.LevelDebug, nil
	case config.LogLevelInfo:
		return slog.LevelInfo, nil
	case config.LogLevelWarn, "warning":
		return slog.LevelWarn, nil
	case config.LogLevelError:
		return slog.LevelError, nil
	}

	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	lo := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch format {
	case config.LogFormatJSON:
		h = slog.NewJSONHandler(w, lo)
	case config.LogFormatText, "":
		h = slog.NewTextHandler(w, lo)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return slog.New(h), nil
}

// Discard returns a logger that drops everything, for tests and one-shot
// commands.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
