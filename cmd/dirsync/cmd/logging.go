package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// newLogger builds the process logger from the global flags. Colour is
// only used when fd is a terminal.
func newLogger(w io.Writer, fd uintptr) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}

	switch logFormat {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
	case "", "text":
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    noColor || !isatty.IsTerminal(fd),
		})), nil
	default:
		return nil, fmt.Errorf("unknown log format '%s' — must be one of: text, json", logFormat)
	}
}
