// Package logging builds the process-wide slog logger.
//
// Production output is one JSON object per line with a "ts" timestamp, the
// same shape the HTTP access log and migration events use. Development output
// goes through tint for readable, colored lines.
package logging

import (
	"io"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Options controls how New builds a logger.
type Options struct {
	Production bool
	Level      string
	Location   *time.Location
	NoColor    bool
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	level := ParseLevel(opts.Level)
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	var h slog.Handler
	if opts.Production {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					return slog.String("ts", a.Value.Time().In(loc).Format(time.RFC3339Nano))
				}
				return a
			},
		})
	} else {
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
			NoColor:    opts.NoColor,
		})
	}
	return slog.New(h)
}

// SetDefault installs l as the slog default and routes the standard log
// package through it.
func SetDefault(l *slog.Logger) {
	slog.SetDefault(l)
	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(l.Handler(), slog.LevelInfo).Writer())
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
