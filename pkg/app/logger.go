package app

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/flemzord/gemgate/internal/config"
	"github.com/flemzord/gemgate/internal/security"
)

// ParseLevel maps debug, info, warn and error to a slog level. The empty
// string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// NewLogger builds the process logger from cfg. A non-empty levelOverride
// (the --log-level flag) wins over cfg.Level. Every record passes through
// redactor before reaching w.
func NewLogger(w io.Writer, cfg config.LoggingConfig, levelOverride string, redactor *security.Redactor) (*slog.Logger, error) {
	levelName := cfg.Level
	if levelOverride != "" {
		levelName = levelOverride
	}
	level, err := ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var inner slog.Handler
	switch cfg.Format {
	case "", "text":
		inner = slog.NewTextHandler(w, opts)
	case "json":
		inner = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return slog.New(security.NewRedactingHandler(inner, redactor)), nil
}
