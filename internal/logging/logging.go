// Package logging installs the process-wide slog handler from config.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/edc/internal/config"
)

// ParseLevel maps a config level name to a slog level. Unknown names are
// info.
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

// Setup builds a handler writing to w (and to cfg.File when set), installs
// it as the slog default, and returns it with a func that closes the log
// file. verbose forces debug level.
func Setup(cfg config.LogConfig, w io.Writer, verbose bool) (*slog.Logger, func() error, error) {
	level := ParseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}

	closeFn := func() error { return nil }
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(w, f)
		closeFn = f.Close
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	logger.With("component", "logging").Debug("logger initialized",
		"level", level.String(),
		"json", cfg.JSON,
		"file", cfg.File,
	)
	return logger, closeFn, nil
}
