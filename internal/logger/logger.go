package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters for service log files.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes the log destination for a launched service. Stdout and
// stderr share one file; rotation parameters follow lumberjack semantics.
type Config struct {
	Path       string // log file path; empty disables file logging
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Writer returns an io.WriteCloser for the configured path, creating parent
// directories as needed. Returns nil when no path is configured.
func (c Config) Writer() io.WriteCloser {
	if c.Path == "" {
		return nil
	}
	_ = os.MkdirAll(filepath.Dir(c.Path), 0o750)
	return &lj.Logger{
		Filename:   c.Path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Setup installs the process-wide slog default. With a file the output is
// rotated via lumberjack; otherwise it goes to stderr with level colors.
func Setup(level, file string) {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if file != "" {
		w := Config{Path: file}.Writer()
		h = slog.NewTextHandler(w, opts)
	} else {
		h = NewColorTextHandler(os.Stderr, opts, true)
	}
	slog.SetDefault(slog.New(h))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
