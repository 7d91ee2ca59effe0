// Package logging builds the process logger: slog, leveled, writing either to
// stderr or to a size-rotated file.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger at the given level. With a non-empty dir, output goes
// to a rotated file under it; otherwise to stderr as text.
func New(level, dir string) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info", "":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "%s: invalid log level, using info\n", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if dir == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "skypilot.slog"),
		MaxSize:    32, // MB
		MaxBackups: 2,
		Compress:   true,
	}
	if lvl == slog.LevelDebug {
		w.MaxSize = 256
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
