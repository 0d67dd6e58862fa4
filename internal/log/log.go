package log

import (
	"io"
	"log/slog"
	"strings"

	"github.com/zx06/xkeychain/internal/errors"
)

// New returns a text slog.Logger writing to w at INFO.
// stdout carries data, so callers pass stderr here.
func New(w io.Writer) *slog.Logger {
	return NewWithLevel(w, slog.LevelInfo)
}

func NewWithLevel(w io.Writer, level slog.Leveler) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// Discard is used when no logger is wired in.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps debug|info|warn|error (case-insensitive) to a slog level.
// An empty string means INFO.
func ParseLevel(s string) (slog.Level, *errors.XError) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New(errors.CodeCfgInvalid, "invalid log level", map[string]any{"log_level": s})
	}
}
