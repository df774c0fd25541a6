// Package logging provides the structured logging wrapper used by
// physjitter's Session and HybridEngine.
//
// Callers never see raw secrets, hashes, or jitter-bearing input bytes
// through this package — only counts, booleans, and durations. The
// default logger discards everything, so library consumers opt into
// diagnostics explicitly.
package logging

import (
	"io"
	"log/slog"
)

// Level is re-exported from slog so callers configuring physjitter don't
// need to import log/slog themselves.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format selects the wire format of emitted log records.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Config configures a Logger.
type Config struct {
	// Level is the minimum level to emit.
	Level Level
	// Format selects text or JSON output.
	Format Format
	// Output is where log records are written. Defaults to io.Discard.
	Output io.Writer
	// Component tags every record, e.g. "session" or "hybrid_engine".
	Component string
}

// New builds a *slog.Logger from cfg. A zero Config produces a discard
// logger: physjitter never forces logging on a caller who hasn't asked
// for it.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = io.Discard
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.Format == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.Component != "" {
		logger = logger.With("component", cfg.Component)
	}
	return logger
}

// Discard returns a logger that drops every record. Used as the default
// when a caller doesn't supply one.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithFields returns a child logger that annotates every record with
// the given named scalar fields.
func WithFields(logger *slog.Logger, fields ...any) *slog.Logger {
	return logger.With(fields...)
}
