// Package logging configures log/slog for watchfilter and names the
// levels available to filter expressions.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
)

// LevelTrace sits below slog.LevelDebug.
const LevelTrace = slog.Level(-8)

// Output formats accepted by Setup.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var levels = map[string]slog.Level{
	"trace": LevelTrace,
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLevel maps a level name to its slog level, ignoring case. The name
// must match exactly otherwise; surrounding space is not trimmed.
func ParseLevel(name string) (slog.Level, bool) {
	// Casers are stateful; one per call.
	lvl, ok := levels[cases.Fold().String(name)]
	return lvl, ok
}

// LevelNames returns the accepted level names, lowest first.
func LevelNames() []string {
	return []string{"trace", "debug", "info", "warn", "error"}
}

// LevelName returns the lower-case name of lvl.
func LevelName(lvl slog.Level) string {
	if lvl == LevelTrace {
		return "trace"
	}
	return strings.ToLower(lvl.String())
}

// replaceLevel prints LevelTrace as TRACE instead of DEBUG-4.
func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

// NewHandler builds a text or JSON handler writing to w.
func NewHandler(w io.Writer, level slog.Leveler, format string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevel,
	}
	switch format {
	case "", FormatText:
		return slog.NewTextHandler(w, opts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (valid: text, json)", format)
	}
}

// Setup parses level and format, builds a logger writing to w and
// installs it as the slog default.
func Setup(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl := slog.LevelInfo
	if level != "" {
		var ok bool
		if lvl, ok = ParseLevel(strings.TrimSpace(level)); !ok {
			return nil, fmt.Errorf("unknown log level %q (valid: %s)", level, strings.Join(LevelNames(), ", "))
		}
	}

	handler, err := NewHandler(w, lvl, format)
	if err != nil {
		return nil, err
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}
