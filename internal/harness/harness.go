package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/watchfilter/internal/filter"
	"github.com/roach88/watchfilter/internal/hostlib"
	"github.com/roach88/watchfilter/internal/kv"
	"github.com/roach88/watchfilter/internal/native"
	"github.com/roach88/watchfilter/internal/value"
)

// Harness runs the steps of one scenario.
type Harness struct {
	dir    string
	defs   *filter.Definitions
	store  *kv.Store
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// Run executes a scenario and returns the result.
//
// Each scenario gets its own temporary directory and key-value store.
// Logs are discarded; use RunWithLogger to keep them.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return RunWithLogger(ctx, scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with log() output and environmental errors sent to
// logger.
func RunWithLogger(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	dir, err := os.MkdirTemp("", "watchfilter-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(dir)

	// Resolve symlinked temp roots so $DIR replacement sees the same text
	// that functions report.
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	for name, content := range scenario.Files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	store, err := kv.Open(scenario.KVBackend)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	h := &Harness{dir: dir, store: store}
	if h.defs, err = h.definitions(logger); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return result, nil
}

func (h *Harness) definitions(logger *slog.Logger) (*filter.Definitions, error) {
	defs, err := filter.LoadStd()
	if err != nil {
		return nil, err
	}
	r := native.NewRegistry()
	if err := hostlib.Register(r, hostlib.Env{
		Logger: logger,
		Stdout: &h.stdout,
		Stderr: &h.stderr,
		Store:  h.store,
	}); err != nil {
		return nil, err
	}
	if err := defs.LoadHost(r); err != nil {
		return nil, err
	}
	return defs, nil
}

// executeStep compiles and runs one step, records its trace and checks its
// expectation. Only harness failures are returned; a failing expression is
// part of the trace.
func (h *Harness) executeStep(ctx context.Context, seq int, step Step, result *Result) error {
	h.stdout.Reset()
	h.stderr.Reset()

	event := TraceEvent{Seq: seq, Expr: step.Expr}
	prog, err := h.defs.Compile(step.Expr, "dir")
	if err == nil {
		input := value.Normalize(h.expand(step.Input))
		event.Outputs, err = prog.Run(ctx, input, h.dir)
	}
	if err != nil {
		event.Error = h.redact(err.Error())
	}

	event.Rendered = make([]string, len(event.Outputs))
	for i, out := range event.Outputs {
		event.Rendered[i] = h.redact(value.Text(out))
	}
	event.Stdout = h.lines(h.stdout.String())
	event.Stderr = h.lines(h.stderr.String())

	result.Trace = append(result.Trace, event)
	for _, msg := range h.check(step, event) {
		result.AddError(fmt.Sprintf("step %d (%s): %s", seq, step.Expr, msg))
	}
	return ctx.Err()
}

// check compares a step's trace with its expectation.
func (h *Harness) check(step Step, event TraceEvent) []string {
	var errs []string

	switch {
	case step.Error != "":
		if event.Error == "" {
			errs = append(errs, fmt.Sprintf("expected error containing %q, got none", step.Error))
		} else if !strings.Contains(event.Error, step.Error) {
			errs = append(errs, fmt.Sprintf("expected error containing %q, got %q", step.Error, event.Error))
		}
		return errs
	case event.Error != "":
		errs = append(errs, "unexpected error: "+event.Error)
	}

	if step.Expect == nil {
		return errs
	}
	want := *step.Expect
	if len(want) != len(event.Outputs) {
		return append(errs, fmt.Sprintf("expected %d outputs, got %d: [%s]",
			len(want), len(event.Outputs), strings.Join(event.Rendered, ", ")))
	}
	for i, w := range want {
		expected := value.FromValue(value.Normalize(h.expand(w)))
		if !expected.Equal(value.FromValue(event.Outputs[i])) {
			errs = append(errs, fmt.Sprintf("output %d: expected %s, got %s",
				i+1, h.redact(expected.String()), event.Rendered[i]))
		}
	}
	return errs
}

// expand replaces DirPlaceholder in every string of v with the scenario
// directory.
func (h *Harness) expand(v any) any {
	switch v := v.(type) {
	case string:
		return strings.ReplaceAll(v, DirPlaceholder, h.dir)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = h.expand(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = h.expand(e)
		}
		return out
	default:
		return v
	}
}

func (h *Harness) redact(s string) string {
	return strings.ReplaceAll(s, h.dir, DirPlaceholder)
}

func (h *Harness) lines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(h.redact(s), "\n")
}
