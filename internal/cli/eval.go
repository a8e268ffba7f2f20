package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/watchfilter/internal/filter"
	"github.com/roach88/watchfilter/internal/value"
)

// Input formats accepted by eval.
const (
	InputJSON = "json"
	InputYAML = "yaml"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	NullInput   bool
	RawOutput   bool
	Workers     int
	KVBackend   string
	InputFormat string
	Args        []string // name=value pairs bound as $name
}

// EvalResult is the JSON form of one evaluation.
type EvalResult struct {
	Index   int               `json:"index"`
	ID      string            `json:"id"`
	Outputs []json.RawMessage `json:"outputs"`
	Error   string            `json:"error,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <expr> [file...]",
		Short: "Evaluate a filter over input documents",
		Long: `Evaluate a jq expression against every document read from the
given files, or from stdin when no file is given.

Documents are evaluated concurrently; outputs are printed in input order.
A failing evaluation is reported on stderr and does not stop the others.

Exit codes:
  0 - All evaluations succeeded
  1 - One or more evaluations failed
  2 - Command error (bad expression, unreadable input, etc.)

Examples:
  watchfilter eval -n '"/etc/hosts" | file_size'
  find . -name '*.go' | jq -R . | watchfilter eval 'file_hash'
  watchfilter eval -r '.path | basename' events.json
  watchfilter eval --input-format yaml '.[] | kv_store(.name)' items.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, opts, args[0], args[1:])
		},
	}

	cmd.Flags().BoolVarP(&opts.NullInput, "null-input", "n", false, "use null as the single input")
	cmd.Flags().BoolVarP(&opts.RawOutput, "raw-output", "r", false, "print strings without quotes")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent evaluations (0 uses the config)")
	cmd.Flags().StringVar(&opts.KVBackend, "kv-backend", "", "key-value backend (memory|sqlite)")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", InputJSON, "input document format (json|yaml)")
	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "bind $name to a string (name=value)")

	return cmd
}

func runEval(cmd *cobra.Command, opts *EvalOptions, expr string, files []string) error {
	cfg := opts.settings()
	if cmd.Flags().Changed("workers") {
		cfg.Workers = opts.Workers
	}
	if opts.KVBackend != "" {
		cfg.KVBackend = opts.KVBackend
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}

	names, vals, err := parseArgs(opts.Args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --arg", err)
	}

	var inputs []any
	if opts.NullInput {
		inputs = []any{nil}
	} else if inputs, err = readAllInputs(cmd.InOrStdin(), files, opts.InputFormat); err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}

	logger := opts.logger()
	sess, err := newSession(cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load definitions", err)
	}
	defer sess.Close()

	program, err := sess.defs.Compile(expr, names...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid expression", err)
	}

	runner := &filter.Runner{Program: program, Workers: cfg.Workers, Logger: logger}
	evals, err := runner.Run(cmd.Context(), inputs, vals...)
	if err != nil {
		return WrapExitError(ExitFailure, "evaluation cancelled", err)
	}

	if opts.Format == "json" {
		return outputEvalJSON(cmd, evals)
	}
	return outputEvalText(cmd, evals, opts.RawOutput)
}

// parseArgs splits name=value pairs into variable names and values.
func parseArgs(pairs []string) ([]string, []any, error) {
	names := make([]string, 0, len(pairs))
	vals := make([]any, 0, len(pairs))
	for _, p := range pairs {
		name, val, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("%q: expected name=value", p)
		}
		names = append(names, name)
		vals = append(vals, val)
	}
	return names, vals, nil
}

// readAllInputs decodes every document of every file, or of stdin when
// files is empty.
func readAllInputs(stdin io.Reader, files []string, format string) ([]any, error) {
	if len(files) == 0 {
		return readInputs(stdin, format)
	}
	var inputs []any
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		docs, err := readInputs(f, format)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		inputs = append(inputs, docs...)
	}
	return inputs, nil
}

// readInputs decodes a stream of JSON or YAML documents into canonical
// evaluation values.
func readInputs(r io.Reader, format string) ([]any, error) {
	var inputs []any
	switch format {
	case InputJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		for {
			var v any
			if err := dec.Decode(&v); errors.Is(err, io.EOF) {
				return inputs, nil
			} else if err != nil {
				return nil, fmt.Errorf("decode json: %w", err)
			}
			inputs = append(inputs, value.Normalize(v))
		}
	case InputYAML:
		dec := yaml.NewDecoder(r)
		for {
			var v any
			if err := dec.Decode(&v); errors.Is(err, io.EOF) {
				return inputs, nil
			} else if err != nil {
				return nil, fmt.Errorf("decode yaml: %w", err)
			}
			inputs = append(inputs, fromYAML(v))
		}
	default:
		return nil, fmt.Errorf("unknown input format %q (valid: json, yaml)", format)
	}
}

// fromYAML turns decoded YAML into evaluation values. Mappings with
// non-string keys get their keys formatted as text.
func fromYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, elem := range val {
			val[k] = fromYAML(elem)
		}
		return val
	case map[any]any:
		obj := make(map[string]any, len(val))
		for k, elem := range val {
			obj[fmt.Sprint(k)] = fromYAML(elem)
		}
		return obj
	case []any:
		for i, elem := range val {
			val[i] = fromYAML(elem)
		}
		return val
	}
	return value.ToValue(value.FromValue(v))
}

// render formats one output the way eval prints it.
func render(v any, raw bool) string {
	if s, ok := v.(string); ok && raw {
		return s
	}
	return value.Text(v)
}

func outputEvalText(cmd *cobra.Command, evals []filter.Evaluation, raw bool) error {
	w := cmd.OutOrStdout()
	failed := 0
	for _, ev := range evals {
		for _, out := range ev.Outputs {
			fmt.Fprintln(w, render(out, raw))
		}
		if ev.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "input %d: %v\n", ev.Index, ev.Err)
		}
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d evaluations failed", failed, len(evals)))
	}
	return nil
}

func outputEvalJSON(cmd *cobra.Command, evals []filter.Evaluation) error {
	results := make([]EvalResult, len(evals))
	failed := 0
	for i, ev := range evals {
		r := EvalResult{Index: ev.Index, ID: ev.ID, Outputs: make([]json.RawMessage, len(ev.Outputs))}
		for j, out := range ev.Outputs {
			r.Outputs[j] = json.RawMessage(value.Text(out))
		}
		if ev.Err != nil {
			r.Error = ev.Err.Error()
			failed++
		}
		results[i] = r
	}

	f := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	if failed == 0 {
		return f.Success(results)
	}
	msg := fmt.Sprintf("%d of %d evaluations failed", failed, len(evals))
	if err := f.Error("E_EVAL_FAILED", msg, results); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}
