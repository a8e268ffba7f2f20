package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/roach88/watchfilter/internal/value"
)

const (
	replPrompt  = "watchfilter> "
	historyFile = ".watchfilter_history"
)

const replHelp = `Enter a jq expression to evaluate it against the current input.
Commands:
  :input <json>  set the input (default null)
  :kv            list key-value entries
  :funcs         list host functions
  :help          show this help
  :quit          exit
`

// ReplOptions holds flags for the repl command.
type ReplOptions struct {
	*RootOptions
	Input     string // JSON text of the initial input
	KVBackend string
	History   string
}

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Evaluate filters interactively",
		Long: `Start an interactive prompt. Each line is compiled and run against
the current input; the key-value store persists between lines.

Examples:
  watchfilter repl
  watchfilter repl --input '{"path": "go.mod"}'
  watchfilter repl --kv-backend sqlite`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd, opts)
		},
	}

	home, _ := os.UserHomeDir()
	defaultHistory := ""
	if home != "" {
		defaultHistory = filepath.Join(home, historyFile)
	}

	cmd.Flags().StringVar(&opts.Input, "input", "null", "initial input as JSON")
	cmd.Flags().StringVar(&opts.KVBackend, "kv-backend", "", "key-value backend (memory|sqlite)")
	cmd.Flags().StringVar(&opts.History, "history", defaultHistory, "history file (empty disables)")

	return cmd
}

func runRepl(cmd *cobra.Command, opts *ReplOptions) error {
	cfg := opts.settings()
	if opts.KVBackend != "" {
		cfg.KVBackend = opts.KVBackend
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}

	input, err := parseJSON(opts.Input)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --input", err)
	}

	out := cmd.OutOrStdout()
	sess, err := newSession(cfg, opts.logger(), out, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load definitions", err)
	}
	defer sess.Close()

	r := &repl{sess: sess, input: input, out: out}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if opts.History != "" {
		if f, err := os.Open(opts.History); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	for {
		line, err := ln.Prompt(replPrompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				opts.logger().Error("failed to read line", "error", err)
			}
			fmt.Fprintln(out)
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if r.exec(cmd.Context(), line) {
			break
		}
	}

	if opts.History != "" {
		if f, err := os.Create(opts.History); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}
	return nil
}

// repl evaluates prompt lines against one session.
type repl struct {
	sess  *session
	input any
	out   io.Writer
}

// exec handles one line and reports whether the prompt should end.
func (r *repl) exec(ctx context.Context, line string) (quit bool) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, ":") {
		return r.command(line)
	}

	program, err := r.sess.defs.Compile(line)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return false
	}
	outputs, err := program.Run(ctx, r.input)
	for _, v := range outputs {
		fmt.Fprintln(r.out, value.Text(v))
	}
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
	}
	return false
}

func (r *repl) command(line string) (quit bool) {
	name, rest, _ := strings.Cut(line, " ")
	switch strings.ToLower(name) {
	case ":quit", ":exit", ":q":
		return true

	case ":help":
		fmt.Fprint(r.out, replHelp)

	case ":input":
		if strings.TrimSpace(rest) == "" {
			fmt.Fprintln(r.out, value.Text(r.input))
			return false
		}
		v, err := parseJSON(rest)
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			return false
		}
		r.input = v

	case ":kv":
		keys := r.sess.store.Keys()
		if len(keys) == 0 {
			fmt.Fprintln(r.out, "(empty)")
		}
		for _, k := range keys {
			fmt.Fprintf(r.out, "%s = %s\n", k, value.Text(r.sess.store.Fetch(k)))
		}

	case ":funcs":
		for _, f := range r.sess.defs.Natives() {
			fmt.Fprintln(r.out, signature(f.Name, f.Arity))
		}

	default:
		fmt.Fprintf(r.out, "unknown command %s. Type :help for help.\n", name)
	}
	return false
}

// parseJSON decodes a single JSON value into a canonical evaluation value.
func parseJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return value.Normalize(v), nil
}
