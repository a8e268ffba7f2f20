package hostlib

import (
	"context"
	"fmt"
	"io"

	"github.com/roach88/watchfilter/internal/logging"
	"github.com/roach88/watchfilter/internal/native"
	"github.com/roach88/watchfilter/internal/value"
)

func outputFuncs(env Env) []native.Func {
	return []native.Func{
		{
			Name:   "log",
			Arity:  1,
			Effect: true,
			Doc:    "log the input at the given level (trace, debug, info, warn, error)",
			Run: native.Passthrough(func(args native.Args, input any) error {
				name, err := args.String(0)
				if err != nil {
					return err
				}
				lvl, ok := logging.ParseLevel(name)
				if !ok {
					return &native.EvalError{Code: native.ErrCodeInvalidLevel, Message: "invalid log level"}
				}
				env.Logger.Log(context.Background(), lvl, "filter", "value", value.Text(input))
				return nil
			}),
		},
		{
			Name:   "printout",
			Effect: true,
			Doc:    "print the input to stdout",
			Run:    native.Passthrough(printTo(env.Stdout)),
		},
		{
			Name:   "printerr",
			Effect: true,
			Doc:    "print the input to stderr",
			Run:    native.Passthrough(printTo(env.Stderr)),
		},
	}
}

// printTo writes the input's text form and a newline. Write failures are
// ignored.
func printTo(w io.Writer) func(native.Args, any) error {
	return func(_ native.Args, input any) error {
		_, _ = fmt.Fprintln(w, value.Text(input))
		return nil
	}
}
