package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/watchfilter/internal/hostlib"
	"github.com/roach88/watchfilter/internal/native"
)

// FuncInfo describes one host function.
type FuncInfo struct {
	Name   string `json:"name"`
	Arity  int    `json:"arity"`
	Effect bool   `json:"effect"`
	Doc    string `json:"doc"`
}

// NewFuncsCommand creates the funcs command.
func NewFuncsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "funcs",
		Short: "List host functions",
		Long: `List the host functions available to filter expressions.

Effect functions re-emit their input unchanged, so they can sit anywhere
in a pipeline.

Examples:
  watchfilter funcs
  watchfilter funcs --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := listFuncs(hostlib.Funcs(hostlib.Env{Logger: rootOpts.logger()}))
			if rootOpts.Format == "json" {
				f := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
				return f.Success(infos)
			}
			w := cmd.OutOrStdout()
			for _, f := range infos {
				kind := ""
				if f.Effect {
					kind = "effect"
				}
				fmt.Fprintf(w, "%-16s %-7s %s\n", signature(f.Name, f.Arity), kind, f.Doc)
			}
			return nil
		},
	}
}

func listFuncs(fs []native.Func) []FuncInfo {
	infos := make([]FuncInfo, len(fs))
	for i, f := range fs {
		infos[i] = FuncInfo{Name: f.Name, Arity: f.Arity, Effect: f.Effect, Doc: f.Doc}
	}
	slices.SortFunc(infos, func(a, b FuncInfo) int { return strings.Compare(a.Name, b.Name) })
	return infos
}

// signature renders a function as jq writes its arguments: name(a; b).
func signature(name string, arity int) string {
	if arity == 0 {
		return name
	}
	params := make([]string, arity)
	for i := range params {
		params[i] = string(rune('a' + i))
	}
	return name + "(" + strings.Join(params, "; ") + ")"
}
