package filter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// Program is a compiled expression.
type Program struct {
	src  string
	vars []string
	code *gojq.Code
}

// Compile parses src and compiles it with every loaded definition. vars
// names the variables the program is run with, with or without the
// leading '$'.
func (d *Definitions) Compile(src string, vars ...string) (*Program, error) {
	q, err := gojq.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}

	// Definitions are parsed afresh for every program so no two programs
	// share AST nodes.
	prelude := make([]*gojq.FuncDef, 0, len(d.defs))
	for _, def := range d.defs {
		fd, err := parseDefinition(def.text)
		if err != nil {
			return nil, fmt.Errorf("reparse %s: %w", def.name, err)
		}
		prelude = append(prelude, fd)
	}
	q.FuncDefs = append(prelude, q.FuncDefs...)

	names := make([]string, len(vars))
	for i, v := range vars {
		if !strings.HasPrefix(v, "$") {
			v = "$" + v
		}
		names[i] = v
	}

	opts := append([]gojq.CompilerOption{gojq.WithVariables(names)}, d.opts...)
	code, err := gojq.Compile(q, opts...)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	return &Program{src: src, vars: names, code: code}, nil
}

// String returns the source of the program.
func (p *Program) String() string {
	return p.src
}

// Vars returns the variable names the program expects, in order.
func (p *Program) Vars() []string {
	return append([]string(nil), p.vars...)
}

// Iter starts a lazy evaluation of the program against input. Errors are
// produced as elements of the stream.
func (p *Program) Iter(ctx context.Context, input any, vars ...any) gojq.Iter {
	return p.code.RunWithContext(ctx, input, vars...)
}

// Run evaluates the program against input and collects its outputs,
// stopping at the first error. A bare halt ends the evaluation without an
// error.
func (p *Program) Run(ctx context.Context, input any, vars ...any) ([]any, error) {
	if len(vars) != len(p.vars) {
		return nil, fmt.Errorf("program expects %d variables, got %d", len(p.vars), len(vars))
	}

	var out []any
	iter := p.Iter(ctx, input, vars...)
	for {
		v, ok := iter.Next()
		if !ok {
			return out, nil
		}
		if err, isErr := v.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return out, nil
			}
			return out, err
		}
		out = append(out, v)
	}
}
