package filter

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/roach88/watchfilter/internal/native"
)

//go:embed std.jq
var stdSource string

// definition is one jq function definition and the layer it came from.
type definition struct {
	layer string
	name  string
	text  string
}

// Definitions is the set of jq definitions and engine options every
// compiled program is built with.
type Definitions struct {
	defs    []definition
	layers  map[string]string
	opts    []gojq.CompilerOption
	natives []native.Func
}

// LoadStd installs the engine core and the standard definitions.
func LoadStd() (*Definitions, error) {
	d := &Definitions{
		layers: make(map[string]string),
		opts:   []gojq.CompilerOption{gojq.WithEnvironLoader(os.Environ)},
	}
	if err := d.add("std", splitDefinitions(stdSource)); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadHost adds every native in r. A native may not reuse the name of an
// already loaded definition.
func (d *Definitions) LoadHost(r *native.Registry) error {
	if err := d.add("host", r.Shims()); err != nil {
		return err
	}
	d.opts = append(d.opts, r.CompilerOptions()...)
	d.natives = append(d.natives, r.Funcs()...)
	return nil
}

// LoadLibrary adds the definitions of a jq library under layer. The
// library is split on blank lines; each block must hold one definition.
func (d *Definitions) LoadLibrary(layer, src string) error {
	return d.add(layer, splitDefinitions(src))
}

// Natives returns the natives loaded by LoadHost, sorted by name.
func (d *Definitions) Natives() []native.Func {
	return d.natives
}

// Names returns the name of every loaded definition in load order.
func (d *Definitions) Names() []string {
	names := make([]string, len(d.defs))
	for i, def := range d.defs {
		names[i] = def.name
	}
	return names
}

// add parses each source on its own and loads the ones that parse. Every
// failure is collected into one *LoadError; on failure nothing is added.
func (d *Definitions) add(layer string, sources []string) error {
	var (
		errs  []error
		added []definition
		seen  = make(map[string]bool)
	)
	for i, src := range sources {
		fd, err := parseDefinition(src)
		if err != nil {
			errs = append(errs, fmt.Errorf("definition %d (%s): %w", i+1, firstLine(src), err))
			continue
		}
		key := fmt.Sprintf("%s/%d", fd.Name, len(fd.Args))
		if prev, ok := d.layers[key]; ok {
			errs = append(errs, fmt.Errorf("%s/%d: already defined by %s", fd.Name, len(fd.Args), prev))
			continue
		}
		if seen[key] {
			errs = append(errs, fmt.Errorf("%s/%d: defined twice", fd.Name, len(fd.Args)))
			continue
		}
		seen[key] = true
		added = append(added, definition{layer: layer, name: fd.Name, text: src})
	}
	if len(errs) > 0 {
		return &LoadError{Layer: layer, Err: errors.Join(errs...)}
	}

	for _, def := range added {
		fd, _ := parseDefinition(def.text)
		d.layers[fmt.Sprintf("%s/%d", fd.Name, len(fd.Args))] = layer
	}
	d.defs = append(d.defs, added...)
	return nil
}

// parseDefinition parses src, which must hold exactly one definition.
func parseDefinition(src string) (*gojq.FuncDef, error) {
	q, err := gojq.Parse(src + "\n.")
	if err != nil {
		return nil, err
	}
	if len(q.FuncDefs) != 1 {
		return nil, fmt.Errorf("expected one definition, found %d", len(q.FuncDefs))
	}
	return q.FuncDefs[0], nil
}

// splitDefinitions splits a jq library on blank lines, dropping blocks
// that only hold comments.
func splitDefinitions(src string) []string {
	var out []string
	for _, block := range strings.Split(src, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || isComment(block) {
			continue
		}
		out = append(out, block)
	}
	return out
}

func isComment(block string) bool {
	for _, line := range strings.Split(block, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "#") {
			return false
		}
	}
	return true
}

func firstLine(src string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(src), "\n")
	return line
}
