package native

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/itchyny/gojq"
)

// Engine-level bindings behind each shim.
const (
	internalPrefix = "_native_"
	checkPrefix    = "_check_"
)

var validName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Impl computes the output of a native for one input value.
type Impl func(args Args, input any) (any, error)

// Func describes a native function exposed to filter expressions.
type Func struct {
	// Name is the public jq name, unique within a Registry.
	Name string

	// Arity is the number of argument sub-expressions the call site supplies.
	Arity int

	// Run computes the result. It is also what runs when the function is
	// used as the right-hand side of an update assignment.
	Run Impl

	// Effect marks functions that re-emit their input unchanged on success.
	Effect bool

	// Check, when set, validates the input before any argument
	// sub-expression runs. Run must still validate on its own; Check only
	// orders the error ahead of argument errors in expressions.
	Check func(input any) error

	// Doc is a one-line description.
	Doc string
}

// Passthrough adapts a side effect into an Impl that returns its input
// unchanged whenever the effect succeeds.
func Passthrough(effect func(args Args, input any) error) Impl {
	return func(args Args, input any) (any, error) {
		if err := effect(args, input); err != nil {
			return nil, err
		}
		return input, nil
	}
}

// call runs f lazily, stamping f's name on evaluation errors.
func (f Func) call(args Args, input any) gojq.Iter {
	return Lazy(func() (any, error) {
		v, err := f.Run(args, input)
		if err != nil {
			return nil, withFunc(err, f.Name)
		}
		return v, nil
	})
}

// check runs f.Check lazily and re-emits the input when it passes.
func (f Func) check(input any) gojq.Iter {
	return Lazy(func() (any, error) {
		if err := f.Check(input); err != nil {
			return nil, withFunc(err, f.Name)
		}
		return input, nil
	})
}

// Shim returns the jq definition that exposes f under its public name.
func (f Func) Shim() string {
	params := make([]string, f.Arity)
	captures := make([]string, f.Arity)
	for i := range f.Arity {
		params[i] = fmt.Sprintf("a%d", i)
		captures[i] = fmt.Sprintf("[limit(1; a%d)]", i)
	}

	head, call := f.Name, internalPrefix+f.Name
	if f.Arity > 0 {
		head += "(" + strings.Join(params, "; ") + ")"
		call += "(" + strings.Join(captures, "; ") + ")"
	}
	if f.Check != nil {
		call = checkPrefix + f.Name + " as $_ | " + call
	}
	if f.Effect {
		call += " as $_ | ."
	}
	return "def " + head + ": " + call + ";"
}

// Registry is the set of natives handed to the engine.
// Register every Func before the registry is used to compile expressions.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register adds f. Names must be identifiers and unique; arity must be
// non-negative and Run must be set.
func (r *Registry) Register(f Func) error {
	if !validName.MatchString(f.Name) {
		return fmt.Errorf("invalid native name %q", f.Name)
	}
	if f.Arity < 0 {
		return fmt.Errorf("native %s: negative arity %d", f.Name, f.Arity)
	}
	if f.Run == nil {
		return fmt.Errorf("native %s: missing implementation", f.Name)
	}
	if _, exists := r.funcs[f.Name]; exists {
		return fmt.Errorf("native %s already registered", f.Name)
	}
	r.funcs[f.Name] = f
	return nil
}

// MustRegister registers every f and panics on the first error.
func (r *Registry) MustRegister(fs ...Func) {
	for _, f := range fs {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the native registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	f, ok := r.funcs[name]
	return f, ok
}

// Funcs returns every native sorted by name.
func (r *Registry) Funcs() []Func {
	fs := make([]Func, 0, len(r.funcs))
	for _, f := range r.funcs {
		fs = append(fs, f)
	}
	slices.SortFunc(fs, func(a, b Func) int { return strings.Compare(a.Name, b.Name) })
	return fs
}

// Invoke calls a native directly, outside any expression.
func (r *Registry) Invoke(name string, args Args, input any) gojq.Iter {
	f, ok := r.funcs[name]
	if !ok {
		return Lazy(func() (any, error) { return nil, Errorf("unknown native %q", name) })
	}
	if len(args) != f.Arity {
		return Lazy(func() (any, error) {
			return nil, &EvalError{
				Code:    ErrCodeCustom,
				Func:    name,
				Message: fmt.Sprintf("expects %d arguments, got %d", f.Arity, len(args)),
			}
		})
	}
	return f.call(args, input)
}

// Shims returns the jq definitions of every native, sorted by name.
func (r *Registry) Shims() []string {
	fs := r.Funcs()
	shims := make([]string, len(fs))
	for i, f := range fs {
		shims[i] = f.Shim()
	}
	return shims
}

// CompilerOptions binds every native's internal names in the engine.
func (r *Registry) CompilerOptions() []gojq.CompilerOption {
	fs := r.Funcs()
	opts := make([]gojq.CompilerOption, 0, len(fs))
	for _, f := range fs {
		opts = append(opts, gojq.WithIterFunction(internalPrefix+f.Name, f.Arity, f.Arity,
			func(input any, raw []any) gojq.Iter {
				return f.call(captured(raw), input)
			}))
		if f.Check != nil {
			opts = append(opts, gojq.WithIterFunction(checkPrefix+f.Name, 0, 0,
				func(input any, _ []any) gojq.Iter {
					return f.check(input)
				}))
		}
	}
	return opts
}

// captured turns the [limit(1; a)] arrays built by a shim into Args.
func captured(raw []any) Args {
	args := make(Args, len(raw))
	for i, v := range raw {
		if list, ok := v.([]any); ok {
			args[i] = Values(list...)
		} else {
			args[i] = Values(v)
		}
	}
	return args
}
