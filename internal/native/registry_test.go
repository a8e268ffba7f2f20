package native

import (
	"strings"
	"testing"

	"github.com/itchyny/gojq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoFunc() Func {
	return Func{
		Name:  "echo_arg",
		Arity: 1,
		Run: func(args Args, _ any) (any, error) {
			return args.String(0)
		},
	}
}

func touchFunc(count *int) Func {
	return Func{
		Name:   "touch",
		Effect: true,
		Run: Passthrough(func(Args, any) error {
			*count++
			return nil
		}),
	}
}

// run compiles query together with the registry's shims and collects
// every output, stopping at the first error.
func run(t *testing.T, r *Registry, query string, input any) ([]any, error) {
	t.Helper()

	q, err := gojq.Parse(strings.Join(r.Shims(), " ") + " " + query)
	require.NoError(t, err)
	code, err := gojq.Compile(q, r.CompilerOptions()...)
	require.NoError(t, err)

	var out []any
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return out, nil
		}
		if err, isErr := v.(error); isErr {
			return out, err
		}
		out = append(out, v)
	}
}

func TestRegisterValidation(t *testing.T) {
	noop := func(Args, any) (any, error) { return nil, nil }

	tests := []struct {
		name string
		f    Func
		want string
	}{
		{"empty name", Func{Run: noop}, "invalid native name"},
		{"bad name", Func{Name: "has-dash", Run: noop}, "invalid native name"},
		{"negative arity", Func{Name: "f", Arity: -1, Run: noop}, "negative arity"},
		{"no impl", Func{Name: "f"}, "missing implementation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.f)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoFunc()))

	err := r.Register(echoFunc())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
	assert.Panics(t, func() { r.MustRegister(echoFunc()) })
}

func TestFuncsSortedByName(t *testing.T) {
	var n int
	r := NewRegistry()
	r.MustRegister(touchFunc(&n), echoFunc())

	fs := r.Funcs()

	require.Len(t, fs, 2)
	assert.Equal(t, "echo_arg", fs[0].Name)
	assert.Equal(t, "touch", fs[1].Name)
}

func TestShim(t *testing.T) {
	var n int
	assert.Equal(t, "def echo_arg(a0): _native_echo_arg([limit(1; a0)]);", echoFunc().Shim())
	assert.Equal(t, "def touch: _native_touch as $_ | .;", touchFunc(&n).Shim())

	two := Func{Name: "pair", Arity: 2, Run: func(Args, any) (any, error) { return nil, nil }}
	assert.Equal(t, "def pair(a0; a1): _native_pair([limit(1; a0)]; [limit(1; a1)]);", two.Shim())
}

func pathFunc() Func {
	subject := func(input any) error {
		_, err := Subject(input, "string (path)")
		return err
	}
	return Func{
		Name:  "read_n",
		Arity: 1,
		Check: subject,
		Run: func(args Args, input any) (any, error) {
			if err := subject(input); err != nil {
				return nil, err
			}
			return args.Int(0)
		},
	}
}

func TestShimWithCheck(t *testing.T) {
	assert.Equal(t, "def read_n(a0): _check_read_n as $_ | _native_read_n([limit(1; a0)]);", pathFunc().Shim())
}

func TestCheckRunsBeforeArguments(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(pathFunc()))

	_, err := run(t, r, `read_n(error("boom"))`, 3)
	assert.EqualError(t, err, "read_n: expected string (path) but got 3")
	assert.True(t, IsArgumentError(err))

	_, err = run(t, r, `read_n(error("boom"))`, "/tmp/x")
	assert.EqualError(t, err, "error: boom")

	out, err := run(t, r, `read_n(.[1:] | length)`, "/tmp/x")
	require.NoError(t, err)
	assert.Equal(t, []any{5}, out)
}

func TestInvoke(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoFunc())

	v, ok := r.Invoke("echo_arg", Args{Values("hi")}, nil).Next()
	require.True(t, ok)
	assert.Equal(t, "hi", v)

	v, _ = r.Invoke("echo_arg", Args{Values(1)}, nil).Next()
	assert.EqualError(t, v.(error), "echo_arg: expected string but got 1")

	v, _ = r.Invoke("echo_arg", nil, nil).Next()
	assert.EqualError(t, v.(error), "echo_arg: expects 1 arguments, got 0")

	v, _ = r.Invoke("nope", nil, nil).Next()
	assert.EqualError(t, v.(error), `unknown native "nope"`)
}

func TestEngineArgumentProtocol(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoFunc())

	t.Run("argument sees current input", func(t *testing.T) {
		out, err := run(t, r, `echo_arg(.name)`, map[string]any{"name": "x"})
		require.NoError(t, err)
		assert.Equal(t, []any{"x"}, out)
	})

	t.Run("only first value is used", func(t *testing.T) {
		out, err := run(t, r, `echo_arg("a", "b")`, nil)
		require.NoError(t, err)
		assert.Equal(t, []any{"a"}, out)
	})

	t.Run("later values are never evaluated", func(t *testing.T) {
		out, err := run(t, r, `echo_arg("a", error("never"))`, nil)
		require.NoError(t, err)
		assert.Equal(t, []any{"a"}, out)
	})

	t.Run("empty argument", func(t *testing.T) {
		_, err := run(t, r, `echo_arg(empty)`, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "value expected but none found")
	})

	t.Run("argument error propagates", func(t *testing.T) {
		_, err := run(t, r, `echo_arg(error("boom"))`, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := run(t, r, `echo_arg(1)`, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected string but got 1")
	})

	t.Run("single output per call", func(t *testing.T) {
		out, err := run(t, r, `[.[] | echo_arg(.)]`, []any{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, []any{[]any{"a", "b"}}, out)
	})
}

func TestEffectPassesInputThrough(t *testing.T) {
	var n int
	r := NewRegistry()
	r.MustRegister(touchFunc(&n))

	out, err := run(t, r, `touch | .a`, map[string]any{"a": 1})

	require.NoError(t, err)
	assert.Equal(t, []any{1}, out)
	assert.Equal(t, 1, n)
}

func TestEffectIsPathTransparent(t *testing.T) {
	var n int
	r := NewRegistry()
	r.MustRegister(touchFunc(&n))

	out, err := run(t, r, `path(touch)`, map[string]any{"a": 1})

	require.NoError(t, err)
	assert.Equal(t, []any{[]any{}}, out)
}

func TestEffectInUpdateAssignment(t *testing.T) {
	var n int
	r := NewRegistry()
	r.MustRegister(touchFunc(&n))

	out, err := run(t, r, `.a |= touch`, map[string]any{"a": 1})

	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"a": 1}}, out)
	assert.Equal(t, 1, n)
}
