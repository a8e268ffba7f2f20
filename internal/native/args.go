package native

import (
	"github.com/itchyny/gojq"

	"github.com/roach88/watchfilter/internal/value"
)

// Arg is one call-site argument: a stream of values of which only the
// first is ever pulled.
type Arg struct {
	iter gojq.Iter
}

// ArgOf wraps an engine iterator as an argument.
func ArgOf(iter gojq.Iter) Arg {
	return Arg{iter: iter}
}

// Values returns an argument producing vs in order. An element that is an
// error is produced as an error.
func Values(vs ...any) Arg {
	return Arg{iter: &sliceIter{values: vs}}
}

// first pulls the head of the stream.
func (a Arg) first() (any, bool) {
	if a.iter == nil {
		return nil, false
	}
	return a.iter.Next()
}

// Args holds the arguments of one call, in call-site order.
type Args []Arg

// Tag describes an expected runtime type for Expect.
type Tag[T any] struct {
	Name  string
	Match func(v any) (T, bool)
}

// StringTag matches string values.
var StringTag = Tag[string]{
	Name: "string",
	Match: func(v any) (string, bool) {
		s, ok := v.(string)
		return s, ok
	},
}

// IntTag matches int values.
var IntTag = Tag[int]{
	Name: "int",
	Match: func(v any) (int, bool) {
		i, ok := v.(int)
		return i, ok
	},
}

// Expect takes the first value of argument n and coerces it with tag.
//
// Outcomes:
//   - no value: EvalError MISSING_VALUE "value expected but none found"
//   - the argument raised an error: that error, unchanged
//   - wrong type: EvalError ARGUMENT_TYPE "expected <tag> but got <value>"
func Expect[T any](args Args, n int, tag Tag[T]) (T, error) {
	var zero T
	if n < 0 || n >= len(args) {
		return zero, &EvalError{Code: ErrCodeMissingValue, Message: "value expected but none found"}
	}

	v, ok := args[n].first()
	if !ok {
		return zero, &EvalError{Code: ErrCodeMissingValue, Message: "value expected but none found"}
	}
	if err, isErr := v.(error); isErr {
		return zero, err
	}

	t, ok := tag.Match(v)
	if !ok {
		return zero, &EvalError{
			Code:    ErrCodeArgumentType,
			Message: "expected " + tag.Name + " but got " + value.Text(v),
		}
	}
	return t, nil
}

// String returns argument n as a string.
func (a Args) String(n int) (string, error) {
	return Expect(a, n, StringTag)
}

// Int returns argument n as an int.
func (a Args) Int(n int) (int, error) {
	return Expect(a, n, IntTag)
}

// Subject checks that the input of a native is a string. what names the
// expected role in the error, for example "string (path)".
func Subject(input any, what string) (string, error) {
	s, ok := input.(string)
	if !ok {
		return "", &EvalError{
			Code:    ErrCodeArgumentType,
			Message: "expected " + what + " but got " + value.Text(input),
		}
	}
	return s, nil
}

type sliceIter struct {
	values []any
}

func (it *sliceIter) Next() (any, bool) {
	if len(it.values) == 0 {
		return nil, false
	}
	v := it.values[0]
	it.values = it.values[1:]
	return v, true
}
