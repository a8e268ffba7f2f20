package native

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes evaluation errors raised by natives.
type ErrorCode string

const (
	// ErrCodeMissingValue indicates an argument produced no value.
	ErrCodeMissingValue ErrorCode = "MISSING_VALUE"

	// ErrCodeArgumentType indicates an argument or input had the wrong type.
	ErrCodeArgumentType ErrorCode = "ARGUMENT_TYPE"

	// ErrCodeInvalidLevel indicates an unknown log level name.
	ErrCodeInvalidLevel ErrorCode = "INVALID_LEVEL"

	// ErrCodeCustom is used for any other message raised by a native.
	ErrCodeCustom ErrorCode = "CUSTOM"
)

// EvalError aborts the evaluation of the expression that called a native.
type EvalError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Func is the public name of the native that failed, if known.
	Func string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Func != "" {
		return fmt.Sprintf("%s: %s", e.Func, e.Message)
	}
	return e.Message
}

// Errorf creates a custom EvalError.
func Errorf(format string, args ...any) *EvalError {
	return &EvalError{Code: ErrCodeCustom, Message: fmt.Sprintf(format, args...)}
}

// IsArgumentError reports whether err is a missing-value or type error.
// Uses errors.As to handle wrapped errors.
func IsArgumentError(err error) bool {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeMissingValue || ee.Code == ErrCodeArgumentType
	}
	return false
}

// HasCode reports whether err is an EvalError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var ee *EvalError
	return errors.As(err, &ee) && ee.Code == code
}

// withFunc stamps the function name on an EvalError that lacks one.
func withFunc(err error, name string) error {
	var ee *EvalError
	if errors.As(err, &ee) && ee.Func == "" {
		stamped := *ee
		stamped.Func = name
		return &stamped
	}
	return err
}
