package filter

import "fmt"

// LoadError reports every definition of one layer that failed to load.
// Err is an errors.Join of the individual failures.
type LoadError struct {
	// Layer is "std" or "host".
	Layer string

	Err error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s definitions: %v", e.Layer, e.Err)
}

// Unwrap returns the joined failures.
func (e *LoadError) Unwrap() error {
	return e.Err
}
