// Package hostlib implements the host functions available to watchfilter
// expressions: logging and printing, the shared key-value store, and
// filesystem introspection.
//
// Functions fall in two groups. Effects (log, printout, printerr,
// kv_clear, kv_store) emit their input unchanged on success. The others
// compute a new value from their input.
//
// Filesystem functions never fail on environmental problems: a missing or
// unreadable file is logged at error with path and error attributes, and
// the function yields null. Argument and subject type errors abort the
// expression with a *native.EvalError.
package hostlib
