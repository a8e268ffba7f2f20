// Package filter assembles the watchfilter expression language on top of
// gojq and evaluates compiled programs.
//
// Definitions are built in layers: LoadStd installs the engine core and
// the embedded std.jq path helpers, then LoadHost adds the natives of a
// registry. Compile parses a user expression on its own, so parse error
// offsets point into the user's text, and compiles it together with every
// loaded definition.
//
// A Program is immutable and may be run from many goroutines at once.
// Runner evaluates a batch of inputs concurrently.
package filter
