// Package value provides the shareable mirror of filter evaluation values.
//
// Values produced while a jq expression runs are plain Go values (maps,
// slices, numbers, strings) owned by a single evaluation. They are mutable
// references, so they must not be handed to another goroutine or kept past
// the evaluation that produced them. Mirror is the immutable snapshot used
// for everything that crosses that boundary, most notably the shared
// key-value store.
//
// The evaluation value domain is the one gojq uses:
//
//	nil, bool, int, float64, *big.Int, json.Number, string, []any, map[string]any
//
// Canonical values use int whenever an integer fits and *big.Int only when it
// does not; json.Number is reserved for non-integral decimal text that must be
// kept verbatim.
//
// Key invariants:
//   - FromValue and ToValue are total: they never fail and never mutate input
//   - FromValue(ToValue(m)).Equal(m) for every Mirror
//   - ToValue(FromValue(v)) deep-equals v for every canonical value
//   - decimal text is carried byte-for-byte, never parsed for storage
//
// This package imports nothing internal.
package value
