// Package kv provides the process-wide key-value store shared by filter
// evaluations.
//
// Values are converted to value.Mirror on the way in and back to fresh
// evaluation values on the way out, so no evaluation ever observes another
// evaluation's maps or slices.
//
// # Guarantees
//
//   - Store, Fetch and Clear never fail; a missing key fetches as nil (null)
//   - concurrent calls from any number of goroutines never corrupt the store
//   - a Store to key K is visible to every Fetch of K that starts after it
//     returns
//   - there is no cross-key atomicity: a Clear racing a Store may leave the
//     stored entry or not
//   - entries live until cleared or the process exits; no TTL, no eviction
//
// # Backends
//
//   - memory: ShardedMap, 64 independently locked shards (the default)
//   - sqlite: an in-memory SQLite database holding CBOR-encoded mirrors,
//     useful for inspecting the store with SQL while debugging
//
// Shared returns the lazily created process-wide instance.
package kv
