package kv

import (
	"hash/maphash"
	"slices"
	"sync"

	"github.com/roach88/watchfilter/internal/value"
)

const numShards = 64

type shard struct {
	mu      sync.RWMutex
	entries map[string]value.Mirror
}

// ShardedMap is the in-memory Backend. It spreads keys across 64 shards
// with maphash so that concurrent evaluations touching different keys
// rarely contend on the same lock.
type ShardedMap struct {
	shards [numShards]*shard
	seed   maphash.Seed
}

// NewShardedMap creates an empty ShardedMap.
func NewShardedMap() *ShardedMap {
	s := &ShardedMap{seed: maphash.MakeSeed()}
	for i := range numShards {
		s.shards[i] = &shard{entries: make(map[string]value.Mirror)}
	}
	return s
}

func (s *ShardedMap) shard(key string) *shard {
	return s.shards[maphash.String(s.seed, key)%numShards]
}

// Get returns the mirror stored under key.
func (s *ShardedMap) Get(key string) (value.Mirror, bool) {
	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	m, ok := sh.entries[key]
	return m, ok
}

// Put stores m under key.
func (s *ShardedMap) Put(key string, m value.Mirror) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.entries[key] = m
}

// Clear empties every shard. Shards are cleared one at a time.
func (s *ShardedMap) Clear() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		clear(sh.entries)
		sh.mu.Unlock()
	}
}

// Len returns the total number of entries across shards.
func (s *ShardedMap) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Keys returns all keys in sorted order.
func (s *ShardedMap) Keys() []string {
	var keys []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k := range sh.entries {
			keys = append(keys, k)
		}
		sh.mu.RUnlock()
	}
	slices.Sort(keys)
	return keys
}
