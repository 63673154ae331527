// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"sort"
	"strings"
)

// View is the engine's window onto materialized state: an ordered
// mapping from string key to deterministic-CBOR value bytes. The
// engine is storage-agnostic — anything that can get, scan in key
// order, and atomically commit a delta can back a directory (see
// viewstore for the SQLite implementation).
type View interface {
	// Get returns the value bytes for key, and whether the key
	// exists.
	Get(key string) ([]byte, bool, error)

	// Scan calls fn for every key with the given prefix, in
	// ascending lexicographic key order. Returning an error from fn
	// stops the scan and propagates the error. Scan order is part of
	// the determinism contract: replicas iterate identically.
	Scan(prefix string, fn func(key string, value []byte) error) error

	// Commit applies a delta atomically: either every put and delete
	// lands, or none do. The engine calls Commit exactly once per
	// successful transition, after the full delta is computed.
	Commit(delta Delta) error
}

// Delta is the complete set of writes produced by one transition.
// Puts are ordered by key; a key appears at most once across Puts and
// Deletes.
type Delta struct {
	Puts    []KeyValue
	Deletes []string
}

// KeyValue is one staged write.
type KeyValue struct {
	Key   string
	Value []byte
}

// MemoryView is the reference View: a plain in-memory map with sorted
// scans. It backs tests, the replay checker, and hosts that replay
// the full log on startup instead of persisting the view.
//
// MemoryView is not safe for concurrent use; the engine's
// single-threaded contract makes that a host responsibility.
type MemoryView struct {
	entries map[string][]byte
}

// NewMemoryView returns an empty in-memory view.
func NewMemoryView() *MemoryView {
	return &MemoryView{entries: make(map[string][]byte)}
}

// Get implements View.
func (v *MemoryView) Get(key string) ([]byte, bool, error) {
	value, ok := v.entries[key]
	return value, ok, nil
}

// Scan implements View. Keys are sorted per call; the map is the
// source of truth and scans are rare relative to gets.
func (v *MemoryView) Scan(prefix string, fn func(key string, value []byte) error) error {
	keys := make([]string, 0, len(v.entries))
	for key := range v.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := fn(key, v.entries[key]); err != nil {
			return err
		}
	}
	return nil
}

// Commit implements View.
func (v *MemoryView) Commit(delta Delta) error {
	for _, put := range delta.Puts {
		v.entries[put.Key] = put.Value
	}
	for _, key := range delta.Deletes {
		delete(v.entries, key)
	}
	return nil
}

// Len returns the number of keys in the view.
func (v *MemoryView) Len() int { return len(v.entries) }

// Clone returns an independent deep copy. Used by hosts to serve
// reads from a consistent snapshot while the next command applies.
func (v *MemoryView) Clone() *MemoryView {
	clone := &MemoryView{entries: make(map[string][]byte, len(v.entries))}
	for key, value := range v.entries {
		copied := make([]byte, len(value))
		copy(copied, value)
		clone.entries[key] = copied
	}
	return clone
}
