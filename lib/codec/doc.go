// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Meshdir's standard CBOR encoding configuration.
//
// Meshdir uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: CLI output and operator-authored
//     seed scripts (JSONC).
//   - CBOR for everything the engine touches: directory view values,
//     command log records, snapshots, and the daemon socket protocol.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every Meshdir package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes — this is load-bearing: two replicas that applied the same
// command sequence must produce byte-identical views, and convergence
// is verified by hashing raw view bytes.
//
// For buffer-oriented operations (view values, log records):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets, snapshots):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Struct tag rule: directory entities and socket protocol types use
// `json` tags only. fxamacker/cbor v2 reads `json` tags as fallback
// when `cbor` tags are absent, so a single tag controls field naming
// and omitempty for both formats, and the same types serve CLI JSON
// output and the CBOR wire.
package codec
