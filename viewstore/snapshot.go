// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package viewstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/meshdir-foundation/meshdir/directory"
	"github.com/meshdir-foundation/meshdir/lib/codec"
)

// snapshotVersion is the snapshot format version. Bumped only on
// incompatible layout changes.
const snapshotVersion = 1

// snapshotCommitBatch bounds how many entries an import stages per
// commit, keeping memory flat on large views.
const snapshotCommitBatch = 1024

// snapshotHeader opens every snapshot stream.
type snapshotHeader struct {
	Version uint32 `json:"version"`

	// Entries is the exact entry count that follows.
	Entries uint64 `json:"entries"`

	// Digest is the BLAKE3 view digest at export time. Import
	// recomputes and verifies it.
	Digest []byte `json:"digest"`
}

// snapshotEntry is one key/value pair.
type snapshotEntry struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// errStopScan halts the emptiness probe after the first entry.
var errStopScan = errors.New("stop scan")

// WriteSnapshot exports the full view as a zstd-compressed stream of
// deterministic CBOR: a header, then every entry in scan order. The
// output is byte-reproducible for a given view, so snapshots
// themselves can be compared across replicas.
func WriteSnapshot(view directory.View, w io.Writer) error {
	digest, err := Digest(view)
	if err != nil {
		return fmt.Errorf("viewstore: digesting view: %w", err)
	}
	var entries uint64
	if err := view.Scan("", func(string, []byte) error { entries++; return nil }); err != nil {
		return fmt.Errorf("viewstore: counting entries: %w", err)
	}

	compressor, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("viewstore: zstd writer: %w", err)
	}
	encoder := codec.NewEncoder(compressor)

	header := snapshotHeader{Version: snapshotVersion, Entries: entries, Digest: digest[:]}
	if err := encoder.Encode(&header); err != nil {
		return fmt.Errorf("viewstore: writing header: %w", err)
	}
	err = view.Scan("", func(key string, value []byte) error {
		return encoder.Encode(&snapshotEntry{Key: key, Value: value})
	})
	if err != nil {
		return fmt.Errorf("viewstore: writing entries: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return fmt.Errorf("viewstore: flushing snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot imports a snapshot into an empty view and verifies the
// embedded digest. The target must be empty: import does not merge.
func ReadSnapshot(view directory.View, r io.Reader) error {
	var notEmpty bool
	err := view.Scan("", func(string, []byte) error {
		notEmpty = true
		return errStopScan
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return fmt.Errorf("viewstore: checking target view: %w", err)
	}
	if notEmpty {
		return errors.New("viewstore: snapshot target view is not empty")
	}

	decompressor, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("viewstore: zstd reader: %w", err)
	}
	defer decompressor.Close()
	decoder := codec.NewDecoder(decompressor)

	var header snapshotHeader
	if err := decoder.Decode(&header); err != nil {
		return fmt.Errorf("viewstore: reading header: %w", err)
	}
	if header.Version != snapshotVersion {
		return fmt.Errorf("viewstore: snapshot version %d, want %d", header.Version, snapshotVersion)
	}

	var delta directory.Delta
	for i := uint64(0); i < header.Entries; i++ {
		var entry snapshotEntry
		if err := decoder.Decode(&entry); err != nil {
			return fmt.Errorf("viewstore: reading entry %d of %d: %w", i, header.Entries, err)
		}
		delta.Puts = append(delta.Puts, directory.KeyValue{Key: entry.Key, Value: entry.Value})
		if len(delta.Puts) == snapshotCommitBatch {
			if err := view.Commit(delta); err != nil {
				return fmt.Errorf("viewstore: committing batch: %w", err)
			}
			delta = directory.Delta{}
		}
	}
	if len(delta.Puts) > 0 {
		if err := view.Commit(delta); err != nil {
			return fmt.Errorf("viewstore: committing final batch: %w", err)
		}
	}

	digest, err := Digest(view)
	if err != nil {
		return fmt.Errorf("viewstore: digesting imported view: %w", err)
	}
	if !bytes.Equal(digest[:], header.Digest) {
		return fmt.Errorf("viewstore: snapshot digest mismatch: got %x, header says %x", digest, header.Digest)
	}
	return nil
}
