// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package viewstore

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/meshdir-foundation/meshdir/directory"
)

// Digest hashes the full view contents: every key and value in scan
// order, length-prefixed so adjacent entries cannot alias. Because
// view values are deterministic CBOR and scan order is part of the
// View contract, two replicas have converged exactly when their
// digests are equal.
func Digest(view directory.View) ([32]byte, error) {
	hasher := blake3.New()
	var lengthBuf [binary.MaxVarintLen64]byte

	writeChunk := func(data []byte) {
		n := binary.PutUvarint(lengthBuf[:], uint64(len(data)))
		hasher.Write(lengthBuf[:n])
		hasher.Write(data)
	}

	err := view.Scan("", func(key string, value []byte) error {
		writeChunk([]byte(key))
		writeChunk(value)
		return nil
	})
	if err != nil {
		return [32]byte{}, err
	}

	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// DigestHex returns the view digest as a lowercase hex string, the
// form used in logs and checker output.
func DigestHex(view directory.View) (string, error) {
	digest, err := Digest(view)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(digest[:]), nil
}
