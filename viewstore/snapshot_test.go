// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package viewstore

import (
	"bytes"
	"strings"
	"testing"

	"github.com/meshdir-foundation/meshdir/directory"
)

func populatedView(t *testing.T) *directory.MemoryView {
	t.Helper()
	view := directory.NewMemoryView()
	delta := directory.Delta{
		Puts: []directory.KeyValue{
			{Key: "agent/alice", Value: []byte{0xa1, 0x01, 0x02}},
			{Key: "agent/bob", Value: []byte{0xa1, 0x01, 0x03}},
			{Key: "cap/translation", Value: []byte{0x82, 0x01, 0x02}},
			{Key: "stats", Value: []byte{0xa0}},
		},
	}
	if err := view.Commit(delta); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return view
}

func TestSnapshotRoundTrip(t *testing.T) {
	source := populatedView(t)

	var buf bytes.Buffer
	if err := WriteSnapshot(source, &buf); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	restored := directory.NewMemoryView()
	if err := ReadSnapshot(restored, &buf); err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}

	sourceDigest, err := DigestHex(source)
	if err != nil {
		t.Fatalf("DigestHex(source): %v", err)
	}
	restoredDigest, err := DigestHex(restored)
	if err != nil {
		t.Fatalf("DigestHex(restored): %v", err)
	}
	if sourceDigest != restoredDigest {
		t.Errorf("digest mismatch after round-trip:\n  source:   %s\n  restored: %s", sourceDigest, restoredDigest)
	}
}

func TestSnapshotIsReproducible(t *testing.T) {
	view := populatedView(t)

	var first, second bytes.Buffer
	if err := WriteSnapshot(view, &first); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if err := WriteSnapshot(view, &second); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("two exports of the same view differ")
	}
}

func TestReadSnapshotRejectsNonEmptyTarget(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSnapshot(populatedView(t), &buf); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	err := ReadSnapshot(populatedView(t), &buf)
	if err == nil || !strings.Contains(err.Error(), "not empty") {
		t.Fatalf("ReadSnapshot into populated view = %v, want not-empty error", err)
	}
}

func TestReadSnapshotRejectsTruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSnapshot(populatedView(t), &buf); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	truncated := buf.Bytes()[:buf.Len()/2]
	if err := ReadSnapshot(directory.NewMemoryView(), bytes.NewReader(truncated)); err == nil {
		t.Fatal("ReadSnapshot accepted a truncated stream")
	}
}

func TestDigestTracksContent(t *testing.T) {
	first := populatedView(t)
	second := populatedView(t)

	firstDigest, err := Digest(first)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	secondDigest, err := Digest(second)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if firstDigest != secondDigest {
		t.Error("identical views produced different digests")
	}

	err = second.Commit(directory.Delta{
		Puts: []directory.KeyValue{{Key: "agent/carol", Value: []byte{0xa0}}},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	changed, err := Digest(second)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if changed == firstDigest {
		t.Error("digest unchanged after a write")
	}
}
