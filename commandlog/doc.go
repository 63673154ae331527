// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// Package commandlog stores the ordered command stream a directory
// replica applies. The replicated log proper (ordering, consensus)
// lives outside this system; commandlog is the local, append-only
// record of what was delivered, good for replay on restart, for the
// determinism checker, and for seeding test fixtures.
//
// Records are command envelopes in deterministic CBOR, individually
// LZ4-compressed inside a length-prefixed frame. Framing is
// self-describing enough to detect truncation: a partial trailing
// frame reads as an error, never as a silently short log.
package commandlog
