// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// Package directory implements the deterministic state-transition
// engine at the heart of Meshdir: the reducer that turns an ordered
// stream of authenticated commands into a materialized directory of
// agents, capabilities, matches, channels, and reputation.
//
// # Determinism contract
//
// [Engine.Apply] is a pure function of (view, command, context). It
// never reads the wall clock, never draws randomness, and never
// performs I/O beyond the [View] it is given. Two replicas that apply
// the same command sequence to empty views end with byte-identical
// views — every value is encoded with lib/codec's deterministic CBOR,
// and every iteration the engine performs (prefix scans, candidate
// seeding, proposal rejection sweeps) happens in a defined order.
//
// # Atomicity
//
// A transition either commits its complete delta or writes nothing.
// Apply stages all writes in memory; only after the transition
// returns successfully is the staged delta handed to [View.Commit].
// Domain precondition failures ([ErrDuplicateName],
// [ErrRequestExpired], ...) therefore never leave a partial write
// behind, and no rollback path is needed.
//
// # Concurrency
//
// The engine is single-threaded by contract: the host's replicated
// log delivers one command at a time and must not present the next
// until Apply returns. Read paths ([Discover], the Get*/List*
// functions) take the View directly and must run strictly between
// transitions; the host guarantees that isolation.
//
// The read path never mutates the view. Discovery, listing, and
// stats are plain functions over a View rather than Engine methods
// to make that structurally evident.
package directory
