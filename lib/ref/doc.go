// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated identifier types for the directory.
//
//   - [AgentID] — the signer identity attached to every command by the
//     authentication layer upstream of the engine. Opaque and stable
//     for the agent's lifetime; Meshdir assigns no meaning to its
//     contents beyond basic well-formedness.
//   - [MatchID] — identifies a match request. Derived deterministically
//     from the requester and the creation timestamp so that every
//     replica computes the same id without coordination.
//   - [ChannelID] — identifies a coordination channel. Either chosen by
//     agents (joinChannel) or derived from a match id on acceptance.
//
// Derived identifiers use BLAKE3 truncated to 128 bits, hex-encoded.
// Collisions across distinct (requester, timestamp) pairs are not a
// practical concern at that width, and the fixed-width hex form keeps
// view keys uniform.
//
// This package depends on no other Meshdir packages.
package ref
