// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// The meshdir-directory daemon hosts the agent directory engine. It
// owns the view store and the append-only command log, and serves a
// CBOR action protocol on a Unix socket: one "command" action that
// appends and applies state-transition commands, and a read surface
// for agents, discovery, matches, channels, reputation, and stats.
//
// On startup the daemon rebuilds an empty view by replaying the
// command log; a persistent SQLite view that survived the restart is
// trusted as-is. An optional JSONC seed script primes a brand-new
// deployment.
package main
