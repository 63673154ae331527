// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// The meshdir-check tool verifies that a command log replays
// deterministically: it rebuilds the directory view twice from the
// same log, compares the content digests, and runs the capability
// index consistency check. It can also verify that a snapshot file
// matches the state the log produces.
//
// Exit codes: 0 when everything converges, 1 on divergence or a
// consistency violation, 2 on an operational error.
package main
