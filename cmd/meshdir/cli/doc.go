// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-tree framework for the meshdir
// CLI: nested subcommand dispatch, pflag flag parsing, structured
// help output, and typo suggestions for unknown commands.
package cli
