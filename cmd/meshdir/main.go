// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// Command meshdir is the operator CLI for a meshdir-directory daemon.
package main

import (
	"fmt"
	"os"

	"github.com/meshdir-foundation/meshdir/cmd/meshdir/commands"
)

func main() {
	if err := commands.Root().Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
