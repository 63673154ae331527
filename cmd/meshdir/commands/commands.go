// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the meshdir CLI command tree. Every command
// talks to a running meshdir-directory daemon over its Unix socket,
// except "log", which reads command log files directly.
package commands

import (
	"fmt"

	"github.com/meshdir-foundation/meshdir/cmd/meshdir/cli"
	"github.com/meshdir-foundation/meshdir/lib/version"
)

// Root builds and returns the complete meshdir CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "meshdir",
		Description: `Meshdir: decentralized agent directory.

Inspect and drive a meshdir-directory daemon: browse registered
agents, run discovery queries, follow match lifecycles, and submit
command scripts.`,
		Subcommands: []*cli.Command{
			agentsCommand(),
			agentCommand(),
			discoverCommand(),
			matchesCommand(),
			proposalsCommand(),
			channelCommand(),
			reputationCommand(),
			statsCommand(),
			submitCommand(),
			logCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func([]string) error {
					fmt.Printf("meshdir %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "List every online agent",
				Command:     "meshdir agents --status online",
			},
			{
				Description: "Find translators with proficiency 0.8 or better",
				Command:     "meshdir discover --capability translation --min-proficiency 0.8",
			},
			{
				Description: "Follow a match request's proposals",
				Command:     "meshdir proposals mr-4f9a0c2b71d3e685",
			},
			{
				Description: "Submit a command script to the daemon",
				Command:     "meshdir submit fixtures/demo.jsonc",
			},
		},
	}
}
