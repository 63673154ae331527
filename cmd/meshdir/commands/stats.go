// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/meshdir-foundation/meshdir/cmd/meshdir/cli"
	"github.com/meshdir-foundation/meshdir/directory"
)

func statsCommand() *cli.Command {
	var (
		socketPath string
		asJSON     bool
	)
	return &cli.Command{
		Name:    "stats",
		Summary: "Show directory-wide counters",
		Usage:   "meshdir stats [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("stats", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "daemon socket path")
			flags.BoolVar(&asJSON, "json", false, "output as JSON")
			return flags
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("stats takes no positional arguments")
			}
			var stats directory.Stats
			if err := callDaemon(socketPath, "stats", nil, &stats); err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(stats)
			}
			fmt.Printf("Agents:            %d\n", stats.Agents)
			fmt.Printf("Channels:          %d\n", stats.Channels)
			fmt.Printf("Messages:          %d\n", stats.Messages)
			fmt.Printf("Match requests:    %d\n", stats.MatchRequests)
			fmt.Printf("Matches accepted:  %d\n", stats.MatchesAccepted)
			fmt.Printf("Matches completed: %d\n", stats.MatchesCompleted)
			if stats.LastHeartbeat != 0 {
				fmt.Printf("Last heartbeat:    %s\n", formatMillis(stats.LastHeartbeat))
			}
			return nil
		},
	}
}
