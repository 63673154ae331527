// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/meshdir-foundation/meshdir/cmd/meshdir/cli"
	"github.com/meshdir-foundation/meshdir/directory"
)

func reputationCommand() *cli.Command {
	var (
		socketPath string
		asJSON     bool
	)
	return &cli.Command{
		Name:    "reputation",
		Summary: "Show an agent's rating history",
		Usage:   "meshdir reputation <agent-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("reputation", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "daemon socket path")
			flags.BoolVar(&asJSON, "json", false, "output as JSON")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("reputation requires exactly one agent id")
			}
			var reputation directory.Reputation
			if err := callDaemon(socketPath, "reputation", map[string]any{"agent_id": args[0]}, &reputation); err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(reputation)
			}
			printReputation(reputation)
			return nil
		},
	}
}

func printReputation(reputation directory.Reputation) {
	fmt.Printf("Agent:   %s\n", reputation.AgentID)
	fmt.Printf("Ratings: %d\n", reputation.TotalRatings)
	fmt.Printf("Average: %.3f\n", reputation.AverageRating)
	if len(reputation.Ratings) == 0 {
		return
	}
	fmt.Println()
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "FROM\tRATING\tMATCH\tWHEN")
	for _, rating := range reputation.Ratings {
		fmt.Fprintf(tw, "%s\t%.1f\t%s\t%s\n",
			rating.From, rating.Rating, rating.MatchID, formatMillis(rating.Timestamp))
	}
	tw.Flush()
}
