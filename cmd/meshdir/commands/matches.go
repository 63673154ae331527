// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/meshdir-foundation/meshdir/cmd/meshdir/cli"
	"github.com/meshdir-foundation/meshdir/directory"
)

func matchesCommand() *cli.Command {
	var (
		socketPath string
		status     string
		requester  string
		limit      int
		asJSON     bool
	)
	return &cli.Command{
		Name:    "matches",
		Summary: "List match requests",
		Usage:   "meshdir matches [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("matches", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "daemon socket path")
			flags.StringVar(&status, "status", "", "filter by status (pending, accepted, completed)")
			flags.StringVar(&requester, "requester", "", "filter by requesting agent id")
			flags.IntVar(&limit, "limit", 0, "maximum number of requests")
			flags.BoolVar(&asJSON, "json", false, "output as JSON")
			return flags
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("matches takes no positional arguments")
			}
			fields := map[string]any{}
			if status != "" {
				fields["status"] = status
			}
			if requester != "" {
				fields["requester"] = requester
			}
			if limit > 0 {
				fields["limit"] = limit
			}
			var response struct {
				Requests []directory.MatchRequest `json:"requests"`
			}
			if err := callDaemon(socketPath, "matches", fields, &response); err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(response.Requests)
			}
			printMatchRequests(response.Requests)
			return nil
		},
	}
}

func proposalsCommand() *cli.Command {
	var (
		socketPath string
		asJSON     bool
	)
	return &cli.Command{
		Name:    "proposals",
		Summary: "List proposals for a match request",
		Usage:   "meshdir proposals <match-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("proposals", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "daemon socket path")
			flags.BoolVar(&asJSON, "json", false, "output as JSON")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("proposals requires exactly one match id")
			}
			var response struct {
				Proposals []directory.MatchProposal `json:"proposals"`
			}
			if err := callDaemon(socketPath, "proposals", map[string]any{"match_id": args[0]}, &response); err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(response.Proposals)
			}
			printProposals(response.Proposals)
			return nil
		},
	}
}

func printMatchRequests(requests []directory.MatchRequest) {
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tREQUESTER\tSTATUS\tCAPABILITIES\tEXPIRES")
	for _, request := range requests {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			request.ID, request.RequesterID, request.Status,
			strings.Join(request.RequiredCapabilities, ","),
			formatMillis(request.ExpiresAt))
	}
	tw.Flush()
}

func printProposals(proposals []directory.MatchProposal) {
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "PROPOSER\tSCORE\tSTATUS\tMATCHED\tPROPOSED")
	for _, proposal := range proposals {
		fmt.Fprintf(tw, "%s\t%.3f\t%s\t%s\t%s\n",
			proposal.ProposerID, proposal.Score, proposal.Status,
			strings.Join(proposal.MatchedCapabilities, ","),
			formatMillis(proposal.ProposedAt))
	}
	tw.Flush()
}

// formatMillis renders a logical millisecond timestamp as UTC.
func formatMillis(millis int64) string {
	if millis == 0 {
		return "-"
	}
	return time.UnixMilli(millis).UTC().Format(time.RFC3339)
}
