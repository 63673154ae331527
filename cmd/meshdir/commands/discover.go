// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/meshdir-foundation/meshdir/cmd/meshdir/cli"
	"github.com/meshdir-foundation/meshdir/directory"
)

func discoverCommand() *cli.Command {
	var (
		socketPath     string
		capabilities   []string
		categories     []string
		minProficiency float64
		status         string
		limit          int
		asJSON         bool
	)
	return &cli.Command{
		Name:    "discover",
		Summary: "Find and rank agents by capability",
		Usage:   "meshdir discover [flags]",
		Description: `Run a discovery query against the directory.

With no --capability flags this browses every public agent. Matched
agents are ranked by the summed proficiency of their matching
capabilities divided by the number of requested names.`,
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("discover", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "daemon socket path")
			flags.StringArrayVar(&capabilities, "capability", nil, "required capability name (repeatable)")
			flags.StringArrayVar(&categories, "category", nil, "restrict matching to these categories (repeatable)")
			flags.Float64Var(&minProficiency, "min-proficiency", 0, "minimum proficiency for a capability to count")
			flags.StringVar(&status, "status", "", "filter by status (online, offline, busy)")
			flags.IntVar(&limit, "limit", 0, "maximum number of results")
			flags.BoolVar(&asJSON, "json", false, "output as JSON")
			return flags
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("discover takes no positional arguments; use --capability")
			}
			fields := map[string]any{}
			if len(capabilities) > 0 {
				fields["capabilities"] = capabilities
			}
			if len(categories) > 0 {
				fields["categories"] = categories
			}
			if minProficiency > 0 {
				fields["min_proficiency"] = minProficiency
			}
			if status != "" {
				fields["status"] = status
			}
			if limit > 0 {
				fields["limit"] = limit
			}
			var response struct {
				Results []directory.DiscoverResult `json:"results"`
			}
			if err := callDaemon(socketPath, "discover", fields, &response); err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(response.Results)
			}
			printDiscoverResults(response.Results)
			return nil
		},
	}
}

func printDiscoverResults(results []directory.DiscoverResult) {
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tID\tNAME\tSTATUS\tMATCHED")
	for _, result := range results {
		fmt.Fprintf(tw, "%.3f\t%s\t%s\t%s\t%s\n",
			result.Score, result.Agent.ID, result.Agent.Name, result.Agent.Status,
			strings.Join(result.MatchedCapabilities, ","))
	}
	tw.Flush()
}
