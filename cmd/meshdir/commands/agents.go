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

func agentsCommand() *cli.Command {
	var (
		socketPath string
		status     string
		limit      int
		asJSON     bool
	)
	return &cli.Command{
		Name:    "agents",
		Summary: "List registered agents",
		Usage:   "meshdir agents [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("agents", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "daemon socket path")
			flags.StringVar(&status, "status", "", "filter by status (online, offline, busy)")
			flags.IntVar(&limit, "limit", 0, "maximum number of agents")
			flags.BoolVar(&asJSON, "json", false, "output as JSON")
			return flags
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("agents takes no positional arguments")
			}
			fields := map[string]any{}
			if status != "" {
				fields["status"] = status
			}
			if limit > 0 {
				fields["limit"] = limit
			}
			var response struct {
				Agents []directory.Agent `json:"agents"`
			}
			if err := callDaemon(socketPath, "agents", fields, &response); err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(response.Agents)
			}
			printAgents(response.Agents)
			return nil
		},
	}
}

func agentCommand() *cli.Command {
	var (
		socketPath string
		byName     bool
		asJSON     bool
	)
	return &cli.Command{
		Name:    "agent",
		Summary: "Show one agent",
		Usage:   "meshdir agent <agent-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("agent", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "daemon socket path")
			flags.BoolVar(&byName, "name", false, "look up by registered name instead of agent id")
			flags.BoolVar(&asJSON, "json", false, "output as JSON")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("agent requires exactly one argument")
			}
			fields := map[string]any{"agent_id": args[0]}
			if byName {
				fields = map[string]any{"name": args[0]}
			}
			var response struct {
				Agent directory.Agent `json:"agent"`
			}
			if err := callDaemon(socketPath, "get_agent", fields, &response); err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(response.Agent)
			}
			printAgentDetail(response.Agent)
			return nil
		},
	}
}

func printAgents(agents []directory.Agent) {
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tCAPABILITIES\tMATCHES")
	for _, agent := range agents {
		names := make([]string, len(agent.Capabilities))
		for i, capability := range agent.Capabilities {
			names[i] = capability.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			agent.ID, agent.Name, agent.Status, strings.Join(names, ","), agent.MatchCount)
	}
	tw.Flush()
}

func printAgentDetail(agent directory.Agent) {
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", agent.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", agent.Name)
	if agent.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", agent.Description)
	}
	fmt.Fprintf(tw, "Status:\t%s\n", agent.Status)
	fmt.Fprintf(tw, "Protocol:\t%s\n", agent.Protocol)
	fmt.Fprintf(tw, "Visibility:\t%s\n", agent.Visibility)
	if agent.Endpoint != "" {
		fmt.Fprintf(tw, "Endpoint:\t%s\n", agent.Endpoint)
	}
	fmt.Fprintf(tw, "Matches:\t%d (%d successful)\n", agent.MatchCount, agent.SuccessCount)
	for _, capability := range agent.Capabilities {
		if capability.Category != "" {
			fmt.Fprintf(tw, "Capability:\t%s (%s, %.2f)\n", capability.Name, capability.Category, capability.Proficiency)
		} else {
			fmt.Fprintf(tw, "Capability:\t%s (%.2f)\n", capability.Name, capability.Proficiency)
		}
	}
	tw.Flush()
}
