// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/meshdir-foundation/meshdir/cmd/meshdir/cli"
	"github.com/meshdir-foundation/meshdir/lib/ref"
)

func channelCommand() *cli.Command {
	return &cli.Command{
		Name:    "channel",
		Summary: "Inspect communication channels",
		Usage:   "meshdir channel <subcommand>",
		Subcommands: []*cli.Command{
			channelMembersCommand(),
		},
	}
}

func channelMembersCommand() *cli.Command {
	var (
		socketPath string
		asJSON     bool
	)
	return &cli.Command{
		Name:    "members",
		Summary: "List the members of a channel",
		Usage:   "meshdir channel members <channel-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("members", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "daemon socket path")
			flags.BoolVar(&asJSON, "json", false, "output as JSON")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("members requires exactly one channel id")
			}
			var response struct {
				Members []ref.AgentID `json:"members"`
			}
			if err := callDaemon(socketPath, "channel_members", map[string]any{"channel_id": args[0]}, &response); err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(response.Members)
			}
			for _, member := range response.Members {
				fmt.Println(member)
			}
			return nil
		},
	}
}
