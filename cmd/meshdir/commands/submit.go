// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/meshdir-foundation/meshdir/cmd/meshdir/cli"
	"github.com/meshdir-foundation/meshdir/commandlog"
	"github.com/meshdir-foundation/meshdir/directory"
)

func submitCommand() *cli.Command {
	var (
		socketPath string
		verbose    bool
	)
	return &cli.Command{
		Name:    "submit",
		Summary: "Submit a command script to the daemon",
		Usage:   "meshdir submit <script.jsonc> [flags]",
		Description: `Parse a JSONC command script and submit each command to the daemon
in order. Commands the engine rejects stop the run: earlier commands
stay applied, so scripts should be written to be idempotent.`,
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("submit", pflag.ContinueOnError)
			flags.StringVar(&socketPath, "socket", "", "daemon socket path")
			flags.BoolVar(&verbose, "verbose", false, "print every emitted event")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("submit requires exactly one script path")
			}
			envelopes, err := commandlog.LoadSeedFile(args[0])
			if err != nil {
				return err
			}
			events := 0
			for i, envelope := range envelopes {
				var response struct {
					Events []directory.Event `json:"events"`
				}
				err := callDaemon(socketPath, "command", map[string]any{"envelope": envelope}, &response)
				if err != nil {
					return fmt.Errorf("command %d (%s): %w", i, envelope.Name, err)
				}
				events += len(response.Events)
				if verbose {
					for _, event := range response.Events {
						fmt.Printf("%s: %s\n", envelope.Name, event.Type)
					}
				}
			}
			fmt.Printf("submitted %d commands, %d events\n", len(envelopes), events)
			return nil
		},
	}
}
