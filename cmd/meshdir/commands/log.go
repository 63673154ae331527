// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/meshdir-foundation/meshdir/cmd/meshdir/cli"
	"github.com/meshdir-foundation/meshdir/commandlog"
	"github.com/meshdir-foundation/meshdir/directory"
	"github.com/meshdir-foundation/meshdir/lib/codec"
	"github.com/meshdir-foundation/meshdir/viewstore"
)

func logCommand() *cli.Command {
	return &cli.Command{
		Name:    "log",
		Summary: "Inspect command log files",
		Usage:   "meshdir log <subcommand>",
		Subcommands: []*cli.Command{
			logDumpCommand(),
			logReplayCommand(),
		},
	}
}

func logReplayCommand() *cli.Command {
	return &cli.Command{
		Name:    "replay",
		Summary: "Replay a command log and print the resulting state digest",
		Usage:   "meshdir log replay <commands.mdlog>",
		Description: `Replay every record into a fresh in-memory view, offline. Rejected
commands are skipped, matching daemon recovery. Prints the applied and
rejected counts and the final view digest, which can be compared
across replicas or against a snapshot.`,
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("replay requires exactly one log path")
			}
			reader, err := commandlog.Open(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			view := directory.NewMemoryView()
			engine := directory.NewEngine(view)
			applied, rejected := 0, 0
			for {
				envelope, err := reader.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return fmt.Errorf("record %d: %w", applied+rejected, err)
				}
				if _, err := engine.ApplyEnvelope(envelope); err != nil {
					var desync *directory.DesyncError
					if errors.As(err, &desync) {
						return fmt.Errorf("record %d: %w", applied+rejected, err)
					}
					rejected++
					continue
				}
				applied++
			}
			digest, err := viewstore.DigestHex(view)
			if err != nil {
				return err
			}
			fmt.Printf("%d commands applied, %d rejected\ndigest %s\n", applied, rejected, digest)
			return nil
		},
	}
}

func logDumpCommand() *cli.Command {
	var withPayload bool
	return &cli.Command{
		Name:    "dump",
		Summary: "Print every record in a command log",
		Usage:   "meshdir log dump <commands.mdlog> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("dump", pflag.ContinueOnError)
			flags.BoolVar(&withPayload, "payload", false, "print payloads in CBOR diagnostic notation")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("dump requires exactly one log path")
			}
			reader, err := commandlog.Open(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			for index := 0; ; index++ {
				envelope, err := reader.Next()
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return fmt.Errorf("record %d: %w", index, err)
				}
				fmt.Printf("%6d  %-24s %-32s %d\n",
					index, envelope.Name, envelope.Context.Sender, envelope.Context.Timestamp)
				if withPayload && len(envelope.Payload) > 0 {
					diagnostic, err := codec.Diagnose(envelope.Payload)
					if err != nil {
						return fmt.Errorf("record %d payload: %w", index, err)
					}
					fmt.Printf("        %s\n", diagnostic)
				}
			}
		},
	}
}
