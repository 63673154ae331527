// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/meshdir-foundation/meshdir/commandlog"
	"github.com/meshdir-foundation/meshdir/directory"
	"github.com/meshdir-foundation/meshdir/lib/schema"
	"github.com/meshdir-foundation/meshdir/lib/version"
	"github.com/meshdir-foundation/meshdir/viewstore"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		logPath      string
		snapshotPath string
		showVersion  bool
	)
	flag.StringVar(&logPath, "log", "", "command log file to verify")
	flag.StringVar(&snapshotPath, "snapshot", "", "optional snapshot file to verify against the replayed state")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		version.Print("meshdir-check")
		return 0
	}
	if logPath == "" {
		fmt.Fprintf(os.Stderr, "error: --log is required\n")
		return 2
	}

	first, firstStats, err := replay(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	second, secondStats, err := replay(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	firstDigest, err := viewstore.DigestHex(first)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: digesting first replay: %v\n", err)
		return 2
	}
	secondDigest, err := viewstore.DigestHex(second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: digesting second replay: %v\n", err)
		return 2
	}
	if firstDigest != secondDigest {
		fmt.Fprintf(os.Stderr, "replay divergence: %s vs %s\n", firstDigest, secondDigest)
		return 1
	}
	if firstStats != secondStats {
		fmt.Fprintf(os.Stderr, "replay divergence: %d/%d applied vs %d/%d\n",
			firstStats.applied, firstStats.rejected, secondStats.applied, secondStats.rejected)
		return 1
	}

	if err := directory.CheckConsistency(first); err != nil {
		fmt.Fprintf(os.Stderr, "consistency violation: %v\n", err)
		return 1
	}

	if snapshotPath != "" {
		snapshotDigest, err := snapshotDigestHex(snapshotPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 2
		}
		if snapshotDigest != firstDigest {
			fmt.Fprintf(os.Stderr, "snapshot mismatch: snapshot %s, log %s\n", snapshotDigest, firstDigest)
			return 1
		}
	}

	fmt.Printf("ok: %d commands (%d rejected), digest %s\n",
		firstStats.applied, firstStats.rejected, firstDigest)
	return 0
}

// replayStats counts the outcome of one replay pass. Both passes must
// agree on these counts, not just on the final view bytes.
type replayStats struct {
	applied  int
	rejected int
}

// replay rebuilds a fresh view from the log. Commands the engine
// rejects are counted and skipped, matching the daemon's startup
// behavior; a DesyncError aborts.
func replay(path string) (*directory.MemoryView, replayStats, error) {
	reader, err := commandlog.Open(path)
	if err != nil {
		return nil, replayStats{}, err
	}
	defer reader.Close()

	view := directory.NewMemoryView()
	engine := directory.NewEngine(view)
	var stats replayStats
	_, err = reader.Replay(func(envelope *schema.Envelope) error {
		if _, err := engine.ApplyEnvelope(envelope); err != nil {
			var desync *directory.DesyncError
			if errors.As(err, &desync) {
				return err
			}
			stats.rejected++
			return nil
		}
		stats.applied++
		return nil
	})
	if err != nil {
		return nil, replayStats{}, fmt.Errorf("replaying %s: %w", path, err)
	}
	return view, stats, nil
}

// snapshotDigestHex imports the snapshot into a fresh view and
// digests it. ReadSnapshot already verifies the embedded digest; this
// recomputation gives us the value to compare against the log replay.
func snapshotDigestHex(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	view := directory.NewMemoryView()
	if err := viewstore.ReadSnapshot(view, file); err != nil {
		return "", fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return viewstore.DigestHex(view)
}
