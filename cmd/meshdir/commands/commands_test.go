// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/meshdir-foundation/meshdir/directory"
	"github.com/meshdir-foundation/meshdir/lib/codec"
	"github.com/meshdir-foundation/meshdir/lib/service"
)

func TestResolveSocketPrecedence(t *testing.T) {
	t.Setenv(socketEnv, "/tmp/env.sock")

	path, err := resolveSocket("/tmp/flag.sock")
	if err != nil {
		t.Fatalf("resolveSocket with flag: %v", err)
	}
	if path != "/tmp/flag.sock" {
		t.Fatalf("flag should win over environment, got %q", path)
	}

	path, err = resolveSocket("")
	if err != nil {
		t.Fatalf("resolveSocket from environment: %v", err)
	}
	if path != "/tmp/env.sock" {
		t.Fatalf("expected environment socket, got %q", path)
	}
}

// TestCallDaemonRoundTrip drives callDaemon against a live socket
// server to verify field encoding and response decoding end to end.
func TestCallDaemonRoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "meshdir.sock")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	server := service.NewSocketServer(socketPath, logger)
	server.Handle("agents", func(_ context.Context, raw []byte) (any, error) {
		var request struct {
			Status string `json:"status"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		if request.Status != "online" {
			t.Errorf("expected status filter %q, got %q", "online", request.Status)
		}
		return map[string]any{
			"agents": []directory.Agent{{Name: "echo-agent"}},
		}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		server.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	waitForSocket(t, socketPath)

	var response struct {
		Agents []directory.Agent `json:"agents"`
	}
	err := callDaemon(socketPath, "agents", map[string]any{"status": "online"}, &response)
	if err != nil {
		t.Fatalf("callDaemon: %v", err)
	}
	if len(response.Agents) != 1 || response.Agents[0].Name != "echo-agent" {
		t.Fatalf("unexpected response: %+v", response.Agents)
	}
}

func TestRootCommandTree(t *testing.T) {
	root := Root()
	want := []string{
		"agents", "agent", "discover", "matches", "proposals",
		"channel", "reputation", "stats", "submit", "log", "version",
	}
	if len(root.Subcommands) != len(want) {
		t.Fatalf("expected %d subcommands, got %d", len(want), len(root.Subcommands))
	}
	for i, name := range want {
		if root.Subcommands[i].Name != name {
			t.Fatalf("subcommand %d: expected %q, got %q", i, name, root.Subcommands[i].Name)
		}
	}
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		runtime.Gosched()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("socket %s never appeared", path)
}
