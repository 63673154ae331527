// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// Package integration_test wires the full directory stack together —
// command log, state-transition engine, view store, and the Unix
// socket service layer — and drives it end to end through the same
// client code the meshdir CLI uses. No external services are needed;
// everything runs in-process against a temp directory.
package integration_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/meshdir-foundation/meshdir/commandlog"
	"github.com/meshdir-foundation/meshdir/directory"
	"github.com/meshdir-foundation/meshdir/lib/codec"
	"github.com/meshdir-foundation/meshdir/lib/ref"
	"github.com/meshdir-foundation/meshdir/lib/schema"
	"github.com/meshdir-foundation/meshdir/lib/service"
)

// harness is a miniature meshdir-directory daemon: the real engine,
// a real on-disk command log, and the real socket server, wired the
// way the daemon wires them. Tests talk to it through service.Client.
type harness struct {
	t       *testing.T
	logPath string
	socket  string
	client  *service.Client

	mu     sync.Mutex
	engine *directory.Engine
	writer *commandlog.Writer

	// now is the logical clock, advanced by one millisecond per
	// submitted command so every envelope gets a distinct timestamp.
	now int64
}

func newHarness(t *testing.T, view directory.View) *harness {
	t.Helper()
	dir := t.TempDir()

	logPath := filepath.Join(dir, "commands.mdlog")
	writer, err := commandlog.Create(logPath)
	if err != nil {
		t.Fatalf("creating command log: %v", err)
	}

	h := &harness{
		t:       t,
		logPath: logPath,
		socket:  filepath.Join(dir, "directory.sock"),
		engine:  directory.NewEngine(view),
		writer:  writer,
		now:     1_700_000_000_000,
	}
	h.client = service.NewClient(h.socket)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	server := service.NewSocketServer(h.socket, logger)
	server.Handle("command", h.handleCommand)
	server.Handle("agents", h.handleAgents)
	server.Handle("discover", h.handleDiscover)
	server.Handle("matches", h.handleMatches)
	server.Handle("proposals", h.handleProposals)
	server.Handle("channel_members", h.handleChannelMembers)
	server.Handle("reputation", h.handleReputation)
	server.Handle("stats", h.handleStats)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Serve(ctx); err != nil {
			t.Errorf("socket server: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		h.writer.Close()
	})
	waitForSocket(t, h.socket)
	return h
}

// submit mirrors the daemon's ordering contract: the envelope is
// durable in the log before the transition runs.
func (h *harness) submit(envelope *schema.Envelope) ([]directory.Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.writer.Append(envelope); err != nil {
		return nil, err
	}
	if err := h.writer.Flush(); err != nil {
		return nil, err
	}
	return h.engine.ApplyEnvelope(envelope)
}

func (h *harness) handleCommand(_ context.Context, raw []byte) (any, error) {
	var request struct {
		Envelope *schema.Envelope `json:"envelope"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, err
	}
	if request.Envelope == nil {
		return nil, fmt.Errorf("envelope is required")
	}
	events, err := h.submit(request.Envelope)
	if err != nil {
		return nil, err
	}
	return map[string]any{"events": events}, nil
}

func (h *harness) handleAgents(_ context.Context, raw []byte) (any, error) {
	var request struct {
		Limit int `json:"limit"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	agents, err := directory.ListAgents(h.engine.View(), nil, request.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"agents": agents}, nil
}

func (h *harness) handleDiscover(_ context.Context, raw []byte) (any, error) {
	var query directory.DiscoverQuery
	if err := codec.Unmarshal(raw, &query); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	results, err := directory.Discover(h.engine.View(), query)
	if err != nil {
		return nil, err
	}
	return map[string]any{"results": results}, nil
}

func (h *harness) handleMatches(_ context.Context, _ []byte) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	requests, err := directory.ListMatchRequests(h.engine.View(), nil, "", 0)
	if err != nil {
		return nil, err
	}
	return map[string]any{"requests": requests}, nil
}

func (h *harness) handleProposals(_ context.Context, raw []byte) (any, error) {
	var request struct {
		MatchID ref.MatchID `json:"match_id"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	proposals, err := directory.ListProposals(h.engine.View(), request.MatchID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"proposals": proposals}, nil
}

func (h *harness) handleChannelMembers(_ context.Context, raw []byte) (any, error) {
	var request struct {
		ChannelID ref.ChannelID `json:"channel_id"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	members, err := directory.ChannelMembers(h.engine.View(), request.ChannelID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"members": members}, nil
}

func (h *harness) handleReputation(_ context.Context, raw []byte) (any, error) {
	var request struct {
		AgentID ref.AgentID `json:"agent_id"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return directory.GetReputation(h.engine.View(), request.AgentID)
}

func (h *harness) handleStats(_ context.Context, _ []byte) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return directory.GetStats(h.engine.View())
}

// command encodes and submits one command over the socket, exactly as
// the CLI would, and fails the test if the daemon rejects it.
func (h *harness) command(sender ref.AgentID, cmd schema.Command) []directory.Event {
	h.t.Helper()
	events, err := h.tryCommand(sender, cmd)
	if err != nil {
		h.t.Fatalf("command %s from %s: %v", cmd.CommandName(), sender, err)
	}
	return events
}

// tryCommand is command without the failure check, for tests that
// expect a rejection.
func (h *harness) tryCommand(sender ref.AgentID, cmd schema.Command) ([]directory.Event, error) {
	h.t.Helper()
	h.mu.Lock()
	h.now++
	timestamp := h.now
	h.mu.Unlock()

	envelope, err := schema.EncodeEnvelope(cmd, schema.Context{Sender: sender, Timestamp: timestamp})
	if err != nil {
		h.t.Fatalf("encoding %s: %v", cmd.CommandName(), err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var response struct {
		Events []directory.Event `json:"events"`
	}
	err = h.client.Call(ctx, "command", map[string]any{"envelope": envelope}, &response)
	return response.Events, err
}

// query performs one read-only action over the socket.
func (h *harness) query(action string, fields map[string]any, result any) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.client.Call(ctx, action, fields, result); err != nil {
		h.t.Fatalf("query %s: %v", action, err)
	}
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("socket %s never appeared", path)
}
