// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/meshdir-foundation/meshdir/commandlog"
	"github.com/meshdir-foundation/meshdir/directory"
	"github.com/meshdir-foundation/meshdir/lib/codec"
	"github.com/meshdir-foundation/meshdir/lib/ref"
	"github.com/meshdir-foundation/meshdir/lib/schema"
	"github.com/meshdir-foundation/meshdir/viewstore"
)

// testServer binds a fresh engine and a temp-file command log.
type testServer struct {
	t       *testing.T
	server  *directoryServer
	view    *directory.MemoryView
	logPath string
	now     int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	view := directory.NewMemoryView()
	logPath := filepath.Join(t.TempDir(), logFileName)
	writer, err := commandlog.Create(logPath)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { writer.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return &testServer{
		t:       t,
		server:  newDirectoryServer(directory.NewEngine(view), writer, logger),
		view:    view,
		logPath: logPath,
		now:     1700000000000,
	}
}

// command runs one command through the "command" action, failing the
// test on a transport-level error. Returns the handler error.
func (ts *testServer) command(sender string, cmd schema.Command) error {
	ts.t.Helper()
	ts.now++
	envelope, err := schema.EncodeEnvelope(cmd, schema.Context{
		Sender:    ref.AgentID(sender),
		Timestamp: ts.now,
	})
	if err != nil {
		ts.t.Fatalf("EncodeEnvelope: %v", err)
	}
	raw, err := codec.Marshal(map[string]any{"action": "command", "envelope": envelope})
	if err != nil {
		ts.t.Fatalf("Marshal: %v", err)
	}
	_, err = ts.server.handleCommand(context.Background(), raw)
	return err
}

// query runs a read action and decodes the result into out.
func (ts *testServer) query(handler func(context.Context, []byte) (any, error), request map[string]any, out any) error {
	ts.t.Helper()
	raw, err := codec.Marshal(request)
	if err != nil {
		ts.t.Fatalf("Marshal: %v", err)
	}
	result, err := handler(context.Background(), raw)
	if err != nil {
		return err
	}
	encoded, err := codec.Marshal(result)
	if err != nil {
		ts.t.Fatalf("Marshal result: %v", err)
	}
	if err := codec.Unmarshal(encoded, out); err != nil {
		ts.t.Fatalf("Unmarshal result: %v", err)
	}
	return nil
}

func register(ts *testServer, sender, name string, capabilities ...schema.Capability) {
	ts.t.Helper()
	if err := ts.command(sender, &schema.RegisterAgent{
		Name:         name,
		Capabilities: capabilities,
	}); err != nil {
		ts.t.Fatalf("register %s: %v", sender, err)
	}
}

func TestHandleCommandAppliesAndLogs(t *testing.T) {
	ts := newTestServer(t)
	register(ts, "alice", "alice", schema.Capability{Name: "translation", Proficiency: 0.9})

	var response agentResponse
	if err := ts.query(ts.server.handleGetAgent, map[string]any{"agent_id": "alice"}, &response); err != nil {
		t.Fatalf("get_agent: %v", err)
	}
	if response.Agent.Name != "alice" || len(response.Agent.Capabilities) != 1 {
		t.Errorf("agent = %+v", response.Agent)
	}

	if err := ts.server.log.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	reader, err := commandlog.Open(ts.logPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()
	records, err := reader.Replay(func(*schema.Envelope) error { return nil })
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if records != 1 {
		t.Errorf("log has %d records, want 1", records)
	}
}

func TestHandleCommandRejectionIsLoggedButWritesNothing(t *testing.T) {
	ts := newTestServer(t)
	register(ts, "alice", "alice")

	before := ts.view.Clone()
	if err := ts.command("mallory", &schema.RegisterAgent{Name: "alice"}); err == nil {
		t.Fatal("duplicate name accepted")
	}

	beforeDigest, err := viewstore.DigestHex(before)
	if err != nil {
		t.Fatalf("DigestHex: %v", err)
	}
	afterDigest, err := viewstore.DigestHex(ts.view)
	if err != nil {
		t.Fatalf("DigestHex: %v", err)
	}
	if beforeDigest != afterDigest {
		t.Error("rejected command changed the view")
	}

	// The record is still in the log; replay tolerates it.
	if err := ts.server.log.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	reader, err := commandlog.Open(ts.logPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()
	records, err := reader.Replay(func(*schema.Envelope) error { return nil })
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if records != 2 {
		t.Errorf("log has %d records, want 2", records)
	}
}

func TestHandleGetAgentValidation(t *testing.T) {
	ts := newTestServer(t)
	register(ts, "alice", "alice")

	var response agentResponse
	if err := ts.query(ts.server.handleGetAgent, map[string]any{}, &response); err == nil {
		t.Error("neither agent_id nor name accepted")
	}
	if err := ts.query(ts.server.handleGetAgent, map[string]any{"agent_id": "alice", "name": "alice"}, &response); err == nil {
		t.Error("both agent_id and name accepted")
	}
	if err := ts.query(ts.server.handleGetAgent, map[string]any{"name": "alice"}, &response); err != nil {
		t.Errorf("lookup by name: %v", err)
	}
	if err := ts.query(ts.server.handleGetAgent, map[string]any{"agent_id": "nobody"}, &response); err == nil {
		t.Error("unknown agent returned no error")
	}
}

func TestHandleDiscover(t *testing.T) {
	ts := newTestServer(t)
	register(ts, "alice", "alice", schema.Capability{Name: "translation", Proficiency: 0.9})
	register(ts, "bob", "bob", schema.Capability{Name: "translation", Proficiency: 0.5})
	register(ts, "carol", "carol", schema.Capability{Name: "summarization", Proficiency: 0.8})

	var response discoverResponse
	err := ts.query(ts.server.handleDiscover, map[string]any{
		"capabilities": []string{"translation"},
	}, &response)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(response.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(response.Results))
	}
	if response.Results[0].Agent.ID != "alice" || response.Results[1].Agent.ID != "bob" {
		t.Errorf("result order = %s, %s", response.Results[0].Agent.ID, response.Results[1].Agent.ID)
	}

	if err := ts.query(ts.server.handleDiscover, map[string]any{"status": "sleeping"}, &response); err == nil {
		t.Error("invalid status filter accepted")
	}
}

func TestHandleStatsAndMatches(t *testing.T) {
	ts := newTestServer(t)
	register(ts, "alice", "alice")
	register(ts, "bob", "bob", schema.Capability{Name: "translation", Proficiency: 0.9})

	if err := ts.command("alice", &schema.CreateMatchRequest{
		RequiredCapabilities: []string{"translation"},
		TTLMillis:            60_000,
	}); err != nil {
		t.Fatalf("create_match_request: %v", err)
	}

	var stats directory.Stats
	if err := ts.query(ts.server.handleStats, map[string]any{}, &stats); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Agents != 2 || stats.MatchRequests != 1 {
		t.Errorf("stats = %+v", stats)
	}

	var matches matchesResponse
	if err := ts.query(ts.server.handleMatches, map[string]any{"requester": "alice"}, &matches); err != nil {
		t.Fatalf("matches: %v", err)
	}
	if len(matches.Requests) != 1 || matches.Requests[0].RequesterID != "alice" {
		t.Errorf("matches = %+v", matches.Requests)
	}
}

func TestReplayLogRebuildsIdenticalView(t *testing.T) {
	ts := newTestServer(t)
	register(ts, "alice", "alice", schema.Capability{Name: "translation", Proficiency: 0.9})
	register(ts, "bob", "bob")
	if err := ts.command("bob", &schema.JoinChannel{ChannelID: "lobby"}); err != nil {
		t.Fatalf("join_channel: %v", err)
	}
	// A rejected command in the middle of the log must not derail the
	// rebuild.
	if err := ts.command("mallory", &schema.RegisterAgent{Name: "alice"}); err == nil {
		t.Fatal("duplicate name accepted")
	}
	if err := ts.server.log.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	rebuilt := directory.NewMemoryView()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if err := replayLog(ts.logPath, directory.NewEngine(rebuilt), logger); err != nil {
		t.Fatalf("replayLog: %v", err)
	}

	want, err := viewstore.DigestHex(ts.view)
	if err != nil {
		t.Fatalf("DigestHex: %v", err)
	}
	got, err := viewstore.DigestHex(rebuilt)
	if err != nil {
		t.Fatalf("DigestHex: %v", err)
	}
	if got != want {
		t.Errorf("rebuilt view digest %s, want %s", got, want)
	}
}

func TestViewIsEmpty(t *testing.T) {
	view := directory.NewMemoryView()
	empty, err := viewIsEmpty(view)
	if err != nil {
		t.Fatalf("viewIsEmpty: %v", err)
	}
	if !empty {
		t.Error("fresh view reported non-empty")
	}

	if err := view.Commit(directory.Delta{Puts: []directory.KeyValue{{Key: "stats", Value: []byte{0xa0}}}}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	empty, err = viewIsEmpty(view)
	if err != nil {
		t.Fatalf("viewIsEmpty: %v", err)
	}
	if empty {
		t.Error("populated view reported empty")
	}
}
