// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"strings"
	"testing"
)

func TestAgentIDValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      AgentID
		wantErr string
	}{
		{name: "plain", id: "agent-7"},
		{name: "public key form", id: "ed25519:Gv8qWFhPx2Zk"},
		{name: "unicode allowed", id: "übersetzer"},
		{name: "empty", id: "", wantErr: "empty agent id"},
		{name: "control character", id: "agent\n7", wantErr: "control character"},
		{name: "too long", id: AgentID(strings.Repeat("x", 257)), wantErr: "maximum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.id.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate(%q): unexpected error: %v", tt.id, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate(%q) = %v, want error containing %q", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestDeriveMatchIDDeterministic(t *testing.T) {
	first := DeriveMatchID("agent-a", 1700000000000)
	second := DeriveMatchID("agent-a", 1700000000000)
	if first != second {
		t.Errorf("same inputs derived different ids: %q vs %q", first, second)
	}
	if err := first.Validate(); err != nil {
		t.Errorf("derived match id fails validation: %v", err)
	}
}

func TestDeriveMatchIDDistinguishesInputs(t *testing.T) {
	base := DeriveMatchID("agent-a", 1700000000000)
	if other := DeriveMatchID("agent-b", 1700000000000); other == base {
		t.Errorf("different requesters derived the same id: %q", base)
	}
	if other := DeriveMatchID("agent-a", 1700000000001); other == base {
		t.Errorf("different timestamps derived the same id: %q", base)
	}
	// The separator prevents ambiguity between (requester, timestamp)
	// pairs whose concatenation collides.
	if DeriveMatchID("agent-1", 11) == DeriveMatchID("agent-11", 1) {
		t.Error("ambiguous requester/timestamp concatenation collided")
	}
}

func TestDeriveChannelID(t *testing.T) {
	match := DeriveMatchID("agent-a", 1700000000000)
	channel := DeriveChannelID(match)
	if channel != DeriveChannelID(match) {
		t.Error("channel derivation is not deterministic")
	}
	if err := channel.Validate(); err != nil {
		t.Errorf("derived channel id fails validation: %v", err)
	}
	if !strings.HasPrefix(string(channel), "ch-") {
		t.Errorf("derived channel id %q missing ch- prefix", channel)
	}
}

func TestMatchIDValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      MatchID
		wantErr string
	}{
		{name: "derived", id: DeriveMatchID("agent-a", 42)},
		{name: "wrong prefix", id: "xx-0123456789abcdef0123456789abcdef", wantErr: "must start with"},
		{name: "wrong length", id: "mr-abc", wantErr: "want"},
		{name: "non-hex", id: "mr-0123456789abcdef0123456789abcdeZ", wantErr: "non-hex"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.id.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate(%q): unexpected error: %v", tt.id, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate(%q) = %v, want error containing %q", tt.id, err, tt.wantErr)
			}
		})
	}
}
