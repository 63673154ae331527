// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package commandlog

import (
	"strings"
	"testing"

	"github.com/meshdir-foundation/meshdir/lib/schema"
)

const seedScript = `
// Demo fixture: two agents and a first match request.
[
	{
		"name": "register",
		"sender": "alice",
		"timestamp": 1700000000001,
		"payload": {
			"name": "alice",
			"capabilities": [
				{"name": "translation", "category": "language", "proficiency": 0.9},
			],
		},
	},
	{
		"name": "register",
		"sender": "bob",
		"timestamp": 1700000000002,
		"payload": {"name": "bob"},
	},
	{
		"name": "create_match_request",
		"sender": "bob",
		"timestamp": 1700000000003,
		"payload": {"required_capabilities": ["translation"]},
	},
]
`

func TestParseSeed(t *testing.T) {
	envelopes, err := ParseSeed([]byte(seedScript))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if len(envelopes) != 3 {
		t.Fatalf("got %d envelopes, want 3", len(envelopes))
	}

	first, err := schema.DecodeEnvelope(envelopes[0])
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	register, ok := first.(*schema.RegisterAgent)
	if !ok {
		t.Fatalf("first command is %T, want *RegisterAgent", first)
	}
	if register.Name != "alice" || register.Capabilities[0].Category != "language" {
		t.Errorf("register = %+v", register)
	}
	// Sanitize ran at load time: defaults are in place.
	if register.Protocol != schema.ProtocolNative || register.Visibility != schema.VisibilityPublic {
		t.Errorf("defaults not applied: %+v", register)
	}

	if envelopes[2].Name != schema.CommandCreateMatch || envelopes[2].Context.Sender != "bob" {
		t.Errorf("third envelope = %+v", envelopes[2])
	}
}

func TestParseSeedRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr string
	}{
		{
			name:    "unknown command",
			script:  `[{"name": "drop_table", "sender": "x", "timestamp": 1}]`,
			wantErr: "unknown command",
		},
		{
			name:    "invalid payload",
			script:  `[{"name": "register", "sender": "x", "timestamp": 1, "payload": {}}]`,
			wantErr: "name: required",
		},
		{
			name:    "missing sender",
			script:  `[{"name": "heartbeat", "timestamp": 1}]`,
			wantErr: "sender",
		},
		{
			name:    "not json",
			script:  `{{{`,
			wantErr: "parsing seed script",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed([]byte(tt.script))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("ParseSeed = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
