// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"strings"
	"testing"

	"github.com/meshdir-foundation/meshdir/lib/ref"
)

func testMatchID() ref.MatchID {
	return ref.DeriveMatchID("requester-1", 1700000000000)
}

func TestCreateMatchRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		command CreateMatchRequest
		wantErr string
	}{
		{
			name:    "typical",
			command: CreateMatchRequest{RequiredCapabilities: []string{"translation"}, MinScore: 0.6},
		},
		{
			// Emptiness is a domain precondition (the transition
			// reports it), not a schema violation.
			name:    "empty capability list passes schema",
			command: CreateMatchRequest{},
		},
		{
			name:    "min score out of range",
			command: CreateMatchRequest{RequiredCapabilities: []string{"x"}, MinScore: 1.2},
			wantErr: "min_score",
		},
		{
			name:    "negative ttl",
			command: CreateMatchRequest{RequiredCapabilities: []string{"x"}, TTLMillis: -1},
			wantErr: "ttl_millis",
		},
		{
			name:    "empty capability name",
			command: CreateMatchRequest{RequiredCapabilities: []string{"x", ""}},
			wantErr: "required_capabilities[1]",
		},
		{
			name: "unknown preferred protocol",
			command: CreateMatchRequest{
				RequiredCapabilities: []string{"x"},
				PreferredProtocols:   []Protocol{ProtocolNative, "carrier-pigeon"},
			},
			wantErr: "preferred_protocols[1]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.command.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMatchRequestSanitizeAppliesDefaultTTL(t *testing.T) {
	command := CreateMatchRequest{RequiredCapabilities: []string{"x"}}
	command.Sanitize()
	if command.TTLMillis != DefaultMatchTTL {
		t.Errorf("TTLMillis = %d, want default %d", command.TTLMillis, DefaultMatchTTL)
	}

	command = CreateMatchRequest{RequiredCapabilities: []string{"x"}, TTLMillis: 60000}
	command.Sanitize()
	if command.TTLMillis != 60000 {
		t.Errorf("TTLMillis = %d, explicit value must survive Sanitize", command.TTLMillis)
	}
}

func TestProposeMatchValidate(t *testing.T) {
	tests := []struct {
		name    string
		command ProposeMatch
		wantErr string
	}{
		{
			name:    "typical",
			command: ProposeMatch{MatchID: testMatchID(), Score: 0.8, MatchedCapabilities: []string{"translation"}},
		},
		{
			name:    "missing match id",
			command: ProposeMatch{Score: 0.8},
			wantErr: "match_id",
		},
		{
			name:    "malformed match id",
			command: ProposeMatch{MatchID: "match-42", Score: 0.8},
			wantErr: "match_id",
		},
		{
			name:    "score out of range",
			command: ProposeMatch{MatchID: testMatchID(), Score: -0.1},
			wantErr: "score",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.command.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestAcceptMatchValidate(t *testing.T) {
	good := AcceptMatch{MatchID: testMatchID(), ProposerID: "proposer-1"}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate: unexpected error: %v", err)
	}

	missing := AcceptMatch{MatchID: testMatchID()}
	if err := missing.Validate(); err == nil || !strings.Contains(err.Error(), "proposer_id") {
		t.Fatalf("Validate = %v, want proposer_id error", err)
	}
}

func TestCompleteMatchValidate(t *testing.T) {
	rating := 4.5
	good := CompleteMatch{MatchID: testMatchID(), Success: true, Rating: &rating}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate: unexpected error: %v", err)
	}

	outOfScale := 5.5
	bad := CompleteMatch{MatchID: testMatchID(), Rating: &outOfScale}
	if err := bad.Validate(); err == nil || !strings.Contains(err.Error(), "rating") {
		t.Fatalf("Validate = %v, want rating error", err)
	}

	noRating := CompleteMatch{MatchID: testMatchID(), Success: false}
	if err := noRating.Validate(); err != nil {
		t.Fatalf("Validate without rating: unexpected error: %v", err)
	}
}
