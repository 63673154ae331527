// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/meshdir-foundation/meshdir/lib/codec"
)

func testContext() Context {
	return Context{Sender: "agent-1", Timestamp: 1700000000000}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	original := &RegisterAgent{
		Name:         "translator",
		Capabilities: []Capability{{Name: "translation", Proficiency: 0.9}},
		Protocol:     ProtocolNative,
		Visibility:   VisibilityPublic,
	}

	envelope, err := EncodeEnvelope(original, testContext())
	if err != nil {
		t.Fatalf("EncodeEnvelope: %v", err)
	}
	if envelope.Name != CommandRegister {
		t.Errorf("envelope name = %q, want %q", envelope.Name, CommandRegister)
	}

	// Simulate the wire: the envelope itself travels as CBOR.
	wire, err := codec.Marshal(envelope)
	if err != nil {
		t.Fatalf("Marshal envelope: %v", err)
	}
	var received Envelope
	if err := codec.Unmarshal(wire, &received); err != nil {
		t.Fatalf("Unmarshal envelope: %v", err)
	}

	decoded, err := DecodeEnvelope(&received)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	register, ok := decoded.(*RegisterAgent)
	if !ok {
		t.Fatalf("decoded command is %T, want *RegisterAgent", decoded)
	}
	if !reflect.DeepEqual(register, original) {
		t.Errorf("round-trip mismatch:\n  got:  %+v\n  want: %+v", register, original)
	}
}

func TestDecodeEnvelopeSanitizes(t *testing.T) {
	envelope, err := EncodeEnvelope(&RegisterAgent{
		Name:         "clamped",
		Capabilities: []Capability{{Name: "x", Proficiency: 3.0}},
	}, testContext())
	if err != nil {
		t.Fatalf("EncodeEnvelope: %v", err)
	}

	decoded, err := DecodeEnvelope(envelope)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	register := decoded.(*RegisterAgent)
	if register.Capabilities[0].Proficiency != 1 {
		t.Errorf("proficiency = %v, want clamped 1", register.Capabilities[0].Proficiency)
	}
	if register.Protocol != ProtocolNative || register.Visibility != VisibilityPublic {
		t.Errorf("defaults not applied: protocol=%q visibility=%q", register.Protocol, register.Visibility)
	}
}

func TestDecodeEnvelopeRejectsUnknownName(t *testing.T) {
	envelope := &Envelope{Name: "drop_table", Context: testContext()}
	_, err := DecodeEnvelope(envelope)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("DecodeEnvelope = %v, want unknown command error", err)
	}
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error type %T, want *ValidationError", err)
	}
}

func TestDecodeEnvelopeRejectsInvalidPayload(t *testing.T) {
	envelope, err := EncodeEnvelope(&RegisterAgent{}, testContext())
	if err != nil {
		t.Fatalf("EncodeEnvelope: %v", err)
	}
	if _, err := DecodeEnvelope(envelope); err == nil || !strings.Contains(err.Error(), "name: required") {
		t.Fatalf("DecodeEnvelope = %v, want name required error", err)
	}
}

func TestDecodeEnvelopeRejectsBadContext(t *testing.T) {
	tests := []struct {
		name    string
		context Context
		wantErr string
	}{
		{name: "empty sender", context: Context{Timestamp: 1}, wantErr: "sender"},
		{name: "zero timestamp", context: Context{Sender: "agent-1"}, wantErr: "timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope, err := EncodeEnvelope(&Heartbeat{}, tt.context)
			if err != nil {
				t.Fatalf("EncodeEnvelope: %v", err)
			}
			if _, err := DecodeEnvelope(envelope); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("DecodeEnvelope = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeEnvelopeEmptyPayloadCommands(t *testing.T) {
	// Commands with no payload fields decode from an absent payload.
	for _, name := range []string{CommandUnregister, CommandHeartbeat, CommandRecordMessage} {
		envelope := &Envelope{Name: name, Context: testContext()}
		command, err := DecodeEnvelope(envelope)
		if err != nil {
			t.Errorf("DecodeEnvelope(%s): %v", name, err)
			continue
		}
		if command.CommandName() != name {
			t.Errorf("decoded command name = %q, want %q", command.CommandName(), name)
		}
	}
}
