// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"

	"github.com/meshdir-foundation/meshdir/lib/codec"
	"github.com/meshdir-foundation/meshdir/lib/ref"
)

// Command names as they appear on the wire. These are protocol
// constants — changing one breaks every existing command log.
const (
	CommandRegister      = "register"
	CommandUpdate        = "update"
	CommandUnregister    = "unregister"
	CommandCreateMatch   = "create_match_request"
	CommandProposeMatch  = "propose_match"
	CommandAcceptMatch   = "accept_match"
	CommandCompleteMatch = "complete_match"
	CommandJoinChannel   = "join_channel"
	CommandLeaveChannel  = "leave_channel"
	CommandRecordMessage = "record_message"
	CommandHeartbeat     = "heartbeat"
)

// Command is the sealed union of directory commands. Only this
// package can add members (the unexported marker method), so a type
// switch over commands in the engine covers the full set by
// construction.
type Command interface {
	// CommandName returns the wire name of the command.
	CommandName() string

	// Validate checks structural well-formedness of the payload.
	// Pure function of the payload; never consults directory state.
	Validate() error

	// Sanitize applies canonicalizations (clamping, defaulting) to
	// the payload in place. Call only after Validate succeeds.
	Sanitize()

	isCommand()
}

// ValidationError reports a structurally invalid command payload. The
// transition never runs for a payload that fails validation.
type ValidationError struct {
	// Field names the offending payload field, dotted for nesting
	// (e.g., "capabilities.name").
	Field string

	// Reason describes the violation.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload: %s: %s", e.Field, e.Reason)
}

// Context carries the trusted metadata the host attaches to each
// command: who sent it (authenticated upstream, opaque here) and the
// logical timestamp assigned by the replicated log. Transitions read
// time exclusively from here — never from the wall clock — which is
// what makes replay deterministic.
type Context struct {
	// Sender is the authenticated signer identity.
	Sender ref.AgentID `json:"sender"`

	// Timestamp is the logical time of the command in milliseconds.
	// Strictly non-decreasing across the log, assigned by the
	// sequencing layer.
	Timestamp int64 `json:"timestamp"`
}

// Validate checks the context fields.
func (c *Context) Validate() error {
	if err := c.Sender.Validate(); err != nil {
		return &ValidationError{Field: "sender", Reason: err.Error()}
	}
	if c.Timestamp <= 0 {
		return &ValidationError{Field: "timestamp", Reason: "must be positive"}
	}
	return nil
}

// Envelope is the wire form of a command as delivered by the
// replicated log: name, trusted context, and the still-encoded
// payload.
type Envelope struct {
	// Name is the command name (see the Command* constants).
	Name string `json:"name"`

	// Context is the trusted sender identity and logical timestamp.
	Context Context `json:"context"`

	// Payload is the raw CBOR command payload. Decoded into the
	// concrete command type by DecodeEnvelope.
	Payload codec.RawMessage `json:"payload,omitempty"`
}

// DecodeEnvelope resolves the envelope's command name, decodes its
// payload, validates, and sanitizes. The returned command is ready
// for the engine.
//
// An unknown command name is a validation error: replicas must agree
// on the command set, so an unrecognized name means the sender (or
// this replica) is running incompatible software — the host decides
// whether to drop or halt.
func DecodeEnvelope(envelope *Envelope) (Command, error) {
	if err := envelope.Context.Validate(); err != nil {
		return nil, err
	}

	command, err := NewCommand(envelope.Name)
	if err != nil {
		return nil, err
	}

	// An absent payload decodes every field to its zero value, which
	// the command's own Validate then judges.
	if len(envelope.Payload) > 0 {
		if err := codec.Unmarshal(envelope.Payload, command); err != nil {
			return nil, &ValidationError{Field: "payload", Reason: err.Error()}
		}
	}
	if err := command.Validate(); err != nil {
		return nil, err
	}
	command.Sanitize()
	return command, nil
}

// NewCommand maps a wire name to an empty concrete command. Used by
// DecodeEnvelope and by loaders that fill payloads from other
// encodings (seed scripts).
func NewCommand(name string) (Command, error) {
	switch name {
	case CommandRegister:
		return &RegisterAgent{}, nil
	case CommandUpdate:
		return &UpdateAgent{}, nil
	case CommandUnregister:
		return &UnregisterAgent{}, nil
	case CommandCreateMatch:
		return &CreateMatchRequest{}, nil
	case CommandProposeMatch:
		return &ProposeMatch{}, nil
	case CommandAcceptMatch:
		return &AcceptMatch{}, nil
	case CommandCompleteMatch:
		return &CompleteMatch{}, nil
	case CommandJoinChannel:
		return &JoinChannel{}, nil
	case CommandLeaveChannel:
		return &LeaveChannel{}, nil
	case CommandRecordMessage:
		return &RecordMessage{}, nil
	case CommandHeartbeat:
		return &Heartbeat{}, nil
	default:
		return nil, &ValidationError{Field: "name", Reason: fmt.Sprintf("unknown command %q", name)}
	}
}

// EncodeEnvelope builds the wire envelope for a command. The inverse
// of DecodeEnvelope, used by hosts appending to the log and by tests.
func EncodeEnvelope(command Command, context Context) (*Envelope, error) {
	payload, err := codec.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", command.CommandName(), err)
	}
	return &Envelope{
		Name:    command.CommandName(),
		Context: context,
		Payload: payload,
	}, nil
}
