// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import "github.com/meshdir-foundation/meshdir/lib/ref"

// EventType classifies the notifications a successful transition
// emits. Events are derived output: replaying a log re-derives the
// same events in the same order, and they are never read back by the
// engine.
type EventType string

const (
	EventAgentRegistered   EventType = "agent_registered"
	EventAgentUpdated      EventType = "agent_updated"
	EventAgentUnregistered EventType = "agent_unregistered"
	EventMatchCreated      EventType = "match_created"
	EventMatchProposed     EventType = "match_proposed"
	EventMatchAccepted     EventType = "match_accepted"
	EventMatchCompleted    EventType = "match_completed"
	EventProposalRejected  EventType = "proposal_rejected"
	EventChannelJoined     EventType = "channel_joined"
	EventChannelLeft       EventType = "channel_left"
	EventMessageRecorded   EventType = "message_recorded"
	EventHeartbeat         EventType = "heartbeat"
)

// Event is one notification. Fields beyond Type and Timestamp are
// populated where they apply.
type Event struct {
	Type      EventType     `json:"type"`
	Timestamp int64         `json:"timestamp"`
	AgentID   ref.AgentID   `json:"agent_id,omitempty"`
	MatchID   ref.MatchID   `json:"match_id,omitempty"`
	ChannelID ref.ChannelID `json:"channel_id,omitempty"`

	// Counterparty is the other agent involved, when there is one:
	// the accepted proposer on acceptance, the rated party on
	// completion, the rejected proposer on rejection.
	Counterparty ref.AgentID `json:"counterparty,omitempty"`
}
