// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"github.com/meshdir-foundation/meshdir/lib/ref"
	"github.com/meshdir-foundation/meshdir/lib/schema"
)

// Agent is one registered participant. Keyed in the view by the
// signer identity that registered it; an agent can only ever be
// mutated by commands from that same identity.
type Agent struct {
	// ID is the signer identity. Assigned externally, stable for the
	// agent's lifetime.
	ID ref.AgentID `json:"id"`

	// Name is the unique, case-sensitive human-facing name.
	Name string `json:"name"`

	// Description is free-form text shown in discovery results.
	Description string `json:"description,omitempty"`

	// Capabilities is the ordered skill list exactly as registered.
	// Kept in lockstep with the capability index: every name here
	// has this agent's id in the index entry, and vice versa.
	Capabilities []schema.Capability `json:"capabilities,omitempty"`

	// Protocol is how the agent prefers to be contacted.
	Protocol schema.Protocol `json:"protocol"`

	// Visibility controls discovery eligibility. Only public agents
	// appear in discovery results.
	Visibility schema.Visibility `json:"visibility"`

	// Status is the self-reported availability.
	Status schema.AgentStatus `json:"status"`

	// Endpoint is an opaque contact string, never validated.
	Endpoint string `json:"endpoint,omitempty"`

	// MatchCount counts matches this agent participated in, as
	// requester or proposer. Monotonically non-decreasing.
	MatchCount uint64 `json:"match_count"`

	// SuccessCount counts successfully completed matches credited to
	// this agent. Monotonically non-decreasing.
	SuccessCount uint64 `json:"success_count"`

	// CreatedAt and UpdatedAt are logical timestamps from the command
	// context, milliseconds. Never wall-clock reads by the engine.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// nameClaim is the value under agentname/<name>, pointing back at the
// owning agent. Makes the duplicate-name check a single Get instead
// of a full scan.
type nameClaim struct {
	AgentID ref.AgentID `json:"agent_id"`
}

// capabilityEntry is the value under cap/<name>: the identities of
// every agent currently listing that capability, in first-listed
// order. Order is preserved because it seeds discovery candidates
// deterministically.
type capabilityEntry struct {
	AgentIDs []ref.AgentID `json:"agent_ids"`
}

// MatchRequest is a task-shaped query seeking capable agents.
type MatchRequest struct {
	// ID is derived from (requester, created_at); see ref.DeriveMatchID.
	ID ref.MatchID `json:"id"`

	// RequesterID is the identity that created the request. Only this
	// identity may accept proposals on it.
	RequesterID ref.AgentID `json:"requester_id"`

	// RequiredCapabilities is the non-empty capability name list.
	RequiredCapabilities []string `json:"required_capabilities"`

	// MinScore is the advisory minimum proposal score.
	MinScore float64 `json:"min_score,omitempty"`

	// TaskDescription is free-form text describing the work.
	TaskDescription string `json:"task_description,omitempty"`

	// PreferredProtocols is the advisory protocol bias.
	PreferredProtocols []schema.Protocol `json:"preferred_protocols,omitempty"`

	// CreatedAt and ExpiresAt are logical timestamps, milliseconds.
	// Expiry is lazy: checked when a proposal arrives, never swept.
	CreatedAt int64 `json:"created_at"`
	ExpiresAt int64 `json:"expires_at"`

	// Status is the request lifecycle state.
	Status schema.RequestStatus `json:"status"`

	// AcceptedWith is the proposer whose bid was accepted. Set
	// exactly when Status is accepted or completed-after-acceptance.
	AcceptedWith ref.AgentID `json:"accepted_with,omitempty"`

	// ChannelID is the coordination channel derived from the match id
	// at acceptance.
	ChannelID ref.ChannelID `json:"channel_id,omitempty"`

	// Outcome is set at completion.
	Outcome *MatchOutcome `json:"outcome,omitempty"`
}

// MatchOutcome records how a match ended.
type MatchOutcome struct {
	// Success is whether the task was accomplished.
	Success bool `json:"success"`

	// CompletedBy is the party that reported completion.
	CompletedBy ref.AgentID `json:"completed_by"`

	// CompletedAt is the logical completion timestamp, milliseconds.
	CompletedAt int64 `json:"completed_at"`

	// Rating is the rating given to the counter-party, if any.
	Rating *float64 `json:"rating,omitempty"`

	// Feedback is free-form text from the completing party.
	Feedback string `json:"feedback,omitempty"`
}

// MatchProposal is one agent's bid on a request. One per
// (request, proposer) pair; re-proposing overwrites.
type MatchProposal struct {
	MatchID    ref.MatchID `json:"match_id"`
	ProposerID ref.AgentID `json:"proposer_id"`

	// Score is the proposer's self-reported fit in [0, 1].
	Score float64 `json:"score"`

	// MatchedCapabilities lists which required capabilities the
	// proposer claims to cover.
	MatchedCapabilities []string `json:"matched_capabilities,omitempty"`

	// ProposedAt is the logical timestamp of the (latest) bid.
	ProposedAt int64 `json:"proposed_at"`

	// Status is the proposal lifecycle state.
	Status schema.ProposalStatus `json:"status"`
}

// channelEntry is the value under channel/<id>: current members in
// join order. A channel exists exactly while this entry does; the
// entry is deleted when the last member leaves.
type channelEntry struct {
	Members []ref.AgentID `json:"members"`
}

// RatingRecord is one rating in an agent's reputation history.
type RatingRecord struct {
	// Rating is the score given, in [0, schema.MaxRating].
	Rating float64 `json:"rating"`

	// From is the rating party.
	From ref.AgentID `json:"from"`

	// MatchID is the completed match the rating came from.
	MatchID ref.MatchID `json:"match_id"`

	// Timestamp is the logical completion time, milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// Reputation is the full rating history for one agent. The average
// is recomputed from the complete list on every append — O(n), but
// auditable, and rating volume per agent is small relative to match
// volume. Survives unregistration for audit.
type Reputation struct {
	AgentID ref.AgentID `json:"agent_id"`

	// TotalRatings is len(Ratings), materialized for cheap stats.
	TotalRatings int `json:"total_ratings"`

	// AverageRating is the mean over Ratings. Recomputed in full on
	// every append; replicas must reproduce it bit-for-bit, and
	// summing the same float64 sequence in the same order does.
	AverageRating float64 `json:"average_rating"`

	// Ratings is the append-only history, in arrival order.
	Ratings []RatingRecord `json:"ratings,omitempty"`
}

// Stats are the directory-wide counters, maintained incrementally
// inside the same transition that changes the underlying collection —
// never recomputed by scanning at read time.
type Stats struct {
	// Agents is the current number of registered agents.
	Agents uint64 `json:"agents"`

	// Channels is the current number of non-empty channels.
	Channels uint64 `json:"channels"`

	// Messages counts record_message commands since genesis.
	Messages uint64 `json:"messages"`

	// MatchRequests counts requests created since genesis.
	MatchRequests uint64 `json:"match_requests"`

	// MatchesAccepted counts acceptances since genesis.
	MatchesAccepted uint64 `json:"matches_accepted"`

	// MatchesCompleted counts completions since genesis.
	MatchesCompleted uint64 `json:"matches_completed"`

	// LastHeartbeat is the logical timestamp of the most recent
	// heartbeat command, milliseconds. Zero until the first beat.
	LastHeartbeat int64 `json:"last_heartbeat,omitempty"`
}
