// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"

	"github.com/meshdir-foundation/meshdir/lib/ref"
)

// DefaultMatchTTL is the request lifetime applied when a creator
// passes no ttl, in milliseconds (24 hours).
const DefaultMatchTTL = int64(24 * 60 * 60 * 1000)

// MaxRating is the upper bound of the completion rating scale. Ratings
// run from 0 (unusable) to 5 (excellent).
const MaxRating = 5.0

// CreateMatchRequest opens a task-shaped query seeking agents whose
// capabilities satisfy it. The match id is not part of the payload:
// it is derived by the transition from the sender and the logical
// timestamp, so every replica computes the same id.
type CreateMatchRequest struct {
	// RequiredCapabilities lists the capability names the task needs.
	// The transition rejects an empty list; validation here only
	// checks element shape so that the "empty set" failure is a
	// domain error, not a schema error.
	RequiredCapabilities []string `json:"required_capabilities"`

	// MinScore is the minimum proposal score the requester will
	// consider, in [0, 1]. Advisory: stored with the request for
	// proposers to read; the engine does not filter on it.
	MinScore float64 `json:"min_score,omitempty"`

	// TaskDescription is free-form text describing the work.
	TaskDescription string `json:"task_description,omitempty"`

	// TTLMillis is the request lifetime in milliseconds. Defaults to
	// DefaultMatchTTL. Expiry is lazy — checked when a proposal
	// arrives, never by a background sweep.
	TTLMillis int64 `json:"ttl_millis,omitempty"`

	// PreferredProtocols biases discovery toward agents speaking one
	// of these protocols. Advisory, like MinScore.
	PreferredProtocols []Protocol `json:"preferred_protocols,omitempty"`
}

func (c *CreateMatchRequest) CommandName() string { return CommandCreateMatch }
func (c *CreateMatchRequest) isCommand()          {}

// Validate checks payload shape.
func (c *CreateMatchRequest) Validate() error {
	if err := validateCapabilityNames("required_capabilities", c.RequiredCapabilities); err != nil {
		return err
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return &ValidationError{Field: "min_score", Reason: fmt.Sprintf("%v outside [0, 1]", c.MinScore)}
	}
	if len(c.TaskDescription) > MaxDescriptionLength {
		return &ValidationError{Field: "task_description", Reason: fmt.Sprintf("%d bytes, maximum is %d", len(c.TaskDescription), MaxDescriptionLength)}
	}
	if c.TTLMillis < 0 {
		return &ValidationError{Field: "ttl_millis", Reason: "must be non-negative"}
	}
	for i, protocol := range c.PreferredProtocols {
		if !protocol.Valid() {
			return enumError(fmt.Sprintf("preferred_protocols[%d]", i), protocol)
		}
	}
	return nil
}

// Sanitize applies the default TTL.
func (c *CreateMatchRequest) Sanitize() {
	if c.TTLMillis == 0 {
		c.TTLMillis = DefaultMatchTTL
	}
}

// ProposeMatch is an agent's bid to fulfill a match request. One
// proposal per (request, proposer) pair; re-proposing overwrites the
// earlier bid.
type ProposeMatch struct {
	// MatchID identifies the request being bid on. Required.
	MatchID ref.MatchID `json:"match_id"`

	// Score is the proposer's self-reported fit in [0, 1].
	Score float64 `json:"score"`

	// MatchedCapabilities lists which of the request's required
	// capabilities the proposer claims to cover.
	MatchedCapabilities []string `json:"matched_capabilities"`
}

func (c *ProposeMatch) CommandName() string { return CommandProposeMatch }
func (c *ProposeMatch) isCommand()          {}

// Validate checks payload shape.
func (c *ProposeMatch) Validate() error {
	if err := c.MatchID.Validate(); err != nil {
		return &ValidationError{Field: "match_id", Reason: err.Error()}
	}
	if c.Score < 0 || c.Score > 1 {
		return &ValidationError{Field: "score", Reason: fmt.Sprintf("%v outside [0, 1]", c.Score)}
	}
	return validateCapabilityNames("matched_capabilities", c.MatchedCapabilities)
}

func (c *ProposeMatch) Sanitize() {}

// AcceptMatch is the requester choosing one proposal. Only the
// original requester may accept; the transition enforces this.
type AcceptMatch struct {
	// MatchID identifies the request. Required.
	MatchID ref.MatchID `json:"match_id"`

	// ProposerID identifies whose proposal is accepted. Required.
	ProposerID ref.AgentID `json:"proposer_id"`
}

func (c *AcceptMatch) CommandName() string { return CommandAcceptMatch }
func (c *AcceptMatch) isCommand()          {}

// Validate checks payload shape.
func (c *AcceptMatch) Validate() error {
	if err := c.MatchID.Validate(); err != nil {
		return &ValidationError{Field: "match_id", Reason: err.Error()}
	}
	if err := c.ProposerID.Validate(); err != nil {
		return &ValidationError{Field: "proposer_id", Reason: err.Error()}
	}
	return nil
}

func (c *AcceptMatch) Sanitize() {}

// CompleteMatch closes a request with an outcome. Either party of the
// match may complete it; a rating, when present, always lands on the
// counter-party's reputation — an agent can never rate itself.
type CompleteMatch struct {
	// MatchID identifies the request. Required.
	MatchID ref.MatchID `json:"match_id"`

	// Success records whether the task was accomplished.
	Success bool `json:"success"`

	// Rating is an optional score for the counter-party in
	// [0, MaxRating]. Nil means no rating is recorded.
	Rating *float64 `json:"rating,omitempty"`

	// Feedback is optional free-form text stored with the outcome.
	Feedback string `json:"feedback,omitempty"`
}

func (c *CompleteMatch) CommandName() string { return CommandCompleteMatch }
func (c *CompleteMatch) isCommand()          {}

// Validate checks payload shape.
func (c *CompleteMatch) Validate() error {
	if err := c.MatchID.Validate(); err != nil {
		return &ValidationError{Field: "match_id", Reason: err.Error()}
	}
	if c.Rating != nil && (*c.Rating < 0 || *c.Rating > MaxRating) {
		return &ValidationError{Field: "rating", Reason: fmt.Sprintf("%v outside [0, %v]", *c.Rating, MaxRating)}
	}
	if len(c.Feedback) > MaxFeedbackLength {
		return &ValidationError{Field: "feedback", Reason: fmt.Sprintf("%d bytes, maximum is %d", len(c.Feedback), MaxFeedbackLength)}
	}
	return nil
}

func (c *CompleteMatch) Sanitize() {}
