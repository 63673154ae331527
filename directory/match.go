// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"github.com/meshdir-foundation/meshdir/lib/ref"
	"github.com/meshdir-foundation/meshdir/lib/schema"
)

// createMatchRequest opens a pending request. Registration is not a
// precondition: the request carries its own requester identity, and
// the only rejection is an empty capability set. The match id is
// derived from (sender, timestamp); if the same sender creates two
// requests within the same logical millisecond the second overwrites
// the first, which is acceptable because the log's timestamps are
// strictly non-decreasing and same-sender commands in one millisecond
// are a host-side pathology.
func createMatchRequest(t *txn, cmd *schema.CreateMatchRequest, ctx schema.Context) ([]Event, error) {
	if len(cmd.RequiredCapabilities) == 0 {
		return nil, ErrEmptyCapabilitySet
	}

	id := ref.DeriveMatchID(ctx.Sender, ctx.Timestamp)
	request := MatchRequest{
		ID:                   id,
		RequesterID:          ctx.Sender,
		RequiredCapabilities: cmd.RequiredCapabilities,
		MinScore:             cmd.MinScore,
		TaskDescription:      cmd.TaskDescription,
		PreferredProtocols:   cmd.PreferredProtocols,
		CreatedAt:            ctx.Timestamp,
		ExpiresAt:            ctx.Timestamp + cmd.TTLMillis,
		Status:               schema.RequestPending,
	}
	if err := t.put(matchKey(id), &request); err != nil {
		return nil, err
	}

	stats, err := t.stats()
	if err != nil {
		return nil, err
	}
	stats.MatchRequests++
	if err := t.put(keyStats, &stats); err != nil {
		return nil, err
	}

	return []Event{{
		Type:      EventMatchCreated,
		Timestamp: ctx.Timestamp,
		AgentID:   ctx.Sender,
		MatchID:   id,
	}}, nil
}

// proposeMatch records the sender's bid on a pending request. Expiry
// is checked here lazily: the first proposal after the deadline gets
// the rejection, and the request stays in the view for audit.
func proposeMatch(t *txn, cmd *schema.ProposeMatch, ctx schema.Context) ([]Event, error) {
	if exists, err := t.exists(agentKey(ctx.Sender)); err != nil {
		return nil, err
	} else if !exists {
		return nil, ErrProposerNotRegistered
	}

	request, err := loadRequest(t, cmd.MatchID)
	if err != nil {
		return nil, err
	}
	if ctx.Timestamp > request.ExpiresAt {
		return nil, ErrRequestExpired
	}
	if request.Status != schema.RequestPending {
		return nil, ErrRequestNotPending
	}

	proposal := MatchProposal{
		MatchID:             cmd.MatchID,
		ProposerID:          ctx.Sender,
		Score:               cmd.Score,
		MatchedCapabilities: cmd.MatchedCapabilities,
		ProposedAt:          ctx.Timestamp,
		Status:              schema.ProposalProposed,
	}
	if err := t.put(proposalKey(cmd.MatchID, ctx.Sender), &proposal); err != nil {
		return nil, err
	}

	return []Event{{
		Type:      EventMatchProposed,
		Timestamp: ctx.Timestamp,
		AgentID:   ctx.Sender,
		MatchID:   cmd.MatchID,
	}}, nil
}

// acceptMatch moves the request to accepted, marks the chosen
// proposal, rejects every other open proposal in key order, derives
// the coordination channel, and credits both parties' match counts.
func acceptMatch(t *txn, cmd *schema.AcceptMatch, ctx schema.Context) ([]Event, error) {
	request, err := loadRequest(t, cmd.MatchID)
	if err != nil {
		return nil, err
	}
	if ctx.Sender != request.RequesterID {
		return nil, ErrUnauthorized
	}
	if request.Status != schema.RequestPending {
		return nil, ErrRequestNotPending
	}

	chosenKey := proposalKey(cmd.MatchID, cmd.ProposerID)
	var chosen MatchProposal
	if ok, err := t.get(chosenKey, &chosen); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrProposalNotFound
	}

	chosen.Status = schema.ProposalAccepted
	if err := t.put(chosenKey, &chosen); err != nil {
		return nil, err
	}

	events := []Event{{
		Type:         EventMatchAccepted,
		Timestamp:    ctx.Timestamp,
		AgentID:      ctx.Sender,
		MatchID:      cmd.MatchID,
		Counterparty: cmd.ProposerID,
	}}

	// Reject the losing bids. The scan's key order makes the
	// rejection sequence identical on every replica.
	prefix := proposalPrefix(cmd.MatchID)
	err = t.scan(prefix, func(key string, raw []byte) error {
		if key == chosenKey {
			return nil
		}
		var proposal MatchProposal
		if err := decodeValue(key, raw, &proposal); err != nil {
			return err
		}
		if proposal.Status != schema.ProposalProposed {
			return nil
		}
		proposal.Status = schema.ProposalRejected
		if err := t.put(key, &proposal); err != nil {
			return err
		}
		events = append(events, Event{
			Type:         EventProposalRejected,
			Timestamp:    ctx.Timestamp,
			AgentID:      request.RequesterID,
			MatchID:      cmd.MatchID,
			Counterparty: proposal.ProposerID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	request.Status = schema.RequestAccepted
	request.AcceptedWith = cmd.ProposerID
	request.ChannelID = ref.DeriveChannelID(cmd.MatchID)
	if err := t.put(matchKey(cmd.MatchID), &request); err != nil {
		return nil, err
	}

	for _, id := range []ref.AgentID{request.RequesterID, cmd.ProposerID} {
		if err := bumpMatchCount(t, id); err != nil {
			return nil, err
		}
	}

	stats, err := t.stats()
	if err != nil {
		return nil, err
	}
	stats.MatchesAccepted++
	if err := t.put(keyStats, &stats); err != nil {
		return nil, err
	}

	return events, nil
}

// completeMatch closes a request. Either party may complete — the
// requester always, the accepted proposer once there is one. A
// pending request can be completed directly (the requester withdrawing
// or resolving out of band); rating and success credit apply only
// when an accepted counter-party exists, and the rating always lands
// on the other party — an agent never rates itself.
func completeMatch(t *txn, cmd *schema.CompleteMatch, ctx schema.Context) ([]Event, error) {
	request, err := loadRequest(t, cmd.MatchID)
	if err != nil {
		return nil, err
	}
	authorized := ctx.Sender == request.RequesterID ||
		(request.AcceptedWith != "" && ctx.Sender == request.AcceptedWith)
	if !authorized {
		return nil, ErrUnauthorized
	}
	if request.Status == schema.RequestCompleted {
		return nil, ErrRequestNotPending
	}

	request.Status = schema.RequestCompleted
	request.Outcome = &MatchOutcome{
		Success:     cmd.Success,
		CompletedBy: ctx.Sender,
		CompletedAt: ctx.Timestamp,
		Rating:      cmd.Rating,
		Feedback:    cmd.Feedback,
	}
	if err := t.put(matchKey(cmd.MatchID), &request); err != nil {
		return nil, err
	}

	var counterparty ref.AgentID
	if request.AcceptedWith != "" {
		counterparty = request.AcceptedWith
		if ctx.Sender == request.AcceptedWith {
			counterparty = request.RequesterID
		}
	}

	if counterparty != "" && cmd.Rating != nil {
		if err := recordRating(t, counterparty, RatingRecord{
			Rating:    *cmd.Rating,
			From:      ctx.Sender,
			MatchID:   cmd.MatchID,
			Timestamp: ctx.Timestamp,
		}); err != nil {
			return nil, err
		}
		if cmd.Success {
			if err := bumpSuccessCount(t, counterparty); err != nil {
				return nil, err
			}
		}
	}

	stats, err := t.stats()
	if err != nil {
		return nil, err
	}
	stats.MatchesCompleted++
	if err := t.put(keyStats, &stats); err != nil {
		return nil, err
	}

	return []Event{{
		Type:         EventMatchCompleted,
		Timestamp:    ctx.Timestamp,
		AgentID:      ctx.Sender,
		MatchID:      cmd.MatchID,
		ChannelID:    request.ChannelID,
		Counterparty: counterparty,
	}}, nil
}

func loadRequest(t *txn, id ref.MatchID) (MatchRequest, error) {
	var request MatchRequest
	ok, err := t.get(matchKey(id), &request)
	if err != nil {
		return MatchRequest{}, err
	}
	if !ok {
		return MatchRequest{}, ErrRequestNotFound
	}
	return request, nil
}

// bumpMatchCount increments the agent's participation counter. The
// agent may have unregistered between proposing and acceptance; that
// is not an error, the credit is simply dropped.
func bumpMatchCount(t *txn, id ref.AgentID) error {
	var agent Agent
	ok, err := t.get(agentKey(id), &agent)
	if err != nil || !ok {
		return err
	}
	agent.MatchCount++
	return t.put(agentKey(id), &agent)
}

func bumpSuccessCount(t *txn, id ref.AgentID) error {
	var agent Agent
	ok, err := t.get(agentKey(id), &agent)
	if err != nil || !ok {
		return err
	}
	agent.SuccessCount++
	return t.put(agentKey(id), &agent)
}
