// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"errors"

	"github.com/meshdir-foundation/meshdir/lib/ref"
	"github.com/meshdir-foundation/meshdir/lib/schema"
)

// Read paths. All are pure functions over a View; the host must
// serve them strictly between transitions (see the package doc).
// List functions return entries in ascending key order.

// GetAgent returns the agent record for id, if registered.
func GetAgent(view View, id ref.AgentID) (Agent, bool, error) {
	raw, ok, err := view.Get(agentKey(id))
	if err != nil || !ok {
		return Agent{}, false, err
	}
	var agent Agent
	if err := decodeValue(agentKey(id), raw, &agent); err != nil {
		return Agent{}, false, err
	}
	return agent, true, nil
}

// GetAgentByName resolves a unique agent name to its record.
func GetAgentByName(view View, name string) (Agent, bool, error) {
	raw, ok, err := view.Get(agentNameKey(name))
	if err != nil || !ok {
		return Agent{}, false, err
	}
	var claim nameClaim
	if err := decodeValue(agentNameKey(name), raw, &claim); err != nil {
		return Agent{}, false, err
	}
	agent, ok, err := GetAgent(view, claim.AgentID)
	if err != nil {
		return Agent{}, false, err
	}
	if !ok {
		return Agent{}, false, desyncf(agentNameKey(name), nil, "name claim points at missing agent %s", claim.AgentID)
	}
	return agent, true, nil
}

// ListAgents returns registered agents, optionally filtered by
// status. A limit of zero or less means no truncation.
func ListAgents(view View, status *schema.AgentStatus, limit int) ([]Agent, error) {
	var agents []Agent
	err := view.Scan(prefixAgent, func(key string, raw []byte) error {
		if limit > 0 && len(agents) == limit {
			return errScanDone
		}
		var agent Agent
		if err := decodeValue(key, raw, &agent); err != nil {
			return err
		}
		if status != nil && agent.Status != *status {
			return nil
		}
		agents = append(agents, agent)
		return nil
	})
	if err != nil && err != errScanDone {
		return nil, err
	}
	return agents, nil
}

// ListMatchRequests returns match requests, optionally filtered by
// status and requester. A limit of zero or less means no truncation.
func ListMatchRequests(view View, status *schema.RequestStatus, requester ref.AgentID, limit int) ([]MatchRequest, error) {
	var requests []MatchRequest
	err := view.Scan(prefixMatch, func(key string, raw []byte) error {
		if limit > 0 && len(requests) == limit {
			return errScanDone
		}
		var request MatchRequest
		if err := decodeValue(key, raw, &request); err != nil {
			return err
		}
		if status != nil && request.Status != *status {
			return nil
		}
		if requester != "" && request.RequesterID != requester {
			return nil
		}
		requests = append(requests, request)
		return nil
	})
	if err != nil && err != errScanDone {
		return nil, err
	}
	return requests, nil
}

// ListProposals returns every proposal on a match request, in
// proposer key order.
func ListProposals(view View, match ref.MatchID) ([]MatchProposal, error) {
	var proposals []MatchProposal
	err := view.Scan(proposalPrefix(match), func(key string, raw []byte) error {
		var proposal MatchProposal
		if err := decodeValue(key, raw, &proposal); err != nil {
			return err
		}
		proposals = append(proposals, proposal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

// ChannelMembers returns a channel's member set in join order. An
// unknown channel yields an empty slice: a channel with no members
// does not exist.
func ChannelMembers(view View, channel ref.ChannelID) ([]ref.AgentID, error) {
	raw, ok, err := view.Get(channelKey(channel))
	if err != nil || !ok {
		return nil, err
	}
	var entry channelEntry
	if err := decodeValue(channelKey(channel), raw, &entry); err != nil {
		return nil, err
	}
	return entry.Members, nil
}

// GetReputation returns the rating history for an agent. Agents with
// no ratings yet get a zero-valued record rather than a miss, so
// callers can render "no ratings" without a special case.
func GetReputation(view View, id ref.AgentID) (Reputation, error) {
	raw, ok, err := view.Get(reputationKey(id))
	if err != nil {
		return Reputation{}, err
	}
	if !ok {
		return Reputation{AgentID: id}, nil
	}
	var reputation Reputation
	if err := decodeValue(reputationKey(id), raw, &reputation); err != nil {
		return Reputation{}, err
	}
	return reputation, nil
}

// GetStats returns the directory-wide counters.
func GetStats(view View) (Stats, error) {
	raw, ok, err := view.Get(keyStats)
	if err != nil || !ok {
		return Stats{}, err
	}
	var stats Stats
	if err := decodeValue(keyStats, raw, &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// errScanDone stops a prefix scan once a limit is reached. Never
// escapes this package.
var errScanDone = errors.New("scan done")
