// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import "github.com/meshdir-foundation/meshdir/lib/ref"

// View key layout. Every entity class gets its own prefix so list
// queries are prefix scans. Prefixes are protocol constants: changing
// one invalidates every persisted view and snapshot.
//
//	agent/<agentID>                  -> Agent
//	agentname/<name>                 -> nameClaim (uniqueness index)
//	cap/<capabilityName>             -> capabilityEntry
//	match/<matchID>                  -> MatchRequest
//	proposal/<matchID>/<proposerID>  -> MatchProposal
//	channel/<channelID>              -> channelEntry
//	reputation/<agentID>             -> Reputation
//	stats                            -> Stats
//
// Match ids have a fixed derived form with no slashes, so the
// proposal key splits unambiguously at the second separator even
// though agent ids are opaque and may contain slashes themselves.
const (
	prefixAgent      = "agent/"
	prefixAgentName  = "agentname/"
	prefixCapability = "cap/"
	prefixMatch      = "match/"
	prefixProposal   = "proposal/"
	prefixChannel    = "channel/"
	prefixReputation = "reputation/"
	keyStats         = "stats"
)

func agentKey(id ref.AgentID) string           { return prefixAgent + string(id) }
func agentNameKey(name string) string          { return prefixAgentName + name }
func capabilityKey(name string) string         { return prefixCapability + name }
func matchKey(id ref.MatchID) string           { return prefixMatch + string(id) }
func channelKey(id ref.ChannelID) string       { return prefixChannel + string(id) }
func reputationKey(id ref.AgentID) string      { return prefixReputation + string(id) }
func proposalPrefix(match ref.MatchID) string  { return prefixProposal + string(match) + "/" }
func proposalKey(match ref.MatchID, proposer ref.AgentID) string {
	return proposalPrefix(match) + string(proposer)
}
