// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"sort"

	"github.com/meshdir-foundation/meshdir/lib/ref"
	"github.com/meshdir-foundation/meshdir/lib/schema"
)

// DiscoverQuery selects and ranks public agents.
type DiscoverQuery struct {
	// Capabilities is the list of capability names to match. Empty
	// means browse: every public agent qualifies with score 1.
	Capabilities []string `json:"capabilities,omitempty"`

	// Categories restricts which of an agent's capabilities count
	// toward matching. Empty means no restriction.
	Categories []string `json:"categories,omitempty"`

	// MinProficiency excludes capabilities below this level from
	// matching and scoring.
	MinProficiency float64 `json:"min_proficiency,omitempty"`

	// Status, when non-nil, keeps only agents reporting that status.
	Status *schema.AgentStatus `json:"status,omitempty"`

	// Limit truncates the ranked result. Zero or negative means no
	// truncation.
	Limit int `json:"limit,omitempty"`
}

// DiscoverResult is one ranked hit.
type DiscoverResult struct {
	Agent Agent `json:"agent"`

	// Score is the ranking value: the summed proficiency of matched
	// capabilities divided by the number of requested names, or 1 for
	// a browse query.
	Score float64 `json:"score"`

	// MatchedCapabilities lists which requested names the agent
	// covered, in the agent's own capability order.
	MatchedCapabilities []string `json:"matched_capabilities,omitempty"`
}

// Discover ranks public agents against the query. Pure read path:
// the view is never written, and for a fixed view and query the
// result order is fully deterministic.
//
// Candidate order is the determinism anchor for score ties. A
// capability-filtered query seeds candidates from the index entries
// in requested-name order, each entry in its insertion order; a
// browse query seeds from the agent prefix scan in key order. The
// final sort is stable and descending by score, so ties keep seed
// order.
func Discover(view View, query DiscoverQuery) ([]DiscoverResult, error) {
	candidates, err := discoverCandidates(view, query.Capabilities)
	if err != nil {
		return nil, err
	}

	categories := stringSet(query.Categories)
	requested := stringSet(query.Capabilities)

	results := make([]DiscoverResult, 0, len(candidates))
	for _, id := range candidates {
		agent, ok, err := GetAgent(view, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Index entries only reference live agents; a miss here
			// means the view is corrupt.
			return nil, desyncf(agentKey(id), nil, "candidate agent missing")
		}
		if agent.Visibility != schema.VisibilityPublic {
			continue
		}
		if query.Status != nil && agent.Status != *query.Status {
			continue
		}

		result := scoreAgent(agent, requested, categories, query.MinProficiency, len(query.Capabilities))
		if len(query.Capabilities) > 0 && len(result.MatchedCapabilities) == 0 {
			continue
		}
		if len(query.Capabilities) == 0 && len(categories) > 0 && len(result.MatchedCapabilities) == 0 {
			continue
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results, nil
}

// discoverCandidates seeds the candidate id list. Filtered queries
// take the union of index lookups; browse queries take every agent.
func discoverCandidates(view View, capabilities []string) ([]ref.AgentID, error) {
	if len(capabilities) == 0 {
		var ids []ref.AgentID
		err := view.Scan(prefixAgent, func(key string, raw []byte) error {
			var agent Agent
			if err := decodeValue(key, raw, &agent); err != nil {
				return err
			}
			ids = append(ids, agent.ID)
			return nil
		})
		return ids, err
	}

	var ids []ref.AgentID
	seen := make(map[ref.AgentID]bool)
	for _, name := range capabilities {
		raw, ok, err := view.Get(capabilityKey(name))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var entry capabilityEntry
		if err := decodeValue(capabilityKey(name), raw, &entry); err != nil {
			return nil, err
		}
		for _, id := range entry.AgentIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// scoreAgent computes the agent's score against the requested names.
// A capability counts when its name was requested (or nothing was),
// its category passes the filter, and its proficiency clears the
// floor. The denominator is the length of the query's capability list
// as sent, not the deduplicated set, so a query with repeated names
// scores the same on every conforming replica. Browse queries score a
// flat 1 so that "no filter" means "everyone, unranked" rather than a
// proficiency contest.
func scoreAgent(agent Agent, requested, categories map[string]bool, minProficiency float64, requestedCount int) DiscoverResult {
	result := DiscoverResult{Agent: agent}
	for _, capability := range agent.Capabilities {
		if len(requested) > 0 && !requested[capability.Name] {
			continue
		}
		if len(categories) > 0 && !categories[capability.Category] {
			continue
		}
		if capability.Proficiency < minProficiency {
			continue
		}
		result.MatchedCapabilities = append(result.MatchedCapabilities, capability.Name)
		result.Score += capability.Proficiency
	}
	if requestedCount == 0 {
		result.Score = 1
	} else {
		result.Score /= float64(requestedCount)
	}
	return result
}

func stringSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, value := range values {
		set[value] = true
	}
	return set
}
