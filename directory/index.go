// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"strings"

	"github.com/meshdir-foundation/meshdir/lib/codec"
	"github.com/meshdir-foundation/meshdir/lib/ref"
	"github.com/meshdir-foundation/meshdir/lib/schema"
)

// The capability index maps capability name to the agents listing it.
// It changes only inside the same transition that changes the
// owning agent's capability list, so the two can never diverge on a
// converged replica. CheckConsistency verifies the invariant
// offline.

// indexAdd inserts the agent under every capability name in the
// list. Duplicate names within one list collapse to a single entry.
func indexAdd(t *txn, id ref.AgentID, capabilities []schema.Capability) error {
	seen := make(map[string]bool, len(capabilities))
	for _, capability := range capabilities {
		if seen[capability.Name] {
			continue
		}
		seen[capability.Name] = true

		key := capabilityKey(capability.Name)
		var entry capabilityEntry
		if _, err := t.get(key, &entry); err != nil {
			return err
		}
		if containsAgent(entry.AgentIDs, id) {
			continue
		}
		entry.AgentIDs = append(entry.AgentIDs, id)
		if err := t.put(key, &entry); err != nil {
			return err
		}
	}
	return nil
}

// indexRemove removes the agent from every capability name in the
// list, deleting entries that become empty.
func indexRemove(t *txn, id ref.AgentID, capabilities []schema.Capability) error {
	seen := make(map[string]bool, len(capabilities))
	for _, capability := range capabilities {
		if seen[capability.Name] {
			continue
		}
		seen[capability.Name] = true

		key := capabilityKey(capability.Name)
		var entry capabilityEntry
		ok, err := t.get(key, &entry)
		if err != nil {
			return err
		}
		if !ok {
			return desyncf(key, nil, "missing index entry for agent %s", id)
		}
		entry.AgentIDs = removeAgent(entry.AgentIDs, id)
		if len(entry.AgentIDs) == 0 {
			t.del(key)
			continue
		}
		if err := t.put(key, &entry); err != nil {
			return err
		}
	}
	return nil
}

func containsAgent(ids []ref.AgentID, id ref.AgentID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func removeAgent(ids []ref.AgentID, id ref.AgentID) []ref.AgentID {
	kept := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// CheckConsistency verifies the agent/index lockstep invariant over a
// full view: every capability an agent lists appears in the index
// with that agent's id, every index entry points at live agents that
// list the capability, and no entry is empty. Used by the offline
// checker and by replay tests.
func CheckConsistency(view View) error {
	agents := make(map[ref.AgentID]map[string]bool)
	err := view.Scan(prefixAgent, func(key string, raw []byte) error {
		var agent Agent
		if err := decodeValue(key, raw, &agent); err != nil {
			return err
		}
		names := make(map[string]bool, len(agent.Capabilities))
		for _, capability := range agent.Capabilities {
			names[capability.Name] = true
		}
		agents[agent.ID] = names
		return nil
	})
	if err != nil {
		return err
	}

	indexed := make(map[ref.AgentID]map[string]bool)
	err = view.Scan(prefixCapability, func(key string, raw []byte) error {
		var entry capabilityEntry
		if err := decodeValue(key, raw, &entry); err != nil {
			return err
		}
		name := strings.TrimPrefix(key, prefixCapability)
		if len(entry.AgentIDs) == 0 {
			return desyncf(key, nil, "empty index entry")
		}
		for _, id := range entry.AgentIDs {
			names, live := agents[id]
			if !live {
				return desyncf(key, nil, "index references unregistered agent %s", id)
			}
			if !names[name] {
				return desyncf(key, nil, "agent %s does not list capability %q", id, name)
			}
			if indexed[id] == nil {
				indexed[id] = make(map[string]bool)
			}
			indexed[id][name] = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	for id, names := range agents {
		for name := range names {
			if !indexed[id][name] {
				return desyncf(capabilityKey(name), nil, "agent %s listed but not indexed", id)
			}
		}
	}
	return nil
}

// decodeValue unmarshals a view value, wrapping failures as desync:
// every value under these prefixes was written by this package and
// must decode.
func decodeValue(key string, raw []byte, out any) error {
	if err := codec.Unmarshal(raw, out); err != nil {
		return desyncf(key, err, "undecodable value")
	}
	return nil
}
