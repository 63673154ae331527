// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import "github.com/meshdir-foundation/meshdir/lib/schema"

// registerAgent creates the agent record, claims the name, seeds the
// capability index, and bumps the agent count.
func registerAgent(t *txn, cmd *schema.RegisterAgent, ctx schema.Context) ([]Event, error) {
	key := agentKey(ctx.Sender)
	if exists, err := t.exists(key); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrAlreadyRegistered
	}

	var claim nameClaim
	if ok, err := t.get(agentNameKey(cmd.Name), &claim); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrDuplicateName
	}

	agent := Agent{
		ID:           ctx.Sender,
		Name:         cmd.Name,
		Description:  cmd.Description,
		Capabilities: cmd.Capabilities,
		Protocol:     cmd.Protocol,
		Visibility:   cmd.Visibility,
		Status:       schema.AgentOnline,
		Endpoint:     cmd.Endpoint,
		CreatedAt:    ctx.Timestamp,
		UpdatedAt:    ctx.Timestamp,
	}
	if err := t.put(key, &agent); err != nil {
		return nil, err
	}
	if err := t.put(agentNameKey(cmd.Name), &nameClaim{AgentID: ctx.Sender}); err != nil {
		return nil, err
	}
	if err := indexAdd(t, ctx.Sender, agent.Capabilities); err != nil {
		return nil, err
	}

	stats, err := t.stats()
	if err != nil {
		return nil, err
	}
	stats.Agents++
	if err := t.put(keyStats, &stats); err != nil {
		return nil, err
	}

	return []Event{{
		Type:      EventAgentRegistered,
		Timestamp: ctx.Timestamp,
		AgentID:   ctx.Sender,
	}}, nil
}

// updateAgent applies the non-nil fields of the update to the
// sender's record. A supplied capability list swaps the index
// entries: remove under the old list, insert under the new.
func updateAgent(t *txn, cmd *schema.UpdateAgent, ctx schema.Context) ([]Event, error) {
	agent, err := t.agent(ctx)
	if err != nil {
		return nil, err
	}

	if cmd.Status != nil {
		agent.Status = *cmd.Status
	}
	if cmd.Visibility != nil {
		agent.Visibility = *cmd.Visibility
	}
	if cmd.Endpoint != nil {
		agent.Endpoint = *cmd.Endpoint
	}
	if cmd.Capabilities != nil {
		if err := indexRemove(t, agent.ID, agent.Capabilities); err != nil {
			return nil, err
		}
		agent.Capabilities = *cmd.Capabilities
		if err := indexAdd(t, agent.ID, agent.Capabilities); err != nil {
			return nil, err
		}
	}
	agent.UpdatedAt = ctx.Timestamp

	if err := t.put(agentKey(agent.ID), &agent); err != nil {
		return nil, err
	}
	return []Event{{
		Type:      EventAgentUpdated,
		Timestamp: ctx.Timestamp,
		AgentID:   agent.ID,
	}}, nil
}

// unregisterAgent removes the record, the name claim, and the index
// entries. Reputation, match history, and channel memberships are
// retained; the identity simply stops being discoverable or able to
// act.
func unregisterAgent(t *txn, ctx schema.Context) ([]Event, error) {
	agent, err := t.agent(ctx)
	if err != nil {
		return nil, err
	}

	if err := indexRemove(t, agent.ID, agent.Capabilities); err != nil {
		return nil, err
	}
	t.del(agentNameKey(agent.Name))
	t.del(agentKey(agent.ID))

	stats, err := t.stats()
	if err != nil {
		return nil, err
	}
	stats.Agents--
	if err := t.put(keyStats, &stats); err != nil {
		return nil, err
	}

	return []Event{{
		Type:      EventAgentUnregistered,
		Timestamp: ctx.Timestamp,
		AgentID:   agent.ID,
	}}, nil
}

// heartbeat stamps the liveness timestamp into the global counters.
// The sender is the host's own service identity, not a registered
// agent, so there is no registration check.
func heartbeat(t *txn, ctx schema.Context) ([]Event, error) {
	stats, err := t.stats()
	if err != nil {
		return nil, err
	}
	stats.LastHeartbeat = ctx.Timestamp
	if err := t.put(keyStats, &stats); err != nil {
		return nil, err
	}
	return []Event{{Type: EventHeartbeat, Timestamp: ctx.Timestamp, AgentID: ctx.Sender}}, nil
}
