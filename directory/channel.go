// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import "github.com/meshdir-foundation/meshdir/lib/schema"

// joinChannel adds the sender to the member set, creating the channel
// on first join. Joining a channel the sender is already in is a
// no-op success so retried joins replay cleanly.
func joinChannel(t *txn, cmd *schema.JoinChannel, ctx schema.Context) ([]Event, error) {
	if _, err := t.agent(ctx); err != nil {
		return nil, err
	}

	key := channelKey(cmd.ChannelID)
	var channel channelEntry
	ok, err := t.get(key, &channel)
	if err != nil {
		return nil, err
	}
	if containsAgent(channel.Members, ctx.Sender) {
		return nil, nil
	}
	channel.Members = append(channel.Members, ctx.Sender)
	if err := t.put(key, &channel); err != nil {
		return nil, err
	}

	if !ok {
		// First member brought the channel into existence.
		stats, err := t.stats()
		if err != nil {
			return nil, err
		}
		stats.Channels++
		if err := t.put(keyStats, &stats); err != nil {
			return nil, err
		}
	}

	return []Event{{
		Type:      EventChannelJoined,
		Timestamp: ctx.Timestamp,
		AgentID:   ctx.Sender,
		ChannelID: cmd.ChannelID,
	}}, nil
}

// leaveChannel removes the sender from the member set. The last
// departure deletes the entry and decrements the channel gauge.
// Leaving a channel the sender is not in (or that does not exist) is
// a no-op success.
func leaveChannel(t *txn, cmd *schema.LeaveChannel, ctx schema.Context) ([]Event, error) {
	key := channelKey(cmd.ChannelID)
	var channel channelEntry
	ok, err := t.get(key, &channel)
	if err != nil {
		return nil, err
	}
	if !ok || !containsAgent(channel.Members, ctx.Sender) {
		return nil, nil
	}

	channel.Members = removeAgent(channel.Members, ctx.Sender)
	if len(channel.Members) == 0 {
		t.del(key)
		stats, err := t.stats()
		if err != nil {
			return nil, err
		}
		stats.Channels--
		if err := t.put(keyStats, &stats); err != nil {
			return nil, err
		}
	} else if err := t.put(key, &channel); err != nil {
		return nil, err
	}

	return []Event{{
		Type:      EventChannelLeft,
		Timestamp: ctx.Timestamp,
		AgentID:   ctx.Sender,
		ChannelID: cmd.ChannelID,
	}}, nil
}

// recordMessage bumps the global message counter and nothing else.
// The channel id is informational attribution; it is never checked
// against live channels, so the command cannot fail after validation.
func recordMessage(t *txn, cmd *schema.RecordMessage, ctx schema.Context) ([]Event, error) {
	stats, err := t.stats()
	if err != nil {
		return nil, err
	}
	stats.Messages++
	if err := t.put(keyStats, &stats); err != nil {
		return nil, err
	}

	return []Event{{
		Type:      EventMessageRecorded,
		Timestamp: ctx.Timestamp,
		AgentID:   ctx.Sender,
		ChannelID: cmd.ChannelID,
	}}, nil
}
