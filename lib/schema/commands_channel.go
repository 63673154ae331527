// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "github.com/meshdir-foundation/meshdir/lib/ref"

// JoinChannel adds the sender to a channel's member set. A channel
// exists exactly while its member set is non-empty; the first join
// creates it implicitly.
type JoinChannel struct {
	// ChannelID identifies the channel. Required.
	ChannelID ref.ChannelID `json:"channel_id"`
}

func (c *JoinChannel) CommandName() string { return CommandJoinChannel }
func (c *JoinChannel) isCommand()          {}

// Validate checks payload shape.
func (c *JoinChannel) Validate() error {
	if err := c.ChannelID.Validate(); err != nil {
		return &ValidationError{Field: "channel_id", Reason: err.Error()}
	}
	return nil
}

func (c *JoinChannel) Sanitize() {}

// LeaveChannel removes the sender from a channel's member set.
// Leaving a channel the sender is not in is a no-op, not an error —
// the command is idempotent so retried departures replay cleanly.
type LeaveChannel struct {
	// ChannelID identifies the channel. Required.
	ChannelID ref.ChannelID `json:"channel_id"`
}

func (c *LeaveChannel) CommandName() string { return CommandLeaveChannel }
func (c *LeaveChannel) isCommand()          {}

// Validate checks payload shape.
func (c *LeaveChannel) Validate() error {
	if err := c.ChannelID.Validate(); err != nil {
		return &ValidationError{Field: "channel_id", Reason: err.Error()}
	}
	return nil
}

func (c *LeaveChannel) Sanitize() {}

// RecordMessage bumps the global message counter for dashboard
// statistics. Message content never enters the directory — agents
// exchange actual traffic over their own transport; the directory
// only counts.
type RecordMessage struct {
	// ChannelID optionally attributes the message to a channel.
	// Informational only; the counter is global either way.
	ChannelID ref.ChannelID `json:"channel_id,omitempty"`
}

func (c *RecordMessage) CommandName() string { return CommandRecordMessage }
func (c *RecordMessage) isCommand()          {}

// Validate checks payload shape.
func (c *RecordMessage) Validate() error {
	if c.ChannelID != "" {
		if err := c.ChannelID.Validate(); err != nil {
			return &ValidationError{Field: "channel_id", Reason: err.Error()}
		}
	}
	return nil
}

func (c *RecordMessage) Sanitize() {}
