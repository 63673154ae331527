// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"errors"
	"reflect"
	"testing"

	"github.com/meshdir-foundation/meshdir/lib/ref"
	"github.com/meshdir-foundation/meshdir/lib/schema"
)

func TestChannelLifecycle(t *testing.T) {
	d := newTestDirectory(t)
	d.register("alice", "alice")
	d.register("bob", "bob")
	channel := ref.ChannelID("project-room")

	d.apply("alice", &schema.JoinChannel{ChannelID: channel})
	if stats := d.mustStats(); stats.Channels != 1 {
		t.Errorf("stats.Channels = %d after first join, want 1", stats.Channels)
	}

	d.apply("bob", &schema.JoinChannel{ChannelID: channel})
	if stats := d.mustStats(); stats.Channels != 1 {
		t.Errorf("stats.Channels = %d after second join, want 1", stats.Channels)
	}

	members, err := ChannelMembers(d.view, channel)
	if err != nil {
		t.Fatalf("ChannelMembers: %v", err)
	}
	want := []ref.AgentID{"alice", "bob"}
	if !reflect.DeepEqual(members, want) {
		t.Errorf("members = %v, want %v (join order)", members, want)
	}

	d.apply("alice", &schema.LeaveChannel{ChannelID: channel})
	if stats := d.mustStats(); stats.Channels != 1 {
		t.Errorf("stats.Channels = %d with one member left, want 1", stats.Channels)
	}

	d.apply("bob", &schema.LeaveChannel{ChannelID: channel})
	if stats := d.mustStats(); stats.Channels != 0 {
		t.Errorf("stats.Channels = %d after last leave, want 0", stats.Channels)
	}
	if members, _ := ChannelMembers(d.view, channel); members != nil {
		t.Errorf("members = %v after last leave, want none", members)
	}
}

func TestJoinChannelIdempotent(t *testing.T) {
	d := newTestDirectory(t)
	d.register("alice", "alice")
	channel := ref.ChannelID("project-room")

	d.apply("alice", &schema.JoinChannel{ChannelID: channel})
	d.apply("alice", &schema.JoinChannel{ChannelID: channel})

	members, _ := ChannelMembers(d.view, channel)
	if len(members) != 1 {
		t.Errorf("members = %v, want a single alice", members)
	}
	if stats := d.mustStats(); stats.Channels != 1 {
		t.Errorf("stats.Channels = %d, want 1", stats.Channels)
	}
}

func TestJoinChannelRequiresRegistration(t *testing.T) {
	d := newTestDirectory(t)
	_, err := d.tryApply("stranger", &schema.JoinChannel{ChannelID: "project-room"})
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("join = %v, want ErrNotRegistered", err)
	}
}

func TestLeaveChannelNotMember(t *testing.T) {
	d := newTestDirectory(t)
	d.register("alice", "alice")
	d.register("bob", "bob")
	d.apply("alice", &schema.JoinChannel{ChannelID: "project-room"})

	// Leaving a channel the sender never joined, and one that does
	// not exist, both succeed without effect.
	d.apply("bob", &schema.LeaveChannel{ChannelID: "project-room"})
	d.apply("bob", &schema.LeaveChannel{ChannelID: "no-such-room"})

	members, _ := ChannelMembers(d.view, "project-room")
	if !reflect.DeepEqual(members, []ref.AgentID{"alice"}) {
		t.Errorf("members = %v, want [alice]", members)
	}
}

func TestRecordMessage(t *testing.T) {
	d := newTestDirectory(t)
	d.register("alice", "alice")
	d.apply("alice", &schema.JoinChannel{ChannelID: "project-room"})

	d.apply("alice", &schema.RecordMessage{ChannelID: "project-room"})
	d.apply("alice", &schema.RecordMessage{}) // channel attribution optional

	if stats := d.mustStats(); stats.Messages != 2 {
		t.Errorf("stats.Messages = %d, want 2", stats.Messages)
	}
}

// TestRecordMessageUnseenChannel checks that attribution to a channel
// nobody has joined still counts: the counter tracks traffic, not
// channel existence.
func TestRecordMessageUnseenChannel(t *testing.T) {
	d := newTestDirectory(t)
	d.register("alice", "alice")

	d.apply("alice", &schema.RecordMessage{ChannelID: "no-such-room"})

	if stats := d.mustStats(); stats.Messages != 1 {
		t.Errorf("stats.Messages = %d, want 1", stats.Messages)
	}
	if members, _ := ChannelMembers(d.view, "no-such-room"); members != nil {
		t.Errorf("recording a message created channel state: %v", members)
	}
}
