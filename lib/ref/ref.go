// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strconv"

	"github.com/zeebo/blake3"
)

const (
	// maxIDLength bounds every identifier accepted by the engine.
	// Identifiers become view keys; an unbounded key length would let
	// a single malformed command bloat the view and every snapshot
	// derived from it.
	maxIDLength = 256

	// derivedHexLength is the length of the hex digest portion of a
	// derived identifier: 128 bits of BLAKE3, hex-encoded.
	derivedHexLength = 32

	// matchIDPrefix and channelIDPrefix namespace derived identifiers
	// so they are recognizable in logs and cannot collide with
	// agent-chosen channel names that pass validation.
	matchIDPrefix   = "mr-"
	channelIDPrefix = "ch-"
)

// AgentID is the authenticated signer identity of a command. Assigned
// externally (by the transport's identity layer), never generated by
// the engine. Opaque: the engine only requires it to be non-empty,
// bounded, and free of control characters so it can serve as a view
// key segment.
type AgentID string

// Validate checks that the AgentID is well-formed.
func (id AgentID) Validate() error {
	return validateIdentifier(string(id), "agent id")
}

// String returns the raw identity string.
func (id AgentID) String() string { return string(id) }

// MatchID identifies a match request. Derived from the requester and
// the creation timestamp via [DeriveMatchID]; never chosen by agents.
type MatchID string

// Validate checks that the MatchID has the derived form: the "mr-"
// prefix followed by 32 lowercase hex characters.
func (id MatchID) Validate() error {
	return validateDerived(string(id), matchIDPrefix, "match id")
}

// String returns the raw match id string.
func (id MatchID) String() string { return string(id) }

// ChannelID identifies a coordination channel. Agent-chosen channel
// ids are free-form identifiers; match channels have the derived
// "ch-" + hex form produced by [DeriveChannelID].
type ChannelID string

// Validate checks that the ChannelID is well-formed. Both agent-chosen
// names and derived match-channel ids pass this check.
func (id ChannelID) Validate() error {
	return validateIdentifier(string(id), "channel id")
}

// String returns the raw channel id string.
func (id ChannelID) String() string { return string(id) }

// DeriveMatchID computes the match id for a request created by
// requester at the given logical timestamp (milliseconds). The
// derivation is pure: every replica that applies the same command
// computes the same id, which is what lets match ids be globally
// unique without coordination.
func DeriveMatchID(requester AgentID, createdAt int64) MatchID {
	return MatchID(matchIDPrefix + deriveHex(string(requester)+"\x00"+strconv.FormatInt(createdAt, 10)))
}

// DeriveChannelID computes the coordination channel id for an accepted
// match. Pure function of the match id.
func DeriveChannelID(match MatchID) ChannelID {
	return ChannelID(channelIDPrefix + deriveHex(string(match)))
}

// deriveHex returns the first 128 bits of BLAKE3(input) as lowercase
// hex.
func deriveHex(input string) string {
	digest := blake3.Sum256([]byte(input))
	return fmt.Sprintf("%x", digest[:derivedHexLength/2])
}

// validateIdentifier enforces the shared well-formedness rules for
// opaque identifiers: non-empty, bounded length, no control
// characters (which would corrupt log output and view key listings).
func validateIdentifier(raw, kind string) error {
	if raw == "" {
		return fmt.Errorf("empty %s", kind)
	}
	if len(raw) > maxIDLength {
		return fmt.Errorf("%s is %d bytes, maximum is %d", kind, len(raw), maxIDLength)
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < 0x20 || raw[i] == 0x7f {
			return fmt.Errorf("%s contains control character at byte %d", kind, i)
		}
	}
	return nil
}

// validateDerived enforces the fixed derived form: prefix + 32
// lowercase hex characters.
func validateDerived(raw, prefix, kind string) error {
	if len(raw) != len(prefix)+derivedHexLength {
		return fmt.Errorf("%s is %d bytes, want %d", kind, len(raw), len(prefix)+derivedHexLength)
	}
	if raw[:len(prefix)] != prefix {
		return fmt.Errorf("%s must start with %q: %q", kind, prefix, raw)
	}
	for i := len(prefix); i < len(raw); i++ {
		c := raw[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%s contains non-hex character %q at byte %d", kind, c, i)
		}
	}
	return nil
}
