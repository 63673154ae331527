// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package commandlog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/meshdir-foundation/meshdir/lib/ref"
	"github.com/meshdir-foundation/meshdir/lib/schema"
)

// seedCommand is one entry of an operator-authored seed script: the
// command in JSON form plus the context the log would have assigned.
type seedCommand struct {
	Name      string          `json:"name"`
	Sender    ref.AgentID     `json:"sender"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// ParseSeed parses a JSONC seed script into ready-to-apply command
// envelopes. Seed scripts are JSON with comments and trailing commas
// permitted, holding an array of {name, sender, timestamp, payload}
// entries; payloads use the same field names as the wire commands.
//
// Every entry is validated and sanitized here, so a bad script fails
// loudly at load time instead of mid-replay.
func ParseSeed(data []byte) ([]*schema.Envelope, error) {
	var entries []seedCommand
	if err := json.Unmarshal(jsonc.ToJSON(data), &entries); err != nil {
		return nil, fmt.Errorf("commandlog: parsing seed script: %w", err)
	}

	envelopes := make([]*schema.Envelope, 0, len(entries))
	for i, entry := range entries {
		command, err := schema.NewCommand(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("commandlog: seed entry %d: %w", i, err)
		}
		if len(entry.Payload) > 0 {
			if err := json.Unmarshal(entry.Payload, command); err != nil {
				return nil, fmt.Errorf("commandlog: seed entry %d (%s): %w", i, entry.Name, err)
			}
		}
		if err := command.Validate(); err != nil {
			return nil, fmt.Errorf("commandlog: seed entry %d (%s): %w", i, entry.Name, err)
		}
		command.Sanitize()

		context := schema.Context{Sender: entry.Sender, Timestamp: entry.Timestamp}
		if err := context.Validate(); err != nil {
			return nil, fmt.Errorf("commandlog: seed entry %d (%s): %w", i, entry.Name, err)
		}
		envelope, err := schema.EncodeEnvelope(command, context)
		if err != nil {
			return nil, fmt.Errorf("commandlog: seed entry %d (%s): %w", i, entry.Name, err)
		}
		envelopes = append(envelopes, envelope)
	}
	return envelopes, nil
}

// LoadSeedFile reads and parses a seed script from disk.
func LoadSeedFile(path string) ([]*schema.Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("commandlog: reading seed script %s: %w", path, err)
	}
	return ParseSeed(data)
}
