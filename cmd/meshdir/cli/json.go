// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteJSON marshals value as indented JSON and writes it to stdout.
// Used by commands in --json output mode.
func WriteJSON(value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	encoded = append(encoded, '\n')
	if _, err := os.Stdout.Write(encoded); err != nil {
		return fmt.Errorf("writing JSON output: %w", err)
	}
	return nil
}
