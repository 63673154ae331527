// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "fmt"

// RegisterAgent creates a directory entry for the sender. The agent
// is keyed by the sender's authenticated identity; the name is a
// human-facing label that must be unique across the directory
// (enforced by the transition, not here).
type RegisterAgent struct {
	// Name is the unique, case-sensitive agent name. Required.
	Name string `json:"name"`

	// Description is free-form text shown in discovery results.
	Description string `json:"description,omitempty"`

	// Capabilities is the agent's ordered skill list.
	Capabilities []Capability `json:"capabilities,omitempty"`

	// Protocol defaults to "native" when empty.
	Protocol Protocol `json:"protocol,omitempty"`

	// Visibility defaults to "public" when empty.
	Visibility Visibility `json:"visibility,omitempty"`

	// Endpoint is an opaque contact string. Never validated beyond
	// length — the directory does not dial it.
	Endpoint string `json:"endpoint,omitempty"`
}

func (c *RegisterAgent) CommandName() string { return CommandRegister }
func (c *RegisterAgent) isCommand()          {}

// Validate checks payload shape.
func (c *RegisterAgent) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if len(c.Name) > MaxNameLength {
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("%d bytes, maximum is %d", len(c.Name), MaxNameLength)}
	}
	if len(c.Description) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("%d bytes, maximum is %d", len(c.Description), MaxDescriptionLength)}
	}
	if len(c.Endpoint) > MaxEndpointLength {
		return &ValidationError{Field: "endpoint", Reason: fmt.Sprintf("%d bytes, maximum is %d", len(c.Endpoint), MaxEndpointLength)}
	}
	if c.Protocol != "" && !c.Protocol.Valid() {
		return enumError("protocol", c.Protocol)
	}
	if c.Visibility != "" && !c.Visibility.Valid() {
		return enumError("visibility", c.Visibility)
	}
	return validateCapabilityList("capabilities", c.Capabilities)
}

// Sanitize applies defaults and clamps proficiencies.
func (c *RegisterAgent) Sanitize() {
	if c.Protocol == "" {
		c.Protocol = ProtocolNative
	}
	if c.Visibility == "" {
		c.Visibility = VisibilityPublic
	}
	sanitizeCapabilityList(c.Capabilities)
}

// UpdateAgent modifies the sender's own entry. Every field is
// optional; nil pointers mean "leave unchanged". A supplied
// capability list replaces the previous list wholesale — merge
// semantics are deliberately not offered, so the capability index can
// be rebuilt by a simple remove-all-then-insert-all step.
type UpdateAgent struct {
	// Status replaces the agent's availability when non-nil.
	Status *AgentStatus `json:"status,omitempty"`

	// Capabilities replaces the full capability list when non-nil.
	// An empty non-nil list clears all capabilities.
	Capabilities *[]Capability `json:"capabilities,omitempty"`

	// Visibility replaces the discovery visibility when non-nil.
	Visibility *Visibility `json:"visibility,omitempty"`

	// Endpoint replaces the contact string when non-nil. An empty
	// non-nil string clears it.
	Endpoint *string `json:"endpoint,omitempty"`
}

func (c *UpdateAgent) CommandName() string { return CommandUpdate }
func (c *UpdateAgent) isCommand()          {}

// Validate checks payload shape.
func (c *UpdateAgent) Validate() error {
	if c.Status != nil && !c.Status.Valid() {
		return enumError("status", *c.Status)
	}
	if c.Visibility != nil && !c.Visibility.Valid() {
		return enumError("visibility", *c.Visibility)
	}
	if c.Endpoint != nil && len(*c.Endpoint) > MaxEndpointLength {
		return &ValidationError{Field: "endpoint", Reason: fmt.Sprintf("%d bytes, maximum is %d", len(*c.Endpoint), MaxEndpointLength)}
	}
	if c.Capabilities != nil {
		return validateCapabilityList("capabilities", *c.Capabilities)
	}
	return nil
}

// Sanitize clamps proficiencies in a supplied capability list.
func (c *UpdateAgent) Sanitize() {
	if c.Capabilities != nil {
		sanitizeCapabilityList(*c.Capabilities)
	}
}

// UnregisterAgent removes the sender's entry and its capability index
// entries. Match records, channel memberships, and reputation for the
// identity are kept for audit.
type UnregisterAgent struct{}

func (c *UnregisterAgent) CommandName() string { return CommandUnregister }
func (c *UnregisterAgent) isCommand()          {}
func (c *UnregisterAgent) Validate() error     { return nil }
func (c *UnregisterAgent) Sanitize()           {}

// Heartbeat records the liveness timestamp injected by the host's
// periodic heartbeat source. No payload: the engine stores the
// command context's logical timestamp.
type Heartbeat struct{}

func (c *Heartbeat) CommandName() string { return CommandHeartbeat }
func (c *Heartbeat) isCommand()          {}
func (c *Heartbeat) Validate() error     { return nil }
func (c *Heartbeat) Sanitize()           {}
