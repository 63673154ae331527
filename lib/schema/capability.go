// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "fmt"

// Field size limits. These bound every string the directory stores so
// that a single command cannot bloat the view and every snapshot
// derived from it. Limits are part of the replicated contract: all
// replicas must reject the same payloads.
const (
	// MaxNameLength bounds agent names and capability names.
	MaxNameLength = 128

	// MaxDescriptionLength bounds agent descriptions and match task
	// descriptions.
	MaxDescriptionLength = 1024

	// MaxEndpointLength bounds the opaque endpoint string.
	MaxEndpointLength = 512

	// MaxFeedbackLength bounds completion feedback.
	MaxFeedbackLength = 2048

	// MaxCapabilities bounds the number of capabilities per agent and
	// per match request.
	MaxCapabilities = 64
)

// Capability is a named skill with a proficiency score and optional
// certification. The ordered capability sequence is part of the agent
// entity; order is preserved exactly as registered because it feeds
// the deterministic capability index.
type Capability struct {
	// Name identifies the skill (e.g., "translation", "code-review").
	Name string `json:"name"`

	// Category is an optional free-form grouping label (e.g.,
	// "language", "engineering"). Discovery can filter on it.
	Category string `json:"category,omitempty"`

	// Proficiency is the agent's self-reported skill level in [0, 1].
	// Out-of-range values are clamped on write, never rejected.
	Proficiency float64 `json:"proficiency"`

	// Certified marks capabilities vouched for by another party.
	Certified bool `json:"certified,omitempty"`

	// CertifiedBy is the identity of the certifying party.
	CertifiedBy string `json:"certified_by,omitempty"`

	// CertifiedAt is the logical timestamp of certification,
	// milliseconds.
	CertifiedAt int64 `json:"certified_at,omitempty"`
}

// Validate checks structural well-formedness. Proficiency range is
// deliberately not checked: the contract is clamp-on-write, so any
// float is acceptable here.
func (c *Capability) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "capabilities.name", Reason: "required"}
	}
	if len(c.Name) > MaxNameLength {
		return &ValidationError{
			Field:  "capabilities.name",
			Reason: fmt.Sprintf("%d bytes, maximum is %d", len(c.Name), MaxNameLength),
		}
	}
	if len(c.Category) > MaxNameLength {
		return &ValidationError{
			Field:  "capabilities.category",
			Reason: fmt.Sprintf("%d bytes, maximum is %d", len(c.Category), MaxNameLength),
		}
	}
	if c.Certified && c.CertifiedBy == "" {
		return &ValidationError{Field: "capabilities.certified_by", Reason: "required when certified"}
	}
	return nil
}

// sanitize clamps proficiency into [0, 1].
func (c *Capability) sanitize() {
	if c.Proficiency < 0 {
		c.Proficiency = 0
	}
	if c.Proficiency > 1 {
		c.Proficiency = 1
	}
}

// validateCapabilityList applies Validate to each element and checks
// the count bound.
func validateCapabilityList(field string, capabilities []Capability) error {
	if len(capabilities) > MaxCapabilities {
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("%d entries, maximum is %d", len(capabilities), MaxCapabilities),
		}
	}
	for i := range capabilities {
		if err := capabilities[i].Validate(); err != nil {
			return fmt.Errorf("%s[%d]: %w", field, i, err)
		}
	}
	return nil
}

// sanitizeCapabilityList clamps every element in place.
func sanitizeCapabilityList(capabilities []Capability) {
	for i := range capabilities {
		capabilities[i].sanitize()
	}
}

// validateCapabilityNames checks a list of bare capability names
// (match request filters, proposal matched sets).
func validateCapabilityNames(field string, names []string) error {
	if len(names) > MaxCapabilities {
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("%d entries, maximum is %d", len(names), MaxCapabilities),
		}
	}
	for i, name := range names {
		if name == "" {
			return &ValidationError{
				Field:  fmt.Sprintf("%s[%d]", field, i),
				Reason: "empty capability name",
			}
		}
		if len(name) > MaxNameLength {
			return &ValidationError{
				Field:  fmt.Sprintf("%s[%d]", field, i),
				Reason: fmt.Sprintf("%d bytes, maximum is %d", len(name), MaxNameLength),
			}
		}
	}
	return nil
}
