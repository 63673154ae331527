// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "fmt"

// Protocol identifies how an agent prefers to be spoken to once a
// match is made. The directory treats it as an opaque label with a
// closed value set; it never opens a connection itself.
type Protocol string

const (
	// ProtocolNative is Meshdir's own channel-based coordination.
	ProtocolNative Protocol = "native"

	// ProtocolMCP marks agents reachable as Model Context Protocol
	// servers.
	ProtocolMCP Protocol = "mcp"

	// ProtocolA2A marks agents reachable via an Agent-to-Agent
	// endpoint.
	ProtocolA2A Protocol = "a2a"

	// ProtocolCustom covers everything else; the endpoint field tells
	// peers what to do with it.
	ProtocolCustom Protocol = "custom"
)

// Valid reports whether the protocol is a member of the closed set.
func (p Protocol) Valid() bool {
	switch p {
	case ProtocolNative, ProtocolMCP, ProtocolA2A, ProtocolCustom:
		return true
	}
	return false
}

// Visibility controls whether an agent appears in discovery results.
type Visibility string

const (
	// VisibilityPublic agents are eligible for discovery.
	VisibilityPublic Visibility = "public"

	// VisibilityPrivate agents are stored and addressable but never
	// returned by discovery queries.
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether the visibility is a member of the closed set.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// AgentStatus is an agent's self-reported availability.
type AgentStatus string

const (
	AgentOnline  AgentStatus = "online"
	AgentOffline AgentStatus = "offline"
	AgentBusy    AgentStatus = "busy"
)

// Valid reports whether the status is a member of the closed set.
func (s AgentStatus) Valid() bool {
	return s == AgentOnline || s == AgentOffline || s == AgentBusy
}

// RequestStatus is the lifecycle state of a match request. There is no
// rejected terminal state for the request itself — individual
// proposals are rejected independently, and a request nobody accepts
// simply expires.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestCompleted RequestStatus = "completed"
)

// Valid reports whether the status is a member of the closed set.
func (s RequestStatus) Valid() bool {
	return s == RequestPending || s == RequestAccepted || s == RequestCompleted
}

// ProposalStatus is the lifecycle state of a single proposal.
type ProposalStatus string

const (
	ProposalProposed ProposalStatus = "proposed"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

// Valid reports whether the status is a member of the closed set.
func (s ProposalStatus) Valid() bool {
	return s == ProposalProposed || s == ProposalAccepted || s == ProposalRejected
}

// enumError builds the standard out-of-set validation error.
func enumError(field string, value any) *ValidationError {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf("unknown value %q", value),
	}
}
