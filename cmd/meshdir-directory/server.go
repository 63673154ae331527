// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/meshdir-foundation/meshdir/commandlog"
	"github.com/meshdir-foundation/meshdir/directory"
	"github.com/meshdir-foundation/meshdir/lib/codec"
	"github.com/meshdir-foundation/meshdir/lib/ref"
	"github.com/meshdir-foundation/meshdir/lib/schema"
	"github.com/meshdir-foundation/meshdir/lib/service"
)

// directoryServer wires the engine and the command log behind the
// socket actions.
type directoryServer struct {
	logger *slog.Logger

	// mu serializes command application (the engine is single-writer)
	// and guards view reads against a concurrent commit. Query
	// handlers take the read lock.
	mu     sync.RWMutex
	engine *directory.Engine
	log    *commandlog.Writer
}

func newDirectoryServer(engine *directory.Engine, log *commandlog.Writer, logger *slog.Logger) *directoryServer {
	return &directoryServer{
		logger: logger,
		engine: engine,
		log:    log,
	}
}

// registerActions registers the command path and the read surface.
func (s *directoryServer) registerActions(server *service.SocketServer) {
	server.Handle("command", s.handleCommand)

	server.Handle("get_agent", s.handleGetAgent)
	server.Handle("agents", s.handleAgents)
	server.Handle("discover", s.handleDiscover)
	server.Handle("matches", s.handleMatches)
	server.Handle("proposals", s.handleProposals)
	server.Handle("channel_members", s.handleChannelMembers)
	server.Handle("reputation", s.handleReputation)
	server.Handle("stats", s.handleStats)
}

// submit records one envelope in the command log and applies it. The
// record is durable before the transition runs: a command the engine
// rejects is a deterministic no-op, so replay converges either way,
// while the reverse order could advance the view past the log on an
// append failure.
func (s *directoryServer) submit(envelope *schema.Envelope) ([]directory.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.log.Append(envelope); err != nil {
		return nil, err
	}
	if err := s.log.Flush(); err != nil {
		return nil, err
	}
	return s.engine.ApplyEnvelope(envelope)
}

// --- Request types ---
//
// Each action decodes its specific fields from the CBOR request. The
// "action" field is handled by the socket server framework.

type commandRequest struct {
	Envelope *schema.Envelope `json:"envelope"`
}

type getAgentRequest struct {
	// Exactly one of AgentID and Name selects the agent.
	AgentID ref.AgentID `json:"agent_id,omitempty"`
	Name    string      `json:"name,omitempty"`
}

type agentsRequest struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type discoverRequest struct {
	Capabilities   []string `json:"capabilities,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	MinProficiency float64  `json:"min_proficiency,omitempty"`
	Status         string   `json:"status,omitempty"`
	Limit          int      `json:"limit,omitempty"`
}

type matchesRequest struct {
	Status    string      `json:"status,omitempty"`
	Requester ref.AgentID `json:"requester,omitempty"`
	Limit     int         `json:"limit,omitempty"`
}

type proposalsRequest struct {
	MatchID ref.MatchID `json:"match_id"`
}

type channelMembersRequest struct {
	ChannelID ref.ChannelID `json:"channel_id"`
}

type reputationRequest struct {
	AgentID ref.AgentID `json:"agent_id"`
}

// --- Response types ---
//
// Responses use the directory package's types directly rather than a
// parallel wire schema; the codec falls back to json struct tags, so
// they serialize identically over CBOR and drift is impossible.

type commandResponse struct {
	Events []directory.Event `json:"events,omitempty"`
}

type agentResponse struct {
	Agent directory.Agent `json:"agent"`
}

type agentsResponse struct {
	Agents []directory.Agent `json:"agents,omitempty"`
}

type discoverResponse struct {
	Results []directory.DiscoverResult `json:"results,omitempty"`
}

type matchesResponse struct {
	Requests []directory.MatchRequest `json:"requests,omitempty"`
}

type proposalsResponse struct {
	Proposals []directory.MatchProposal `json:"proposals,omitempty"`
}

type channelMembersResponse struct {
	Members []ref.AgentID `json:"members,omitempty"`
}

// --- Handlers ---

func (s *directoryServer) handleCommand(_ context.Context, raw []byte) (any, error) {
	var request commandRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Envelope == nil {
		return nil, fmt.Errorf("missing required field: envelope")
	}

	events, err := s.submit(request.Envelope)
	if err != nil {
		return nil, err
	}
	return commandResponse{Events: events}, nil
}

func (s *directoryServer) handleGetAgent(_ context.Context, raw []byte) (any, error) {
	var request getAgentRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if (request.AgentID == "") == (request.Name == "") {
		return nil, fmt.Errorf("exactly one of agent_id and name is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var agent directory.Agent
	var ok bool
	var err error
	if request.AgentID != "" {
		agent, ok, err = directory.GetAgent(s.engine.View(), request.AgentID)
	} else {
		agent, ok, err = directory.GetAgentByName(s.engine.View(), request.Name)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("agent not found")
	}
	return agentResponse{Agent: agent}, nil
}

func (s *directoryServer) handleAgents(_ context.Context, raw []byte) (any, error) {
	var request agentsRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	status, err := agentStatusFilter(request.Status)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	agents, err := directory.ListAgents(s.engine.View(), status, request.Limit)
	if err != nil {
		return nil, err
	}
	return agentsResponse{Agents: agents}, nil
}

func (s *directoryServer) handleDiscover(_ context.Context, raw []byte) (any, error) {
	var request discoverRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	status, err := agentStatusFilter(request.Status)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results, err := directory.Discover(s.engine.View(), directory.DiscoverQuery{
		Capabilities:   request.Capabilities,
		Categories:     request.Categories,
		MinProficiency: request.MinProficiency,
		Status:         status,
		Limit:          request.Limit,
	})
	if err != nil {
		return nil, err
	}
	return discoverResponse{Results: results}, nil
}

func (s *directoryServer) handleMatches(_ context.Context, raw []byte) (any, error) {
	var request matchesRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	var status *schema.RequestStatus
	if request.Status != "" {
		value := schema.RequestStatus(request.Status)
		if !value.Valid() {
			return nil, fmt.Errorf("unknown request status %q", request.Status)
		}
		status = &value
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	requests, err := directory.ListMatchRequests(s.engine.View(), status, request.Requester, request.Limit)
	if err != nil {
		return nil, err
	}
	return matchesResponse{Requests: requests}, nil
}

func (s *directoryServer) handleProposals(_ context.Context, raw []byte) (any, error) {
	var request proposalsRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.MatchID == "" {
		return nil, fmt.Errorf("missing required field: match_id")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	proposals, err := directory.ListProposals(s.engine.View(), request.MatchID)
	if err != nil {
		return nil, err
	}
	return proposalsResponse{Proposals: proposals}, nil
}

func (s *directoryServer) handleChannelMembers(_ context.Context, raw []byte) (any, error) {
	var request channelMembersRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.ChannelID == "" {
		return nil, fmt.Errorf("missing required field: channel_id")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	members, err := directory.ChannelMembers(s.engine.View(), request.ChannelID)
	if err != nil {
		return nil, err
	}
	return channelMembersResponse{Members: members}, nil
}

func (s *directoryServer) handleReputation(_ context.Context, raw []byte) (any, error) {
	var request reputationRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.AgentID == "" {
		return nil, fmt.Errorf("missing required field: agent_id")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return directory.GetReputation(s.engine.View(), request.AgentID)
}

func (s *directoryServer) handleStats(_ context.Context, _ []byte) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return directory.GetStats(s.engine.View())
}

// agentStatusFilter parses an optional agent status filter.
func agentStatusFilter(raw string) (*schema.AgentStatus, error) {
	if raw == "" {
		return nil, nil
	}
	value := schema.AgentStatus(raw)
	if !value.Valid() {
		return nil, fmt.Errorf("unknown agent status %q", raw)
	}
	return &value, nil
}
