// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// Package heartbeat submits periodic liveness commands into the
// directory. The source is pure host machinery: it reads the wall
// clock, stamps the reading into a command context, and hands the
// envelope to the host's submit path. The engine only ever sees the
// logical timestamp, so replay stays deterministic.
package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meshdir-foundation/meshdir/lib/clock"
	"github.com/meshdir-foundation/meshdir/lib/ref"
	"github.com/meshdir-foundation/meshdir/lib/schema"
)

// DefaultInterval is the heartbeat period when the configuration does
// not set one.
const DefaultInterval = 30 * time.Second

// SubmitFunc delivers one envelope into the host's command path
// (append to the log, apply to the engine).
type SubmitFunc func(ctx context.Context, envelope *schema.Envelope) error

// Config parameterizes a Source.
type Config struct {
	// Sender is the service identity stamped on heartbeat commands.
	Sender ref.AgentID

	// Interval between beats. Zero means DefaultInterval.
	Interval time.Duration

	// Clock supplies time; inject clock.Fake in tests.
	Clock clock.Clock

	// Submit delivers each heartbeat envelope.
	Submit SubmitFunc

	// Logger receives submit failures. Nil means discard.
	Logger *slog.Logger
}

// Source drives the heartbeat loop.
type Source struct {
	sender   ref.AgentID
	interval time.Duration
	clock    clock.Clock
	submit   SubmitFunc
	logger   *slog.Logger
}

// New validates the configuration and returns a Source.
func New(cfg Config) (*Source, error) {
	if err := cfg.Sender.Validate(); err != nil {
		return nil, fmt.Errorf("heartbeat: sender: %w", err)
	}
	if cfg.Submit == nil {
		return nil, errors.New("heartbeat: Submit is required")
	}
	if cfg.Clock == nil {
		return nil, errors.New("heartbeat: Clock is required")
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	if interval < 0 {
		return nil, fmt.Errorf("heartbeat: negative interval %v", interval)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		sender:   cfg.Sender,
		interval: interval,
		clock:    cfg.Clock,
		submit:   cfg.Submit,
		logger:   logger,
	}, nil
}

// Run beats until ctx is cancelled. A failed submit is logged and the
// loop continues: liveness reporting must not take the host down, and
// the next beat retries naturally.
func (s *Source) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := s.beat(ctx, now); err != nil {
				s.logger.Error("heartbeat submit failed", "error", err)
			}
		}
	}
}

// beat builds and submits one heartbeat envelope stamped with the
// tick time.
func (s *Source) beat(ctx context.Context, now time.Time) error {
	envelope, err := schema.EncodeEnvelope(&schema.Heartbeat{}, schema.Context{
		Sender:    s.sender,
		Timestamp: now.UnixMilli(),
	})
	if err != nil {
		return err
	}
	return s.submit(ctx, envelope)
}
