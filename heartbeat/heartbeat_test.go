// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package heartbeat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meshdir-foundation/meshdir/lib/clock"
	"github.com/meshdir-foundation/meshdir/lib/schema"
	"github.com/meshdir-foundation/meshdir/lib/testutil"
)

func TestSourceBeatsOnInterval(t *testing.T) {
	start := time.UnixMilli(1700000000000)
	fake := clock.Fake(start)
	submitted := make(chan *schema.Envelope, 8)

	source, err := New(Config{
		Sender:   "meshdir/service",
		Interval: 30 * time.Second,
		Clock:    fake,
		Submit: func(_ context.Context, envelope *schema.Envelope) error {
			submitted <- envelope
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- source.Run(ctx) }()

	fake.WaitForTimers(1)
	fake.Advance(30 * time.Second)
	first := testutil.RequireReceive(t, submitted, 5*time.Second, "first beat")
	if first.Name != schema.CommandHeartbeat || first.Context.Sender != "meshdir/service" {
		t.Errorf("first beat = %+v", first)
	}
	if want := start.Add(30 * time.Second).UnixMilli(); first.Context.Timestamp != want {
		t.Errorf("first timestamp = %d, want %d", first.Context.Timestamp, want)
	}

	fake.Advance(30 * time.Second)
	second := testutil.RequireReceive(t, submitted, 5*time.Second, "second beat")
	if second.Context.Timestamp <= first.Context.Timestamp {
		t.Errorf("timestamps not increasing: %d then %d", first.Context.Timestamp, second.Context.Timestamp)
	}

	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "Run return"); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestSourceSurvivesSubmitFailure(t *testing.T) {
	fake := clock.Fake(time.UnixMilli(1700000000000))
	calls := make(chan int, 8)
	count := 0

	source, err := New(Config{
		Sender:   "meshdir/service",
		Interval: time.Second,
		Clock:    fake,
		Submit: func(context.Context, *schema.Envelope) error {
			count++
			calls <- count
			if count == 1 {
				return errors.New("log unavailable")
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- source.Run(ctx) }()

	fake.WaitForTimers(1)
	fake.Advance(time.Second)
	testutil.RequireReceive(t, calls, 5*time.Second, "failing beat")

	// The loop keeps going after the failure.
	fake.Advance(time.Second)
	if got := testutil.RequireReceive(t, calls, 5*time.Second, "recovering beat"); got != 2 {
		t.Errorf("call count = %d, want 2", got)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	fake := clock.Fake(time.Now())
	submit := func(context.Context, *schema.Envelope) error { return nil }

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing sender", cfg: Config{Clock: fake, Submit: submit}},
		{name: "missing submit", cfg: Config{Sender: "svc", Clock: fake}},
		{name: "missing clock", cfg: Config{Sender: "svc", Submit: submit}},
		{name: "negative interval", cfg: Config{Sender: "svc", Clock: fake, Submit: submit, Interval: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Fatal("New accepted invalid config")
			}
		})
	}
}
