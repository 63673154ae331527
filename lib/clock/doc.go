// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Host-side components accept a Clock parameter instead of calling
// time.Now, time.After, time.NewTicker, or time.Sleep directly. In
// production, Real() provides the standard library behavior. In tests,
// Fake() provides a deterministic clock that advances only when
// Advance is called.
//
// The state-transition engine itself takes no Clock: it operates on
// logical timestamps delivered with each command, so it has nothing to
// inject. The Clock is for the machinery around the engine — the
// heartbeat source's tick loop and socket timeouts.
//
// Test wiring:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	source := heartbeat.New(c, interval, submit)
//	go source.Run(ctx)
//	c.WaitForTimers(1)          // ticker registered
//	c.Advance(interval)          // fire one tick deterministically
//
// WaitForTimers eliminates the race between timer registration and
// time advancement that plagues tests using time.Sleep for
// synchronization.
package clock
