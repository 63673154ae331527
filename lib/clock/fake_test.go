// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var testEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNowStandsStill(t *testing.T) {
	c := Fake(testEpoch)
	if got := c.Now(); !got.Equal(testEpoch) {
		t.Fatalf("Now() = %v, want %v", got, testEpoch)
	}
	c.Advance(42 * time.Second)
	if got := c.Now(); !got.Equal(testEpoch.Add(42 * time.Second)) {
		t.Fatalf("Now() after Advance = %v, want %v", got, testEpoch.Add(42*time.Second))
	}
}

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	c := Fake(testEpoch)
	ch := c.After(10 * time.Second)

	select {
	case v := <-ch:
		t.Fatalf("After fired before Advance: %v", v)
	default:
	}

	c.Advance(10 * time.Second)
	select {
	case v := <-ch:
		if !v.Equal(testEpoch.Add(10 * time.Second)) {
			t.Errorf("fire time = %v, want %v", v, testEpoch.Add(10*time.Second))
		}
	default:
		t.Fatal("After did not fire after Advance")
	}
}

func TestFakeAfterNonPositiveFiresImmediately(t *testing.T) {
	c := Fake(testEpoch)
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
}

func TestFakeTickerFiresPerInterval(t *testing.T) {
	c := Fake(testEpoch)
	ticker := c.NewTicker(time.Second)
	defer ticker.Stop()

	// The tick channel has capacity 1; advancing one interval at a
	// time and draining between advances observes every tick.
	for i := 1; i <= 3; i++ {
		c.Advance(time.Second)
		select {
		case v := <-ticker.C:
			want := testEpoch.Add(time.Duration(i) * time.Second)
			if !v.Equal(want) {
				t.Errorf("tick %d at %v, want %v", i, v, want)
			}
		default:
			t.Fatalf("tick %d missing", i)
		}
	}
}

func TestFakeTickerStop(t *testing.T) {
	c := Fake(testEpoch)
	ticker := c.NewTicker(time.Second)
	ticker.Stop()

	c.Advance(5 * time.Second)
	select {
	case v := <-ticker.C:
		t.Fatalf("stopped ticker fired: %v", v)
	default:
	}
}

func TestFakeTickerDropsTicksWhenConsumerBehind(t *testing.T) {
	c := Fake(testEpoch)
	ticker := c.NewTicker(time.Second)
	defer ticker.Stop()

	// Advance across three intervals without draining: capacity-1
	// channel keeps the first tick, drops the rest.
	c.Advance(3 * time.Second)

	ticks := 0
	for {
		select {
		case <-ticker.C:
			ticks++
		default:
			if ticks != 1 {
				t.Errorf("got %d buffered ticks, want 1", ticks)
			}
			return
		}
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	c := Fake(testEpoch)

	done := make(chan struct{})
	go func() {
		c.Sleep(time.Minute)
		close(done)
	}()

	c.WaitForTimers(1)
	c.Advance(time.Minute)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Sleep goroutine did not wake after Advance")
	}
}

func TestFakeAdvanceFiresInDeadlineOrder(t *testing.T) {
	c := Fake(testEpoch)
	late := c.After(10 * time.Second)
	early := c.After(2 * time.Second)

	c.Advance(10 * time.Second)

	earlyTime := <-early
	lateTime := <-late
	if !earlyTime.Before(lateTime) {
		t.Errorf("fire order wrong: early=%v late=%v", earlyTime, lateTime)
	}
}
