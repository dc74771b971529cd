// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/voxforge/voxd/lib/clock"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGuard(clk clock.Clock) *Guard {
	return NewGuard(clk, time.Minute, 10*time.Second, quietLogger())
}

func TestGuardAcquireRelease(t *testing.T) {
	g := newTestGuard(clock.Fake(testEpoch))

	token, err := g.Acquire("req-1")
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if token.Owner() != "req-1" {
		t.Errorf("Owner() = %q, want %q", token.Owner(), "req-1")
	}

	status := g.Status()
	if !status.Locked || status.Owner != "req-1" {
		t.Errorf("Status() = %+v, want locked by req-1", status)
	}

	if err := token.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if g.Status().Locked {
		t.Error("guard still locked after release")
	}
}

func TestGuardContentionIsImmediate(t *testing.T) {
	clk := clock.Fake(testEpoch)
	g := newTestGuard(clk)

	first, err := g.Acquire("req-1")
	if err != nil {
		t.Fatalf("first Acquire() error: %v", err)
	}

	clk.Advance(3 * time.Second)

	_, err = g.Acquire("req-2")
	if err == nil {
		t.Fatal("second Acquire() succeeded while held")
	}
	if !errors.Is(err, ErrLocked) {
		t.Errorf("second Acquire() error = %v, want ErrLocked", err)
	}
	var contention *ContentionError
	if !errors.As(err, &contention) {
		t.Fatalf("second Acquire() error = %T, want *ContentionError", err)
	}
	if contention.Owner != "req-1" {
		t.Errorf("contention owner = %q, want req-1", contention.Owner)
	}
	if contention.HeldFor != 3*time.Second {
		t.Errorf("contention held for = %s, want 3s", contention.HeldFor)
	}

	// Release makes the guard immediately acquirable.
	if err := first.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	second, err := g.Acquire("req-2")
	if err != nil {
		t.Fatalf("Acquire() after release error: %v", err)
	}
	second.Release()
}

func TestGuardSweepReclaimsIdleToken(t *testing.T) {
	clk := clock.Fake(testEpoch)
	g := newTestGuard(clk)

	stale, err := g.Acquire("req-1")
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	// Under the idle threshold nothing happens.
	clk.Advance(30 * time.Second)
	g.sweep()
	if !g.Status().Locked {
		t.Fatal("sweep reclaimed a token under the idle threshold")
	}

	// Past the threshold the token is reclaimed.
	clk.Advance(time.Minute)
	g.sweep()
	if g.Status().Locked {
		t.Fatal("sweep left an idle token in place")
	}

	// A new request can acquire.
	fresh, err := g.Acquire("req-2")
	if err != nil {
		t.Fatalf("Acquire() after sweep error: %v", err)
	}

	// The stale owner's later activity fails loudly, never silently.
	if err := stale.Touch(); !errors.Is(err, ErrOwnershipLost) {
		t.Errorf("stale Touch() error = %v, want ErrOwnershipLost", err)
	}
	if err := stale.Release(); !errors.Is(err, ErrOwnershipLost) {
		t.Errorf("stale Release() error = %v, want ErrOwnershipLost", err)
	}

	// The new owner is unaffected by the stale token's flailing.
	if err := fresh.Release(); err != nil {
		t.Errorf("fresh Release() error: %v", err)
	}
}

func TestGuardTouchResetsIdleClock(t *testing.T) {
	clk := clock.Fake(testEpoch)
	g := newTestGuard(clk)

	token, err := g.Acquire("req-1")
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	// Keep touching every 40s; total held time far exceeds the 1m idle
	// threshold but idle time never does.
	for i := 0; i < 5; i++ {
		clk.Advance(40 * time.Second)
		if err := token.Touch(); err != nil {
			t.Fatalf("Touch() %d error: %v", i, err)
		}
		g.sweep()
		if !g.Status().Locked {
			t.Fatalf("sweep reclaimed an active token after %d touches", i+1)
		}
	}

	status := g.Status()
	if status.HeldFor != 200*time.Second {
		t.Errorf("HeldFor = %s, want 200s", status.HeldFor)
	}
	if status.IdleFor != 0 {
		t.Errorf("IdleFor = %s, want 0", status.IdleFor)
	}
	token.Release()
}

func TestGuardForceRelease(t *testing.T) {
	g := newTestGuard(clock.Fake(testEpoch))

	token, err := g.Acquire("req-1")
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	token.ForceRelease()
	if g.Status().Locked {
		t.Fatal("guard locked after ForceRelease")
	}

	// Idempotent, and harmless after another request has acquired.
	other, err := g.Acquire("req-2")
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	token.ForceRelease()
	if !g.Status().Locked {
		t.Fatal("stale ForceRelease evicted the new owner")
	}
	other.Release()
}

func TestGuardRunSweepsOnTicker(t *testing.T) {
	clk := clock.Fake(testEpoch)
	g := newTestGuard(clk)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		g.Run(ctx)
		close(done)
	}()
	clk.WaitForTimers(1)

	if _, err := g.Acquire("req-1"); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	clk.Advance(2 * time.Minute)

	// The reclaim happens on the Run goroutine after it consumes the
	// tick; poll briefly rather than assuming scheduling order.
	deadline := time.Now().Add(2 * time.Second)
	for g.Status().Locked {
		if time.Now().After(deadline) {
			t.Fatal("Run did not sweep the idle token")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}

func TestGuardStatusIdle(t *testing.T) {
	g := newTestGuard(clock.Fake(testEpoch))
	status := g.Status()
	if status.Locked || status.Owner != "" || status.HeldFor != 0 {
		t.Errorf("idle Status() = %+v, want zero value", status)
	}
}
