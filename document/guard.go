// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxforge/voxd/lib/clock"
)

// Guard serializes access to the document. At most one Token is
// outstanding; Acquire while another request holds it fails
// immediately with a *ContentionError rather than queuing, so a
// client always learns about contention instead of silently waiting
// behind an editor session.
//
// Run drives the idle sweep: a token whose holder has not touched it
// for the idle timeout is reclaimed, and the stale holder's next Touch
// or Release fails with ErrOwnershipLost.
type Guard struct {
	clock         clock.Clock
	logger        *slog.Logger
	idleTimeout   time.Duration
	sweepInterval time.Duration

	mu      sync.Mutex
	current *Token
}

// Token is the exclusive-access handle returned by Acquire. The holder
// calls Touch between document sub-operations and Release when done.
// Tokens are not safe for concurrent use by multiple goroutines; one
// request owns one token.
type Token struct {
	guard      *Guard
	owner      string
	acquired   time.Time
	lastActive time.Time
}

// NewGuard builds a guard. The clock is injected so tests drive the
// sweep deterministically.
func NewGuard(clk clock.Clock, idleTimeout, sweepInterval time.Duration, logger *slog.Logger) *Guard {
	return &Guard{
		clock:         clk,
		logger:        logger.With("component", "guard"),
		idleTimeout:   idleTimeout,
		sweepInterval: sweepInterval,
	}
}

// Acquire claims the document for the given request id. It never
// blocks: if another request holds the document, the returned error is
// a *ContentionError wrapping ErrLocked.
func (g *Guard) Acquire(owner string) (*Token, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != nil {
		return nil, &ContentionError{
			Owner:   g.current.owner,
			HeldFor: g.clock.Now().Sub(g.current.acquired),
		}
	}
	now := g.clock.Now()
	g.current = &Token{guard: g, owner: owner, acquired: now, lastActive: now}
	return g.current, nil
}

// Touch marks the token active, resetting its idle clock. Fails with
// ErrOwnershipLost if the sweep has reclaimed the token.
func (t *Token) Touch() error {
	g := t.guard
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != t {
		return fmt.Errorf("%w: request %s", ErrOwnershipLost, t.owner)
	}
	t.lastActive = g.clock.Now()
	return nil
}

// Release returns the document. Fails with ErrOwnershipLost if the
// sweep got there first; the caller's work may have been interleaved
// with another owner's and must be reported, not retried.
func (t *Token) Release() error {
	g := t.guard
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != t {
		return fmt.Errorf("%w: request %s", ErrOwnershipLost, t.owner)
	}
	g.current = nil
	return nil
}

// ForceRelease returns the document if this token still holds it and
// does nothing otherwise. The worker pool calls it when a handler
// panics, where there is no one left to care about ownership errors.
func (t *Token) ForceRelease() {
	g := t.guard
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == t {
		g.current = nil
	}
}

// Owner returns the request id the token was acquired for.
func (t *Token) Owner() string { return t.owner }

// GuardStatus is a point-in-time view of the guard for status calls.
type GuardStatus struct {
	Locked  bool
	Owner   string
	HeldFor time.Duration
	IdleFor time.Duration
}

// Status reports the current guard state.
func (g *Guard) Status() GuardStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return GuardStatus{}
	}
	now := g.clock.Now()
	return GuardStatus{
		Locked:  true,
		Owner:   g.current.owner,
		HeldFor: now.Sub(g.current.acquired),
		IdleFor: now.Sub(g.current.lastActive),
	}
}

// Run drives the idle sweep until ctx is canceled. Call it in its own
// goroutine at daemon startup.
func (g *Guard) Run(ctx context.Context) {
	ticker := g.clock.NewTicker(g.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

// sweep reclaims the current token when its holder has been idle past
// the threshold.
func (g *Guard) sweep() {
	g.mu.Lock()
	if g.current == nil {
		g.mu.Unlock()
		return
	}
	idle := g.clock.Now().Sub(g.current.lastActive)
	if idle < g.idleTimeout {
		g.mu.Unlock()
		return
	}
	owner := g.current.owner
	held := g.clock.Now().Sub(g.current.acquired)
	g.current = nil
	g.mu.Unlock()

	g.logger.Warn("reclaimed idle document token",
		"owner", owner,
		"held", held,
		"idle", idle)
}
