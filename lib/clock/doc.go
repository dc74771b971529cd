// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock parameter instead of calling time.Now,
// time.After, time.NewTicker, or time.Sleep directly. Real() provides
// standard library behavior; Fake() provides a deterministic clock that
// advances only when Advance is called. The document guard's idle sweep
// is the main consumer: its tests register the sweep ticker on a fake
// clock and advance it past the idle threshold instead of sleeping.
//
// When a goroutine calls Sleep, After, or NewTicker on a FakeClock it
// registers a pending waiter. Use WaitForTimers to block until the
// expected number of waiters exist before calling Advance; that removes
// the race between timer registration and time advancement.
package clock
