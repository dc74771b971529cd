// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
)

// slot is one decoded message's place in its connection's response
// order. The connection reserves slots in decode order and the writer
// drains them in that order, so responses never reorder within a
// connection no matter which worker finishes first.
type slot struct {
	ready chan struct{}
	data  []byte
}

func newSlot() *slot {
	return &slot{ready: make(chan struct{})}
}

// fill completes the slot. nil data means nothing is written for this
// message (a notification, or a cancelled request). Must be called
// exactly once.
func (s *slot) fill(data []byte) {
	s.data = data
	close(s.ready)
}

// task is one unit of pool work: a decoded message bound to the slot
// its response must fill.
type task struct {
	conn *conn
	slot *slot
	run  func(ctx context.Context) []byte
}

// pool is the bounded worker set that executes handlers. Workers are
// interchangeable; they pull from one shared queue, so a slow request
// on one connection never starves another connection of workers, only
// of queue capacity.
type pool struct {
	logger *slog.Logger
	queue  chan task
	wg     sync.WaitGroup
}

func newPool(queueSize int, logger *slog.Logger) *pool {
	return &pool{
		logger: logger.With("component", "pool"),
		queue:  make(chan task, queueSize),
	}
}

// start launches the workers. ctx is passed through to handlers; it is
// the serve context, cancelled at shutdown.
func (p *pool) start(ctx context.Context, workers int) {
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			p.worker(ctx)
		}()
	}
}

// stop closes the queue and waits for the workers to finish their
// current tasks. All submitters must have stopped first.
func (p *pool) stop() {
	close(p.queue)
	p.wg.Wait()
}

func (p *pool) worker(ctx context.Context) {
	for t := range p.queue {
		p.process(ctx, t)
	}
}

// process runs one task. A task whose connection died while the task
// was queued is skipped: its handler never runs and its slot produces
// no bytes. The recover here is the last resort below the per-handler
// recovery in Server.invoke; it keeps a worker alive through a panic
// in response encoding and guarantees the slot still completes so the
// connection's writer is never wedged.
func (p *pool) process(ctx context.Context, t task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panic",
				"panic", r,
				"stack", string(debug.Stack()))
			t.slot.fill(nil)
		}
	}()
	if t.conn.isClosed() {
		t.slot.fill(nil)
		return
	}
	t.slot.fill(t.run(ctx))
}
