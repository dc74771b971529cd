// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/voxforge/voxd/lib/netutil"
	"github.com/voxforge/voxd/lib/rpc"
	"github.com/voxforge/voxd/lib/wire"
	"github.com/voxforge/voxd/toolcall"
)

// maxPipelined caps decoded-but-unanswered messages per connection. A
// client pipelining past this blocks the connection's read loop until
// the writer catches up.
const maxPipelined = 128

// writeTimeout bounds one response write. A client that cannot accept
// bytes for this long is treated as gone and the connection aborts.
const writeTimeout = 10 * time.Second

// conn is one accepted connection. The read goroutine decodes messages
// and reserves response slots in decode order; workers fill the slots;
// the write goroutine drains them in order. All cross-goroutine state
// is the slot channel, the done channel, and the atomics.
type conn struct {
	server  *Server
	logger  *slog.Logger
	id      uint64
	netConn net.Conn
	reader  *bufio.Reader
	peer    *PeerCreds
	opened  time.Time

	// protocol holds the wire.Protocol once classified. Atomic because
	// the status handler reads it from worker goroutines.
	protocol atomic.Int32

	// inFlight counts decoded messages whose response slot has not
	// been drained yet.
	inFlight atomic.Int64

	slots     chan *slot
	done      chan struct{}
	writeDone chan struct{}
	closeOnce sync.Once
}

func newConn(s *Server, id uint64, netConn net.Conn) *conn {
	return &conn{
		server:    s,
		logger:    s.logger.With("conn_id", id),
		id:        id,
		netConn:   netConn,
		reader:    bufio.NewReaderSize(netConn, s.cfg.Limits.ReadBufferSize),
		peer:      peerCredentials(netConn),
		opened:    s.clock.Now(),
		slots:     make(chan *slot, maxPipelined),
		done:      make(chan struct{}),
		writeDone: make(chan struct{}),
	}
}

// serve runs the connection to completion: classify, then read
// messages until EOF or a fatal error, then drain pending responses
// and close. The writer runs concurrently for the whole lifetime.
func (c *conn) serve() {
	go c.writeLoop()

	err := c.readMessages()
	if err != nil && !c.isClosed() && !netutil.IsExpectedCloseError(err) {
		c.logger.Warn("connection failed", "error", err)
	}

	// Let the writer drain reserved slots so pipelined requests that
	// were decoded before EOF still get their responses. An aborted
	// connection's writer exits immediately instead.
	close(c.slots)
	<-c.writeDone

	c.abort()
	c.server.removeConn(c)
	c.logger.Info("connection closed", "protocol", c.proto().String())
}

// abort tears the connection down: the blocked read returns, the
// writer stops, and queued requests from this connection are skipped
// by the pool. Safe to call from any goroutine, any number of times.
func (c *conn) abort() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.netConn.Close()
	})
}

func (c *conn) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *conn) proto() wire.Protocol {
	return wire.Protocol(c.protocol.Load())
}

// classify peeks the connection's first bytes without consuming them.
// Four bytes settle the line protocol; the frame decision needs the
// full 16-byte header, which frame clients send in one piece.
func (c *conn) classify() (wire.Protocol, error) {
	maxPayload := uint32(c.server.cfg.Limits.MaxMessageSize)
	prefix, err := c.reader.Peek(4)
	if err != nil {
		return wire.ProtocolUnknown, err
	}
	if protocol := wire.Classify(prefix, maxPayload); protocol == wire.ProtocolLine {
		return protocol, nil
	}
	header, err := c.reader.Peek(wire.FrameHeaderSize)
	if err != nil {
		return wire.ProtocolUnknown, err
	}
	return wire.Classify(header, maxPayload), nil
}

func (c *conn) readMessages() error {
	protocol, err := c.classify()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Closed before sending a classifiable prefix.
			return nil
		}
		return fmt.Errorf("classifying connection: %w", err)
	}
	if protocol == wire.ProtocolUnknown {
		return errors.New("unrecognized protocol prefix")
	}
	c.protocol.Store(int32(protocol))
	c.logger.Debug("connection classified", "protocol", protocol.String())

	if protocol == wire.ProtocolLine {
		return c.readLines()
	}
	return c.readFrames()
}

// readLines decodes newline-delimited envelopes until EOF. Message
// decoding happens here, on the read goroutine, so decode order is
// response order and nothing downstream aliases the scanner's buffer.
func (c *conn) readLines() error {
	lines := wire.NewLineReader(c.reader, c.server.cfg.Limits.MaxMessageSize)
	for {
		line, err := lines.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, wire.ErrLineTooLong) {
				// Best effort: the stream position is gone, but the
				// client can still learn why it is being dropped.
				c.respondNow(c.encodeLine(rpc.ErrorResponse(rpc.NullID,
					rpc.NewError(rpc.CodeParseError, "message exceeds size limit"))))
			}
			return err
		}
		c.server.stats.bytesRead.Add(int64(len(line)) + 1)
		c.server.stats.lineMessages.Add(1)
		if rpc.IsBatch(line) {
			c.submitBatch(line)
		} else {
			c.submitSingle(line)
		}
	}
}

func (c *conn) submitSingle(line []byte) {
	request, fail := rpc.DecodeRequest(line)
	if fail != nil {
		c.server.stats.requestsFailed.Add(1)
		if !fail.Respond {
			c.logger.Warn("dropping unanswerable envelope", "error", fail.Err.Message)
			return
		}
		c.respondNow(c.encodeLine(rpc.ErrorResponse(fail.ID, fail.Err)))
		return
	}
	if request.IsNotification() {
		c.server.stats.notifications.Add(1)
	} else {
		c.server.stats.requestsTotal.Add(1)
	}
	c.dispatch(func(ctx context.Context) []byte {
		response := c.server.execute(ctx, c, request)
		if request.IsNotification() {
			return nil
		}
		return c.encodeLine(response)
	})
}

func (c *conn) submitBatch(line []byte) {
	items, fail := rpc.DecodeBatch(line)
	if fail != nil {
		c.server.stats.requestsFailed.Add(1)
		c.respondNow(c.encodeLine(rpc.ErrorResponse(fail.ID, fail.Err)))
		return
	}
	for _, item := range items {
		switch {
		case item.Fail != nil:
			c.server.stats.requestsFailed.Add(1)
		case item.Request.IsNotification():
			c.server.stats.notifications.Add(1)
		default:
			c.server.stats.requestsTotal.Add(1)
		}
	}
	c.dispatch(func(ctx context.Context) []byte {
		responses := make([]rpc.Response, 0, len(items))
		for _, item := range items {
			if item.Fail != nil {
				if !item.Fail.Respond {
					c.logger.Warn("dropping unanswerable batch element", "error", item.Fail.Err.Message)
					continue
				}
				responses = append(responses, rpc.ErrorResponse(item.Fail.ID, item.Fail.Err))
				continue
			}
			response := c.server.execute(ctx, c, item.Request)
			if item.Request.IsNotification() {
				continue
			}
			responses = append(responses, response)
		}
		if len(responses) == 0 {
			return nil
		}
		data, err := rpc.EncodeBatch(responses)
		if err != nil {
			c.logger.Error("batch response not serializable", "error", err)
			fallback := c.encodeBare(rpc.ErrorResponse(rpc.NullID,
				rpc.NewError(rpc.CodeInternalError, "batch response not serializable")))
			if fallback == nil {
				return nil
			}
			return append(fallback, '\n')
		}
		return append(data, '\n')
	})
}

// readFrames decodes binary frames until EOF. Frame translation to a
// registry request happens here for the same reasons as line decoding;
// only the handler runs on a worker.
func (c *conn) readFrames() error {
	maxPayload := uint32(c.server.cfg.Limits.MaxMessageSize)
	for {
		frame, err := wire.ReadFrame(c.reader, maxPayload)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		c.server.stats.bytesRead.Add(int64(wire.FrameHeaderSize + len(frame.Payload)))
		c.server.stats.frameMessages.Add(1)
		c.submitFrame(frame)
	}
}

func (c *conn) submitFrame(frame *wire.Frame) {
	if frame.Type != wire.FrameRequest {
		c.server.stats.requestsFailed.Add(1)
		c.respondNow(c.encodeFrame(frame.ID, wire.FrameError,
			toolcall.ErrorPayload(rpc.Errorf(rpc.CodeInvalidRequest,
				"expected a request frame, got %s", frame.Type))))
		return
	}
	request, rpcErr := toolcall.Translate(frame.ID, frame.Payload)
	if rpcErr != nil {
		c.server.stats.requestsFailed.Add(1)
		c.respondNow(c.encodeFrame(frame.ID, wire.FrameError, toolcall.ErrorPayload(rpcErr)))
		return
	}
	c.server.stats.requestsTotal.Add(1)
	c.dispatch(func(ctx context.Context) []byte {
		response := c.server.execute(ctx, c, request)
		if response.Err != nil {
			return c.encodeFrame(frame.ID, wire.FrameError, toolcall.ErrorPayload(response.Err))
		}
		payload, err := toolcall.ResultPayload(response.Result)
		if err != nil {
			c.logger.Error("result not serializable", "frame_id", frame.ID, "error", err)
			return c.encodeFrame(frame.ID, wire.FrameError,
				toolcall.ErrorPayload(rpc.NewError(rpc.CodeInternalError, "response not serializable")))
		}
		return c.encodeFrame(frame.ID, wire.FrameResponse, payload)
	})
}

// dispatch reserves the next response slot for this connection and
// hands the work to the pool. Both the slot channel and the pool queue
// apply backpressure: a connection that outruns its writer, or a pool
// behind on work, blocks this connection's reads instead of growing
// without bound.
func (c *conn) dispatch(run func(ctx context.Context) []byte) {
	s := newSlot()
	c.inFlight.Add(1)
	select {
	case c.slots <- s:
	case <-c.done:
		c.inFlight.Add(-1)
		return
	}
	select {
	case c.server.pool.queue <- task{conn: c, slot: s, run: run}:
	case <-c.done:
		s.fill(nil)
	}
}

// respondNow enqueues an already-encoded response, keeping its FIFO
// position relative to pool-processed neighbors.
func (c *conn) respondNow(data []byte) {
	if data == nil {
		return
	}
	s := newSlot()
	s.fill(data)
	c.inFlight.Add(1)
	select {
	case c.slots <- s:
	case <-c.done:
		c.inFlight.Add(-1)
	}
}

// encodeBare serializes one response envelope, falling back to an
// internal error envelope when the handler's result value cannot be
// marshaled.
func (c *conn) encodeBare(response rpc.Response) []byte {
	data, err := rpc.EncodeResponse(response)
	if err == nil {
		return data
	}
	c.logger.Error("response not serializable", "id", response.ID.String(), "error", err)
	data, err = rpc.EncodeResponse(rpc.ErrorResponse(response.ID,
		rpc.NewError(rpc.CodeInternalError, "response not serializable")))
	if err != nil {
		return nil
	}
	return data
}

func (c *conn) encodeLine(response rpc.Response) []byte {
	data := c.encodeBare(response)
	if data == nil {
		return nil
	}
	return append(data, '\n')
}

func (c *conn) encodeFrame(id uint32, frameType wire.FrameType, payload []byte) []byte {
	frame := &wire.Frame{
		ID:        id,
		Type:      frameType,
		Timestamp: uint32(c.server.clock.Now().Unix()),
		Payload:   payload,
	}
	var buf bytes.Buffer
	if err := wire.WriteFrame(&buf, frame); err != nil {
		c.logger.Error("frame not writable", "frame_id", id, "error", err)
		return nil
	}
	return buf.Bytes()
}

// writeLoop drains response slots in decode order, waiting for each
// slot's worker before moving on. It is the only goroutine that writes
// to the socket.
func (c *conn) writeLoop() {
	defer close(c.writeDone)
	for {
		select {
		case <-c.done:
			return
		case s, ok := <-c.slots:
			if !ok {
				return
			}
			select {
			case <-s.ready:
			case <-c.done:
				return
			}
			c.inFlight.Add(-1)
			if s.data == nil {
				continue
			}
			c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := c.netConn.Write(s.data); err != nil {
				if !netutil.IsExpectedCloseError(err) {
					c.logger.Warn("write failed", "error", err)
				}
				c.abort()
				return
			}
			c.server.stats.bytesWritten.Add(int64(len(s.data)))
		}
	}
}

// PeerCreds is the unix-socket peer identity captured at accept time
// via SO_PEERCRED. Nil on TCP connections, which carry none.
type PeerCreds struct {
	PID int32  `json:"pid"`
	UID uint32 `json:"uid"`
	GID uint32 `json:"gid"`
}

// peerCredentials reads SO_PEERCRED from a unix connection. Returns
// nil for non-unix connections and on any syscall failure; credentials
// are informational, never load-bearing.
func peerCredentials(netConn net.Conn) *PeerCreds {
	unixConn, ok := netConn.(*net.UnixConn)
	if !ok {
		return nil
	}
	raw, err := unixConn.SyscallConn()
	if err != nil {
		return nil
	}
	var cred *unix.Ucred
	var credErr error
	if err := raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil || credErr != nil {
		return nil
	}
	return &PeerCreds{PID: cred.Pid, UID: cred.Uid, GID: cred.Gid}
}
