// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/voxforge/voxd/document"
	"github.com/voxforge/voxd/lib/clock"
	"github.com/voxforge/voxd/lib/config"
)

// Server owns the listeners, the connection set, the worker pool, and
// the method registry. Build one with New, register any extra methods
// with Handle, then call Serve.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	clock    clock.Clock
	engine   document.Engine
	guard    *document.Guard
	registry *Registry
	pool     *pool
	stats    stats
	started  time.Time

	mu     sync.Mutex
	conns  map[uint64]*conn
	nextID uint64

	connWG sync.WaitGroup
}

// New builds a server with the built-in method set registered. The
// guard's sweep loop is the caller's to run; the server only acquires
// and releases tokens through it.
func New(cfg *config.Config, engine document.Engine, guard *document.Guard, clk clock.Clock, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger.With("component", "server"),
		clock:    clk,
		engine:   engine,
		guard:    guard,
		registry: NewRegistry(),
		pool:     newPool(cfg.Workers.QueueSize, logger),
		started:  clk.Now(),
		conns:    make(map[uint64]*conn),
	}
	s.registerHandlers()
	return s
}

// Handle registers an additional method. Must be called before Serve.
func (s *Server) Handle(method, description string, handler HandlerFunc) {
	s.registry.Handle(method, description, handler)
}

// Serve listens and serves until ctx is cancelled, then stops
// accepting, aborts live connections (cancelling their queued
// requests), drains in-flight handlers, and removes the socket file.
func (s *Server) Serve(ctx context.Context) error {
	socketPath := s.cfg.Socket.Path
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", socketPath, err)
	}

	unixListener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", socketPath, err)
	}
	defer func() {
		unixListener.Close()
		os.Remove(socketPath)
	}()
	if err := os.Chmod(socketPath, os.FileMode(s.cfg.Socket.Permissions)); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", socketPath, err)
	}

	listeners := []net.Listener{unixListener}
	if s.cfg.TCP.Enabled {
		address := net.JoinHostPort(s.cfg.TCP.Bind, strconv.Itoa(s.cfg.TCP.Port))
		tcpListener, err := net.Listen("tcp", address)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", address, err)
		}
		defer tcpListener.Close()
		listeners = append(listeners, tcpListener)
		s.logger.Info("tcp listener enabled", "address", address)
	}

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		for _, listener := range listeners {
			listener.Close()
		}
	}()

	s.pool.start(ctx, s.cfg.Workers.Count)
	s.logger.Info("voxd listening",
		"socket", socketPath,
		"workers", s.cfg.Workers.Count,
		"max_connections", s.cfg.Limits.MaxConnections)

	var accepting sync.WaitGroup
	for _, listener := range listeners {
		accepting.Add(1)
		go func(listener net.Listener) {
			defer accepting.Done()
			s.acceptLoop(ctx, listener)
		}(listener)
	}
	accepting.Wait()

	// Shutdown: abort every connection so queued requests cancel and
	// blocked reads return, wait for connection goroutines, then let
	// workers finish what they already started.
	for _, c := range s.liveConns() {
		c.abort()
	}
	s.connWG.Wait()
	s.pool.stop()

	s.logger.Info("voxd stopped")
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, listener net.Listener) {
	for {
		netConn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.acceptConn(netConn)
	}
}

// acceptConn admits or rejects one accepted connection. Past the
// connection cap the socket is closed immediately, before any bytes
// are read; a client sees the dial succeed and the first read fail.
func (s *Server) acceptConn(netConn net.Conn) {
	s.mu.Lock()
	if len(s.conns) >= s.cfg.Limits.MaxConnections {
		s.mu.Unlock()
		s.logger.Warn("connection limit reached, rejecting",
			"limit", s.cfg.Limits.MaxConnections,
			"remote", netConn.RemoteAddr().String())
		netConn.Close()
		return
	}
	s.nextID++
	c := newConn(s, s.nextID, netConn)
	s.conns[c.id] = c
	s.mu.Unlock()

	s.stats.connectionsTotal.Add(1)
	s.stats.connectionsActive.Add(1)
	if c.peer != nil {
		c.logger.Info("connection accepted",
			"peer_pid", c.peer.PID,
			"peer_uid", c.peer.UID,
			"peer_gid", c.peer.GID)
	} else {
		c.logger.Info("connection accepted", "remote", netConn.RemoteAddr().String())
	}

	s.connWG.Add(1)
	go func() {
		defer s.connWG.Done()
		c.serve()
	}()
}

func (s *Server) removeConn(c *conn) {
	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()
	s.stats.connectionsActive.Add(-1)
}

func (s *Server) liveConns() []*conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	return conns
}

// ConnectionInfo describes one live connection in a vox.get_status
// result.
type ConnectionInfo struct {
	ID       uint64     `json:"id"`
	Protocol string     `json:"protocol"`
	Peer     *PeerCreds `json:"peer,omitempty"`
	InFlight int64      `json:"in_flight"`
	Age      string     `json:"age"`
}

func (s *Server) connInfos() []ConnectionInfo {
	now := s.clock.Now()
	conns := s.liveConns()
	infos := make([]ConnectionInfo, 0, len(conns))
	for _, c := range conns {
		infos = append(infos, ConnectionInfo{
			ID:       c.id,
			Protocol: c.proto().String(),
			Peer:     c.peer,
			InFlight: c.inFlight.Load(),
			Age:      now.Sub(c.opened).Round(time.Millisecond).String(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
