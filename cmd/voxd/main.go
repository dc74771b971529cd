// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/voxforge/voxd/daemon"
	"github.com/voxforge/voxd/document"
	"github.com/voxforge/voxd/lib/clock"
	"github.com/voxforge/voxd/lib/config"
	"github.com/voxforge/voxd/lib/process"
	"github.com/voxforge/voxd/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		socketPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to voxd.yaml (default: $VOXD_CONFIG, else built-in defaults)")
	flag.StringVar(&socketPath, "socket", "", "unix socket path (overrides socket.path from the config)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("voxd %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if socketPath != "" {
		cfg.Socket.Path = socketPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Process.PIDFile != "" {
		release, err := acquirePIDFile(cfg.Process.PIDFile)
		if err != nil {
			return err
		}
		defer release()
	}

	compression, err := document.ParseCompression(cfg.Snapshot.Compression)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	engine := document.NewMemory(cfg.Snapshot.Dir, compression)

	clk := clock.Real()
	guard := document.NewGuard(clk, cfg.Guard.IdleTimeout.Std(), cfg.Guard.SweepInterval.Std(), logger)
	go guard.Run(ctx)

	logger.Info("voxd starting",
		"version", version.Short(),
		"socket", cfg.Socket.Path,
		"compression", cfg.Snapshot.Compression)

	server := daemon.New(cfg, engine, guard, clk, logger)
	return server.Serve(ctx)
}

// loadConfig resolves the configuration source: an explicit --config
// path wins, then the VOXD_CONFIG environment variable, then built-in
// defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("VOXD_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

// acquirePIDFile takes an exclusive flock on path and writes the
// daemon pid into it. The lock is held for the life of the process, so
// a second daemon pointed at the same pid file fails here instead of
// fighting over the socket. The returned release removes the file and
// drops the lock.
func acquirePIDFile(path string) (release func(), err error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening pid file: %w", err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		holder, _ := io.ReadAll(file)
		file.Close()
		if pid := strings.TrimSpace(string(holder)); pid != "" {
			return nil, fmt.Errorf("pid file %s is held by pid %s", path, pid)
		}
		return nil, fmt.Errorf("locking pid file %s: %w", path, err)
	}
	if err := file.Truncate(0); err != nil {
		file.Close()
		return nil, fmt.Errorf("truncating pid file: %w", err)
	}
	if _, err := fmt.Fprintf(file, "%d\n", os.Getpid()); err != nil {
		file.Close()
		return nil, fmt.Errorf("writing pid file: %w", err)
	}
	return func() {
		os.Remove(path)
		file.Close()
	}, nil
}
