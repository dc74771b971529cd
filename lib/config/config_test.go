// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Socket.Path != "/tmp/voxd.sock" {
		t.Errorf("expected socket.path=/tmp/voxd.sock, got %s", cfg.Socket.Path)
	}
	if cfg.Socket.Permissions != 0o666 {
		t.Errorf("expected socket.permissions=0o666, got %o", cfg.Socket.Permissions)
	}
	if cfg.TCP.Enabled {
		t.Error("expected tcp.enabled=false")
	}
	if cfg.Workers.Count != 4 {
		t.Errorf("expected workers.count=4, got %d", cfg.Workers.Count)
	}
	if cfg.Limits.MaxMessageSize != 10*1024*1024 {
		t.Errorf("expected max_message_size=10MiB, got %d", cfg.Limits.MaxMessageSize)
	}
	if cfg.Guard.IdleTimeout.Std() != 5*time.Minute {
		t.Errorf("expected idle_timeout=5m, got %s", cfg.Guard.IdleTimeout.Std())
	}
	if cfg.Snapshot.Compression != "zstd" {
		t.Errorf("expected snapshot.compression=zstd, got %s", cfg.Snapshot.Compression)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_RequiresVoxdConfig(t *testing.T) {
	origConfig := os.Getenv("VOXD_CONFIG")
	defer os.Setenv("VOXD_CONFIG", origConfig)

	os.Unsetenv("VOXD_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when VOXD_CONFIG not set, got nil")
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "voxd.yaml")

	configContent := `
socket:
  path: /run/voxd/test.sock
  permissions: 0o600

tcp:
  enabled: true
  bind: 0.0.0.0
  port: 9000

workers:
  count: 8

guard:
  idle_timeout: 90s
  sweep_interval: 5s

snapshot:
  compression: lz4

logging:
  level: debug
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Socket.Path != "/run/voxd/test.sock" {
		t.Errorf("expected socket.path=/run/voxd/test.sock, got %s", cfg.Socket.Path)
	}
	if cfg.Socket.Permissions != 0o600 {
		t.Errorf("expected permissions=0o600, got %o", cfg.Socket.Permissions)
	}
	if !cfg.TCP.Enabled {
		t.Error("expected tcp.enabled=true")
	}
	if cfg.TCP.Port != 9000 {
		t.Errorf("expected tcp.port=9000, got %d", cfg.TCP.Port)
	}
	if cfg.Workers.Count != 8 {
		t.Errorf("expected workers.count=8, got %d", cfg.Workers.Count)
	}

	// Sections absent from the file keep their defaults.
	if cfg.Workers.QueueSize != 1000 {
		t.Errorf("expected default queue_size=1000, got %d", cfg.Workers.QueueSize)
	}
	if cfg.Limits.MaxConnections != 10 {
		t.Errorf("expected default max_connections=10, got %d", cfg.Limits.MaxConnections)
	}

	if cfg.Guard.IdleTimeout.Std() != 90*time.Second {
		t.Errorf("expected idle_timeout=90s, got %s", cfg.Guard.IdleTimeout.Std())
	}
	if cfg.Guard.SweepInterval.Std() != 5*time.Second {
		t.Errorf("expected sweep_interval=5s, got %s", cfg.Guard.SweepInterval.Std())
	}
	if cfg.Snapshot.Compression != "lz4" {
		t.Errorf("expected compression=lz4, got %s", cfg.Snapshot.Compression)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level=debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadFileBadDuration(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "voxd.yaml")

	configContent := `
guard:
  idle_timeout: soon
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadFile(configPath); err == nil {
		t.Fatal("expected error for unparseable duration, got nil")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/voxd.yaml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	origPath := os.Getenv("VOXD_SOCKET")
	defer os.Setenv("VOXD_SOCKET", origPath)
	os.Setenv("VOXD_SOCKET", "/env/voxd.sock")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "voxd.yaml")

	configContent := `
socket:
  path: /file/voxd.sock
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Socket.Path != "/file/voxd.sock" {
		t.Errorf("expected socket.path=/file/voxd.sock from file, got %s (env vars should not override)", cfg.Socket.Path)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/voxd.sock",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/voxd.sock",
		},
		{
			input:    "${MISSING:-/tmp}/voxd.sock",
			vars:     map[string]string{},
			expected: "/tmp/voxd.sock",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestExpandAppliedToPathFields(t *testing.T) {
	origHome := os.Getenv("HOME")
	defer os.Setenv("HOME", origHome)
	os.Setenv("HOME", "/home/vox")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "voxd.yaml")

	configContent := `
socket:
  path: ${HOME}/run/voxd.sock
snapshot:
  dir: ${HOME}/projects
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Socket.Path != "/home/vox/run/voxd.sock" {
		t.Errorf("expected expanded socket.path, got %s", cfg.Socket.Path)
	}
	if cfg.Snapshot.Dir != "/home/vox/projects" {
		t.Errorf("expected expanded snapshot.dir, got %s", cfg.Snapshot.Dir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "empty socket path",
			modify: func(c *Config) {
				c.Socket.Path = ""
			},
			wantErr: true,
		},
		{
			name: "zero workers",
			modify: func(c *Config) {
				c.Workers.Count = 0
			},
			wantErr: true,
		},
		{
			name: "zero queue size",
			modify: func(c *Config) {
				c.Workers.QueueSize = 0
			},
			wantErr: true,
		},
		{
			name: "tiny message ceiling",
			modify: func(c *Config) {
				c.Limits.MaxMessageSize = 16
			},
			wantErr: true,
		},
		{
			name: "read buffer above ceiling",
			modify: func(c *Config) {
				c.Limits.ReadBufferSize = c.Limits.MaxMessageSize + 1
			},
			wantErr: true,
		},
		{
			name: "tcp enabled with bad port",
			modify: func(c *Config) {
				c.TCP.Enabled = true
				c.TCP.Port = 0
			},
			wantErr: true,
		},
		{
			name: "tcp disabled ignores port",
			modify: func(c *Config) {
				c.TCP.Enabled = false
				c.TCP.Port = 0
			},
			wantErr: false,
		},
		{
			name: "zero idle timeout",
			modify: func(c *Config) {
				c.Guard.IdleTimeout = 0
			},
			wantErr: true,
		},
		{
			name: "unknown compression",
			modify: func(c *Config) {
				c.Snapshot.Compression = "brotli"
			},
			wantErr: true,
		},
		{
			name: "unknown log level",
			modify: func(c *Config) {
				c.Logging.Level = "trace"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "debug"
	if got := cfg.SlogLevel().String(); got != "DEBUG" {
		t.Errorf("SlogLevel() = %s, want DEBUG", got)
	}
	cfg.Logging.Level = "error"
	if got := cfg.SlogLevel().String(); got != "ERROR" {
		t.Errorf("SlogLevel() = %s, want ERROR", got)
	}
}
