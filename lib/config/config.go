// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "5m" or "30s" via time.ParseDuration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the master configuration for the voxd daemon.
type Config struct {
	// Socket configures the unix listener.
	Socket SocketConfig `yaml:"socket"`

	// TCP configures the optional TCP listener.
	TCP TCPConfig `yaml:"tcp"`

	// Workers configures the request worker pool.
	Workers WorkersConfig `yaml:"workers"`

	// Limits bounds per-connection and daemon-wide resources.
	Limits LimitsConfig `yaml:"limits"`

	// Guard configures the document guard's idle sweep.
	Guard GuardConfig `yaml:"guard"`

	// Process configures pid-file handling.
	Process ProcessConfig `yaml:"process"`

	// Snapshot configures project snapshot persistence.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Logging configures the slog handler.
	Logging LoggingConfig `yaml:"logging"`
}

// SocketConfig configures the unix socket listener.
type SocketConfig struct {
	// Path is the unix socket path. A stale socket file at this path
	// is removed before bind.
	// Default: /tmp/voxd.sock
	Path string `yaml:"path"`

	// Permissions is the file mode set on the socket after bind.
	// Default: 0o666
	Permissions uint32 `yaml:"permissions"`
}

// TCPConfig configures the optional TCP listener. TCP connections
// speak the same protocols as unix ones but carry no peer credentials.
type TCPConfig struct {
	// Enabled turns the TCP listener on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Bind is the interface address to listen on.
	// Default: 127.0.0.1
	Bind string `yaml:"bind"`

	// Port is the TCP port.
	// Default: 7890
	Port int `yaml:"port"`
}

// WorkersConfig configures the worker pool.
type WorkersConfig struct {
	// Count is the number of worker goroutines.
	// Default: 4
	Count int `yaml:"count"`

	// QueueSize is the capacity of the shared request queue. A full
	// queue makes submission block until a worker drains it.
	// Default: 1000
	QueueSize int `yaml:"queue_size"`
}

// LimitsConfig bounds resource use.
type LimitsConfig struct {
	// MaxConnections caps concurrently served connections. Accepts
	// past the cap are closed immediately.
	// Default: 10
	MaxConnections int `yaml:"max_connections"`

	// MaxMessageSize is the hard ceiling for one message: a protocol A
	// line or a protocol B frame payload. Past it the connection is
	// closed.
	// Default: 10485760 (10 MiB)
	MaxMessageSize int `yaml:"max_message_size"`

	// ReadBufferSize is the initial per-connection read buffer; it
	// grows on demand up to MaxMessageSize.
	// Default: 65536
	ReadBufferSize int `yaml:"read_buffer_size"`
}

// GuardConfig configures the document guard's idle sweep.
type GuardConfig struct {
	// IdleTimeout is how long a guard token may sit without activity
	// before the sweep reclaims it.
	// Default: 5m
	IdleTimeout Duration `yaml:"idle_timeout"`

	// SweepInterval is how often the sweep checks the held token.
	// Default: 30s
	SweepInterval Duration `yaml:"sweep_interval"`
}

// ProcessConfig configures process-level state.
type ProcessConfig struct {
	// PIDFile, when set, is exclusively flocked and written with the
	// daemon pid at startup. A second daemon on the same file fails
	// fast.
	// Default: "" (no pid file)
	PIDFile string `yaml:"pid_file"`
}

// SnapshotConfig configures project snapshot persistence.
type SnapshotConfig struct {
	// Dir is the directory relative snapshot paths resolve against.
	// Default: "" (current working directory)
	Dir string `yaml:"dir"`

	// Compression selects the snapshot body codec: none, lz4, or zstd.
	// Default: zstd
	Compression string `yaml:"compression"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is the minimum level logged: debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level"`
}

// Default returns the default configuration: a local daemon on
// /tmp/voxd.sock with four workers and no pid file.
func Default() *Config {
	return &Config{
		Socket: SocketConfig{
			Path:        "/tmp/voxd.sock",
			Permissions: 0o666,
		},
		TCP: TCPConfig{
			Enabled: false,
			Bind:    "127.0.0.1",
			Port:    7890,
		},
		Workers: WorkersConfig{
			Count:     4,
			QueueSize: 1000,
		},
		Limits: LimitsConfig{
			MaxConnections: 10,
			MaxMessageSize: 10 * 1024 * 1024,
			ReadBufferSize: 64 * 1024,
		},
		Guard: GuardConfig{
			IdleTimeout:   Duration(5 * time.Minute),
			SweepInterval: Duration(30 * time.Second),
		},
		Process: ProcessConfig{
			PIDFile: "",
		},
		Snapshot: SnapshotConfig{
			Dir:         "",
			Compression: "zstd",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by the VOXD_CONFIG
// environment variable. It fails when the variable is unset; callers
// that can run on defaults should check for the variable themselves
// and fall back to [Default].
func Load() (*Config, error) {
	path := os.Getenv("VOXD_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("VOXD_CONFIG environment variable not set; " +
			"set it to the path of your voxd.yaml config file, or use --config flag")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, merging it
// over [Default] values.
//
// The config file is the single source of truth. Environment variables
// do not override config values; the only expansion performed is
// ${VAR} / ${VAR:-default} inside path fields for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":            os.Getenv("HOME"),
		"XDG_RUNTIME_DIR": os.Getenv("XDG_RUNTIME_DIR"),
	}

	c.Socket.Path = expandVars(c.Socket.Path, vars)
	c.Process.PIDFile = expandVars(c.Process.PIDFile, vars)
	c.Snapshot.Dir = expandVars(c.Snapshot.Dir, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Compression codec names accepted by snapshot.compression.
var compressionNames = []string{"none", "lz4", "zstd"}

// Log level names accepted by logging.level.
var levelNames = []string{"debug", "info", "warn", "error"}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Socket.Path == "" {
		errs = append(errs, fmt.Errorf("socket.path is required"))
	}
	if c.TCP.Enabled {
		if c.TCP.Bind == "" {
			errs = append(errs, fmt.Errorf("tcp.bind is required when tcp.enabled"))
		}
		if c.TCP.Port < 1 || c.TCP.Port > 65535 {
			errs = append(errs, fmt.Errorf("tcp.port must be in 1..65535, got %d", c.TCP.Port))
		}
	}
	if c.Workers.Count < 1 {
		errs = append(errs, fmt.Errorf("workers.count must be at least 1, got %d", c.Workers.Count))
	}
	if c.Workers.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("workers.queue_size must be at least 1, got %d", c.Workers.QueueSize))
	}
	if c.Limits.MaxConnections < 1 {
		errs = append(errs, fmt.Errorf("limits.max_connections must be at least 1, got %d", c.Limits.MaxConnections))
	}
	if c.Limits.MaxMessageSize < 1024 {
		errs = append(errs, fmt.Errorf("limits.max_message_size must be at least 1024, got %d", c.Limits.MaxMessageSize))
	}
	if c.Limits.ReadBufferSize < 1 {
		errs = append(errs, fmt.Errorf("limits.read_buffer_size must be at least 1, got %d", c.Limits.ReadBufferSize))
	}
	if c.Limits.ReadBufferSize > c.Limits.MaxMessageSize {
		errs = append(errs, fmt.Errorf("limits.read_buffer_size (%d) exceeds limits.max_message_size (%d)",
			c.Limits.ReadBufferSize, c.Limits.MaxMessageSize))
	}
	if c.Guard.IdleTimeout.Std() <= 0 {
		errs = append(errs, fmt.Errorf("guard.idle_timeout must be positive"))
	}
	if c.Guard.SweepInterval.Std() <= 0 {
		errs = append(errs, fmt.Errorf("guard.sweep_interval must be positive"))
	}
	if !contains(compressionNames, c.Snapshot.Compression) {
		errs = append(errs, fmt.Errorf("snapshot.compression must be one of: %v", compressionNames))
	}
	if !contains(levelNames, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levelNames))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SlogLevel maps logging.level to a slog.Level. Call after Validate.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
