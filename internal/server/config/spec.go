// Package config defines the server configuration structure.
package config

import (
	"net"
	"strconv"
	"time"
)

// ServerConfig is the root configuration for gateserve-server.
type ServerConfig struct {
	Server     ServerSection     `koanf:"server"`
	Pool       PoolSection       `koanf:"pool"`
	Connection ConnectionSection `koanf:"connection"`
	Static     StaticSection     `koanf:"static"`
	Auth       AuthSection       `koanf:"auth"`
	Log        LogSection        `koanf:"log"`
}

// ServerSection configures the listening endpoint and per-connection IO
// deadlines.
type ServerSection struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// Addr returns the listen address in host:port form.
func (s *ServerSection) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// PoolSection configures the worker pool and admission control.
type PoolSection struct {
	// WorkerThreads is the fixed number of worker goroutines.
	WorkerThreads int `koanf:"worker_threads"`

	// MaxConcurrentConnections is the hard in-flight ceiling; connections
	// accepted past it are closed immediately.
	MaxConcurrentConnections int `koanf:"max_concurrent_connections"`
}

// ConnectionSection configures keep-alive reuse and buffering.
type ConnectionSection struct {
	// MaxIdleConnections bounds how many keep-alive connections may be
	// parked awaiting their next request at once. A parked connection
	// keeps its worker, so the engine caps the effective allowance at
	// worker_threads-1.
	MaxIdleConnections int `koanf:"max_idle_connections"`

	// IdleTimeout bounds how long a parked connection may wait.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// KeepAliveTimeout bounds the wait for the next request on a reused
	// connection.
	KeepAliveTimeout time.Duration `koanf:"keep_alive_timeout"`

	// BufferSize is the per-connection read/write buffer size in bytes.
	BufferSize int `koanf:"buffer_size"`
}

// StaticSection configures static content delivery.
type StaticSection struct {
	Enabled          bool   `koanf:"enabled"`
	Directory        string `koanf:"directory"`
	IndexFile        string `koanf:"index_file"`
	DirectoryListing bool   `koanf:"directory_listing"`
}

// AuthSection configures the authentication subsystem.
type AuthSection struct {
	Enabled bool `koanf:"enabled"`

	// Users are plaintext username -> password seed entries, hashed at
	// load time.
	Users map[string]string `koanf:"users"`

	// PrehashedUsers are username -> salt_hex:hash_hex records stored
	// verbatim (output of `gateserve-cli hash-password`).
	PrehashedUsers map[string]string `koanf:"prehashed_users"`

	// ProtectedPaths are path prefixes requiring authentication.
	ProtectedPaths []string `koanf:"protected_paths"`

	// ThrottleRPS limits login/register attempts per client IP per
	// second; 0 disables the throttle.
	ThrottleRPS float64 `koanf:"throttle_rps"`

	// ThrottleBurst is the throttle burst allowance.
	ThrottleBurst int `koanf:"throttle_burst"`

	// SweepInterval is the period of the token expiry sweeper.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// LogSection configures logging.
type LogSection struct {
	Level       string `koanf:"level"`
	Format      string `koanf:"format"`
	LogRequests bool   `koanf:"log_requests"`
}
