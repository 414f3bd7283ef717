// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyPool(&cfg.Pool); err != nil {
		return err
	}
	if err := verifyConnection(&cfg.Connection); err != nil {
		return err
	}
	if err := verifyStatic(&cfg.Static); err != nil {
		return err
	}
	if err := verifyAuth(&cfg.Auth); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Host == "" {
		return errors.New("server.host is required")
	}
	// Port 0 asks the OS for an ephemeral port.
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 0-65535", cfg.Port)
	}
	if cfg.ReadTimeout <= 0 {
		return errors.New("server.read_timeout must be positive")
	}
	if cfg.WriteTimeout <= 0 {
		return errors.New("server.write_timeout must be positive")
	}
	return nil
}

func verifyPool(cfg *PoolSection) error {
	if cfg.WorkerThreads < 1 {
		return errors.New("pool.worker_threads must be at least 1")
	}
	if cfg.MaxConcurrentConnections < 1 {
		return errors.New("pool.max_concurrent_connections must be at least 1")
	}
	return nil
}

func verifyConnection(cfg *ConnectionSection) error {
	if cfg.MaxIdleConnections < 0 {
		return errors.New("connection.max_idle_connections must not be negative")
	}
	if cfg.IdleTimeout <= 0 {
		return errors.New("connection.idle_timeout must be positive")
	}
	if cfg.KeepAliveTimeout <= 0 {
		return errors.New("connection.keep_alive_timeout must be positive")
	}
	if cfg.BufferSize < 512 {
		return fmt.Errorf("connection.buffer_size %d too small (min 512)", cfg.BufferSize)
	}
	return nil
}

func verifyStatic(cfg *StaticSection) error {
	if cfg.Enabled && cfg.Directory == "" {
		return errors.New("static.directory is required when static serving is enabled")
	}
	return nil
}

func verifyAuth(cfg *AuthSection) error {
	if cfg.ThrottleRPS < 0 {
		return errors.New("auth.throttle_rps must not be negative")
	}
	if cfg.SweepInterval < 0 {
		return errors.New("auth.sweep_interval must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !validLogLevels[cfg.Level] {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	if cfg.Format != "json" && cfg.Format != "text" {
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}
