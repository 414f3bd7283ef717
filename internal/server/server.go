// Package server assembles the GateServe composition root.
//
// It owns the credential store, token registry, router, and connection
// engine, and exposes the administrative surface: add a user (plaintext
// or pre-hashed), add a protected path prefix, start, stop.
package server

import (
	"context"
	"fmt"

	"github.com/yndnr/gateserve-go/internal/core/service"
	"github.com/yndnr/gateserve-go/internal/server/config"
	"github.com/yndnr/gateserve-go/internal/server/engine"
	"github.com/yndnr/gateserve-go/internal/server/router"
	"github.com/yndnr/gateserve-go/internal/telemetry/logger"
	"github.com/yndnr/gateserve-go/internal/telemetry/metric"
)

// Server is the composition root.
type Server struct {
	cfg     *config.ServerConfig
	log     logger.Logger
	metrics *metric.Registry

	creds    *service.CredentialStore
	tokens   *service.TokenRegistry
	throttle *service.ThrottleRegistry
	router   *router.Router
	engine   *engine.Engine

	stopSweepers []func()
}

// New builds a server from a verified configuration. Seed users from
// the config are hashed (or parsed, for pre-hashed records) at load
// time; a malformed seed record fails construction.
func New(cfg *config.ServerConfig, log logger.Logger) (*Server, error) {
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	metrics := metric.NewRegistry()
	creds := service.NewCredentialStore()
	tokens := service.NewTokenRegistry()
	throttle := service.NewThrottleRegistry(cfg.Auth.ThrottleRPS, cfg.Auth.ThrottleBurst)

	for username, password := range cfg.Auth.Users {
		if err := creds.Register(username, password); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", username, err)
		}
	}
	for username, record := range cfg.Auth.PrehashedUsers {
		if err := creds.AddUserPrehashed(username, record); err != nil {
			return nil, fmt.Errorf("seed prehashed user %s: %w", username, err)
		}
	}

	rt := router.New(cfg, creds, tokens, throttle, metrics, log)
	eng := engine.New(cfg, rt, log, metrics)

	return &Server{
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
		creds:    creds,
		tokens:   tokens,
		throttle: throttle,
		router:   rt,
		engine:   eng,
	}, nil
}

// AddUser registers a user, hashing the password with a fresh salt.
func (s *Server) AddUser(username, password string) error {
	return s.creds.Register(username, password)
}

// AddUserPrehashed stores a user record in salt_hex:hash_hex form.
func (s *Server) AddUserPrehashed(username, record string) error {
	return s.creds.AddUserPrehashed(username, record)
}

// AddProtectedPath adds a path prefix requiring authentication.
func (s *Server) AddProtectedPath(prefix string) {
	s.router.AddProtectedPath(prefix)
}

// Start binds the listener and launches the engine, the token expiry
// sweeper, and the throttle idle-entry sweeper.
func (s *Server) Start() error {
	if err := s.engine.Start(); err != nil {
		return err
	}

	interval := s.cfg.Auth.SweepInterval
	if interval > 0 {
		s.stopSweepers = append(s.stopSweepers,
			s.tokens.StartSweeper(interval),
			s.throttle.StartSweeper(interval),
		)
	}

	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	return s.engine.Addr()
}

// Shutdown stops accepting, drains in-flight connections until ctx
// expires, and stops the sweepers.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, stop := range s.stopSweepers {
		stop()
	}
	return s.engine.Shutdown(ctx)
}
