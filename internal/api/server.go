// Package api provides the HTTP server for busboard.
//
// It exposes the TRMNL plugin lifecycle webhooks (install redirect,
// install-success, management form, uninstall), the markup render
// endpoint the hub polls, and a knowledge-base page plus health probe.
//
// The server follows the same lifecycle pattern as the infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: all methods are safe for concurrent use.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wychoong/busboard/internal/device"
	"github.com/wychoong/busboard/internal/infrastructure/config"
	"github.com/wychoong/busboard/internal/infrastructure/influxdb"
	"github.com/wychoong/busboard/internal/infrastructure/logging"
	"github.com/wychoong/busboard/internal/transit"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// ArrivalFetcher produces an arrival snapshot for one stop code.
// Satisfied by *transit.Client; tests substitute a stub.
type ArrivalFetcher interface {
	Fetch(ctx context.Context, stopCode string) transit.Snapshot
}

// TokenExchanger swaps a hub authorization code for an access token.
// Satisfied by *trmnl.OAuthClient.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// HealthChecker reports backend liveness for the health probe.
// Satisfied by *database.DB.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.ServerConfig
	Logger      *logging.Logger
	Store       device.Store
	Arrivals    ArrivalFetcher
	OAuth       TokenExchanger
	Telemetry   *influxdb.Client // optional, nil when disabled
	Health      HealthChecker    // optional
	Defaults    device.DefaultStops
	MaxServices int
	Version     string
}

// Server is the HTTP server for busboard.
type Server struct {
	cfg         config.ServerConfig
	logger      *logging.Logger
	store       device.Store
	arrivals    ArrivalFetcher
	oauth       TokenExchanger
	telemetry   *influxdb.Client
	health      HealthChecker
	defaults    device.DefaultStops
	maxServices int
	version     string
	server      *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("device store is required")
	}
	if deps.Arrivals == nil {
		return nil, fmt.Errorf("arrival fetcher is required")
	}
	if deps.OAuth == nil {
		return nil, fmt.Errorf("oauth client is required")
	}
	if deps.MaxServices <= 0 {
		deps.MaxServices = 6
	}

	return &Server{
		cfg:         deps.Config,
		logger:      deps.Logger,
		store:       deps.Store,
		arrivals:    deps.Arrivals,
		oauth:       deps.OAuth,
		telemetry:   deps.Telemetry,
		health:      deps.Health,
		defaults:    deps.Defaults,
		maxServices: deps.MaxServices,
		version:     deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to ten seconds
// for in-flight requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
