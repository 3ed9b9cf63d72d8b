package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/enobrev/htd-lync-mqtt/internal/bridge"
	"github.com/enobrev/htd-lync-mqtt/internal/infrastructure/config"
	"github.com/enobrev/htd-lync-mqtt/internal/infrastructure/logging"
	"github.com/enobrev/htd-lync-mqtt/internal/mirror"
	"github.com/enobrev/htd-lync-mqtt/internal/sequencer"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StateReader is the read side of the state mirror.
type StateReader interface {
	Zones() []mirror.ZoneState
	Zone(zone int) (mirror.ZoneState, error)
	System() mirror.SystemState
	Mp3() mirror.Mp3State
	SourceCatalog() map[int]string
	Identity() (mirror.Identity, bool)
}

// HealthSource supplies the current health report.
type HealthSource interface {
	Health() bridge.HealthMessage
}

// BrokerChecker reports whether the MQTT broker connection is alive.
type BrokerChecker interface {
	HealthCheck(ctx context.Context) error
}

// IntentSubmitter queues sequencer intents.
type IntentSubmitter interface {
	Submit(in sequencer.Intent) (string, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	State   StateReader
	Health  HealthSource    // optional
	Broker  BrokerChecker   // optional; /health answers 503 when it fails
	Intents IntentSubmitter // optional; refresh returns 503 without it
	Version string
}

// Server is the HTTP status server.
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	state   StateReader
	health  HealthSource
	broker  BrokerChecker
	intents IntentSubmitter
	version string

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.State == nil {
		return nil, fmt.Errorf("state reader is required")
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		state:   deps.State,
		health:  deps.Health,
		broker:  deps.Broker,
		intents: deps.Intents,
		version: deps.Version,
	}, nil
}

// Start binds the listener and serves in a background goroutine.
// A bind failure (port in use, etc.) is returned directly.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("API server listening", "address", ln.Addr().String())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
