package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattsolo1/grove-ged/pkg/gateway"
	"github.com/mattsolo1/grove-ged/pkg/models"
)

// ConnState is the connectivity state shown to the user.
type ConnState string

const (
	ConnChecking     ConnState = "checking"
	ConnConnected    ConnState = "connected"
	ConnDisconnected ConnState = "disconnected"
)

// ErrDisconnected is returned when no endpoint answers the health check.
var ErrDisconnected = errors.New("document service unreachable")

// Connection describes the endpoint in use.
type Connection struct {
	State ConnState `json:"state" yaml:"state"`
	URL   string    `json:"url" yaml:"url"`
	// Confirmed is false when URL is the degraded default.
	Confirmed bool           `json:"confirmed" yaml:"confirmed"`
	Health    *models.Health `json:"health,omitempty" yaml:"health,omitempty"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Connection returns the current connectivity state.
func (s *Service) Connection() Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Service) setConnection(c Connection) {
	s.mu.Lock()
	s.conn = c
	s.mu.Unlock()
	s.notify()
}

// Ping resolves the endpoint and checks its health without loading data.
func (s *Service) Ping(ctx context.Context) (Connection, error) {
	s.setConnection(Connection{State: ConnChecking})

	url := s.Resolver.Resolve(ctx)
	health, err := s.Client.Health(ctx)
	conn := Connection{URL: url, Confirmed: s.Resolver.Confirmed()}
	if err != nil {
		conn.State = ConnDisconnected
		conn.Error = gateway.Message(err)
		s.setConnection(conn)
		s.Logger.WithError(err).WithField("url", url).Warn("Health check failed")
		return conn, fmt.Errorf("%w at %s: %v", ErrDisconnected, url, err)
	}
	conn.State = ConnConnected
	conn.Health = health
	s.setConnection(conn)
	return conn, nil
}

// Connect checks the service and, when it answers, loads the cabinets, the
// tag registry and the favorites. Load failures after a successful health
// check leave the connection up and are returned joined.
func (s *Service) Connect(ctx context.Context) error {
	if _, err := s.Ping(ctx); err != nil {
		// Favorites still come up from the local cache.
		_ = s.Favorites.Load(ctx)
		return err
	}

	var errs []error
	if err := s.Nav.LoadCabinets(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.Tags.LoadAll(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.Favorites.Load(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Reconnect forgets the resolved endpoint and connects again.
func (s *Service) Reconnect(ctx context.Context) error {
	s.Resolver.Reset()
	return s.Connect(ctx)
}

// SetEndpoints stores an override candidate list and reconnects.
func (s *Service) SetEndpoints(ctx context.Context, urls []string) error {
	if err := s.Resolver.SetOverrides(urls); err != nil {
		return err
	}
	return s.Connect(ctx)
}

// ResetEndpoints removes the override list and reconnects.
func (s *Service) ResetEndpoints(ctx context.Context) error {
	if err := s.Resolver.ClearOverrides(); err != nil {
		return err
	}
	return s.Connect(ctx)
}
