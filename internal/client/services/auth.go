package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/notesync/internal/client/client"
	"github.com/dmitrijs2005/notesync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/notesync/internal/client/signals"
	"github.com/dmitrijs2005/notesync/internal/logging"
)

// Session keeps the signed-in user and the token pair. Tokens are
// persisted in the metadata table so a restart can restore the session
// without asking for the password.
//
// Every change of the signed-in user publishes signals.AuthChanged.
type Session struct {
	client client.Client
	meta   metadata.Repository
	bus    *signals.Bus
	logger logging.Logger

	mu       sync.RWMutex
	ownerID  string
	username string
}

func NewSession(c client.Client, meta metadata.Repository, bus *signals.Bus, logger logging.Logger) *Session {
	if logger == nil {
		logger = logging.Discard()
	}
	if bus == nil {
		bus = signals.NewBus()
	}
	return &Session{client: c, meta: meta, bus: bus, logger: logger}
}

// OwnerID returns the id of the signed-in user, "" when signed out.
func (s *Session) OwnerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerID
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *Session) SignedIn() bool {
	return s.OwnerID() != ""
}

func (s *Session) Register(ctx context.Context, username string, password []byte) error {
	if err := s.client.Register(ctx, username, password); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// Login authenticates against the server and persists the new session.
func (s *Session) Login(ctx context.Context, username string, password []byte) error {
	pair, err := s.client.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	owner, err := client.OwnerFromToken(pair.Access)
	if err != nil {
		s.client.SetTokens(client.TokenPair{})
		return fmt.Errorf("login: %w", err)
	}

	err = s.meta.SetMany(ctx, map[string][]byte{
		metadata.KeyAccessToken:  []byte(pair.Access),
		metadata.KeyRefreshToken: []byte(pair.Refresh),
		metadata.KeyUsername:     []byte(username),
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.set(owner, username)
	s.logger.Info(ctx, "signed in", "username", username, "owner_id", owner)
	s.bus.Publish(signals.AuthChanged)
	return nil
}

// Restore reloads a persisted session. It reports false when there is
// none or the stored access token is unreadable.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	values, err := s.meta.List(ctx)
	if err != nil {
		return false, fmt.Errorf("restore session: %w", err)
	}

	pair := client.TokenPair{
		Access:  string(values[metadata.KeyAccessToken]),
		Refresh: string(values[metadata.KeyRefreshToken]),
	}
	if pair.Access == "" {
		return false, nil
	}

	owner, err := client.OwnerFromToken(pair.Access)
	if err != nil {
		s.logger.Warn(ctx, "stored session is unreadable, discarding", "error", err)
		return false, s.meta.Delete(ctx, metadata.KeyAccessToken, metadata.KeyRefreshToken)
	}

	s.client.SetTokens(pair)
	s.set(owner, string(values[metadata.KeyUsername]))
	return true, nil
}

// Refresh rotates the token pair. A rejected refresh token ends the
// session.
func (s *Session) Refresh(ctx context.Context) error {
	if !s.SignedIn() {
		return ErrNotSignedIn
	}
	if _, err := s.client.Refresh(ctx); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return fmt.Errorf("refresh: %w", ErrNotSignedIn)
		}
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

// Logout forgets the tokens. Local records stay; they belong to their owner
// and are picked up again on the next sign-in.
func (s *Session) Logout(ctx context.Context) error {
	s.client.SetTokens(client.TokenPair{})

	if err := s.meta.Delete(ctx, metadata.KeyAccessToken, metadata.KeyRefreshToken); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	s.set("", s.Username())
	s.logger.Info(ctx, "signed out")
	s.bus.Publish(signals.AuthChanged)
	return nil
}

// TokensChanged is the client.WithTokenListener hook. A refreshed pair is
// persisted; an empty pair means the server dropped the session.
func (s *Session) TokensChanged(pair client.TokenPair) {
	ctx := context.Background()

	if pair.Access == "" {
		if err := s.meta.Delete(ctx, metadata.KeyAccessToken, metadata.KeyRefreshToken); err != nil {
			s.logger.Error(ctx, "failed to clear dropped session", "error", err)
		}
		s.set("", s.Username())
		s.logger.Warn(ctx, "session expired, sign in again")
		s.bus.Publish(signals.AuthChanged)
		return
	}

	err := s.meta.SetMany(ctx, map[string][]byte{
		metadata.KeyAccessToken:  []byte(pair.Access),
		metadata.KeyRefreshToken: []byte(pair.Refresh),
	})
	if err != nil {
		s.logger.Error(ctx, "failed to persist refreshed tokens", "error", err)
	}

	owner, err := client.OwnerFromToken(pair.Access)
	if err == nil && owner != s.OwnerID() {
		s.set(owner, s.Username())
		s.bus.Publish(signals.AuthChanged)
	}
}

// Ping proxies a liveness check to the underlying client.
func (s *Session) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *Session) set(owner, username string) {
	s.mu.Lock()
	s.ownerID, s.username = owner, username
	s.mu.Unlock()
}
