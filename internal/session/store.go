// Package session persists the authenticated user record under a single
// well-known key and derives the session from it on every read.
//
// The store is the only component allowed to touch the backend. Writes are
// verified by reading them back; reads never fail and remove any record that
// can no longer be trusted.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"phonelogin/internal/autherr"
	"phonelogin/internal/files"
	"phonelogin/internal/models"
)

// DefaultKey is the backend key the user record lives under.
const DefaultKey = "user"

// Store reads and writes the session record.
type Store struct {
	backend files.Backend
	key     string
	log     zerolog.Logger
	mu      sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used for self-healing warnings.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// NewStore returns a store over backend.
func NewStore(backend files.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "session_store").Str("key", s.key).Logger()
	return s
}

// Save persists user and verifies the write by reading it back.
func (s *Store) Save(ctx context.Context, user *models.UserRecord) error {
	if err := user.Validate(); err != nil {
		return autherr.Storage(autherr.ReasonInvalidData, "invalid user data", err)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return autherr.Storage(autherr.ReasonInvalidData, "invalid user data", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Set(ctx, s.key, data); err != nil {
		if errors.Is(err, files.ErrQuotaExceeded) {
			return autherr.Storage(autherr.ReasonQuotaExceeded, "storage quota exceeded", err)
		}
		return autherr.Storage(autherr.ReasonUnavailable, "storage is unavailable", err)
	}

	stored, err := s.backend.Get(ctx, s.key)
	switch {
	case errors.Is(err, files.ErrNotFound):
		return autherr.Storage(autherr.ReasonIntegrity, "data verification failed: record missing after write", err)
	case err != nil:
		return autherr.Storage(autherr.ReasonIntegrity, "data verification failed", err)
	case !bytes.Equal(stored, data):
		return autherr.Storage(autherr.ReasonIntegrity, "data verification failed: stored record differs", nil)
	}
	s.log.Debug().Str("email", user.Email).Msg("session saved")
	return nil
}

// Load returns the stored record, or nil when there is none or it cannot be
// trusted. Unparseable or incomplete records are deleted.
func (s *Store) Load(ctx context.Context) *models.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) *models.UserRecord {
	data, err := s.backend.Get(ctx, s.key)
	switch {
	case errors.Is(err, files.ErrNotFound):
		return nil
	case errors.Is(err, files.ErrCorrupt):
		s.discard(ctx, err)
		return nil
	case err != nil:
		s.log.Warn().Err(err).Msg("session read failed")
		return nil
	}

	var user models.UserRecord
	if err := json.Unmarshal(data, &user); err != nil {
		s.discard(ctx, err)
		return nil
	}
	if err := user.Validate(); err != nil {
		s.discard(ctx, err)
		return nil
	}
	return &user
}

func (s *Store) discard(ctx context.Context, cause error) {
	s.log.Warn().Err(cause).Msg("discarding corrupt session record")
	if err := s.backend.Delete(ctx, s.key); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete corrupt session record")
	}
}

// Clear removes the stored record and checks that it is gone.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(ctx, s.key); err != nil {
		return autherr.Storage(autherr.ReasonUnavailable, "failed to clear session", err)
	}
	_, err := s.backend.Get(ctx, s.key)
	switch {
	case errors.Is(err, files.ErrNotFound):
		return nil
	case err == nil, errors.Is(err, files.ErrCorrupt):
		return autherr.Storage(autherr.ReasonIntegrity, "session still present after clear", err)
	default:
		return autherr.Storage(autherr.ReasonUnavailable, "could not verify session was cleared", err)
	}
}

// IsAuthenticated reports whether a trusted record is stored.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	return s.Load(ctx) != nil
}

// State derives the session from a single read of the backend.
func (s *Store) State(ctx context.Context) models.Session {
	user := s.Load(ctx)
	return models.Session{IsAuthenticated: user != nil, User: user}
}
