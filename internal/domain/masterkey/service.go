package masterkey

import (
	"errors"
	"time"

	"golang.org/x/exp/slog"
)

// TTL of a cached master key. No renewal on activity: once it lapses the
// caller has to re-derive from the master password.
const TTL = time.Hour

// ErrKeyRequired signals that no valid master key is cached for the user.
// Surfaced distinctly from generic authorization failures so the caller can
// prompt for the master password instead of failing hard.
var ErrKeyRequired = errors.New("master key required")

type Servicer interface {
	Cache(userID int, key []byte) time.Time
	Key(userID int) ([]byte, error)
	Drop(userID int)
}

type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{
		store: store,
		ttl:   TTL,
		now:   time.Now,
		log:   log.With("component", "masterkey_service"),
	}
}

// Cache stores a freshly derived key for the user and returns its expiry.
// Unlocked -> Unlocked just replaces the entry wholesale; an entry is never
// mutated in place.
func (s *Service) Cache(userID int, key []byte) time.Time {
	expiresAt := s.now().Add(s.ttl)
	s.store.Put(userID, Session{Key: key, ExpiresAt: expiresAt})
	s.log.Debug("master key cached", "user_id", userID, "expires_at", expiresAt)
	return expiresAt
}

// Key returns the cached master key. Expiry is evaluated lazily here, at the
// moment of use; there is no background sweeper.
func (s *Service) Key(userID int) ([]byte, error) {
	sess, ok := s.store.Get(userID)
	if !ok {
		return nil, ErrKeyRequired
	}
	if !s.now().Before(sess.ExpiresAt) {
		s.store.Delete(userID)
		s.log.Debug("master key session expired", "user_id", userID)
		return nil, ErrKeyRequired
	}
	return sess.Key, nil
}

// Drop discards the cached key, on logout or explicit lock.
func (s *Service) Drop(userID int) {
	s.store.Delete(userID)
}
