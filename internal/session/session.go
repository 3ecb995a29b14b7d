// Package session holds the client's belief about which identity, if any,
// is currently authenticated, and persists it across runs.
package session

import "sync"

// Session is the persisted authentication state. Token and UserID are always
// set together and cleared together.
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Present reports whether the session holds an identity. Presence only; the
// token may still be expired or revoked server-side.
func (s Session) Present() bool {
	return s.Token != ""
}

// Storage is the durable persistence boundary for a session. Implementations
// must treat each Save as an atomic replace of a single record.
type Storage interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// Store is the in-memory source of truth for the current session, writing
// through to a Storage adapter on every mutation. It is constructed once at
// startup and passed explicitly to whatever needs it.
type Store struct {
	mu      sync.RWMutex
	current Session
	storage Storage
}

// NewStore creates a store backed by the given adapter and rehydrates the
// session from it. A missing or malformed record rehydrates as empty rather
// than failing startup.
func NewStore(storage Storage) *Store {
	s := &Store{storage: storage}
	if sess, err := storage.Load(); err == nil {
		s.current = sess
	}
	return s
}

// Current returns the session. Synchronous and side-effect-free.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token returns the current token, empty when signed out.
func (s *Store) Token() string {
	return s.Current().Token
}

// UserID returns the current user ID, empty when signed out.
func (s *Store) UserID() string {
	return s.Current().UserID
}

// SetAuth replaces both fields atomically and persists the result.
func (s *Store) SetAuth(token, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{Token: token, UserID: userID}
	return s.storage.Save(s.current)
}

// ClearAuth resets both fields atomically and persists the result. No
// network call is involved; the token scheme is stateless.
func (s *Store) ClearAuth() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{}
	return s.storage.Clear()
}
