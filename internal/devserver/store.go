package devserver

import (
	"context"
	"sync"

	"github.com/ava-companion/ava/internal/api"
)

// TranscriptStore is the per-user message log. History returns chronological
// order; IDs are minted by the caller before Append.
type TranscriptStore interface {
	Append(ctx context.Context, userID string, msgs ...api.Message) error
	History(ctx context.Context, userID string, limit int) ([]api.Message, error)
}

// MemoryTranscriptStore keeps transcripts in process memory. The default
// backend; everything is lost on restart, which is fine for development.
type MemoryTranscriptStore struct {
	mu     sync.RWMutex
	byUser map[string][]api.Message
}

// NewMemoryTranscriptStore creates an empty in-memory store.
func NewMemoryTranscriptStore() *MemoryTranscriptStore {
	return &MemoryTranscriptStore{byUser: make(map[string][]api.Message)}
}

// Append adds messages to a user's transcript in order.
func (s *MemoryTranscriptStore) Append(_ context.Context, userID string, msgs ...api.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[userID] = append(s.byUser[userID], msgs...)
	return nil
}

// History returns the most recent messages in chronological order.
func (s *MemoryTranscriptStore) History(_ context.Context, userID string, limit int) ([]api.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.byUser[userID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]api.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// prefsStore holds per-user preference documents and persona labels with
// PATCH merge semantics. A user who has never written preferences reads as
// absent, which the handler maps to 404.
type prefsStore struct {
	mu       sync.RWMutex
	byUser   map[string]api.Preferences
	personas map[string]string
}

func newPrefsStore() *prefsStore {
	return &prefsStore{
		byUser:   make(map[string]api.Preferences),
		personas: make(map[string]string),
	}
}

// Get returns the stored document and whether one exists.
func (s *prefsStore) Get(userID string) (api.Preferences, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefs, ok := s.byUser[userID]
	return prefs, ok
}

// Patch merges the partial document into the stored one. Fields absent from
// the patch are never overwritten.
func (s *prefsStore) Patch(userID string, patch api.Preferences) api.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := s.byUser[userID].Merge(patch)
	s.byUser[userID] = merged
	return merged
}

// SetPersona records the persona label for a user.
func (s *prefsStore) SetPersona(userID, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.personas[userID] = label
}

// Persona returns the persona label for a user, defaulting to caring.
func (s *prefsStore) Persona(userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if label, ok := s.personas[userID]; ok {
		return label
	}
	return "caring"
}
