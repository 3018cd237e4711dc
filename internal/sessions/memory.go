package sessions

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps sessions in process memory. Entries idle longer than
// ttl are treated as missing and purged lazily.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewInMemoryStore creates a store; ttl <= 0 disables expiry.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy of the stored session.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	if s.expired(sess) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	return &sess, nil
}

// Save stores a copy of sess and refreshes its expiry.
func (s *InMemoryStore) Save(ctx context.Context, sess *Session) error {
	stored := *sess
	stored.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	s.sessions[sess.ID] = stored
	s.mu.Unlock()

	sess.UpdatedAt = stored.UpdatedAt
	return nil
}

// Delete removes a session; deleting a missing id is not an error.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Sweep drops every expired session and reports how many went. Abandoned
// widget loads are never read again, so Get alone would never purge them.
func (s *InMemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps periodically until ctx is done.
func (s *InMemoryStore) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Len reports how many sessions are held. Expired entries count until the
// next Sweep or Get removes them.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *InMemoryStore) expired(sess Session) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(sess.UpdatedAt) > s.ttl
}
