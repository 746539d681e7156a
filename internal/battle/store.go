package battle

import (
	"sync"
)

// Store holds read-only session snapshots keyed by player ID. The game
// service owns the live sessions; it publishes a snapshot here after every
// transition so HTTP and WS readers never touch the mutating copy.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// Get returns a copy of the given player's session snapshot.
func (s *Store) Get(playerID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[playerID]
	if !ok {
		return nil, false
	}
	return sess.Clone(), true
}

// GetAll returns copies of every stored session snapshot.
func (s *Store) GetAll() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		result = append(result, sess.Clone())
	}
	return result
}

// Update stores a snapshot of sess for its owning player.
func (s *Store) Update(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.PlayerID] = sess.Clone()
}

// Remove discards the snapshot for the given player.
func (s *Store) Remove(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, playerID)
}

// ActiveCount returns the number of non-terminal sessions.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, sess := range s.sessions {
		if !sess.Status.Terminal() {
			count++
		}
	}
	return count
}
