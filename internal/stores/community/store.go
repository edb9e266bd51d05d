// Package community tracks which communities the user has joined.
// Membership is client-side state only; the backend has no membership
// table, so joins and leaves are instant and survive nothing beyond the
// process.
package community

import "sync"

// Store is the local joined-community set.
type Store struct {
	mu     sync.RWMutex
	joined map[string]struct{}
}

// NewStore creates an empty membership store.
func NewStore() *Store {
	return &Store{joined: make(map[string]struct{})}
}

// Join adds a community to the joined set.
func (s *Store) Join(communityID string) {
	if communityID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joined[communityID] = struct{}{}
}

// Leave removes a community from the joined set.
func (s *Store) Leave(communityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.joined, communityID)
}

// Toggle flips membership and reports the new state.
func (s *Store) Toggle(communityID string) bool {
	if communityID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.joined[communityID]; ok {
		delete(s.joined, communityID)
		return false
	}
	s.joined[communityID] = struct{}{}
	return true
}

// Joined reports membership.
func (s *Store) Joined(communityID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.joined[communityID]
	return ok
}

// List returns the joined community ids.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.joined))
	for id := range s.joined {
		out = append(out, id)
	}
	return out
}
