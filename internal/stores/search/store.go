// Package search runs a query across posts, users, and communities and
// caches the combined results. Responses land atomically per query; a
// later query simply replaces an earlier one.
package search

import (
	"context"
	"sync"

	"github.com/roastlabs/roastapp-client/internal/database"
	"github.com/roastlabs/roastapp-client/internal/logging"
)

// Gateway is the slice of the repository the store depends on.
type Gateway interface {
	SearchPosts(ctx context.Context, query string, limit int) ([]database.Post, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]database.FriendProfile, error)
	SearchCommunities(ctx context.Context, query string, limit int) ([]database.CommunitySummary, error)
}

const resultLimit = 20

// Store holds the latest search results.
type Store struct {
	gw     Gateway
	logger logging.Logger

	mu      sync.RWMutex
	query   string
	results database.SearchResults
	loading bool
	errMsg  string
}

// NewStore creates an empty search store.
func NewStore(gw Gateway, logger logging.Logger) *Store {
	return &Store{gw: gw, logger: logger}
}

// Query returns the query the cached results answer.
func (s *Store) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Results returns a snapshot of the cached results.
func (s *Store) Results() database.SearchResults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return database.SearchResults{
		Posts:       append([]database.Post(nil), s.results.Posts...),
		Users:       append([]database.FriendProfile(nil), s.results.Users...),
		Communities: append([]database.CommunitySummary(nil), s.results.Communities...),
	}
}

// Loading reports whether a search is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last recorded error message.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Search queries all three collections and replaces the cached results.
// A failure in any collection fails the whole search and keeps the
// previous results.
func (s *Store) Search(ctx context.Context, query string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	posts, err := s.gw.SearchPosts(ctx, query, resultLimit)
	if err != nil {
		s.setError(err)
		return err
	}
	users, err := s.gw.SearchUsers(ctx, query, resultLimit)
	if err != nil {
		s.setError(err)
		return err
	}
	communities, err := s.gw.SearchCommunities(ctx, query, resultLimit)
	if err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	s.query = query
	s.results = database.SearchResults{Posts: posts, Users: users, Communities: communities}
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// Clear drops the cached query and results.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = ""
	s.results = database.SearchResults{}
	s.errMsg = ""
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	s.errMsg = err.Error()
	s.mu.Unlock()
}
