// Package peels caches the acting user's connections: friends, incoming
// requests, and suggestions. Mutations reconcile locally and never
// refetch; accepting a request promotes it to a friend with a zero
// reputation placeholder until the next full fetch fills it in.
package peels

import (
	"context"
	"sync"

	"github.com/roastlabs/roastapp-client/internal/database"
	"github.com/roastlabs/roastapp-client/internal/logging"
)

// Gateway is the slice of the repository the store depends on.
type Gateway interface {
	ListFriends(ctx context.Context, actingUserID string) ([]database.Friend, error)
	ListFriendRequests(ctx context.Context, actingUserID string) ([]database.FriendRequest, error)
	ListFriendSuggestions(ctx context.Context, actingUserID string, limit int) ([]database.FriendSuggestion, error)
	SendFriendRequest(ctx context.Context, actingUserID, friendID string) error
	AcceptFriendRequest(ctx context.Context, requestID string) error
	DeclineFriendRequest(ctx context.Context, requestID string) error
	RemoveFriend(ctx context.Context, actingUserID, friendID string) error
}

const suggestionLimit = 10

// Store holds the cached connection lists.
type Store struct {
	gw           Gateway
	logger       logging.Logger
	actingUserID string

	mu          sync.RWMutex
	friends     []database.Friend
	requests    []database.FriendRequest
	suggestions []database.FriendSuggestion
	loading     bool
	errMsg      string
}

// NewStore creates an empty connections store for the acting user.
func NewStore(gw Gateway, logger logging.Logger, actingUserID string) *Store {
	return &Store{gw: gw, logger: logger, actingUserID: actingUserID}
}

// Friends returns a snapshot of the accepted connections.
func (s *Store) Friends() []database.Friend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.Friend, len(s.friends))
	copy(out, s.friends)
	return out
}

// Requests returns a snapshot of the pending incoming requests.
func (s *Store) Requests() []database.FriendRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.FriendRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Suggestions returns a snapshot of the candidate connections.
func (s *Store) Suggestions() []database.FriendSuggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.FriendSuggestion, len(s.suggestions))
	copy(out, s.suggestions)
	return out
}

// Loading reports whether a fetch is in flight.
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

// Refresh reloads all three lists from the backend.
func (s *Store) Refresh(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	friends, err := s.gw.ListFriends(ctx, s.actingUserID)
	if err != nil {
		s.setError(err)
		return err
	}
	requests, err := s.gw.ListFriendRequests(ctx, s.actingUserID)
	if err != nil {
		s.setError(err)
		return err
	}
	suggestions, err := s.gw.ListFriendSuggestions(ctx, s.actingUserID, suggestionLimit)
	if err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	s.friends = friends
	s.requests = requests
	s.suggestions = suggestions
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// Add sends a request to a suggested user and drops the suggestion
// locally.
func (s *Store) Add(ctx context.Context, friendID string) error {
	if err := s.gw.SendFriendRequest(ctx, s.actingUserID, friendID); err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	for i, suggestion := range s.suggestions {
		if suggestion.ID == friendID {
			s.suggestions = append(s.suggestions[:i], s.suggestions[i+1:]...)
			break
		}
	}
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// Accept accepts a pending request and moves it into the friends list.
// The new friend's reputation is unknown until the next Refresh and is
// shown as zero in the meantime.
func (s *Store) Accept(ctx context.Context, requestID string) error {
	if err := s.gw.AcceptFriendRequest(ctx, requestID); err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	for i, request := range s.requests {
		if request.RequestID == requestID {
			s.friends = append(s.friends, database.Friend{
				FriendProfile: request.FriendProfile,
				MutualFriends: request.MutualFriends,
				Reputation:    0,
			})
			s.requests = append(s.requests[:i], s.requests[i+1:]...)
			break
		}
	}
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// Decline rejects a pending request and drops it locally.
func (s *Store) Decline(ctx context.Context, requestID string) error {
	if err := s.gw.DeclineFriendRequest(ctx, requestID); err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	for i, request := range s.requests {
		if request.RequestID == requestID {
			s.requests = append(s.requests[:i], s.requests[i+1:]...)
			break
		}
	}
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// Remove severs a connection and drops the friend locally.
func (s *Store) Remove(ctx context.Context, friendID string) error {
	if err := s.gw.RemoveFriend(ctx, s.actingUserID, friendID); err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	for i, friend := range s.friends {
		if friend.ID == friendID {
			s.friends = append(s.friends[:i], s.friends[i+1:]...)
			break
		}
	}
	s.errMsg = ""
	s.mu.Unlock()
	return nil
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
