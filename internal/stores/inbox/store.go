// Package inbox caches the acting user's notifications. Mark-read
// flips the cached rows after the backend accepts; the unread count is
// always derived from the cache.
package inbox

import (
	"context"
	"sync"

	"github.com/roastlabs/roastapp-client/internal/database"
	"github.com/roastlabs/roastapp-client/internal/logging"
)

// Gateway is the slice of the repository the store depends on.
type Gateway interface {
	ListNotifications(ctx context.Context) ([]database.Notification, error)
	MarkNotificationsRead(ctx context.Context, notificationIDs []string) error
}

// Store holds the cached inbox.
type Store struct {
	gw     Gateway
	logger logging.Logger

	mu            sync.RWMutex
	notifications []database.Notification
	loading       bool
	errMsg        string
}

// NewStore creates an empty inbox store.
func NewStore(gw Gateway, logger logging.Logger) *Store {
	return &Store{gw: gw, logger: logger}
}

// Notifications returns a snapshot of the cached inbox.
func (s *Store) Notifications() []database.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// UnreadCount counts the cached unread notifications.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if !n.IsRead {
			count++
		}
	}
	return count
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

// Fetch replaces the cached inbox.
func (s *Store) Fetch(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	notifications, err := s.gw.ListNotifications(ctx)
	if err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	s.notifications = notifications
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// MarkRead marks the given notifications read, or the whole inbox when
// called with no ids, flipping the cached rows after the backend
// accepts.
func (s *Store) MarkRead(ctx context.Context, notificationIDs ...string) error {
	if err := s.gw.MarkNotificationsRead(ctx, notificationIDs); err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(notificationIDs) == 0 {
		for i := range s.notifications {
			s.notifications[i].IsRead = true
		}
	} else {
		marked := make(map[string]struct{}, len(notificationIDs))
		for _, id := range notificationIDs {
			marked[id] = struct{}{}
		}
		for i := range s.notifications {
			if _, ok := marked[s.notifications[i].ID]; ok {
				s.notifications[i].IsRead = true
			}
		}
	}
	s.errMsg = ""
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
