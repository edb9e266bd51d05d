// Package profile caches a viewed profile and its content tabs. Updates
// patch the cached profile locally after the backend accepts them; the
// derived counters stay as fetched.
package profile

import (
	"context"
	"sync"

	"github.com/roastlabs/roastapp-client/internal/database"
	"github.com/roastlabs/roastapp-client/internal/logging"
)

// Gateway is the slice of the repository the store depends on.
type Gateway interface {
	GetUserProfile(ctx context.Context, username string) (*database.UserProfile, error)
	GetUserContent(ctx context.Context, userID string, contentType database.ContentType, limit, offset int) ([]database.UserContent, error)
	UpdateUserProfile(ctx context.Context, update database.ProfileUpdate) error
}

const contentPageSize = 20

// Store holds one profile and its content tabs.
type Store struct {
	gw     Gateway
	logger logging.Logger

	mu      sync.RWMutex
	profile *database.UserProfile
	content map[database.ContentType][]database.UserContent
	loading bool
	errMsg  string
}

// NewStore creates an empty profile store.
func NewStore(gw Gateway, logger logging.Logger) *Store {
	return &Store{
		gw:      gw,
		logger:  logger,
		content: make(map[database.ContentType][]database.UserContent),
	}
}

// Profile returns the cached profile, nil before the first fetch.
func (s *Store) Profile() *database.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	copied := *s.profile
	return &copied
}

// Content returns the cached items of one tab.
func (s *Store) Content(contentType database.ContentType) []database.UserContent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.content[contentType]
	out := make([]database.UserContent, len(items))
	copy(out, items)
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

// Fetch loads a profile by username, replacing the cached one and
// clearing stale content tabs.
func (s *Store) Fetch(ctx context.Context, username string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	profile, err := s.gw.GetUserProfile(ctx, username)
	if err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	s.profile = profile
	s.content = make(map[database.ContentType][]database.UserContent)
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// FetchContent loads one content tab for the cached profile. offset 0
// replaces the tab; a non-zero offset appends the next page.
func (s *Store) FetchContent(ctx context.Context, contentType database.ContentType, offset int) error {
	s.mu.RLock()
	var userID string
	if s.profile != nil {
		userID = s.profile.ID
	}
	s.mu.RUnlock()
	if userID == "" {
		err := database.NewNotFoundError("profile", "none loaded")
		s.setError(err)
		return err
	}

	items, err := s.gw.GetUserContent(ctx, userID, contentType, contentPageSize, offset)
	if err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	if offset == 0 {
		s.content[contentType] = items
	} else {
		s.content[contentType] = append(s.content[contentType], items...)
	}
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// Update submits profile changes and patches the cached profile with
// the fields that were set. Counters and reputation are backend-derived
// and left alone.
func (s *Store) Update(ctx context.Context, update database.ProfileUpdate) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.gw.UpdateUserProfile(ctx, update); err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	if s.profile != nil {
		patched := *s.profile
		if update.DisplayName != nil {
			patched.DisplayName = *update.DisplayName
		}
		if update.Bio != nil {
			patched.Bio = *update.Bio
		}
		if update.AvatarURL != nil {
			patched.AvatarURL = *update.AvatarURL
		}
		if update.SocialLinks != nil {
			patched.SocialLinks = update.SocialLinks
		}
		if update.Preferences != nil {
			patched.Preferences = update.Preferences
		}
		s.profile = &patched
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
