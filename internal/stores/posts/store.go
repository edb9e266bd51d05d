// Package posts caches the feed and applies the per-operation mutation
// policy: like toggles reconcile optimistically from the backend's
// answer, while creating posts and comments refetches the whole feed
// because the backend derives fields the client cannot compute.
package posts

import (
	"context"
	"fmt"
	"sync"

	"github.com/roastlabs/roastapp-client/internal/database"
	"github.com/roastlabs/roastapp-client/internal/logging"
)

// Gateway is the slice of the repository the store depends on.
type Gateway interface {
	ListPosts(ctx context.Context) ([]database.Post, error)
	CreatePost(ctx context.Context, post database.NewPost) (string, error)
	TogglePostLike(ctx context.Context, postID string) (bool, error)
	CreateComment(ctx context.Context, postID, content, parentID string) (string, error)
	GetPostWithStats(ctx context.Context, postID string) (*database.Post, error)
}

// Store holds the cached feed.
type Store struct {
	gw     Gateway
	logger logging.Logger

	mu      sync.RWMutex
	posts   []database.Post
	loading bool
	errMsg  string
}

// NewStore creates an empty feed store.
func NewStore(gw Gateway, logger logging.Logger) *Store {
	return &Store{gw: gw, logger: logger}
}

// Posts returns a snapshot of the cached feed.
func (s *Store) Posts() []database.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Loading reports whether a fetch or mutation is in flight.
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

// Fetch replaces the cached feed with the backend's current view.
func (s *Store) Fetch(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	posts, err := s.gw.ListPosts(ctx)
	if err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	s.posts = posts
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// Create submits a new post and refetches the feed. The backend derives
// timestamps, author projection, and zeroed stats, so a local append
// would be a guess; the refetch is the reconciliation.
func (s *Store) Create(ctx context.Context, post database.NewPost) (string, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	id, err := s.gw.CreatePost(ctx, post)
	if err != nil {
		s.setError(err)
		return "", err
	}
	if err := s.refetch(ctx); err != nil {
		// The post exists; only the local view is stale.
		s.logger.Warn("feed refetch after create failed", "post", id, "err", err)
	}
	return id, nil
}

// ToggleLike flips the caller's like on a cached post. The flip is
// applied optimistically, then reconciled with the backend's answer; on
// failure the original state is restored.
func (s *Store) ToggleLike(ctx context.Context, postID string) error {
	s.mu.Lock()
	idx := s.indexOf(postID)
	if idx < 0 {
		s.mu.Unlock()
		err := fmt.Errorf("%w: post %s not in feed", database.ErrInvalidInput, postID)
		s.setError(err)
		return err
	}
	was := s.posts[idx].IsLiked
	s.applyLike(idx, !was)
	s.mu.Unlock()

	liked, err := s.gw.TogglePostLike(ctx, postID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(postID); idx >= 0 {
		if err != nil {
			s.applyLike(idx, was)
		} else {
			s.applyLike(idx, liked)
		}
	}
	if err != nil {
		s.errMsg = err.Error()
		return err
	}
	s.errMsg = ""
	return nil
}

// AddComment creates a comment and refetches the feed so the comment
// counter comes from the backend.
func (s *Store) AddComment(ctx context.Context, postID, content, parentID string) (string, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	id, err := s.gw.CreateComment(ctx, postID, content, parentID)
	if err != nil {
		s.setError(err)
		return "", err
	}
	if err := s.refetch(ctx); err != nil {
		s.logger.Warn("feed refetch after comment failed", "post", postID, "err", err)
	}
	return id, nil
}

// Get retrieves a single post with fresh aggregates, bypassing the
// cache.
func (s *Store) Get(ctx context.Context, postID string) (*database.Post, error) {
	post, err := s.gw.GetPostWithStats(ctx, postID)
	if err != nil {
		s.setError(err)
		return nil, err
	}
	return post, nil
}

func (s *Store) refetch(ctx context.Context) error {
	posts, err := s.gw.ListPosts(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.posts = posts
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// indexOf and applyLike require s.mu held.
func (s *Store) indexOf(postID string) int {
	for i := range s.posts {
		if s.posts[i].ID == postID {
			return i
		}
	}
	return -1
}

func (s *Store) applyLike(idx int, liked bool) {
	if s.posts[idx].IsLiked == liked {
		return
	}
	s.posts[idx].IsLiked = liked
	if liked {
		s.posts[idx].Stats.LikesCount++
	} else {
		s.posts[idx].Stats.LikesCount--
	}
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
