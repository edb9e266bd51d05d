// Package session holds the client's single authoritative view of who is
// signed in. The Store is the only component allowed to mutate it; every
// other component reads snapshots or subscribes to change events.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/roastlabs/roastapp-client/internal/auth"
	"github.com/roastlabs/roastapp-client/internal/events"
	"github.com/roastlabs/roastapp-client/internal/logging"
	"github.com/roastlabs/roastapp-client/internal/metrics"
)

// AuthAPI is the slice of the auth client the store depends on.
type AuthAPI interface {
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*auth.User, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPassword(ctx context.Context, email string) error
	UpdateUser(ctx context.Context, accessToken string, attrs map[string]any) (*auth.User, error)
	GetUser(ctx context.Context, accessToken string) (*auth.User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*auth.Session, error)
}

// State is a consistent snapshot of the session.
type State struct {
	User        *auth.User
	Loading     bool
	Initialized bool
	Err         string
}

// Authenticated reports whether a user is signed in.
func (s State) Authenticated() bool { return s.User != nil }

// source tag on events the store publishes itself, so its own passive
// subscription can skip them.
const eventSource = "session.store"

// refreshMargin is how long before token expiry the refresh fires.
const refreshMargin = time.Minute

// Config holds store construction parameters.
type Config struct {
	// TokenFile persists sessions across restarts; empty disables it.
	TokenFile string
	// SignUpRetryBackoff is the wait before the single retry of the
	// post-signup sign-in when the account is not yet confirmed. The
	// backoff is bounded at one retry (two attempts total); it exists
	// because account confirmation is eventually consistent on the
	// backend, and it is configuration, not a contract.
	SignUpRetryBackoff time.Duration
}

// Store is the process-wide session store.
type Store struct {
	api     AuthAPI
	bus     *events.Bus
	logger  logging.Logger
	metrics *metrics.Metrics
	cfg     Config

	// sleep is replaced in tests.
	sleep func(time.Duration)

	mu          sync.RWMutex
	session     *auth.Session
	loading     bool
	initialized bool
	errMsg      string

	initOnce  sync.Once
	cancelSub func()
	stopWatch context.CancelFunc
	watchDone chan struct{}
}

// NewStore creates a session store. metrics may be nil.
func NewStore(api AuthAPI, bus *events.Bus, logger logging.Logger, m *metrics.Metrics, cfg Config) *Store {
	if cfg.SignUpRetryBackoff <= 0 {
		cfg.SignUpRetryBackoff = 500 * time.Millisecond
	}
	return &Store{
		api:     api,
		bus:     bus,
		logger:  logger,
		metrics: m,
		cfg:     cfg,
		sleep:   time.Sleep,
	}
}

// State returns a snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := State{
		Loading:     s.loading,
		Initialized: s.initialized,
		Err:         s.errMsg,
	}
	if s.session != nil {
		state.User = s.session.User
	}
	return state
}

// AccessToken returns the current access token, or "" when signed out.
// Implements the gateway's TokenSource.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.AccessToken
}

// UserID returns the signed-in user's id, or "".
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil || s.session.User == nil {
		return ""
	}
	return s.session.User.ID
}

// Init performs the one-time startup session lookup, subscribes to
// session-change events, and starts the refresh watcher. `initialized`
// becomes true exactly once, whether or not the lookup succeeds; calling
// Init again is a no-op.
func (s *Store) Init(ctx context.Context) {
	s.initOnce.Do(func() {
		s.restore(ctx)

		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()

		if s.bus != nil {
			cancel, err := s.bus.Subscribe(events.TopicSessionChanged, s.onSessionEvent)
			if err != nil {
				s.logger.Warn("session event subscription failed", "err", err)
			} else {
				s.cancelSub = cancel
			}
		}

		watchCtx, stop := context.WithCancel(context.Background())
		s.stopWatch = stop
		s.watchDone = make(chan struct{})
		go s.watchExpiry(watchCtx)
	})
}

// Teardown cancels the event subscription and the refresh watcher. The
// session itself is left as-is; Teardown is lifecycle cleanup, not a
// sign-out.
func (s *Store) Teardown() {
	if s.cancelSub != nil {
		s.cancelSub()
		s.cancelSub = nil
	}
	if s.stopWatch != nil {
		s.stopWatch()
		<-s.watchDone
		s.stopWatch = nil
	}
}

// restore attempts to resume a persisted session.
func (s *Store) restore(ctx context.Context) {
	saved, err := auth.LoadSession(s.cfg.TokenFile)
	if err != nil {
		s.logger.Warn("session restore failed", "err", err)
		return
	}
	if saved == nil {
		return
	}

	if !saved.ExpiresAt.IsZero() && time.Until(saved.ExpiresAt) < refreshMargin {
		refreshed, err := s.api.RefreshSession(ctx, saved.RefreshToken)
		if err != nil {
			s.logger.Info("persisted session no longer valid", "err", err)
			_ = auth.ClearSession(s.cfg.TokenFile)
			return
		}
		s.applySession(refreshed, eventSource)
		return
	}

	// Confirm the token is still accepted before trusting it.
	user, err := s.api.GetUser(ctx, saved.AccessToken)
	if err != nil {
		s.logger.Info("persisted session no longer valid", "err", err)
		_ = auth.ClearSession(s.cfg.TokenFile)
		return
	}
	saved.User = user
	s.applySession(saved, eventSource)
}

// SignIn authenticates with email and password.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	session, err := s.api.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.setError(err)
		return err
	}
	s.applySession(session, eventSource)
	s.clearError()
	return nil
}

// SignUp registers an account and immediately signs in. When the backend
// reports the fresh account as not yet confirmed, the sign-in is retried
// once after a bounded backoff; any other failure is surfaced directly.
func (s *Store) SignUp(ctx context.Context, email, password string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	metadata := map[string]any{"email_confirmed": true}
	if _, err := s.api.SignUp(ctx, email, password, metadata); err != nil {
		s.setError(err)
		return err
	}

	session, err := s.api.SignInWithPassword(ctx, email, password)
	if err != nil && auth.IsUnconfirmedAccount(err) {
		s.logger.Info("account not yet confirmed, retrying sign-in once",
			"backoff", s.cfg.SignUpRetryBackoff)
		s.sleep(s.cfg.SignUpRetryBackoff)
		session, err = s.api.SignInWithPassword(ctx, email, password)
	}
	if err != nil {
		s.setError(err)
		return err
	}

	s.applySession(session, eventSource)
	s.clearError()
	return nil
}

// SignOut ends the backend session. On failure the local user stays set
// so the client never shows a signed-out state the backend disagrees
// with.
func (s *Store) SignOut(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	token := s.AccessToken()
	if err := s.api.SignOut(ctx, token); err != nil {
		s.setError(err)
		return err
	}

	if err := auth.ClearSession(s.cfg.TokenFile); err != nil {
		s.logger.Warn("clear persisted session failed", "err", err)
	}
	s.applySession(nil, eventSource)
	s.clearError()
	return nil
}

// ResetPassword requests a recovery email. Errors surface verbatim.
func (s *Store) ResetPassword(ctx context.Context, email string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.api.ResetPassword(ctx, email); err != nil {
		s.setError(err)
		return err
	}
	s.clearError()
	return nil
}

// UpdateProfile updates auth-level profile attributes. Errors surface
// verbatim; on success the local user is replaced with the backend's
// copy.
func (s *Store) UpdateProfile(ctx context.Context, attrs map[string]any) error {
	s.setLoading(true)
	defer s.setLoading(false)

	user, err := s.api.UpdateUser(ctx, s.AccessToken(), attrs)
	if err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	if s.session != nil {
		updated := *s.session
		updated.User = user
		s.session = &updated
	}
	s.mu.Unlock()
	s.publishChange(eventSource)
	s.clearError()
	return nil
}

// onSessionEvent applies externally published whole-session
// replacements. Events the store itself published are skipped.
func (s *Store) onSessionEvent(_ context.Context, ev events.Event) {
	if ev.Source == eventSource {
		return
	}
	session, _ := ev.Data.(*auth.Session)

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionChanges.Inc()
	}
}

// watchExpiry refreshes the session before the access token expires and
// publishes the replacement.
func (s *Store) watchExpiry(ctx context.Context) {
	defer close(s.watchDone)
	for {
		s.mu.RLock()
		var expiresAt time.Time
		var refreshToken string
		if s.session != nil {
			expiresAt = s.session.ExpiresAt
			refreshToken = s.session.RefreshToken
		}
		s.mu.RUnlock()

		wait := time.Minute
		if refreshToken != "" && !expiresAt.IsZero() {
			wait = time.Until(expiresAt) - refreshMargin
			if wait < time.Second {
				wait = time.Second
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		s.mu.RLock()
		current := s.session
		s.mu.RUnlock()
		if current == nil || current.RefreshToken == "" {
			continue
		}
		if current.ExpiresAt.IsZero() || time.Until(current.ExpiresAt) > refreshMargin {
			continue
		}

		refreshed, err := s.api.RefreshSession(ctx, current.RefreshToken)
		if err != nil {
			s.logger.Warn("session refresh failed", "err", err)
			continue
		}
		s.applySession(refreshed, "session.refresh")
		s.logger.Debug("session refreshed", "expires_at", refreshed.ExpiresAt)
	}
}

// applySession replaces the whole session object and fans the change
// out. Whole-object replacement keeps the two writers (explicit calls
// and the refresh watcher) from interleaving partial updates.
func (s *Store) applySession(session *auth.Session, source string) {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	if session != nil {
		if err := auth.SaveSession(s.cfg.TokenFile, session); err != nil {
			s.logger.Warn("persist session failed", "err", err)
		}
	}
	if s.metrics != nil {
		s.metrics.SessionChanges.Inc()
	}
	s.publishChange(source)
}

func (s *Store) publishChange(source string) {
	if s.bus == nil {
		return
	}
	s.mu.RLock()
	session := s.session
	s.mu.RUnlock()
	if err := s.bus.Publish(context.Background(), events.TopicSessionChanged, source, session); err != nil {
		s.logger.Debug("session change publish failed", "err", err)
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

func (s *Store) clearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}
