// Package app wires the client together: config in, a ready Client out.
// All lifecycle state lives on the Client; nothing here is a package
// global.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/roastlabs/roastapp-client/internal/auth"
	"github.com/roastlabs/roastapp-client/internal/award"
	"github.com/roastlabs/roastapp-client/internal/config"
	"github.com/roastlabs/roastapp-client/internal/database"
	"github.com/roastlabs/roastapp-client/internal/events"
	"github.com/roastlabs/roastapp-client/internal/logging"
	"github.com/roastlabs/roastapp-client/internal/metrics"
	"github.com/roastlabs/roastapp-client/internal/realtime"
	"github.com/roastlabs/roastapp-client/internal/session"
	"github.com/roastlabs/roastapp-client/internal/stores/chat"
	"github.com/roastlabs/roastapp-client/internal/stores/community"
	"github.com/roastlabs/roastapp-client/internal/stores/inbox"
	"github.com/roastlabs/roastapp-client/internal/stores/peels"
	"github.com/roastlabs/roastapp-client/internal/stores/posts"
	"github.com/roastlabs/roastapp-client/internal/stores/profile"
	"github.com/roastlabs/roastapp-client/internal/stores/search"
)

// Client is the assembled application client.
type Client struct {
	cfg     config.Config
	logger  logging.Logger
	metrics *metrics.Metrics
	bus     *events.Bus

	authClient *auth.Client
	sessions   *session.Store
	repo       *database.Repository
	realtime   *realtime.Client

	postsStore     *posts.Store
	profileStore   *profile.Store
	searchStore    *search.Store
	communityStore *community.Store
	inboxStore     *inbox.Store

	// Stores bound to the signed-in user are rebuilt when the user
	// changes.
	mu         sync.Mutex
	boundUser  string
	chatStore  *chat.Store
	peelsStore *peels.Store
	chatCancel func()
}

// New assembles a client from configuration. No network traffic happens
// until Init.
func New(cfg config.Config, logger logging.Logger) (*Client, error) {
	m := metrics.New()
	bus := events.NewBus()

	authClient, err := auth.NewClient(auth.Config{
		URL:     cfg.Backend.ProjectURL,
		AnonKey: cfg.Backend.AnonKey,
	})
	if err != nil {
		return nil, fmt.Errorf("build auth client: %w", err)
	}

	sessions := session.NewStore(authClient, bus, logging.Named(logger, "session"), m, session.Config{
		TokenFile:          cfg.Session.TokenFile,
		SignUpRetryBackoff: cfg.Session.SignUpRetryBackoff.Std(),
	})

	dbClient, err := database.NewClient(database.Config{
		URL:     cfg.Backend.ProjectURL,
		AnonKey: cfg.Backend.AnonKey,
	}, sessions, m)
	if err != nil {
		return nil, fmt.Errorf("build gateway: %w", err)
	}
	repo := database.NewRepository(dbClient)

	c := &Client{
		cfg:        cfg,
		logger:     logger,
		metrics:    m,
		bus:        bus,
		authClient: authClient,
		sessions:   sessions,
		repo:       repo,
	}

	c.postsStore = posts.NewStore(repo, logging.Named(logger, "posts"))
	c.profileStore = profile.NewStore(repo, logging.Named(logger, "profile"))
	c.searchStore = search.NewStore(repo, logging.Named(logger, "search"))
	c.communityStore = community.NewStore()
	c.inboxStore = inbox.NewStore(repo, logging.Named(logger, "inbox"))

	if cfg.Realtime.Enabled {
		c.realtime = realtime.NewClient(realtime.Config{
			ProjectURL:        cfg.Backend.ProjectURL,
			AnonKey:           cfg.Backend.AnonKey,
			HeartbeatInterval: cfg.Realtime.HeartbeatInterval.Std(),
		}, bus, logging.Named(logger, "realtime"))
	}

	return c, nil
}

// Init restores the session and connects the realtime feed. A realtime
// failure degrades to fetch-only operation and is not fatal.
func (c *Client) Init(ctx context.Context) error {
	c.sessions.Init(ctx)

	if c.realtime != nil {
		if err := c.realtime.Connect(ctx, "messages", "friends"); err != nil {
			c.logger.Warn("realtime unavailable, continuing without it", "err", err)
			c.realtime = nil
		}
	}
	return nil
}

// Teardown releases everything Init acquired.
func (c *Client) Teardown() {
	if c.realtime != nil {
		c.realtime.Close()
	}
	c.mu.Lock()
	if c.chatCancel != nil {
		c.chatCancel()
		c.chatCancel = nil
	}
	c.mu.Unlock()
	c.sessions.Teardown()
	c.bus.Close()
}

// Sessions returns the session store.
func (c *Client) Sessions() *session.Store { return c.sessions }

// Repository returns the typed gateway.
func (c *Client) Repository() *database.Repository { return c.repo }

// Metrics returns the client's collectors.
func (c *Client) Metrics() *metrics.Metrics { return c.metrics }

// Bus returns the in-process event bus.
func (c *Client) Bus() *events.Bus { return c.bus }

// Posts returns the feed store.
func (c *Client) Posts() *posts.Store { return c.postsStore }

// Profile returns the profile store.
func (c *Client) Profile() *profile.Store { return c.profileStore }

// Search returns the search store.
func (c *Client) Search() *search.Store { return c.searchStore }

// Community returns the local membership store.
func (c *Client) Community() *community.Store { return c.communityStore }

// Inbox returns the notifications store.
func (c *Client) Inbox() *inbox.Store { return c.inboxStore }

// Chat returns the chat store for the signed-in user, or an error when
// signed out. The store is rebuilt when a different user signs in.
func (c *Client) Chat() (*chat.Store, error) {
	userID := c.sessions.UserID()
	if userID == "" {
		return nil, fmt.Errorf("chat requires a signed-in user")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebindLocked(userID)
	return c.chatStore, nil
}

// Peels returns the connections store for the signed-in user, or an
// error when signed out.
func (c *Client) Peels() (*peels.Store, error) {
	userID := c.sessions.UserID()
	if userID == "" {
		return nil, fmt.Errorf("peels requires a signed-in user")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebindLocked(userID)
	return c.peelsStore, nil
}

// rebindLocked rebuilds the user-bound stores when the signed-in user
// changed. Requires c.mu held.
func (c *Client) rebindLocked(userID string) {
	if userID == c.boundUser && c.chatStore != nil {
		return
	}

	if c.chatCancel != nil {
		c.chatCancel()
		c.chatCancel = nil
	}

	c.boundUser = userID
	c.chatStore = chat.NewStore(c.repo, logging.Named(c.logger, "chat"), userID)
	c.peelsStore = peels.NewStore(c.repo, logging.Named(c.logger, "peels"), userID)

	cancel, err := c.bus.Subscribe(events.TopicMessageInsert, c.chatStore.OnMessageEvent)
	if err != nil {
		c.logger.Warn("chat realtime subscription failed", "err", err)
		return
	}
	c.chatCancel = cancel
}

// AwardFlow starts a fresh award flow for the signed-in user.
func (c *Client) AwardFlow() (*award.Flow, error) {
	userID := c.sessions.UserID()
	if userID == "" {
		return nil, fmt.Errorf("awards require a signed-in user")
	}
	return award.NewFlow(c.repo, logging.Named(c.logger, "award"), c.metrics, userID), nil
}
