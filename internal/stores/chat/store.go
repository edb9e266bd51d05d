// Package chat caches direct-message threads. Sent messages are
// appended from the backend's returned representation; incoming messages
// arrive over the event bus from the realtime subscriber.
package chat

import (
	"context"
	"sync"

	"github.com/roastlabs/roastapp-client/internal/database"
	"github.com/roastlabs/roastapp-client/internal/events"
	"github.com/roastlabs/roastapp-client/internal/logging"
)

// Gateway is the slice of the repository the store depends on.
type Gateway interface {
	ListConversations(ctx context.Context, actingUserID string) ([]database.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]database.Message, error)
	SendMessage(ctx context.Context, actingUserID, conversationID, content string) (*database.Message, error)
	MarkMessagesRead(ctx context.Context, actingUserID, conversationID string) error
	FindConversation(ctx context.Context, actingUserID, otherUserID string) (string, error)
	CreateConversation(ctx context.Context, participantIDs []string) (string, error)
}

// Store holds the cached conversations and their messages.
type Store struct {
	gw           Gateway
	logger       logging.Logger
	actingUserID string

	mu            sync.RWMutex
	conversations []database.Conversation
	messages      map[string][]database.Message
	loading       bool
	errMsg        string
}

// NewStore creates an empty chat store for the acting user.
func NewStore(gw Gateway, logger logging.Logger, actingUserID string) *Store {
	return &Store{
		gw:           gw,
		logger:       logger,
		actingUserID: actingUserID,
		messages:     make(map[string][]database.Message),
	}
}

// Conversations returns a snapshot of the cached threads.
func (s *Store) Conversations() []database.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Messages returns a snapshot of a thread's cached messages.
func (s *Store) Messages(conversationID string) []database.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[conversationID]
	out := make([]database.Message, len(msgs))
	copy(out, msgs)
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

// FetchConversations replaces the cached thread list.
func (s *Store) FetchConversations(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	conversations, err := s.gw.ListConversations(ctx, s.actingUserID)
	if err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	s.conversations = conversations
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// FetchMessages loads a thread's messages and marks it read. The unread
// counter is zeroed locally once the backend accepts the mark; a failed
// mark leaves the counter as-is and is logged, not surfaced, because the
// messages themselves loaded fine.
func (s *Store) FetchMessages(ctx context.Context, conversationID string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	messages, err := s.gw.ListMessages(ctx, conversationID)
	if err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	s.messages[conversationID] = messages
	s.errMsg = ""
	s.mu.Unlock()

	if err := s.gw.MarkMessagesRead(ctx, s.actingUserID, conversationID); err != nil {
		s.logger.Warn("mark messages read failed", "conversation", conversationID, "err", err)
		return nil
	}
	s.mu.Lock()
	for i := range s.conversations {
		if s.conversations[i].ID == conversationID {
			s.conversations[i].UnreadCount = 0
		}
	}
	s.mu.Unlock()
	return nil
}

// Send posts a message and appends the backend's stored row to the
// cached thread. One request, no client-side retry.
func (s *Store) Send(ctx context.Context, conversationID, content string) (*database.Message, error) {
	message, err := s.gw.SendMessage(ctx, s.actingUserID, conversationID, content)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	s.mu.Lock()
	s.messages[conversationID] = append(s.messages[conversationID], *message)
	for i := range s.conversations {
		if s.conversations[i].ID == conversationID {
			s.conversations[i].LastMessage = message.Content
			s.conversations[i].LastMessageAt = message.CreatedAt
		}
	}
	s.errMsg = ""
	s.mu.Unlock()
	return message, nil
}

// Start returns the id of a thread with the other user, creating one if
// none exists. Creation refetches the thread list so the new thread
// carries its backend-derived fields.
func (s *Store) Start(ctx context.Context, otherUserID string) (string, error) {
	id, err := s.gw.FindConversation(ctx, s.actingUserID, otherUserID)
	if err != nil {
		s.setError(err)
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id, err = s.gw.CreateConversation(ctx, []string{s.actingUserID, otherUserID})
	if err != nil {
		s.setError(err)
		return "", err
	}
	if err := s.FetchConversations(ctx); err != nil {
		s.logger.Warn("conversation refetch after create failed", "conversation", id, "err", err)
	}
	return id, nil
}

// OnMessageEvent applies a realtime message insert. Own messages are
// skipped: Send already appended the stored row. Registered on the bus
// by the composition root.
func (s *Store) OnMessageEvent(_ context.Context, ev events.Event) {
	message, ok := ev.Data.(*database.Message)
	if !ok || message == nil {
		return
	}
	if message.SenderID == s.actingUserID {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.messages[message.ConversationID] {
		if existing.ID == message.ID {
			return
		}
	}
	s.messages[message.ConversationID] = append(s.messages[message.ConversationID], *message)
	for i := range s.conversations {
		if s.conversations[i].ID == message.ConversationID {
			s.conversations[i].LastMessage = message.Content
			s.conversations[i].LastMessageAt = message.CreatedAt
			s.conversations[i].UnreadCount++
		}
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
