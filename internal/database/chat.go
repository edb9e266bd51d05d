package database

import (
	"context"
	"encoding/json"
	"fmt"
	neturl "net/url"

	"github.com/google/uuid"
)

// conversationRow is the raw conversations row with embedded participant
// projections.
type conversationRow struct {
	Conversation
	RawParticipants []struct {
		UserID      string `json:"user_id"`
		UnreadCount int    `json:"unread_count"`
		User        struct {
			DisplayName string `json:"display_name"`
			AvatarURL   string `json:"avatar_url"`
		} `json:"user"`
	} `json:"participants"`
}

// ListConversations retrieves the acting user's threads, most recent
// first, with the acting user filtered out of each participant list.
func (r *Repository) ListConversations(ctx context.Context, actingUserID string) ([]Conversation, error) {
	if err := ValidateUserID(actingUserID); err != nil {
		return nil, err
	}

	sel := "*,participants:conversation_participants(user_id,unread_count,user:users(display_name,avatar_url))"
	query := "select=" + neturl.QueryEscape(sel) + "&order=last_message_at.desc"
	data, err := r.client.request(ctx, "GET", "conversations", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list conversations: %v", ErrRemoteCall, err)
	}

	var rows []conversationRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal conversations: %v", ErrRemoteCall, err)
	}

	conversations := make([]Conversation, 0, len(rows))
	for _, row := range rows {
		conv := row.Conversation
		conv.Participants = nil
		for _, p := range row.RawParticipants {
			if p.UserID == actingUserID {
				conv.UnreadCount = p.UnreadCount
				continue
			}
			conv.Participants = append(conv.Participants, Participant{
				UserID:      p.UserID,
				DisplayName: p.User.DisplayName,
				AvatarURL:   p.User.AvatarURL,
				UnreadCount: p.UnreadCount,
			})
		}
		conversations = append(conversations, conv)
	}
	return conversations, nil
}

// ListMessages retrieves a conversation's messages oldest first.
func (r *Repository) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	if err := ValidateID(conversationID); err != nil {
		return nil, err
	}

	sel := "*,sender:sender_id(display_name,avatar_url)"
	query := "select=" + neturl.QueryEscape(sel) +
		"&conversation_id=eq." + conversationID + "&order=created_at.asc"
	data, err := r.client.request(ctx, "GET", "messages", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", ErrRemoteCall, err)
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("%w: unmarshal messages: %v", ErrRemoteCall, err)
	}
	return messages, nil
}

// SendMessage inserts a message with a client-generated id and returns
// the stored row. One request/response, no client-side retry; the id
// doubles as an idempotency key if the caller retries manually.
func (r *Repository) SendMessage(ctx context.Context, actingUserID, conversationID, content string) (*Message, error) {
	if err := ValidateUserID(actingUserID); err != nil {
		return nil, err
	}
	if err := ValidateID(conversationID); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, fmt.Errorf("%w: message content cannot be empty", ErrInvalidInput)
	}

	row := map[string]any{
		"id":              uuid.NewString(),
		"conversation_id": conversationID,
		"sender_id":       actingUserID,
		"content":         content,
	}
	sel := "*,sender:sender_id(display_name,avatar_url)"
	query := "select=" + neturl.QueryEscape(sel)
	data, err := r.client.request(ctx, "POST", "messages", row, query)
	if err != nil {
		return nil, fmt.Errorf("%w: send message: %v", ErrRemoteCall, err)
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("%w: unmarshal sent message: %v", ErrRemoteCall, err)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: send message: empty representation", ErrRemoteCall)
	}
	return &messages[0], nil
}

// MarkMessagesRead marks a conversation read for the acting user.
func (r *Repository) MarkMessagesRead(ctx context.Context, actingUserID, conversationID string) error {
	if err := ValidateUserID(actingUserID); err != nil {
		return err
	}
	if err := ValidateID(conversationID); err != nil {
		return err
	}

	_, err := r.client.rpc(ctx, "mark_messages_as_read", map[string]any{
		"p_conversation_id": conversationID,
		"p_user_id":         actingUserID,
	})
	if err != nil {
		return fmt.Errorf("%w: mark messages read: %v", ErrRemoteCall, err)
	}
	return nil
}

// FindConversation returns the id of an existing thread between the
// acting user and another user, or "" when none exists.
func (r *Repository) FindConversation(ctx context.Context, actingUserID, otherUserID string) (string, error) {
	if err := ValidateUserID(actingUserID); err != nil {
		return "", err
	}
	if err := ValidateUserID(otherUserID); err != nil {
		return "", err
	}

	data, err := r.client.rpc(ctx, "find_conversation", map[string]any{
		"user_a": actingUserID,
		"user_b": otherUserID,
	})
	if err != nil {
		return "", fmt.Errorf("%w: find conversation: %v", ErrRemoteCall, err)
	}

	var id *string
	if err := json.Unmarshal(data, &id); err != nil {
		return "", fmt.Errorf("%w: unmarshal conversation id: %v", ErrRemoteCall, err)
	}
	if id == nil {
		return "", nil
	}
	return *id, nil
}

// CreateConversation starts a new thread between the given participants
// and returns its id.
func (r *Repository) CreateConversation(ctx context.Context, participantIDs []string) (string, error) {
	if len(participantIDs) < 2 {
		return "", fmt.Errorf("%w: a conversation needs at least two participants", ErrInvalidInput)
	}
	for _, id := range participantIDs {
		if err := ValidateUserID(id); err != nil {
			return "", err
		}
	}

	data, err := r.client.rpc(ctx, "create_conversation", map[string]any{
		"participant_ids": participantIDs,
	})
	if err != nil {
		return "", fmt.Errorf("%w: create conversation: %v", ErrRemoteCall, err)
	}

	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return "", fmt.Errorf("%w: unmarshal conversation id: %v", ErrRemoteCall, err)
	}
	return id, nil
}
