package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roastlabs/roastapp-client/internal/database"
	"github.com/roastlabs/roastapp-client/internal/events"
	"github.com/roastlabs/roastapp-client/internal/logging"
)

const (
	me    = "11111111-1111-1111-1111-111111111111"
	other = "22222222-2222-2222-2222-222222222222"
)

type fakeGateway struct {
	conversations []database.Conversation
	listConvN     int
	messages      map[string][]database.Message
	sendErr       error
	markErr       error
	markN         int
	foundConv     string
	createdConv   string
	createN       int
}

func (f *fakeGateway) ListConversations(context.Context, string) ([]database.Conversation, error) {
	f.listConvN++
	out := make([]database.Conversation, len(f.conversations))
	copy(out, f.conversations)
	return out, nil
}

func (f *fakeGateway) ListMessages(_ context.Context, conversationID string) ([]database.Message, error) {
	return f.messages[conversationID], nil
}

func (f *fakeGateway) SendMessage(_ context.Context, actingUserID, conversationID, content string) (*database.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &database.Message{
		ID:             "m-sent",
		ConversationID: conversationID,
		SenderID:       actingUserID,
		Content:        content,
		CreatedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeGateway) MarkMessagesRead(context.Context, string, string) error {
	f.markN++
	return f.markErr
}

func (f *fakeGateway) FindConversation(context.Context, string, string) (string, error) {
	return f.foundConv, nil
}

func (f *fakeGateway) CreateConversation(context.Context, []string) (string, error) {
	f.createN++
	return f.createdConv, nil
}

func thread(id string, unread int) database.Conversation {
	return database.Conversation{ID: id, UnreadCount: unread, LastMessage: "old"}
}

func TestFetchMessagesMarksThreadRead(t *testing.T) {
	gw := &fakeGateway{
		conversations: []database.Conversation{thread("c1", 4)},
		messages:      map[string][]database.Message{"c1": {{ID: "m1", ConversationID: "c1"}}},
	}
	store := NewStore(gw, logging.Nop(), me)
	if err := store.FetchConversations(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := store.FetchMessages(context.Background(), "c1"); err != nil {
		t.Fatalf("FetchMessages() err = %v", err)
	}
	if got := store.Messages("c1"); len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("Messages() = %+v", got)
	}
	if gw.markN != 1 {
		t.Errorf("mark-read calls = %d, want 1", gw.markN)
	}
	if store.Conversations()[0].UnreadCount != 0 {
		t.Error("unread count must zero after a successful mark")
	}
}

func TestFetchMessagesMarkFailureKeepsUnread(t *testing.T) {
	gw := &fakeGateway{
		conversations: []database.Conversation{thread("c1", 4)},
		messages:      map[string][]database.Message{"c1": {{ID: "m1"}}},
		markErr:       errors.New("mark failed"),
	}
	store := NewStore(gw, logging.Nop(), me)
	if err := store.FetchConversations(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Messages still load; the counter stays until the backend accepts.
	if err := store.FetchMessages(context.Background(), "c1"); err != nil {
		t.Fatalf("FetchMessages() err = %v", err)
	}
	if store.Conversations()[0].UnreadCount != 4 {
		t.Error("unread count must survive a failed mark")
	}
}

func TestSendAppendsStoredRow(t *testing.T) {
	gw := &fakeGateway{conversations: []database.Conversation{thread("c1", 0)}}
	store := NewStore(gw, logging.Nop(), me)
	if err := store.FetchConversations(context.Background()); err != nil {
		t.Fatal(err)
	}

	message, err := store.Send(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatalf("Send() err = %v", err)
	}
	if message.ID != "m-sent" {
		t.Errorf("message id = %q", message.ID)
	}
	if got := store.Messages("c1"); len(got) != 1 || got[0].Content != "hello" {
		t.Fatalf("Messages() = %+v", got)
	}
	conv := store.Conversations()[0]
	if conv.LastMessage != "hello" {
		t.Errorf("last message = %q, want the sent content", conv.LastMessage)
	}
}

func TestSendFailureLeavesThreadUntouched(t *testing.T) {
	gw := &fakeGateway{sendErr: errors.New("rejected")}
	store := NewStore(gw, logging.Nop(), me)

	if _, err := store.Send(context.Background(), "c1", "hello"); err == nil {
		t.Fatal("Send() should fail")
	}
	if len(store.Messages("c1")) != 0 {
		t.Error("no message may be appended on failure")
	}
	if store.Err() == "" {
		t.Error("error must be recorded")
	}
}

func TestStartReusesExistingConversation(t *testing.T) {
	gw := &fakeGateway{foundConv: "c-existing"}
	store := NewStore(gw, logging.Nop(), me)

	id, err := store.Start(context.Background(), other)
	if err != nil {
		t.Fatalf("Start() err = %v", err)
	}
	if id != "c-existing" {
		t.Errorf("id = %q, want the existing thread", id)
	}
	if gw.createN != 0 {
		t.Errorf("create calls = %d, want 0", gw.createN)
	}
}

func TestStartCreatesWhenNoneExists(t *testing.T) {
	gw := &fakeGateway{createdConv: "c-new"}
	store := NewStore(gw, logging.Nop(), me)

	id, err := store.Start(context.Background(), other)
	if err != nil {
		t.Fatalf("Start() err = %v", err)
	}
	if id != "c-new" || gw.createN != 1 {
		t.Errorf("id = %q, creates = %d", id, gw.createN)
	}
	if gw.listConvN == 0 {
		t.Error("creating a thread must refetch the list")
	}
}

func TestIncomingRealtimeMessageAppends(t *testing.T) {
	gw := &fakeGateway{conversations: []database.Conversation{thread("c1", 0)}}
	store := NewStore(gw, logging.Nop(), me)
	if err := store.FetchConversations(context.Background()); err != nil {
		t.Fatal(err)
	}

	bus := events.NewBus()
	if _, err := bus.Subscribe(events.TopicMessageInsert, store.OnMessageEvent); err != nil {
		t.Fatal(err)
	}

	incoming := &database.Message{ID: "m-in", ConversationID: "c1", SenderID: other, Content: "yo"}
	bus.Publish(context.Background(), events.TopicMessageInsert, "realtime", incoming)

	if got := store.Messages("c1"); len(got) != 1 || got[0].ID != "m-in" {
		t.Fatalf("Messages() = %+v", got)
	}
	if store.Conversations()[0].UnreadCount != 1 {
		t.Error("incoming message must bump the unread counter")
	}

	// Redelivery of the same row is a no-op.
	bus.Publish(context.Background(), events.TopicMessageInsert, "realtime", incoming)
	if got := store.Messages("c1"); len(got) != 1 {
		t.Errorf("duplicate insert appended: %d messages", len(got))
	}
}

func TestOwnRealtimeMessageIsSkipped(t *testing.T) {
	store := NewStore(&fakeGateway{}, logging.Nop(), me)
	own := &database.Message{ID: "m-own", ConversationID: "c1", SenderID: me}
	store.OnMessageEvent(context.Background(), events.Event{Topic: events.TopicMessageInsert, Data: own})
	if len(store.Messages("c1")) != 0 {
		t.Error("own messages arrive via Send, not realtime")
	}
}
