package inbox

import (
	"context"
	"errors"
	"testing"

	"github.com/roastlabs/roastapp-client/internal/database"
	"github.com/roastlabs/roastapp-client/internal/logging"
)

type fakeGateway struct {
	notifications []database.Notification
	listErr       error
	markErr       error
	markedIDs     []string
	markN         int
}

func (f *fakeGateway) ListNotifications(context.Context) ([]database.Notification, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]database.Notification(nil), f.notifications...), nil
}

func (f *fakeGateway) MarkNotificationsRead(_ context.Context, ids []string) error {
	f.markN++
	f.markedIDs = ids
	return f.markErr
}

func seeded() *fakeGateway {
	return &fakeGateway{notifications: []database.Notification{
		{ID: "n1", Type: "award", Content: "awarded your post with Savage Roast"},
		{ID: "n2", Type: "comment", IsRead: true},
		{ID: "n3", Type: "friend_request"},
	}}
}

func fetchedStore(t *testing.T, gw *fakeGateway) *Store {
	t.Helper()
	store := NewStore(gw, logging.Nop())
	if err := store.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch() err = %v", err)
	}
	return store
}

func TestFetchAndUnreadCount(t *testing.T) {
	store := fetchedStore(t, seeded())
	if got := store.Notifications(); len(got) != 3 {
		t.Fatalf("Notifications() = %d items", len(got))
	}
	if store.UnreadCount() != 2 {
		t.Errorf("UnreadCount() = %d, want 2", store.UnreadCount())
	}
}

func TestMarkReadSpecificIDs(t *testing.T) {
	gw := seeded()
	store := fetchedStore(t, gw)

	if err := store.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("MarkRead() err = %v", err)
	}
	if store.UnreadCount() != 1 {
		t.Errorf("UnreadCount() = %d, want 1", store.UnreadCount())
	}
	if len(gw.markedIDs) != 1 || gw.markedIDs[0] != "n1" {
		t.Errorf("backend received ids %v", gw.markedIDs)
	}
}

func TestMarkReadAll(t *testing.T) {
	gw := seeded()
	store := fetchedStore(t, gw)

	if err := store.MarkRead(context.Background()); err != nil {
		t.Fatalf("MarkRead() err = %v", err)
	}
	if store.UnreadCount() != 0 {
		t.Errorf("UnreadCount() = %d, want 0", store.UnreadCount())
	}
	if len(gw.markedIDs) != 0 {
		t.Errorf("marking all must send no ids, got %v", gw.markedIDs)
	}
}

func TestMarkReadFailureKeepsUnread(t *testing.T) {
	gw := seeded()
	gw.markErr = errors.New("backend down")
	store := fetchedStore(t, gw)

	if err := store.MarkRead(context.Background(), "n1"); err == nil {
		t.Fatal("MarkRead() should fail")
	}
	if store.UnreadCount() != 2 {
		t.Errorf("UnreadCount() = %d, want untouched 2", store.UnreadCount())
	}
	if store.Err() == "" {
		t.Error("error must be recorded")
	}
}
