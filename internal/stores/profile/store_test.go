package profile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/roastlabs/roastapp-client/internal/database"
	"github.com/roastlabs/roastapp-client/internal/logging"
)

const userID = "11111111-1111-1111-1111-111111111111"

type fakeGateway struct {
	profile    *database.UserProfile
	profileErr error
	contentErr error
	updateErr  error
	lastUpdate database.ProfileUpdate
	offsets    []int
}

func (f *fakeGateway) GetUserProfile(context.Context, string) (*database.UserProfile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	copied := *f.profile
	return &copied, nil
}

func (f *fakeGateway) GetUserContent(_ context.Context, _ string, _ database.ContentType, limit, offset int) ([]database.UserContent, error) {
	if f.contentErr != nil {
		return nil, f.contentErr
	}
	f.offsets = append(f.offsets, offset)
	items := make([]database.UserContent, 2)
	for i := range items {
		items[i] = database.UserContent{ID: fmt.Sprintf("item-%d-%d", offset, i)}
	}
	_ = limit
	return items, nil
}

func (f *fakeGateway) UpdateUserProfile(_ context.Context, update database.ProfileUpdate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.lastUpdate = update
	return nil
}

func seedProfile() *database.UserProfile {
	return &database.UserProfile{
		ID:          userID,
		Username:    "roaster",
		DisplayName: "Roaster",
		Bio:         "old bio",
		Reputation:  42,
		TotalPosts:  7,
	}
}

func fetchedStore(t *testing.T, gw *fakeGateway) *Store {
	t.Helper()
	store := NewStore(gw, logging.Nop())
	if err := store.Fetch(context.Background(), "roaster"); err != nil {
		t.Fatalf("Fetch() err = %v", err)
	}
	return store
}

func TestFetchLoadsProfile(t *testing.T) {
	store := fetchedStore(t, &fakeGateway{profile: seedProfile()})
	got := store.Profile()
	if got == nil || got.Username != "roaster" || got.Reputation != 42 {
		t.Fatalf("Profile() = %+v", got)
	}
}

func TestFetchFailureRecordsError(t *testing.T) {
	gw := &fakeGateway{profileErr: errors.New("backend down")}
	store := NewStore(gw, logging.Nop())
	if err := store.Fetch(context.Background(), "roaster"); err == nil {
		t.Fatal("Fetch() should fail")
	}
	if store.Profile() != nil {
		t.Error("no profile may be cached on failure")
	}
	if store.Err() == "" {
		t.Error("error must be recorded")
	}
}

func TestFetchContentPagesAppend(t *testing.T) {
	gw := &fakeGateway{profile: seedProfile()}
	store := fetchedStore(t, gw)

	if err := store.FetchContent(context.Background(), database.ContentPosts, 0); err != nil {
		t.Fatal(err)
	}
	if err := store.FetchContent(context.Background(), database.ContentPosts, 2); err != nil {
		t.Fatal(err)
	}
	if got := store.Content(database.ContentPosts); len(got) != 4 {
		t.Errorf("content items = %d, want first page + appended second page", len(got))
	}

	// Offset 0 replaces rather than appends.
	if err := store.FetchContent(context.Background(), database.ContentPosts, 0); err != nil {
		t.Fatal(err)
	}
	if got := store.Content(database.ContentPosts); len(got) != 2 {
		t.Errorf("content items = %d, want replaced first page", len(got))
	}
}

func TestFetchContentWithoutProfileFails(t *testing.T) {
	store := NewStore(&fakeGateway{profile: seedProfile()}, logging.Nop())
	if err := store.FetchContent(context.Background(), database.ContentPosts, 0); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdatePatchesLocalProfile(t *testing.T) {
	gw := &fakeGateway{profile: seedProfile()}
	store := fetchedStore(t, gw)

	bio := "new bio"
	if err := store.Update(context.Background(), database.ProfileUpdate{Bio: &bio}); err != nil {
		t.Fatalf("Update() err = %v", err)
	}
	got := store.Profile()
	if got.Bio != "new bio" {
		t.Errorf("bio = %q, want patched", got.Bio)
	}
	if got.DisplayName != "Roaster" || got.Reputation != 42 {
		t.Error("untouched fields must survive the patch")
	}
	if gw.lastUpdate.Bio == nil || *gw.lastUpdate.Bio != "new bio" {
		t.Error("update must reach the backend")
	}
}

func TestUpdateFailureLeavesProfileUntouched(t *testing.T) {
	gw := &fakeGateway{profile: seedProfile(), updateErr: errors.New("rejected")}
	store := fetchedStore(t, gw)

	bio := "new bio"
	if err := store.Update(context.Background(), database.ProfileUpdate{Bio: &bio}); err == nil {
		t.Fatal("Update() should fail")
	}
	if store.Profile().Bio != "old bio" {
		t.Error("failed update must not patch the cache")
	}
}
