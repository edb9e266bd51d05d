package peels

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roastlabs/roastapp-client/internal/database"
	"github.com/roastlabs/roastapp-client/internal/logging"
)

const me = "11111111-1111-1111-1111-111111111111"

type fakeGateway struct {
	friends     []database.Friend
	requests    []database.FriendRequest
	suggestions []database.FriendSuggestion

	listN      int
	sendErr    error
	sendN      int
	acceptErr  error
	declineErr error
	removeErr  error
}

func (f *fakeGateway) ListFriends(context.Context, string) ([]database.Friend, error) {
	f.listN++
	return append([]database.Friend(nil), f.friends...), nil
}

func (f *fakeGateway) ListFriendRequests(context.Context, string) ([]database.FriendRequest, error) {
	return append([]database.FriendRequest(nil), f.requests...), nil
}

func (f *fakeGateway) ListFriendSuggestions(context.Context, string, int) ([]database.FriendSuggestion, error) {
	return append([]database.FriendSuggestion(nil), f.suggestions...), nil
}

func (f *fakeGateway) SendFriendRequest(context.Context, string, string) error {
	f.sendN++
	return f.sendErr
}

func (f *fakeGateway) AcceptFriendRequest(context.Context, string) error { return f.acceptErr }

func (f *fakeGateway) DeclineFriendRequest(context.Context, string) error { return f.declineErr }

func (f *fakeGateway) RemoveFriend(context.Context, string, string) error { return f.removeErr }

func profile(id string) database.FriendProfile {
	return database.FriendProfile{ID: id, Username: "user-" + id, DisplayName: "User " + id}
}

func seededGateway() *fakeGateway {
	return &fakeGateway{
		friends: []database.Friend{
			{FriendProfile: profile("f1"), MutualFriends: 2, Reputation: 80},
		},
		requests: []database.FriendRequest{
			{RequestID: "req-1", FriendProfile: profile("r1"), MutualFriends: 3, CreatedAt: time.Now()},
		},
		suggestions: []database.FriendSuggestion{
			{FriendProfile: profile("s1"), MutualFriends: 1, Reason: "1 mutual friend"},
		},
	}
}

func refreshedStore(t *testing.T, gw *fakeGateway) *Store {
	t.Helper()
	store := NewStore(gw, logging.Nop(), me)
	require.NoError(t, store.Refresh(context.Background()))
	return store
}

func TestRefreshLoadsAllThreeLists(t *testing.T) {
	store := refreshedStore(t, seededGateway())

	require.Len(t, store.Friends(), 1)
	require.Len(t, store.Requests(), 1)
	require.Len(t, store.Suggestions(), 1)
	require.False(t, store.Loading())
}

func TestAcceptMovesRequestToFriendsWithPlaceholderReputation(t *testing.T) {
	gw := seededGateway()
	store := refreshedStore(t, gw)

	require.NoError(t, store.Accept(context.Background(), "req-1"))

	require.Empty(t, store.Requests(), "accepted request must leave the pending list")
	friends := store.Friends()
	require.Len(t, friends, 2)
	accepted := friends[1]
	require.Equal(t, "r1", accepted.ID)
	require.Equal(t, 3, accepted.MutualFriends, "mutual count carries over from the request")
	require.Equal(t, 0, accepted.Reputation, "reputation is a placeholder until the next refresh")
	require.Equal(t, 1, gw.listN, "accept must not trigger a refetch")
}

func TestAcceptFailureLeavesListsUntouched(t *testing.T) {
	gw := seededGateway()
	gw.acceptErr = errors.New("rejected")
	store := refreshedStore(t, gw)

	require.Error(t, store.Accept(context.Background(), "req-1"))
	require.Len(t, store.Requests(), 1)
	require.Len(t, store.Friends(), 1)
	require.NotEmpty(t, store.Err())
}

func TestAddDropsSuggestionLocally(t *testing.T) {
	gw := seededGateway()
	store := refreshedStore(t, gw)

	require.NoError(t, store.Add(context.Background(), "s1"))
	require.Empty(t, store.Suggestions())
	require.Equal(t, 1, gw.sendN)
	require.Equal(t, 1, gw.listN, "add must not trigger a refetch")
}

func TestDeclineDropsRequestLocally(t *testing.T) {
	store := refreshedStore(t, seededGateway())

	require.NoError(t, store.Decline(context.Background(), "req-1"))
	require.Empty(t, store.Requests())
	require.Len(t, store.Friends(), 1, "declining must not touch friends")
}

func TestRemoveDropsFriendLocally(t *testing.T) {
	store := refreshedStore(t, seededGateway())

	require.NoError(t, store.Remove(context.Background(), "f1"))
	require.Empty(t, store.Friends())
}

func TestRemoveFailureKeepsFriend(t *testing.T) {
	gw := seededGateway()
	gw.removeErr = errors.New("backend down")
	store := refreshedStore(t, gw)

	require.Error(t, store.Remove(context.Background(), "f1"))
	require.Len(t, store.Friends(), 1)
}
