package database

import (
	"context"
	"encoding/json"
	"fmt"
	neturl "net/url"
)

const friendProfileSelect = "id,display_name,username,avatar_url,verified"

// SendFriendRequest creates a pending friends row from the acting user.
func (r *Repository) SendFriendRequest(ctx context.Context, actingUserID, friendID string) error {
	if err := ValidateUserID(actingUserID); err != nil {
		return err
	}
	if err := ValidateUserID(friendID); err != nil {
		return err
	}
	if actingUserID == friendID {
		return fmt.Errorf("%w: cannot friend yourself", ErrInvalidInput)
	}

	row := map[string]any{
		"user_id":   actingUserID,
		"friend_id": friendID,
		"status":    "pending",
	}
	if _, err := r.client.request(ctx, "POST", "friends", row, ""); err != nil {
		return fmt.Errorf("%w: send friend request: %v", ErrRemoteCall, err)
	}
	return nil
}

// AcceptFriendRequest marks a pending request accepted.
func (r *Repository) AcceptFriendRequest(ctx context.Context, requestID string) error {
	if err := ValidateID(requestID); err != nil {
		return err
	}

	update := map[string]any{"status": "accepted"}
	query := "id=eq." + requestID
	if _, err := r.client.request(ctx, "PATCH", "friends", update, query); err != nil {
		return fmt.Errorf("%w: accept friend request: %v", ErrRemoteCall, err)
	}
	return nil
}

// DeclineFriendRequest deletes a pending request.
func (r *Repository) DeclineFriendRequest(ctx context.Context, requestID string) error {
	if err := ValidateID(requestID); err != nil {
		return err
	}

	query := "id=eq." + requestID
	if _, err := r.client.request(ctx, "DELETE", "friends", nil, query); err != nil {
		return fmt.Errorf("%w: decline friend request: %v", ErrRemoteCall, err)
	}
	return nil
}

// RemoveFriend deletes the connection rows between the acting user and a
// friend in either direction.
func (r *Repository) RemoveFriend(ctx context.Context, actingUserID, friendID string) error {
	if err := ValidateUserID(actingUserID); err != nil {
		return err
	}
	if err := ValidateUserID(friendID); err != nil {
		return err
	}

	filter := fmt.Sprintf(
		"or=(and(user_id.eq.%s,friend_id.eq.%s),and(user_id.eq.%s,friend_id.eq.%s))",
		actingUserID, friendID, friendID, actingUserID,
	)
	if _, err := r.client.request(ctx, "DELETE", "friends", nil, filter); err != nil {
		return fmt.Errorf("%w: remove friend: %v", ErrRemoteCall, err)
	}
	return nil
}

// GetFriendStatus returns the connection status between two users as the
// backend reports it ("none", "pending", "accepted").
func (r *Repository) GetFriendStatus(ctx context.Context, userA, userB string) (string, error) {
	if err := ValidateUserID(userA); err != nil {
		return "", err
	}
	if err := ValidateUserID(userB); err != nil {
		return "", err
	}

	data, err := r.client.rpc(ctx, "get_friend_status", map[string]any{
		"user_a": userA,
		"user_b": userB,
	})
	if err != nil {
		return "", fmt.Errorf("%w: get friend status: %v", ErrRemoteCall, err)
	}

	var status string
	if err := json.Unmarshal(data, &status); err != nil {
		return "", fmt.Errorf("%w: unmarshal friend status: %v", ErrRemoteCall, err)
	}
	return status, nil
}

// GetMutualFriendsCount counts the friends two users share.
func (r *Repository) GetMutualFriendsCount(ctx context.Context, userA, userB string) (int, error) {
	if err := ValidateUserID(userA); err != nil {
		return 0, err
	}
	if err := ValidateUserID(userB); err != nil {
		return 0, err
	}

	data, err := r.client.rpc(ctx, "get_mutual_friends_count", map[string]any{
		"user_a": userA,
		"user_b": userB,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: get mutual friends count: %v", ErrRemoteCall, err)
	}

	var count int
	if err := json.Unmarshal(data, &count); err != nil {
		return 0, fmt.Errorf("%w: unmarshal mutual friends count: %v", ErrRemoteCall, err)
	}
	return count, nil
}

// ListFriends retrieves the acting user's accepted connections with
// mutual counts and reputation resolved per friend.
func (r *Repository) ListFriends(ctx context.Context, actingUserID string) ([]Friend, error) {
	if err := ValidateUserID(actingUserID); err != nil {
		return nil, err
	}

	sel := "id,created_at,friend:friend_id(" + friendProfileSelect + ")"
	query := "select=" + neturl.QueryEscape(sel) +
		"&user_id=eq." + actingUserID + "&status=eq.accepted"
	data, err := r.client.request(ctx, "GET", "friends", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list friends: %v", ErrRemoteCall, err)
	}

	var rows []friendRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal friends: %v", ErrRemoteCall, err)
	}

	friends := make([]Friend, 0, len(rows))
	for _, row := range rows {
		if row.Friend == nil {
			continue
		}
		mutual, err := r.GetMutualFriendsCount(ctx, actingUserID, row.Friend.ID)
		if err != nil {
			return nil, err
		}
		reputation, err := r.GetReputation(ctx, row.Friend.ID)
		if err != nil {
			return nil, err
		}
		friends = append(friends, Friend{
			FriendProfile: *row.Friend,
			MutualFriends: mutual,
			Reputation:    reputation,
		})
	}
	return friends, nil
}

// ListFriendRequests retrieves pending incoming requests.
func (r *Repository) ListFriendRequests(ctx context.Context, actingUserID string) ([]FriendRequest, error) {
	if err := ValidateUserID(actingUserID); err != nil {
		return nil, err
	}

	sel := "id,created_at,user:user_id(" + friendProfileSelect + ")"
	query := "select=" + neturl.QueryEscape(sel) +
		"&friend_id=eq." + actingUserID + "&status=eq.pending"
	data, err := r.client.request(ctx, "GET", "friends", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list friend requests: %v", ErrRemoteCall, err)
	}

	var rows []friendRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal friend requests: %v", ErrRemoteCall, err)
	}

	requests := make([]FriendRequest, 0, len(rows))
	for _, row := range rows {
		if row.User == nil {
			continue
		}
		mutual, err := r.GetMutualFriendsCount(ctx, actingUserID, row.User.ID)
		if err != nil {
			return nil, err
		}
		requests = append(requests, FriendRequest{
			RequestID:     row.ID,
			FriendProfile: *row.User,
			MutualFriends: mutual,
			CreatedAt:     row.CreatedAt,
		})
	}
	return requests, nil
}

// ListFriendSuggestions retrieves candidate connections: users with no
// existing row in either direction.
func (r *Repository) ListFriendSuggestions(ctx context.Context, actingUserID string, limit int) ([]FriendSuggestion, error) {
	if err := ValidateUserID(actingUserID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(
		"select=%s&id=neq.%s&limit=%d",
		neturl.QueryEscape(friendProfileSelect), actingUserID, limit,
	)
	data, err := r.client.request(ctx, "GET", "users", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list friend suggestions: %v", ErrRemoteCall, err)
	}

	var profiles []FriendProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("%w: unmarshal friend suggestions: %v", ErrRemoteCall, err)
	}

	suggestions := make([]FriendSuggestion, 0, len(profiles))
	for _, profile := range profiles {
		status, err := r.GetFriendStatus(ctx, actingUserID, profile.ID)
		if err != nil {
			return nil, err
		}
		if status != "" && status != "none" {
			continue
		}
		mutual, err := r.GetMutualFriendsCount(ctx, actingUserID, profile.ID)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, FriendSuggestion{
			FriendProfile: profile,
			MutualFriends: mutual,
			Reason:        suggestionReason(mutual),
		})
	}
	return suggestions, nil
}

func suggestionReason(mutualCount int) string {
	if mutualCount == 1 {
		return "1 mutual friend"
	}
	if mutualCount > 1 {
		return fmt.Sprintf("%d mutual friends", mutualCount)
	}
	return "Based on your interests"
}
