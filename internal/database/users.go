package database

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetCoinBalance retrieves a user's coin balance. The returned value is a
// cache; the backend remains the source of truth.
func (r *Repository) GetCoinBalance(ctx context.Context, userID string) (int, error) {
	if err := ValidateUserID(userID); err != nil {
		return 0, err
	}

	query := "select=coins&id=eq." + userID + "&limit=1"
	data, err := r.client.request(ctx, "GET", "users", nil, query)
	if err != nil {
		return 0, fmt.Errorf("%w: get coin balance: %v", ErrRemoteCall, err)
	}

	var rows []struct {
		Coins int `json:"coins"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("%w: unmarshal coin balance: %v", ErrRemoteCall, err)
	}
	if len(rows) == 0 {
		return 0, NewNotFoundError("user", userID)
	}
	return rows[0].Coins, nil
}

// GetReputation retrieves a user's reputation score.
func (r *Repository) GetReputation(ctx context.Context, userID string) (int, error) {
	if err := ValidateUserID(userID); err != nil {
		return 0, err
	}

	query := "select=reputation&id=eq." + userID + "&limit=1"
	data, err := r.client.request(ctx, "GET", "users", nil, query)
	if err != nil {
		return 0, fmt.Errorf("%w: get reputation: %v", ErrRemoteCall, err)
	}

	var rows []struct {
		Reputation int `json:"reputation"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("%w: unmarshal reputation: %v", ErrRemoteCall, err)
	}
	if len(rows) == 0 {
		return 0, NewNotFoundError("user", userID)
	}
	return rows[0].Reputation, nil
}

// GetUserProfile retrieves a profile by username through the profile
// procedure.
func (r *Repository) GetUserProfile(ctx context.Context, username string) (*UserProfile, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", ErrInvalidInput)
	}

	data, err := r.client.rpc(ctx, "get_user_profile", map[string]any{
		"p_username": SanitizeString(username),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get user profile: %v", ErrRemoteCall, err)
	}

	var profiles []UserProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		var profile UserProfile
		if err2 := json.Unmarshal(data, &profile); err2 != nil {
			return nil, fmt.Errorf("%w: unmarshal profile: %v", ErrRemoteCall, err)
		}
		profiles = []UserProfile{profile}
	}
	if len(profiles) == 0 || profiles[0].ID == "" {
		return nil, NewNotFoundError("profile", username)
	}
	return &profiles[0], nil
}

// GetUserContent retrieves a page of a user's content of one type.
func (r *Repository) GetUserContent(ctx context.Context, userID string, contentType ContentType, limit, offset int) ([]UserContent, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}
	switch contentType {
	case ContentPosts, ContentComments, ContentUpvoted, ContentShared:
	default:
		return nil, fmt.Errorf("%w: unknown content type %q", ErrInvalidInput, contentType)
	}
	if limit <= 0 {
		limit = 20
	}

	data, err := r.client.rpc(ctx, "get_user_content", map[string]any{
		"p_user_id":      userID,
		"p_content_type": string(contentType),
		"p_limit":        limit,
		"p_offset":       offset,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get user content: %v", ErrRemoteCall, err)
	}

	var content []UserContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("%w: unmarshal user content: %v", ErrRemoteCall, err)
	}
	return content, nil
}

// UpdateUserProfile updates the caller's profile through the backend
// procedure. Open maps are validated at this boundary.
func (r *Repository) UpdateUserProfile(ctx context.Context, update ProfileUpdate) error {
	if update.Preferences != nil {
		if err := validateOpenMap("preferences", update.Preferences); err != nil {
			return err
		}
	}
	for k := range update.SocialLinks {
		if k == "" {
			return fmt.Errorf("%w: social link keys cannot be blank", ErrInvalidInput)
		}
	}

	params := map[string]any{
		"p_display_name": nullableStrPtr(update.DisplayName),
		"p_bio":          nullableStrPtr(update.Bio),
		"p_avatar_url":   nullableStrPtr(update.AvatarURL),
	}
	if update.SocialLinks != nil {
		params["p_social_links"] = update.SocialLinks
	} else {
		params["p_social_links"] = nil
	}
	if update.Preferences != nil {
		params["p_preferences"] = update.Preferences
	} else {
		params["p_preferences"] = nil
	}

	if _, err := r.client.rpc(ctx, "update_user_profile", params); err != nil {
		return fmt.Errorf("%w: update user profile: %v", ErrRemoteCall, err)
	}
	return nil
}

func nullableStrPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
