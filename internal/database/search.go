package database

import (
	"context"
	"encoding/json"
	"fmt"
	neturl "net/url"
)

// searchPattern builds a PostgREST ilike pattern from a raw query.
func searchPattern(query string) string {
	return "*" + SanitizeString(query) + "*"
}

// SearchPosts finds posts whose title or content matches the query.
func (r *Repository) SearchPosts(ctx context.Context, query string, limit int) ([]Post, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query cannot be empty", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 20
	}

	pattern := searchPattern(query)
	q := fmt.Sprintf(
		"select=%s&or=(title.ilike.%s,content.ilike.%s)&limit=%d",
		neturl.QueryEscape(postSelect), pattern, pattern, limit,
	)
	data, err := r.client.request(ctx, "GET", "posts", nil, q)
	if err != nil {
		return nil, fmt.Errorf("%w: search posts: %v", ErrRemoteCall, err)
	}

	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("%w: unmarshal post results: %v", ErrRemoteCall, err)
	}
	return posts, nil
}

// SearchUsers finds users by username or display name.
func (r *Repository) SearchUsers(ctx context.Context, query string, limit int) ([]FriendProfile, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query cannot be empty", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 20
	}

	pattern := searchPattern(query)
	q := fmt.Sprintf(
		"select=%s&or=(username.ilike.%s,display_name.ilike.%s)&limit=%d",
		neturl.QueryEscape(friendProfileSelect), pattern, pattern, limit,
	)
	data, err := r.client.request(ctx, "GET", "users", nil, q)
	if err != nil {
		return nil, fmt.Errorf("%w: search users: %v", ErrRemoteCall, err)
	}

	var users []FriendProfile
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("%w: unmarshal user results: %v", ErrRemoteCall, err)
	}
	return users, nil
}

// SearchCommunities finds communities by name or description.
func (r *Repository) SearchCommunities(ctx context.Context, query string, limit int) ([]CommunitySummary, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query cannot be empty", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 20
	}

	pattern := searchPattern(query)
	q := fmt.Sprintf(
		"select=*&or=(name.ilike.%s,description.ilike.%s)&limit=%d",
		pattern, pattern, limit,
	)
	data, err := r.client.request(ctx, "GET", "communities", nil, q)
	if err != nil {
		return nil, fmt.Errorf("%w: search communities: %v", ErrRemoteCall, err)
	}

	var communities []CommunitySummary
	if err := json.Unmarshal(data, &communities); err != nil {
		return nil, fmt.Errorf("%w: unmarshal community results: %v", ErrRemoteCall, err)
	}
	return communities, nil
}
