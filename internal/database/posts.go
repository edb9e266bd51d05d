package database

import (
	"context"
	"encoding/json"
	"fmt"
	neturl "net/url"
)

// postSelect embeds author and stats on every post row, the same
// projection the feed renders.
const postSelect = "*,author:user_id(username,display_name,avatar_url),stats:post_stats(likes_count,comments_count,awards_count,shares_count)"

// ListPosts retrieves the feed, newest first.
func (r *Repository) ListPosts(ctx context.Context) ([]Post, error) {
	query := "select=" + neturl.QueryEscape(postSelect) + "&order=created_at.desc"
	data, err := r.client.request(ctx, "GET", "posts", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list posts: %v", ErrRemoteCall, err)
	}

	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("%w: unmarshal posts: %v", ErrRemoteCall, err)
	}
	return posts, nil
}

// CreatePost creates a post through the backend procedure and returns the
// new post id.
func (r *Repository) CreatePost(ctx context.Context, post NewPost) (string, error) {
	if post.Title == "" {
		return "", fmt.Errorf("%w: post title cannot be empty", ErrInvalidInput)
	}
	if post.Content == "" {
		return "", fmt.Errorf("%w: post content cannot be empty", ErrInvalidInput)
	}
	if post.CommunityID != "" {
		if err := ValidateID(post.CommunityID); err != nil {
			return "", err
		}
	}

	params := map[string]any{
		"title":   post.Title,
		"content": post.Content,
	}
	// The procedure expects explicit nulls for the optional fields.
	params["community_id"] = nullable(post.CommunityID)
	params["image_url"] = nullable(post.ImageURL)
	params["code_snippet"] = nullable(post.CodeSnippet)

	data, err := r.client.rpc(ctx, "create_post", params)
	if err != nil {
		return "", fmt.Errorf("%w: create post: %v", ErrRemoteCall, err)
	}

	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return "", fmt.Errorf("%w: unmarshal post id: %v", ErrRemoteCall, err)
	}
	return id, nil
}

// TogglePostLike flips the caller's like on a post and reports the new
// liked state as decided by the backend.
func (r *Repository) TogglePostLike(ctx context.Context, postID string) (bool, error) {
	if err := ValidateID(postID); err != nil {
		return false, err
	}

	data, err := r.client.rpc(ctx, "toggle_post_like", map[string]any{
		"target_post_id": postID,
	})
	if err != nil {
		return false, fmt.Errorf("%w: toggle post like: %v", ErrRemoteCall, err)
	}

	var liked bool
	if err := json.Unmarshal(data, &liked); err != nil {
		return false, fmt.Errorf("%w: unmarshal like result: %v", ErrRemoteCall, err)
	}
	return liked, nil
}

// CreateComment creates a comment (optionally nested under parentID) and
// returns the new comment id.
func (r *Repository) CreateComment(ctx context.Context, postID, content, parentID string) (string, error) {
	if err := ValidateID(postID); err != nil {
		return "", err
	}
	if content == "" {
		return "", fmt.Errorf("%w: comment content cannot be empty", ErrInvalidInput)
	}
	if parentID != "" {
		if err := ValidateID(parentID); err != nil {
			return "", err
		}
	}

	data, err := r.client.rpc(ctx, "create_comment", map[string]any{
		"target_post_id":   postID,
		"comment_content":  content,
		"target_parent_id": nullable(parentID),
	})
	if err != nil {
		return "", fmt.Errorf("%w: create comment: %v", ErrRemoteCall, err)
	}

	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return "", fmt.Errorf("%w: unmarshal comment id: %v", ErrRemoteCall, err)
	}
	return id, nil
}

// GetPostWithStats retrieves a single post with its aggregates.
func (r *Repository) GetPostWithStats(ctx context.Context, postID string) (*Post, error) {
	if err := ValidateID(postID); err != nil {
		return nil, err
	}

	data, err := r.client.rpc(ctx, "get_post_with_stats", map[string]any{
		"target_post_id": postID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get post: %v", ErrRemoteCall, err)
	}

	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		// The procedure may return a bare object instead of a set.
		var post Post
		if err2 := json.Unmarshal(data, &post); err2 != nil {
			return nil, fmt.Errorf("%w: unmarshal post: %v", ErrRemoteCall, err)
		}
		posts = []Post{post}
	}
	if len(posts) == 0 || posts[0].ID == "" {
		return nil, NewNotFoundError("post", postID)
	}
	return &posts[0], nil
}

// nullable maps the empty string to an explicit JSON null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
