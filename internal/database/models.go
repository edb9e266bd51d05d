package database

import "time"

// PostStats are the backend-maintained aggregate counters for a post.
// The client never computes these; optimistic adjustments are reconciled
// on the next fetch.
type PostStats struct {
	LikesCount    int `json:"likes_count"`
	CommentsCount int `json:"comments_count"`
	AwardsCount   int `json:"awards_count"`
	SharesCount   int `json:"shares_count"`
}

// PostAuthor is the embedded author projection on a post row.
type PostAuthor struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Post is a post row with its embedded author and stats.
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	UserID      string     `json:"user_id"`
	CommunityID string     `json:"community_id,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	CodeSnippet string     `json:"code_snippet,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Stats       PostStats  `json:"stats"`
	IsLiked     bool       `json:"is_liked"`
	Author      PostAuthor `json:"author"`
}

// NewPost is the payload for creating a post.
type NewPost struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	CommunityID string `json:"community_id,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	CodeSnippet string `json:"code_snippet,omitempty"`
}

// FriendProfile is the user projection used for friends, requests, and
// suggestions.
type FriendProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	AvatarURL   string `json:"avatar_url"`
	Verified    bool   `json:"verified"`
}

// Friend is an accepted connection enriched with social context.
type Friend struct {
	FriendProfile
	MutualFriends int `json:"mutual_friends"`
	Reputation    int `json:"reputation"`
}

// FriendRequest is a pending incoming request.
type FriendRequest struct {
	// RequestID is the id of the friends row, distinct from the
	// requesting user's id.
	RequestID string `json:"request_id"`
	FriendProfile
	MutualFriends int       `json:"mutual_friends"`
	CreatedAt     time.Time `json:"created_at"`
}

// FriendSuggestion is a candidate connection.
type FriendSuggestion struct {
	FriendProfile
	MutualFriends int    `json:"mutual_friends"`
	Reason        string `json:"reason,omitempty"`
}

// friendRow is the raw friends-table row with embedded profiles.
type friendRow struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	FriendID  string         `json:"friend_id"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	User      *FriendProfile `json:"user,omitempty"`
	Friend    *FriendProfile `json:"friend,omitempty"`
}

// Participant is a conversation member other than the current user.
type Participant struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	UnreadCount int    `json:"unread_count"`
}

// Conversation is a direct-message thread.
type Conversation struct {
	ID            string        `json:"id"`
	LastMessage   string        `json:"last_message"`
	LastMessageAt time.Time     `json:"last_message_at"`
	UnreadCount   int           `json:"unread_count"`
	Participants  []Participant `json:"participants"`
}

// MessageSender is the embedded sender projection on a message.
type MessageSender struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Message is a direct message.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	Content        string        `json:"content"`
	SenderID       string        `json:"sender_id"`
	CreatedAt      time.Time     `json:"created_at"`
	IsRead         bool          `json:"is_read"`
	Sender         MessageSender `json:"sender"`
}

// UserProfile is the full profile returned by the profile procedure.
type UserProfile struct {
	ID            string            `json:"id"`
	Username      string            `json:"username"`
	DisplayName   string            `json:"display_name"`
	Bio           string            `json:"bio"`
	AvatarURL     string            `json:"avatar_url"`
	Reputation    int               `json:"reputation"`
	SocialLinks   map[string]string `json:"social_links"`
	Preferences   map[string]any    `json:"preferences"`
	CreatedAt     time.Time         `json:"created_at"`
	TotalPosts    int               `json:"total_posts"`
	TotalComments int               `json:"total_comments"`
	TotalUpvotes  int               `json:"total_upvotes"`
	TotalAwards   int               `json:"total_awards"`
	IsFollowing   bool              `json:"is_following"`
}

// ProfileUpdate carries the mutable profile attributes. Nil fields are
// left untouched.
type ProfileUpdate struct {
	DisplayName *string           `json:"display_name,omitempty"`
	Bio         *string           `json:"bio,omitempty"`
	AvatarURL   *string           `json:"avatar_url,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
	Preferences map[string]any    `json:"preferences,omitempty"`
}

// UserContent is one item of a user's posted/commented/upvoted/shared
// content.
type UserContent struct {
	ID            string    `json:"id"`
	ContentType   string    `json:"content_type"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	AwardsCount   int       `json:"awards_count"`
	IsLiked       bool      `json:"is_liked"`
}

// ContentType enumerates user-content queries.
type ContentType string

const (
	ContentPosts    ContentType = "posts"
	ContentComments ContentType = "comments"
	ContentUpvoted  ContentType = "upvoted"
	ContentShared   ContentType = "shared"
)

// CoinPackage is a purchasable bundle of coins.
type CoinPackage struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CoinAmount int    `json:"coin_amount"`
	PriceCents int    `json:"price_cents"`
	IsPopular  bool   `json:"is_popular"`
}

// Notification is an inbox entry.
type Notification struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	UserFromID    string    `json:"user_from_id"`
	Type          string    `json:"type"`
	Content       string    `json:"content"`
	ReferenceID   string    `json:"reference_id"`
	ReferenceType string    `json:"reference_type"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}

// CommunitySummary is a community row as surfaced by search.
type CommunitySummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Members     int    `json:"members"`
	Verified    bool   `json:"verified"`
}

// SearchResults groups results across the three searched collections.
type SearchResults struct {
	Posts       []Post             `json:"posts"`
	Users       []FriendProfile    `json:"users"`
	Communities []CommunitySummary `json:"communities"`
}
