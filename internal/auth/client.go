// Package auth provides the GoTrue authentication client.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// User represents an authenticated backend user.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone,omitempty"`
	Role         string         `json:"role"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	Aud          string         `json:"aud"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	ConfirmedAt  time.Time      `json:"confirmed_at,omitempty"`
	LastSignInAt time.Time      `json:"last_sign_in_at,omitempty"`
}

// Session is an issued auth session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user"`
}

// Config holds auth client configuration.
type Config struct {
	URL     string
	AnonKey string
}

// DefaultConfig returns config from environment variables.
func DefaultConfig() Config {
	return Config{
		URL:     os.Getenv("ROASTAPP_URL"),
		AnonKey: os.Getenv("ROASTAPP_ANON_KEY"),
	}
}

// Client talks to the backend's auth endpoints.
type Client struct {
	config Config
	base   string
	client *http.Client
}

// NewClient creates a new auth client.
func NewClient(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("auth URL is required")
	}
	if config.AnonKey == "" {
		return nil, fmt.Errorf("auth anon key is required")
	}
	return &Client{
		config: config,
		base:   strings.TrimRight(config.URL, "/") + "/auth/v1",
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// SignInWithPassword exchanges email/password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var session Session
	if err := c.do(ctx, "POST", "/token?grant_type=password", "", body, &session); err != nil {
		return nil, err
	}
	fillExpiry(&session)
	return &session, nil
}

// RefreshSession exchanges a refresh token for a fresh session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{"refresh_token": refreshToken}

	var session Session
	if err := c.do(ctx, "POST", "/token?grant_type=refresh_token", "", body, &session); err != nil {
		return nil, err
	}
	fillExpiry(&session)
	return &session, nil
}

// SignUp registers a new account. The backend may or may not return a
// session depending on its confirmation settings; callers follow up with
// SignInWithPassword either way.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*User, error) {
	body := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	// Some deployments return the bare user, others a session envelope.
	var resp struct {
		User
		Inner *User `json:"user"`
	}
	if err := c.do(ctx, "POST", "/signup", "", body, &resp); err != nil {
		return nil, err
	}
	if resp.Inner != nil {
		return resp.Inner, nil
	}
	return &resp.User, nil
}

// SignOut revokes the session behind the access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, "POST", "/logout", accessToken, nil, nil)
}

// ResetPassword requests a password recovery email.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	return c.do(ctx, "POST", "/recover", "", map[string]string{"email": email}, nil)
}

// UpdateUser updates profile attributes on the auth record. Attributes is
// an open map (email, password, data) passed through after boundary
// validation by the caller.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, attrs map[string]any) (*User, error) {
	var user User
	if err := c.do(ctx, "PUT", "/user", accessToken, attrs, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches the user behind an access token. Used for the startup
// session lookup.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, "GET", "/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

const maxAuthResponseBytes = 1 << 20 // 1 MiB

// do performs one auth request. A bearer token overrides the anon key.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.config.AnonKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.config.AnonKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAuthResponseBytes))
	if err != nil {
		return networkError(err)
	}

	if resp.StatusCode >= 400 {
		return classifyBody(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{
			Kind:    KindServerRejected,
			Message: "decode auth response: " + err.Error(),
			Status:  resp.StatusCode,
			cause:   err,
		}
	}
	return nil
}

// classifyBody decodes the GoTrue error envelope. The field names vary
// across versions, so all known spellings are read.
func classifyBody(status int, data []byte) *Error {
	var payload struct {
		Error            string `json:"error"`
		ErrorCode        string `json:"error_code"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	_ = json.Unmarshal(data, &payload)

	code := payload.ErrorCode
	if code == "" {
		code = payload.Error
	}
	description := payload.ErrorDescription
	if description == "" {
		description = payload.Msg
	}
	if description == "" {
		description = payload.Message
	}
	if description == "" {
		description = strings.TrimSpace(string(data))
	}
	return classify(status, code, description)
}

func fillExpiry(s *Session) {
	if s.ExpiresAt.IsZero() {
		if exp, err := tokenExpiry(s.AccessToken); err == nil {
			s.ExpiresAt = exp
		} else if s.ExpiresIn > 0 {
			s.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
		}
	}
}
