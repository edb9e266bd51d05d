package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SaveSession persists a session to path with owner-only permissions so a
// restarted process can resume without re-authenticating.
func SaveSession(path string, session *Session) error {
	if path == "" {
		return nil
	}
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// LoadSession reads a previously saved session. A missing, corrupt, or
// fully expired file yields (nil, nil): callers treat it as no session.
func LoadSession(path string) (*Session, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, nil
	}
	if session.AccessToken == "" {
		return nil, nil
	}
	// An expired access token is still usable if a refresh token exists.
	if session.RefreshToken == "" && !session.ExpiresAt.IsZero() && session.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return &session, nil
}

// ClearSession removes the persisted session, ignoring a missing file.
func ClearSession(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
