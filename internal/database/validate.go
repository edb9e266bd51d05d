package database

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidateUserID checks a user id before it is interpolated into a
// PostgREST filter. User ids are backend-issued UUIDs.
func ValidateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id cannot be empty", ErrInvalidInput)
	}
	if _, err := uuid.Parse(userID); err != nil {
		return fmt.Errorf("%w: user id must be a UUID", ErrInvalidInput)
	}
	return nil
}

// ValidateID checks a generic entity id: a UUID or a lowercase slug
// (sticker ids like "savage-roast" are slugs).
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidInput)
	}
	if _, err := uuid.Parse(id); err == nil {
		return nil
	}
	for _, r := range id {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return fmt.Errorf("%w: id %q contains invalid characters", ErrInvalidInput, id)
	}
	return nil
}

// SanitizeString strips characters that are meaningful inside PostgREST
// filter expressions from a free-form value.
func SanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '&', '(', ')', '=', '*', '%', '\\', '\n', '\r':
			return -1
		}
		return r
	}, s)
}

// validateOpenMap enforces the boundary contract for loosely-typed
// payload maps (social links, preferences): string keys, scalar or
// string-keyed values, no deep nesting beyond one level of maps/slices.
func validateOpenMap(name string, m map[string]any) error {
	for k, v := range m {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: %s keys cannot be blank", ErrInvalidInput, name)
		}
		if !validOpenValue(v, 0) {
			return fmt.Errorf("%w: %s[%s] has an unsupported value type", ErrInvalidInput, name, k)
		}
	}
	return nil
}

func validOpenValue(v any, depth int) bool {
	if depth > 2 {
		return false
	}
	switch val := v.(type) {
	case nil, string, bool, int, int32, int64, float32, float64:
		return true
	case map[string]any:
		for _, inner := range val {
			if !validOpenValue(inner, depth+1) {
				return false
			}
		}
		return true
	case []any:
		for _, inner := range val {
			if !validOpenValue(inner, depth+1) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
