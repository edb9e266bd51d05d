package database

import (
	"errors"
	"testing"
)

func TestValidateUserID(t *testing.T) {
	if err := ValidateUserID("11111111-1111-1111-1111-111111111111"); err != nil {
		t.Errorf("valid uuid rejected: %v", err)
	}
	for _, bad := range []string{"", "abc", "1;drop table users"} {
		if err := ValidateUserID(bad); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ValidateUserID(%q) = %v, want ErrInvalidInput", bad, err)
		}
	}
}

func TestValidateIDAcceptsSlugs(t *testing.T) {
	for _, id := range []string{"savage-roast", "premium_roast", "abc123"} {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v", id, err)
		}
	}
	for _, bad := range []string{"", "Has Space", "a,b", "x=eq.y"} {
		if err := ValidateID(bad); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ValidateID(%q) = %v, want ErrInvalidInput", bad, err)
		}
	}
}

func TestSanitizeStringStripsFilterSyntax(t *testing.T) {
	got := SanitizeString("name,or=(x)&y*%")
	if got != "nameorxy" {
		t.Errorf("SanitizeString() = %q", got)
	}
}

func TestValidateOpenMap(t *testing.T) {
	ok := map[string]any{
		"theme":    "dark",
		"volume":   0.5,
		"flags":    map[string]any{"beta": true},
		"channels": []any{"email", "push"},
	}
	if err := validateOpenMap("preferences", ok); err != nil {
		t.Errorf("valid map rejected: %v", err)
	}

	if err := validateOpenMap("preferences", map[string]any{" ": "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank key accepted: %v", err)
	}
	if err := validateOpenMap("preferences", map[string]any{"fn": func() {}}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("function value accepted: %v", err)
	}
	deep := map[string]any{"a": map[string]any{"b": map[string]any{"c": map[string]any{"d": "too deep"}}}}
	if err := validateOpenMap("preferences", deep); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("deep nesting accepted: %v", err)
	}
}
