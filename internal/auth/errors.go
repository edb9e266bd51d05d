package auth

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an auth failure.
type Kind string

const (
	// KindInvalidCredentials means the email/password pair was rejected.
	KindInvalidCredentials Kind = "invalid_credentials"
	// KindUnconfirmedAccount means the account exists but its email has
	// not been confirmed yet. Transient right after sign-up.
	KindUnconfirmedAccount Kind = "unconfirmed_account"
	// KindNetworkFailure means the request never got a backend response.
	KindNetworkFailure Kind = "network_failure"
	// KindServerRejected covers every other backend rejection.
	KindServerRejected Kind = "server_rejected"
)

// Error is a classified auth failure.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the failure kind; unclassified errors report
// KindServerRejected.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindServerRejected
}

// IsInvalidCredentials reports whether err is a credential rejection.
func IsInvalidCredentials(err error) bool {
	return KindOf(err) == KindInvalidCredentials
}

// IsUnconfirmedAccount reports whether err is the post-signup
// unconfirmed-account rejection.
func IsUnconfirmedAccount(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == KindUnconfirmedAccount
}

// classify maps a GoTrue error payload to an Error.
func classify(status int, code, description string) *Error {
	msg := description
	if msg == "" {
		msg = code
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "invalid login credentials"),
		code == "invalid_credentials":
		return &Error{
			Kind:    KindInvalidCredentials,
			Message: "invalid email or password",
			Status:  status,
		}
	case strings.Contains(lower, "email_not_confirmed"),
		strings.Contains(lower, "email not confirmed"),
		code == "email_not_confirmed":
		return &Error{
			Kind:    KindUnconfirmedAccount,
			Message: "email not confirmed",
			Status:  status,
		}
	default:
		return &Error{
			Kind:    KindServerRejected,
			Message: fmt.Sprintf("auth request rejected (%d): %s", status, msg),
			Status:  status,
		}
	}
}

// networkError wraps a transport-level failure.
func networkError(err error) *Error {
	return &Error{
		Kind:    KindNetworkFailure,
		Message: "auth request failed: " + err.Error(),
		cause:   err,
	}
}
