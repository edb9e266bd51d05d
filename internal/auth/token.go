package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims are the access-token claims the client cares about.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// parseToken decodes an access token without verifying its signature.
// The backend is the authority on token validity; the client only needs
// the subject and expiry for refresh scheduling.
func parseToken(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	return claims, nil
}

// tokenExpiry returns the expiry time encoded in the access token.
func tokenExpiry(token string) (time.Time, error) {
	claims, err := parseToken(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("access token has no expiry")
	}
	return claims.ExpiresAt.Time, nil
}

// TokenSubject returns the user id encoded in the access token.
func TokenSubject(token string) (string, error) {
	claims, err := parseToken(token)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("access token has no subject")
	}
	return claims.Subject, nil
}
