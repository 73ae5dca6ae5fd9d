package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// checkTokenExpiry inspects the token's exp claim without verifying the
// signature. Verification is the server's job; this only avoids sending
// requests that are guaranteed to bounce with a 401.
func checkTokenExpiry(token string, now time.Time) error {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return &ErrAuthRequired{Err: fmt.Errorf("malformed token: %w", err)}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return &ErrAuthRequired{Err: fmt.Errorf("read token expiry: %w", err)}
	}
	if exp != nil && now.After(exp.Time) {
		return &ErrAuthRequired{Err: fmt.Errorf("token expired at %s", exp.Time.Format(time.RFC3339))}
	}
	return nil
}
