package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestCheckTokenExpiry(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid token passes", func(t *testing.T) {
		tok := signedToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
		assert.NoError(t, checkTokenExpiry(tok, now))
	})

	t.Run("expired token is auth required", func(t *testing.T) {
		tok := signedToken(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()})
		err := checkTokenExpiry(tok, now)
		var authErr *ErrAuthRequired
		assert.ErrorAs(t, err, &authErr)
	})

	t.Run("token without exp passes", func(t *testing.T) {
		tok := signedToken(t, jwt.MapClaims{"sub": "stu-1"})
		assert.NoError(t, checkTokenExpiry(tok, now))
	})

	t.Run("garbage token is auth required", func(t *testing.T) {
		err := checkTokenExpiry("not.a.jwt", now)
		var authErr *ErrAuthRequired
		assert.ErrorAs(t, err, &authErr)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.Validate()
		var authErr *ErrAuthRequired
		assert.ErrorAs(t, err, &authErr)
	})

	t.Run("missing base URL", func(t *testing.T) {
		cfg := Config{Token: "x"}
		assert.Error(t, cfg.Validate())
	})
}
