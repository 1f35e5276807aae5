package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestGenerateAndValidateToken(t *testing.T) {
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewJWTService(JWTConfig{
		Secret: "super-secret",
		Issuer: "atelier",
		TTL:    time.Hour,
		Clock:  now,
	})
	require.NoError(t, err)

	token, err := svc.Generate(TokenInput{
		UserID: "user-123",
		Email:  "client@example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)

	require.Equal(t, "user-123", claims.UserID)
	require.Equal(t, "user-123", claims.Subject)
	require.Equal(t, "client@example.com", claims.Email)
	require.Equal(t, "atelier", claims.Issuer)
	require.True(t, claims.IssuedAt.Time.Equal(current))
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(time.Hour)))
}

func TestValidateTokenInvalidSignature(t *testing.T) {
	now := func() time.Time { return time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC) }

	issuer, err := NewJWTService(JWTConfig{
		Secret: "issuer-secret",
		TTL:    time.Minute,
		Clock:  now,
	})
	require.NoError(t, err)

	token, err := issuer.Generate(TokenInput{UserID: "user-123"})
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{
		Secret: "other-secret",
		TTL:    time.Minute,
		Clock:  now,
	})
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
	require.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid))
}

func TestAccessSecretCannotValidateRefreshToken(t *testing.T) {
	now := func() time.Time { return time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC) }

	access, err := NewJWTService(JWTConfig{Secret: "access-secret", TTL: time.Minute, Clock: now})
	require.NoError(t, err)
	refresh, err := NewJWTService(JWTConfig{Secret: "refresh-secret", TTL: time.Hour, Clock: now})
	require.NoError(t, err)

	refreshToken, err := refresh.Generate(TokenInput{UserID: "user-123"})
	require.NoError(t, err)

	_, err = access.Validate(refreshToken)
	require.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	current := time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewJWTService(JWTConfig{
		Secret: "secret",
		TTL:    time.Minute,
		Clock:  now,
	})
	require.NoError(t, err)

	token, err := svc.Generate(TokenInput{UserID: "user-123"})
	require.NoError(t, err)

	// Move time forward beyond expiry.
	current = current.Add(2 * time.Minute)

	_, err = svc.Validate(token)
	require.Error(t, err)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))
}
