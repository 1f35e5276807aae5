package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atelierhq/backend/pkg/crypto"
)

func setupSessionService(t *testing.T, current *time.Time) (*SessionService, *GormCredentialStore) {
	t.Helper()

	store := setupStore(t)
	clock := func() time.Time { return *current }

	access, err := NewJWTService(JWTConfig{
		Secret: "access-secret",
		Issuer: "atelier",
		TTL:    DefaultAccessTokenTTL,
		Clock:  clock,
	})
	require.NoError(t, err)

	refreshCodec, err := NewJWTService(JWTConfig{
		Secret: "refresh-secret",
		Issuer: "atelier",
		TTL:    DefaultRefreshTokenTTL,
		Clock:  clock,
	})
	require.NoError(t, err)

	refresh, err := NewRefreshTokenStore(store, refreshCodec, RefreshConfig{
		TTL:   DefaultRefreshTokenTTL,
		Clock: clock,
	})
	require.NoError(t, err)

	svc, err := NewSessionService(store, crypto.NewHasher(4), access, refresh, SessionConfig{Clock: clock})
	require.NoError(t, err)
	return svc, store
}

func TestLoginIssuesTokenPair(t *testing.T) {
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, store := setupSessionService(t, &current)
	user := createUser(t, store, "client@example.com", "secret-pass", true)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "client@example.com", "secret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.access.Validate(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, "client@example.com", claims.Email)

	// The access codec never accepts the refresh token.
	_, err = svc.access.Validate(pair.RefreshToken)
	require.Error(t, err)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, store := setupSessionService(t, &current)
	createUser(t, store, "client@example.com", "secret-pass", true)
	ctx := context.Background()

	_, unknownErr := svc.Login(ctx, "nobody@example.com", "secret-pass")
	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)

	_, wrongErr := svc.Login(ctx, "client@example.com", "wrong-pass")
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)

	require.Equal(t, unknownErr, wrongErr)
}

func TestLoginEmptyInput(t *testing.T) {
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := setupSessionService(t, &current)

	_, err := svc.Login(context.Background(), "", "secret-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "client@example.com", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, store := setupSessionService(t, &current)
	createUser(t, store, "client@example.com", "secret-pass", false)

	_, err := svc.Login(context.Background(), "client@example.com", "secret-pass")
	require.ErrorIs(t, err, ErrAccountInactive)
}

func TestRefreshRotatesTokenPair(t *testing.T) {
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, store := setupSessionService(t, &current)
	createUser(t, store, "client@example.com", "secret-pass", true)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "client@example.com", "secret-pass")
	require.NoError(t, err)

	current = current.Add(time.Minute)
	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The consumed token no longer works.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	// The rotated one does.
	current = current.Add(time.Minute)
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, store := setupSessionService(t, &current)
	user := createUser(t, store, "client@example.com", "secret-pass", true)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "client@example.com", "secret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, user.ID))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Logout with no outstanding token is still a success.
	require.NoError(t, svc.Logout(ctx, user.ID))
}

func TestProfileRedactsCredentialFields(t *testing.T) {
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, store := setupSessionService(t, &current)
	user := createUser(t, store, "client@example.com", "secret-pass", true)

	view, err := svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, view.ID)
	require.Equal(t, "client@example.com", view.Email)
	require.True(t, view.IsActive)
	require.Empty(t, view.Role)
}
