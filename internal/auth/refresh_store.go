package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atelierhq/backend/internal/models"
	"github.com/atelierhq/backend/pkg/logger"
	"github.com/atelierhq/backend/pkg/metrics"
)

// RefreshConfig describes tunable behaviour for the RefreshTokenStore.
type RefreshConfig struct {
	TTL   time.Duration
	Clock func() time.Time
}

// RefreshTokenStore binds exactly one live refresh token per account to the
// persisted credential record. Issuing overwrites any prior token, which is
// the whole single-session-per-account policy: there is no session table and
// no token history.
type RefreshTokenStore struct {
	store CredentialStore
	codec *JWTService
	ttl   time.Duration
	now   func() time.Time
	log   *zap.Logger
}

// NewRefreshTokenStore constructs the store around the credential boundary and
// the refresh-flavoured JWT codec.
func NewRefreshTokenStore(store CredentialStore, codec *JWTService, cfg RefreshConfig) (*RefreshTokenStore, error) {
	if store == nil {
		return nil, errors.New("refresh store: credential store is required")
	}
	if codec == nil {
		return nil, errors.New("refresh store: token codec is required")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &RefreshTokenStore{
		store: store,
		codec: codec,
		ttl:   ttl,
		now:   clock,
		log:   logger.WithModule("auth.refresh"),
	}, nil
}

// Issue signs a new refresh token for the account and stores it with an
// absolute expiry, overwriting any previously issued token.
func (s *RefreshTokenStore) Issue(ctx context.Context, user *models.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("refresh store: user is required")
	}

	token, err := s.codec.Generate(TokenInput{UserID: user.ID, Email: user.Email})
	if err != nil {
		return "", fmt.Errorf("refresh store: generate token: %w", err)
	}

	expiresAt := s.now().Add(s.ttl)
	err = s.store.UpdateFields(ctx, user.ID, map[string]any{
		"refresh_token":            token,
		"refresh_token_expires_at": expiresAt,
	})
	if err != nil {
		return "", fmt.Errorf("refresh store: persist token: %w", err)
	}

	metrics.TokensIssued.WithLabelValues("refresh").Inc()
	return token, nil
}

// ValidateAndConsume resolves the account holding the presented token and
// atomically clears the refresh fields. The caller issues a replacement pair
// on success; a concurrent presenter of the same token observes ErrInvalidToken.
func (s *RefreshTokenStore) ValidateAndConsume(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.store.FindByRefreshToken(ctx, token)
	if errors.Is(err, ErrUserNotFound) {
		metrics.TokensConsumed.WithLabelValues("refresh", "rejected").Inc()
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	now := s.now()

	// An expired token is an ordinary rejection, not corruption. It stays on
	// the row until the maintenance scrub clears it.
	if user.RefreshTokenExpiresAt == nil || !user.RefreshTokenExpiresAt.After(now) {
		s.log.Debug("refresh token presented after expiry", zap.String("user_id", user.ID))
		metrics.TokensConsumed.WithLabelValues("refresh", "rejected").Inc()
		return nil, ErrInvalidToken
	}

	// A value matching the stored column but failing signature verification
	// should be impossible; if it happens the stored token is corrupt or
	// forged, so drop it rather than letting it be retried.
	if _, err := s.codec.Validate(token); err != nil {
		s.log.Warn("stored refresh token failed signature verification; clearing",
			zap.String("user_id", user.ID), zap.Error(err))
		if clearErr := s.revokeFields(ctx, user.ID); clearErr != nil {
			return nil, clearErr
		}
		metrics.TokensConsumed.WithLabelValues("refresh", "rejected").Inc()
		return nil, ErrInvalidToken
	}

	guard := TokenGuard{Column: ColumnRefreshToken, Token: token, Now: now}
	rows, err := s.store.UpdateFieldsGuarded(ctx, user.ID, guard, map[string]any{
		"refresh_token":            nil,
		"refresh_token_expires_at": nil,
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// Expired, or a concurrent refresh/logout beat us to it.
		s.log.Debug("refresh token consume lost", zap.String("user_id", user.ID))
		metrics.TokensConsumed.WithLabelValues("refresh", "rejected").Inc()
		return nil, ErrInvalidToken
	}

	metrics.TokensConsumed.WithLabelValues("refresh", "success").Inc()

	user.RefreshToken = nil
	user.RefreshTokenExpiresAt = nil
	return user, nil
}

// Revoke clears the account's refresh fields. Revoking an account with no
// active refresh token is a no-op success so logout is safe to retry and
// leaks nothing about account state.
func (s *RefreshTokenStore) Revoke(ctx context.Context, accountID string) error {
	if accountID == "" {
		return errors.New("refresh store: account id is required")
	}
	return s.revokeFields(ctx, accountID)
}

func (s *RefreshTokenStore) revokeFields(ctx context.Context, accountID string) error {
	err := s.store.UpdateFields(ctx, accountID, map[string]any{
		"refresh_token":            nil,
		"refresh_token_expires_at": nil,
	})
	if err != nil {
		return fmt.Errorf("refresh store: revoke: %w", err)
	}
	return nil
}
