package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atelierhq/backend/internal/models"
	"github.com/atelierhq/backend/pkg/crypto"
	"github.com/atelierhq/backend/pkg/logger"
	"github.com/atelierhq/backend/pkg/metrics"
)

// TokenPair represents an access token and refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ProfileView is the outward representation of an account. Password hash and
// token fields are never part of it.
type ProfileView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsActive  bool   `json:"is_active"`
	Role      string `json:"role,omitempty"`
}

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	Clock func() time.Time
}

// SessionService orchestrates login, logout, refresh, and profile retrieval.
type SessionService struct {
	store   CredentialStore
	hasher  *crypto.Hasher
	access  *JWTService
	refresh *RefreshTokenStore
	now     func() time.Time
	log     *zap.Logger

	// timingHash is verified against on failure paths that never reach a
	// stored hash (unknown email, empty input) so every rejection costs a
	// bcrypt comparison.
	timingHash string
}

// NewSessionService constructs a session service from its collaborators.
func NewSessionService(store CredentialStore, hasher *crypto.Hasher, access *JWTService, refresh *RefreshTokenStore, cfg SessionConfig) (*SessionService, error) {
	if store == nil {
		return nil, errors.New("session service: credential store is required")
	}
	if hasher == nil {
		return nil, errors.New("session service: hasher is required")
	}
	if access == nil {
		return nil, errors.New("session service: access token codec is required")
	}
	if refresh == nil {
		return nil, errors.New("session service: refresh token store is required")
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	pad, err := crypto.GenerateToken(crypto.DefaultTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("session service: generate timing pad: %w", err)
	}
	timingHash, err := hasher.Hash(pad)
	if err != nil {
		return nil, fmt.Errorf("session service: hash timing pad: %w", err)
	}

	return &SessionService{
		store:      store,
		hasher:     hasher,
		access:     access,
		refresh:    refresh,
		now:        clock,
		log:        logger.WithModule("auth.session"),
		timingHash: timingHash,
	}, nil
}

// Login verifies the credentials and issues a fresh token pair. Unknown email
// and wrong password both return ErrInvalidCredentials; an inactive account
// with a present email returns ErrAccountInactive so clients can offer to
// resend the activation email.
func (s *SessionService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.hasher.Verify(s.timingHash, password)
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return TokenPair{}, ErrInvalidCredentials
	}

	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		// Burn a bcrypt comparison so this path is not observably faster
		// than a wrong-password failure.
		s.hasher.Verify(s.timingHash, password)
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, err
	}

	if !user.IsActive {
		s.log.Debug("login rejected for inactive account", zap.String("user_id", user.ID))
		metrics.AuthAttempts.WithLabelValues("inactive").Inc()
		return TokenPair{}, ErrAccountInactive
	}

	if !s.hasher.Verify(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return pair, nil
}

// Logout revokes the account's refresh token. It succeeds whether or not a
// token was outstanding.
func (s *SessionService) Logout(ctx context.Context, accountID string) error {
	return s.refresh.Revoke(ctx, accountID)
}

// Refresh consumes the presented refresh token and issues a new pair.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	user, err := s.refresh.ValidateAndConsume(ctx, strings.TrimSpace(refreshToken))
	if err != nil {
		return TokenPair{}, err
	}

	return s.issuePair(ctx, user)
}

// Profile returns the redacted view of an account.
func (s *SessionService) Profile(ctx context.Context, accountID string) (ProfileView, error) {
	user, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		return ProfileView{}, err
	}

	view := ProfileView{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsActive:  user.IsActive,
	}
	if user.Role != nil {
		view.Role = user.Role.Name
	}
	return view, nil
}

func (s *SessionService) issuePair(ctx context.Context, user *models.User) (TokenPair, error) {
	accessToken, err := s.access.Generate(TokenInput{UserID: user.ID, Email: user.Email})
	if err != nil {
		return TokenPair{}, fmt.Errorf("session service: generate access token: %w", err)
	}

	refreshToken, err := s.refresh.Issue(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
