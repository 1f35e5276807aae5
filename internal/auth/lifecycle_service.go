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
	"github.com/atelierhq/backend/pkg/mail"
	"github.com/atelierhq/backend/pkg/metrics"
)

// Default validity windows for single-use lifecycle tokens.
const (
	DefaultActivationTokenTTL = 24 * time.Hour
	DefaultResetTokenTTL      = time.Hour
)

// LifecycleConfig describes tunable behaviour for the LifecycleService.
type LifecycleConfig struct {
	ActivationTTL time.Duration
	ResetTTL      time.Duration
	// BaseURL is the public site root used to build links in emails.
	BaseURL string
	Clock   func() time.Time
}

// LifecycleService manages account activation and password recovery. Both
// flows revolve around opaque single-use tokens stored on the credential
// record: issuing overwrites any outstanding token of the same class,
// consuming clears it atomically.
type LifecycleService struct {
	store         CredentialStore
	hasher        *crypto.Hasher
	mailer        mail.Mailer
	activationTTL time.Duration
	resetTTL      time.Duration
	baseURL       string
	now           func() time.Time
	log           *zap.Logger
}

// NewLifecycleService constructs a lifecycle service from its collaborators.
// The mailer is optional; without one no emails are sent.
func NewLifecycleService(store CredentialStore, hasher *crypto.Hasher, mailer mail.Mailer, cfg LifecycleConfig) (*LifecycleService, error) {
	if store == nil {
		return nil, errors.New("lifecycle service: credential store is required")
	}
	if hasher == nil {
		return nil, errors.New("lifecycle service: hasher is required")
	}

	activationTTL := cfg.ActivationTTL
	if activationTTL <= 0 {
		activationTTL = DefaultActivationTokenTTL
	}
	resetTTL := cfg.ResetTTL
	if resetTTL <= 0 {
		resetTTL = DefaultResetTokenTTL
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &LifecycleService{
		store:         store,
		hasher:        hasher,
		mailer:        mailer,
		activationTTL: activationTTL,
		resetTTL:      resetTTL,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		now:           clock,
		log:           logger.WithModule("auth.lifecycle"),
	}, nil
}

// IssueActivation stores a fresh activation token on the account and emails
// the activation link. Any previously issued activation token stops working.
func (s *LifecycleService) IssueActivation(ctx context.Context, user *models.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("lifecycle service: user is required")
	}
	if user.IsActive {
		return "", ErrAccountAlreadyActive
	}

	token, err := crypto.GenerateToken(crypto.DefaultTokenBytes)
	if err != nil {
		return "", fmt.Errorf("lifecycle service: generate activation token: %w", err)
	}

	expiresAt := s.now().Add(s.activationTTL)
	err = s.store.UpdateFields(ctx, user.ID, map[string]any{
		ColumnActivationToken:                 token,
		ColumnActivationToken + "_expires_at": expiresAt,
	})
	if err != nil {
		return "", fmt.Errorf("lifecycle service: persist activation token: %w", err)
	}

	metrics.TokensIssued.WithLabelValues("activation").Inc()
	s.sendMail(ctx, user.Email, "Activate your account", s.activationBody(token))
	return token, nil
}

// ResendActivation re-issues the activation token for the given email. It
// reports success for unknown or already active accounts so the endpoint
// cannot be used to probe which emails are registered.
func (s *LifecycleService) ResendActivation(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		s.log.Debug("activation resend for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	if user.IsActive {
		s.log.Debug("activation resend for active account", zap.String("user_id", user.ID))
		return nil
	}

	_, err = s.IssueActivation(ctx, user)
	return err
}

// ConsumeActivation redeems an activation token, flipping the account to
// active exactly once. A second presentation of the same token, an expired
// token, or an unknown token all return ErrInvalidToken.
func (s *LifecycleService) ConsumeActivation(ctx context.Context, token string) (*models.User, error) {
	user, err := s.lookupTokenHolder(ctx, s.store.FindByActivationToken, token, activationTokenOf)
	if err != nil {
		metrics.TokensConsumed.WithLabelValues("activation", "rejected").Inc()
		return nil, err
	}

	guard := TokenGuard{Column: ColumnActivationToken, Token: token, Now: s.now()}
	rows, err := s.store.UpdateFieldsGuarded(ctx, user.ID, guard, map[string]any{
		"is_active":                           true,
		ColumnActivationToken:                 nil,
		ColumnActivationToken + "_expires_at": nil,
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		metrics.TokensConsumed.WithLabelValues("activation", "rejected").Inc()
		return nil, ErrInvalidToken
	}

	metrics.TokensConsumed.WithLabelValues("activation", "success").Inc()
	user.IsActive = true
	user.ActivationToken = nil
	user.ActivationTokenExpiresAt = nil
	return user, nil
}

// RequestReset issues a password reset token and emails the reset link. An
// unknown email is reported as success so the endpoint cannot be used to
// probe which emails are registered.
func (s *LifecycleService) RequestReset(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		s.log.Debug("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := crypto.GenerateToken(crypto.DefaultTokenBytes)
	if err != nil {
		return fmt.Errorf("lifecycle service: generate reset token: %w", err)
	}

	expiresAt := s.now().Add(s.resetTTL)
	err = s.store.UpdateFields(ctx, user.ID, map[string]any{
		ColumnResetToken:                 token,
		ColumnResetToken + "_expires_at": expiresAt,
	})
	if err != nil {
		return fmt.Errorf("lifecycle service: persist reset token: %w", err)
	}

	metrics.TokensIssued.WithLabelValues("reset").Inc()
	s.sendMail(ctx, user.Email, "Reset your password", s.resetBody(token))
	return nil
}

// ConsumeReset redeems a reset token and replaces the account password. Only
// the password and the reset fields change; a live refresh token stays as it
// is and is invalidated through logout or rotation, never as a side effect.
func (s *LifecycleService) ConsumeReset(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return errors.New("lifecycle service: new password is required")
	}

	user, err := s.lookupTokenHolder(ctx, s.store.FindByResetToken, token, resetTokenOf)
	if err != nil {
		metrics.TokensConsumed.WithLabelValues("reset", "rejected").Inc()
		return err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("lifecycle service: hash password: %w", err)
	}

	guard := TokenGuard{Column: ColumnResetToken, Token: token, Now: s.now()}
	rows, err := s.store.UpdateFieldsGuarded(ctx, user.ID, guard, map[string]any{
		"password":                       hashed,
		ColumnResetToken:                 nil,
		ColumnResetToken + "_expires_at": nil,
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		metrics.TokensConsumed.WithLabelValues("reset", "rejected").Inc()
		return ErrInvalidToken
	}

	metrics.TokensConsumed.WithLabelValues("reset", "success").Inc()
	return nil
}

// ChangePassword replaces the password of an authenticated account after
// verifying the current one. Activation and refresh token fields are left
// untouched.
func (s *LifecycleService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if newPassword == "" {
		return errors.New("lifecycle service: new password is required")
	}

	user, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(user.Password, currentPassword) {
		return ErrInvalidCredentials
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("lifecycle service: hash password: %w", err)
	}

	err = s.store.UpdateFields(ctx, user.ID, map[string]any{
		"password": hashed,
	})
	if err != nil {
		return fmt.Errorf("lifecycle service: persist password: %w", err)
	}
	return nil
}

type storedTokenFn func(user *models.User) *string

func activationTokenOf(u *models.User) *string { return u.ActivationToken }
func resetTokenOf(u *models.User) *string      { return u.ResetToken }

// lookupTokenHolder resolves the account holding the presented token and
// re-checks the stored value in constant time before the guarded update runs.
func (s *LifecycleService) lookupTokenHolder(ctx context.Context, find func(context.Context, string) (*models.User, error), token string, stored storedTokenFn) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	user, err := find(ctx, token)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	current := stored(user)
	if current == nil || !crypto.ConstantTimeEquals(*current, token) {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *LifecycleService) sendMail(ctx context.Context, to, subject, body string) {
	if s.mailer == nil {
		return
	}

	err := s.mailer.Send(ctx, mail.Message{
		To:      []string{to},
		Subject: subject,
		Body:    body,
	})
	if err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		s.log.Warn("failed to send lifecycle email", zap.String("subject", subject), zap.Error(err))
	}
}

func (s *LifecycleService) activationBody(token string) string {
	return fmt.Sprintf(
		"Welcome to Atelier.\r\n\r\nActivate your account within %s:\r\n%s/activate?token=%s\r\n",
		s.activationTTL, s.baseURL, token,
	)
}

func (s *LifecycleService) resetBody(token string) string {
	return fmt.Sprintf(
		"A password reset was requested for your account.\r\n\r\nThe link below is valid for %s:\r\n%s/reset-password?token=%s\r\n\r\nIf you did not request this, ignore this email.\r\n",
		s.resetTTL, s.baseURL, token,
	)
}
