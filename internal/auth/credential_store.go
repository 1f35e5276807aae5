package auth

import (
	"context"
	"time"

	"github.com/atelierhq/backend/internal/models"
)

// Token column names used with TokenGuard. The matching expiry column is
// always <column>_expires_at.
const (
	ColumnActivationToken = "activation_token"
	ColumnResetToken      = "reset_token"
	ColumnRefreshToken    = "refresh_token"
)

// TokenGuard scopes a conditional update to the row still holding the given
// single-use token with an unexpired deadline. The guarded update is the
// primitive that makes token consumption race-safe: of two concurrent
// consumers, exactly one observes an affected row.
type TokenGuard struct {
	Column string
	Token  string
	Now    time.Time
}

// CredentialStore is the persistence boundary for account credential records.
// Implementations must not cache rows between calls; every read reflects the
// stored state at call time.
type CredentialStore interface {
	// FindByEmail looks up an account by email, compared case-insensitively.
	// Returns ErrUserNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByID looks up an account by its identifier.
	FindByID(ctx context.Context, id string) (*models.User, error)
	// FindByActivationToken looks up the account holding the exact activation token.
	FindByActivationToken(ctx context.Context, token string) (*models.User, error)
	// FindByResetToken looks up the account holding the exact reset token.
	FindByResetToken(ctx context.Context, token string) (*models.User, error)
	// FindByRefreshToken looks up the account holding the exact refresh token.
	FindByRefreshToken(ctx context.Context, token string) (*models.User, error)
	// UpdateFields applies a partial update to the account row.
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	// UpdateFieldsGuarded applies a partial update only while the guard token
	// is still present and unexpired, returning the number of affected rows.
	UpdateFieldsGuarded(ctx context.Context, id string, guard TokenGuard, fields map[string]any) (int64, error)
}
