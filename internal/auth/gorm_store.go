package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/atelierhq/backend/internal/models"
)

// GormCredentialStore implements CredentialStore on top of gorm.
type GormCredentialStore struct {
	db *gorm.DB
}

// NewGormCredentialStore wraps the provided database handle.
func NewGormCredentialStore(db *gorm.DB) (*GormCredentialStore, error) {
	if db == nil {
		return nil, errors.New("credential store: db is required")
	}
	return &GormCredentialStore{db: db}, nil
}

func (s *GormCredentialStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		Take(&user).Error
	return s.wrapLookup(&user, err, "find by email")
}

func (s *GormCredentialStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "id = ?", id).Error
	return s.wrapLookup(&user, err, "find by id")
}

func (s *GormCredentialStore) FindByActivationToken(ctx context.Context, token string) (*models.User, error) {
	return s.findByToken(ctx, ColumnActivationToken, token)
}

func (s *GormCredentialStore) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	return s.findByToken(ctx, ColumnResetToken, token)
}

func (s *GormCredentialStore) FindByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return s.findByToken(ctx, ColumnRefreshToken, token)
}

func (s *GormCredentialStore) findByToken(ctx context.Context, column, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where(column+" = ?", token).
		Take(&user).Error
	return s.wrapLookup(&user, err, "find by "+column)
}

func (s *GormCredentialStore) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(fields).Error
	if err != nil {
		return fmt.Errorf("credential store: update fields: %w", err)
	}
	return nil
}

func (s *GormCredentialStore) UpdateFieldsGuarded(ctx context.Context, id string, guard TokenGuard, fields map[string]any) (int64, error) {
	if guard.Column == "" || guard.Token == "" {
		return 0, errors.New("credential store: token guard requires column and token")
	}

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND "+guard.Column+" = ? AND "+guard.Column+"_expires_at > ?", id, guard.Token, guard.Now).
		Updates(fields)
	if result.Error != nil {
		return 0, fmt.Errorf("credential store: guarded update: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormCredentialStore) wrapLookup(user *models.User, err error, op string) (*models.User, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("credential store: %s: %w", op, err)
	}
	return user, nil
}
