package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atelierhq/backend/internal/auth"
	"github.com/atelierhq/backend/internal/models"
	"github.com/atelierhq/backend/pkg/crypto"
	apperrors "github.com/atelierhq/backend/pkg/errors"
	"github.com/atelierhq/backend/pkg/logger"
)

const minPasswordLength = 8

// UserService manages studio accounts from the admin surface.
type UserService struct {
	db        *gorm.DB
	hasher    *crypto.Hasher
	lifecycle *auth.LifecycleService
	log       *zap.Logger
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	RoleID    *string
}

// UpdateUserInput describes partial account updates. Nil pointers leave the
// current value untouched.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	RoleID    *string
}

// NewUserService constructs a user service. The lifecycle service is
// optional; without it new accounts get no activation email.
func NewUserService(db *gorm.DB, hasher *crypto.Hasher, lifecycle *auth.LifecycleService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if hasher == nil {
		return nil, errors.New("user service: hasher is required")
	}
	return &UserService{
		db:        db,
		hasher:    hasher,
		lifecycle: lifecycle,
		log:       logger.WithModule("services.user"),
	}, nil
}

// Create registers a new inactive account and kicks off activation.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := strings.TrimSpace(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewBadRequest("a valid email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewBadRequest("password must be at least 8 characters")
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = LOWER(?)", email).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("user service: check email: %w", err)
	}
	if count > 0 {
		return nil, apperrors.ErrConflict
	}

	if err := s.checkRole(ctx, input.RoleID); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := models.User{
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		RoleID:    input.RoleID,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("user service: create: %w", err)
	}

	if s.lifecycle != nil {
		if _, err := s.lifecycle.IssueActivation(ctx, &user); err != nil {
			// The account exists; activation can be re-issued later.
			s.log.Warn("failed to issue activation", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	return &user, nil
}

// List returns all accounts with their roles.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("user service: list: %w", err)
	}
	return users, nil
}

// Get loads a single account with its role.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").Take(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load: %w", err)
	}
	return &user, nil
}

// Update applies partial changes to an account.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if input.RoleID != nil {
		if err := s.checkRole(ctx, input.RoleID); err != nil {
			return nil, err
		}
		updates["role_id"] = input.RoleID
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("user service: update: %w", err)
		}
		return s.Get(ctx, id)
	}
	return user, nil
}

// Delete removes an account. The caller guards against self-deletion.
func (s *UserService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("user service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *UserService) checkRole(ctx context.Context, roleID *string) error {
	if roleID == nil || *roleID == "" {
		return nil
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Role{}).
		Where("id = ?", *roleID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("user service: check role: %w", err)
	}
	if count == 0 {
		return apperrors.NewBadRequest("unknown role")
	}
	return nil
}
