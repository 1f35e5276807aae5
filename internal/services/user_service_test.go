package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atelierhq/backend/internal/auth"
	"github.com/atelierhq/backend/internal/database"
	"github.com/atelierhq/backend/pkg/crypto"
	apperrors "github.com/atelierhq/backend/pkg/errors"
)

func setupUserService(t *testing.T) (*UserService, *captureMailer) {
	t.Helper()

	db := openTestDB(t)
	hasher := crypto.NewHasher(4)

	store, err := auth.NewGormCredentialStore(db)
	require.NoError(t, err)

	mailer := &captureMailer{}
	lifecycle, err := auth.NewLifecycleService(store, hasher, mailer, auth.LifecycleConfig{
		BaseURL: "https://atelier.example.com",
	})
	require.NoError(t, err)

	svc, err := NewUserService(db, hasher, lifecycle)
	require.NoError(t, err)
	return svc, mailer
}

func TestUserCreateStartsInactiveWithActivation(t *testing.T) {
	svc, mailer := setupUserService(t)
	ctx := context.Background()

	roleID := database.RoleEditor
	user, err := svc.Create(ctx, CreateUserInput{
		Email:     "new@atelier.example.com",
		Password:  "secret-pass",
		FirstName: "Noa",
		RoleID:    &roleID,
	})
	require.NoError(t, err)
	require.False(t, user.IsActive)

	// Activation email went out for the fresh account.
	require.Len(t, mailer.messages, 1)
	require.Equal(t, []string{"new@atelier.example.com"}, mailer.messages[0].To)

	loaded, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Role)
	require.Equal(t, "Editor", loaded.Role.Name)
}

func TestUserCreateValidation(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Email: "bad", Password: "secret-pass"})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateUserInput{Email: "ok@example.com", Password: "short"})
	require.Error(t, err)

	unknown := "no-such-role"
	_, err = svc.Create(ctx, CreateUserInput{Email: "ok@example.com", Password: "secret-pass", RoleID: &unknown})
	require.Error(t, err)
}

func TestUserCreateRejectsDuplicateEmail(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Email: "dup@example.com", Password: "secret-pass"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateUserInput{Email: "Dup@Example.com", Password: "secret-pass"})
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUserUpdateAndDelete(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{Email: "member@example.com", Password: "secret-pass"})
	require.NoError(t, err)

	roleID := database.RoleAdmin
	updated, err := svc.Update(ctx, user.ID, UpdateUserInput{
		FirstName: strPtr("Ada"),
		RoleID:    &roleID,
	})
	require.NoError(t, err)
	require.Equal(t, "Ada", updated.FirstName)
	require.Equal(t, database.RoleAdmin, *updated.RoleID)

	require.NoError(t, svc.Delete(ctx, user.ID))
	require.ErrorIs(t, svc.Delete(ctx, user.ID), apperrors.ErrNotFound)

	_, err = svc.Get(ctx, user.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
