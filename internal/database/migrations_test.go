package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/atelierhq/backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	})
	require.NoError(t, err)
	return db
}

func TestAutoMigrateAndSeed(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrateAndSeed(db))

	var roles []models.Role
	require.NoError(t, db.Order("id").Find(&roles).Error)
	require.Len(t, roles, 2)
	require.Equal(t, RoleAdmin, roles[0].ID)
	require.Equal(t, RoleEditor, roles[1].ID)
	require.True(t, roles[0].IsSystem)

	// Seeding again must not duplicate or overwrite.
	require.NoError(t, AutoMigrateAndSeed(db))

	var count int64
	require.NoError(t, db.Model(&models.Role{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestEnsureRootUser(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrateAndSeed(db))

	created, err := EnsureRootUser(db, "admin@atelier.example.com", "hashed-password")
	require.NoError(t, err)
	require.True(t, created)

	var user models.User
	require.NoError(t, db.Take(&user, "email = ?", "admin@atelier.example.com").Error)
	require.True(t, user.IsActive)
	require.NotNil(t, user.RoleID)
	require.Equal(t, RoleAdmin, *user.RoleID)

	// Second call is a no-op, regardless of email casing.
	created, err = EnsureRootUser(db, "Admin@Atelier.Example.Com", "other-hash")
	require.NoError(t, err)
	require.False(t, created)
}

func TestEnsureRootUserValidation(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	_, err := EnsureRootUser(db, "", "hash")
	require.Error(t, err)

	_, err = EnsureRootUser(db, "admin@atelier.example.com", "")
	require.Error(t, err)
}
