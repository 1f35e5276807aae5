package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/atelierhq/backend/internal/models"
)

// Role identifiers seeded at start-up.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Category{},
		&models.Project{},
		&models.QuoteRequest{},
	)
}

// SeedData populates the built-in roles. Existing rows are left untouched.
func SeedData(db *gorm.DB) error {
	roles := []models.Role{
		{
			BaseModel:   models.BaseModel{ID: RoleAdmin},
			Name:        "Administrator",
			Description: "Full access to content and accounts",
			IsSystem:    true,
		},
		{
			BaseModel:   models.BaseModel{ID: RoleEditor},
			Name:        "Editor",
			Description: "Manages portfolio content and quote requests",
			IsSystem:    true,
		},
	}

	for _, role := range roles {
		err := db.Where(models.Role{BaseModel: models.BaseModel{ID: role.ID}}).
			Attrs(role).
			FirstOrCreate(&models.Role{}).Error
		if err != nil {
			return err
		}
	}

	return nil
}

// EnsureRootUser creates the initial administrator account when it does not
// exist yet. The password must already be hashed. It reports whether a row
// was created.
func EnsureRootUser(db *gorm.DB, email, hashedPassword string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || hashedPassword == "" {
		return false, errors.New("root user requires email and password hash")
	}

	var count int64
	err := db.Model(&models.User{}).
		Where("LOWER(email) = LOWER(?)", email).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	roleID := RoleAdmin
	user := models.User{
		Email:    email,
		Password: hashedPassword,
		IsActive: true,
		RoleID:   &roleID,
	}
	if err := db.Create(&user).Error; err != nil {
		return false, err
	}
	return true, nil
}
