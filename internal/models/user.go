package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the persisted credential record for a studio account. Token columns
// hold at most one live value per class; issuing overwrites, consuming clears.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Accounts start inactive and flip to active exactly once via activation.
	IsActive bool `gorm:"default:false" json:"is_active"`

	RoleID *string `gorm:"type:uuid" json:"role_id"`
	Role   *Role   `json:"role,omitempty"`

	ActivationToken          *string    `gorm:"uniqueIndex" json:"-"`
	ActivationTokenExpiresAt *time.Time `json:"-"`

	ResetToken          *string    `gorm:"uniqueIndex" json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	RefreshToken          *string    `gorm:"uniqueIndex" json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
