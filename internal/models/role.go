package models

// Role groups users by capability (admin manages content, editor curates it).
type Role struct {
	BaseModel

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
	IsSystem    bool   `gorm:"default:false" json:"is_system"`

	Users []User `gorm:"foreignKey:RoleID" json:"users,omitempty"`
}
