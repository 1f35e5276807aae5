package models

// Category organises portfolio projects (e.g. residential, commercial).
type Category struct {
	BaseModel

	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`

	Projects []Project `gorm:"foreignKey:CategoryID" json:"projects,omitempty"`
}
