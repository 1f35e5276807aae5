package models

// Project is a portfolio entry shown on the public site.
type Project struct {
	BaseModel

	Title       string `gorm:"not null" json:"title"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `json:"description"`

	// CoverImageKey references an object in the uploads bucket.
	CoverImageKey string `json:"cover_image_key"`

	CategoryID *string   `gorm:"type:uuid;index" json:"category_id"`
	Category   *Category `json:"category,omitempty"`

	Published bool `gorm:"default:false;index" json:"published"`
}
