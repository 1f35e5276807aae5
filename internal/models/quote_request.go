package models

import "gorm.io/datatypes"

// Quote request statuses.
const (
	QuoteStatusPending  = "pending"
	QuoteStatusReviewed = "reviewed"
	QuoteStatusClosed   = "closed"
)

// QuoteRequest captures an inbound project enquiry from the public site.
// Details holds the free-form answers from the quote form (budget range,
// timeline, referral source) without requiring a schema migration per field.
type QuoteRequest struct {
	BaseModel

	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"not null;index" json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`

	Details datatypes.JSON `json:"details"`

	AttachmentKey string `json:"attachment_key"`

	Status string `gorm:"default:pending;index" json:"status"`
}
