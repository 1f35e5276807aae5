package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/atelierhq/backend/internal/models"
	apperrors "github.com/atelierhq/backend/pkg/errors"
	"github.com/atelierhq/backend/pkg/logger"
	pkgmail "github.com/atelierhq/backend/pkg/mail"
	"github.com/atelierhq/backend/pkg/metrics"
)

// QuoteService handles inbound project enquiries from the public site.
type QuoteService struct {
	db     *gorm.DB
	mailer pkgmail.Mailer
	// notify receives a copy of each new enquiry. Empty disables notification.
	notify string
	log    *zap.Logger
}

// QuoteInput is the public quote form payload.
type QuoteInput struct {
	Name          string
	Email         string
	Phone         string
	Message       string
	Details       map[string]any
	AttachmentKey string
}

// ListQuotesOptions filters the admin quote listing.
type ListQuotesOptions struct {
	Status   string
	Page     int
	PageSize int
}

// QuotePage is one page of quote requests.
type QuotePage struct {
	Quotes   []models.QuoteRequest `json:"quotes"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

const defaultQuotePageSize = 20

// NewQuoteService constructs a quote service. The mailer is optional.
func NewQuoteService(db *gorm.DB, mailer pkgmail.Mailer, notify string) (*QuoteService, error) {
	if db == nil {
		return nil, errors.New("quote service: db is required")
	}
	return &QuoteService{
		db:     db,
		mailer: mailer,
		notify: strings.TrimSpace(notify),
		log:    logger.WithModule("services.quote"),
	}, nil
}

// Submit records a new enquiry and notifies the studio. Notification failure
// never fails the submission.
func (s *QuoteService) Submit(ctx context.Context, input QuoteInput) (*models.QuoteRequest, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewBadRequest("a valid email is required")
	}

	quote := models.QuoteRequest{
		Name:          name,
		Email:         email,
		Phone:         strings.TrimSpace(input.Phone),
		Message:       strings.TrimSpace(input.Message),
		AttachmentKey: input.AttachmentKey,
		Status:        models.QuoteStatusPending,
	}

	if input.Details != nil {
		data, err := json.Marshal(input.Details)
		if err != nil {
			return nil, apperrors.NewBadRequest("invalid details payload")
		}
		quote.Details = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(&quote).Error; err != nil {
		return nil, fmt.Errorf("quote service: create: %w", err)
	}

	metrics.QuoteRequests.Inc()
	s.notifyStudio(ctx, quote)
	return &quote, nil
}

// List returns a page of quote requests, newest first.
func (s *QuoteService) List(ctx context.Context, opts ListQuotesOptions) (*QuotePage, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.PageSize
	if size < 1 || size > 100 {
		size = defaultQuotePageSize
	}

	query := s.db.WithContext(ctx).Model(&models.QuoteRequest{})
	if status := strings.TrimSpace(opts.Status); status != "" {
		if !validQuoteStatus(status) {
			return nil, apperrors.NewBadRequest("unknown status filter")
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("quote service: count: %w", err)
	}

	var quotes []models.QuoteRequest
	err := query.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&quotes).Error
	if err != nil {
		return nil, fmt.Errorf("quote service: list: %w", err)
	}

	return &QuotePage{
		Quotes:   quotes,
		Total:    total,
		Page:     page,
		PageSize: size,
	}, nil
}

// Get loads a single quote request.
func (s *QuoteService) Get(ctx context.Context, id string) (*models.QuoteRequest, error) {
	ctx = ensureContext(ctx)

	var quote models.QuoteRequest
	err := s.db.WithContext(ctx).Take(&quote, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("quote service: load: %w", err)
	}
	return &quote, nil
}

// UpdateStatus moves a quote request through its review workflow.
func (s *QuoteService) UpdateStatus(ctx context.Context, id, status string) (*models.QuoteRequest, error) {
	ctx = ensureContext(ctx)

	if !validQuoteStatus(status) {
		return nil, apperrors.NewBadRequest("unknown status")
	}

	quote, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if quote.Status != status {
		if err := s.db.WithContext(ctx).Model(quote).Update("status", status).Error; err != nil {
			return nil, fmt.Errorf("quote service: update status: %w", err)
		}
		quote.Status = status
	}
	return quote, nil
}

func (s *QuoteService) notifyStudio(ctx context.Context, quote models.QuoteRequest) {
	if s.mailer == nil || s.notify == "" {
		return
	}

	body := fmt.Sprintf(
		"New quote request from %s <%s>.\r\n\r\n%s\r\n",
		quote.Name, quote.Email, quote.Message,
	)
	err := s.mailer.Send(ctx, pkgmail.Message{
		To:      []string{s.notify},
		Subject: "New quote request: " + quote.Name,
		Body:    body,
	})
	if err != nil && !errors.Is(err, pkgmail.ErrSMTPDisabled) {
		s.log.Warn("failed to send quote notification", zap.String("quote_id", quote.ID), zap.Error(err))
	}
}

func validQuoteStatus(status string) bool {
	switch status {
	case models.QuoteStatusPending, models.QuoteStatusReviewed, models.QuoteStatusClosed:
		return true
	}
	return false
}
