package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelierhq/backend/internal/services"
	"github.com/atelierhq/backend/pkg/response"
)

// QuoteHandler serves the public quote form and the admin review queue.
type QuoteHandler struct {
	quotes *services.QuoteService
}

func NewQuoteHandler(quotes *services.QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

type quoteRequest struct {
	Name          string         `json:"name" validate:"required,max=200"`
	Email         string         `json:"email" validate:"required,email"`
	Phone         string         `json:"phone" validate:"max=40"`
	Message       string         `json:"message" validate:"max=5000"`
	Details       map[string]any `json:"details"`
	AttachmentKey string         `json:"attachment_key" validate:"max=100"`
}

// POST /api/quotes
func (h *QuoteHandler) Submit(c *gin.Context) {
	var req quoteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	quote, err := h.quotes.Submit(requestContext(c), services.QuoteInput{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Message:       req.Message,
		Details:       req.Details,
		AttachmentKey: req.AttachmentKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"id": quote.ID, "status": quote.Status})
}

// GET /api/admin/quotes
func (h *QuoteHandler) List(c *gin.Context) {
	page, err := h.quotes.List(requestContext(c), services.ListQuotesOptions{
		Status:   c.Query("status"),
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, page.Quotes, &response.Meta{
		Page:       page.Page,
		PerPage:    page.PageSize,
		Total:      int(page.Total),
		TotalPages: totalPages(page.Total, page.PageSize),
	})
}

// GET /api/admin/quotes/:id
func (h *QuoteHandler) Get(c *gin.Context) {
	quote, err := h.quotes.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, quote)
}

type quoteStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending reviewed closed"`
}

// PUT /api/admin/quotes/:id/status
func (h *QuoteHandler) UpdateStatus(c *gin.Context) {
	var req quoteStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	quote, err := h.quotes.UpdateStatus(requestContext(c), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, quote)
}
