package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelierhq/backend/internal/services"
	"github.com/atelierhq/backend/pkg/response"
)

// ProjectHandler serves the portfolio, public and admin sides.
type ProjectHandler struct {
	projects *services.ProjectService
}

func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// GET /api/projects
// Public listing: published entries only.
func (h *ProjectHandler) ListPublic(c *gin.Context) {
	h.list(c, true)
}

// GET /api/admin/projects
func (h *ProjectHandler) ListAdmin(c *gin.Context) {
	h.list(c, false)
}

func (h *ProjectHandler) list(c *gin.Context, publishedOnly bool) {
	page, err := h.projects.List(requestContext(c), services.ListProjectsOptions{
		PublishedOnly: publishedOnly,
		CategorySlug:  c.Query("category"),
		Page:          parseIntQuery(c, "page", 1),
		PageSize:      parseIntQuery(c, "page_size", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, page.Projects, &response.Meta{
		Page:       page.Page,
		PerPage:    page.PageSize,
		Total:      int(page.Total),
		TotalPages: totalPages(page.Total, page.PageSize),
	})
}

// GET /api/projects/:slug
func (h *ProjectHandler) GetPublic(c *gin.Context) {
	project, err := h.projects.GetBySlug(requestContext(c), c.Param("slug"), true)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// GET /api/admin/projects/:slug
func (h *ProjectHandler) GetAdmin(c *gin.Context) {
	project, err := h.projects.GetBySlug(requestContext(c), c.Param("slug"), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

type projectRequest struct {
	Title         string  `json:"title" validate:"required,max=200"`
	Description   *string `json:"description"`
	CategoryID    *string `json:"category_id"`
	CoverImageKey *string `json:"cover_image_key"`
	Published     *bool   `json:"published"`
}

func (r projectRequest) input() services.ProjectInput {
	return services.ProjectInput{
		Title:         r.Title,
		Description:   r.Description,
		CategoryID:    r.CategoryID,
		CoverImageKey: r.CoverImageKey,
		Published:     r.Published,
	}
}

// POST /api/admin/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if !bindAndValidate(c, &req) {
		return
	}

	project, err := h.projects.Create(requestContext(c), req.input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, project)
}

type projectUpdateRequest struct {
	Title         string  `json:"title" validate:"max=200"`
	Description   *string `json:"description"`
	CategoryID    *string `json:"category_id"`
	CoverImageKey *string `json:"cover_image_key"`
	Published     *bool   `json:"published"`
}

// PUT /api/admin/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var req projectUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	project, err := h.projects.Update(requestContext(c), c.Param("id"), services.ProjectInput{
		Title:         req.Title,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		CoverImageKey: req.CoverImageKey,
		Published:     req.Published,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// DELETE /api/admin/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		pages++
	}
	return pages
}
