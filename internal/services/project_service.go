package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/atelierhq/backend/internal/models"
	apperrors "github.com/atelierhq/backend/pkg/errors"
)

// ProjectService manages portfolio entries.
type ProjectService struct {
	db *gorm.DB
}

// ProjectInput describes project create/update payloads. Nil pointers leave
// the current value untouched on update.
type ProjectInput struct {
	Title         string
	Description   *string
	CategoryID    *string
	CoverImageKey *string
	Published     *bool
}

// ListProjectsOptions filters project listings.
type ListProjectsOptions struct {
	PublishedOnly bool
	CategorySlug  string
	Page          int
	PageSize      int
}

// ProjectPage is one page of a project listing.
type ProjectPage struct {
	Projects []models.Project `json:"projects"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

const defaultProjectPageSize = 20

// NewProjectService constructs a project service.
func NewProjectService(db *gorm.DB) (*ProjectService, error) {
	if db == nil {
		return nil, errors.New("project service: db is required")
	}
	return &ProjectService{db: db}, nil
}

// List returns a page of projects, newest first.
func (s *ProjectService) List(ctx context.Context, opts ListProjectsOptions) (*ProjectPage, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.PageSize
	if size < 1 || size > 100 {
		size = defaultProjectPageSize
	}

	query := s.db.WithContext(ctx).Model(&models.Project{})
	if opts.PublishedOnly {
		query = query.Where("published = ?", true)
	}
	if slug := strings.TrimSpace(opts.CategorySlug); slug != "" {
		query = query.Joins("JOIN categories ON categories.id = projects.category_id").
			Where("categories.slug = ?", slug)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("project service: count: %w", err)
	}

	var projects []models.Project
	err := query.Preload("Category").
		Order("projects.created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("project service: list: %w", err)
	}

	return &ProjectPage{
		Projects: projects,
		Total:    total,
		Page:     page,
		PageSize: size,
	}, nil
}

// GetBySlug loads a single project. When publishedOnly is set, drafts read as
// not found.
func (s *ProjectService) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Project, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Preload("Category")
	if publishedOnly {
		query = query.Where("published = ?", true)
	}

	var project models.Project
	err := query.Take(&project, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project service: load: %w", err)
	}
	return &project, nil
}

// Create registers a new project as an unpublished draft unless told otherwise.
func (s *ProjectService) Create(ctx context.Context, input ProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("project title is required")
	}

	project := models.Project{
		Title:      title,
		Slug:       slugify(title),
		CategoryID: input.CategoryID,
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.CoverImageKey != nil {
		project.CoverImageKey = *input.CoverImageKey
	}
	if input.Published != nil {
		project.Published = *input.Published
	}

	if err := s.ensureSlugFree(ctx, project.Slug, ""); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, fmt.Errorf("project service: create: %w", err)
	}
	return &project, nil
}

// Update modifies a project. Retitling refreshes the slug.
func (s *ProjectService) Update(ctx context.Context, id string, input ProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	var project models.Project
	err := s.db.WithContext(ctx).Take(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project service: load: %w", err)
	}

	updates := map[string]any{}
	if title := strings.TrimSpace(input.Title); title != "" && title != project.Title {
		slug := slugify(title)
		if err := s.ensureSlugFree(ctx, slug, project.ID); err != nil {
			return nil, err
		}
		updates["title"] = title
		updates["slug"] = slug
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.CategoryID != nil {
		if err := s.checkCategory(ctx, input.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = input.CategoryID
	}
	if input.CoverImageKey != nil {
		updates["cover_image_key"] = *input.CoverImageKey
	}
	if input.Published != nil {
		updates["published"] = *input.Published
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&project).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("project service: update: %w", err)
		}
		if err := s.db.WithContext(ctx).Preload("Category").Take(&project, "id = ?", id).Error; err != nil {
			return nil, fmt.Errorf("project service: reload: %w", err)
		}
	}

	return &project, nil
}

// Delete removes a project.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("project service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *ProjectService) ensureSlugFree(ctx context.Context, slug, excludeID string) error {
	query := s.db.WithContext(ctx).Model(&models.Project{}).Where("slug = ?", slug)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("project service: check slug: %w", err)
	}
	if count > 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func (s *ProjectService) checkCategory(ctx context.Context, categoryID *string) error {
	if categoryID == nil || *categoryID == "" {
		return nil
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ?", *categoryID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("project service: check category: %w", err)
	}
	if count == 0 {
		return apperrors.NewBadRequest("unknown category")
	}
	return nil
}
