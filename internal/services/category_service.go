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

// CategoryService manages the portfolio categories shown on the public site.
type CategoryService struct {
	db *gorm.DB
}

// CategoryInput describes category create/update payloads.
type CategoryInput struct {
	Name string
}

// NewCategoryService constructs a category service.
func NewCategoryService(db *gorm.DB) (*CategoryService, error) {
	if db == nil {
		return nil, errors.New("category service: db is required")
	}
	return &CategoryService{db: db}, nil
}

// List returns all categories ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	ctx = ensureContext(ctx)

	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("category service: list: %w", err)
	}
	return categories, nil
}

// GetBySlug loads a single category with its projects.
func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	ctx = ensureContext(ctx)

	var category models.Category
	err := s.db.WithContext(ctx).
		Preload("Projects", "published = ?", true).
		Take(&category, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("category service: load: %w", err)
	}
	return &category, nil
}

// Create registers a new category.
func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*models.Category, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("category name is required")
	}

	category := models.Category{
		Name: name,
		Slug: slugify(name),
	}

	if err := s.ensureSlugFree(ctx, category.Slug, ""); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, fmt.Errorf("category service: create: %w", err)
	}
	return &category, nil
}

// Update renames a category, refreshing its slug.
func (s *CategoryService) Update(ctx context.Context, id string, input CategoryInput) (*models.Category, error) {
	ctx = ensureContext(ctx)

	var category models.Category
	err := s.db.WithContext(ctx).Take(&category, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("category service: load: %w", err)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" || name == category.Name {
		return &category, nil
	}

	slug := slugify(name)
	if err := s.ensureSlugFree(ctx, slug, category.ID); err != nil {
		return nil, err
	}

	updates := map[string]any{"name": name, "slug": slug}
	if err := s.db.WithContext(ctx).Model(&category).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("category service: update: %w", err)
	}

	category.Name = name
	category.Slug = slug
	return &category, nil
}

// Delete removes a category. Its projects survive, uncategorised.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Take(&category, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("category service: load: %w", err)
		}

		if err := tx.Model(&models.Project{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("category service: detach projects: %w", err)
		}

		if err := tx.Delete(&category).Error; err != nil {
			return fmt.Errorf("category service: delete: %w", err)
		}
		return nil
	})
}

func (s *CategoryService) ensureSlugFree(ctx context.Context, slug, excludeID string) error {
	query := s.db.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("category service: check slug: %w", err)
	}
	if count > 0 {
		return apperrors.ErrConflict
	}
	return nil
}
