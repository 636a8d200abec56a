package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/nstepa/inkpost/internal/auth"
	"github.com/nstepa/inkpost/internal/slug"
	"github.com/nstepa/inkpost/internal/taxonomy"
	"github.com/nstepa/inkpost/models"
)

type TaxonomyPostgresStorage struct{}

func NewTaxonomyPostgresStorage() *TaxonomyPostgresStorage {
	return &TaxonomyPostgresStorage{}
}

func (s *TaxonomyPostgresStorage) CreateCategory(ctx context.Context, in taxonomy.CategoryInput) (*models.Category, error) {
	if _, err := auth.GetUserIDFromContext(ctx); err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", models.ErrValidation)
	}

	explicit := in.Slug != ""
	base := slug.Make(in.Slug)
	if !explicit {
		base = slug.Make(name)
		if base == "" {
			base = "category"
		}
	} else if base == "" {
		return nil, fmt.Errorf("%w: slug cannot be empty", models.ErrValidation)
	}

	cat := &models.Category{
		Name:        name,
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
	}

	for attempt := 0; attempt < slugCreateAttempts; attempt++ {
		if explicit {
			cat.Slug = base
		} else {
			free, err := uniqueSlug(DB, "categories", base, 0)
			if err != nil {
				return nil, fmt.Errorf("could not derive slug: %w", err)
			}
			cat.Slug = free
		}

		err := DB.Create(cat).Error
		if err == nil {
			return cat, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("could not create category: %w", err)
		}

		// The name index and the slug index share an error shape; a name
		// clash is never recoverable by re-suffixing.
		var existing models.Category
		if nameErr := DB.Where("name = ?", name).First(&existing).Error; nameErr == nil {
			return nil, fmt.Errorf("%w: category %q already exists", models.ErrConflict, name)
		}
		if explicit {
			return nil, fmt.Errorf("%w: slug %q is already taken", models.ErrConflict, base)
		}
		cat.ID = 0
	}

	return nil, fmt.Errorf("%w: could not allocate a unique slug for %q", models.ErrConflict, base)
}

func (s *TaxonomyPostgresStorage) ListCategories() ([]*models.Category, error) {
	var rows []models.Category
	if err := DB.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("could not list categories: %w", err)
	}

	cats := make([]*models.Category, 0, len(rows))
	for i := range rows {
		cats = append(cats, &rows[i])
	}
	return cats, nil
}

func (s *TaxonomyPostgresStorage) GetCategoryBySlug(categorySlug string) (*models.Category, error) {
	var cat models.Category
	if err := DB.Where("slug = ?", categorySlug).First(&cat).Error; err != nil {
		return nil, fmt.Errorf("%w: category %q", models.ErrNotFound, categorySlug)
	}
	return &cat, nil
}

// CategoryPostCount counts the category's publicly visible posts.
func (s *TaxonomyPostgresStorage) CategoryPostCount(id uint) (int, error) {
	var count int
	err := visibleNow(DB.Model(&models.Post{})).
		Where("posts.category_id = ?", id).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("could not count posts: %w", err)
	}
	return count, nil
}

func (s *TaxonomyPostgresStorage) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	if _, err := auth.GetUserIDFromContext(ctx); err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tag name is required", models.ErrValidation)
	}

	var existing models.Tag
	if err := DB.Where("name = ?", name).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: tag %q already exists", models.ErrConflict, name)
	}

	return getOrCreateTag(DB, name)
}

func (s *TaxonomyPostgresStorage) ListTags() ([]*models.Tag, error) {
	var rows []models.Tag
	if err := DB.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("could not list tags: %w", err)
	}

	tags := make([]*models.Tag, 0, len(rows))
	for i := range rows {
		tags = append(tags, &rows[i])
	}
	return tags, nil
}

func (s *TaxonomyPostgresStorage) GetTagBySlug(tagSlug string) (*models.Tag, error) {
	var tag models.Tag
	if err := DB.Where("slug = ?", tagSlug).First(&tag).Error; err != nil {
		return nil, fmt.Errorf("%w: tag %q", models.ErrNotFound, tagSlug)
	}
	return &tag, nil
}

// TagPostCount counts the tag's publicly visible posts.
func (s *TaxonomyPostgresStorage) TagPostCount(id uint) (int, error) {
	var count int
	err := visibleNow(DB.Model(&models.Post{})).
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag_id = ?", id).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("could not count posts: %w", err)
	}
	return count, nil
}
