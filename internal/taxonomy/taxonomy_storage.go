package taxonomy

import (
	"context"

	"github.com/nstepa/inkpost/models"
)

// CategoryInput describes a new category. Slug is derived from the name when
// empty.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	Icon        string
	Color       string
}

type Storage interface {
	CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error)
	ListCategories() ([]*models.Category, error)
	GetCategoryBySlug(slug string) (*models.Category, error)
	CategoryPostCount(id uint) (int, error)

	// CreateTag makes a tag from its name, deriving the slug.
	CreateTag(ctx context.Context, name string) (*models.Tag, error)
	ListTags() ([]*models.Tag, error)
	GetTagBySlug(slug string) (*models.Tag, error)
	TagPostCount(id uint) (int, error)
}
