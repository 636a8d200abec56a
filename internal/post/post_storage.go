package post

import (
	"context"

	"github.com/nstepa/inkpost/models"
)

// CreateInput carries everything a new post may specify. Slug is optional:
// when empty it is derived from the title and disambiguated against existing
// posts. Tags are plain names, created on first use.
type CreateInput struct {
	Title           string
	Slug            string
	Content         string
	Excerpt         string
	FeaturedImage   string
	MetaDescription string
	Status          string
	CategoryID      *uint
	Tags            []string
	AllowComments   *bool
}

// UpdateInput uses pointers so absent fields are left untouched. A supplied
// slug replaces the current one; a nil slug never regenerates it.
type UpdateInput struct {
	Title           *string
	Slug            *string
	Content         *string
	Excerpt         *string
	FeaturedImage   *string
	MetaDescription *string
	Status          *string
	CategoryID      *uint
	ClearCategory   bool
	Tags            *[]string
	AllowComments   *bool
}

type PostStorage interface {
	Create(ctx context.Context, in CreateInput) (*models.Post, error)
	Update(ctx context.Context, id uint, in UpdateInput) (*models.Post, error)
	Delete(ctx context.Context, id uint) error

	// GetBySlug applies visibility rules: drafts and future-dated posts are
	// not found for anyone but their author.
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)

	ListPublished(limit, offset int) ([]*models.Post, error)
	ListByAuthor(username string, limit, offset int) ([]*models.Post, error)
	ListByCategory(categorySlug string, limit, offset int) ([]*models.Post, error)
	ListByTag(tagSlug string, limit, offset int) ([]*models.Post, error)
	ListDrafts(ctx context.Context, limit, offset int) ([]*models.Post, error)
	Search(query string, limit, offset int) ([]*models.Post, error)
	Featured(limit int) ([]*models.Post, error)

	// Related lists other live posts sharing the post's category or tags.
	// The base post follows GetBySlug's visibility rules.
	Related(ctx context.Context, id uint, limit int) ([]*models.Post, error)

	Publish(ctx context.Context, id uint) (*models.Post, error)
	Unpublish(ctx context.Context, id uint) (*models.Post, error)

	// RecordView bumps the view counter unless the viewer is the author.
	RecordView(ctx context.Context, id uint) error
}
