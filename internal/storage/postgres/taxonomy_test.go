package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstepa/inkpost/internal/post"
	"github.com/nstepa/inkpost/internal/taxonomy"
	"github.com/nstepa/inkpost/models"
)

func TestTaxonomyPostgresStorage_CreateCategory(t *testing.T) {
	storage := NewTaxonomyPostgresStorage()

	t.Run("Slug is derived from the name", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "admin", "admin@example.com")
		ctx := userContext(userID)

		cat, err := storage.CreateCategory(ctx, taxonomy.CategoryInput{Name: "Web Development"})
		require.NoError(t, err)
		assert.Equal(t, "web-development", cat.Slug)
	})

	t.Run("Duplicate name is a conflict", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "admin", "admin@example.com")
		ctx := userContext(userID)

		_, err := storage.CreateCategory(ctx, taxonomy.CategoryInput{Name: "Tech"})
		require.NoError(t, err)

		_, err = storage.CreateCategory(ctx, taxonomy.CategoryInput{Name: "Tech"})
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("Same derived slug for a different name gets a suffix", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "admin", "admin@example.com")
		ctx := userContext(userID)

		first, err := storage.CreateCategory(ctx, taxonomy.CategoryInput{Name: "Go Lang"})
		require.NoError(t, err)
		second, err := storage.CreateCategory(ctx, taxonomy.CategoryInput{Name: "Go lang!"})
		require.NoError(t, err)

		assert.Equal(t, "go-lang", first.Slug)
		assert.Equal(t, "go-lang-1", second.Slug)
	})

	t.Run("Explicit slug conflicts are not suffixed", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "admin", "admin@example.com")
		ctx := userContext(userID)

		_, err := storage.CreateCategory(ctx, taxonomy.CategoryInput{Name: "First", Slug: "shared"})
		require.NoError(t, err)

		_, err = storage.CreateCategory(ctx, taxonomy.CategoryInput{Name: "Second", Slug: "shared"})
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("Requires auth and a name", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		_, err := storage.CreateCategory(context.Background(), taxonomy.CategoryInput{Name: "Nope"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unauthorized")

		userID := createTestUser(t, "admin", "admin@example.com")
		_, err = storage.CreateCategory(userContext(userID), taxonomy.CategoryInput{Name: "  "})
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestTaxonomyPostgresStorage_Tags(t *testing.T) {
	storage := NewTaxonomyPostgresStorage()

	t.Run("CreateTag rejects duplicates", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "admin", "admin@example.com")
		ctx := userContext(userID)

		tag, err := storage.CreateTag(ctx, "Cloud Native")
		require.NoError(t, err)
		assert.Equal(t, "cloud-native", tag.Slug)

		_, err = storage.CreateTag(ctx, "Cloud Native")
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("Lookups by slug", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "admin", "admin@example.com")
		ctx := userContext(userID)

		_, err := storage.CreateTag(ctx, "Go")
		require.NoError(t, err)
		_, err = storage.CreateCategory(ctx, taxonomy.CategoryInput{Name: "Tech"})
		require.NoError(t, err)

		tag, err := storage.GetTagBySlug("go")
		require.NoError(t, err)
		assert.Equal(t, "Go", tag.Name)

		cat, err := storage.GetCategoryBySlug("tech")
		require.NoError(t, err)
		assert.Equal(t, "Tech", cat.Name)

		_, err = storage.GetTagBySlug("missing")
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = storage.GetCategoryBySlug("missing")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestTaxonomyPostgresStorage_PostCounts(t *testing.T) {
	storage := NewTaxonomyPostgresStorage()
	posts := NewPostPostgresStorage()

	t.Run("Counts only publicly visible posts", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		cat, err := storage.CreateCategory(ctx, taxonomy.CategoryInput{Name: "Tech"})
		require.NoError(t, err)

		_, err = posts.Create(ctx, post.CreateInput{
			Title: "Live", Content: "b", Status: models.StatusPublished,
			CategoryID: &cat.ID, Tags: []string{"go"},
		})
		require.NoError(t, err)
		_, err = posts.Create(ctx, post.CreateInput{
			Title: "Draft", Content: "b", CategoryID: &cat.ID, Tags: []string{"go"},
		})
		require.NoError(t, err)

		catCount, err := storage.CategoryPostCount(cat.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, catCount)

		tag, err := storage.GetTagBySlug("go")
		require.NoError(t, err)
		tagCount, err := storage.TagPostCount(tag.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, tagCount)
	})
}
