package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstepa/inkpost/internal/auth"
	"github.com/nstepa/inkpost/internal/post"
	"github.com/nstepa/inkpost/models"
)

func userContext(userID uint) context.Context {
	return auth.WithUserID(context.Background(), userID)
}

// setupTestDB swaps the package connection for an in-memory SQLite database
// with the full schema migrated, and returns the previous connection.
func setupTestDB(t *testing.T) *gorm.DB {
	oldDB := GetDB()

	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err, "Failed to connect to in-memory SQLite")

	db.Exec("PRAGMA foreign_keys = ON")
	db.LogMode(false)
	require.NoError(t, Migrate(db), "Failed to migrate database schema")

	InitDBWithConnection(db)
	return oldDB
}

func teardownTestDB(db *gorm.DB) {
	if cur := GetDB(); cur != nil {
		cur.Close()
	}
	InitDBWithConnection(db)
}

func createTestUser(t *testing.T, username, email string) uint {
	u := &models.User{
		Username: username,
		Email:    email,
		Password: "password123",
	}
	require.NoError(t, DB.Create(u).Error, "Failed to create test user")

	profile := &models.UserProfile{UserID: u.ID, IsPublic: true, EmailNotifications: true}
	require.NoError(t, DB.Create(profile).Error, "Failed to create test profile")

	return u.ID
}

func createTestCategory(t *testing.T, name, slugVal string) uint {
	cat := &models.Category{Name: name, Slug: slugVal}
	require.NoError(t, DB.Create(cat).Error, "Failed to create test category")
	return cat.ID
}

// createPublishedPost inserts a post that is already live.
func createPublishedPost(t *testing.T, userID uint, title, slugVal string) *models.Post {
	now := time.Now().Add(-time.Minute)
	p := &models.Post{
		Title:         title,
		Slug:          slugVal,
		Content:       "content of " + title,
		Excerpt:       "excerpt",
		Status:        models.StatusPublished,
		UserID:        userID,
		AllowComments: true,
		PublishedAt:   &now,
	}
	require.NoError(t, DB.Create(p).Error, "Failed to create test post")
	return p
}

func TestPostPostgresStorage_Create(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("Slug is derived from the title", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		p, err := storage.Create(ctx, post.CreateInput{Title: "My First Post!", Content: "Hello world"})
		require.NoError(t, err)
		assert.Equal(t, "my-first-post", p.Slug)
		assert.Equal(t, models.StatusDraft, p.Status)
		assert.Nil(t, p.PublishedAt)
	})

	t.Run("Colliding titles get numeric suffixes", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		first, err := storage.Create(ctx, post.CreateInput{Title: "My First Post!", Content: "one"})
		require.NoError(t, err)
		second, err := storage.Create(ctx, post.CreateInput{Title: "My First Post!", Content: "two"})
		require.NoError(t, err)
		third, err := storage.Create(ctx, post.CreateInput{Title: "My First Post!", Content: "three"})
		require.NoError(t, err)

		assert.Equal(t, "my-first-post", first.Slug)
		assert.Equal(t, "my-first-post-1", second.Slug)
		assert.Equal(t, "my-first-post-2", third.Slug)
	})

	t.Run("Explicit slug is respected and never suffixed", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		p, err := storage.Create(ctx, post.CreateInput{Title: "Some Title", Slug: "custom-slug", Content: "body"})
		require.NoError(t, err)
		assert.Equal(t, "custom-slug", p.Slug)

		_, err = storage.Create(ctx, post.CreateInput{Title: "Another Title", Slug: "custom-slug", Content: "body"})
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("Publishing on create sets the publish timestamp", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		p, err := storage.Create(ctx, post.CreateInput{
			Title:   "Live Post",
			Content: "body",
			Status:  models.StatusPublished,
		})
		require.NoError(t, err)
		require.NotNil(t, p.PublishedAt)
		assert.WithinDuration(t, time.Now(), *p.PublishedAt, 5*time.Second)
	})

	t.Run("Excerpt is derived from content when absent", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		rich := "<p><b>Hello</b> world, this is a rich text body.</p>"
		p, err := storage.Create(ctx, post.CreateInput{Title: "Rich", Content: rich})
		require.NoError(t, err)
		assert.Equal(t, "Hello world, this is a rich text body.", p.Excerpt)

		withExcerpt, err := storage.Create(ctx, post.CreateInput{Title: "Summarized", Content: "body", Excerpt: "my summary"})
		require.NoError(t, err)
		assert.Equal(t, "my summary", withExcerpt.Excerpt)
	})

	t.Run("Tags are created on first use with their own slugs", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		p, err := storage.Create(ctx, post.CreateInput{
			Title:   "Tagged",
			Content: "body",
			Tags:    []string{"Go Programming", "Web Dev", "Go Programming"},
		})
		require.NoError(t, err)
		require.Len(t, p.Tags, 2)

		var tag models.Tag
		require.NoError(t, DB.Where("name = ?", "Go Programming").First(&tag).Error)
		assert.Equal(t, "go-programming", tag.Slug)
	})

	t.Run("Comments can be switched off at creation", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		p, err := storage.Create(ctx, post.CreateInput{Title: "Open", Content: "body"})
		require.NoError(t, err)
		assert.True(t, p.AllowComments)

		off := false
		closed, err := storage.Create(ctx, post.CreateInput{
			Title: "Closed", Content: "body", AllowComments: &off,
		})
		require.NoError(t, err)
		assert.False(t, closed.AllowComments)

		// The flag must survive the round trip to the database.
		var stored models.Post
		require.NoError(t, DB.First(&stored, closed.ID).Error)
		assert.False(t, stored.AllowComments)
	})

	t.Run("Validation errors", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		_, err := storage.Create(ctx, post.CreateInput{Title: "", Content: "body"})
		assert.ErrorIs(t, err, models.ErrValidation)

		_, err = storage.Create(ctx, post.CreateInput{Title: "T", Content: ""})
		assert.ErrorIs(t, err, models.ErrValidation)

		_, err = storage.Create(ctx, post.CreateInput{Title: "T", Content: "body", Status: "archived"})
		assert.ErrorIs(t, err, models.ErrValidation)

		badCat := uint(999)
		_, err = storage.Create(ctx, post.CreateInput{Title: "T", Content: "body", CategoryID: &badCat})
		assert.ErrorIs(t, err, models.ErrValidation)

		// An explicit slug that normalizes to nothing is rejected, never
		// silently replaced.
		_, err = storage.Create(ctx, post.CreateInput{Title: "T", Slug: "!!!", Content: "body"})
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("Error: no authorization", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		_, err := storage.Create(context.Background(), post.CreateInput{Title: "T", Content: "body"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unauthorized")
	})
}

func TestPostPostgresStorage_Update(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("Changing the title never regenerates the slug", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		p, err := storage.Create(ctx, post.CreateInput{Title: "Original Title", Content: "body"})
		require.NoError(t, err)
		require.Equal(t, "original-title", p.Slug)

		newTitle := "Renamed Completely"
		updated, err := storage.Update(ctx, p.ID, post.UpdateInput{Title: &newTitle})
		require.NoError(t, err)
		assert.Equal(t, "Renamed Completely", updated.Title)
		assert.Equal(t, "original-title", updated.Slug)
	})

	t.Run("Explicit slug update is honored", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		p, err := storage.Create(ctx, post.CreateInput{Title: "A Post", Content: "body"})
		require.NoError(t, err)

		newSlug := "Brand New Slug"
		updated, err := storage.Update(ctx, p.ID, post.UpdateInput{Slug: &newSlug})
		require.NoError(t, err)
		assert.Equal(t, "brand-new-slug", updated.Slug)
	})

	t.Run("Explicit slug update rejects a taken slug", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		_, err := storage.Create(ctx, post.CreateInput{Title: "First", Content: "body"})
		require.NoError(t, err)
		p, err := storage.Create(ctx, post.CreateInput{Title: "Second", Content: "body"})
		require.NoError(t, err)

		taken := "first"
		_, err = storage.Update(ctx, p.ID, post.UpdateInput{Slug: &taken})
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("Only the author can update", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		authorID := createTestUser(t, "author", "author@example.com")
		otherID := createTestUser(t, "other", "other@example.com")

		p, err := storage.Create(userContext(authorID), post.CreateInput{Title: "Mine", Content: "body"})
		require.NoError(t, err)

		newTitle := "Hijacked"
		_, err = storage.Update(userContext(otherID), p.ID, post.UpdateInput{Title: &newTitle})
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("Replacing tags", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		p, err := storage.Create(ctx, post.CreateInput{Title: "Tagged", Content: "body", Tags: []string{"old"}})
		require.NoError(t, err)

		newTags := []string{"fresh", "newer"}
		updated, err := storage.Update(ctx, p.ID, post.UpdateInput{Tags: &newTags})
		require.NoError(t, err)
		require.Len(t, updated.Tags, 2)
	})
}

func TestPostPostgresStorage_PublicationTransitions(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("Publish sets the timestamp exactly once", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		p, err := storage.Create(ctx, post.CreateInput{Title: "Draft", Content: "body"})
		require.NoError(t, err)
		require.Nil(t, p.PublishedAt)

		published, err := storage.Publish(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, published.PublishedAt)
		firstPublished := *published.PublishedAt

		// Back to draft: the timestamp records the first publication and
		// stays put.
		reverted, err := storage.Unpublish(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDraft, reverted.Status)
		require.NotNil(t, reverted.PublishedAt)

		republished, err := storage.Publish(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, republished.PublishedAt)
		assert.True(t, republished.PublishedAt.Equal(firstPublished),
			"republish must not move the original publish timestamp")
	})

	t.Run("Only the author can change status", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		authorID := createTestUser(t, "author", "author@example.com")
		otherID := createTestUser(t, "other", "other@example.com")

		p, err := storage.Create(userContext(authorID), post.CreateInput{Title: "Draft", Content: "body"})
		require.NoError(t, err)

		_, err = storage.Publish(userContext(otherID), p.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestPostPostgresStorage_Visibility(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("Drafts are not found for anyone but the author", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		authorID := createTestUser(t, "author", "author@example.com")
		otherID := createTestUser(t, "other", "other@example.com")

		p, err := storage.Create(userContext(authorID), post.CreateInput{Title: "Secret Draft", Content: "body"})
		require.NoError(t, err)

		got, err := storage.GetBySlug(userContext(authorID), p.Slug)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)

		_, err = storage.GetBySlug(context.Background(), p.Slug)
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = storage.GetBySlug(userContext(otherID), p.Slug)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Scheduled posts stay hidden until their publish time", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		authorID := createTestUser(t, "author", "author@example.com")

		future := time.Now().Add(24 * time.Hour)
		p := &models.Post{
			Title:       "Scheduled",
			Slug:        "scheduled",
			Content:     "body",
			Status:      models.StatusPublished,
			UserID:      authorID,
			PublishedAt: &future,
		}
		require.NoError(t, DB.Create(p).Error)

		_, err := storage.GetBySlug(context.Background(), "scheduled")
		assert.ErrorIs(t, err, models.ErrNotFound)

		got, err := storage.GetBySlug(userContext(authorID), "scheduled")
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)

		// Scheduled posts are also absent from public listings.
		posts, err := storage.ListPublished(10, 0)
		require.NoError(t, err)
		assert.Len(t, posts, 0)
	})
}

func TestPostPostgresStorage_RecordView(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("Anonymous and other viewers increment, the author does not", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		authorID := createTestUser(t, "author", "author@example.com")
		otherID := createTestUser(t, "other", "other@example.com")
		p := createPublishedPost(t, authorID, "Viewed", "viewed")

		require.NoError(t, storage.RecordView(context.Background(), p.ID))
		require.NoError(t, storage.RecordView(userContext(otherID), p.ID))
		require.NoError(t, storage.RecordView(userContext(authorID), p.ID))

		var got models.Post
		require.NoError(t, DB.First(&got, p.ID).Error)
		assert.Equal(t, uint(2), got.ViewsCount)
	})

	t.Run("Draft views are not counted", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		authorID := createTestUser(t, "author", "author@example.com")
		p, err := storage.Create(userContext(authorID), post.CreateInput{Title: "Draft", Content: "body"})
		require.NoError(t, err)

		require.NoError(t, storage.RecordView(userContext(authorID), p.ID))

		var got models.Post
		require.NoError(t, DB.First(&got, p.ID).Error)
		assert.Equal(t, uint(0), got.ViewsCount)
	})

	t.Run("Scheduled posts are not counted before their publish time", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		authorID := createTestUser(t, "author", "author@example.com")
		otherID := createTestUser(t, "other", "other@example.com")

		future := time.Now().Add(24 * time.Hour)
		p := &models.Post{
			Title:       "Scheduled",
			Slug:        "scheduled",
			Content:     "body",
			Status:      models.StatusPublished,
			UserID:      authorID,
			PublishedAt: &future,
		}
		require.NoError(t, DB.Create(p).Error)

		require.NoError(t, storage.RecordView(context.Background(), p.ID))
		require.NoError(t, storage.RecordView(userContext(otherID), p.ID))

		var got models.Post
		require.NoError(t, DB.First(&got, p.ID).Error)
		assert.Equal(t, uint(0), got.ViewsCount)
	})

	t.Run("Unknown post", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		err := storage.RecordView(context.Background(), 999)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestPostPostgresStorage_Related(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("Shares category or tags, excludes self, deduplicates", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)
		catID := createTestCategory(t, "Tech", "tech")

		base, err := storage.Create(ctx, post.CreateInput{
			Title: "Base", Content: "body", Status: models.StatusPublished,
			CategoryID: &catID, Tags: []string{"go", "web"},
		})
		require.NoError(t, err)

		sameCat, err := storage.Create(ctx, post.CreateInput{
			Title: "Same Category", Content: "body", Status: models.StatusPublished,
			CategoryID: &catID,
		})
		require.NoError(t, err)

		// Shares both the category and a tag; must appear once.
		both, err := storage.Create(ctx, post.CreateInput{
			Title: "Category And Tag", Content: "body", Status: models.StatusPublished,
			CategoryID: &catID, Tags: []string{"go"},
		})
		require.NoError(t, err)

		_, err = storage.Create(ctx, post.CreateInput{
			Title: "Unrelated", Content: "body", Status: models.StatusPublished,
		})
		require.NoError(t, err)

		_, err = storage.Create(ctx, post.CreateInput{
			Title: "Draft Same Category", Content: "body", CategoryID: &catID,
		})
		require.NoError(t, err)

		related, err := storage.Related(context.Background(), base.ID, 3)
		require.NoError(t, err)
		require.Len(t, related, 2)

		ids := map[uint]bool{}
		for _, r := range related {
			ids[r.ID] = true
		}
		assert.True(t, ids[sameCat.ID])
		assert.True(t, ids[both.ID])
		assert.False(t, ids[base.ID])
	})

	t.Run("Hidden base posts are not found for the public", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)
		catID := createTestCategory(t, "Tech", "tech")

		draft, err := storage.Create(ctx, post.CreateInput{
			Title: "Unfinished", Content: "body", CategoryID: &catID,
		})
		require.NoError(t, err)

		_, err = storage.Related(context.Background(), draft.ID, 3)
		assert.ErrorIs(t, err, models.ErrNotFound)

		// The author still sees related posts for their own draft.
		_, err = storage.Related(ctx, draft.ID, 3)
		assert.NoError(t, err)
	})

	t.Run("Post with no category and no tags has no related posts", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		lonely, err := storage.Create(ctx, post.CreateInput{Title: "Lonely", Content: "body", Status: models.StatusPublished})
		require.NoError(t, err)

		related, err := storage.Related(context.Background(), lonely.ID, 3)
		require.NoError(t, err)
		assert.Len(t, related, 0)
	})
}

func TestPostPostgresStorage_Search(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("Matches title, content, excerpt and tag names", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		_, err := storage.Create(ctx, post.CreateInput{
			Title: "Gopher News", Content: "nothing here", Status: models.StatusPublished,
		})
		require.NoError(t, err)
		_, err = storage.Create(ctx, post.CreateInput{
			Title: "Other", Content: "all about gophers", Status: models.StatusPublished,
		})
		require.NoError(t, err)
		_, err = storage.Create(ctx, post.CreateInput{
			Title: "Tagged", Content: "body", Status: models.StatusPublished, Tags: []string{"gopher"},
		})
		require.NoError(t, err)
		_, err = storage.Create(ctx, post.CreateInput{
			Title: "Hidden Gopher Draft", Content: "body",
		})
		require.NoError(t, err)

		results, err := storage.Search("GOPHER", 10, 0)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("Blank query returns nothing", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		results, err := storage.Search("   ", 10, 0)
		require.NoError(t, err)
		assert.Len(t, results, 0)
	})
}

func TestPostPostgresStorage_Delete(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("Cascades to comments and their reactions", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		authorID := createTestUser(t, "author", "author@example.com")
		readerID := createTestUser(t, "reader", "reader@example.com")
		p := createPublishedPost(t, authorID, "Doomed", "doomed")

		c := &models.Comment{PostID: p.ID, UserID: readerID, Content: "nice", IsApproved: true}
		require.NoError(t, DB.Create(c).Error)
		reply := &models.Comment{PostID: p.ID, UserID: authorID, ParentID: &c.ID, Content: "thanks", IsApproved: true}
		require.NoError(t, DB.Create(reply).Error)
		reaction := &models.CommentReaction{CommentID: c.ID, UserID: authorID, Type: models.ReactionLike}
		require.NoError(t, DB.Create(reaction).Error)

		require.NoError(t, storage.Delete(userContext(authorID), p.ID))

		var comments, reactions int
		require.NoError(t, DB.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&comments).Error)
		require.NoError(t, DB.Model(&models.CommentReaction{}).Count(&reactions).Error)
		assert.Equal(t, 0, comments)
		assert.Equal(t, 0, reactions)

		err := DB.First(&models.Post{}, p.ID).Error
		assert.True(t, gorm.IsRecordNotFoundError(err))
	})

	t.Run("Only the author can delete", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		authorID := createTestUser(t, "author", "author@example.com")
		otherID := createTestUser(t, "other", "other@example.com")
		p := createPublishedPost(t, authorID, "Kept", "kept")

		err := storage.Delete(userContext(otherID), p.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)

		require.NoError(t, DB.First(&models.Post{}, p.ID).Error)
	})
}

func TestPostPostgresStorage_Lists(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("ListPublished orders newest first", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")

		older := time.Now().Add(-2 * time.Hour)
		newer := time.Now().Add(-time.Hour)
		p1 := &models.Post{Title: "Older", Slug: "older", Content: "b", Status: models.StatusPublished, UserID: userID, PublishedAt: &older}
		p2 := &models.Post{Title: "Newer", Slug: "newer", Content: "b", Status: models.StatusPublished, UserID: userID, PublishedAt: &newer}
		require.NoError(t, DB.Create(p1).Error)
		require.NoError(t, DB.Create(p2).Error)

		posts, err := storage.ListPublished(10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, "newer", posts[0].Slug)
		assert.Equal(t, "older", posts[1].Slug)
	})

	t.Run("ListDrafts requires auth and only shows the caller's drafts", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		otherID := createTestUser(t, "other", "other@example.com")
		ctx := userContext(userID)

		_, err := storage.Create(ctx, post.CreateInput{Title: "Mine", Content: "b"})
		require.NoError(t, err)
		_, err = storage.Create(userContext(otherID), post.CreateInput{Title: "Theirs", Content: "b"})
		require.NoError(t, err)

		drafts, err := storage.ListDrafts(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, "Mine", drafts[0].Title)

		_, err = storage.ListDrafts(context.Background(), 10, 0)
		assert.Error(t, err)
	})

	t.Run("ListByCategory and ListByTag", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)
		catID := createTestCategory(t, "Tech", "tech")

		_, err := storage.Create(ctx, post.CreateInput{
			Title: "In Category", Content: "b", Status: models.StatusPublished, CategoryID: &catID,
		})
		require.NoError(t, err)
		_, err = storage.Create(ctx, post.CreateInput{
			Title: "Tagged Only", Content: "b", Status: models.StatusPublished, Tags: []string{"go"},
		})
		require.NoError(t, err)

		byCat, err := storage.ListByCategory("tech", 10, 0)
		require.NoError(t, err)
		require.Len(t, byCat, 1)
		assert.Equal(t, "In Category", byCat[0].Title)

		byTag, err := storage.ListByTag("go", 10, 0)
		require.NoError(t, err)
		require.Len(t, byTag, 1)
		assert.Equal(t, "Tagged Only", byTag[0].Title)

		_, err = storage.ListByCategory("nope", 10, 0)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("ListByAuthor only shows live posts", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")
		ctx := userContext(userID)

		_, err := storage.Create(ctx, post.CreateInput{Title: "Live", Content: "b", Status: models.StatusPublished})
		require.NoError(t, err)
		_, err = storage.Create(ctx, post.CreateInput{Title: "Draft", Content: "b"})
		require.NoError(t, err)

		posts, err := storage.ListByAuthor("author", 10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "Live", posts[0].Title)
	})

	t.Run("Featured orders by view count", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "author", "author@example.com")

		p1 := createPublishedPost(t, userID, "Quiet", "quiet")
		p2 := createPublishedPost(t, userID, "Popular", "popular")
		require.NoError(t, DB.Model(p1).UpdateColumn("views_count", 3).Error)
		require.NoError(t, DB.Model(p2).UpdateColumn("views_count", 42).Error)

		featured, err := storage.Featured(1)
		require.NoError(t, err)
		require.Len(t, featured, 1)
		assert.Equal(t, "popular", featured[0].Slug)
	})
}
