package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jinzhu/gorm"

	"github.com/nstepa/inkpost/internal/auth"
	"github.com/nstepa/inkpost/internal/post"
	"github.com/nstepa/inkpost/internal/slug"
	"github.com/nstepa/inkpost/models"
)

const (
	excerptLength      = 200
	slugCreateAttempts = 3
)

type PostPostgresStorage struct{}

func NewPostPostgresStorage() *PostPostgresStorage {
	return &PostPostgresStorage{}
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// makeExcerpt derives a short summary from the post body: HTML stripped,
// truncated to 200 characters.
func makeExcerpt(content string) string {
	clean := strings.TrimSpace(htmlTagRe.ReplaceAllString(content, ""))
	runes := []rune(clean)
	if len(runes) > excerptLength {
		return string(runes[:excerptLength]) + "..."
	}
	return clean
}

// visibleNow narrows a post query to what the anonymous public may see:
// published, with a publish time that has already passed.
func visibleNow(db *gorm.DB) *gorm.DB {
	return db.Where("posts.status = ? AND posts.published_at <= ?", models.StatusPublished, time.Now())
}

func getOrCreateTag(db *gorm.DB, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tag name cannot be empty", models.ErrValidation)
	}

	var tag models.Tag
	if err := db.Where("name = ?", name).First(&tag).Error; err == nil {
		return &tag, nil
	}

	base := slug.Make(name)
	if base == "" {
		base = "tag"
	}
	tagSlug, err := uniqueSlug(db, "tags", base, 0)
	if err != nil {
		return nil, fmt.Errorf("could not derive tag slug: %w", err)
	}

	tag = models.Tag{Name: name, Slug: tagSlug}
	if err := db.Create(&tag).Error; err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent create of the same tag.
			if err := db.Where("name = ?", name).First(&tag).Error; err != nil {
				return nil, fmt.Errorf("could not get tag after conflict: %w", err)
			}
			return &tag, nil
		}
		return nil, fmt.Errorf("could not create tag: %w", err)
	}
	return &tag, nil
}

func getOrCreateTags(db *gorm.DB, names []string) ([]models.Tag, error) {
	var tags []models.Tag
	seen := make(map[string]bool)
	for _, name := range names {
		tag, err := getOrCreateTag(db, name)
		if err != nil {
			return nil, err
		}
		if seen[tag.Slug] {
			continue
		}
		seen[tag.Slug] = true
		tags = append(tags, *tag)
	}
	return tags, nil
}

func (s *PostPostgresStorage) Create(ctx context.Context, in post.CreateInput) (*models.Post, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}

	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", models.ErrValidation)
	}

	status := in.Status
	if status == "" {
		status = models.StatusDraft
	}
	if status != models.StatusDraft && status != models.StatusPublished {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, in.Status)
	}

	if in.CategoryID != nil {
		var cat models.Category
		if err := DB.First(&cat, *in.CategoryID).Error; err != nil {
			return nil, fmt.Errorf("%w: category %d does not exist", models.ErrValidation, *in.CategoryID)
		}
	}

	tags, err := getOrCreateTags(DB, in.Tags)
	if err != nil {
		return nil, err
	}

	p := &models.Post{
		Title:           in.Title,
		Content:         in.Content,
		Excerpt:         in.Excerpt,
		FeaturedImage:   in.FeaturedImage,
		MetaDescription: in.MetaDescription,
		Status:          status,
		UserID:          userID,
		CategoryID:      in.CategoryID,
		AllowComments:   true,
		Tags:            tags,
	}
	if in.AllowComments != nil {
		p.AllowComments = *in.AllowComments
	}
	if p.Excerpt == "" {
		p.Excerpt = makeExcerpt(in.Content)
	}
	if status == models.StatusPublished {
		now := time.Now()
		p.PublishedAt = &now
	}

	explicit := in.Slug != ""
	base := slug.Make(in.Slug)
	if !explicit {
		base = slug.Make(in.Title)
		if base == "" {
			base = "post"
		}
	} else if base == "" {
		return nil, fmt.Errorf("%w: slug cannot be empty", models.ErrValidation)
	}

	for attempt := 0; attempt < slugCreateAttempts; attempt++ {
		if explicit {
			p.Slug = base
		} else {
			p.Slug, err = uniqueSlug(DB, "posts", base, 0)
			if err != nil {
				return nil, fmt.Errorf("could not derive slug: %w", err)
			}
		}

		err = DB.Create(p).Error
		if err == nil {
			return s.GetBySlug(ctx, p.Slug)
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("could not create post: %w", err)
		}
		if explicit {
			return nil, fmt.Errorf("%w: slug %q is already taken", models.ErrConflict, base)
		}
		// Lost the slug race to a concurrent create; regenerate and retry.
		p.ID = 0
	}

	return nil, fmt.Errorf("%w: could not allocate a unique slug for %q", models.ErrConflict, base)
}

func (s *PostPostgresStorage) Update(ctx context.Context, id uint, in post.UpdateInput) (*models.Post, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}

	var p models.Post
	if err := DB.First(&p, id).Error; err != nil {
		return nil, fmt.Errorf("%w: post %d", models.ErrNotFound, id)
	}
	if p.UserID != userID {
		return nil, fmt.Errorf("%w: you are not the author of this post", models.ErrForbidden)
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", models.ErrValidation)
		}
		p.Title = *in.Title
	}

	// An existing slug is never regenerated; it only changes when the caller
	// supplies a new one explicitly.
	if in.Slug != nil {
		newSlug := slug.Make(*in.Slug)
		if newSlug == "" {
			return nil, fmt.Errorf("%w: slug cannot be empty", models.ErrValidation)
		}
		if newSlug != p.Slug {
			free, err := uniqueSlug(DB, "posts", newSlug, p.ID)
			if err != nil {
				return nil, fmt.Errorf("could not check slug: %w", err)
			}
			if free != newSlug {
				return nil, fmt.Errorf("%w: slug %q is already taken", models.ErrConflict, newSlug)
			}
			p.Slug = newSlug
		}
	}

	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, fmt.Errorf("%w: content cannot be empty", models.ErrValidation)
		}
		p.Content = *in.Content
	}
	if in.Excerpt != nil {
		p.Excerpt = *in.Excerpt
	}
	if p.Excerpt == "" && p.Content != "" {
		p.Excerpt = makeExcerpt(p.Content)
	}
	if in.FeaturedImage != nil {
		p.FeaturedImage = *in.FeaturedImage
	}
	if in.MetaDescription != nil {
		p.MetaDescription = *in.MetaDescription
	}
	if in.AllowComments != nil {
		p.AllowComments = *in.AllowComments
	}

	if in.ClearCategory {
		p.CategoryID = nil
	} else if in.CategoryID != nil {
		var cat models.Category
		if err := DB.First(&cat, *in.CategoryID).Error; err != nil {
			return nil, fmt.Errorf("%w: category %d does not exist", models.ErrValidation, *in.CategoryID)
		}
		p.CategoryID = in.CategoryID
	}

	if in.Status != nil {
		if err := transition(&p, *in.Status); err != nil {
			return nil, err
		}
	}

	if err := DB.Save(&p).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: slug %q is already taken", models.ErrConflict, p.Slug)
		}
		return nil, fmt.Errorf("could not update post: %w", err)
	}

	if in.Tags != nil {
		tags, err := getOrCreateTags(DB, *in.Tags)
		if err != nil {
			return nil, err
		}
		if err := DB.Model(&p).Association("Tags").Replace(tags).Error; err != nil {
			return nil, fmt.Errorf("could not update tags: %w", err)
		}
	}

	return s.GetBySlug(ctx, p.Slug)
}

// transition applies the two-state publication machine. The publish timestamp
// is set exactly once, on the first move to published, and survives moving
// back to draft.
func transition(p *models.Post, status string) error {
	switch status {
	case models.StatusPublished:
		p.Status = models.StatusPublished
		if p.PublishedAt == nil {
			now := time.Now()
			p.PublishedAt = &now
		}
	case models.StatusDraft:
		p.Status = models.StatusDraft
	default:
		return fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}
	return nil
}

func (s *PostPostgresStorage) Delete(ctx context.Context, id uint) error {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("unauthorized: %w", err)
	}

	var p models.Post
	if err := DB.First(&p, id).Error; err != nil {
		return fmt.Errorf("%w: post %d", models.ErrNotFound, id)
	}
	if p.UserID != userID {
		return fmt.Errorf("%w: you are not the author of this post", models.ErrForbidden)
	}

	// Cascade: reactions on the post's comments, the comments themselves,
	// the tag associations, then the post.
	tx := DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("could not begin transaction: %w", tx.Error)
	}

	if err := tx.Where("comment_id IN (SELECT id FROM comments WHERE post_id = ?)", id).
		Delete(&models.CommentReaction{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("could not delete comment reactions: %w", err)
	}
	if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("could not delete comments: %w", err)
	}
	if err := tx.Exec("DELETE FROM post_tags WHERE post_id = ?", id).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("could not delete tag links: %w", err)
	}
	if err := tx.Delete(&models.Post{}, "id = ?", id).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("could not delete post: %w", err)
	}

	return tx.Commit().Error
}

func (s *PostPostgresStorage) GetBySlug(ctx context.Context, postSlug string) (*models.Post, error) {
	var p models.Post
	err := DB.Where("slug = ?", postSlug).
		Preload("Author").
		Preload("Author.Profile").
		Preload("Category").
		Preload("Tags").
		First(&p).Error
	if err != nil {
		return nil, fmt.Errorf("%w: post %q", models.ErrNotFound, postSlug)
	}

	// Drafts and scheduled posts are indistinguishable from missing ones for
	// everybody except the author.
	if !p.VisibleTo(auth.ViewerID(ctx)) {
		return nil, fmt.Errorf("%w: post %q", models.ErrNotFound, postSlug)
	}

	return &p, nil
}

func listPosts(q *gorm.DB, limit, offset int) ([]*models.Post, error) {
	var rows []models.Post
	err := q.Preload("Author").
		Preload("Category").
		Preload("Tags").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not list posts: %w", err)
	}

	posts := make([]*models.Post, 0, len(rows))
	for i := range rows {
		posts = append(posts, &rows[i])
	}
	return posts, nil
}

func (s *PostPostgresStorage) ListPublished(limit, offset int) ([]*models.Post, error) {
	q := visibleNow(DB.Model(&models.Post{})).Order("posts.published_at DESC")
	return listPosts(q, limit, offset)
}

func (s *PostPostgresStorage) ListByAuthor(username string, limit, offset int) ([]*models.Post, error) {
	var u models.User
	if err := DB.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, fmt.Errorf("%w: user %q", models.ErrNotFound, username)
	}

	q := visibleNow(DB.Model(&models.Post{})).
		Where("posts.user_id = ?", u.ID).
		Order("posts.published_at DESC")
	return listPosts(q, limit, offset)
}

func (s *PostPostgresStorage) ListByCategory(categorySlug string, limit, offset int) ([]*models.Post, error) {
	var cat models.Category
	if err := DB.Where("slug = ?", categorySlug).First(&cat).Error; err != nil {
		return nil, fmt.Errorf("%w: category %q", models.ErrNotFound, categorySlug)
	}

	q := visibleNow(DB.Model(&models.Post{})).
		Where("posts.category_id = ?", cat.ID).
		Order("posts.published_at DESC")
	return listPosts(q, limit, offset)
}

func (s *PostPostgresStorage) ListByTag(tagSlug string, limit, offset int) ([]*models.Post, error) {
	var tag models.Tag
	if err := DB.Where("slug = ?", tagSlug).First(&tag).Error; err != nil {
		return nil, fmt.Errorf("%w: tag %q", models.ErrNotFound, tagSlug)
	}

	q := visibleNow(DB.Model(&models.Post{})).
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag_id = ?", tag.ID).
		Order("posts.published_at DESC")
	return listPosts(q, limit, offset)
}

func (s *PostPostgresStorage) ListDrafts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}

	q := DB.Model(&models.Post{}).
		Where("posts.user_id = ? AND posts.status = ?", userID, models.StatusDraft).
		Order("posts.updated_at DESC")
	return listPosts(q, limit, offset)
}

func (s *PostPostgresStorage) Search(query string, limit, offset int) ([]*models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.Post{}, nil
	}
	like := "%" + strings.ToLower(query) + "%"

	q := visibleNow(DB.Model(&models.Post{})).
		Select("DISTINCT posts.*").
		Joins("LEFT JOIN post_tags ON post_tags.post_id = posts.id").
		Joins("LEFT JOIN tags ON tags.id = post_tags.tag_id").
		Where("lower(posts.title) LIKE ? OR lower(posts.content) LIKE ? OR lower(posts.excerpt) LIKE ? OR lower(tags.name) LIKE ?",
			like, like, like, like).
		Order("posts.published_at DESC")
	return listPosts(q, limit, offset)
}

func (s *PostPostgresStorage) Featured(limit int) ([]*models.Post, error) {
	q := visibleNow(DB.Model(&models.Post{})).Order("posts.views_count DESC")
	return listPosts(q, limit, 0)
}

func (s *PostPostgresStorage) Related(ctx context.Context, id uint, limit int) ([]*models.Post, error) {
	var p models.Post
	if err := DB.Preload("Tags").First(&p, id).Error; err != nil {
		return nil, fmt.Errorf("%w: post %d", models.ErrNotFound, id)
	}

	// Same rule as GetBySlug: a hidden post must not reveal itself through
	// its related list.
	if !p.VisibleTo(auth.ViewerID(ctx)) {
		return nil, fmt.Errorf("%w: post %d", models.ErrNotFound, id)
	}

	tagIDs := make([]uint, 0, len(p.Tags))
	for _, t := range p.Tags {
		tagIDs = append(tagIDs, t.ID)
	}

	q := visibleNow(DB.Model(&models.Post{})).
		Select("DISTINCT posts.*").
		Joins("LEFT JOIN post_tags ON post_tags.post_id = posts.id").
		Where("posts.id <> ?", id)

	switch {
	case p.CategoryID != nil && len(tagIDs) > 0:
		q = q.Where("posts.category_id = ? OR post_tags.tag_id IN (?)", *p.CategoryID, tagIDs)
	case p.CategoryID != nil:
		q = q.Where("posts.category_id = ?", *p.CategoryID)
	case len(tagIDs) > 0:
		q = q.Where("post_tags.tag_id IN (?)", tagIDs)
	default:
		return []*models.Post{}, nil
	}

	return listPosts(q.Order("posts.published_at DESC"), limit, 0)
}

func (s *PostPostgresStorage) Publish(ctx context.Context, id uint) (*models.Post, error) {
	return s.setStatus(ctx, id, models.StatusPublished)
}

func (s *PostPostgresStorage) Unpublish(ctx context.Context, id uint) (*models.Post, error) {
	return s.setStatus(ctx, id, models.StatusDraft)
}

func (s *PostPostgresStorage) setStatus(ctx context.Context, id uint, status string) (*models.Post, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}

	var p models.Post
	if err := DB.First(&p, id).Error; err != nil {
		return nil, fmt.Errorf("%w: post %d", models.ErrNotFound, id)
	}
	if p.UserID != userID {
		return nil, fmt.Errorf("%w: you are not the author of this post", models.ErrForbidden)
	}

	if err := transition(&p, status); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":       p.Status,
		"published_at": p.PublishedAt,
	}
	if err := DB.Model(&p).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("could not update post status: %w", err)
	}

	return &p, nil
}

func (s *PostPostgresStorage) RecordView(ctx context.Context, id uint) error {
	var p models.Post
	if err := DB.First(&p, id).Error; err != nil {
		return fmt.Errorf("%w: post %d", models.ErrNotFound, id)
	}

	// Authors refreshing their own posts do not inflate the counter. Only
	// publicly live posts accumulate views; drafts and scheduled posts do not.
	if viewer := auth.ViewerID(ctx); viewer != 0 && viewer == p.UserID {
		return nil
	}
	if !p.VisibleTo(0) {
		return nil
	}

	err := DB.Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("could not record view: %w", err)
	}
	return nil
}
