package postgres

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/nstepa/inkpost/internal/auth"
	"github.com/nstepa/inkpost/internal/mailer"
	"github.com/nstepa/inkpost/internal/notify"
	"github.com/nstepa/inkpost/models"
)

const maxCommentLength = 1000

type CommentPostgresStorage struct {
	notifier notify.Manager
	mailer   mailer.Mailer
}

// NewCommentPostgresStorage wires the comment store with its side channels:
// the in-process notifier feeding live comment streams and the mailer used
// for best-effort author notifications. Either may be nil.
func NewCommentPostgresStorage(notifier notify.Manager, m mailer.Mailer) *CommentPostgresStorage {
	return &CommentPostgresStorage{notifier: notifier, mailer: m}
}

func (s *CommentPostgresStorage) Create(ctx context.Context, postID uint, parentID *uint, content string) (*models.Comment, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment cannot be empty", models.ErrValidation)
	}
	if len(content) > maxCommentLength {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", models.ErrValidation, maxCommentLength)
	}

	var p models.Post
	if err := DB.First(&p, postID).Error; err != nil {
		return nil, fmt.Errorf("%w: post %d", models.ErrNotFound, postID)
	}
	if !p.VisibleTo(userID) {
		return nil, fmt.Errorf("%w: post %d", models.ErrNotFound, postID)
	}
	if !p.AllowComments {
		return nil, fmt.Errorf("%w: comments are disabled for this post", models.ErrValidation)
	}

	if parentID != nil {
		var parent models.Comment
		if err := DB.First(&parent, *parentID).Error; err != nil {
			return nil, fmt.Errorf("%w: parent comment %d", models.ErrNotFound, *parentID)
		}
		if parent.PostID != postID {
			return nil, fmt.Errorf("%w: parent comment belongs to a different post", models.ErrValidation)
		}
		// Threads are one level deep: a reply cannot itself be replied to.
		if parent.IsReply() {
			return nil, fmt.Errorf("%w: cannot reply to a reply", models.ErrValidation)
		}
	}

	c := &models.Comment{
		PostID:     postID,
		UserID:     userID,
		ParentID:   parentID,
		Content:    content,
		IsApproved: true,
	}
	if err := DB.Create(c).Error; err != nil {
		return nil, fmt.Errorf("could not create comment: %w", err)
	}

	var commenter models.User
	if err := DB.First(&commenter, userID).Error; err == nil {
		s.fanOut(&p, c, &commenter)
	}

	return c, nil
}

// fanOut pushes the new comment to live stream subscribers and, when the
// post author opted in, emails them. Both are best effort; a failure never
// reaches the commenter.
func (s *CommentPostgresStorage) fanOut(p *models.Post, c *models.Comment, commenter *models.User) {
	if s.notifier != nil {
		s.notifier.Publish(notify.CommentEvent{
			PostID:    p.ID,
			PostTitle: p.Title,
			CommentID: c.ID,
			ParentID:  c.ParentID,
			Author:    commenter.Username,
			Content:   c.Content,
		})
	}

	if s.mailer == nil || p.UserID == commenter.ID {
		return
	}

	var author models.User
	if err := DB.Preload("Profile").First(&author, p.UserID).Error; err != nil {
		return
	}
	if author.Profile == nil || !author.Profile.EmailNotifications {
		return
	}

	subject := fmt.Sprintf("New comment on \"%s\"", p.Title)
	body := fmt.Sprintf("%s commented on your post \"%s\":\n\n%s\n", commenter.Username, p.Title, c.Content)
	go func() {
		if err := s.mailer.Send(author.Email, subject, body); err != nil {
			log.Printf("could not send comment notification: %v", err)
		}
	}()
}

func (s *CommentPostgresStorage) ListForPost(postID uint, limit, offset int) ([]*models.Comment, error) {
	var p models.Post
	if err := DB.First(&p, postID).Error; err != nil {
		return nil, fmt.Errorf("%w: post %d", models.ErrNotFound, postID)
	}

	var rows []models.Comment
	err := DB.Where("post_id = ? AND parent_id IS NULL AND is_approved = ?", postID, true).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Preload("Author").
		Preload("Replies", "is_approved = ?", true).
		Preload("Replies.Author").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not list comments: %w", err)
	}

	comments := make([]*models.Comment, 0, len(rows))
	for i := range rows {
		comments = append(comments, &rows[i])
	}
	return comments, nil
}

func (s *CommentPostgresStorage) RecentApproved(limit int) ([]*models.Comment, error) {
	var rows []models.Comment
	err := DB.Where("is_approved = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Preload("Author").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not list recent comments: %w", err)
	}

	comments := make([]*models.Comment, 0, len(rows))
	for i := range rows {
		comments = append(comments, &rows[i])
	}
	return comments, nil
}

func (s *CommentPostgresStorage) Delete(ctx context.Context, id uint) error {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("unauthorized: %w", err)
	}

	var c models.Comment
	if err := DB.First(&c, id).Error; err != nil {
		return fmt.Errorf("%w: comment %d", models.ErrNotFound, id)
	}

	var p models.Post
	if err := DB.First(&p, c.PostID).Error; err != nil {
		return fmt.Errorf("could not get post for comment: %w", err)
	}

	// The comment's author and the post's author may both delete.
	if userID != c.UserID && userID != p.UserID {
		return fmt.Errorf("%w: only the comment author or the post author can delete a comment", models.ErrForbidden)
	}

	tx := DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("could not begin transaction: %w", tx.Error)
	}

	if err := tx.Where("comment_id = ? OR comment_id IN (SELECT id FROM comments WHERE parent_id = ?)", id, id).
		Delete(&models.CommentReaction{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("could not delete reactions: %w", err)
	}
	if err := tx.Where("parent_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("could not delete replies: %w", err)
	}
	if err := tx.Delete(&models.Comment{}, "id = ?", id).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("could not delete comment: %w", err)
	}

	return tx.Commit().Error
}

func (s *CommentPostgresStorage) SetApproved(ctx context.Context, id uint, approved bool) error {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("unauthorized: %w", err)
	}

	var c models.Comment
	if err := DB.First(&c, id).Error; err != nil {
		return fmt.Errorf("%w: comment %d", models.ErrNotFound, id)
	}

	var p models.Post
	if err := DB.First(&p, c.PostID).Error; err != nil {
		return fmt.Errorf("could not get post for comment: %w", err)
	}
	if p.UserID != userID {
		return fmt.Errorf("%w: only the post author can moderate comments", models.ErrForbidden)
	}

	err = DB.Model(&models.Comment{}).Where("id = ?", id).Update("is_approved", approved).Error
	if err != nil {
		return fmt.Errorf("could not update comment approval: %w", err)
	}
	return nil
}
