package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jinzhu/gorm"

	"github.com/nstepa/inkpost/internal/auth"
	"github.com/nstepa/inkpost/internal/comment"
	"github.com/nstepa/inkpost/models"
)

const topReactions = 3

// React toggles the caller's reaction on a comment: no existing reaction
// creates one, the same type removes it, a different type replaces it. The
// returned summary reflects the state after the toggle.
func (s *CommentPostgresStorage) React(ctx context.Context, commentID uint, reactionType string) (*comment.ReactionResult, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}

	if !models.IsValidReaction(reactionType) {
		return nil, fmt.Errorf("%w: unknown reaction type %q", models.ErrValidation, reactionType)
	}

	var c models.Comment
	if err := DB.First(&c, commentID).Error; err != nil {
		return nil, fmt.Errorf("%w: comment %d", models.ErrNotFound, commentID)
	}

	action := comment.ReactionAdded

	var existing models.CommentReaction
	err = DB.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&existing).Error
	switch {
	case err == nil && existing.Type == reactionType:
		// Toggle off.
		if err := DB.Delete(&models.CommentReaction{}, "id = ?", existing.ID).Error; err != nil {
			return nil, fmt.Errorf("could not remove reaction: %w", err)
		}
		action = comment.ReactionRemoved

	case err == nil:
		if err := DB.Model(&existing).Update("type", reactionType).Error; err != nil {
			return nil, fmt.Errorf("could not update reaction: %w", err)
		}
		action = comment.ReactionUpdated

	case gorm.IsRecordNotFoundError(err):
		r := models.CommentReaction{CommentID: commentID, UserID: userID, Type: reactionType}
		if err := DB.Create(&r).Error; err != nil {
			if !isUniqueViolation(err) {
				return nil, fmt.Errorf("could not create reaction: %w", err)
			}
			// A concurrent toggle beat us to the (comment, user) row. The
			// unique index kept the invariant; converge on the requested
			// type instead of failing.
			if err := DB.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&existing).Error; err != nil {
				return nil, fmt.Errorf("could not get reaction after conflict: %w", err)
			}
			if existing.Type != reactionType {
				if err := DB.Model(&existing).Update("type", reactionType).Error; err != nil {
					return nil, fmt.Errorf("could not update reaction: %w", err)
				}
				action = comment.ReactionUpdated
			}
		}

	default:
		return nil, fmt.Errorf("could not get reaction: %w", err)
	}

	summary, err := s.reactionSummary(commentID, userID)
	if err != nil {
		return nil, err
	}

	return &comment.ReactionResult{Action: action, Summary: *summary}, nil
}

func (s *CommentPostgresStorage) ReactionsSummary(ctx context.Context, commentID uint) (*comment.ReactionSummary, error) {
	var c models.Comment
	if err := DB.First(&c, commentID).Error; err != nil {
		return nil, fmt.Errorf("%w: comment %d", models.ErrNotFound, commentID)
	}
	return s.reactionSummary(commentID, auth.ViewerID(ctx))
}

// reactionTypeOrder gives the deterministic tie-break for equal counts: the
// canonical enum order.
func reactionTypeOrder(t string) int {
	for i, known := range models.ReactionTypes {
		if t == known {
			return i
		}
	}
	return len(models.ReactionTypes)
}

func (s *CommentPostgresStorage) reactionSummary(commentID, userID uint) (*comment.ReactionSummary, error) {
	type typeCount struct {
		Type  string
		Count int
	}

	var counts []typeCount
	err := DB.Model(&models.CommentReaction{}).
		Select("type, count(*) as count").
		Where("comment_id = ?", commentID).
		Group("type").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("could not aggregate reactions: %w", err)
	}

	summary := &comment.ReactionSummary{ByType: make(map[string]int)}
	for _, tc := range counts {
		summary.ByType[tc.Type] = tc.Count
		summary.Total += tc.Count
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return reactionTypeOrder(counts[i].Type) < reactionTypeOrder(counts[j].Type)
	})
	summary.Top = make([]string, 0, topReactions)
	for i := 0; i < len(counts) && i < topReactions; i++ {
		summary.Top = append(summary.Top, counts[i].Type)
	}

	if userID != 0 {
		var own models.CommentReaction
		err := DB.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&own).Error
		if err == nil {
			summary.UserReaction = own.Type
		} else if !gorm.IsRecordNotFoundError(err) {
			return nil, fmt.Errorf("could not get user reaction: %w", err)
		}
	}

	return summary, nil
}
