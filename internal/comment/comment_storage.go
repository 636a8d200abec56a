package comment

import (
	"context"

	"github.com/nstepa/inkpost/models"
)

// ReactionSummary is the aggregate returned after every toggle: how many
// reactions the comment has in total, how many per type, the (up to) three
// most frequent types, and the acting user's current reaction ("" if none).
type ReactionSummary struct {
	Total        int            `json:"total"`
	ByType       map[string]int `json:"by_type"`
	Top          []string       `json:"top_reactions"`
	UserReaction string         `json:"user_reaction"`
}

// Toggle outcomes for React.
const (
	ReactionAdded   = "added"
	ReactionRemoved = "removed"
	ReactionUpdated = "updated"
)

// ReactionResult reports what the toggle did plus the fresh summary.
type ReactionResult struct {
	Action  string          `json:"action"`
	Summary ReactionSummary `json:"summary"`
}

type CommentStorage interface {
	// Create adds a comment to a post. A non-nil parentID makes it a reply;
	// replying to a reply is rejected, threads are one level deep.
	Create(ctx context.Context, postID uint, parentID *uint, content string) (*models.Comment, error)

	// ListForPost returns approved top-level comments in chronological order,
	// each with its approved replies attached.
	ListForPost(postID uint, limit, offset int) ([]*models.Comment, error)

	RecentApproved(limit int) ([]*models.Comment, error)

	// Delete is allowed to the comment author and to the post author, and
	// cascades to replies and reactions.
	Delete(ctx context.Context, id uint) error

	// SetApproved moderates a comment; only the post author may do it.
	SetApproved(ctx context.Context, id uint, approved bool) error

	// React toggles the caller's reaction on a comment.
	React(ctx context.Context, commentID uint, reactionType string) (*ReactionResult, error)

	ReactionsSummary(ctx context.Context, commentID uint) (*ReactionSummary, error)
}
