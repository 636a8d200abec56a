package models

import "time"

// Post status values. There are only two: a draft is visible to its author
// alone, a published post is public once its publish time has passed.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

type User struct {
	ID        uint      `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"unique_index;not null" json:"username"`
	Email     string    `gorm:"unique_index;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Profile  *UserProfile `gorm:"foreignkey:UserID" json:"profile,omitempty"`
	Posts    []Post       `gorm:"foreignkey:UserID" json:"-"`
	Comments []Comment    `gorm:"foreignkey:UserID" json:"-"`
}

// UserProfile extends User 1:1. It is created inside the same transaction as
// the user, so a user without a profile cannot be observed.
type UserProfile struct {
	ID                 uint      `gorm:"primary_key" json:"-"`
	UserID             uint      `gorm:"unique_index;not null" json:"user_id"`
	Bio                string    `json:"bio"`
	Avatar             string    `json:"avatar"`
	Location           string    `json:"location"`
	Website            string    `json:"website"`
	Twitter            string    `json:"twitter"`
	Github             string    `json:"github"`
	Linkedin           string    `json:"linkedin"`
	IsPublic           bool      `json:"is_public"`
	EmailNotifications bool      `json:"email_notifications"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Category struct {
	ID          uint      `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"unique_index;not null" json:"name"`
	Slug        string    `gorm:"unique_index;not null" json:"slug"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

type Tag struct {
	ID        uint      `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"unique_index;not null" json:"name"`
	Slug      string    `gorm:"unique_index;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type Post struct {
	ID              uint       `gorm:"primary_key" json:"id"`
	Title           string     `gorm:"not null" json:"title"`
	Slug            string     `gorm:"unique_index;not null" json:"slug"`
	Content         string     `gorm:"type:text" json:"content"`
	Excerpt         string     `json:"excerpt"`
	FeaturedImage   string     `json:"featured_image"`
	MetaDescription string     `json:"meta_description"`
	Status          string     `gorm:"not null;default:'draft'" json:"status"`
	ViewsCount      uint       `gorm:"not null;default:0" json:"views_count"`
	// Boolean columns carry no default tag: gorm v1 omits zero-valued fields
	// with one from the INSERT, turning an explicit false into the column
	// default. Defaults are set in code instead.
	AllowComments   bool       `gorm:"not null" json:"allow_comments"`
	UserID          uint       `gorm:"index;not null" json:"user_id"`
	CategoryID      *uint      `gorm:"index" json:"category_id"`
	PublishedAt     *time.Time `json:"published_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Author   *User     `gorm:"foreignkey:UserID" json:"author,omitempty"`
	Category *Category `gorm:"foreignkey:CategoryID" json:"category,omitempty"`
	Tags     []Tag     `gorm:"many2many:post_tags" json:"tags"`
	Comments []Comment `gorm:"foreignkey:PostID" json:"-"`
}

// VisibleTo reports whether a post can be served to the given viewer.
// Drafts and posts scheduled for the future are only visible to their author.
func (p *Post) VisibleTo(viewerID uint) bool {
	if viewerID != 0 && viewerID == p.UserID {
		return true
	}
	if p.Status != StatusPublished {
		return false
	}
	return p.PublishedAt != nil && !p.PublishedAt.After(time.Now())
}

type Comment struct {
	ID         uint      `gorm:"primary_key" json:"id"`
	PostID     uint      `gorm:"index;not null" json:"post_id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	ParentID   *uint     `gorm:"index" json:"parent_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsApproved bool      `gorm:"not null" json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Author  *User     `gorm:"foreignkey:UserID" json:"author,omitempty"`
	Replies []Comment `gorm:"foreignkey:ParentID" json:"replies,omitempty"`
}

// IsReply reports whether the comment is nested under another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// CommentReaction is one user's emoji reaction on one comment. The composite
// unique index is the store-level guarantee that a (comment, user) pair never
// holds more than one row, no matter how toggles race.
type CommentReaction struct {
	ID        uint      `gorm:"primary_key" json:"id"`
	CommentID uint      `gorm:"unique_index:idx_comment_user;not null" json:"comment_id"`
	UserID    uint      `gorm:"unique_index:idx_comment_user;not null" json:"user_id"`
	Type      string    `gorm:"not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	ReactionLike  = "like"
	ReactionLove  = "love"
	ReactionLaugh = "laugh"
	ReactionWow   = "wow"
	ReactionSad   = "sad"
	ReactionAngry = "angry"
)

// ReactionTypes lists every valid reaction in its canonical order. The order
// doubles as the tie-break when reaction counts are equal.
var ReactionTypes = []string{
	ReactionLike, ReactionLove, ReactionLaugh, ReactionWow, ReactionSad, ReactionAngry,
}

// ReactionEmojis maps reaction types to the glyphs clients render.
var ReactionEmojis = map[string]string{
	ReactionLike:  "👍",
	ReactionLove:  "❤️",
	ReactionLaugh: "😄",
	ReactionWow:   "😮",
	ReactionSad:   "😢",
	ReactionAngry: "😠",
}

// IsValidReaction reports whether t is one of the known reaction types.
func IsValidReaction(t string) bool {
	for _, known := range ReactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

type NewsletterSubscriber struct {
	ID               uint      `gorm:"primary_key" json:"id"`
	Email            string    `gorm:"unique_index;not null" json:"email"`
	IsActive         bool      `gorm:"not null" json:"is_active"`
	IsVerified       bool      `gorm:"not null;default:false" json:"is_verified"`
	UnsubscribeToken string    `gorm:"unique_index;not null" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
