package user

import (
	"context"

	"github.com/nstepa/inkpost/models"
)

// ProfileUpdate uses pointers so absent fields are left untouched.
type ProfileUpdate struct {
	Bio                *string
	Avatar             *string
	Location           *string
	Website            *string
	Twitter            *string
	Github             *string
	Linkedin           *string
	IsPublic           *bool
	EmailNotifications *bool
}

// Stats summarizes a user's activity for profile pages.
type Stats struct {
	TotalPosts    int  `json:"total_posts"`
	TotalDrafts   int  `json:"total_drafts"`
	TotalComments int  `json:"total_comments"`
	TotalViews    uint `json:"total_views"`
}

type UserStorage interface {
	// Register creates the user and their profile in one transaction.
	Register(username, email, password string) (*models.User, error)

	// Login verifies credentials and returns a signed JWT.
	Login(username, password string) (string, error)

	// GetByUsername returns a user with their profile attached. A private
	// profile is only returned to its owner; others get the bare user.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	UpdateProfile(ctx context.Context, in ProfileUpdate) (*models.UserProfile, error)

	Stats(userID uint) (*Stats, error)
}
