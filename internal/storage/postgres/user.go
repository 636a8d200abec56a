package postgres

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/nstepa/inkpost/internal/auth"
	"github.com/nstepa/inkpost/internal/user"
	"github.com/nstepa/inkpost/models"
)

const minPasswordLength = 6

type UserPostgresStorage struct{}

func NewUserPostgresStorage() *UserPostgresStorage {
	return &UserPostgresStorage{}
}

// Register creates the user together with their profile in one transaction,
// so no request can ever observe a user without a profile.
func (s *UserPostgresStorage) Register(username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", models.ErrValidation)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", models.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", models.ErrValidation, minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
	}

	tx := DB.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", tx.Error)
	}

	if err := tx.Create(u).Error; err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: username or email already taken", models.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	profile := &models.UserProfile{
		UserID:             u.ID,
		IsPublic:           true,
		EmailNotifications: true,
	}
	if err := tx.Create(profile).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("could not commit registration: %w", err)
	}

	u.Profile = profile
	return u, nil
}

func (s *UserPostgresStorage) Login(username, password string) (string, error) {
	var u models.User
	if err := DB.Where("username = ?", username).First(&u).Error; err != nil {
		return "", fmt.Errorf("user with username %s not found", username)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid password or username: %w", err)
	}

	token, err := auth.IssueToken(u.ID, u.Username)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *UserPostgresStorage) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := DB.Where("username = ?", username).Preload("Profile").First(&u).Error
	if err != nil {
		return nil, fmt.Errorf("%w: user %q", models.ErrNotFound, username)
	}

	// Private profiles are only shown to their owner; everyone else gets the
	// bare account.
	if u.Profile != nil && !u.Profile.IsPublic && auth.ViewerID(ctx) != u.ID {
		u.Profile = nil
	}

	return &u, nil
}

func (s *UserPostgresStorage) UpdateProfile(ctx context.Context, in user.ProfileUpdate) (*models.UserProfile, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}

	var profile models.UserProfile
	if err := DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, fmt.Errorf("%w: profile for user %d", models.ErrNotFound, userID)
	}

	if in.Bio != nil {
		profile.Bio = *in.Bio
	}
	if in.Avatar != nil {
		profile.Avatar = *in.Avatar
	}
	if in.Location != nil {
		profile.Location = *in.Location
	}
	if in.Website != nil {
		profile.Website = *in.Website
	}
	if in.Twitter != nil {
		profile.Twitter = *in.Twitter
	}
	if in.Github != nil {
		profile.Github = *in.Github
	}
	if in.Linkedin != nil {
		profile.Linkedin = *in.Linkedin
	}
	if in.IsPublic != nil {
		profile.IsPublic = *in.IsPublic
	}
	if in.EmailNotifications != nil {
		profile.EmailNotifications = *in.EmailNotifications
	}

	if err := DB.Save(&profile).Error; err != nil {
		return nil, fmt.Errorf("could not update profile: %w", err)
	}
	return &profile, nil
}

func (s *UserPostgresStorage) Stats(userID uint) (*user.Stats, error) {
	stats := &user.Stats{}

	err := DB.Model(&models.Post{}).
		Where("user_id = ? AND status = ?", userID, models.StatusPublished).
		Count(&stats.TotalPosts).Error
	if err != nil {
		return nil, fmt.Errorf("could not count posts: %w", err)
	}

	err = DB.Model(&models.Post{}).
		Where("user_id = ? AND status = ?", userID, models.StatusDraft).
		Count(&stats.TotalDrafts).Error
	if err != nil {
		return nil, fmt.Errorf("could not count drafts: %w", err)
	}

	err = DB.Model(&models.Comment{}).
		Where("user_id = ?", userID).
		Count(&stats.TotalComments).Error
	if err != nil {
		return nil, fmt.Errorf("could not count comments: %w", err)
	}

	row := DB.Model(&models.Post{}).
		Where("user_id = ? AND status = ?", userID, models.StatusPublished).
		Select("COALESCE(SUM(views_count), 0)").Row()
	if err := row.Scan(&stats.TotalViews); err != nil {
		return nil, fmt.Errorf("could not sum views: %w", err)
	}

	return stats, nil
}
