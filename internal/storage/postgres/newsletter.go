package postgres

import (
	"fmt"
	"log"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"

	"github.com/nstepa/inkpost/internal/mailer"
	"github.com/nstepa/inkpost/internal/newsletter"
	"github.com/nstepa/inkpost/models"
)

const welcomeSubject = "Welcome to the newsletter!"

const welcomeBody = `Hello!

Thank you for subscribing to our newsletter. You'll receive updates on our
latest posts and content.

If you didn't subscribe, please ignore this email.
`

type NewsletterPostgresStorage struct {
	mailer mailer.Mailer
}

// NewNewsletterPostgresStorage wires the subscriber store with the mailer
// used for the fire-and-forget welcome message. mailer may be nil.
func NewNewsletterPostgresStorage(m mailer.Mailer) *NewsletterPostgresStorage {
	return &NewsletterPostgresStorage{mailer: m}
}

func (s *NewsletterPostgresStorage) Subscribe(email string) (*newsletter.SubscribeResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", models.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid email address", models.ErrValidation, email)
	}

	var sub models.NewsletterSubscriber
	err := DB.Where("email = ?", email).First(&sub).Error
	switch {
	case err == nil && sub.IsActive:
		return &newsletter.SubscribeResult{Subscriber: &sub, AlreadySubscribed: true}, nil

	case err == nil:
		// A previously unsubscribed email comes back on the same row.
		if err := DB.Model(&sub).Update("is_active", true).Error; err != nil {
			return nil, fmt.Errorf("could not reactivate subscription: %w", err)
		}
		sub.IsActive = true
		s.sendWelcome(email)
		return &newsletter.SubscribeResult{Subscriber: &sub, Reactivated: true}, nil

	case !gorm.IsRecordNotFoundError(err):
		return nil, fmt.Errorf("could not get subscriber: %w", err)
	}

	sub = models.NewsletterSubscriber{
		Email:            email,
		IsActive:         true,
		IsVerified:       true,
		UnsubscribeToken: uuid.New().String(),
	}
	if err := DB.Create(&sub).Error; err != nil {
		if isUniqueViolation(err) {
			// A concurrent subscribe for the same email won; the unique
			// index guarantees a single row either way.
			if err := DB.Where("email = ?", email).First(&sub).Error; err != nil {
				return nil, fmt.Errorf("could not get subscriber after conflict: %w", err)
			}
			return &newsletter.SubscribeResult{Subscriber: &sub, AlreadySubscribed: true}, nil
		}
		return nil, fmt.Errorf("could not create subscriber: %w", err)
	}

	s.sendWelcome(email)
	return &newsletter.SubscribeResult{Subscriber: &sub}, nil
}

// sendWelcome is best effort: a delivery failure is logged and swallowed,
// never surfaced to the subscriber.
func (s *NewsletterPostgresStorage) sendWelcome(email string) {
	if s.mailer == nil {
		return
	}
	go func() {
		if err := s.mailer.Send(email, welcomeSubject, welcomeBody); err != nil {
			log.Printf("could not send welcome email to %s: %v", email, err)
		}
	}()
}

func (s *NewsletterPostgresStorage) Unsubscribe(token string) error {
	var sub models.NewsletterSubscriber
	if err := DB.Where("unsubscribe_token = ?", token).First(&sub).Error; err != nil {
		return fmt.Errorf("%w: unknown unsubscribe token", models.ErrNotFound)
	}

	if err := DB.Model(&sub).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("could not unsubscribe: %w", err)
	}
	return nil
}
