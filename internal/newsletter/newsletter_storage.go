package newsletter

import "github.com/nstepa/inkpost/models"

// SubscribeResult distinguishes the three subscribe outcomes: a fresh row, a
// reactivated one, or an email that is already actively subscribed.
type SubscribeResult struct {
	Subscriber        *models.NewsletterSubscriber `json:"-"`
	AlreadySubscribed bool                         `json:"already_subscribed"`
	Reactivated       bool                         `json:"reactivated"`
}

type Storage interface {
	// Subscribe adds or reactivates a subscriber. The welcome email is sent
	// fire-and-forget; a delivery failure never fails the subscription.
	Subscribe(email string) (*SubscribeResult, error)

	// Unsubscribe deactivates the subscriber holding the token. The row is
	// kept so a later subscribe reactivates instead of duplicating.
	Unsubscribe(token string) error
}
