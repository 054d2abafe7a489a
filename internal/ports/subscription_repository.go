package ports

import (
	"context"
	"time"
)

// SubscriptionData represents subscription data for persistence
type SubscriptionData struct {
	ID               uint
	Email            string
	City             string
	Frequency        string
	Confirmed        bool
	ConfirmToken     string
	UnsubscribeToken string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SubscriptionRepository defines the contract for subscription data persistence.
// It is the only owner of subscription records and enforces uniqueness of email,
// confirm token and unsubscribe token.
type SubscriptionRepository interface {
	// Create inserts a new record and assigns its ID. A uniqueness violation is
	// reported as an AlreadyExists error.
	Create(ctx context.Context, sub *SubscriptionData) error
	FindByEmail(ctx context.Context, email string) (*SubscriptionData, error)
	FindByConfirmToken(ctx context.Context, token string) (*SubscriptionData, error)
	FindByUnsubscribeToken(ctx context.Context, token string) (*SubscriptionData, error)
	// MarkConfirmed flips confirmed to true if it is still false and reports whether
	// this call performed the flip.
	MarkConfirmed(ctx context.Context, id uint) (bool, error)
	// Delete removes the record and reports whether a row was removed.
	Delete(ctx context.Context, id uint) (bool, error)
	ListConfirmedByFrequency(ctx context.Context, frequency string) ([]*SubscriptionData, error)
	CountByFrequency(ctx context.Context, frequency string) (int64, error)
	CountConfirmed(ctx context.Context) (int64, error)
}

// TokenGenerator produces unguessable opaque tokens for confirm and unsubscribe links
type TokenGenerator interface {
	NewToken() (string, error)
}
