package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Store persists one subscription per user.
type Store interface {
	// Get returns ErrSubscriptionNotFound when the user has no record.
	Get(ctx context.Context, userID uuid.UUID) (*Subscription, error)
	// Save inserts or replaces the user's record.
	Save(ctx context.Context, sub *Subscription) error
	// GetByProviderID finds the record owning a provider subscription id.
	GetByProviderID(ctx context.Context, providerSubscriptionID string) (*Subscription, error)
}
