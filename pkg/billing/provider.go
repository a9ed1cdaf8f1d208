package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Provider is the billing provider surface the service uses.
type Provider interface {
	// VerifyWebhook checks the signature header against the raw body.
	VerifyWebhook(ctx context.Context, payload []byte, signature string) error
	// CreateCheckout starts a hosted checkout for one price.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)
	// CreatePortalLink returns a pre-authenticated customer portal link.
	CreatePortalLink(ctx context.Context, customerID string, subscriptionIDs ...string) (*PortalLink, error)
}

// CheckoutRequest carries what the provider needs to open a checkout. UserID
// and Email travel as custom data and come back on every webhook.
type CheckoutRequest struct {
	PriceID    string
	UserID     uuid.UUID
	Email      string
	SuccessURL string
}

type CheckoutLink struct {
	URL       string    `json:"url"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PortalLink struct {
	URL              string    `json:"url"`
	CancelURL        string    `json:"cancel_url,omitempty"`
	UpdatePaymentURL string    `json:"update_payment_url,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
}
