package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/prepdeck/prepdeck/pkg/subscription"
)

// Event is a decoded webhook notification. The concrete types are the
// exported structs in this file.
type Event interface {
	Meta() EventMeta
	isEvent()
}

// EventMeta is shared by every event.
type EventMeta struct {
	ID         string
	Type       string // provider event name, e.g. "subscription.updated"
	OccurredAt time.Time
}

func (m EventMeta) Meta() EventMeta { return m }

// SubscriptionState is the subscription snapshot carried by subscription events.
type SubscriptionState struct {
	SubscriptionID   string
	CustomerID       string
	UserID           uuid.UUID // from custom data; uuid.Nil when absent
	Email            string
	Status           subscription.Status
	PriceID          string
	CurrentPeriodEnd *time.Time
	CanceledAt       *time.Time
}

// SubscriptionActivated is sent when a subscription is created or activated.
type SubscriptionActivated struct {
	EventMeta
	SubscriptionState
}

// SubscriptionUpdated covers plan changes, renewals and status transitions.
type SubscriptionUpdated struct {
	EventMeta
	SubscriptionState
}

// SubscriptionCancelled is sent when a subscription ends.
type SubscriptionCancelled struct {
	EventMeta
	SubscriptionState
}

// Payment describes a transaction.
type Payment struct {
	TransactionID  string
	SubscriptionID string
	CustomerID     string
	UserID         uuid.UUID
	Email          string
	PriceID        string
	Amount         string // minor units as sent by the provider
	Currency       string
}

type PaymentSucceeded struct {
	EventMeta
	Payment
}

type PaymentFailed struct {
	EventMeta
	Payment
}

// UnrecognizedEvent is any event type this service does not act on.
type UnrecognizedEvent struct {
	EventMeta
}

func (SubscriptionActivated) isEvent() {}
func (SubscriptionUpdated) isEvent()   {}
func (SubscriptionCancelled) isEvent() {}
func (PaymentSucceeded) isEvent()      {}
func (PaymentFailed) isEvent()         {}
func (UnrecognizedEvent) isEvent()     {}
