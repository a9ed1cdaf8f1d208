package subscription

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prepdeck/prepdeck/pkg/plan"
)

// Status mirrors the billing provider's subscription state.
type Status string

const (
	StatusTrialing  Status = "trialing"
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
)

// ParseStatus normalises a provider status. Unknown values are kept verbatim
// and treated as inactive.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trialing":
		return StatusTrialing
	case "active":
		return StatusActive
	case "past_due":
		return StatusPastDue
	case "paused":
		return StatusPaused
	case "canceled", "cancelled":
		return StatusCancelled
	}
	return Status(s)
}

// Subscription is the paid-plan state of one user.
type Subscription struct {
	UserID                 uuid.UUID
	Tier                   plan.Tier
	Status                 Status
	ProviderSubscriptionID string
	ProviderCustomerID     string
	Email                  string
	CurrentPeriodEnd       *time.Time // nil for FREE or when the provider sent none
	CancelledAt            *time.Time
	LastEventAt            *time.Time // provider time of the newest applied billing event
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsActive reports whether the subscription currently grants its tier.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive || s.Status == StatusTrialing
}

// EffectiveTier is the tier entitlements are evaluated against.
func (s *Subscription) EffectiveTier() plan.Tier {
	if s == nil || !s.IsActive() || !s.Tier.Valid() {
		return plan.TierFree
	}
	return s.Tier
}

// IsStale reports whether a provider event that occurred at t is older than
// the last one applied to this record. Events without a timestamp are never
// stale.
func (s *Subscription) IsStale(t time.Time) bool {
	if s == nil || s.LastEventAt == nil || t.IsZero() {
		return false
	}
	return t.Before(*s.LastEventAt)
}

// RecordEvent advances LastEventAt to t. It never moves backwards.
func (s *Subscription) RecordEvent(t time.Time) {
	if t.IsZero() || s.IsStale(t) {
		return
	}
	at := t.UTC()
	s.LastEventAt = &at
}

// Validate checks the fields every stored record must carry.
func (s *Subscription) Validate() error {
	switch {
	case s.UserID == uuid.Nil:
		return fmt.Errorf("%w: missing user id", ErrInvalidSubscription)
	case !s.Tier.Valid():
		return fmt.Errorf("%w: unknown tier %q", ErrInvalidSubscription, s.Tier)
	case s.Status == "":
		return fmt.Errorf("%w: missing status", ErrInvalidSubscription)
	}
	return nil
}
