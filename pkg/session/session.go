package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/prepdeck/prepdeck/pkg/plan"
)

// Session is an authenticated caller.
type Session struct {
	UserID uuid.UUID
	Email  string
	Tier   plan.Tier
	// PeriodEnd is the end of the paid billing period, nil on FREE.
	PeriodEnd *time.Time
}

type contextKey struct{}

// WithSession stores sess in ctx.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session stored by the middleware.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(Session)
	return sess, ok
}
