package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/prepdeck/prepdeck/pkg/logger"
	"github.com/prepdeck/prepdeck/pkg/subscription"
)

// SubscriptionReader is the part of subscription.Store the provider reads.
type SubscriptionReader interface {
	Get(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error)
}

// Provider authenticates requests.
type Provider struct {
	tokens *Tokens
	subs   SubscriptionReader
	log    *slog.Logger
}

func NewProvider(tokens *Tokens, subs SubscriptionReader, log *slog.Logger) *Provider {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Provider{tokens: tokens, subs: subs, log: log}
}

// Authenticate verifies the bearer token and resolves the caller's tier.
// Users without a subscription record are on FREE. A failing store yields
// ErrLookupFailed rather than a silent downgrade.
func (p *Provider) Authenticate(r *http.Request) (Session, error) {
	raw, err := BearerToken(r)
	if err != nil {
		return Session{}, err
	}

	claims, userID, err := p.tokens.Verify(raw)
	if err != nil {
		return Session{}, err
	}

	sess, err := p.Resolve(r.Context(), userID)
	if err != nil {
		return Session{}, err
	}
	sess.Email = claims.Email
	return sess, nil
}

// Resolve builds the session for a known user id.
func (p *Provider) Resolve(ctx context.Context, userID uuid.UUID) (Session, error) {
	sub, err := p.subs.Get(ctx, userID)
	switch {
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		sub = nil
	case err != nil:
		p.log.ErrorContext(ctx, "subscription lookup failed", logger.UserID(userID.String()), logger.Error(err))
		return Session{}, errors.Join(ErrLookupFailed, err)
	}

	sess := Session{UserID: userID, Tier: sub.EffectiveTier()}
	if sub != nil && sub.IsActive() {
		sess.PeriodEnd = sub.CurrentPeriodEnd
	}
	return sess, nil
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}
