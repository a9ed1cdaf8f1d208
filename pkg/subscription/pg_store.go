package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/prepdeck/prepdeck/pkg/plan"
)

// DB is the subset of pgxpool.Pool used by PGStore.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGStore keeps subscriptions in the subscriptions table.
type PGStore struct {
	db DB
}

func NewPGStore(db DB) *PGStore {
	return &PGStore{db: db}
}

const selectColumns = `SELECT user_id, tier, status, provider_subscription_id, provider_customer_id,
	email, current_period_end, cancelled_at, created_at, updated_at, last_event_at
	FROM subscriptions`

func (s *PGStore) Get(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	return s.get(ctx, selectColumns+" WHERE user_id = $1", userID)
}

func (s *PGStore) GetByProviderID(ctx context.Context, providerSubscriptionID string) (*Subscription, error) {
	if providerSubscriptionID == "" {
		return nil, ErrSubscriptionNotFound
	}
	return s.get(ctx, selectColumns+" WHERE provider_subscription_id = $1", providerSubscriptionID)
}

func (s *PGStore) get(ctx context.Context, query string, arg any) (*Subscription, error) {
	var (
		sub    Subscription
		tier   string
		status string
	)
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&sub.UserID,
		&tier,
		&status,
		&sub.ProviderSubscriptionID,
		&sub.ProviderCustomerID,
		&sub.Email,
		&sub.CurrentPeriodEnd,
		&sub.CancelledAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
		&sub.LastEventAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	parsed, err := plan.ParseTier(tier)
	if err != nil {
		return nil, fmt.Errorf("%w: stored tier %q: %w", ErrInvalidSubscription, tier, err)
	}
	sub.Tier = parsed
	sub.Status = ParseStatus(status)
	return &sub, nil
}

const upsertSubscription = `INSERT INTO subscriptions (
	user_id, tier, status, provider_subscription_id, provider_customer_id,
	email, current_period_end, cancelled_at, last_event_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
ON CONFLICT (user_id) DO UPDATE SET
	tier = EXCLUDED.tier,
	status = EXCLUDED.status,
	provider_subscription_id = EXCLUDED.provider_subscription_id,
	provider_customer_id = EXCLUDED.provider_customer_id,
	email = EXCLUDED.email,
	current_period_end = EXCLUDED.current_period_end,
	cancelled_at = EXCLUDED.cancelled_at,
	last_event_at = EXCLUDED.last_event_at,
	updated_at = now()
WHERE subscriptions.last_event_at IS NULL
	OR EXCLUDED.last_event_at IS NULL
	OR EXCLUDED.last_event_at >= subscriptions.last_event_at`

func (s *PGStore) Save(ctx context.Context, sub *Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	_, err := s.db.Exec(ctx, upsertSubscription,
		sub.UserID,
		string(sub.Tier),
		string(sub.Status),
		sub.ProviderSubscriptionID,
		sub.ProviderCustomerID,
		sub.Email,
		sub.CurrentPeriodEnd,
		sub.CancelledAt,
		sub.LastEventAt,
	)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
