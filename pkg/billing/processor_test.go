package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prepdeck/prepdeck/pkg/billing"
	"github.com/prepdeck/prepdeck/pkg/plan"
	"github.com/prepdeck/prepdeck/pkg/subscription"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) VerifyWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.Called(ctx, payload, signature).Error(0)
}

func (m *mockProvider) CreateCheckout(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutLink, error) {
	args := m.Called(ctx, req)
	if link := args.Get(0); link != nil {
		return link.(*billing.CheckoutLink), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) CreatePortalLink(ctx context.Context, customerID string, subscriptionIDs ...string) (*billing.PortalLink, error) {
	args := m.Called(ctx, customerID, subscriptionIDs)
	if link := args.Get(0); link != nil {
		return link.(*billing.PortalLink), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) PaymentFailed(ctx context.Context, sub *subscription.Subscription, p billing.Payment) error {
	return m.Called(ctx, sub, p).Error(0)
}

func (m *mockNotifier) SubscriptionCancelled(ctx context.Context, sub *subscription.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

// failingStore wraps a MemoryStore and fails the first n saves.
type failingStore struct {
	*subscription.MemoryStore
	failures int
}

func (s *failingStore) Save(ctx context.Context, sub *subscription.Subscription) error {
	if s.failures > 0 {
		s.failures--
		return subscription.ErrStoreUnavailable
	}
	return s.MemoryStore.Save(ctx, sub)
}

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func testCatalog(t *testing.T) *plan.Catalog {
	t.Helper()
	catalog, err := plan.Standard(plan.PriceRefsByTier{
		plan.TierMonthly: {Monthly: "pri_monthly"},
		plan.TierYearly:  {Yearly: "pri_yearly"},
	})
	require.NoError(t, err)
	return catalog
}

func newProcessor(t *testing.T, store subscription.Store, opts ...billing.ProcessorOption) (*billing.Processor, *mockProvider) {
	t.Helper()
	provider := new(mockProvider)
	opts = append([]billing.ProcessorOption{billing.WithClock(func() time.Time { return now })}, opts...)
	return billing.NewProcessor(testCatalog(t), store, provider, opts...), provider
}

func activated(id string, userID uuid.UUID, priceID string) billing.SubscriptionActivated {
	end := now.AddDate(0, 1, 0)
	return billing.SubscriptionActivated{
		EventMeta: billing.EventMeta{ID: id, Type: "subscription.created", OccurredAt: now},
		SubscriptionState: billing.SubscriptionState{
			SubscriptionID:   "sub_" + id,
			CustomerID:       "ctm_1",
			UserID:           userID,
			Email:            "ana@example.com",
			Status:           subscription.StatusActive,
			PriceID:          priceID,
			CurrentPeriodEnd: &end,
		},
	}
}

func TestApplyActivation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := subscription.NewMemoryStore()
	proc, _ := newProcessor(t, store)
	userID := uuid.New()

	require.NoError(t, proc.Apply(ctx, activated("1", userID, "pri_monthly")))

	sub, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, plan.TierMonthly, sub.Tier)
	assert.Equal(t, subscription.StatusActive, sub.Status)
	assert.Equal(t, "ctm_1", sub.ProviderCustomerID)
	assert.Equal(t, "ana@example.com", sub.Email)
	assert.Equal(t, plan.TierMonthly, sub.EffectiveTier())
}

func TestApplyUnknownPriceIsAcknowledged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := subscription.NewMemoryStore()
	proc, _ := newProcessor(t, store)
	userID := uuid.New()

	require.NoError(t, proc.Apply(ctx, activated("1", userID, "pri_unknown")))

	_, err := store.Get(ctx, userID)
	require.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
}

func TestApplyIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := subscription.NewMemoryStore()
	proc, _ := newProcessor(t, store)
	userID := uuid.New()

	require.NoError(t, proc.Apply(ctx, activated("1", userID, "pri_yearly")))

	// A later downgrade, then a redelivery of the first event.
	downgrade := activated("2", userID, "pri_monthly")
	require.NoError(t, proc.Apply(ctx, downgrade))
	require.NoError(t, proc.Apply(ctx, activated("1", userID, "pri_yearly")))

	sub, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, plan.TierMonthly, sub.Tier)
}

func TestApplyFailureReleasesClaim(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &failingStore{MemoryStore: subscription.NewMemoryStore(), failures: 1}
	proc, _ := newProcessor(t, store)
	userID := uuid.New()
	ev := activated("1", userID, "pri_monthly")

	require.ErrorIs(t, proc.Apply(ctx, ev), subscription.ErrStoreUnavailable)
	require.NoError(t, proc.Apply(ctx, ev))

	sub, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, plan.TierMonthly, sub.Tier)
}

func TestApplyCancellation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := subscription.NewMemoryStore()
	notifier := new(mockNotifier)
	proc, _ := newProcessor(t, store, billing.WithNotifier(notifier))
	userID := uuid.New()

	require.NoError(t, proc.Apply(ctx, activated("1", userID, "pri_yearly")))

	notifier.On("SubscriptionCancelled", mock.Anything, mock.MatchedBy(func(s *subscription.Subscription) bool {
		return s.UserID == userID
	})).Return(nil).Once()

	// Cancellation carries only the provider subscription id.
	require.NoError(t, proc.Apply(ctx, billing.SubscriptionCancelled{
		EventMeta:         billing.EventMeta{ID: "2", Type: "subscription.canceled"},
		SubscriptionState: billing.SubscriptionState{SubscriptionID: "sub_1", Status: subscription.StatusCancelled},
	}))

	sub, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusCancelled, sub.Status)
	require.NotNil(t, sub.CancelledAt)
	assert.Equal(t, now, *sub.CancelledAt)
	assert.Equal(t, plan.TierFree, sub.EffectiveTier())
	notifier.AssertExpectations(t)
}

func TestApplyPaymentFailureAndRecovery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := subscription.NewMemoryStore()
	notifier := new(mockNotifier)
	proc, _ := newProcessor(t, store, billing.WithNotifier(notifier))
	userID := uuid.New()

	require.NoError(t, proc.Apply(ctx, activated("1", userID, "pri_monthly")))

	notifier.On("PaymentFailed", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	require.NoError(t, proc.Apply(ctx, billing.PaymentFailed{
		EventMeta: billing.EventMeta{ID: "2", Type: "transaction.payment_failed"},
		Payment:   billing.Payment{TransactionID: "txn_1", SubscriptionID: "sub_1", Amount: "1900", Currency: "USD"},
	}))

	sub, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusPastDue, sub.Status)

	require.NoError(t, proc.Apply(ctx, billing.PaymentSucceeded{
		EventMeta: billing.EventMeta{ID: "3", Type: "transaction.completed"},
		Payment:   billing.Payment{TransactionID: "txn_2", SubscriptionID: "sub_1"},
	}))

	sub, err = store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, sub.Status)
	notifier.AssertExpectations(t)
}

func TestApplyUnrecognized(t *testing.T) {
	t.Parallel()

	proc, _ := newProcessor(t, subscription.NewMemoryStore())
	require.NoError(t, proc.Apply(context.Background(), billing.UnrecognizedEvent{
		EventMeta: billing.EventMeta{ID: "x", Type: "address.created"},
	}))
}

func TestVerify(t *testing.T) {
	t.Parallel()

	proc, provider := newProcessor(t, subscription.NewMemoryStore())
	payload := []byte(subscriptionCreated)

	provider.On("VerifyWebhook", mock.Anything, payload, "good").Return(nil)
	provider.On("VerifyWebhook", mock.Anything, payload, "bad").Return(billing.ErrWebhookVerificationFailed)

	ev, err := proc.Verify(context.Background(), payload, "good")
	require.NoError(t, err)
	assert.IsType(t, billing.SubscriptionActivated{}, ev)

	_, err = proc.Verify(context.Background(), payload, "bad")
	require.ErrorIs(t, err, billing.ErrWebhookVerificationFailed)
}

func TestCheckout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	proc, provider := newProcessor(t, subscription.NewMemoryStore(), billing.WithSuccessURL("https://prepdeck.io/welcome"))
	userID := uuid.New()

	_, err := proc.Checkout(ctx, userID, "", plan.TierFree, "")
	require.ErrorIs(t, err, billing.ErrFreePlanCheckout)

	_, err = proc.Checkout(ctx, userID, "", plan.TierMonthly, plan.IntervalYearly)
	require.ErrorIs(t, err, billing.ErrNotPurchasable)

	want := &billing.CheckoutLink{URL: "https://pay.paddle.io/txn_1", SessionID: "txn_1"}
	provider.On("CreateCheckout", mock.Anything, billing.CheckoutRequest{
		PriceID:    "pri_yearly",
		UserID:     userID,
		Email:      "ana@example.com",
		SuccessURL: "https://prepdeck.io/welcome",
	}).Return(want, nil)

	got, err := proc.Checkout(ctx, userID, "ana@example.com", plan.TierYearly, "")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	provider.AssertExpectations(t)
}

func TestPortal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := subscription.NewMemoryStore()
	proc, provider := newProcessor(t, store)
	userID := uuid.New()

	_, err := proc.Portal(ctx, userID)
	require.ErrorIs(t, err, billing.ErrNoBillingAccount)

	require.NoError(t, proc.Apply(ctx, activated("1", userID, "pri_monthly")))

	want := &billing.PortalLink{URL: "https://customer-portal.paddle.com/cpl_1"}
	provider.On("CreatePortalLink", mock.Anything, "ctm_1", []string{"sub_1"}).Return(want, nil)

	got, err := proc.Portal(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestApplyIgnoresOutOfOrderEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := subscription.NewMemoryStore()
	notifier := new(mockNotifier)
	proc, _ := newProcessor(t, store, billing.WithNotifier(notifier))
	userID := uuid.New()

	require.NoError(t, proc.Apply(ctx, activated("1", userID, "pri_monthly")))

	cancelledAt := now.Add(2 * time.Hour)
	notifier.On("SubscriptionCancelled", mock.Anything, mock.Anything).Return(nil).Once()
	require.NoError(t, proc.Apply(ctx, billing.SubscriptionCancelled{
		EventMeta:         billing.EventMeta{ID: "2", Type: "subscription.canceled", OccurredAt: cancelledAt},
		SubscriptionState: billing.SubscriptionState{SubscriptionID: "sub_1", Status: subscription.StatusCancelled},
	}))

	t.Run("older update does not reactivate", func(t *testing.T) {
		late := activated("3", userID, "pri_yearly")
		late.OccurredAt = now.Add(time.Hour)
		require.NoError(t, proc.Apply(ctx, billing.SubscriptionUpdated(late)))

		sub, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCancelled, sub.Status)
		assert.Equal(t, plan.TierMonthly, sub.Tier)
		assert.Equal(t, plan.TierFree, sub.EffectiveTier())
		require.NotNil(t, sub.LastEventAt)
		assert.True(t, cancelledAt.Equal(*sub.LastEventAt))
	})

	t.Run("older payment failure sends nothing", func(t *testing.T) {
		require.NoError(t, proc.Apply(ctx, billing.PaymentFailed{
			EventMeta: billing.EventMeta{ID: "4", Type: "transaction.payment_failed", OccurredAt: now.Add(30 * time.Minute)},
			Payment:   billing.Payment{TransactionID: "txn_1", SubscriptionID: "sub_1"},
		}))

		sub, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCancelled, sub.Status)
	})

	t.Run("newer update applies", func(t *testing.T) {
		renewed := activated("5", userID, "pri_yearly")
		renewed.OccurredAt = now.Add(3 * time.Hour)
		require.NoError(t, proc.Apply(ctx, billing.SubscriptionUpdated(renewed)))

		sub, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, sub.Status)
		assert.Equal(t, plan.TierYearly, sub.EffectiveTier())
	})

	notifier.AssertExpectations(t)
}
