package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/prepdeck/prepdeck/pkg/logger"
	"github.com/prepdeck/prepdeck/pkg/plan"
	"github.com/prepdeck/prepdeck/pkg/subscription"
)

// Processor applies billing events to subscription records and starts
// checkout and portal flows.
type Processor struct {
	catalog    *plan.Catalog
	store      subscription.Store
	provider   Provider
	dedupe     Deduper
	notifier   Notifier
	successURL string
	now        func() time.Time
	log        *slog.Logger
}

type ProcessorOption func(*Processor)

func WithDeduper(d Deduper) ProcessorOption {
	return func(p *Processor) {
		if d != nil {
			p.dedupe = d
		}
	}
}

func WithNotifier(n Notifier) ProcessorOption {
	return func(p *Processor) {
		if n != nil {
			p.notifier = n
		}
	}
}

func WithSuccessURL(u string) ProcessorOption {
	return func(p *Processor) { p.successURL = u }
}

func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

func NewProcessor(catalog *plan.Catalog, store subscription.Store, provider Provider, opts ...ProcessorOption) *Processor {
	if catalog == nil || store == nil || provider == nil {
		panic("billing: catalog, store and provider are required")
	}
	p := &Processor{
		catalog:  catalog,
		store:    store,
		provider: provider,
		dedupe:   NewMemoryDeduper(),
		notifier: nopNotifier{},
		now:      time.Now,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Verify checks a webhook signature and decodes the body.
func (p *Processor) Verify(ctx context.Context, payload []byte, signature string) (Event, error) {
	if err := p.provider.VerifyWebhook(ctx, payload, signature); err != nil {
		return nil, err
	}
	return ParseEvent(payload)
}

// Apply handles one event at most once. A nil error means the event may be
// acknowledged; on error the claim is released so a redelivery is retried.
func (p *Processor) Apply(ctx context.Context, ev Event) error {
	meta := ev.Meta()
	log := p.log.With(logger.EventID(meta.ID), logger.EventType(meta.Type))

	fresh, err := p.dedupe.Claim(ctx, meta.ID)
	if err != nil {
		return fmt.Errorf("claim event %s: %w", meta.ID, err)
	}
	if !fresh {
		log.DebugContext(ctx, "duplicate webhook event ignored")
		return nil
	}

	if err := p.apply(ctx, log, ev); err != nil {
		if rerr := p.dedupe.Release(ctx, meta.ID); rerr != nil {
			log.ErrorContext(ctx, "release webhook claim", logger.Error(rerr))
		}
		return err
	}
	return nil
}

func (p *Processor) apply(ctx context.Context, log *slog.Logger, ev Event) error {
	switch e := ev.(type) {
	case SubscriptionActivated:
		return p.upsert(ctx, log, e.EventMeta, e.SubscriptionState)
	case SubscriptionUpdated:
		return p.upsert(ctx, log, e.EventMeta, e.SubscriptionState)
	case SubscriptionCancelled:
		return p.cancel(ctx, log, e)
	case PaymentSucceeded:
		return p.paymentSucceeded(ctx, log, e)
	case PaymentFailed:
		return p.paymentFailed(ctx, log, e)
	case UnrecognizedEvent:
		log.InfoContext(ctx, "unhandled webhook event acknowledged")
		return nil
	}
	return fmt.Errorf("%w: unsupported event %T", ErrMalformedEvent, ev)
}

// lookup finds the record for an event, by user id first and provider
// subscription id second. It returns nil without error when neither matches.
func (p *Processor) lookup(ctx context.Context, userID uuid.UUID, providerSubID string) (*subscription.Subscription, error) {
	if userID != uuid.Nil {
		sub, err := p.store.Get(ctx, userID)
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, subscription.ErrSubscriptionNotFound) {
			return nil, err
		}
	}
	if providerSubID != "" {
		sub, err := p.store.GetByProviderID(ctx, providerSubID)
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, subscription.ErrSubscriptionNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// stale reports whether an event is older than the last one applied to sub.
// Paddle does not deliver events in order.
func (p *Processor) stale(ctx context.Context, log *slog.Logger, sub *subscription.Subscription, meta EventMeta) bool {
	if !sub.IsStale(meta.OccurredAt) {
		return false
	}
	log.InfoContext(ctx, "stale webhook event ignored",
		logger.UserID(sub.UserID.String()),
		slog.Time("occurred_at", meta.OccurredAt),
		slog.Time("last_event_at", *sub.LastEventAt),
	)
	return true
}

func (p *Processor) upsert(ctx context.Context, log *slog.Logger, meta EventMeta, st SubscriptionState) error {
	target, err := p.catalog.FindByPriceID(st.PriceID)
	if errors.Is(err, plan.ErrPlanNotFound) {
		log.WarnContext(ctx, "webhook references unknown price, tier unchanged",
			logger.PriceID(st.PriceID),
			logger.UserID(st.UserID.String()),
		)
		return nil
	}
	if err != nil {
		return err
	}

	sub, err := p.lookup(ctx, st.UserID, st.SubscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		if st.UserID == uuid.Nil {
			log.WarnContext(ctx, "subscription event without user id for unknown subscription")
			return nil
		}
		sub = &subscription.Subscription{UserID: st.UserID, CreatedAt: p.now()}
	}
	if p.stale(ctx, log, sub, meta) {
		return nil
	}

	sub.Tier = target.Tier
	sub.Status = st.Status
	sub.ProviderSubscriptionID = st.SubscriptionID
	if st.CustomerID != "" {
		sub.ProviderCustomerID = st.CustomerID
	}
	if st.Email != "" {
		sub.Email = st.Email
	}
	sub.CurrentPeriodEnd = st.CurrentPeriodEnd
	sub.CancelledAt = st.CanceledAt
	sub.RecordEvent(meta.OccurredAt)
	sub.UpdatedAt = p.now()

	if err := p.store.Save(ctx, sub); err != nil {
		return err
	}
	log.InfoContext(ctx, "subscription updated",
		logger.UserID(sub.UserID.String()),
		logger.Tier(string(sub.Tier)),
		slog.String("status", string(sub.Status)),
	)
	return nil
}

func (p *Processor) cancel(ctx context.Context, log *slog.Logger, e SubscriptionCancelled) error {
	sub, err := p.lookup(ctx, e.UserID, e.SubscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		log.WarnContext(ctx, "cancellation for unknown subscription acknowledged")
		return nil
	}
	if p.stale(ctx, log, sub, e.EventMeta) {
		return nil
	}

	cancelledAt := p.now()
	if e.CanceledAt != nil {
		cancelledAt = *e.CanceledAt
	}
	sub.Status = subscription.StatusCancelled
	sub.CancelledAt = &cancelledAt
	sub.RecordEvent(e.OccurredAt)
	sub.UpdatedAt = p.now()
	if err := p.store.Save(ctx, sub); err != nil {
		return err
	}

	if err := p.notifier.SubscriptionCancelled(ctx, sub); err != nil {
		log.ErrorContext(ctx, "cancellation notice not sent", logger.UserID(sub.UserID.String()), logger.Error(err))
	}
	return nil
}

func (p *Processor) paymentSucceeded(ctx context.Context, log *slog.Logger, e PaymentSucceeded) error {
	sub, err := p.lookup(ctx, e.UserID, e.SubscriptionID)
	if err != nil {
		return err
	}
	if sub == nil || p.stale(ctx, log, sub, e.EventMeta) {
		return nil
	}
	if sub.Status != subscription.StatusPastDue {
		log.DebugContext(ctx, "payment recorded")
		return nil
	}

	sub.Status = subscription.StatusActive
	sub.RecordEvent(e.OccurredAt)
	sub.UpdatedAt = p.now()
	return p.store.Save(ctx, sub)
}

func (p *Processor) paymentFailed(ctx context.Context, log *slog.Logger, e PaymentFailed) error {
	sub, err := p.lookup(ctx, e.UserID, e.SubscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		log.WarnContext(ctx, "payment failure for unknown subscription acknowledged")
		return nil
	}
	if p.stale(ctx, log, sub, e.EventMeta) {
		return nil
	}

	if sub.Status == subscription.StatusActive || sub.Status == subscription.StatusTrialing {
		sub.Status = subscription.StatusPastDue
		sub.RecordEvent(e.OccurredAt)
		sub.UpdatedAt = p.now()
		if err := p.store.Save(ctx, sub); err != nil {
			return err
		}
	}

	if err := p.notifier.PaymentFailed(ctx, sub, e.Payment); err != nil {
		log.ErrorContext(ctx, "payment failure notice not sent", logger.UserID(sub.UserID.String()), logger.Error(err))
	}
	return nil
}

// Checkout starts a hosted checkout for tier at interval. An empty interval
// means the tier's own billing interval.
func (p *Processor) Checkout(ctx context.Context, userID uuid.UUID, userEmail string, tier plan.Tier, interval plan.Interval) (*CheckoutLink, error) {
	if tier == plan.TierFree {
		return nil, ErrFreePlanCheckout
	}
	target, err := p.catalog.Plan(tier)
	if err != nil {
		return nil, err
	}

	priceID := target.CheckoutPriceID()
	if interval != "" {
		priceID = target.PriceRefs.For(interval)
	}
	if priceID == "" {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotPurchasable, tier, interval)
	}

	return p.provider.CreateCheckout(ctx, CheckoutRequest{
		PriceID:    priceID,
		UserID:     userID,
		Email:      userEmail,
		SuccessURL: p.successURL,
	})
}

// Portal returns a customer portal link for the user's subscription.
func (p *Processor) Portal(ctx context.Context, userID uuid.UUID) (*PortalLink, error) {
	sub, err := p.store.Get(ctx, userID)
	if errors.Is(err, subscription.ErrSubscriptionNotFound) {
		return nil, ErrNoBillingAccount
	}
	if err != nil {
		return nil, err
	}
	if sub.ProviderCustomerID == "" {
		return nil, ErrNoBillingAccount
	}

	var subIDs []string
	if sub.ProviderSubscriptionID != "" {
		subIDs = append(subIDs, sub.ProviderSubscriptionID)
	}
	return p.provider.CreatePortalLink(ctx, sub.ProviderCustomerID, subIDs...)
}
