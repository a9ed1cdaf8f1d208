package billing

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/prepdeck/prepdeck/pkg/email"
	"github.com/prepdeck/prepdeck/pkg/email/templates"
	"github.com/prepdeck/prepdeck/pkg/plan"
	"github.com/prepdeck/prepdeck/pkg/subscription"
)

// Notifier tells users about billing changes that need their attention.
type Notifier interface {
	PaymentFailed(ctx context.Context, sub *subscription.Subscription, p Payment) error
	SubscriptionCancelled(ctx context.Context, sub *subscription.Subscription) error
}

type nopNotifier struct{}

func (nopNotifier) PaymentFailed(context.Context, *subscription.Subscription, Payment) error {
	return nil
}

func (nopNotifier) SubscriptionCancelled(context.Context, *subscription.Subscription) error {
	return nil
}

type PaymentFailedParams struct {
	Tier     plan.Tier
	Amount   string
	Currency string
}

type SubscriptionCancelledParams struct {
	Tier plan.Tier
}

// NotifierViews holds the email body templates. Nil fields fall back to the
// built-in plain layouts.
type NotifierViews struct {
	PaymentFailed         func(PaymentFailedParams) templ.Component
	SubscriptionCancelled func(SubscriptionCancelledParams) templ.Component
}

// EmailNotifier sends billing notices through an email.Sender.
type EmailNotifier struct {
	sender email.Sender
	views  NotifierViews
}

type NotifierOption func(*EmailNotifier)

// WithViews overrides the email templates.
func WithViews(v NotifierViews) NotifierOption {
	return func(n *EmailNotifier) {
		if v.PaymentFailed != nil {
			n.views.PaymentFailed = v.PaymentFailed
		}
		if v.SubscriptionCancelled != nil {
			n.views.SubscriptionCancelled = v.SubscriptionCancelled
		}
	}
}

func NewEmailNotifier(sender email.Sender, opts ...NotifierOption) *EmailNotifier {
	n := &EmailNotifier{
		sender: sender,
		views: NotifierViews{
			PaymentFailed:         paymentFailedView,
			SubscriptionCancelled: subscriptionCancelledView,
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *EmailNotifier) PaymentFailed(ctx context.Context, sub *subscription.Subscription, p Payment) error {
	to := p.Email
	if to == "" {
		to = sub.Email
	}
	body, err := templates.Render(ctx, n.views.PaymentFailed(PaymentFailedParams{
		Tier:     sub.Tier,
		Amount:   p.Amount,
		Currency: p.Currency,
	}))
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, email.Message{
		To:       to,
		Subject:  "Action needed: your PrepDeck payment failed",
		HTMLBody: body,
		Tag:      "payment-failed",
	})
}

func (n *EmailNotifier) SubscriptionCancelled(ctx context.Context, sub *subscription.Subscription) error {
	body, err := templates.Render(ctx, n.views.SubscriptionCancelled(SubscriptionCancelledParams{Tier: sub.Tier}))
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, email.Message{
		To:       sub.Email,
		Subject:  "Your PrepDeck subscription was cancelled",
		HTMLBody: body,
		Tag:      "subscription-cancelled",
	})
}

func paymentFailedView(p PaymentFailedParams) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		amount := ""
		if p.Amount != "" {
			amount = " (" + templ.EscapeString(p.Amount+" "+p.Currency) + ")"
		}
		_, err := fmt.Fprintf(w, `<p>Hi,</p>
<p>We could not charge your card for your PrepDeck %s plan%s.</p>
<p>Please update your payment method to keep unlimited practice sessions. Until then your account is on the Free plan limits.</p>`,
			templ.EscapeString(string(p.Tier)), amount)
		return err
	})
}

func subscriptionCancelledView(p SubscriptionCancelledParams) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<p>Hi,</p>
<p>Your PrepDeck %s subscription has been cancelled. Your account now uses the Free plan limits.</p>
<p>Your interviews, CVs and cover letters stay available, and you can resubscribe at any time.</p>`,
			templ.EscapeString(string(p.Tier)))
		return err
	})
}
