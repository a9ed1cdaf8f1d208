package billing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prepdeck/prepdeck/pkg/subscription"
)

type envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type customData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type priceRef struct {
	ID string `json:"id"`
}

type lineItem struct {
	PriceID string   `json:"price_id"`
	Price   priceRef `json:"price"`
}

func (li lineItem) priceID() string {
	if li.Price.ID != "" {
		return li.Price.ID
	}
	return li.PriceID
}

type billingPeriod struct {
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

type subscriptionData struct {
	ID                   string         `json:"id"`
	Status               string         `json:"status"`
	CustomerID           string         `json:"customer_id"`
	Items                []lineItem     `json:"items"`
	CurrentBillingPeriod *billingPeriod `json:"current_billing_period"`
	CanceledAt           *time.Time     `json:"canceled_at"`
	CustomData           *customData    `json:"custom_data"`
}

type transactionData struct {
	ID             string      `json:"id"`
	SubscriptionID string      `json:"subscription_id"`
	CustomerID     string      `json:"customer_id"`
	CurrencyCode   string      `json:"currency_code"`
	Items          []lineItem  `json:"items"`
	CustomData     *customData `json:"custom_data"`
	Details        *struct {
		Totals struct {
			GrandTotal string `json:"grand_total"`
		} `json:"totals"`
	} `json:"details"`
}

// ParseEvent decodes a Paddle webhook body. Unknown event types become
// UnrecognizedEvent; known types with missing required fields fail with
// ErrMalformedEvent.
func ParseEvent(payload []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.EventID == "" || env.EventType == "" {
		return nil, fmt.Errorf("%w: missing event id or type", ErrMalformedEvent)
	}

	meta := EventMeta{ID: env.EventID, Type: env.EventType, OccurredAt: env.OccurredAt}

	switch env.EventType {
	case "subscription.created", "subscription.activated":
		state, err := parseSubscription(env.Data)
		if err != nil {
			return nil, err
		}
		return SubscriptionActivated{EventMeta: meta, SubscriptionState: state}, nil

	case "subscription.updated", "subscription.resumed", "subscription.past_due",
		"subscription.paused", "subscription.trialing":
		state, err := parseSubscription(env.Data)
		if err != nil {
			return nil, err
		}
		return SubscriptionUpdated{EventMeta: meta, SubscriptionState: state}, nil

	case "subscription.canceled":
		state, err := parseSubscription(env.Data)
		if err != nil {
			return nil, err
		}
		state.Status = subscription.StatusCancelled
		return SubscriptionCancelled{EventMeta: meta, SubscriptionState: state}, nil

	case "transaction.completed", "transaction.paid":
		p, err := parseTransaction(env.Data)
		if err != nil {
			return nil, err
		}
		return PaymentSucceeded{EventMeta: meta, Payment: p}, nil

	case "transaction.payment_failed":
		p, err := parseTransaction(env.Data)
		if err != nil {
			return nil, err
		}
		return PaymentFailed{EventMeta: meta, Payment: p}, nil
	}

	return UnrecognizedEvent{EventMeta: meta}, nil
}

func parseSubscription(raw json.RawMessage) (SubscriptionState, error) {
	var d subscriptionData
	if err := json.Unmarshal(raw, &d); err != nil {
		return SubscriptionState{}, fmt.Errorf("%w: subscription data: %v", ErrMalformedEvent, err)
	}
	if d.ID == "" {
		return SubscriptionState{}, fmt.Errorf("%w: subscription id is missing", ErrMalformedEvent)
	}
	if d.Status == "" {
		return SubscriptionState{}, fmt.Errorf("%w: subscription status is missing", ErrMalformedEvent)
	}

	userID, email, err := parseCustomData(d.CustomData)
	if err != nil {
		return SubscriptionState{}, err
	}

	state := SubscriptionState{
		SubscriptionID: d.ID,
		CustomerID:     d.CustomerID,
		UserID:         userID,
		Email:          email,
		Status:         subscription.ParseStatus(d.Status),
		PriceID:        firstPriceID(d.Items),
		CanceledAt:     d.CanceledAt,
	}
	if d.CurrentBillingPeriod != nil {
		state.CurrentPeriodEnd = d.CurrentBillingPeriod.EndsAt
	}
	return state, nil
}

func parseTransaction(raw json.RawMessage) (Payment, error) {
	var d transactionData
	if err := json.Unmarshal(raw, &d); err != nil {
		return Payment{}, fmt.Errorf("%w: transaction data: %v", ErrMalformedEvent, err)
	}
	if d.ID == "" {
		return Payment{}, fmt.Errorf("%w: transaction id is missing", ErrMalformedEvent)
	}

	userID, email, err := parseCustomData(d.CustomData)
	if err != nil {
		return Payment{}, err
	}

	p := Payment{
		TransactionID:  d.ID,
		SubscriptionID: d.SubscriptionID,
		CustomerID:     d.CustomerID,
		UserID:         userID,
		Email:          email,
		PriceID:        firstPriceID(d.Items),
		Currency:       d.CurrencyCode,
	}
	if d.Details != nil {
		p.Amount = d.Details.Totals.GrandTotal
	}
	return p, nil
}

func parseCustomData(cd *customData) (uuid.UUID, string, error) {
	if cd == nil {
		return uuid.Nil, "", nil
	}
	if strings.TrimSpace(cd.UserID) == "" {
		return uuid.Nil, cd.Email, nil
	}
	id, err := uuid.Parse(cd.UserID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%w: custom_data.user_id %q is not a uuid", ErrMalformedEvent, cd.UserID)
	}
	return id, cd.Email, nil
}

func firstPriceID(items []lineItem) string {
	for _, it := range items {
		if id := it.priceID(); id != "" {
			return id
		}
	}
	return ""
}
