package billing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// SignatureHeader is the header Paddle signs webhooks with.
const SignatureHeader = "Paddle-Signature"

// linkTTL is how long Paddle keeps checkout and portal links valid.
const linkTTL = 24 * time.Hour

type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	SuccessURL    string `env:"PADDLE_CHECKOUT_SUCCESS_URL"`
}

// PaddleProvider implements Provider with the Paddle Billing API.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEnvironment, cfg.Environment)
	}
	if err != nil {
		return nil, errors.Join(ErrProvider, err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
	}, nil
}

func (p *PaddleProvider) VerifyWebhook(ctx context.Context, payload []byte, signature string) error {
	return verifyPaddleSignature(ctx, p.verifier, payload, signature)
}

// verifyPaddleSignature rebuilds a request around payload because the SDK
// verifier works on *http.Request.
func verifyPaddleSignature(ctx context.Context, v *paddle.WebhookVerifier, payload []byte, signature string) error {
	if signature == "" {
		return ErrWebhookVerificationFailed
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhooks/paddle", bytes.NewReader(payload))
	if err != nil {
		return errors.Join(ErrWebhookVerificationFailed, err)
	}
	req.Header.Set(SignatureHeader, signature)

	ok, err := v.Verify(req)
	if err != nil {
		return errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !ok {
		return ErrWebhookVerificationFailed
	}
	return nil
}

func (p *PaddleProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if req.PriceID == "" {
		return nil, ErrNotPurchasable
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	txReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"user_id": req.UserID.String(),
		},
	}
	if req.Email != "" {
		txReq.CustomData["email"] = req.Email
	}
	if req.SuccessURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(req.SuccessURL)}
	}

	tx, err := p.client.TransactionsClient.CreateTransaction(ctx, txReq)
	if err != nil {
		return nil, errors.Join(ErrProvider, err)
	}
	if tx.Checkout == nil || tx.Checkout.URL == nil || *tx.Checkout.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutLink{
		URL:       *tx.Checkout.URL,
		SessionID: tx.ID,
		ExpiresAt: time.Now().Add(linkTTL),
	}, nil
}

func (p *PaddleProvider) CreatePortalLink(ctx context.Context, customerID string, subscriptionIDs ...string) (*PortalLink, error) {
	if customerID == "" {
		return nil, ErrNoBillingAccount
	}

	session, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx, &paddle.CreateCustomerPortalSessionRequest{
		CustomerID:      customerID,
		SubscriptionIDs: subscriptionIDs,
	})
	if err != nil {
		return nil, errors.Join(ErrProvider, err)
	}
	if session.URLs.General.Overview == "" {
		return nil, ErrNoPortalURL
	}

	link := &PortalLink{
		URL:       session.URLs.General.Overview,
		ExpiresAt: time.Now().Add(linkTTL),
	}
	for _, sub := range session.URLs.Subscriptions {
		if len(subscriptionIDs) > 0 && sub.ID == subscriptionIDs[0] {
			link.CancelURL = sub.CancelSubscription
			link.UpdatePaymentURL = sub.UpdateSubscriptionPaymentMethod
			break
		}
	}
	return link, nil
}
