package billing

import "errors"

var (
	ErrMissingAPIKey             = errors.New("billing: provider API key is required")
	ErrMissingWebhookSecret      = errors.New("billing: webhook secret is required")
	ErrInvalidEnvironment        = errors.New("billing: invalid provider environment")
	ErrWebhookVerificationFailed = errors.New("billing: webhook signature verification failed")
	ErrMalformedEvent            = errors.New("billing: malformed webhook event")
	ErrNoCheckoutURL             = errors.New("billing: provider returned no checkout url")
	ErrNoPortalURL               = errors.New("billing: provider returned no portal url")
	ErrFreePlanCheckout          = errors.New("billing: the free plan needs no checkout")
	ErrNotPurchasable            = errors.New("billing: plan has no price for the requested interval")
	ErrNoBillingAccount          = errors.New("billing: user has no billing account")
	ErrProvider                  = errors.New("billing: provider request failed")
)
