package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/prepdeck/prepdeck/pkg/billing"
	"github.com/prepdeck/prepdeck/pkg/entitlement"
	"github.com/prepdeck/prepdeck/pkg/logger"
	"github.com/prepdeck/prepdeck/pkg/plan"
	"github.com/prepdeck/prepdeck/pkg/session"
	"github.com/prepdeck/prepdeck/pkg/subscription"
	"github.com/prepdeck/prepdeck/pkg/usage"
)

// httpError is an error with a status and a stable machine-readable code.
type httpError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *httpError) Error() string { return e.Code }

var (
	errNotFound = &httpError{Status: http.StatusNotFound, Code: "not_found", Message: "Resource not found."}
)

func badRequest(msg string) *httpError {
	return &httpError{Status: http.StatusBadRequest, Code: "bad_request", Message: msg}
}

type featureDetails struct {
	Tier    plan.Tier    `json:"tier"`
	Feature plan.Feature `json:"feature"`
}

type quotaDetails struct {
	Tier  plan.Tier            `json:"tier"`
	Limit plan.LimitName       `json:"limit"`
	Usage entitlement.Decision `json:"usage"`
}

// classify maps domain errors onto HTTP responses. Anything unrecognised is
// a 500 with a generic message.
func classify(err error) *httpError {
	var (
		he *httpError
		fe *entitlement.FeatureError
		qe *entitlement.QuotaError
	)
	switch {
	case errors.As(err, &he):
		return he

	case errors.As(err, &fe):
		return &httpError{
			Status:  http.StatusPaymentRequired,
			Code:    "upgrade_required",
			Message: "Your plan does not include this feature.",
			Details: featureDetails{Tier: fe.Tier, Feature: fe.Feature},
		}
	case errors.As(err, &qe):
		return &httpError{
			Status:  http.StatusPaymentRequired,
			Code:    "upgrade_required",
			Message: "You have used your plan's allowance for this period.",
			Details: quotaDetails{Tier: qe.Tier, Limit: qe.Limit, Usage: qe.Decision},
		}

	case errors.Is(err, session.ErrLookupFailed),
		errors.Is(err, entitlement.ErrStorageUnavailable),
		errors.Is(err, subscription.ErrStoreUnavailable):
		return &httpError{Status: http.StatusServiceUnavailable, Code: "storage_unavailable", Message: "Usage data is temporarily unavailable. Please retry."}
	case errors.Is(err, session.ErrUnauthenticated), errors.Is(err, session.ErrNoSession):
		return &httpError{Status: http.StatusUnauthorized, Code: "unauthenticated", Message: "A valid bearer token is required."}

	// Must precede ErrUnknownTier, which catalog lookups wrap.
	case errors.Is(err, plan.ErrInvalidConfiguration):
		return &httpError{Status: http.StatusInternalServerError, Code: "configuration_error", Message: "The plan catalog is misconfigured."}
	case errors.Is(err, usage.ErrCounterUnsupported):
		return &httpError{Status: http.StatusInternalServerError, Code: "counter_unsupported", Message: "Usage for this limit cannot be counted."}

	case errors.Is(err, plan.ErrUnknownTier), errors.Is(err, plan.ErrInvalidInterval):
		return badRequest(err.Error())
	case errors.Is(err, billing.ErrFreePlanCheckout):
		return &httpError{Status: http.StatusUnprocessableEntity, Code: "free_plan", Message: "The free plan needs no checkout."}
	case errors.Is(err, billing.ErrNotPurchasable):
		return &httpError{Status: http.StatusUnprocessableEntity, Code: "not_purchasable", Message: "This plan is not sold at the requested interval."}
	case errors.Is(err, billing.ErrNoBillingAccount):
		return &httpError{Status: http.StatusNotFound, Code: "no_billing_account", Message: "No paid subscription is linked to this account."}
	case errors.Is(err, billing.ErrWebhookVerificationFailed):
		return &httpError{Status: http.StatusUnauthorized, Code: "invalid_signature", Message: "Webhook signature verification failed."}
	case errors.Is(err, billing.ErrMalformedEvent):
		return badRequest("Malformed webhook payload.")
	case errors.Is(err, billing.ErrProvider):
		return &httpError{Status: http.StatusBadGateway, Code: "billing_provider_error", Message: "The billing provider could not complete the request."}
	}
	return &httpError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "Something went wrong."}
}

// writeError renders err and logs server-side failures.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	he := classify(err)
	switch {
	case he.Status >= http.StatusInternalServerError:
		log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Int("status", he.Status),
			logger.Error(err),
		)
	case he.Status == http.StatusPaymentRequired:
		log.DebugContext(r.Context(), "request denied by plan", logger.Error(err))
	}
	render(w, he.Status, envelope{Error: &errorBody{Code: he.Code, Message: he.Message, Details: he.Details}})
}
