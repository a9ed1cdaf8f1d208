package api

import (
	"io"
	"net/http"

	"github.com/prepdeck/prepdeck/pkg/billing"
	"github.com/prepdeck/prepdeck/pkg/logger"
	"github.com/prepdeck/prepdeck/pkg/plan"
	"github.com/prepdeck/prepdeck/pkg/session"
)

type checkoutRequest struct {
	Tier     string `json:"tier"`
	Interval string `json:"interval,omitempty"`
}

func (h *handlers) checkout(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, h.log, session.ErrNoSession)
		return
	}

	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	tier, err := plan.ParseTier(req.Tier)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var interval plan.Interval
	if req.Interval != "" {
		if interval, err = plan.ParseInterval(req.Interval); err != nil {
			writeError(w, r, h.log, err)
			return
		}
	}

	link, err := h.billing.Checkout(r.Context(), sess.UserID, sess.Email, tier, interval)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, link, nil)
}

func (h *handlers) portal(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, h.log, session.ErrNoSession)
		return
	}

	link, err := h.billing.Portal(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, link, nil)
}

// paddleWebhook verifies and applies one webhook delivery. Non-2xx answers
// make Paddle redeliver, so only verification and parse failures are 4xx.
func (h *handlers) paddleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, h.log, badRequest("Unreadable request body."))
		return
	}

	ev, err := h.billing.Verify(r.Context(), payload, r.Header.Get(billing.SignatureHeader))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	if err := h.billing.Apply(r.Context(), ev); err != nil {
		h.log.ErrorContext(r.Context(), "webhook not applied",
			logger.EventID(ev.Meta().ID),
			logger.EventType(ev.Meta().Type),
			logger.Error(err),
		)
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"received": true, "event_id": ev.Meta().ID}, nil)
}
