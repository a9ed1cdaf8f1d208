package api

import (
	"log/slog"
	"net/http"

	"github.com/prepdeck/prepdeck/pkg/entitlement"
	"github.com/prepdeck/prepdeck/pkg/plan"
	"github.com/prepdeck/prepdeck/pkg/session"
)

// Gate builds middleware that admits a request only when the caller's plan
// allows it. It must run after session authentication.
type Gate struct {
	svc *entitlement.Service
	log *slog.Logger
}

// RequireFeature answers 402 when the plan lacks feature.
func (g *Gate) RequireFeature(feature plan.Feature) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				writeError(w, r, g.log, session.ErrNoSession)
				return
			}
			if err := g.svc.RequireFeature(r.Context(), sess, feature); err != nil {
				writeError(w, r, g.log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireQuota answers 402 when the caller has no allowance left for limit
// in the current period, and 503 when usage cannot be read.
func (g *Gate) RequireQuota(limit plan.LimitName) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				writeError(w, r, g.log, session.ErrNoSession)
				return
			}
			if err := g.svc.Require(r.Context(), sess, limit); err != nil {
				writeError(w, r, g.log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
