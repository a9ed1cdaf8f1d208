package api

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/prepdeck/prepdeck/pkg/entitlement"
	"github.com/prepdeck/prepdeck/pkg/plan"
	"github.com/prepdeck/prepdeck/pkg/session"
)

type limitView struct {
	entitlement.Decision
	UsagePercentage int `json:"usage_percentage"`
}

func newLimitView(d entitlement.Decision) limitView {
	return limitView{Decision: d, UsagePercentage: d.UsagePercentage()}
}

type overviewView struct {
	Tier        plan.Tier                    `json:"tier"`
	PeriodStart time.Time                    `json:"period_start"`
	Features    map[plan.Feature]bool        `json:"features"`
	Limits      map[plan.LimitName]limitView `json:"limits"`
}

func (h *handlers) entitlementsOverview(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, h.log, session.ErrNoSession)
		return
	}

	ov, err := h.entitlements.Overview(r.Context(), sess)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	out := overviewView{
		Tier:        ov.Tier,
		PeriodStart: ov.PeriodStart,
		Features:    ov.Features,
		Limits:      make(map[plan.LimitName]limitView, len(ov.Limits)),
	}
	for name, d := range ov.Limits {
		out.Limits[name] = newLimitView(d)
	}
	writeJSON(w, http.StatusOK, out, nil)
}

func (h *handlers) checkLimit(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, h.log, session.ErrNoSession)
		return
	}

	name := plan.LimitName(chi.URLParam(r, "limit"))
	if !slices.Contains(h.catalog.LimitNames(), name) {
		writeError(w, r, h.log, errNotFound)
		return
	}

	d, err := h.entitlements.Check(r.Context(), sess, name)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newLimitView(d), map[string]any{
		"limit":        name,
		"tier":         sess.Tier,
		"period_start": h.entitlements.PeriodStart(sess),
	})
}

type downgradeRequest struct {
	Tier string `json:"tier"`
}

type downgradeView struct {
	Allowed         bool                                `json:"allowed"`
	From            plan.Tier                           `json:"from"`
	To              plan.Tier                           `json:"to"`
	LostFeatures    []plan.Feature                      `json:"lost_features"`
	DecreasedLimits map[plan.LimitName]plan.LimitChange `json:"decreased_limits"`
	Blocking        map[plan.LimitName]limitView        `json:"blocking,omitempty"`
}

// downgradeCheck reports whether the caller's current usage fits a target
// plan. A blocked downgrade is a normal answer, not an error.
func (h *handlers) downgradeCheck(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, h.log, session.ErrNoSession)
		return
	}

	var req downgradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	target, err := plan.ParseTier(req.Tier)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	cmp, err := h.entitlements.CanDowngrade(r.Context(), sess, target)
	var de *entitlement.DowngradeError
	if err != nil && !errors.As(err, &de) {
		writeError(w, r, h.log, err)
		return
	}

	out := downgradeView{
		Allowed:         de == nil,
		From:            sess.Tier,
		To:              target,
		LostFeatures:    cmp.LostFeatures,
		DecreasedLimits: cmp.DecreasedLimits,
	}
	if de != nil {
		out.Blocking = make(map[plan.LimitName]limitView, len(de.Blocking))
		for name, d := range de.Blocking {
			out.Blocking[name] = newLimitView(d)
		}
	}
	writeJSON(w, http.StatusOK, out, nil)
}
