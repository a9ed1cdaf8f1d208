package api

import (
	"net/http"

	"golang.org/x/text/language"

	"github.com/prepdeck/prepdeck/pkg/plan"
)

type priceView struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

type planView struct {
	Tier        plan.Tier                    `json:"tier"`
	Name        string                       `json:"name"`
	Description string                       `json:"description"`
	Interval    plan.Interval                `json:"interval"`
	TrialDays   int                          `json:"trial_days,omitempty"`
	Monthly     *priceView                   `json:"monthly_price,omitempty"`
	Yearly      *priceView                   `json:"yearly_price,omitempty"`
	Features    map[plan.Feature]bool        `json:"features"`
	Limits      map[plan.LimitName]plan.Limit `json:"limits"`
}

func newPriceView(m plan.Money, tag language.Tag) *priceView {
	if m.IsZero() {
		return nil
	}
	return &priceView{Amount: m.Amount, Currency: m.Currency, Display: m.Format(tag)}
}

// listPlans serves the public pricing table, prices formatted for the
// caller's Accept-Language.
func (h *handlers) listPlans(w http.ResponseWriter, r *http.Request) {
	tag, _ := language.MatchStrings(h.languages, r.Header.Get("Accept-Language"))

	plans := h.catalog.Plans()
	out := make([]planView, 0, len(plans))
	for _, p := range plans {
		out = append(out, planView{
			Tier:        p.Tier,
			Name:        p.Name,
			Description: p.Description,
			Interval:    p.Interval,
			TrialDays:   p.TrialDays,
			Monthly:     newPriceView(p.Price.Monthly, tag),
			Yearly:      newPriceView(p.Price.Yearly, tag),
			Features:    p.Features,
			Limits:      p.Limits,
		})
	}
	writeJSON(w, http.StatusOK, out, map[string]any{"locale": tag.String()})
}
