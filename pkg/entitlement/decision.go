package entitlement

import "github.com/prepdeck/prepdeck/pkg/plan"

// Unlimited is the wire value for an uncapped limit or remaining count.
const Unlimited int64 = -1

// Decision is the outcome of a limit check.
type Decision struct {
	Allowed   bool       `json:"allowed"`
	Limit     plan.Limit `json:"limit"` // encodes as -1 when unlimited
	Used      int64      `json:"used"`
	Remaining int64      `json:"remaining"` // Unlimited when the limit is unlimited
}

// IsUnlimited reports whether the decision was made against an uncapped limit.
func (d Decision) IsUnlimited() bool {
	return d.Limit.IsUnlimited()
}

// UsagePercentage returns used/limit as 0..100, or -1 when unlimited.
// A zero limit counts as fully used.
func (d Decision) UsagePercentage() int {
	limit, ok := d.Limit.Max()
	if !ok {
		return -1
	}
	if limit == 0 {
		return 100
	}
	pct := d.Used * 100 / limit
	return int(min(max(pct, 0), 100))
}
