package plan

import (
	"fmt"
	"strings"
)

// Tier identifies a subscription level.
type Tier string

const (
	TierFree    Tier = "FREE"
	TierMonthly Tier = "MONTHLY"
	TierYearly  Tier = "YEARLY"
)

// AllTiers returns the closed set of tiers in display order.
func AllTiers() []Tier {
	return []Tier{TierFree, TierMonthly, TierYearly}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierMonthly, TierYearly:
		return true
	}
	return false
}

func (t Tier) String() string { return string(t) }

// ParseTier converts a case-insensitive tier name into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

// Interval is the billing frequency of a price.
type Interval string

const (
	IntervalNone    Interval = "none" // free plans
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// ParseInterval converts a case-insensitive interval name into an Interval.
func ParseInterval(s string) (Interval, error) {
	switch i := Interval(strings.ToLower(strings.TrimSpace(s))); i {
	case IntervalNone, IntervalMonthly, IntervalYearly:
		return i, nil
	case "annual":
		return IntervalYearly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidInterval, s)
}
