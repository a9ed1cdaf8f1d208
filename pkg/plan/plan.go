package plan

import (
	"maps"
	"slices"
)

// Feature names a boolean capability gated by tier.
type Feature string

const (
	FeatureAIInterviewer         Feature = "aiInterviewer"
	FeatureVideoRecording        Feature = "videoRecording"
	FeatureCalendarIntegration   Feature = "calendarIntegration"
	FeatureResumeParsing         Feature = "resumeParsing"
	FeatureCoverLetterGeneration Feature = "coverLetterGeneration"
	FeaturePrioritySupport       Feature = "prioritySupport"
)

// LimitName names a counted activity capped per billing period.
type LimitName string

const (
	LimitInterviews   LimitName = "interviews"
	LimitAISessions   LimitName = "aiSessions"
	LimitCVs          LimitName = "cvs"
	LimitCoverLetters LimitName = "coverLetters"
)

// PriceRefs holds the billing provider's price identifiers for a plan.
// Empty values mean the plan is not sold at that interval.
type PriceRefs struct {
	Monthly string `yaml:"monthly" json:"monthly,omitempty"`
	Yearly  string `yaml:"yearly" json:"yearly,omitempty"`
}

// For returns the price id for the given interval.
func (r PriceRefs) For(interval Interval) string {
	switch interval {
	case IntervalMonthly:
		return r.Monthly
	case IntervalYearly:
		return r.Yearly
	}
	return ""
}

// Pricing is the list price of a plan per billing interval.
type Pricing struct {
	Monthly Money `json:"monthly"`
	Yearly  Money `json:"yearly"`
}

// Plan describes a tier: its price, capabilities and usage limits.
type Plan struct {
	Tier        Tier
	Name        string
	Description string
	Price       Pricing
	Interval    Interval // interval the tier is billed at
	PriceRefs   PriceRefs
	TrialDays   int
	Features    map[Feature]bool
	Limits      map[LimitName]Limit
}

// HasFeature returns the flag value and whether the feature is declared.
func (p Plan) HasFeature(f Feature) (enabled, known bool) {
	enabled, known = p.Features[f]
	return enabled, known
}

// Limit returns the limit and whether the name is declared.
func (p Plan) Limit(name LimitName) (Limit, bool) {
	l, ok := p.Limits[name]
	return l, ok
}

// EnabledFeatures returns the enabled features sorted by name.
func (p Plan) EnabledFeatures() []Feature {
	out := make([]Feature, 0, len(p.Features))
	for f, on := range p.Features {
		if on {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}

// LimitNames returns the declared limit names sorted by name.
func (p Plan) LimitNames() []LimitName {
	return slices.Sorted(maps.Keys(p.Limits))
}

// CheckoutPriceID returns the provider price id used to sell this plan.
func (p Plan) CheckoutPriceID() string {
	return p.PriceRefs.For(p.Interval)
}

// IntervalFor returns the interval billed by priceID, or IntervalNone.
func (p Plan) IntervalFor(priceID string) Interval {
	switch {
	case priceID == "":
		return IntervalNone
	case priceID == p.PriceRefs.Monthly:
		return IntervalMonthly
	case priceID == p.PriceRefs.Yearly:
		return IntervalYearly
	}
	return IntervalNone
}

func (p Plan) clone() Plan {
	c := p
	c.Features = maps.Clone(p.Features)
	c.Limits = maps.Clone(p.Limits)
	return c
}
