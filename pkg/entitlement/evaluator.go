package entitlement

import (
	"fmt"

	"github.com/prepdeck/prepdeck/pkg/plan"
)

// Evaluator answers feature and limit questions against a plan catalog.
type Evaluator struct {
	catalog *plan.Catalog
}

func NewEvaluator(catalog *plan.Catalog) *Evaluator {
	if catalog == nil {
		panic("entitlement: catalog is required")
	}
	return &Evaluator{catalog: catalog}
}

// Catalog returns the catalog the evaluator reads.
func (e *Evaluator) Catalog() *plan.Catalog { return e.catalog }

// HasFeature reports whether tier includes feature.
func (e *Evaluator) HasFeature(tier plan.Tier, feature plan.Feature) (bool, error) {
	p, err := e.catalog.Plan(tier)
	if err != nil {
		return false, err
	}
	enabled, known := p.HasFeature(feature)
	if !known {
		return false, fmt.Errorf("%w: %q", ErrUnknownFeature, feature)
	}
	return enabled, nil
}

// Limit returns tier's cap for name.
func (e *Evaluator) Limit(tier plan.Tier, name plan.LimitName) (plan.Limit, error) {
	p, err := e.catalog.Plan(tier)
	if err != nil {
		return plan.Limit{}, err
	}
	limit, ok := p.Limit(name)
	if !ok {
		return plan.Limit{}, fmt.Errorf("%w: %q", ErrUnknownLimit, name)
	}
	return limit, nil
}

// CheckLimit decides whether one more item fits under tier's cap given the
// current usage. Reaching the cap exactly is a denial.
func (e *Evaluator) CheckLimit(tier plan.Tier, name plan.LimitName, used int64) (Decision, error) {
	limit, err := e.Limit(tier, name)
	if err != nil {
		return Decision{}, err
	}
	return decide(limit, used), nil
}

func decide(limit plan.Limit, used int64) Decision {
	capacity, ok := limit.Max()
	if !ok {
		return Decision{Allowed: true, Limit: limit, Used: used, Remaining: Unlimited}
	}
	return Decision{
		Allowed:   used < capacity,
		Limit:     limit,
		Used:      used,
		Remaining: max(0, capacity-used),
	}
}

// RequireFeature returns a *FeatureError when tier lacks feature.
func (e *Evaluator) RequireFeature(tier plan.Tier, feature plan.Feature) error {
	ok, err := e.HasFeature(tier, feature)
	if err != nil {
		return err
	}
	if !ok {
		return &FeatureError{Tier: tier, Feature: feature}
	}
	return nil
}

// RequireLimit returns a *QuotaError when used has reached tier's cap.
func (e *Evaluator) RequireLimit(tier plan.Tier, name plan.LimitName, used int64) error {
	d, err := e.CheckLimit(tier, name, used)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return &QuotaError{Tier: tier, Limit: name, Decision: d}
	}
	return nil
}
