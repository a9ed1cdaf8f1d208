package plan

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Catalog maps every tier to its Plan. It is immutable after construction and
// safe for concurrent use.
type Catalog struct {
	plans   map[Tier]Plan
	byPrice map[string]Tier
}

// NewCatalog builds a catalog from one plan per tier and validates it.
// The plans are copied, so later changes by the caller have no effect.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	c := &Catalog{
		plans:   make(map[Tier]Plan, len(plans)),
		byPrice: make(map[string]Tier),
	}

	for _, p := range plans {
		if _, dup := c.plans[p.Tier]; dup {
			return nil, errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("tier %s declared more than once", p.Tier))
		}
		c.plans[p.Tier] = p.clone()
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	for tier, p := range c.plans {
		for _, ref := range []string{p.PriceRefs.Monthly, p.PriceRefs.Yearly} {
			if ref != "" {
				c.byPrice[ref] = tier
			}
		}
	}

	return c, nil
}

// MustCatalog is like NewCatalog but panics on an invalid table.
func MustCatalog(plans ...Plan) *Catalog {
	c, err := NewCatalog(plans...)
	if err != nil {
		panic(err)
	}
	return c
}

// Plan returns the plan for tier. It fails with ErrInvalidConfiguration only
// when the tier is outside the enum or missing from the table.
func (c *Catalog) Plan(tier Tier) (Plan, error) {
	p, ok := c.plans[tier]
	if !ok {
		return Plan{}, errors.Join(ErrInvalidConfiguration, fmt.Errorf("%w: %q", ErrUnknownTier, tier))
	}
	return p.clone(), nil
}

// FindByPriceID maps a billing provider price id back to its plan.
// Returns ErrPlanNotFound when no plan carries the reference.
func (c *Catalog) FindByPriceID(ref string) (Plan, error) {
	tier, ok := c.byPrice[ref]
	if !ok || ref == "" {
		return Plan{}, fmt.Errorf("%w: %q", ErrPlanNotFound, ref)
	}
	return c.plans[tier].clone(), nil
}

// Plans returns all plans in tier display order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, tier := range AllTiers() {
		if p, ok := c.plans[tier]; ok {
			out = append(out, p.clone())
		}
	}
	return out
}

// Features returns every feature name declared by the catalog, sorted.
func (c *Catalog) Features() []Feature {
	p, ok := c.plans[TierFree]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(p.Features))
}

// LimitNames returns every limit name declared by the catalog, sorted.
func (c *Catalog) LimitNames() []LimitName {
	p, ok := c.plans[TierFree]
	if !ok {
		return nil
	}
	return p.LimitNames()
}

// Validate checks the table is internally consistent:
//   - every tier has exactly one plan and no unknown tier is present
//   - all plans declare the same feature and limit names
//   - prices and trial days are non-negative
//   - no two plans share a provider price id
func (c *Catalog) Validate() error {
	for tier := range c.plans {
		if !tier.Valid() {
			return errors.Join(ErrInvalidConfiguration, fmt.Errorf("%w: %q", ErrUnknownTier, tier))
		}
	}

	var reference *Plan
	seenPrices := make(map[string]Tier)

	for _, tier := range AllTiers() {
		p, ok := c.plans[tier]
		if !ok {
			return errors.Join(ErrInvalidConfiguration, fmt.Errorf("tier %s has no plan", tier))
		}

		if p.Price.Monthly.Amount < 0 || p.Price.Yearly.Amount < 0 {
			return errors.Join(ErrInvalidConfiguration, fmt.Errorf("tier %s has a negative price", tier))
		}
		if p.TrialDays < 0 {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("tier %s has negative trial days: %d", tier, p.TrialDays))
		}

		for _, ref := range []string{p.PriceRefs.Monthly, p.PriceRefs.Yearly} {
			if ref == "" {
				continue
			}
			if other, dup := seenPrices[ref]; dup && other != tier {
				return errors.Join(ErrInvalidConfiguration,
					fmt.Errorf("price id %q used by both %s and %s", ref, other, tier))
			}
			seenPrices[ref] = tier
		}

		if reference == nil {
			reference = &p
			continue
		}
		if !sameKeys(reference.Features, p.Features) {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("tier %s declares a different feature set than %s", tier, reference.Tier))
		}
		if !sameKeys(reference.Limits, p.Limits) {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("tier %s declares a different limit set than %s", tier, reference.Tier))
		}
	}

	return nil
}

func sameKeys[K comparable, V any](a, b map[K]V) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
