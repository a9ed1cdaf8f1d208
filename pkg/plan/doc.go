// Package plan is the single source of truth for subscription tiers: what each
// tier costs, which capabilities it unlocks, and how much of each counted
// activity it allows per billing period.
//
// The tier set is closed (FREE, MONTHLY, YEARLY) and every tier has exactly one
// Plan. Limits and feature flags are constants of a tier, never per-user
// overrides, so changing what a tier offers is a single edit in Standard.
//
// # Limits
//
// A Limit is either Unlimited() or Limited(n). The -1 encoding only exists at
// the storage and JSON boundary (Limit.Int64, Limit.MarshalJSON); arithmetic on
// limits goes through Limit.Max, which refuses to hand out a number for an
// unlimited limit.
//
// # Usage
//
//	catalog, err := plan.Standard(plan.PriceRefsByTier{
//		plan.TierMonthly: {Monthly: "pri_monthly"},
//		plan.TierYearly:  {Yearly: "pri_yearly"},
//	})
//	if err != nil {
//		return err // malformed table, fail startup
//	}
//
//	p, err := catalog.Plan(plan.TierFree)
//	limit, _ := p.Limit(plan.LimitInterviews) // Limited(3)
//
//	// Billing webhook reports a provider price id:
//	p, err = catalog.FindByPriceID("pri_monthly")
//	if errors.Is(err, plan.ErrPlanNotFound) {
//		// provider misconfiguration: log and keep the current tier
//	}
package plan
