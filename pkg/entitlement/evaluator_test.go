package entitlement_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/prepdeck/prepdeck/pkg/entitlement"
	"github.com/prepdeck/prepdeck/pkg/plan"
)

func newEvaluator(t testing.TB) *entitlement.Evaluator {
	t.Helper()
	catalog, err := plan.Standard(nil)
	require.NoError(t, err)
	return entitlement.NewEvaluator(catalog)
}

func TestHasFeature(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t)

	tests := []struct {
		tier    plan.Tier
		feature plan.Feature
		want    bool
	}{
		{plan.TierMonthly, plan.FeatureVideoRecording, true},
		{plan.TierFree, plan.FeatureVideoRecording, false},
		{plan.TierFree, plan.FeatureResumeParsing, true},
		{plan.TierMonthly, plan.FeaturePrioritySupport, false},
		{plan.TierYearly, plan.FeaturePrioritySupport, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier)+"/"+string(tt.feature), func(t *testing.T) {
			t.Parallel()
			got, err := ev.HasFeature(tt.tier, tt.feature)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown feature", func(t *testing.T) {
		t.Parallel()
		_, err := ev.HasFeature(plan.TierYearly, plan.Feature("teleportation"))
		require.ErrorIs(t, err, entitlement.ErrUnknownFeature)
	})

	t.Run("unknown tier is a configuration error", func(t *testing.T) {
		t.Parallel()
		_, err := ev.HasFeature(plan.Tier("GOLD"), plan.FeatureVideoRecording)
		require.ErrorIs(t, err, plan.ErrInvalidConfiguration)
	})
}

func TestCheckLimit(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t)

	tests := []struct {
		name  string
		tier  plan.Tier
		limit plan.LimitName
		used  int64
		want  entitlement.Decision
	}{
		{
			name:  "free at cap is denied",
			tier:  plan.TierFree,
			limit: plan.LimitInterviews,
			used:  3,
			want:  entitlement.Decision{Allowed: false, Limit: plan.Limited(3), Used: 3, Remaining: 0},
		},
		{
			name:  "free below cap is allowed",
			tier:  plan.TierFree,
			limit: plan.LimitInterviews,
			used:  2,
			want:  entitlement.Decision{Allowed: true, Limit: plan.Limited(3), Used: 2, Remaining: 1},
		},
		{
			name:  "free above cap clamps remaining",
			tier:  plan.TierFree,
			limit: plan.LimitCVs,
			used:  5,
			want:  entitlement.Decision{Allowed: false, Limit: plan.Limited(1), Used: 5, Remaining: 0},
		},
		{
			name:  "yearly is unlimited",
			tier:  plan.TierYearly,
			limit: plan.LimitInterviews,
			used:  10000,
			want:  entitlement.Decision{Allowed: true, Limit: plan.Unlimited(), Used: 10000, Remaining: entitlement.Unlimited},
		},
		{
			name:  "monthly ai sessions",
			tier:  plan.TierMonthly,
			limit: plan.LimitAISessions,
			used:  0,
			want:  entitlement.Decision{Allowed: true, Limit: plan.Limited(15), Used: 0, Remaining: 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ev.CheckLimit(tt.tier, tt.limit, tt.used)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown limit", func(t *testing.T) {
		t.Parallel()
		_, err := ev.CheckLimit(plan.TierFree, plan.LimitName("videos"), 0)
		require.ErrorIs(t, err, entitlement.ErrUnknownLimit)
	})
}

func TestRequire(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t)

	err := ev.RequireFeature(plan.TierFree, plan.FeatureAIInterviewer)
	require.ErrorIs(t, err, entitlement.ErrFeatureNotEntitled)
	var fe *entitlement.FeatureError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, plan.FeatureAIInterviewer, fe.Feature)

	require.NoError(t, ev.RequireFeature(plan.TierMonthly, plan.FeatureAIInterviewer))

	err = ev.RequireLimit(plan.TierFree, plan.LimitInterviews, 3)
	require.ErrorIs(t, err, entitlement.ErrQuotaExceeded)
	var qe *entitlement.QuotaError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, int64(3), qe.Decision.Used)
	assert.Equal(t, plan.Limited(3), qe.Decision.Limit)

	require.NoError(t, ev.RequireLimit(plan.TierFree, plan.LimitInterviews, 2))
	require.NoError(t, ev.RequireLimit(plan.TierYearly, plan.LimitInterviews, 1<<40))
}

func TestHasFeatureRepeatable(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t)
	catalog := ev.Catalog()
	before := catalog.Plans()

	rapid.Check(t, func(t *rapid.T) {
		tier := rapid.SampledFrom(plan.AllTiers()).Draw(t, "tier")
		feature := rapid.SampledFrom(catalog.Features()).Draw(t, "feature")
		other := rapid.SampledFrom(plan.AllTiers()).Draw(t, "other")

		first, err := ev.HasFeature(tier, feature)
		require.NoError(t, err)
		_, err = ev.HasFeature(other, feature)
		require.NoError(t, err)
		second, err := ev.HasFeature(tier, feature)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	assert.Equal(t, before, catalog.Plans())
}

func TestCheckLimitProperties(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t)
	catalog := ev.Catalog()

	rapid.Check(t, func(t *rapid.T) {
		tier := rapid.SampledFrom(plan.AllTiers()).Draw(t, "tier")
		name := rapid.SampledFrom(catalog.LimitNames()).Draw(t, "limit")
		used := rapid.Int64Range(0, 1<<40).Draw(t, "used")

		d, err := ev.CheckLimit(tier, name, used)
		require.NoError(t, err)
		assert.Equal(t, used, d.Used)

		p, err := catalog.Plan(tier)
		require.NoError(t, err)
		limit, _ := p.Limit(name)

		if limit.IsUnlimited() {
			assert.True(t, d.Allowed)
			assert.Equal(t, int64(-1), d.Limit.Int64())
			assert.Equal(t, int64(-1), d.Remaining)
			return
		}

		capacity, _ := limit.Max()
		assert.Equal(t, used < capacity, d.Allowed)
		assert.GreaterOrEqual(t, d.Remaining, int64(0))
		assert.Equal(t, max(0, capacity-used), d.Remaining)
		if d.Allowed {
			assert.Equal(t, capacity, d.Used+d.Remaining)
		}
	})
}

func TestCheckLimitMonotonic(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t)
	catalog := ev.Catalog()

	rapid.Check(t, func(t *rapid.T) {
		tier := rapid.SampledFrom(plan.AllTiers()).Draw(t, "tier")
		name := rapid.SampledFrom(catalog.LimitNames()).Draw(t, "limit")
		a := rapid.Int64Range(0, 1000).Draw(t, "a")
		b := rapid.Int64Range(a, 2000).Draw(t, "b")

		da, err := ev.CheckLimit(tier, name, a)
		require.NoError(t, err)
		db, err := ev.CheckLimit(tier, name, b)
		require.NoError(t, err)

		if db.Allowed {
			assert.True(t, da.Allowed, "allowed at %d but denied at smaller %d", b, a)
		}
		if !db.IsUnlimited() {
			assert.LessOrEqual(t, db.Remaining, da.Remaining)
		}
	})
}

func TestUsagePercentage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1, entitlement.Decision{Limit: plan.Unlimited(), Used: 50}.UsagePercentage())
	assert.Equal(t, 0, entitlement.Decision{Limit: plan.Limited(30), Used: 0}.UsagePercentage())
	assert.Equal(t, 50, entitlement.Decision{Limit: plan.Limited(30), Used: 15}.UsagePercentage())
	assert.Equal(t, 100, entitlement.Decision{Limit: plan.Limited(3), Used: 7}.UsagePercentage())
	assert.Equal(t, 100, entitlement.Decision{Limit: plan.Limited(0), Used: 0}.UsagePercentage())
}

func TestDecisionJSON(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(t)
	d, err := ev.CheckLimit(plan.TierYearly, plan.LimitCVs, 4)
	require.NoError(t, err)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"allowed":true,"limit":-1,"used":4,"remaining":-1}`, string(raw))
}
