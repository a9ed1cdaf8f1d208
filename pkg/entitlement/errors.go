package entitlement

import (
	"errors"
	"fmt"

	"github.com/prepdeck/prepdeck/pkg/plan"
	"github.com/prepdeck/prepdeck/pkg/usage"
)

var (
	ErrUnknownFeature       = errors.New("entitlement: unknown feature")
	ErrUnknownLimit         = errors.New("entitlement: unknown limit")
	ErrFeatureNotEntitled   = errors.New("entitlement: feature not included in plan")
	ErrQuotaExceeded        = errors.New("entitlement: usage quota exceeded")
	ErrDowngradeNotPossible = errors.New("entitlement: current usage exceeds target plan")

	// ErrStorageUnavailable is the usage package's sentinel, re-exported so
	// callers only need to import this package.
	ErrStorageUnavailable = usage.ErrStorageUnavailable
)

// FeatureError reports a feature the tier does not include.
type FeatureError struct {
	Tier    plan.Tier
	Feature plan.Feature
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("entitlement: feature %q not included in %s plan", e.Feature, e.Tier)
}

func (e *FeatureError) Unwrap() error { return ErrFeatureNotEntitled }

// QuotaError reports a limit the user has reached.
type QuotaError struct {
	Tier     plan.Tier
	Limit    plan.LimitName
	Decision Decision
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("entitlement: %s quota reached on %s plan (%d of %s used)",
		e.Limit, e.Tier, e.Decision.Used, e.Decision.Limit)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// DowngradeError lists the limits that block moving to a smaller plan.
type DowngradeError struct {
	Target   plan.Tier
	Blocking map[plan.LimitName]Decision
}

func (e *DowngradeError) Error() string {
	return fmt.Sprintf("entitlement: cannot move to %s, %d limit(s) already exceeded", e.Target, len(e.Blocking))
}

func (e *DowngradeError) Unwrap() error { return ErrDowngradeNotPossible }
