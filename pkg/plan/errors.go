package plan

import "errors"

var (
	ErrInvalidConfiguration = errors.New("plan: invalid plan configuration")
	ErrPlanNotFound         = errors.New("plan: no plan matches price reference")
	ErrUnknownTier          = errors.New("plan: unknown tier")
	ErrInvalidLimit         = errors.New("plan: invalid limit value")
	ErrInvalidInterval      = errors.New("plan: invalid billing interval")
)
