package usage

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidConfig = errors.New("usage: invalid configuration")

const (
	PolicyCalendar = "calendar"
	PolicyBilling  = "billing"
)

type Config struct {
	Timezone string `env:"USAGE_TIMEZONE" envDefault:"UTC"`    // IANA zone used for calendar month boundaries.
	Policy   string `env:"USAGE_PERIOD" envDefault:"calendar"` // "calendar" or "billing".
}

// Period builds the windowing policy described by the config.
func (c Config) Period() (Period, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	switch c.Policy {
	case "", PolicyCalendar:
		return CalendarMonth(loc), nil
	case PolicyBilling:
		return BillingCycle(loc), nil
	}
	return nil, fmt.Errorf("%w: unknown period policy %q", ErrInvalidConfig, c.Policy)
}
