package usage

import "time"

// Period returns the first instant of the usage window that contains now.
// anchor is the subscriber's current billing-period end, nil when unknown.
type Period func(now time.Time, anchor *time.Time) time.Time

// CalendarMonth windows usage by calendar month in loc: [1st 00:00, now).
// The anchor is ignored, so a subscriber billed on the 15th still has their
// quota reset on the 1st.
func CalendarMonth(loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	return func(now time.Time, _ *time.Time) time.Time {
		return MonthStart(now, loc)
	}
}

// BillingCycle windows usage by monthly cycles aligned to the subscriber's
// billing anchor. Without an anchor it falls back to the calendar month in loc.
func BillingCycle(loc *time.Location) Period {
	fallback := CalendarMonth(loc)
	return func(now time.Time, anchor *time.Time) time.Time {
		if anchor == nil || anchor.IsZero() {
			return fallback(now, nil)
		}
		return CycleStart(*anchor, now)
	}
}

// MonthStart returns midnight of the first day of t's month in loc.
func MonthStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// CycleStart returns the latest monthly boundary derived from anchor that is
// not after now. Days past the end of a shorter month clamp to its last day,
// so an anchor on the 31st yields the 30th in April and the 28th or 29th in February.
func CycleStart(anchor, now time.Time) time.Time {
	now = now.In(anchor.Location())
	months := (now.Year()-anchor.Year())*12 + int(now.Month()-anchor.Month())
	start := addMonths(anchor, months)
	if start.After(now) {
		start = addMonths(anchor, months-1)
	}
	return start
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(d, lastDay),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
