package plan

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// unlimitedSentinel is the storage and wire encoding of an unlimited limit.
const unlimitedSentinel int64 = -1

// Limit is a per-period cap on a counted activity. The zero value is Limited(0).
type Limit struct {
	max       int64
	unlimited bool
}

// Unlimited returns a limit with no cap.
func Unlimited() Limit {
	return Limit{unlimited: true}
}

// Limited returns a limit capped at n.
func Limited(n uint32) Limit {
	return Limit{max: int64(n)}
}

// LimitFromInt64 decodes the -1 sentinel encoding used in SQL and JSON.
func LimitFromInt64(v int64) (Limit, error) {
	switch {
	case v == unlimitedSentinel:
		return Unlimited(), nil
	case v < 0 || v > math.MaxUint32:
		return Limit{}, fmt.Errorf("%w: %d", ErrInvalidLimit, v)
	}
	return Limited(uint32(v)), nil
}

// IsUnlimited reports whether the limit has no cap.
func (l Limit) IsUnlimited() bool {
	return l.unlimited
}

// Max returns the cap and true, or 0 and false for an unlimited limit.
func (l Limit) Max() (int64, bool) {
	if l.unlimited {
		return 0, false
	}
	return l.max, true
}

// Int64 returns the cap, or -1 for an unlimited limit.
func (l Limit) Int64() int64 {
	if l.unlimited {
		return unlimitedSentinel
	}
	return l.max
}

func (l Limit) String() string {
	if l.unlimited {
		return "unlimited"
	}
	return strconv.FormatInt(l.max, 10)
}

// Less reports whether l allows strictly less than other.
func (l Limit) Less(other Limit) bool {
	switch {
	case l.unlimited:
		return false
	case other.unlimited:
		return true
	}
	return l.max < other.max
}

func (l Limit) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Int64())
}

func (l *Limit) UnmarshalJSON(data []byte) error {
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	decoded, err := LimitFromInt64(v)
	if err != nil {
		return err
	}
	*l = decoded
	return nil
}
