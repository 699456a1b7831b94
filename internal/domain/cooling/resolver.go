// Package cooling maps a purchase price to its mandatory waiting period.
//
// A user owns an ordered list of amount bands. The first band whose
// [MinAmount, MaxAmount] interval contains the price wins, so the order the
// caller supplies decides precedence when bands overlap.
//
// Example usage:
//
//	ranges := []cooling.Range{
//		{MinAmount: 0, MaxAmount: cooling.Amount(1000), CoolingDays: 1},
//		{MinAmount: 1000, CoolingDays: 7},
//	}
//	decision := cooling.Decide(time.Now(), 2500, ranges)
//	fmt.Println(decision.CoolingDays, decision.CoolingUntil)
package cooling

import (
	"math"
	"time"
)

// DefaultCoolingDays is used when no range contains the price.
const DefaultCoolingDays = 1

// Range is a single amount band. A nil MaxAmount means no upper bound.
type Range struct {
	MinAmount   float64  `json:"min_amount" yaml:"min_amount"`
	MaxAmount   *float64 `json:"max_amount" yaml:"max_amount"`
	CoolingDays int      `json:"cooling_days" yaml:"cooling_days"`
}

// Contains reports whether price falls inside the band, both ends inclusive.
func (r Range) Contains(price float64) bool {
	if price < r.MinAmount {
		return false
	}
	return r.MaxAmount == nil || price <= *r.MaxAmount
}

// Decision is the cooling period computed when a purchase is created.
type Decision struct {
	CoolingDays  int       `json:"cooling_days"`
	CoolingUntil time.Time `json:"cooling_until"`
}

// Amount returns a pointer to v, for building ranges with an upper bound.
func Amount(v float64) *float64 {
	return &v
}

// Resolve returns the cooling days of the first range containing price.
// Ranges are evaluated in the given order and never re-sorted. Invalid
// prices (non-positive, NaN, infinite) match nothing.
func Resolve(price float64, ranges []Range) int {
	if !validPrice(price) {
		return DefaultCoolingDays
	}

	for _, r := range ranges {
		if r.Contains(price) {
			return r.CoolingDays
		}
	}

	return DefaultCoolingDays
}

// Until adds days calendar days to now, keeping the time of day.
func Until(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, days)
}

// Decide resolves the cooling days for price and anchors them at now.
func Decide(now time.Time, price float64, ranges []Range) Decision {
	days := Resolve(price, ranges)
	return Decision{
		CoolingDays:  days,
		CoolingUntil: Until(now, days),
	}
}

// DaysRemaining returns the whole days left until the cooling period ends,
// rounded up. It is zero or negative once the period is over.
func DaysRemaining(now, until time.Time) int {
	return int(math.Ceil(until.Sub(now).Hours() / 24))
}

// IsCooled reports whether the cooling period has ended.
func IsCooled(now, until time.Time) bool {
	return !until.After(now)
}

func validPrice(price float64) bool {
	return price > 0 && !math.IsNaN(price) && !math.IsInf(price, 0)
}
