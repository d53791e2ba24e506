/*
tier.go - Tier policy table (time-based rate brackets)

PURPOSE:
  Maps "days elapsed since cycle start" to a rate bracket: a discount
  rate early, a neutral zone in the middle, stepped interest once late.
  The table is configuration, not hard-coded business logic - the
  calculator and reminder engine consume whatever table they are given.

POLICY SHAPE:
  The table is monotonic in time: the shortest elapsed times earn the
  largest discount, discounts step down to a 0% neutral window, and the
  interest zone steps UP the longer a cycle stays open.

DEFAULT TABLE:
  days 0-14    early-bird   5% discount
  days 15-34   prompt       3% discount
  days 35-59   standard     1% discount
  days 60-104  neutral      0%
  days 105-134 late         5% interest
  days 135-179 overdue      8% interest
  days 180+    delinquent  12% interest

ON-TIME BOUNDARY:
  "On-time" means repaid before the interest zone begins. The boundary is
  read from the table (InterestStartDay), so reconfiguring the table moves
  the on-time definition with it - there is exactly one policy knob.

EXAMPLE:
  table := credit.DefaultTierTable()
  tier := table.Resolve(20)   // {Name: "prompt", Kind: discount, Rate: 0.03}

SEE ALSO:
  - calculator.go: Prices repayments against a resolved tier
  - reminder.go: Derives notification thresholds from the table boundaries
*/
package credit

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIER - Resolved rate bracket
// =============================================================================

type TierKind string

const (
	TierDiscount TierKind = "discount"
	TierNeutral  TierKind = "neutral"
	TierInterest TierKind = "interest"
)

// Tier is the resolved bracket for a specific elapsed-day count.
type Tier struct {
	Name string
	Kind TierKind
	Rate decimal.Decimal // fraction, e.g. 0.03 for 3%
}

// =============================================================================
// TIER TABLE - Ordered, contiguous bands
// =============================================================================

// TierBand is one configured bracket. ToDay is inclusive; the final band
// uses OpenEnded to cover every later day.
type TierBand struct {
	Name    string
	FromDay int
	ToDay   int // inclusive; ignored when OpenEnded
	Kind    TierKind
	Rate    decimal.Decimal

	OpenEnded bool
}

// TierTable is the full policy. Construct with NewTierTable (validated)
// or DefaultTierTable.
type TierTable struct {
	bands []TierBand
}

// NewTierTable validates and wraps a band list.
func NewTierTable(bands []TierBand) (TierTable, error) {
	if len(bands) == 0 {
		return TierTable{}, fmt.Errorf("%w: tier table needs at least one band", ErrValidation)
	}

	next := 0
	sawInterest := false
	for i, b := range bands {
		if b.FromDay != next {
			return TierTable{}, fmt.Errorf("%w: band %q starts at day %d, expected %d (bands must be contiguous from day 0)",
				ErrValidation, b.Name, b.FromDay, next)
		}
		if b.Rate.IsNegative() {
			return TierTable{}, fmt.Errorf("%w: band %q has negative rate", ErrValidation, b.Name)
		}
		switch b.Kind {
		case TierDiscount, TierInterest:
			if b.Rate.IsZero() {
				return TierTable{}, fmt.Errorf("%w: band %q is %s but has zero rate", ErrValidation, b.Name, b.Kind)
			}
		case TierNeutral:
			if !b.Rate.IsZero() {
				return TierTable{}, fmt.Errorf("%w: neutral band %q must have zero rate", ErrValidation, b.Name)
			}
		default:
			return TierTable{}, fmt.Errorf("%w: band %q has unknown kind %q", ErrValidation, b.Name, b.Kind)
		}
		// Once the policy enters the interest zone it never leaves it.
		if sawInterest && b.Kind != TierInterest {
			return TierTable{}, fmt.Errorf("%w: band %q follows an interest band but is %s", ErrValidation, b.Name, b.Kind)
		}
		sawInterest = sawInterest || b.Kind == TierInterest
		if b.OpenEnded {
			if i != len(bands)-1 {
				return TierTable{}, fmt.Errorf("%w: only the last band may be open-ended", ErrValidation)
			}
			continue
		}
		if b.ToDay < b.FromDay {
			return TierTable{}, fmt.Errorf("%w: band %q ends before it starts", ErrValidation, b.Name)
		}
		next = b.ToDay + 1
	}
	if !bands[len(bands)-1].OpenEnded {
		return TierTable{}, fmt.Errorf("%w: last band must be open-ended", ErrValidation)
	}

	out := make([]TierBand, len(bands))
	copy(out, bands)
	return TierTable{bands: out}, nil
}

// DefaultTierTable returns the standard policy described in the package docs.
func DefaultTierTable() TierTable {
	pct := func(p string) decimal.Decimal { return MustParseMoney(p).Value }
	t, err := NewTierTable([]TierBand{
		{Name: "early-bird", FromDay: 0, ToDay: 14, Kind: TierDiscount, Rate: pct("0.05")},
		{Name: "prompt", FromDay: 15, ToDay: 34, Kind: TierDiscount, Rate: pct("0.03")},
		{Name: "standard", FromDay: 35, ToDay: 59, Kind: TierDiscount, Rate: pct("0.01")},
		{Name: "neutral", FromDay: 60, ToDay: 104, Kind: TierNeutral, Rate: decimal.Zero},
		{Name: "late", FromDay: 105, ToDay: 134, Kind: TierInterest, Rate: pct("0.05")},
		{Name: "overdue", FromDay: 135, ToDay: 179, Kind: TierInterest, Rate: pct("0.08")},
		{Name: "delinquent", FromDay: 180, Kind: TierInterest, Rate: pct("0.12"), OpenEnded: true},
	})
	if err != nil {
		panic(err) // the built-in table is validated by tests
	}
	return t
}

// Resolve returns the bracket in force at daysElapsed. Negative values
// (back-dated before the cycle start) resolve to the first band.
func (t TierTable) Resolve(daysElapsed int) Tier {
	if daysElapsed < 0 {
		daysElapsed = 0
	}
	for _, b := range t.bands {
		if b.OpenEnded || daysElapsed <= b.ToDay {
			if daysElapsed >= b.FromDay {
				return Tier{Name: b.Name, Kind: b.Kind, Rate: b.Rate}
			}
		}
	}
	// Unreachable for a validated table.
	last := t.bands[len(t.bands)-1]
	return Tier{Name: last.Name, Kind: last.Kind, Rate: last.Rate}
}

// InterestStartDay returns the first day of the interest zone, or -1 when
// the table has no interest band. Repayments strictly before this day
// count as on-time.
func (t TierTable) InterestStartDay() int {
	for _, b := range t.bands {
		if b.Kind == TierInterest {
			return b.FromDay
		}
	}
	return -1
}

// LastDiscountDay returns the final day that still earns a discount, or
// -1 when the table has no discount band.
func (t TierTable) LastDiscountDay() int {
	last := -1
	for _, b := range t.bands {
		if b.Kind == TierDiscount && !b.OpenEnded {
			last = b.ToDay
		}
	}
	return last
}

// IsOnTime reports whether a repayment at daysElapsed avoids the interest
// zone. With no interest band configured every repayment is on-time.
func (t TierTable) IsOnTime(daysElapsed int) bool {
	start := t.InterestStartDay()
	return start < 0 || daysElapsed < start
}

// Bands returns a copy of the configured bands, for display and auditing.
func (t TierTable) Bands() []TierBand {
	out := make([]TierBand, len(t.bands))
	copy(out, t.bands)
	return out
}
