/*
Package credit implements the trade-credit cycle and tiered repayment engine.

PURPOSE:
  Approved resellers ("vendors") draw short-term trade credit to buy
  inventory and repay it under a time-based policy: early repayment earns
  a discount, late repayment accrues interest. Each approved draw becomes
  an independent accounting cycle with its own principal, outstanding
  balance, and repayment history.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A fixed-point monetary amount (decimal, never float)
  - VendorID/CycleID/RepaymentID: Type-safe identifiers
  - CycleStatus: State machine derived from the outstanding balance
  - PerformanceTier: Vendor rating bucket derived from credit history
  - DaysElapsed: Cycle-relative day math (the only time axis that matters)

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all money and rates, no float drift
  2. Explicit time: business logic never reads the wall clock; callers
     supply asOf, enabling back-dated repayments and deterministic tests
  3. Derived state: CycleStatus and RepaymentStatus are recomputed from
     balances inside the same mutation, never written directly
  4. Immutability: RepaymentRecords are never edited, only appended

SEE ALSO:
  - tier.go: Tier policy table (discount/interest rate brackets)
  - cycle.go: CreditCycle aggregate and its transitions
  - ledger.go: Engine, the serialized mutation path
*/
package credit

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Fixed-point monetary amount
// =============================================================================

// Money is a monetary amount in the system's base currency unit.
// All arithmetic goes through decimal.Decimal to avoid floating-point drift.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money       { return Money{Value: decimal.NewFromFloat(value)} }
func NewMoneyFromInt(value int64) Money  { return Money{Value: decimal.NewFromInt(value)} }
func ZeroMoney() Money                   { return Money{Value: decimal.Zero} }

// MustParseMoney parses a decimal string, returning zero on malformed input.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney()
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money              { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money              { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(rate decimal.Decimal) Money { return Money{Value: m.Value.Mul(rate)} }
func (m Money) Neg() Money                     { return Money{Value: m.Value.Neg()} }
func (m Money) Round(places int32) Money       { return Money{Value: m.Value.Round(places)} }
func (m Money) IsZero() bool                   { return m.Value.IsZero() }
func (m Money) IsNegative() bool               { return m.Value.IsNegative() }
func (m Money) IsPositive() bool               { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool             { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool       { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool          { return m.Value.LessThan(o.Value) }
func (m Money) String() string                 { return m.Value.StringFixed(2) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type VendorID string
type CycleID string
type RepaymentID string
type NotificationID string

// =============================================================================
// CYCLE STATE
// =============================================================================

// CycleStatus is the cycle state machine. It is ALWAYS derived from the
// outstanding balance inside the same mutation that changes the balance;
// callers never set it directly, so state and balance cannot drift.
type CycleStatus string

const (
	// CycleInactive: approved but not yet started. Transient; a cycle
	// created through the Engine starts life active.
	CycleInactive CycleStatus = "inactive"

	// CycleActive: outstanding == principal, no repayment yet.
	CycleActive CycleStatus = "active"

	// CyclePartiallyPaid: 0 < outstanding < principal.
	CyclePartiallyPaid CycleStatus = "partially_paid"

	// CycleFullyPaid: outstanding == 0, close not yet confirmed.
	CycleFullyPaid CycleStatus = "fully_paid"

	// CycleClosed: terminal. Set once fully_paid is confirmed, which the
	// Engine does in the same mutation that zeroed the balance.
	CycleClosed CycleStatus = "closed"
)

// RepaymentStatus is a derived convenience label, purely a function of
// totalRepaid vs principalAmount.
type RepaymentStatus string

const (
	RepaymentNotStarted RepaymentStatus = "not_started"
	RepaymentInProgress RepaymentStatus = "in_progress"
	RepaymentCompleted  RepaymentStatus = "completed"
)

// =============================================================================
// VENDOR RATING
// =============================================================================

type PerformanceTier string

const (
	TierNotRated PerformanceTier = "not_rated"
	TierBronze   PerformanceTier = "bronze"
	TierSilver   PerformanceTier = "silver"
	TierGold     PerformanceTier = "gold"
	TierPlatinum PerformanceTier = "platinum"
)

// =============================================================================
// NOTIFICATION PRIORITY
// =============================================================================

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// =============================================================================
// CYCLE-RELATIVE TIME
// =============================================================================

// DaysElapsed returns floor((asOf - start) in days), computed on UTC
// calendar dates. All tier and reminder decisions key on this value;
// nothing in the engine aligns to calendar months or to other cycles.
func DaysElapsed(start, asOf time.Time) int {
	s := truncateToDay(start)
	a := truncateToDay(asOf)
	return int(a.Sub(s).Hours() / 24)
}

// DayKey formats a timestamp as its UTC calendar date. Used as the dedup
// key for "already notified today" checks.
func DayKey(t time.Time) string {
	return truncateToDay(t).Format("2006-01-02")
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
