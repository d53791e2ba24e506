/*
account.go - Vendor credit account: limits, usage, rolling history

PURPOSE:
  Owns the vendor's aggregate credit position (limit, used, available)
  and the rolling credit history that feeds scoring and performance
  analysis. Mutated only through cycle creation and repayment posting.

CRITICAL INVARIANT:
  0 <= creditUsed <= creditLimit, at all times. Enforced before a cycle
  opens and re-checked on every mutation.

CREDIT CAPACITY VS CASH FLOW:
  Repayments restore exactly the PRINCIPAL portion to available credit.
  The discount or interest adjustment changes what cash moved, not how
  much credit capacity the vendor gets back.

CREDIT SCORE:
  Recomputed after every repayment from the on-time ratio and the average
  repayment days: 60 points scale with the on-time ratio, 40 points with
  repayment speed (linear from 0 days down to nothing at 120+ days).
  Clamped to [0,100]; a fresh account starts at 100.

SEE ALSO:
  - ledger.go: The serialized mutation path into an account
  - analyzer.go: Reads the history to recommend limit changes
*/
package credit

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CREDIT HISTORY - Rolling statistics across all of a vendor's repayments
// =============================================================================

type CreditHistory struct {
	CreditScore          decimal.Decimal // 0-100, default 100
	TotalRepaymentCount  int
	OnTimeRepaymentCount int
	AvgRepaymentDays     decimal.Decimal // running mean over all repayments
	TotalDiscountsEarned Money
	TotalInterestPaid    Money
	LastRepaymentDate    *time.Time
}

// OnTimeRate returns the on-time ratio in [0,1]; 1 for a fresh history.
func (h CreditHistory) OnTimeRate() decimal.Decimal {
	if h.TotalRepaymentCount == 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(h.OnTimeRepaymentCount)).
		Div(decimal.NewFromInt(int64(h.TotalRepaymentCount)))
}

// =============================================================================
// VENDOR CREDIT ACCOUNT
// =============================================================================

type VendorCreditAccount struct {
	VendorID    VendorID
	CreditLimit Money
	CreditUsed  Money

	History CreditHistory

	// Tier is recomputed from the score after each repayment unless an
	// authorized override pinned it.
	Tier       PerformanceTier
	TierPinned bool

	// Active: accounts are never deleted, only deactivated with the vendor.
	Active bool

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewVendorCreditAccount creates the account at vendor approval time.
func NewVendorCreditAccount(vendorID VendorID, creditLimit Money, createdAt time.Time) (*VendorCreditAccount, error) {
	if vendorID == "" {
		return nil, fmt.Errorf("%w: vendor id is required", ErrValidation)
	}
	if !creditLimit.IsPositive() {
		return nil, fmt.Errorf("%w: credit limit must be positive, got %s", ErrValidation, creditLimit)
	}
	return &VendorCreditAccount{
		VendorID:    vendorID,
		CreditLimit: creditLimit,
		CreditUsed:  ZeroMoney(),
		History: CreditHistory{
			CreditScore:          decimal.NewFromInt(100),
			AvgRepaymentDays:     decimal.Zero,
			TotalDiscountsEarned: ZeroMoney(),
			TotalInterestPaid:    ZeroMoney(),
		},
		Tier:      TierNotRated,
		Active:    true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

// AvailableCredit is derived, never stored as its own source of truth.
func (a *VendorCreditAccount) AvailableCredit() Money {
	return a.CreditLimit.Sub(a.CreditUsed)
}

// Utilization returns creditUsed / creditLimit in [0,1].
func (a *VendorCreditAccount) Utilization() decimal.Decimal {
	if !a.CreditLimit.IsPositive() {
		return decimal.Zero
	}
	return a.CreditUsed.Value.Div(a.CreditLimit.Value)
}

// =============================================================================
// PURCHASE ADMISSION - Read-only check before cycle creation
// =============================================================================

// PurchaseDecision is the structured result of a purchase admission check.
type PurchaseDecision struct {
	Allowed         bool
	AvailableCredit Money
	Shortfall       Money // zero when allowed
}

// ValidateNewPurchase rejects a purchase that would exceed available
// credit. Never mutates state; cycle creation is a separate action.
func (a *VendorCreditAccount) ValidateNewPurchase(amount Money) (PurchaseDecision, error) {
	if !amount.IsPositive() {
		return PurchaseDecision{}, fmt.Errorf("%w: purchase amount must be positive, got %s", ErrValidation, amount)
	}
	available := a.AvailableCredit()
	if amount.GreaterThan(available) {
		return PurchaseDecision{
			Allowed:         false,
			AvailableCredit: available,
			Shortfall:       amount.Sub(available),
		}, nil
	}
	return PurchaseDecision{Allowed: true, AvailableCredit: available, Shortfall: ZeroMoney()}, nil
}

// =============================================================================
// MUTATIONS - Called only from the ledger's serialized paths
// =============================================================================

// reserveCredit increases creditUsed when a cycle opens.
func (a *VendorCreditAccount) reserveCredit(amount Money, at time.Time) error {
	decision, err := a.ValidateNewPurchase(amount)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &InsufficientCreditError{
			VendorID:  a.VendorID,
			Requested: amount,
			Available: decision.AvailableCredit,
			Shortfall: decision.Shortfall,
		}
	}
	a.CreditUsed = a.CreditUsed.Add(amount)
	a.UpdatedAt = at
	return nil
}

// releaseCredit restores the principal portion of a repayment.
func (a *VendorCreditAccount) releaseCredit(principal Money, at time.Time) error {
	if principal.GreaterThan(a.CreditUsed) {
		return &CorruptedStateError{
			Detail: fmt.Sprintf("vendor %s: releasing %s would push creditUsed %s below zero",
				a.VendorID, principal, a.CreditUsed),
		}
	}
	a.CreditUsed = a.CreditUsed.Sub(principal)
	a.UpdatedAt = at
	return nil
}

// recordRepayment folds one repayment into the rolling history and
// recomputes score and tier.
func (a *VendorCreditAccount) recordRepayment(rec RepaymentRecord, onTime bool) {
	h := &a.History

	prevCount := decimal.NewFromInt(int64(h.TotalRepaymentCount))
	h.TotalRepaymentCount++
	if onTime {
		h.OnTimeRepaymentCount++
	}

	// Running mean: avg' = (avg*n + days) / (n+1).
	newCount := decimal.NewFromInt(int64(h.TotalRepaymentCount))
	h.AvgRepaymentDays = h.AvgRepaymentDays.Mul(prevCount).
		Add(decimal.NewFromInt(int64(rec.DaysElapsed))).
		Div(newCount)

	h.TotalDiscountsEarned = h.TotalDiscountsEarned.Add(rec.DiscountAmount)
	h.TotalInterestPaid = h.TotalInterestPaid.Add(rec.InterestAmount)
	paidAt := rec.PaidAt
	h.LastRepaymentDate = &paidAt

	h.CreditScore = computeCreditScore(*h)
	if !a.TierPinned {
		a.Tier = tierForScore(h.CreditScore, h.TotalRepaymentCount)
	}
	a.UpdatedAt = rec.PaidAt
}

// computeCreditScore maps history to [0,100]. 60 points follow the
// on-time ratio, 40 points follow speed (full credit at 0 average days,
// none at 120 or more).
func computeCreditScore(h CreditHistory) decimal.Decimal {
	if h.TotalRepaymentCount == 0 {
		return decimal.NewFromInt(100)
	}

	onTime := h.OnTimeRate().Mul(decimal.NewFromInt(60))

	speedWindow := decimal.NewFromInt(120)
	speedFactor := speedWindow.Sub(h.AvgRepaymentDays).Div(speedWindow)
	if speedFactor.IsNegative() {
		speedFactor = decimal.Zero
	}
	speed := speedFactor.Mul(decimal.NewFromInt(40))

	score := onTime.Add(speed).Round(2)
	if score.IsNegative() {
		return decimal.Zero
	}
	if score.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return score
}

// tierForScore buckets a score into a performance tier. Fewer than three
// repayments is not enough signal to rate.
func tierForScore(score decimal.Decimal, repayments int) PerformanceTier {
	if repayments < 3 {
		return TierNotRated
	}
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(90)):
		return TierPlatinum
	case score.GreaterThanOrEqual(decimal.NewFromInt(75)):
		return TierGold
	case score.GreaterThanOrEqual(decimal.NewFromInt(60)):
		return TierSilver
	default:
		return TierBronze
	}
}

// =============================================================================
// AUTHORIZED LIMIT CHANGES
// =============================================================================

// minReasonLength is the shortest acceptable justification for a limit
// change. The actor arrives already authorized; this subsystem only
// enforces that a reason was actually given.
const minReasonLength = 10

// ApplyLimitChange sets a new credit limit. The new limit must cover the
// credit currently in use so the account invariant keeps holding.
func (a *VendorCreditAccount) ApplyLimitChange(newLimit Money, actor, reason string, at time.Time) error {
	if strings.TrimSpace(actor) == "" {
		return fmt.Errorf("%w: actor is required for a limit change", ErrValidation)
	}
	if len(strings.TrimSpace(reason)) < minReasonLength {
		return fmt.Errorf("%w: limit change reason must be at least %d characters", ErrValidation, minReasonLength)
	}
	if !newLimit.IsPositive() {
		return fmt.Errorf("%w: credit limit must be positive, got %s", ErrValidation, newLimit)
	}
	if newLimit.LessThan(a.CreditUsed) {
		return fmt.Errorf("%w: new limit %s is below credit in use %s", ErrValidation, newLimit, a.CreditUsed)
	}
	a.CreditLimit = newLimit
	a.UpdatedAt = at
	return nil
}

// SetTierOverride pins the performance tier, stopping automatic recompute.
func (a *VendorCreditAccount) SetTierOverride(tier PerformanceTier, actor, reason string, at time.Time) error {
	if strings.TrimSpace(actor) == "" {
		return fmt.Errorf("%w: actor is required for a tier override", ErrValidation)
	}
	if len(strings.TrimSpace(reason)) < minReasonLength {
		return fmt.Errorf("%w: tier override reason must be at least %d characters", ErrValidation, minReasonLength)
	}
	a.Tier = tier
	a.TierPinned = true
	a.UpdatedAt = at
	return nil
}

// CheckInvariants verifies the account credit bounds.
func (a *VendorCreditAccount) CheckInvariants() error {
	if a.CreditUsed.IsNegative() || a.CreditUsed.GreaterThan(a.CreditLimit) {
		return &CorruptedStateError{
			Detail: fmt.Sprintf("vendor %s: creditUsed %s out of range [0, %s]",
				a.VendorID, a.CreditUsed, a.CreditLimit),
		}
	}
	return nil
}

// Clone returns a deep copy for safe snapshots.
func (a *VendorCreditAccount) Clone() *VendorCreditAccount {
	cp := *a
	if a.History.LastRepaymentDate != nil {
		d := *a.History.LastRepaymentDate
		cp.History.LastRepaymentDate = &d
	}
	return &cp
}
