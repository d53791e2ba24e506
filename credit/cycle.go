/*
cycle.go - Credit cycle aggregate and repayment records

PURPOSE:
  One CreditCycle per approved purchase. The cycle owns its principal,
  outstanding balance, total repaid, and the ordered list of repayment
  records. It is fully isolated from every other cycle, including other
  cycles of the same vendor.

CRITICAL INVARIANTS:
  1. totalRepaid + outstandingAmount == principalAmount, always, exactly
  2. 0 <= outstandingAmount <= principalAmount
  3. principalAmount is immutable once set
  4. CycleStatus is derived from the balance, never assigned by callers
  5. RepaymentRecords are immutable; corrections are compensating records

STATE MACHINE:
  inactive -> active -> partially_paid -> fully_paid -> closed
  active/partially_paid accept repayments; fully_paid and closed do not.
  The engine confirms the close (stamps CycleClosedDate) in the same
  mutation that zeroes the balance.

SEE ALSO:
  - ledger.go: The only write path into a cycle
  - calculator.go: Pure pricing against a cycle's outstanding balance
*/
package credit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// REPAYMENT RECORD - One per repayment transaction, immutable
// =============================================================================

type RepaymentRecord struct {
	ID       RepaymentID
	CycleID  CycleID
	VendorID VendorID

	// PrincipalRepaid is the portion of the outstanding balance paid down.
	// Never exceeds the cycle's outstanding at repayment time.
	PrincipalRepaid Money

	// Cycle-relative timing and the rate bracket in force at that moment.
	DaysElapsed int
	TierName    string
	TierKind    TierKind
	Rate        decimal.Decimal

	// At most one of DiscountAmount / InterestAmount is non-zero.
	DiscountAmount Money
	InterestAmount Money

	// ActualAmountPaid = PrincipalRepaid - DiscountAmount + InterestAmount.
	ActualAmountPaid Money

	// Audit snapshot of the vendor account at the moment of posting.
	CreditUsedBefore Money
	CreditUsedAfter  Money

	PaidAt    time.Time
	CreatedAt time.Time
}

// =============================================================================
// CREDIT CYCLE - Aggregate root for one credit draw
// =============================================================================

type CreditCycle struct {
	ID          CycleID
	VendorID    VendorID
	PurchaseRef string // external purchase-order reference

	PrincipalAmount   Money
	OutstandingAmount Money
	TotalRepaid       Money

	TotalDiscountEarned Money
	TotalInterestPaid   Money

	CycleStartDate  time.Time
	CycleClosedDate *time.Time

	Status  CycleStatus
	Version int64 // optimistic concurrency revision

	// Insertion order == chronological order.
	Repayments []RepaymentRecord
}

// NewCreditCycle opens a cycle for an approved purchase. The start date is
// set exactly once here; all elapsed-day math is relative to it.
func NewCreditCycle(vendorID VendorID, principal Money, startDate time.Time, purchaseRef string) (*CreditCycle, error) {
	if vendorID == "" {
		return nil, fmt.Errorf("%w: vendor id is required", ErrValidation)
	}
	if !principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive, got %s", ErrValidation, principal)
	}
	if startDate.IsZero() {
		return nil, fmt.Errorf("%w: cycle start date is required", ErrValidation)
	}
	return &CreditCycle{
		ID:                  CycleID(uuid.NewString()),
		VendorID:            vendorID,
		PurchaseRef:         purchaseRef,
		PrincipalAmount:     principal,
		OutstandingAmount:   principal,
		TotalRepaid:         ZeroMoney(),
		TotalDiscountEarned: ZeroMoney(),
		TotalInterestPaid:   ZeroMoney(),
		CycleStartDate:      startDate,
		Status:              CycleActive,
	}, nil
}

// RepaymentStatus is derived purely from TotalRepaid vs PrincipalAmount.
func (c *CreditCycle) RepaymentStatus() RepaymentStatus {
	switch {
	case c.TotalRepaid.IsZero():
		return RepaymentNotStarted
	case c.TotalRepaid.Equal(c.PrincipalAmount):
		return RepaymentCompleted
	default:
		return RepaymentInProgress
	}
}

// IsOpen reports whether the cycle can still accept repayments.
func (c *CreditCycle) IsOpen() bool {
	return (c.Status == CycleActive || c.Status == CyclePartiallyPaid) &&
		c.OutstandingAmount.IsPositive()
}

// CheckInvariants verifies the balance laws. A violation means the stored
// record is corrupt; the caller must abort rather than coerce.
func (c *CreditCycle) CheckInvariants() error {
	if c.OutstandingAmount.IsNegative() || c.OutstandingAmount.GreaterThan(c.PrincipalAmount) {
		return &CorruptedStateError{
			CycleID: c.ID,
			Detail: fmt.Sprintf("outstanding %s out of range [0, %s]",
				c.OutstandingAmount, c.PrincipalAmount),
		}
	}
	if !c.TotalRepaid.Add(c.OutstandingAmount).Equal(c.PrincipalAmount) {
		return &CorruptedStateError{
			CycleID: c.ID,
			Detail: fmt.Sprintf("totalRepaid %s + outstanding %s != principal %s",
				c.TotalRepaid, c.OutstandingAmount, c.PrincipalAmount),
		}
	}
	return nil
}

// applyRepayment posts a record and rolls the balance forward. The status
// transition is recomputed here, in the same mutation, so it can never
// drift from the balance. Closing is confirmed immediately once the
// balance reaches zero.
func (c *CreditCycle) applyRepayment(rec RepaymentRecord) {
	c.OutstandingAmount = c.OutstandingAmount.Sub(rec.PrincipalRepaid)
	c.TotalRepaid = c.TotalRepaid.Add(rec.PrincipalRepaid)
	c.TotalDiscountEarned = c.TotalDiscountEarned.Add(rec.DiscountAmount)
	c.TotalInterestPaid = c.TotalInterestPaid.Add(rec.InterestAmount)
	c.Repayments = append(c.Repayments, rec)

	c.Status = c.deriveStatus()
	if c.Status == CycleFullyPaid {
		closed := rec.PaidAt
		c.CycleClosedDate = &closed
		c.Status = CycleClosed
	}
}

func (c *CreditCycle) deriveStatus() CycleStatus {
	switch {
	case c.OutstandingAmount.IsZero():
		return CycleFullyPaid
	case c.OutstandingAmount.Equal(c.PrincipalAmount):
		return CycleActive
	default:
		return CyclePartiallyPaid
	}
}

// Clone returns a deep copy, so stores can hand out safe snapshots.
func (c *CreditCycle) Clone() *CreditCycle {
	cp := *c
	if c.CycleClosedDate != nil {
		d := *c.CycleClosedDate
		cp.CycleClosedDate = &d
	}
	cp.Repayments = make([]RepaymentRecord, len(c.Repayments))
	copy(cp.Repayments, c.Repayments)
	return &cp
}

// newRepaymentID mints a v4 UUID for a repayment record.
func newRepaymentID() RepaymentID { return RepaymentID(uuid.NewString()) }
