/*
calculator.go - Pure repayment pricing

PURPOSE:
  Answers "what would I owe if I paid now?" without touching any state.
  Given a cycle and an as-of date, it computes days elapsed, resolves the
  tier in force, and produces a full breakdown for the CURRENT outstanding
  balance: savings from early payment, penalty from late payment, and the
  final payable.

PRO-RATA PRICING:
  Each repayment is priced independently at the rate in force at that
  moment. A vendor who pays in two installments pays each installment at
  that installment's rate - never a blended or averaged rate across the
  cycle's lifetime. QuoteAmount prices an arbitrary amount this way and is
  the single pricing routine the ledger consumes when posting.

PURITY:
  No side effects, no clock reads. Safe to call any number of times for
  previews; the ledger calls the exact same code when it commits, so a
  preview can never disagree with a posting.

SEE ALSO:
  - tier.go: The rate table these functions resolve against
  - ledger.go: ApplyPartialRepayment, the consuming write path
*/
package credit

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REPAYMENT QUOTE - Full pricing breakdown for the outstanding balance
// =============================================================================

type RepaymentQuote struct {
	CycleID     CycleID
	AsOf        time.Time
	DaysElapsed int

	Tier         Tier
	DiscountRate decimal.Decimal
	InterestRate decimal.Decimal

	Outstanding Money

	// SavingsFromEarlyPayment and PenaltyFromLatePayment are mutually
	// exclusive: at most one is non-zero, matching the tier kind.
	SavingsFromEarlyPayment Money
	PenaltyFromLatePayment  Money

	// FinalPayable = Outstanding - savings + penalty.
	FinalPayable Money
}

// CalculateRepayment prices the cycle's current outstanding balance as of
// the given date. Pure function of (table, cycle, asOf).
func CalculateRepayment(table TierTable, cycle *CreditCycle, asOf time.Time) (RepaymentQuote, error) {
	if cycle == nil {
		return RepaymentQuote{}, fmt.Errorf("%w: cycle is required", ErrValidation)
	}
	if asOf.IsZero() {
		return RepaymentQuote{}, fmt.Errorf("%w: as-of date is required", ErrValidation)
	}
	if asOf.Before(cycle.CycleStartDate) {
		return RepaymentQuote{}, fmt.Errorf("%w: as-of date %s precedes cycle start %s",
			ErrValidation, asOf.Format("2006-01-02"), cycle.CycleStartDate.Format("2006-01-02"))
	}

	days := DaysElapsed(cycle.CycleStartDate, asOf)
	tier := table.Resolve(days)
	discount, interest := QuoteAmount(tier, cycle.OutstandingAmount)

	quote := RepaymentQuote{
		CycleID:                 cycle.ID,
		AsOf:                    asOf,
		DaysElapsed:             days,
		Tier:                    tier,
		Outstanding:             cycle.OutstandingAmount,
		SavingsFromEarlyPayment: discount,
		PenaltyFromLatePayment:  interest,
		FinalPayable:            cycle.OutstandingAmount.Sub(discount).Add(interest),
	}
	switch tier.Kind {
	case TierDiscount:
		quote.DiscountRate = tier.Rate
		quote.InterestRate = decimal.Zero
	case TierInterest:
		quote.DiscountRate = decimal.Zero
		quote.InterestRate = tier.Rate
	default:
		quote.DiscountRate = decimal.Zero
		quote.InterestRate = decimal.Zero
	}
	return quote, nil
}

// QuoteAmount prices an arbitrary repayment amount at the given tier,
// returning (discountAmount, interestAmount). Exactly one of the two is
// non-zero for discount/interest tiers; both are zero in the neutral zone.
// Adjustments are rounded to the cent.
func QuoteAmount(tier Tier, amount Money) (discount, interest Money) {
	discount = ZeroMoney()
	interest = ZeroMoney()
	switch tier.Kind {
	case TierDiscount:
		discount = amount.Mul(tier.Rate).Round(2)
	case TierInterest:
		interest = amount.Mul(tier.Rate).Round(2)
	}
	return discount, interest
}
