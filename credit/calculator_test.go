package credit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeflow/credit-engine/credit"
)

func newCycle(t *testing.T, principal int64, start time.Time) *credit.CreditCycle {
	t.Helper()
	cycle, err := credit.NewCreditCycle("vendor-1", credit.NewMoneyFromInt(principal), start, "po-1")
	require.NoError(t, err)
	return cycle
}

var cycleStart = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

// =============================================================================
// FULL-SETTLEMENT QUOTES
// =============================================================================

func TestCalculateRepayment_DiscountWindow(t *testing.T) {
	// GIVEN: A 100,000 cycle, quoted 20 days in (3% discount bracket)
	// WHEN: Pricing a full settlement
	// THEN: Savings 3,000, payable 97,000

	cycle := newCycle(t, 100_000, cycleStart)
	asOf := cycleStart.AddDate(0, 0, 20)

	quote, err := credit.CalculateRepayment(credit.DefaultTierTable(), cycle, asOf)
	require.NoError(t, err)

	assert.Equal(t, 20, quote.DaysElapsed)
	assert.Equal(t, "prompt", quote.Tier.Name)
	assert.Equal(t, "3000.00", quote.SavingsFromEarlyPayment.String())
	assert.Equal(t, "0.00", quote.PenaltyFromLatePayment.String())
	assert.Equal(t, "97000.00", quote.FinalPayable.String())
}

func TestCalculateRepayment_NeutralZone(t *testing.T) {
	// GIVEN: A 100,000 cycle, quoted on day 80 (neutral zone)
	// WHEN: Pricing a full settlement
	// THEN: No adjustment in either direction

	cycle := newCycle(t, 100_000, cycleStart)
	quote, err := credit.CalculateRepayment(credit.DefaultTierTable(), cycle, cycleStart.AddDate(0, 0, 80))
	require.NoError(t, err)

	assert.Equal(t, credit.TierNeutral, quote.Tier.Kind)
	assert.Equal(t, "0.00", quote.SavingsFromEarlyPayment.String())
	assert.Equal(t, "0.00", quote.PenaltyFromLatePayment.String())
	assert.Equal(t, "100000.00", quote.FinalPayable.String())
}

func TestCalculateRepayment_InterestZone(t *testing.T) {
	// GIVEN: A 60,000 cycle, quoted on day 110 (5% interest bracket)
	// WHEN: Pricing a full settlement
	// THEN: Penalty 3,000, payable 63,000

	cycle := newCycle(t, 60_000, cycleStart)
	quote, err := credit.CalculateRepayment(credit.DefaultTierTable(), cycle, cycleStart.AddDate(0, 0, 110))
	require.NoError(t, err)

	assert.Equal(t, "late", quote.Tier.Name)
	assert.Equal(t, "0.00", quote.SavingsFromEarlyPayment.String())
	assert.Equal(t, "3000.00", quote.PenaltyFromLatePayment.String())
	assert.Equal(t, "63000.00", quote.FinalPayable.String())
}

func TestCalculateRepayment_PricesOutstandingNotPrincipal(t *testing.T) {
	// GIVEN: A cycle with a prior partial repayment
	// WHEN: Quoting a later settlement
	// THEN: The adjustment applies to the remaining balance only

	cycle := newCycle(t, 100_000, cycleStart)
	cycle.OutstandingAmount = credit.NewMoneyFromInt(60_000)
	cycle.TotalRepaid = credit.NewMoneyFromInt(40_000)
	cycle.Status = credit.CyclePartiallyPaid

	quote, err := credit.CalculateRepayment(credit.DefaultTierTable(), cycle, cycleStart.AddDate(0, 0, 10))
	require.NoError(t, err)

	// 5% of 60,000, not of 100,000.
	assert.Equal(t, "3000.00", quote.SavingsFromEarlyPayment.String())
	assert.Equal(t, "57000.00", quote.FinalPayable.String())
}

func TestCalculateRepayment_RejectsAsOfBeforeStart(t *testing.T) {
	// GIVEN: An as-of date before the cycle started
	// WHEN: Pricing a settlement
	// THEN: Validation fails rather than producing a negative-day quote

	cycle := newCycle(t, 100_000, cycleStart)
	_, err := credit.CalculateRepayment(credit.DefaultTierTable(), cycle, cycleStart.AddDate(0, 0, -1))
	require.Error(t, err)
	assert.ErrorIs(t, err, credit.ErrValidation)
}

func TestCalculateRepayment_IsPure(t *testing.T) {
	// GIVEN: One cycle
	// WHEN: Quoting twice with different dates
	// THEN: The cycle is untouched and the quotes are independent

	cycle := newCycle(t, 100_000, cycleStart)
	before := cycle.OutstandingAmount

	_, err := credit.CalculateRepayment(credit.DefaultTierTable(), cycle, cycleStart.AddDate(0, 0, 10))
	require.NoError(t, err)
	_, err = credit.CalculateRepayment(credit.DefaultTierTable(), cycle, cycleStart.AddDate(0, 0, 150))
	require.NoError(t, err)

	assert.True(t, cycle.OutstandingAmount.Equal(before))
	assert.Empty(t, cycle.Repayments)
}

// =============================================================================
// PER-AMOUNT PRICING
// =============================================================================

func TestQuoteAmount_RoundsToCent(t *testing.T) {
	// GIVEN: An amount whose 3% adjustment is not a whole cent
	// WHEN: Pricing it in a discount bracket
	// THEN: The adjustment is rounded to two decimal places

	tier := credit.DefaultTierTable().Resolve(20)
	discount, interest := credit.QuoteAmount(tier, credit.MustParseMoney("1000.33"))

	// 1000.33 * 0.03 = 30.0099 -> 30.01
	assert.Equal(t, "30.01", discount.String())
	assert.True(t, interest.IsZero())
}

func TestQuoteAmount_NeutralHasNoAdjustment(t *testing.T) {
	tier := credit.DefaultTierTable().Resolve(80)
	discount, interest := credit.QuoteAmount(tier, credit.NewMoneyFromInt(50_000))
	assert.True(t, discount.IsZero())
	assert.True(t, interest.IsZero())
}

// =============================================================================
// CYCLE-RELATIVE DAY MATH
// =============================================================================

func TestDaysElapsed_CalendarDates(t *testing.T) {
	// GIVEN: A cycle started at 23:59 UTC
	// WHEN: Measuring elapsed days the next morning
	// THEN: One calendar day has elapsed regardless of clock time

	start := time.Date(2025, time.March, 1, 23, 59, 0, 0, time.UTC)
	asOf := time.Date(2025, time.March, 2, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, credit.DaysElapsed(start, asOf))

	assert.Equal(t, 0, credit.DaysElapsed(start, start))
	assert.Equal(t, 30, credit.DaysElapsed(cycleStart, cycleStart.AddDate(0, 0, 30)))
}
