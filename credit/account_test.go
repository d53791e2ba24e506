package credit_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeflow/credit-engine/credit"
)

func newAccount(t *testing.T, limit int64) *credit.VendorCreditAccount {
	t.Helper()
	acct, err := credit.NewVendorCreditAccount("vendor-1", credit.NewMoneyFromInt(limit), cycleStart)
	require.NoError(t, err)
	return acct
}

// =============================================================================
// PURCHASE ADMISSION
// =============================================================================

func TestValidateNewPurchase_WithinLimit(t *testing.T) {
	// GIVEN: A fresh account with a 500,000 limit
	// WHEN: Validating a 200,000 purchase
	// THEN: Allowed, no shortfall

	acct := newAccount(t, 500_000)
	decision, err := acct.ValidateNewPurchase(credit.NewMoneyFromInt(200_000))
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, "500000.00", decision.AvailableCredit.String())
	assert.True(t, decision.Shortfall.IsZero())
}

func TestValidateNewPurchase_ExceedsAvailable_ReportsShortfall(t *testing.T) {
	// GIVEN: 450,000 of a 500,000 limit already in use
	// WHEN: Validating a 100,000 purchase (50,000 available)
	// THEN: Rejected with the exact 50,000 shortfall

	acct := newAccount(t, 500_000)
	acct.CreditUsed = credit.NewMoneyFromInt(450_000)

	decision, err := acct.ValidateNewPurchase(credit.NewMoneyFromInt(100_000))
	require.NoError(t, err)

	assert.False(t, decision.Allowed)
	assert.Equal(t, "50000.00", decision.AvailableCredit.String())
	assert.Equal(t, "50000.00", decision.Shortfall.String())
}

func TestValidateNewPurchase_ExactlyAvailable_Allowed(t *testing.T) {
	// GIVEN: 50,000 available credit
	// WHEN: Validating a purchase of exactly 50,000
	// THEN: Allowed; the bound is inclusive

	acct := newAccount(t, 500_000)
	acct.CreditUsed = credit.NewMoneyFromInt(450_000)

	decision, err := acct.ValidateNewPurchase(credit.NewMoneyFromInt(50_000))
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestValidateNewPurchase_RejectsNonPositive(t *testing.T) {
	acct := newAccount(t, 500_000)
	_, err := acct.ValidateNewPurchase(credit.ZeroMoney())
	assert.ErrorIs(t, err, credit.ErrValidation)

	_, err = acct.ValidateNewPurchase(credit.NewMoneyFromInt(-10))
	assert.ErrorIs(t, err, credit.ErrValidation)
}

// =============================================================================
// CREDIT SCORE
// =============================================================================

func TestCreditScore_FreshAccountStartsAt100(t *testing.T) {
	acct := newAccount(t, 500_000)
	assert.True(t, acct.History.CreditScore.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, credit.TierNotRated, acct.Tier)
}

func TestOnTimeRate_FreshHistoryIsOne(t *testing.T) {
	acct := newAccount(t, 500_000)
	assert.True(t, acct.History.OnTimeRate().Equal(decimal.NewFromInt(1)))
}

// =============================================================================
// LIMIT CHANGES
// =============================================================================

func TestApplyLimitChange_Succeeds(t *testing.T) {
	// GIVEN: An account with 100,000 in use
	// WHEN: An authorized actor raises the limit with a real reason
	// THEN: The limit changes

	acct := newAccount(t, 500_000)
	acct.CreditUsed = credit.NewMoneyFromInt(100_000)

	err := acct.ApplyLimitChange(credit.NewMoneyFromInt(600_000), "risk-team", "annual review: strong repayment record", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, "600000.00", acct.CreditLimit.String())
}

func TestApplyLimitChange_RejectsLimitBelowUsage(t *testing.T) {
	// GIVEN: 100,000 of credit in use
	// WHEN: Lowering the limit to 80,000
	// THEN: Rejected; the account invariant must keep holding

	acct := newAccount(t, 500_000)
	acct.CreditUsed = credit.NewMoneyFromInt(100_000)

	err := acct.ApplyLimitChange(credit.NewMoneyFromInt(80_000), "risk-team", "exposure reduction required", time.Now().UTC())
	assert.ErrorIs(t, err, credit.ErrValidation)
	assert.Equal(t, "500000.00", acct.CreditLimit.String())
}

func TestApplyLimitChange_RejectsShortReason(t *testing.T) {
	acct := newAccount(t, 500_000)
	err := acct.ApplyLimitChange(credit.NewMoneyFromInt(600_000), "risk-team", "ok", time.Now().UTC())
	assert.ErrorIs(t, err, credit.ErrValidation)
}

func TestApplyLimitChange_RejectsMissingActor(t *testing.T) {
	acct := newAccount(t, 500_000)
	err := acct.ApplyLimitChange(credit.NewMoneyFromInt(600_000), "  ", "annual review: strong repayment record", time.Now().UTC())
	assert.ErrorIs(t, err, credit.ErrValidation)
}

// =============================================================================
// TIER OVERRIDE
// =============================================================================

func TestSetTierOverride_PinsTier(t *testing.T) {
	// GIVEN: An unrated account
	// WHEN: An authorized override sets gold
	// THEN: The tier is pinned against automatic recompute

	acct := newAccount(t, 500_000)
	err := acct.SetTierOverride(credit.TierGold, "risk-team", "strategic partner onboarding", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, credit.TierGold, acct.Tier)
	assert.True(t, acct.TierPinned)
}

// =============================================================================
// INVARIANTS
// =============================================================================

func TestAccountCheckInvariants(t *testing.T) {
	acct := newAccount(t, 500_000)
	require.NoError(t, acct.CheckInvariants())

	acct.CreditUsed = credit.NewMoneyFromInt(600_000)
	err := acct.CheckInvariants()
	require.Error(t, err)
	assert.ErrorIs(t, err, credit.ErrCorruptedState)
}

func TestUtilization(t *testing.T) {
	acct := newAccount(t, 500_000)
	acct.CreditUsed = credit.NewMoneyFromInt(450_000)
	assert.True(t, acct.Utilization().Equal(decimal.NewFromFloat(0.9)))
}
