package credit_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeflow/credit-engine/credit"
)

func analyzerAccount(t *testing.T, limit int64, h credit.CreditHistory) *credit.VendorCreditAccount {
	t.Helper()
	acct, err := credit.NewVendorCreditAccount("vendor-1", credit.NewMoneyFromInt(limit), cycleStart)
	require.NoError(t, err)
	acct.History = h
	return acct
}

// =============================================================================
// RECOMMENDATION MATRIX
// =============================================================================

func TestAnalyze_ExcellentVendor_TopIncrease(t *testing.T) {
	// GIVEN: Score 96, 12 repayments, 95% on-time, fast repayer
	// WHEN: Analyzing the account
	// THEN: Increase of the top delta (+50,000), low risk

	acct := analyzerAccount(t, 500_000, credit.CreditHistory{
		CreditScore:          decimal.NewFromInt(96),
		TotalRepaymentCount:  12,
		OnTimeRepaymentCount: 11, // ~92%, still >= 90%
		AvgRepaymentDays:     decimal.NewFromInt(25),
		TotalDiscountsEarned: credit.NewMoneyFromInt(8_000),
		TotalInterestPaid:    credit.NewMoneyFromInt(500),
	})

	report := credit.AnalyzeVendorAccount(acct)

	assert.Equal(t, credit.RecommendIncrease, report.Recommendation)
	assert.Equal(t, "550000.00", report.SuggestedNewLimit.String())
	assert.Equal(t, credit.RiskLow, report.RiskLevel)
	assert.NotEmpty(t, report.Reasoning)
	assert.Equal(t, 12, report.RepaymentCount)
}

func TestAnalyze_GoodVendor_MidIncrease(t *testing.T) {
	// GIVEN: Score 92 with only 4 repayments
	// WHEN: Analyzing
	// THEN: Score leans increase; delta is the 25,000 band (score >= 85
	//       but activity too thin for the top delta)

	acct := analyzerAccount(t, 500_000, credit.CreditHistory{
		CreditScore:          decimal.NewFromInt(92),
		TotalRepaymentCount:  4,
		OnTimeRepaymentCount: 4,
		AvgRepaymentDays:     decimal.NewFromInt(20),
		TotalDiscountsEarned: credit.NewMoneyFromInt(2_000),
		TotalInterestPaid:    credit.ZeroMoney(),
	})

	report := credit.AnalyzeVendorAccount(acct)

	assert.Equal(t, credit.RecommendIncrease, report.Recommendation)
	assert.Equal(t, "525000.00", report.SuggestedNewLimit.String())
}

func TestAnalyze_PoorScore_ForcedDecrease(t *testing.T) {
	// GIVEN: Score 45
	// WHEN: Analyzing
	// THEN: Decrease, high risk, suggested limit floor(500,000 * 0.8)

	acct := analyzerAccount(t, 500_000, credit.CreditHistory{
		CreditScore:          decimal.NewFromInt(45),
		TotalRepaymentCount:  8,
		OnTimeRepaymentCount: 6,
		AvgRepaymentDays:     decimal.NewFromInt(90),
		TotalDiscountsEarned: credit.ZeroMoney(),
		TotalInterestPaid:    credit.NewMoneyFromInt(12_000),
	})

	report := credit.AnalyzeVendorAccount(acct)

	assert.Equal(t, credit.RecommendDecrease, report.Recommendation)
	assert.Equal(t, credit.RiskHigh, report.RiskLevel)
	assert.Equal(t, "400000.00", report.SuggestedNewLimit.String())
}

func TestAnalyze_DecreaseFloor(t *testing.T) {
	// GIVEN: Poor score on a small 60,000 limit
	// WHEN: Analyzing
	// THEN: The reduced limit floors at 50,000, not 48,000

	acct := analyzerAccount(t, 60_000, credit.CreditHistory{
		CreditScore:         decimal.NewFromInt(40),
		TotalRepaymentCount: 6,
	})

	report := credit.AnalyzeVendorAccount(acct)
	assert.Equal(t, credit.RecommendDecrease, report.Recommendation)
	assert.Equal(t, "50000.00", report.SuggestedNewLimit.String())
}

func TestAnalyze_UnreliableOnTimeRate_ForcedDecrease(t *testing.T) {
	// GIVEN: Acceptable score but 50% on-time across 8 repayments
	// WHEN: Analyzing
	// THEN: The on-time rule forces a decrease even though the score did not

	acct := analyzerAccount(t, 500_000, credit.CreditHistory{
		CreditScore:          decimal.NewFromInt(70),
		TotalRepaymentCount:  8,
		OnTimeRepaymentCount: 4,
		AvgRepaymentDays:     decimal.NewFromInt(60),
	})

	report := credit.AnalyzeVendorAccount(acct)
	assert.Equal(t, credit.RecommendDecrease, report.Recommendation)
	assert.Equal(t, credit.RiskHigh, report.RiskLevel)
}

func TestAnalyze_ForcedDecrease_NeverDowngraded(t *testing.T) {
	// GIVEN: A poor score AND strong on-time metrics
	// WHEN: The later lean-increase rules run
	// THEN: The forced decrease stands; escalation is one-way

	acct := analyzerAccount(t, 500_000, credit.CreditHistory{
		CreditScore:          decimal.NewFromInt(50),
		TotalRepaymentCount:  10,
		OnTimeRepaymentCount: 10,
		AvgRepaymentDays:     decimal.NewFromInt(10),
		TotalDiscountsEarned: credit.NewMoneyFromInt(9_000),
	})

	report := credit.AnalyzeVendorAccount(acct)
	assert.Equal(t, credit.RecommendDecrease, report.Recommendation)
	assert.Equal(t, credit.RiskHigh, report.RiskLevel)
}

func TestAnalyze_SlowRepayer_MediumRisk(t *testing.T) {
	// GIVEN: Average repayment above 100 days, middling score
	// WHEN: Analyzing
	// THEN: Maintain, but risk is raised to medium

	acct := analyzerAccount(t, 500_000, credit.CreditHistory{
		CreditScore:          decimal.NewFromInt(72),
		TotalRepaymentCount:  6,
		OnTimeRepaymentCount: 5,
		AvgRepaymentDays:     decimal.NewFromInt(108),
	})

	report := credit.AnalyzeVendorAccount(acct)
	assert.Equal(t, credit.RecommendMaintain, report.Recommendation)
	assert.Equal(t, credit.RiskMedium, report.RiskLevel)
}

func TestAnalyze_InterestHeavyHistory_MediumRisk(t *testing.T) {
	// GIVEN: Lifetime interest more than twice lifetime discounts
	// WHEN: Analyzing
	// THEN: Risk is at least medium

	acct := analyzerAccount(t, 500_000, credit.CreditHistory{
		CreditScore:          decimal.NewFromInt(75),
		TotalRepaymentCount:  6,
		OnTimeRepaymentCount: 5,
		AvgRepaymentDays:     decimal.NewFromInt(50),
		TotalDiscountsEarned: credit.NewMoneyFromInt(1_000),
		TotalInterestPaid:    credit.NewMoneyFromInt(5_000),
	})

	report := credit.AnalyzeVendorAccount(acct)
	assert.Equal(t, credit.RiskMedium, report.RiskLevel)
}

func TestAnalyze_FreshAccount_Maintains(t *testing.T) {
	// GIVEN: An account with no repayment history
	// WHEN: Analyzing
	// THEN: Score 100 leans increase on the base delta; no risk signals

	acct := analyzerAccount(t, 500_000, credit.CreditHistory{
		CreditScore: decimal.NewFromInt(100),
	})

	report := credit.AnalyzeVendorAccount(acct)
	assert.Equal(t, credit.RecommendIncrease, report.Recommendation)
	assert.Equal(t, credit.RiskLow, report.RiskLevel)
	// Score 100 >= 85 but no activity: the 25,000 band.
	assert.Equal(t, "525000.00", report.SuggestedNewLimit.String())
}

func TestAnalyze_IsReadOnly(t *testing.T) {
	acct := analyzerAccount(t, 500_000, credit.CreditHistory{
		CreditScore:         decimal.NewFromInt(96),
		TotalRepaymentCount: 12,
	})
	before := *acct

	_ = credit.AnalyzeVendorAccount(acct)
	assert.Equal(t, before.CreditLimit, acct.CreditLimit)
	assert.Equal(t, before.History.CreditScore, acct.History.CreditScore)
}
