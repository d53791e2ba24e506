/*
analyzer.go - Vendor performance analysis and limit recommendations

PURPOSE:
  Derives a credit-limit recommendation (increase / maintain / decrease,
  plus a suggested new limit and a risk level) from a vendor's credit
  history. Read-only: applying a recommendation is a separate authorized
  action that goes back through the account's own invariant checks.

RULE ORDER:
  Rules run in a fixed order. Later rules may ESCALATE the outcome but
  never silently downgrade a decrease or a high risk once set:
  1. Credit score: >=90 leans increase; <60 forces decrease, high risk
  2. On-time rate: >=90% (with >=5 repayments) leans increase;
     <60% forces decrease, high risk
  3. Average repayment days: <=30 supports increase; >100 raises risk
     to at least medium
  4. Discounts vs interest: lifetime discounts > interest signals
     discipline; interest > 2x discounts raises risk
  5. Activity bonus: >=10 repayments while recommending increase bumps
     the suggested delta to the top tier

SUGGESTED LIMITS (increase):
  score >= 95 and >= 10 repayments: +50,000
  score >= 85:                      +25,000
  otherwise:                        +10,000
  For decrease at high risk: max(50,000, floor(limit * 0.8)).

SEE ALSO:
  - account.go: The history this reads
  - ledger.go: Engine.AnalyzeVendorPerformance / ApplyLimitChange
*/
package credit

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

type Recommendation string

const (
	RecommendIncrease Recommendation = "increase"
	RecommendMaintain Recommendation = "maintain"
	RecommendDecrease Recommendation = "decrease"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func riskRank(r RiskLevel) int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// PerformanceReport is the analyzer's structured output.
type PerformanceReport struct {
	VendorID          VendorID
	Recommendation    Recommendation
	SuggestedNewLimit Money
	RiskLevel         RiskLevel
	Reasoning         []string

	CreditScore      decimal.Decimal
	OnTimeRate       decimal.Decimal
	AvgRepaymentDays decimal.Decimal
	RepaymentCount   int
}

// =============================================================================
// ANALYZER
// =============================================================================

// outcome tracks the escalation-only decision state across rules.
type outcome struct {
	rec           Recommendation
	risk          RiskLevel
	forcedDecline bool // a forced decrease is never downgraded
	leanIncrease  bool
	reasons       []string
}

func (o *outcome) note(format string, args ...any) {
	o.reasons = append(o.reasons, fmt.Sprintf(format, args...))
}

func (o *outcome) raiseRisk(to RiskLevel) {
	if riskRank(to) > riskRank(o.risk) {
		o.risk = to
	}
}

func (o *outcome) forceDecrease() {
	o.rec = RecommendDecrease
	o.risk = RiskHigh
	o.forcedDecline = true
}

// AnalyzeVendorAccount runs the rule set over a vendor account. Pure
// function: never mutates the account.
func AnalyzeVendorAccount(acct *VendorCreditAccount) PerformanceReport {
	h := acct.History
	onTimeRate := h.OnTimeRate()
	o := &outcome{rec: RecommendMaintain, risk: RiskLow}

	// Rule 1: credit score.
	score90 := decimal.NewFromInt(90)
	score60 := decimal.NewFromInt(60)
	switch {
	case h.CreditScore.GreaterThanOrEqual(score90):
		o.leanIncrease = true
		o.note("credit score %s is excellent (>= 90)", h.CreditScore)
	case h.CreditScore.LessThan(score60):
		o.forceDecrease()
		o.note("credit score %s is poor (< 60); reducing exposure", h.CreditScore)
	}

	// Rule 2: on-time rate, only statistically meaningful from 5 repayments.
	rate90 := MustParseMoney("0.9").Value
	rate60 := MustParseMoney("0.6").Value
	if h.TotalRepaymentCount >= 5 {
		switch {
		case onTimeRate.GreaterThanOrEqual(rate90):
			o.leanIncrease = true
			o.note("on-time rate %s%% across %d repayments (>= 90%%)",
				onTimeRate.Mul(decimal.NewFromInt(100)).Round(1), h.TotalRepaymentCount)
		case onTimeRate.LessThan(rate60):
			o.forceDecrease()
			o.note("on-time rate %s%% is unreliable (< 60%%)",
				onTimeRate.Mul(decimal.NewFromInt(100)).Round(1))
		}
	} else if h.TotalRepaymentCount > 0 {
		o.note("only %d repayments on record; on-time rate not yet meaningful", h.TotalRepaymentCount)
	}

	// Rule 3: average repayment days.
	if h.TotalRepaymentCount > 0 {
		switch {
		case h.AvgRepaymentDays.LessThanOrEqual(decimal.NewFromInt(30)):
			o.note("average repayment in %s days supports an increase", h.AvgRepaymentDays.Round(1))
		case h.AvgRepaymentDays.GreaterThan(decimal.NewFromInt(100)):
			o.raiseRisk(RiskMedium)
			o.note("average repayment takes %s days (> 100); elevated risk", h.AvgRepaymentDays.Round(1))
		}
	}

	// Rule 4: lifetime discounts vs interest.
	if h.TotalDiscountsEarned.GreaterThan(h.TotalInterestPaid) {
		o.note("discounts earned %s exceed interest paid %s; disciplined repayment pattern",
			h.TotalDiscountsEarned, h.TotalInterestPaid)
	} else if h.TotalInterestPaid.GreaterThan(h.TotalDiscountsEarned.Mul(decimal.NewFromInt(2))) &&
		h.TotalInterestPaid.IsPositive() {
		o.raiseRisk(RiskMedium)
		o.note("interest paid %s is more than twice discounts earned %s; elevated risk",
			h.TotalInterestPaid, h.TotalDiscountsEarned)
	}

	// Settle the recommendation: leans apply only if nothing forced a decrease.
	if !o.forcedDecline && o.leanIncrease {
		o.rec = RecommendIncrease
	}

	// Suggested limit magnitudes.
	suggested := acct.CreditLimit
	switch o.rec {
	case RecommendIncrease:
		delta := increaseDelta(h.CreditScore, h.TotalRepaymentCount)
		// Rule 5: activity bonus bumps to the top tier.
		if h.TotalRepaymentCount >= 10 {
			top := NewMoneyFromInt(topIncreaseDelta)
			if delta.LessThan(top) {
				delta = top
				o.note("%d completed repayments; activity bonus raises the suggested increase", h.TotalRepaymentCount)
			}
		}
		suggested = acct.CreditLimit.Add(delta)
		o.note("suggesting limit %s (+%s)", suggested, delta)
	case RecommendDecrease:
		if o.risk == RiskHigh {
			suggested = decreasedLimit(acct.CreditLimit)
			o.note("suggesting reduced limit %s", suggested)
		}
	}

	return PerformanceReport{
		VendorID:          acct.VendorID,
		Recommendation:    o.rec,
		SuggestedNewLimit: suggested,
		RiskLevel:         o.risk,
		Reasoning:         o.reasons,
		CreditScore:       h.CreditScore,
		OnTimeRate:        onTimeRate,
		AvgRepaymentDays:  h.AvgRepaymentDays,
		RepaymentCount:    h.TotalRepaymentCount,
	}
}

const (
	topIncreaseDelta  = 50_000
	highIncreaseDelta = 25_000
	baseIncreaseDelta = 10_000
)

func increaseDelta(score decimal.Decimal, repayments int) Money {
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(95)) && repayments >= 10:
		return NewMoneyFromInt(topIncreaseDelta)
	case score.GreaterThanOrEqual(decimal.NewFromInt(85)):
		return NewMoneyFromInt(highIncreaseDelta)
	default:
		return NewMoneyFromInt(baseIncreaseDelta)
	}
}

// decreasedLimit is max(50,000, floor(limit * 0.8)).
func decreasedLimit(limit Money) Money {
	reduced := Money{Value: limit.Value.Mul(MustParseMoney("0.8").Value).Floor()}
	floor := NewMoneyFromInt(50_000)
	if reduced.LessThan(floor) {
		return floor
	}
	return reduced
}
