/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract. Money is serialized
  as fixed-two-decimal strings; dates as RFC 3339.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/tradeflow/credit-engine/credit"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateVendorRequest provisions a vendor credit account.
type CreateVendorRequest struct {
	VendorID    string `json:"vendor_id"`
	CreditLimit string `json:"credit_limit"`
}

// ValidatePurchaseRequest is the read-only admission check.
type ValidatePurchaseRequest struct {
	Amount string `json:"amount"`
}

// OpenCycleRequest creates a cycle for an already-approved purchase.
type OpenCycleRequest struct {
	VendorID    string `json:"vendor_id"`
	Principal   string `json:"principal"`
	AsOf        string `json:"as_of"` // RFC 3339; approval time
	PurchaseRef string `json:"purchase_ref,omitempty"`
}

// RepaymentRequest posts a partial repayment against a cycle.
type RepaymentRequest struct {
	Amount string `json:"amount"`
	AsOf   string `json:"as_of"`
}

// LimitChangeRequest applies an authorized credit-limit change.
type LimitChangeRequest struct {
	NewLimit string `json:"new_limit"`
	Actor    string `json:"actor"`
	Reason   string `json:"reason"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`

	// Structured payloads for recoverable business-rule violations.
	AllowedCeiling string `json:"allowed_ceiling,omitempty"`
	Shortfall      string `json:"shortfall,omitempty"`
}

type PurchaseDecisionDTO struct {
	Allowed         bool   `json:"allowed"`
	AvailableCredit string `json:"available_credit"`
	Shortfall       string `json:"shortfall,omitempty"`
}

type RepaymentRecordDTO struct {
	ID               string `json:"id"`
	CycleID          string `json:"cycle_id"`
	PrincipalRepaid  string `json:"principal_repaid"`
	DaysElapsed      int    `json:"days_elapsed"`
	TierName         string `json:"tier_name"`
	TierKind         string `json:"tier_kind"`
	Rate             string `json:"rate"`
	DiscountAmount   string `json:"discount_amount"`
	InterestAmount   string `json:"interest_amount"`
	ActualAmountPaid string `json:"actual_amount_paid"`
	CreditUsedBefore string `json:"credit_used_before"`
	CreditUsedAfter  string `json:"credit_used_after"`
	PaidAt           string `json:"paid_at"`
}

type CycleDTO struct {
	ID                  string               `json:"id"`
	VendorID            string               `json:"vendor_id"`
	PurchaseRef         string               `json:"purchase_ref,omitempty"`
	PrincipalAmount     string               `json:"principal_amount"`
	OutstandingAmount   string               `json:"outstanding_amount"`
	TotalRepaid         string               `json:"total_repaid"`
	TotalDiscountEarned string               `json:"total_discount_earned"`
	TotalInterestPaid   string               `json:"total_interest_paid"`
	CycleStartDate      string               `json:"cycle_start_date"`
	CycleClosedDate     string               `json:"cycle_closed_date,omitempty"`
	Status              string               `json:"status"`
	RepaymentStatus     string               `json:"repayment_status"`
	Repayments          []RepaymentRecordDTO `json:"repayments"`
}

type QuoteDTO struct {
	CycleID                 string `json:"cycle_id"`
	AsOf                    string `json:"as_of"`
	DaysElapsed             int    `json:"days_elapsed"`
	TierName                string `json:"tier_name"`
	TierKind                string `json:"tier_kind"`
	DiscountRate            string `json:"discount_rate"`
	InterestRate            string `json:"interest_rate"`
	Outstanding             string `json:"outstanding"`
	SavingsFromEarlyPayment string `json:"savings_from_early_payment"`
	PenaltyFromLatePayment  string `json:"penalty_from_late_payment"`
	FinalPayable            string `json:"final_payable"`
}

type CreditHistoryDTO struct {
	CreditScore          string `json:"credit_score"`
	TotalRepaymentCount  int    `json:"total_repayment_count"`
	OnTimeRepaymentCount int    `json:"on_time_repayment_count"`
	AvgRepaymentDays     string `json:"avg_repayment_days"`
	TotalDiscountsEarned string `json:"total_discounts_earned"`
	TotalInterestPaid    string `json:"total_interest_paid"`
	LastRepaymentDate    string `json:"last_repayment_date,omitempty"`
}

type VendorSummaryDTO struct {
	VendorID         string           `json:"vendor_id"`
	CreditLimit      string           `json:"credit_limit"`
	CreditUsed       string           `json:"credit_used"`
	AvailableCredit  string           `json:"available_credit"`
	PerformanceTier  string           `json:"performance_tier"`
	Active           bool             `json:"active"`
	History          CreditHistoryDTO `json:"history"`
	OpenCycles       int              `json:"open_cycles"`
	CompletedCycles  int              `json:"completed_cycles"`
	TotalOutstanding string           `json:"total_outstanding"`
}

type PerformanceReportDTO struct {
	VendorID          string   `json:"vendor_id"`
	Recommendation    string   `json:"recommendation"`
	SuggestedNewLimit string   `json:"suggested_new_limit"`
	RiskLevel         string   `json:"risk_level"`
	Reasoning         []string `json:"reasoning"`
	CreditScore       string   `json:"credit_score"`
	OnTimeRate        string   `json:"on_time_rate"`
	AvgRepaymentDays  string   `json:"avg_repayment_days"`
	RepaymentCount    int      `json:"repayment_count"`
}

type NotificationDTO struct {
	ID        string            `json:"id"`
	VendorID  string            `json:"vendor_id"`
	CycleID   string            `json:"cycle_id,omitempty"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Priority  string            `json:"priority"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	SentOn    string            `json:"sent_on"`
	CreatedAt string            `json:"created_at"`
}

type SweepResultDTO struct {
	SweptAt  string   `json:"swept_at"`
	Scanned  int      `json:"scanned"`
	Notified int      `json:"notified"`
	Deduped  int      `json:"deduped"`
	Failures []string `json:"failures,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toRepaymentDTO(rec credit.RepaymentRecord) RepaymentRecordDTO {
	return RepaymentRecordDTO{
		ID:               string(rec.ID),
		CycleID:          string(rec.CycleID),
		PrincipalRepaid:  rec.PrincipalRepaid.String(),
		DaysElapsed:      rec.DaysElapsed,
		TierName:         rec.TierName,
		TierKind:         string(rec.TierKind),
		Rate:             rec.Rate.String(),
		DiscountAmount:   rec.DiscountAmount.String(),
		InterestAmount:   rec.InterestAmount.String(),
		ActualAmountPaid: rec.ActualAmountPaid.String(),
		CreditUsedBefore: rec.CreditUsedBefore.String(),
		CreditUsedAfter:  rec.CreditUsedAfter.String(),
		PaidAt:           rec.PaidAt.Format(time.RFC3339),
	}
}

func toCycleDTO(c *credit.CreditCycle) CycleDTO {
	dto := CycleDTO{
		ID:                  string(c.ID),
		VendorID:            string(c.VendorID),
		PurchaseRef:         c.PurchaseRef,
		PrincipalAmount:     c.PrincipalAmount.String(),
		OutstandingAmount:   c.OutstandingAmount.String(),
		TotalRepaid:         c.TotalRepaid.String(),
		TotalDiscountEarned: c.TotalDiscountEarned.String(),
		TotalInterestPaid:   c.TotalInterestPaid.String(),
		CycleStartDate:      c.CycleStartDate.Format(time.RFC3339),
		Status:              string(c.Status),
		RepaymentStatus:     string(c.RepaymentStatus()),
		Repayments:          []RepaymentRecordDTO{},
	}
	if c.CycleClosedDate != nil {
		dto.CycleClosedDate = c.CycleClosedDate.Format(time.RFC3339)
	}
	for _, rec := range c.Repayments {
		dto.Repayments = append(dto.Repayments, toRepaymentDTO(rec))
	}
	return dto
}

func toQuoteDTO(q credit.RepaymentQuote) QuoteDTO {
	return QuoteDTO{
		CycleID:                 string(q.CycleID),
		AsOf:                    q.AsOf.Format(time.RFC3339),
		DaysElapsed:             q.DaysElapsed,
		TierName:                q.Tier.Name,
		TierKind:                string(q.Tier.Kind),
		DiscountRate:            q.DiscountRate.String(),
		InterestRate:            q.InterestRate.String(),
		Outstanding:             q.Outstanding.String(),
		SavingsFromEarlyPayment: q.SavingsFromEarlyPayment.String(),
		PenaltyFromLatePayment:  q.PenaltyFromLatePayment.String(),
		FinalPayable:            q.FinalPayable.String(),
	}
}

func toSummaryDTO(s *credit.VendorCreditSummary) VendorSummaryDTO {
	h := s.Account.History
	history := CreditHistoryDTO{
		CreditScore:          h.CreditScore.String(),
		TotalRepaymentCount:  h.TotalRepaymentCount,
		OnTimeRepaymentCount: h.OnTimeRepaymentCount,
		AvgRepaymentDays:     h.AvgRepaymentDays.Round(2).String(),
		TotalDiscountsEarned: h.TotalDiscountsEarned.String(),
		TotalInterestPaid:    h.TotalInterestPaid.String(),
	}
	if h.LastRepaymentDate != nil {
		history.LastRepaymentDate = h.LastRepaymentDate.Format(time.RFC3339)
	}
	return VendorSummaryDTO{
		VendorID:         string(s.Account.VendorID),
		CreditLimit:      s.Account.CreditLimit.String(),
		CreditUsed:       s.Account.CreditUsed.String(),
		AvailableCredit:  s.AvailableCredit.String(),
		PerformanceTier:  string(s.Account.Tier),
		Active:           s.Account.Active,
		History:          history,
		OpenCycles:       s.OpenCycles,
		CompletedCycles:  s.CompletedCycles,
		TotalOutstanding: s.TotalOutstanding.String(),
	}
}

func toReportDTO(r credit.PerformanceReport) PerformanceReportDTO {
	return PerformanceReportDTO{
		VendorID:          string(r.VendorID),
		Recommendation:    string(r.Recommendation),
		SuggestedNewLimit: r.SuggestedNewLimit.String(),
		RiskLevel:         string(r.RiskLevel),
		Reasoning:         r.Reasoning,
		CreditScore:       r.CreditScore.String(),
		OnTimeRate:        r.OnTimeRate.Round(4).String(),
		AvgRepaymentDays:  r.AvgRepaymentDays.Round(2).String(),
		RepaymentCount:    r.RepaymentCount,
	}
}

func toNotificationDTO(n credit.NotificationRecord) NotificationDTO {
	return NotificationDTO{
		ID:        string(n.ID),
		VendorID:  string(n.VendorID),
		CycleID:   string(n.CycleID),
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Priority:  string(n.Priority),
		Metadata:  n.Metadata,
		SentOn:    n.SentOn,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

func toSweepResultDTO(r SweepResult) SweepResultDTO {
	dto := SweepResultDTO{
		SweptAt:  r.SweptAt.Format(time.RFC3339),
		Scanned:  r.Scanned,
		Notified: r.Notified,
		Deduped:  r.Deduped,
	}
	for _, f := range r.Failures {
		dto.Failures = append(dto.Failures, string(f.CycleID)+": "+f.Err.Error())
	}
	return dto
}
