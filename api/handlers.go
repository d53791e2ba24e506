/*
handlers.go - HTTP handlers for the credit engine API

PURPOSE:
  Thin translation layer: decode JSON, parse money and dates, call the
  engine, map domain errors to HTTP status codes. No business logic
  lives here.

ERROR MAPPING:
  ErrValidation          -> 400
  ErrNotFound            -> 404
  ErrConcurrencyConflict -> 409 (caller should retry)
  ErrOverpayment         -> 422 + allowed_ceiling payload
  ErrInsufficientCredit  -> 422 + shortfall payload
  ErrCycleClosed         -> 422
  ErrCorruptedState      -> 500 (surfaced loudly, never coerced)

TIME HANDLING:
  Every mutating endpoint takes an explicit as_of timestamp. Omitted
  as_of defaults to the current UTC time at the HTTP boundary - the
  engine itself never reads the clock.

SEE ALSO:
  - server.go: Route wiring
  - credit/errors.go: The taxonomy being mapped
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tradeflow/credit-engine/credit"
)

// Handler bundles the engine with its store and sweeper for the routes
// that need direct access (notification listing, manual sweeps).
type Handler struct {
	Engine  *credit.Engine
	Store   credit.Store
	Sweeper *CycleSweeper
	Log     *logrus.Logger
}

func NewHandler(engine *credit.Engine, store credit.Store, sweeper *CycleSweeper, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{Engine: engine, Store: store, Sweeper: sweeper, Log: log}
}

// =============================================================================
// VENDOR ENDPOINTS
// =============================================================================

// CreateVendor provisions a vendor credit account.
// POST /api/vendors
func (h *Handler) CreateVendor(w http.ResponseWriter, r *http.Request) {
	var req CreateVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	limit, err := parseMoney(req.CreditLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credit_limit", err)
		return
	}

	acct, err := h.Engine.CreateAccount(r.Context(), credit.VendorID(req.VendorID), limit, time.Now().UTC())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"vendor_id":    string(acct.VendorID),
		"credit_limit": acct.CreditLimit.String(),
	})
}

// GetVendorSummary returns the vendor's full credit position.
// GET /api/vendors/{id}/summary
func (h *Handler) GetVendorSummary(w http.ResponseWriter, r *http.Request) {
	vendorID := credit.VendorID(chi.URLParam(r, "id"))
	summary, err := h.Engine.GetVendorCreditSummary(r.Context(), vendorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// ValidatePurchase runs the read-only admission check.
// POST /api/vendors/{id}/purchases/validate
func (h *Handler) ValidatePurchase(w http.ResponseWriter, r *http.Request) {
	vendorID := credit.VendorID(chi.URLParam(r, "id"))
	var req ValidatePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	decision, err := h.Engine.ValidateNewPurchase(r.Context(), vendorID, amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dto := PurchaseDecisionDTO{
		Allowed:         decision.Allowed,
		AvailableCredit: decision.AvailableCredit.String(),
	}
	if !decision.Allowed {
		dto.Shortfall = decision.Shortfall.String()
	}
	writeJSON(w, http.StatusOK, dto)
}

// ListVendorCycles returns the vendor's cycles, open ones by default.
// GET /api/vendors/{id}/cycles?all=true
func (h *Handler) ListVendorCycles(w http.ResponseWriter, r *http.Request) {
	vendorID := credit.VendorID(chi.URLParam(r, "id"))

	var (
		cycles []*credit.CreditCycle
		err    error
	)
	if r.URL.Query().Get("all") == "true" {
		cycles, err = h.Store.ListCyclesByVendor(r.Context(), vendorID)
	} else {
		cycles, err = h.Engine.GetActiveCyclesForVendor(r.Context(), vendorID)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]CycleDTO, 0, len(cycles))
	for _, c := range cycles {
		dtos = append(dtos, toCycleDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListVendorNotifications returns the vendor's notification log.
// GET /api/vendors/{id}/notifications
func (h *Handler) ListVendorNotifications(w http.ResponseWriter, r *http.Request) {
	vendorID := credit.VendorID(chi.URLParam(r, "id"))
	recs, err := h.Store.ListNotificationsByVendor(r.Context(), vendorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]NotificationDTO, 0, len(recs))
	for _, rec := range recs {
		dtos = append(dtos, toNotificationDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AnalyzeVendor runs the performance analyzer.
// GET /api/vendors/{id}/performance
func (h *Handler) AnalyzeVendor(w http.ResponseWriter, r *http.Request) {
	vendorID := credit.VendorID(chi.URLParam(r, "id"))
	report, err := h.Engine.AnalyzeVendorPerformance(r.Context(), vendorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// ChangeVendorLimit applies an authorized credit-limit change.
// POST /api/vendors/{id}/limit
func (h *Handler) ChangeVendorLimit(w http.ResponseWriter, r *http.Request) {
	vendorID := credit.VendorID(chi.URLParam(r, "id"))
	var req LimitChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	newLimit, err := parseMoney(req.NewLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid new_limit", err)
		return
	}

	acct, err := h.Engine.ApplyLimitChange(r.Context(), vendorID, newLimit, req.Actor, req.Reason, time.Now().UTC())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"vendor_id":    string(acct.VendorID),
		"credit_limit": acct.CreditLimit.String(),
	})
}

// =============================================================================
// CYCLE ENDPOINTS
// =============================================================================

// OpenCycle creates a cycle for an approved purchase.
// POST /api/cycles
func (h *Handler) OpenCycle(w http.ResponseWriter, r *http.Request) {
	var req OpenCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	principal, err := parseMoney(req.Principal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid principal", err)
		return
	}
	asOf, err := parseAsOf(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of", err)
		return
	}

	cycle, err := h.Engine.OpenCycle(r.Context(), credit.VendorID(req.VendorID), principal, asOf, req.PurchaseRef)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCycleDTO(cycle))
}

// GetCycle returns one cycle with its repayment history.
// GET /api/cycles/{id}
func (h *Handler) GetCycle(w http.ResponseWriter, r *http.Request) {
	cycleID := credit.CycleID(chi.URLParam(r, "id"))
	cycle, err := h.Engine.GetCycleDetails(r.Context(), cycleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCycleDTO(cycle))
}

// QuoteCycle previews a full settlement as of a date.
// GET /api/cycles/{id}/quote?as_of=2025-03-10T00:00:00Z
func (h *Handler) QuoteCycle(w http.ResponseWriter, r *http.Request) {
	cycleID := credit.CycleID(chi.URLParam(r, "id"))
	asOf, err := parseAsOf(r.URL.Query().Get("as_of"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of", err)
		return
	}

	quote, err := h.Engine.CalculateRepaymentAmount(r.Context(), cycleID, asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(quote))
}

// RepayCycle posts a partial repayment.
// POST /api/cycles/{id}/repayments
func (h *Handler) RepayCycle(w http.ResponseWriter, r *http.Request) {
	cycleID := credit.CycleID(chi.URLParam(r, "id"))
	var req RepaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	asOf, err := parseAsOf(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of", err)
		return
	}

	rec, err := h.Engine.ApplyPartialRepayment(r.Context(), cycleID, amount, asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRepaymentDTO(*rec))
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// TriggerSweep runs a reminder sweep immediately.
// POST /api/admin/sweep
func (h *Handler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	if h.Sweeper == nil {
		writeError(w, http.StatusServiceUnavailable, "Sweeper not configured", nil)
		return
	}
	result, err := h.Sweeper.RunSweep(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toSweepResultDTO(result))
}

// =============================================================================
// HELPERS
// =============================================================================

func parseMoney(s string) (credit.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return credit.Money{}, err
	}
	return credit.Money{Value: d}, nil
}

// parseAsOf accepts RFC 3339 or a bare date; empty means "now" at the
// HTTP boundary.
func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the credit error taxonomy to HTTP statuses and
// attaches the structured payloads callers retry with.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		over         *credit.OverpaymentError
		insufficient *credit.InsufficientCreditError
	)
	switch {
	case errors.As(err, &over):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:          "Repayment exceeds outstanding balance",
			Details:        err.Error(),
			AllowedCeiling: over.AllowedCeiling.String(),
		})
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:     "Purchase exceeds available credit",
			Details:   err.Error(),
			Shortfall: insufficient.Shortfall.String(),
		})
	case errors.Is(err, credit.ErrCycleClosed):
		writeError(w, http.StatusUnprocessableEntity, "Cycle is closed", err)
	case errors.Is(err, credit.ErrValidation):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case credit.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case credit.IsRetryable(err):
		writeError(w, http.StatusConflict, "Concurrent modification, retry", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
