/*
ledger.go - Engine: the serialized write path for cycles and accounts

PURPOSE:
  The Engine owns every mutation of credit cycles and vendor accounts.
  Reads are cheap snapshots; writes run under per-key locks and commit
  through the store's atomic SaveCycleAndAccount, so a repayment's nine
  steps (price, record, balance roll-forward, account release, history
  update) either all apply or none do.

CONCURRENCY MODEL:
  - Serializability per cycle: a keyed mutex per cycle id is held for the
    full repayment, and preconditions (especially the overpayment check)
    are validated after acquiring it. Different cycles proceed in
    parallel, even for the same vendor.
  - The vendor account is guarded by a second keyed mutex so two cycles
    of one vendor repaid simultaneously cannot both read-modify-write
    creditUsed. Lock order is always cycle then vendor; paths that touch
    only the account take only the vendor lock. One global order, no
    deadlock.
  - The store additionally enforces optimistic versioning, which protects
    multi-process deployments where in-process mutexes are not enough;
    losers get ErrConcurrencyConflict and retry against fresh state.

DUPLICATE REQUESTS:
  Each ApplyPartialRepayment call creates a new record by design. Callers
  de-duplicate at the request layer (idempotency keys); this engine does
  not infer duplicate intent.

SEE ALSO:
  - calculator.go: The pricing the engine commits
  - store.go: The atomicity contract it relies on
*/
package credit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tradeflow/credit-engine/notify"
)

// =============================================================================
// KEYED MUTEX - Per-id mutual exclusion
// =============================================================================

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for key and returns its unlock func.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// =============================================================================
// ENGINE
// =============================================================================

// highUtilizationThreshold triggers an advisory alert when a cycle open
// pushes creditUsed to this fraction of the limit.
var highUtilizationThreshold = MustParseMoney("0.9").Value

type Engine struct {
	store    Store
	table    TierTable
	log      *logrus.Logger
	notifier notify.Notifier // may be nil; alerts are then skipped

	cycleLocks  *keyedMutex
	vendorLocks *keyedMutex
}

func NewEngine(store Store, table TierTable, log *logrus.Logger, notifier notify.Notifier) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		store:       store,
		table:       table,
		log:         log,
		notifier:    notifier,
		cycleLocks:  newKeyedMutex(),
		vendorLocks: newKeyedMutex(),
	}
}

// TierTable exposes the policy table in force (read-only copy semantics).
func (e *Engine) TierTable() TierTable { return e.table }

// =============================================================================
// ACCOUNT LIFECYCLE
// =============================================================================

// CreateAccount provisions a vendor credit account at approval time.
func (e *Engine) CreateAccount(ctx context.Context, vendorID VendorID, creditLimit Money, asOf time.Time) (*VendorCreditAccount, error) {
	acct, err := NewVendorCreditAccount(vendorID, creditLimit, asOf)
	if err != nil {
		return nil, err
	}
	if existing, err := e.store.GetAccount(ctx, vendorID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: vendor %s already has a credit account", ErrValidation, vendorID)
	}
	if err := e.store.SaveAccount(ctx, acct); err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"vendor_id": vendorID, "credit_limit": creditLimit.String()}).
		Info("vendor credit account created")
	return acct, nil
}

// ValidateNewPurchase is the read-only admission check invoked before an
// external collaborator approves a purchase.
func (e *Engine) ValidateNewPurchase(ctx context.Context, vendorID VendorID, amount Money) (PurchaseDecision, error) {
	acct, err := e.store.GetAccount(ctx, vendorID)
	if err != nil {
		return PurchaseDecision{}, err
	}
	return acct.ValidateNewPurchase(amount)
}

// =============================================================================
// CYCLE CREATION
// =============================================================================

// OpenCycle starts a new credit cycle for an approved purchase and
// reserves the principal against the vendor's limit, atomically.
func (e *Engine) OpenCycle(ctx context.Context, vendorID VendorID, principal Money, asOf time.Time, purchaseRef string) (*CreditCycle, error) {
	unlock := e.vendorLocks.lock(string(vendorID))
	defer unlock()

	acct, err := e.store.GetAccount(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if err := acct.CheckInvariants(); err != nil {
		return nil, err
	}

	cycle, err := NewCreditCycle(vendorID, principal, asOf, purchaseRef)
	if err != nil {
		return nil, err
	}
	if err := acct.reserveCredit(principal, asOf); err != nil {
		return nil, err
	}

	if err := e.store.SaveCycleAndAccount(ctx, cycle, acct); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"vendor_id": vendorID,
		"cycle_id":  cycle.ID,
		"principal": principal.String(),
	}).Info("credit cycle opened")

	e.maybeAlertHighUtilization(ctx, acct, cycle, asOf)
	return cycle, nil
}

// maybeAlertHighUtilization emits an advisory envelope when a cycle open
// pushes the vendor near their limit. Alert failure never fails the open.
func (e *Engine) maybeAlertHighUtilization(ctx context.Context, acct *VendorCreditAccount, cycle *CreditCycle, asOf time.Time) {
	if acct.Utilization().LessThan(highUtilizationThreshold) {
		return
	}
	pct := acct.Utilization().Mul(decimal.NewFromInt(100)).Round(1)
	rec := NotificationRecord{
		ID:       NotificationID(uuid.NewString()),
		VendorID: acct.VendorID,
		CycleID:  cycle.ID,
		Type:     "high_utilization",
		Title:    "Credit limit nearly exhausted",
		Message: fmt.Sprintf("You are using %s%% of your %s credit limit. Repay open cycles to free capacity.",
			pct, acct.CreditLimit),
		Priority: PriorityMedium,
		Metadata: map[string]string{
			"credit_used":  acct.CreditUsed.String(),
			"credit_limit": acct.CreditLimit.String(),
		},
		SentOn:    DayKey(asOf),
		CreatedAt: asOf,
	}
	if err := e.store.AppendNotification(ctx, rec); err != nil {
		e.log.WithError(err).Warn("failed to record high-utilization alert")
		return
	}
	if e.notifier != nil {
		if err := e.notifier.Send(ctx, envelopeFromRecord(rec)); err != nil {
			e.log.WithError(err).Warn("failed to deliver high-utilization alert")
		}
	}
}

func envelopeFromRecord(rec NotificationRecord) notify.Envelope {
	return notify.Envelope{
		ID:        string(rec.ID),
		VendorID:  string(rec.VendorID),
		Type:      rec.Type,
		Title:     rec.Title,
		Message:   rec.Message,
		Priority:  string(rec.Priority),
		Metadata:  rec.Metadata,
		CreatedAt: rec.CreatedAt,
	}
}

// =============================================================================
// REPAYMENT - The core mutation
// =============================================================================

// ApplyPartialRepayment prices the repayment at the tier in force as of
// asOf, posts an immutable record, rolls the cycle balance forward,
// releases principal back to the vendor account, and updates the rolling
// history. All of it commits as one atomic unit or not at all.
func (e *Engine) ApplyPartialRepayment(ctx context.Context, cycleID CycleID, amount Money, asOf time.Time) (*RepaymentRecord, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: repayment amount must be positive, got %s", ErrValidation, amount)
	}
	if asOf.IsZero() {
		return nil, fmt.Errorf("%w: as-of date is required", ErrValidation)
	}

	// Serialize per cycle; preconditions are validated AFTER acquiring
	// exclusivity so two racing requests cannot both pass the ceiling check.
	unlockCycle := e.cycleLocks.lock(string(cycleID))
	defer unlockCycle()

	cycle, err := e.store.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if err := cycle.CheckInvariants(); err != nil {
		return nil, err
	}
	if !cycle.IsOpen() {
		return nil, &CycleClosedError{CycleID: cycle.ID, Status: cycle.Status}
	}
	if asOf.Before(cycle.CycleStartDate) {
		return nil, fmt.Errorf("%w: repayment date %s precedes cycle start %s",
			ErrValidation, asOf.Format("2006-01-02"), cycle.CycleStartDate.Format("2006-01-02"))
	}
	if amount.GreaterThan(cycle.OutstandingAmount) {
		return nil, &OverpaymentError{
			CycleID:        cycle.ID,
			Requested:      amount,
			AllowedCeiling: cycle.OutstandingAmount,
		}
	}

	days := DaysElapsed(cycle.CycleStartDate, asOf)
	tier := e.table.Resolve(days)
	discount, interest := QuoteAmount(tier, amount)

	// Cross-cycle account safety: vendor lock nested inside the cycle lock.
	unlockVendor := e.vendorLocks.lock(string(cycle.VendorID))
	defer unlockVendor()

	acct, err := e.store.GetAccount(ctx, cycle.VendorID)
	if err != nil {
		return nil, err
	}
	if err := acct.CheckInvariants(); err != nil {
		return nil, err
	}

	rec := RepaymentRecord{
		ID:               newRepaymentID(),
		CycleID:          cycle.ID,
		VendorID:         cycle.VendorID,
		PrincipalRepaid:  amount,
		DaysElapsed:      days,
		TierName:         tier.Name,
		TierKind:         tier.Kind,
		Rate:             tier.Rate,
		DiscountAmount:   discount,
		InterestAmount:   interest,
		ActualAmountPaid: amount.Sub(discount).Add(interest),
		CreditUsedBefore: acct.CreditUsed,
		PaidAt:           asOf,
		CreatedAt:        asOf,
	}

	// Credit capacity tracks principal, not cash flow: release exactly the
	// principal portion, never the discount/interest adjustment.
	if err := acct.releaseCredit(amount, asOf); err != nil {
		return nil, err
	}
	rec.CreditUsedAfter = acct.CreditUsed
	acct.recordRepayment(rec, e.table.IsOnTime(days))

	cycle.applyRepayment(rec)
	if err := cycle.CheckInvariants(); err != nil {
		return nil, err
	}

	if err := e.store.SaveCycleAndAccount(ctx, cycle, acct); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"vendor_id":    cycle.VendorID,
		"cycle_id":     cycle.ID,
		"repayment_id": rec.ID,
		"principal":    amount.String(),
		"tier":         tier.Name,
		"days_elapsed": days,
		"status":       cycle.Status,
	}).Info("repayment applied")

	return &rec, nil
}

// CalculateRepaymentAmount previews what a full settlement would cost as
// of the given date. Pure read; callable any number of times.
func (e *Engine) CalculateRepaymentAmount(ctx context.Context, cycleID CycleID, asOf time.Time) (RepaymentQuote, error) {
	cycle, err := e.store.GetCycle(ctx, cycleID)
	if err != nil {
		return RepaymentQuote{}, err
	}
	if err := cycle.CheckInvariants(); err != nil {
		return RepaymentQuote{}, err
	}
	return CalculateRepayment(e.table, cycle, asOf)
}

// =============================================================================
// QUERIES
// =============================================================================

// GetCycleDetails returns a snapshot of one cycle with its repayments.
func (e *Engine) GetCycleDetails(ctx context.Context, cycleID CycleID) (*CreditCycle, error) {
	return e.store.GetCycle(ctx, cycleID)
}

// GetActiveCyclesForVendor returns the vendor's open cycles.
func (e *Engine) GetActiveCyclesForVendor(ctx context.Context, vendorID VendorID) ([]*CreditCycle, error) {
	cycles, err := e.store.ListCyclesByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	open := cycles[:0]
	for _, c := range cycles {
		if c.IsOpen() {
			open = append(open, c)
		}
	}
	return open, nil
}

// VendorCreditSummary aggregates the account with its cycle position.
type VendorCreditSummary struct {
	Account          *VendorCreditAccount
	AvailableCredit  Money
	OpenCycles       int
	CompletedCycles  int
	TotalOutstanding Money
}

// GetVendorCreditSummary returns the vendor's full credit position.
func (e *Engine) GetVendorCreditSummary(ctx context.Context, vendorID VendorID) (*VendorCreditSummary, error) {
	acct, err := e.store.GetAccount(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	cycles, err := e.store.ListCyclesByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	summary := &VendorCreditSummary{
		Account:          acct,
		AvailableCredit:  acct.AvailableCredit(),
		TotalOutstanding: ZeroMoney(),
	}
	for _, c := range cycles {
		if c.IsOpen() {
			summary.OpenCycles++
			summary.TotalOutstanding = summary.TotalOutstanding.Add(c.OutstandingAmount)
		} else if c.Status == CycleClosed {
			summary.CompletedCycles++
		}
	}
	return summary, nil
}

// AnalyzeVendorPerformance runs the analyzer over the vendor's history.
// Read-only; applying the recommendation is a separate authorized action.
func (e *Engine) AnalyzeVendorPerformance(ctx context.Context, vendorID VendorID) (PerformanceReport, error) {
	acct, err := e.store.GetAccount(ctx, vendorID)
	if err != nil {
		return PerformanceReport{}, err
	}
	return AnalyzeVendorAccount(acct), nil
}

// =============================================================================
// AUTHORIZED ADMIN ACTIONS
// =============================================================================

// ApplyLimitChange applies an already-authorized credit-limit change.
func (e *Engine) ApplyLimitChange(ctx context.Context, vendorID VendorID, newLimit Money, actor, reason string, asOf time.Time) (*VendorCreditAccount, error) {
	unlock := e.vendorLocks.lock(string(vendorID))
	defer unlock()

	acct, err := e.store.GetAccount(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if err := acct.ApplyLimitChange(newLimit, actor, reason, asOf); err != nil {
		return nil, err
	}
	if err := e.store.SaveAccount(ctx, acct); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"vendor_id": vendorID,
		"new_limit": newLimit.String(),
		"actor":     actor,
	}).Info("credit limit changed")
	return acct, nil
}

// SetTierOverride pins the vendor's performance tier.
func (e *Engine) SetTierOverride(ctx context.Context, vendorID VendorID, tier PerformanceTier, actor, reason string, asOf time.Time) (*VendorCreditAccount, error) {
	unlock := e.vendorLocks.lock(string(vendorID))
	defer unlock()

	acct, err := e.store.GetAccount(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if err := acct.SetTierOverride(tier, actor, reason, asOf); err != nil {
		return nil, err
	}
	if err := e.store.SaveAccount(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}
