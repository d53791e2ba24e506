/*
errors.go - Centralized error types for the credit engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every expected, recoverable-by-caller condition is a structured error
  carrying enough detail to retry correctly (the overpayment ceiling,
  the credit shortfall), not just a message string.

ERROR CATEGORIES:
  1. Client errors  - Business rule violations the caller can fix
  2. Conflict errors - Lost races that the caller should retry
  3. Fatal errors   - Corrupted invariants; surfaced loudly, never coerced

USAGE:
  Handlers classify with the helpers:

    if credit.IsClientError(err) { ... 4xx ... }
    if credit.IsRetryable(err)   { ... 409, retry ... }

  and extract payloads with errors.As:

    var over *credit.OverpaymentError
    if errors.As(err, &over) {
        // over.AllowedCeiling is the exact maximum the caller may send
    }

SEE ALSO:
  - ledger.go: Produces these errors from the mutation path
  - api/handlers.go: Maps them to HTTP status codes
*/
package credit

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed or missing input, such as a
	// non-positive repayment amount or a too-short change reason.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned for an unknown vendor or cycle id.
	ErrNotFound = errors.New("not found")

	// ErrOverpayment is returned when a repayment exceeds the outstanding
	// balance. The engine never auto-caps; it rejects and reports the ceiling.
	ErrOverpayment = errors.New("repayment exceeds outstanding balance")

	// ErrCycleClosed is returned when a repayment targets a cycle that is
	// already fully paid or closed.
	ErrCycleClosed = errors.New("cycle is closed")

	// ErrInsufficientCredit is returned when a new purchase exceeds the
	// vendor's available credit.
	ErrInsufficientCredit = errors.New("insufficient credit")

	// ErrConcurrencyConflict is returned when a mutation lost a version race
	// and must be retried against fresh state.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")

	// ErrCorruptedState is returned when a loaded record violates a core
	// invariant (totalRepaid + outstanding != principal). The operation
	// aborts; the inconsistency is never silently coerced back into range.
	ErrCorruptedState = errors.New("corrupted cycle state")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// OverpaymentError reports the exact allowed ceiling so the caller can
// retry with a corrected amount instead of guessing.
type OverpaymentError struct {
	CycleID        CycleID
	Requested      Money
	AllowedCeiling Money
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("repayment %s exceeds outstanding %s on cycle %s",
		e.Requested, e.AllowedCeiling, e.CycleID)
}

func (e *OverpaymentError) Unwrap() error { return ErrOverpayment }

// CycleClosedError reports a repayment attempt against a settled cycle.
type CycleClosedError struct {
	CycleID CycleID
	Status  CycleStatus
}

func (e *CycleClosedError) Error() string {
	return fmt.Sprintf("cycle %s is %s and cannot accept repayments", e.CycleID, e.Status)
}

func (e *CycleClosedError) Unwrap() error { return ErrCycleClosed }

// InsufficientCreditError reports the shortfall between the requested
// purchase and the vendor's available credit.
type InsufficientCreditError struct {
	VendorID  VendorID
	Requested Money
	Available Money
	Shortfall Money
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("vendor %s: purchase %s exceeds available credit %s (shortfall %s)",
		e.VendorID, e.Requested, e.Available, e.Shortfall)
}

func (e *InsufficientCreditError) Unwrap() error { return ErrInsufficientCredit }

// ConflictError reports an optimistic-concurrency version mismatch.
type ConflictError struct {
	Kind            string // "cycle" or "account"
	ID              string
	ExpectedVersion int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s changed concurrently (expected version %d)",
		e.Kind, e.ID, e.ExpectedVersion)
}

func (e *ConflictError) Unwrap() error { return ErrConcurrencyConflict }

// CorruptedStateError identifies which invariant broke on which record.
type CorruptedStateError struct {
	CycleID CycleID
	Detail  string
}

func (e *CorruptedStateError) Error() string {
	return fmt.Sprintf("cycle %s: %s", e.CycleID, e.Detail)
}

func (e *CorruptedStateError) Unwrap() error { return ErrCorruptedState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsClientError returns true if the error is due to invalid client input
// or a business rule the caller can adjust for.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrOverpayment) ||
		errors.Is(err, ErrCycleClosed) ||
		errors.Is(err, ErrInsufficientCredit)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
