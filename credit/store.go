/*
store.go - Persistence interface for accounts, cycles, and notifications

PURPOSE:
  Defines the contract between the engine and the database. Stores hand
  out deep-copied snapshots and enforce optimistic concurrency on writes:
  a Save must carry the version the caller read, and fails with
  ErrConcurrencyConflict on mismatch.

VERSIONING CONTRACT:
  - Get* and List* return clones; mutating them never touches stored state.
  - Save* compares the record's Version against the stored version.
    On match the store persists the record with Version+1.
  - SaveCycleAndAccount applies BOTH writes atomically: a conflict or
    failure on either leaves the other untouched. This is the commit
    point for a repayment.

NOTIFICATION LOG:
  Stored envelopes double as the scheduler's "already notified today"
  dedup record and as an audit trail. Append-only.

IMPLEMENTATIONS:
  - credit/store/memory.go: In-memory, for tests and development
  - store/sqlite/sqlite.go: Production SQLite

SEE ALSO:
  - ledger.go: The engine that drives these methods
*/
package credit

import (
	"context"
	"time"
)

// =============================================================================
// NOTIFICATION RECORD - Stored envelope + dedup key
// =============================================================================

type NotificationRecord struct {
	ID       NotificationID
	VendorID VendorID
	CycleID  CycleID

	Type     string
	Title    string
	Message  string
	Priority Priority
	Metadata map[string]string

	// SentOn is the UTC calendar date (DayKey) used for per-day dedup.
	SentOn    string
	CreatedAt time.Time
}

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	// Accounts.
	SaveAccount(ctx context.Context, acct *VendorCreditAccount) error
	GetAccount(ctx context.Context, vendorID VendorID) (*VendorCreditAccount, error)
	ListAccounts(ctx context.Context) ([]*VendorCreditAccount, error)

	// Cycles.
	SaveCycle(ctx context.Context, cycle *CreditCycle) error
	GetCycle(ctx context.Context, cycleID CycleID) (*CreditCycle, error)
	ListCyclesByVendor(ctx context.Context, vendorID VendorID) ([]*CreditCycle, error)

	// ListOpenCycles returns every cycle still accepting repayments
	// (active or partially paid with a positive outstanding balance),
	// across all vendors. The scheduler sweeps this set.
	ListOpenCycles(ctx context.Context) ([]*CreditCycle, error)

	// SaveCycleAndAccount persists a cycle and its vendor account as one
	// atomic unit. Used by repayment posting and cycle creation.
	SaveCycleAndAccount(ctx context.Context, cycle *CreditCycle, acct *VendorCreditAccount) error

	// Notification log (append-only).
	AppendNotification(ctx context.Context, rec NotificationRecord) error
	WasNotified(ctx context.Context, cycleID CycleID, reminderType string, sentOn string) (bool, error)
	ListNotificationsByVendor(ctx context.Context, vendorID VendorID) ([]NotificationRecord, error)
}
