/*
Package sqlite provides a SQLite-backed implementation of credit.Store.

PURPOSE:
  Persists vendor credit accounts, credit cycles, repayment records, and
  the notification log. In production the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  vendor_accounts: One row per vendor (limit, usage, rolling history)
  credit_cycles:   One row per credit draw (balances, status, version)
  repayments:      Immutable repayment records, insertion-ordered
  notifications:   Append-only envelope log (doubles as sweep dedup)

OPTIMISTIC CONCURRENCY:
  vendor_accounts and credit_cycles carry a version column. Every save
  runs UPDATE ... WHERE id = ? AND version = ?; zero rows affected maps
  to credit.ErrConcurrencyConflict. SaveCycleAndAccount wraps both writes
  in one SQL transaction - the commit point for a repayment.

MONEY REPRESENTATION:
  All monetary columns are TEXT holding decimal strings. SQLite REAL
  would reintroduce the floating-point drift the engine exists to avoid.

WAL MODE:
  Opened with WAL for better concurrency: multiple readers don't block,
  single writer at a time, better crash recovery.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a versioned
  migration tool (golang-migrate, goose).

SEE ALSO:
  - credit/store.go: Interface definition and versioning contract
  - credit/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tradeflow/credit-engine/credit"
)

// Store implements credit.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vendor_accounts (
		vendor_id TEXT PRIMARY KEY,
		credit_limit TEXT NOT NULL,
		credit_used TEXT NOT NULL,
		credit_score TEXT NOT NULL,
		total_repayment_count INTEGER NOT NULL DEFAULT 0,
		on_time_repayment_count INTEGER NOT NULL DEFAULT 0,
		avg_repayment_days TEXT NOT NULL,
		total_discounts_earned TEXT NOT NULL,
		total_interest_paid TEXT NOT NULL,
		last_repayment_date TEXT,
		tier TEXT NOT NULL,
		tier_pinned INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		version INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS credit_cycles (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		purchase_ref TEXT,
		principal_amount TEXT NOT NULL,
		outstanding_amount TEXT NOT NULL,
		total_repaid TEXT NOT NULL,
		total_discount_earned TEXT NOT NULL,
		total_interest_paid TEXT NOT NULL,
		cycle_start_date TEXT NOT NULL,
		cycle_closed_date TEXT,
		status TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_vendor
		ON credit_cycles(vendor_id);
	-- Hot path for the daily sweep: open cycles only.
	CREATE INDEX IF NOT EXISTS idx_cycles_status
		ON credit_cycles(status) WHERE status IN ('active', 'partially_paid');

	-- Immutable repayment records. No UPDATE, no DELETE; corrections are
	-- compensating records.
	CREATE TABLE IF NOT EXISTS repayments (
		id TEXT PRIMARY KEY,
		cycle_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		principal_repaid TEXT NOT NULL,
		days_elapsed INTEGER NOT NULL,
		tier_name TEXT NOT NULL,
		tier_kind TEXT NOT NULL,
		rate TEXT NOT NULL,
		discount_amount TEXT NOT NULL,
		interest_amount TEXT NOT NULL,
		actual_amount_paid TEXT NOT NULL,
		credit_used_before TEXT NOT NULL,
		credit_used_after TEXT NOT NULL,
		paid_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (cycle_id) REFERENCES credit_cycles(id)
	);

	CREATE INDEX IF NOT EXISTS idx_repayments_cycle
		ON repayments(cycle_id, seq);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		cycle_id TEXT,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		priority TEXT NOT NULL,
		metadata_json TEXT,
		sent_on TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Sweep dedup: at most one notification per (cycle, type, day).
	CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_dedup
		ON notifications(cycle_id, type, sent_on) WHERE cycle_id IS NOT NULL AND cycle_id != '';
	CREATE INDEX IF NOT EXISTS idx_notifications_vendor
		ON notifications(vendor_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *Store) SaveAccount(ctx context.Context, acct *credit.VendorCreditAccount) error {
	return s.saveAccountExec(ctx, s.db, acct)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) saveAccountExec(ctx context.Context, ex execer, acct *credit.VendorCreditAccount) error {
	var lastRepayment any
	if acct.History.LastRepaymentDate != nil {
		lastRepayment = acct.History.LastRepaymentDate.UTC().Format(time.RFC3339)
	}

	if acct.Version == 0 {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO vendor_accounts (
				vendor_id, credit_limit, credit_used, credit_score,
				total_repayment_count, on_time_repayment_count, avg_repayment_days,
				total_discounts_earned, total_interest_paid, last_repayment_date,
				tier, tier_pinned, active, version, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			acct.VendorID, acct.CreditLimit.Value.String(), acct.CreditUsed.Value.String(),
			acct.History.CreditScore.String(),
			acct.History.TotalRepaymentCount, acct.History.OnTimeRepaymentCount,
			acct.History.AvgRepaymentDays.String(),
			acct.History.TotalDiscountsEarned.Value.String(), acct.History.TotalInterestPaid.Value.String(),
			lastRepayment,
			string(acct.Tier), boolToInt(acct.TierPinned), boolToInt(acct.Active),
			acct.CreatedAt.UTC().Format(time.RFC3339), acct.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		acct.Version = 1
		return nil
	}

	res, err := ex.ExecContext(ctx, `
		UPDATE vendor_accounts SET
			credit_limit = ?, credit_used = ?, credit_score = ?,
			total_repayment_count = ?, on_time_repayment_count = ?, avg_repayment_days = ?,
			total_discounts_earned = ?, total_interest_paid = ?, last_repayment_date = ?,
			tier = ?, tier_pinned = ?, active = ?, version = version + 1, updated_at = ?
		WHERE vendor_id = ? AND version = ?`,
		acct.CreditLimit.Value.String(), acct.CreditUsed.Value.String(),
		acct.History.CreditScore.String(),
		acct.History.TotalRepaymentCount, acct.History.OnTimeRepaymentCount,
		acct.History.AvgRepaymentDays.String(),
		acct.History.TotalDiscountsEarned.Value.String(), acct.History.TotalInterestPaid.Value.String(),
		lastRepayment,
		string(acct.Tier), boolToInt(acct.TierPinned), boolToInt(acct.Active),
		acct.UpdatedAt.UTC().Format(time.RFC3339),
		acct.VendorID, acct.Version,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &credit.ConflictError{Kind: "account", ID: string(acct.VendorID), ExpectedVersion: acct.Version}
	}
	acct.Version++
	return nil
}

func (s *Store) GetAccount(ctx context.Context, vendorID credit.VendorID) (*credit.VendorCreditAccount, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT vendor_id, credit_limit, credit_used, credit_score,
			total_repayment_count, on_time_repayment_count, avg_repayment_days,
			total_discounts_earned, total_interest_paid, last_repayment_date,
			tier, tier_pinned, active, version, created_at, updated_at
		FROM vendor_accounts WHERE vendor_id = ?`, vendorID)
	return scanAccount(row)
}

func (s *Store) ListAccounts(ctx context.Context) ([]*credit.VendorCreditAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vendor_id, credit_limit, credit_used, credit_score,
			total_repayment_count, on_time_repayment_count, avg_repayment_days,
			total_discounts_earned, total_interest_paid, last_repayment_date,
			tier, tier_pinned, active, version, created_at, updated_at
		FROM vendor_accounts ORDER BY vendor_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*credit.VendorCreditAccount
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*credit.VendorCreditAccount, error) {
	var (
		acct                                  credit.VendorCreditAccount
		limit, used, score, avgDays           string
		discounts, interest                   string
		lastRepayment                         sql.NullString
		tier                                  string
		tierPinned, active                    int
		createdAt, updatedAt                  string
	)
	err := row.Scan(
		&acct.VendorID, &limit, &used, &score,
		&acct.History.TotalRepaymentCount, &acct.History.OnTimeRepaymentCount, &avgDays,
		&discounts, &interest, &lastRepayment,
		&tier, &tierPinned, &active, &acct.Version, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, credit.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}

	acct.CreditLimit = credit.MustParseMoney(limit)
	acct.CreditUsed = credit.MustParseMoney(used)
	acct.History.CreditScore = credit.MustParseMoney(score).Value
	acct.History.AvgRepaymentDays = credit.MustParseMoney(avgDays).Value
	acct.History.TotalDiscountsEarned = credit.MustParseMoney(discounts)
	acct.History.TotalInterestPaid = credit.MustParseMoney(interest)
	if lastRepayment.Valid {
		t, err := time.Parse(time.RFC3339, lastRepayment.String)
		if err != nil {
			return nil, fmt.Errorf("parse last repayment date: %w", err)
		}
		acct.History.LastRepaymentDate = &t
	}
	acct.Tier = credit.PerformanceTier(tier)
	acct.TierPinned = tierPinned != 0
	acct.Active = active != 0
	if acct.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if acct.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &acct, nil
}

// =============================================================================
// CYCLES
// =============================================================================

func (s *Store) SaveCycle(ctx context.Context, cycle *credit.CreditCycle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.saveCycleTx(ctx, tx, cycle); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	cycle.Version++
	return nil
}

// saveCycleTx writes the cycle row and any repayment records not yet
// persisted. It does NOT bump cycle.Version; callers do after commit.
func (s *Store) saveCycleTx(ctx context.Context, tx *sql.Tx, cycle *credit.CreditCycle) error {
	var closedAt any
	if cycle.CycleClosedDate != nil {
		closedAt = cycle.CycleClosedDate.UTC().Format(time.RFC3339)
	}

	if cycle.Version == 0 {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO credit_cycles (
				id, vendor_id, purchase_ref, principal_amount, outstanding_amount,
				total_repaid, total_discount_earned, total_interest_paid,
				cycle_start_date, cycle_closed_date, status, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
			cycle.ID, cycle.VendorID, cycle.PurchaseRef,
			cycle.PrincipalAmount.Value.String(), cycle.OutstandingAmount.Value.String(),
			cycle.TotalRepaid.Value.String(),
			cycle.TotalDiscountEarned.Value.String(), cycle.TotalInterestPaid.Value.String(),
			cycle.CycleStartDate.UTC().Format(time.RFC3339), closedAt, string(cycle.Status),
		)
		if err != nil {
			return fmt.Errorf("insert cycle: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx, `
			UPDATE credit_cycles SET
				outstanding_amount = ?, total_repaid = ?,
				total_discount_earned = ?, total_interest_paid = ?,
				cycle_closed_date = ?, status = ?, version = version + 1
			WHERE id = ? AND version = ?`,
			cycle.OutstandingAmount.Value.String(), cycle.TotalRepaid.Value.String(),
			cycle.TotalDiscountEarned.Value.String(), cycle.TotalInterestPaid.Value.String(),
			closedAt, string(cycle.Status),
			cycle.ID, cycle.Version,
		)
		if err != nil {
			return fmt.Errorf("update cycle: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &credit.ConflictError{Kind: "cycle", ID: string(cycle.ID), ExpectedVersion: cycle.Version}
		}
	}

	return s.insertNewRepayments(ctx, tx, cycle)
}

// insertNewRepayments persists repayment records beyond the stored count.
// INSERT OR IGNORE keeps re-saves of an unchanged cycle harmless.
func (s *Store) insertNewRepayments(ctx context.Context, tx *sql.Tx, cycle *credit.CreditCycle) error {
	for i, rec := range cycle.Repayments {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO repayments (
				id, cycle_id, vendor_id, seq, principal_repaid, days_elapsed,
				tier_name, tier_kind, rate, discount_amount, interest_amount,
				actual_amount_paid, credit_used_before, credit_used_after,
				paid_at, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.CycleID, rec.VendorID, i,
			rec.PrincipalRepaid.Value.String(), rec.DaysElapsed,
			rec.TierName, string(rec.TierKind), rec.Rate.String(),
			rec.DiscountAmount.Value.String(), rec.InterestAmount.Value.String(),
			rec.ActualAmountPaid.Value.String(),
			rec.CreditUsedBefore.Value.String(), rec.CreditUsedAfter.Value.String(),
			rec.PaidAt.UTC().Format(time.RFC3339), rec.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert repayment: %w", err)
		}
	}
	return nil
}

func (s *Store) GetCycle(ctx context.Context, cycleID credit.CycleID) (*credit.CreditCycle, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, vendor_id, purchase_ref, principal_amount, outstanding_amount,
			total_repaid, total_discount_earned, total_interest_paid,
			cycle_start_date, cycle_closed_date, status, version
		FROM credit_cycles WHERE id = ?`, cycleID)

	cycle, err := scanCycle(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadRepayments(ctx, cycle); err != nil {
		return nil, err
	}
	return cycle, nil
}

func (s *Store) ListCyclesByVendor(ctx context.Context, vendorID credit.VendorID) ([]*credit.CreditCycle, error) {
	return s.queryCycles(ctx, `
		SELECT id, vendor_id, purchase_ref, principal_amount, outstanding_amount,
			total_repaid, total_discount_earned, total_interest_paid,
			cycle_start_date, cycle_closed_date, status, version
		FROM credit_cycles WHERE vendor_id = ? ORDER BY cycle_start_date, id`, vendorID)
}

func (s *Store) ListOpenCycles(ctx context.Context) ([]*credit.CreditCycle, error) {
	return s.queryCycles(ctx, `
		SELECT id, vendor_id, purchase_ref, principal_amount, outstanding_amount,
			total_repaid, total_discount_earned, total_interest_paid,
			cycle_start_date, cycle_closed_date, status, version
		FROM credit_cycles
		WHERE status IN ('active', 'partially_paid')
		ORDER BY cycle_start_date, id`)
}

func (s *Store) queryCycles(ctx context.Context, query string, args ...any) ([]*credit.CreditCycle, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*credit.CreditCycle
	for rows.Next() {
		cycle, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cycle)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, cycle := range out {
		if err := s.loadRepayments(ctx, cycle); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanCycle(row rowScanner) (*credit.CreditCycle, error) {
	var (
		cycle                        credit.CreditCycle
		principal, outstanding       string
		repaid, discount, interest   string
		startDate                    string
		closedDate                   sql.NullString
		status                       string
	)
	err := row.Scan(
		&cycle.ID, &cycle.VendorID, &cycle.PurchaseRef, &principal, &outstanding,
		&repaid, &discount, &interest,
		&startDate, &closedDate, &status, &cycle.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, credit.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan cycle: %w", err)
	}

	cycle.PrincipalAmount = credit.MustParseMoney(principal)
	cycle.OutstandingAmount = credit.MustParseMoney(outstanding)
	cycle.TotalRepaid = credit.MustParseMoney(repaid)
	cycle.TotalDiscountEarned = credit.MustParseMoney(discount)
	cycle.TotalInterestPaid = credit.MustParseMoney(interest)
	if cycle.CycleStartDate, err = time.Parse(time.RFC3339, startDate); err != nil {
		return nil, fmt.Errorf("parse cycle start date: %w", err)
	}
	if closedDate.Valid {
		t, err := time.Parse(time.RFC3339, closedDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse cycle closed date: %w", err)
		}
		cycle.CycleClosedDate = &t
	}
	cycle.Status = credit.CycleStatus(status)
	return &cycle, nil
}

func (s *Store) loadRepayments(ctx context.Context, cycle *credit.CreditCycle) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cycle_id, vendor_id, principal_repaid, days_elapsed,
			tier_name, tier_kind, rate, discount_amount, interest_amount,
			actual_amount_paid, credit_used_before, credit_used_after,
			paid_at, created_at
		FROM repayments WHERE cycle_id = ? ORDER BY seq`, cycle.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec                                  credit.RepaymentRecord
			principal, rate, discountA, interestA string
			actual, usedBefore, usedAfter        string
			tierKind, paidAt, createdAt          string
		)
		err := rows.Scan(
			&rec.ID, &rec.CycleID, &rec.VendorID, &principal, &rec.DaysElapsed,
			&rec.TierName, &tierKind, &rate, &discountA, &interestA,
			&actual, &usedBefore, &usedAfter, &paidAt, &createdAt,
		)
		if err != nil {
			return fmt.Errorf("scan repayment: %w", err)
		}
		rec.PrincipalRepaid = credit.MustParseMoney(principal)
		rec.TierKind = credit.TierKind(tierKind)
		rec.Rate = credit.MustParseMoney(rate).Value
		rec.DiscountAmount = credit.MustParseMoney(discountA)
		rec.InterestAmount = credit.MustParseMoney(interestA)
		rec.ActualAmountPaid = credit.MustParseMoney(actual)
		rec.CreditUsedBefore = credit.MustParseMoney(usedBefore)
		rec.CreditUsedAfter = credit.MustParseMoney(usedAfter)
		if rec.PaidAt, err = time.Parse(time.RFC3339, paidAt); err != nil {
			return fmt.Errorf("parse paid_at: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return fmt.Errorf("parse created_at: %w", err)
		}
		cycle.Repayments = append(cycle.Repayments, rec)
	}
	return rows.Err()
}

// =============================================================================
// ATOMIC CYCLE + ACCOUNT COMMIT
// =============================================================================

// SaveCycleAndAccount persists both records in one SQL transaction. This
// is the commit point for a repayment: either every balance, record, and
// history change lands or none do.
func (s *Store) SaveCycleAndAccount(ctx context.Context, cycle *credit.CreditCycle, acct *credit.VendorCreditAccount) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.saveCycleTx(ctx, tx, cycle); err != nil {
		return err
	}
	accountVersion := acct.Version
	if err := s.saveAccountExec(ctx, tx, acct); err != nil {
		acct.Version = accountVersion
		return err
	}
	if err := tx.Commit(); err != nil {
		acct.Version = accountVersion
		return err
	}
	cycle.Version++
	return nil
}

// =============================================================================
// NOTIFICATION LOG
// =============================================================================

func (s *Store) AppendNotification(ctx context.Context, rec credit.NotificationRecord) error {
	var metadata any
	if len(rec.Metadata) > 0 {
		b, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshal notification metadata: %w", err)
		}
		metadata = string(b)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, vendor_id, cycle_id, type, title, message, priority,
			metadata_json, sent_on, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.VendorID, rec.CycleID, rec.Type, rec.Title, rec.Message,
		string(rec.Priority), metadata, rec.SentOn, rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *Store) WasNotified(ctx context.Context, cycleID credit.CycleID, reminderType, sentOn string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM notifications
		WHERE cycle_id = ? AND type = ? AND sent_on = ?`,
		cycleID, reminderType, sentOn).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ListNotificationsByVendor(ctx context.Context, vendorID credit.VendorID) ([]credit.NotificationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vendor_id, cycle_id, type, title, message, priority,
			metadata_json, sent_on, created_at
		FROM notifications WHERE vendor_id = ? ORDER BY created_at, id`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []credit.NotificationRecord
	for rows.Next() {
		var (
			rec       credit.NotificationRecord
			priority  string
			metadata  sql.NullString
			createdAt string
		)
		err := rows.Scan(&rec.ID, &rec.VendorID, &rec.CycleID, &rec.Type,
			&rec.Title, &rec.Message, &priority, &metadata, &rec.SentOn, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		rec.Priority = credit.Priority(priority)
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal notification metadata: %w", err)
			}
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parse notification created_at: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
