/*
scheduler.go - Daily reminder sweep over open credit cycles

PURPOSE:
  Once per sweep period, visits every cycle still accepting repayments,
  asks the reminder policy whether a notice is due at its elapsed-day
  count, and emits at most one notification per (cycle, reminder type,
  day). The decision function lives in credit/reminder.go and is pure;
  this driver owns only the cadence, the dedup check, and the hand-off
  to the notification transport.

DESIGN:
  - robfig/cron drives the cadence (default "@daily", configurable)
  - Singleton, non-overlapping: a mutex-guarded running flag makes a
    sweep that fires while the previous one is still going a no-op
  - Partial-failure isolation: an error on one cycle is recorded and the
    sweep continues; the result carries the failure list
  - Re-runnable: the (cycle, type, day) dedup is checked against the
    stored notification log, so sweeping twice on one day sends nothing
    the second time
  - Cancelable between cycles: the context is checked per iteration, so
    graceful shutdown never corrupts state

USAGE:
  sweeper := api.NewCycleSweeper(store, engine.TierTable(), notifier, logger)
  sweeper.Start("@daily")
  // ... later
  sweeper.Stop()

SEE ALSO:
  - credit/reminder.go: The pure decision function
  - credit/store.go: WasNotified / AppendNotification dedup contract
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/tradeflow/credit-engine/credit"
	"github.com/tradeflow/credit-engine/notify"
)

// =============================================================================
// SWEEP RESULT
// =============================================================================

type SweepFailure struct {
	CycleID credit.CycleID
	Err     error
}

type SweepResult struct {
	SweptAt  time.Time
	Scanned  int
	Notified int
	Deduped  int
	Failures []SweepFailure
}

// =============================================================================
// CYCLE SWEEPER
// =============================================================================

type CycleSweeper struct {
	store    credit.Store
	table    credit.TierTable
	notifier notify.Notifier
	log      *logrus.Logger

	cron *cron.Cron

	mu      sync.Mutex
	running bool
}

func NewCycleSweeper(store credit.Store, table credit.TierTable, notifier notify.Notifier, log *logrus.Logger) *CycleSweeper {
	if log == nil {
		log = logrus.New()
	}
	return &CycleSweeper{
		store:    store,
		table:    table,
		notifier: notifier,
		log:      log,
	}
}

// Start schedules recurring sweeps. spec is a cron expression or a
// descriptor such as "@daily".
func (s *CycleSweeper) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := s.RunSweep(context.Background(), time.Now().UTC()); err != nil {
			s.log.WithError(err).Error("reminder sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	s.cron = c
	c.Start()
	s.log.WithField("schedule", spec).Info("reminder sweeper started")
	return nil
}

// Stop halts the cadence. A sweep already in flight finishes on its own.
func (s *CycleSweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		s.log.Info("reminder sweeper stopped")
	}
}

// RunSweep executes one sweep as of the given time. Safe to call
// manually (admin endpoint, tests); overlapping calls are skipped.
func (s *CycleSweeper) RunSweep(ctx context.Context, asOf time.Time) (SweepResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("sweep already running; skipping")
		return SweepResult{SweptAt: asOf}, nil
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	result := SweepResult{SweptAt: asOf}

	cycles, err := s.store.ListOpenCycles(ctx)
	if err != nil {
		return result, fmt.Errorf("list open cycles: %w", err)
	}

	for _, cycle := range cycles {
		// Graceful shutdown between cycles; already-notified cycles keep
		// their notifications, the rest are picked up by the next sweep.
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Scanned++

		notified, deduped, err := s.sweepCycle(ctx, cycle, asOf)
		if err != nil {
			result.Failures = append(result.Failures, SweepFailure{CycleID: cycle.ID, Err: err})
			s.log.WithError(err).WithField("cycle_id", cycle.ID).Warn("sweep failed for cycle")
			continue
		}
		if notified {
			result.Notified++
		}
		if deduped {
			result.Deduped++
		}
	}

	s.log.WithFields(logrus.Fields{
		"scanned":  result.Scanned,
		"notified": result.Notified,
		"deduped":  result.Deduped,
		"failed":   len(result.Failures),
	}).Info("reminder sweep completed")
	return result, nil
}

func (s *CycleSweeper) sweepCycle(ctx context.Context, cycle *credit.CreditCycle, asOf time.Time) (notified, deduped bool, err error) {
	if !cycle.OutstandingAmount.IsPositive() {
		return false, false, nil
	}

	days := credit.DaysElapsed(cycle.CycleStartDate, asOf)
	reminder := credit.ReminderFor(s.table, days)
	if reminder == nil {
		return false, false, nil
	}

	day := credit.DayKey(asOf)
	already, err := s.store.WasNotified(ctx, cycle.ID, string(reminder.Type), day)
	if err != nil {
		return false, false, fmt.Errorf("dedup check: %w", err)
	}
	if already {
		return false, true, nil
	}

	rec := credit.NotificationRecord{
		ID:       credit.NotificationID(uuid.NewString()),
		VendorID: cycle.VendorID,
		CycleID:  cycle.ID,
		Type:     string(reminder.Type),
		Title:    reminder.Title,
		Message:  reminder.Message,
		Priority: reminder.Priority,
		Metadata: map[string]string{
			"days_elapsed": fmt.Sprintf("%d", days),
			"outstanding":  cycle.OutstandingAmount.String(),
		},
		SentOn:    day,
		CreatedAt: asOf,
	}

	// Record first: if delivery fails the dedup entry still prevents a
	// duplicate when the transport retries out of band.
	if err := s.store.AppendNotification(ctx, rec); err != nil {
		return false, false, fmt.Errorf("record notification: %w", err)
	}
	if s.notifier != nil {
		env := notify.Envelope{
			ID:        string(rec.ID),
			VendorID:  string(rec.VendorID),
			Type:      rec.Type,
			Title:     rec.Title,
			Message:   rec.Message,
			Priority:  string(rec.Priority),
			Metadata:  rec.Metadata,
			CreatedAt: rec.CreatedAt,
		}
		if err := s.notifier.Send(ctx, env); err != nil {
			return false, false, fmt.Errorf("deliver notification: %w", err)
		}
	}
	return true, false, nil
}
