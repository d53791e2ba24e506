package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeflow/credit-engine/credit"
	"github.com/tradeflow/credit-engine/store/sqlite"
)

var start = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// ROUND TRIPS
// =============================================================================

func TestSQLite_AccountRoundTrip(t *testing.T) {
	// GIVEN: An account with history and a pinned tier
	// WHEN: Saving and reloading it
	// THEN: Every field survives, including decimal precision

	store := newTestStore(t)
	ctx := context.Background()

	acct, err := credit.NewVendorCreditAccount("vendor-1", credit.NewMoneyFromInt(500_000), start)
	require.NoError(t, err)
	acct.CreditUsed = credit.MustParseMoney("123456.78")
	acct.History.TotalRepaymentCount = 7
	acct.History.OnTimeRepaymentCount = 6
	acct.History.AvgRepaymentDays = credit.MustParseMoney("42.5").Value
	acct.History.TotalDiscountsEarned = credit.MustParseMoney("1200.33")
	last := start.AddDate(0, 0, 42)
	acct.History.LastRepaymentDate = &last
	require.NoError(t, acct.SetTierOverride(credit.TierGold, "risk-team", "strategic partner onboarding", start))

	require.NoError(t, store.SaveAccount(ctx, acct))
	assert.Equal(t, int64(1), acct.Version)

	loaded, err := store.GetAccount(ctx, "vendor-1")
	require.NoError(t, err)
	assert.Equal(t, "123456.78", loaded.CreditUsed.String())
	assert.Equal(t, 7, loaded.History.TotalRepaymentCount)
	assert.Equal(t, 6, loaded.History.OnTimeRepaymentCount)
	assert.Equal(t, "42.50", credit.Money{Value: loaded.History.AvgRepaymentDays}.String())
	assert.Equal(t, "1200.33", loaded.History.TotalDiscountsEarned.String())
	require.NotNil(t, loaded.History.LastRepaymentDate)
	assert.Equal(t, credit.TierGold, loaded.Tier)
	assert.True(t, loaded.TierPinned)
	assert.True(t, loaded.Active)
	assert.Equal(t, int64(1), loaded.Version)
}

func TestSQLite_CycleRoundTripWithRepayments(t *testing.T) {
	// GIVEN: A cycle with two repayment records
	// WHEN: Saving and reloading
	// THEN: The records come back in insertion order with full detail

	store := newTestStore(t)
	ctx := context.Background()

	cycle, err := credit.NewCreditCycle("vendor-1", credit.NewMoneyFromInt(100_000), start, "po-100")
	require.NoError(t, err)
	require.NoError(t, store.SaveCycle(ctx, cycle))

	cycle.Repayments = append(cycle.Repayments, credit.RepaymentRecord{
		ID:               "rep-1",
		CycleID:          cycle.ID,
		VendorID:         "vendor-1",
		PrincipalRepaid:  credit.NewMoneyFromInt(40_000),
		DaysElapsed:      20,
		TierName:         "prompt",
		TierKind:         credit.TierDiscount,
		Rate:             credit.MustParseMoney("0.03").Value,
		DiscountAmount:   credit.NewMoneyFromInt(1_200),
		InterestAmount:   credit.ZeroMoney(),
		ActualAmountPaid: credit.NewMoneyFromInt(38_800),
		CreditUsedBefore: credit.NewMoneyFromInt(100_000),
		CreditUsedAfter:  credit.NewMoneyFromInt(60_000),
		PaidAt:           start.AddDate(0, 0, 20),
		CreatedAt:        start.AddDate(0, 0, 20),
	}, credit.RepaymentRecord{
		ID:               "rep-2",
		CycleID:          cycle.ID,
		VendorID:         "vendor-1",
		PrincipalRepaid:  credit.NewMoneyFromInt(60_000),
		DaysElapsed:      110,
		TierName:         "late",
		TierKind:         credit.TierInterest,
		Rate:             credit.MustParseMoney("0.05").Value,
		DiscountAmount:   credit.ZeroMoney(),
		InterestAmount:   credit.NewMoneyFromInt(3_000),
		ActualAmountPaid: credit.NewMoneyFromInt(63_000),
		CreditUsedBefore: credit.NewMoneyFromInt(60_000),
		CreditUsedAfter:  credit.ZeroMoney(),
		PaidAt:           start.AddDate(0, 0, 110),
		CreatedAt:        start.AddDate(0, 0, 110),
	})
	cycle.OutstandingAmount = credit.ZeroMoney()
	cycle.TotalRepaid = credit.NewMoneyFromInt(100_000)
	cycle.Status = credit.CycleClosed
	closed := start.AddDate(0, 0, 110)
	cycle.CycleClosedDate = &closed
	require.NoError(t, store.SaveCycle(ctx, cycle))

	loaded, err := store.GetCycle(ctx, cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, credit.CycleClosed, loaded.Status)
	require.NotNil(t, loaded.CycleClosedDate)
	require.Len(t, loaded.Repayments, 2)
	assert.Equal(t, "prompt", loaded.Repayments[0].TierName)
	assert.Equal(t, "late", loaded.Repayments[1].TierName)
	assert.Equal(t, "1200.00", loaded.Repayments[0].DiscountAmount.String())
	assert.Equal(t, "3000.00", loaded.Repayments[1].InterestAmount.String())
	require.NoError(t, loaded.CheckInvariants())
}

func TestSQLite_GetMissing_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetAccount(ctx, "nobody")
	assert.ErrorIs(t, err, credit.ErrNotFound)
	_, err = store.GetCycle(ctx, "no-such-cycle")
	assert.ErrorIs(t, err, credit.ErrNotFound)
}

// =============================================================================
// OPTIMISTIC VERSIONING
// =============================================================================

func TestSQLite_StaleAccountSave_Conflicts(t *testing.T) {
	// GIVEN: Two snapshots of the same account
	// WHEN: Both save
	// THEN: The second loses the version race and nothing half-applies

	store := newTestStore(t)
	ctx := context.Background()

	acct, err := credit.NewVendorCreditAccount("vendor-1", credit.NewMoneyFromInt(500_000), start)
	require.NoError(t, err)
	require.NoError(t, store.SaveAccount(ctx, acct))

	first, err := store.GetAccount(ctx, "vendor-1")
	require.NoError(t, err)
	second, err := store.GetAccount(ctx, "vendor-1")
	require.NoError(t, err)

	first.CreditUsed = credit.NewMoneyFromInt(10_000)
	require.NoError(t, store.SaveAccount(ctx, first))

	second.CreditUsed = credit.NewMoneyFromInt(99_999)
	err = store.SaveAccount(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, credit.ErrConcurrencyConflict)

	check, err := store.GetAccount(ctx, "vendor-1")
	require.NoError(t, err)
	assert.Equal(t, "10000.00", check.CreditUsed.String())
}

func TestSQLite_SaveCycleAndAccount_Atomic(t *testing.T) {
	// GIVEN: A fresh cycle paired with a stale account snapshot
	// WHEN: Committing both
	// THEN: The transaction rolls back; the cycle write does not survive alone

	store := newTestStore(t)
	ctx := context.Background()

	acct, err := credit.NewVendorCreditAccount("vendor-1", credit.NewMoneyFromInt(500_000), start)
	require.NoError(t, err)
	require.NoError(t, store.SaveAccount(ctx, acct))

	stale, err := store.GetAccount(ctx, "vendor-1")
	require.NoError(t, err)
	current, err := store.GetAccount(ctx, "vendor-1")
	require.NoError(t, err)
	current.CreditUsed = credit.NewMoneyFromInt(1_000)
	require.NoError(t, store.SaveAccount(ctx, current)) // stale loses from here

	cycle, err := credit.NewCreditCycle("vendor-1", credit.NewMoneyFromInt(100_000), start, "po-100")
	require.NoError(t, err)

	err = store.SaveCycleAndAccount(ctx, cycle, stale)
	require.Error(t, err)
	assert.ErrorIs(t, err, credit.ErrConcurrencyConflict)

	_, err = store.GetCycle(ctx, cycle.ID)
	assert.ErrorIs(t, err, credit.ErrNotFound)
	assert.Equal(t, int64(0), cycle.Version)
}

// =============================================================================
// LISTING
// =============================================================================

func TestSQLite_ListOpenCycles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	open, err := credit.NewCreditCycle("vendor-1", credit.NewMoneyFromInt(100_000), start, "po-1")
	require.NoError(t, err)
	require.NoError(t, store.SaveCycle(ctx, open))

	closedCycle, err := credit.NewCreditCycle("vendor-1", credit.NewMoneyFromInt(50_000), start.AddDate(0, 0, 1), "po-2")
	require.NoError(t, err)
	closedCycle.OutstandingAmount = credit.ZeroMoney()
	closedCycle.TotalRepaid = closedCycle.PrincipalAmount
	closedCycle.Status = credit.CycleClosed
	require.NoError(t, store.SaveCycle(ctx, closedCycle))

	cycles, err := store.ListOpenCycles(ctx)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, open.ID, cycles[0].ID)

	all, err := store.ListCyclesByVendor(ctx, "vendor-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// NOTIFICATION LOG
// =============================================================================

func TestSQLite_NotificationDedup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := credit.NotificationRecord{
		ID:        "n-1",
		VendorID:  "vendor-1",
		CycleID:   "cycle-1",
		Type:      "overdue",
		Title:     "Credit cycle overdue",
		Message:   "Interest is accruing.",
		Priority:  credit.PriorityHigh,
		Metadata:  map[string]string{"days_elapsed": "112"},
		SentOn:    "2025-06-21",
		CreatedAt: start.AddDate(0, 0, 112),
	}
	require.NoError(t, store.AppendNotification(ctx, rec))

	was, err := store.WasNotified(ctx, "cycle-1", "overdue", "2025-06-21")
	require.NoError(t, err)
	assert.True(t, was)

	was, err = store.WasNotified(ctx, "cycle-1", "overdue", "2025-06-22")
	require.NoError(t, err)
	assert.False(t, was)

	// The unique index rejects a second record for the same (cycle, type, day).
	dup := rec
	dup.ID = "n-2"
	assert.Error(t, store.AppendNotification(ctx, dup))

	recs, err := store.ListNotificationsByVendor(ctx, "vendor-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "112", recs[0].Metadata["days_elapsed"])
	assert.Equal(t, credit.PriorityHigh, recs[0].Priority)
}
