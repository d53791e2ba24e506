package credit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeflow/credit-engine/credit"
)

// =============================================================================
// THRESHOLD SCHEDULE
// =============================================================================

func TestReminderFor_DefaultTableSchedule(t *testing.T) {
	// GIVEN: The default table (last discount day 59, interest from 105)
	// WHEN: Asking for the reminder due on each threshold day
	// THEN: Every threshold fires the expected type and priority

	table := credit.DefaultTierTable()

	cases := []struct {
		days     int
		wantType credit.ReminderType
		priority credit.Priority
	}{
		{7, credit.ReminderEarlySavings, credit.PriorityLow},
		{52, credit.ReminderDiscountClosing, credit.PriorityLow},
		{59, credit.ReminderDiscountEnding, credit.PriorityMedium},
		{98, credit.ReminderInterestWarning, credit.PriorityHigh},
		{102, credit.ReminderInterestWarning, credit.PriorityHigh},
		{104, credit.ReminderFinalNotice, credit.PriorityHigh},
		{105, credit.ReminderOverdue, credit.PriorityHigh},
		{112, credit.ReminderOverdue, credit.PriorityHigh},
		{165, credit.ReminderSevereOverdue, credit.PriorityCritical},
		{168, credit.ReminderSevereOverdue, credit.PriorityCritical},
	}

	for _, tc := range cases {
		rem := credit.ReminderFor(table, tc.days)
		require.NotNil(t, rem, "day %d", tc.days)
		assert.Equal(t, tc.wantType, rem.Type, "day %d", tc.days)
		assert.Equal(t, tc.priority, rem.Priority, "day %d", tc.days)
	}
}

func TestReminderFor_QuietDays(t *testing.T) {
	// GIVEN: Days that are not on any threshold
	// WHEN: Asking for a reminder
	// THEN: Nothing is due

	table := credit.DefaultTierTable()
	for _, day := range []int{0, 1, 6, 8, 30, 60, 90, 97, 99, 103, 106, 111, 166} {
		assert.Nil(t, credit.ReminderFor(table, day), "day %d should be quiet", day)
	}
}

func TestReminderFor_OverdueCadence(t *testing.T) {
	// GIVEN: A cycle in the interest zone
	// WHEN: Walking day by day
	// THEN: Overdue notices fire every 7 days, tightening to every 3 days
	//       once 60 days past the boundary

	table := credit.DefaultTierTable()
	interestStart := table.InterestStartDay()

	weekly := 0
	for d := interestStart; d < interestStart+60; d++ {
		if rem := credit.ReminderFor(table, d); rem != nil {
			assert.Equal(t, credit.ReminderOverdue, rem.Type)
			weekly++
		}
	}
	assert.Equal(t, 9, weekly) // days 0,7,...,56 past the boundary

	severe := 0
	for d := interestStart + 60; d < interestStart+90; d++ {
		if rem := credit.ReminderFor(table, d); rem != nil {
			assert.Equal(t, credit.ReminderSevereOverdue, rem.Type)
			severe++
		}
	}
	assert.Equal(t, 10, severe) // every 3 days across 30 days
}

func TestReminderFor_TracksReconfiguredTable(t *testing.T) {
	// GIVEN: A custom table with the interest zone starting on day 30
	// WHEN: Checking the warning days
	// THEN: Thresholds move with the table

	table, err := credit.NewTierTable([]credit.TierBand{
		{Name: "grace", FromDay: 0, ToDay: 29, Kind: credit.TierNeutral},
		{Name: "late", FromDay: 30, Kind: credit.TierInterest, Rate: credit.MustParseMoney("0.02").Value, OpenEnded: true},
	})
	require.NoError(t, err)

	rem := credit.ReminderFor(table, 23)
	require.NotNil(t, rem)
	assert.Equal(t, credit.ReminderInterestWarning, rem.Type)

	rem = credit.ReminderFor(table, 29)
	require.NotNil(t, rem)
	assert.Equal(t, credit.ReminderFinalNotice, rem.Type)

	rem = credit.ReminderFor(table, 30)
	require.NotNil(t, rem)
	assert.Equal(t, credit.ReminderOverdue, rem.Type)

	// No discount bands means no savings notices.
	assert.Nil(t, credit.ReminderFor(table, 7))
}
