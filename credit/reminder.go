/*
reminder.go - Pure reminder policy for open credit cycles

PURPOSE:
  Maps "days elapsed since cycle start" to a reminder descriptor (type,
  priority, message) or nothing. The scheduler drives this function once
  per sweep; keeping it free of I/O makes every threshold independently
  unit-testable.

THRESHOLDS (all derived from the tier table, not hard-coded days):
  lastDiscount   = table.LastDiscountDay()
  interestStart  = table.InterestStartDay()

  day 7:                     early_savings       low    "still time to save"
  lastDiscount - 7:          discount_closing    low    discount window ending
  lastDiscount:              discount_ending     medium last day to earn a discount
  interestStart - 7, - 3:    interest_warning    high   "N days left"
  interestStart - 1:         final_notice        high   last interest-free day
  every 7 days from
  interestStart:             overdue             high   interest accruing
  every 3 days once 60 days
  past interestStart:        severe_overdue      critical

DEDUP CONTRACT:
  The function itself is stateless. The scheduler records one notification
  per (cycle, reminder type, day) and skips anything already sent today,
  so a sweep can safely run more than once per day.

SEE ALSO:
  - api/scheduler.go: The sweep driver and its dedup check
  - tier.go: The boundaries these thresholds are derived from
*/
package credit

import "fmt"

// =============================================================================
// REMINDER DESCRIPTOR
// =============================================================================

type ReminderType string

const (
	ReminderEarlySavings    ReminderType = "early_savings"
	ReminderDiscountClosing ReminderType = "discount_closing"
	ReminderDiscountEnding  ReminderType = "discount_ending"
	ReminderInterestWarning ReminderType = "interest_warning"
	ReminderFinalNotice     ReminderType = "final_notice"
	ReminderOverdue         ReminderType = "overdue"
	ReminderSevereOverdue   ReminderType = "severe_overdue"
)

type Reminder struct {
	Type     ReminderType
	Priority Priority
	Title    string
	Message  string
}

// severeOverdueAfter is how many days past the interest boundary the
// escalation cadence tightens from weekly to every three days.
const severeOverdueAfter = 60

// =============================================================================
// POLICY FUNCTION
// =============================================================================

// ReminderFor returns the reminder due at daysElapsed, or nil when no
// notice is scheduled for that day. Pure function of (table, daysElapsed).
func ReminderFor(table TierTable, daysElapsed int) *Reminder {
	lastDiscount := table.LastDiscountDay()
	interestStart := table.InterestStartDay()

	// Overdue escalations first: once in the interest zone nothing else fires.
	if interestStart >= 0 && daysElapsed >= interestStart {
		overdueDays := daysElapsed - interestStart
		if overdueDays >= severeOverdueAfter {
			if overdueDays%3 == 0 {
				return &Reminder{
					Type:     ReminderSevereOverdue,
					Priority: PriorityCritical,
					Title:    "Severely overdue credit cycle",
					Message: fmt.Sprintf("Your credit cycle is %d days past the interest threshold and accruing the highest interest rate. Settle immediately to stop further charges.",
						overdueDays),
				}
			}
			return nil
		}
		if overdueDays%7 == 0 {
			return &Reminder{
				Type:     ReminderOverdue,
				Priority: PriorityHigh,
				Title:    "Credit cycle overdue",
				Message: fmt.Sprintf("Interest is accruing on your outstanding balance (%d days past the interest-free window). Repay now to limit charges.",
					overdueDays),
			}
		}
		return nil
	}

	// Approaching the interest boundary.
	if interestStart >= 0 {
		switch daysLeft := interestStart - daysElapsed; daysLeft {
		case 1:
			return &Reminder{
				Type:     ReminderFinalNotice,
				Priority: PriorityHigh,
				Title:    "Last interest-free day",
				Message:  "Today is the last day to repay without interest. Charges begin tomorrow.",
			}
		case 3, 7:
			return &Reminder{
				Type:     ReminderInterestWarning,
				Priority: PriorityHigh,
				Title:    "Interest starts soon",
				Message:  fmt.Sprintf("%d days left to repay before interest applies to your outstanding balance.", daysLeft),
			}
		}
	}

	// Discount window notices.
	if lastDiscount >= 0 {
		switch daysElapsed {
		case 7:
			return &Reminder{
				Type:     ReminderEarlySavings,
				Priority: PriorityLow,
				Title:    "Early repayment saves money",
				Message:  "Repay now and earn an early-settlement discount on your outstanding balance.",
			}
		case lastDiscount - 7:
			return &Reminder{
				Type:     ReminderDiscountClosing,
				Priority: PriorityLow,
				Title:    "Discount window closing",
				Message:  "Your early-repayment discount window ends in 7 days.",
			}
		case lastDiscount:
			return &Reminder{
				Type:     ReminderDiscountEnding,
				Priority: PriorityMedium,
				Title:    "Last day for a discount",
				Message:  "Today is the last day a repayment earns a discount. After today repayments settle at face value.",
			}
		}
	}

	return nil
}
