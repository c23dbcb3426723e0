package domain

import "time"

// RecurrenceKind selects how a RecurrencePattern repeats.
type RecurrenceKind string

const (
	RecurNone         RecurrenceKind = "none"
	RecurDaily        RecurrenceKind = "daily"
	RecurWeekdays     RecurrenceKind = "weekdays"
	RecurWeekends     RecurrenceKind = "weekends"
	RecurSpecificDays RecurrenceKind = "specific-days"
	RecurWeekly       RecurrenceKind = "weekly"
	RecurMonthly      RecurrenceKind = "monthly"
	RecurCustom       RecurrenceKind = "custom"
)

// RecurrencePattern is embedded in itinerary items and driver assignments.
// Days holds weekday codes ("mon".."sun") and is only consulted for
// specific-days and custom patterns. Codes are stored as given; validation
// happens at evaluation time so bad data never blocks a read.
type RecurrencePattern struct {
	Kind RecurrenceKind `json:"kind"`
	Days []string       `json:"days,omitempty"`
}

// DateRange is an inclusive calendar-date range. Only the year, month and day
// of Start and End are significant.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
