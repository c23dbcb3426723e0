package domain

import "time"

// ItineraryItem is a single planned stop in a trip's schedule.
// DayIndex is 1-based: day 1 is the trip's start date.
// StartTime and EndTime are "15:04" strings and empty when the item has no
// time-of-day window.
type ItineraryItem struct {
	ID         int64             `json:"id"`
	TripID     int64             `json:"trip_id"`
	Title      string            `json:"title"`
	DayIndex   int               `json:"day_index"`
	StartTime  string            `json:"start_time,omitempty"`
	EndTime    string            `json:"end_time,omitempty"`
	From       *Location         `json:"from,omitempty"`
	To         *Location         `json:"to,omitempty"`
	Recurrence RecurrencePattern `json:"recurrence"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// AssignmentStatus is the state of a driver assignment.
type AssignmentStatus string

const (
	AssignmentScheduled AssignmentStatus = "scheduled"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentCancelled AssignmentStatus = "cancelled"
)

// DriverAssignment assigns a driver (and optionally a vehicle) to a trip for
// the dates in [StartDate, EndDate] matched by Recurrence.
type DriverAssignment struct {
	ID         int64             `json:"id"`
	TripID     int64             `json:"trip_id"`
	DriverID   *int64            `json:"driver_id,omitempty"`
	VehicleID  *int64            `json:"vehicle_id,omitempty"`
	StartDate  time.Time         `json:"start_date"`
	EndDate    time.Time         `json:"end_date"`
	Recurrence RecurrencePattern `json:"recurrence"`
	Status     AssignmentStatus  `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Range returns the assignment's inclusive date range.
func (a DriverAssignment) Range() DateRange {
	return DateRange{Start: a.StartDate, End: a.EndDate}
}

// DaySchedule is everything that applies to a trip on one calendar date.
type DaySchedule struct {
	Date        time.Time          `json:"date"`
	Items       []ItineraryItem    `json:"items"`
	Assignments []DriverAssignment `json:"assignments"`
}
