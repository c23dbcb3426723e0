// Package domain contains the core data types for the trip coordination engine.
// This package has no dependencies on other internal packages and is imported
// by every other internal package (repo, service, handler, live).
package domain

import "time"

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripPlanning   TripStatus = "planning"
	TripConfirmed  TripStatus = "confirmed"
	TripInProgress TripStatus = "in-progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

// Valid reports whether s is one of the known trip statuses.
func (s TripStatus) Valid() bool {
	switch s {
	case TripPlanning, TripConfirmed, TripInProgress, TripCompleted, TripCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s TripStatus) Terminal() bool {
	return s == TripCompleted || s == TripCancelled
}

// CanTransition reports whether from -> to is an edge of the trip state machine.
// Cancellation is reachable from every non-terminal state.
func CanTransition(from, to TripStatus) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case TripConfirmed:
		return from == TripPlanning
	case TripInProgress:
		return from == TripConfirmed
	case TripCompleted:
		return from == TripInProgress
	case TripCancelled:
		return true
	}
	return false
}

// Location is a geographic point with an optional human-readable label.
type Location struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label,omitempty"`
}

// Trip is the aggregate root: check-ins, itinerary items and driver
// assignments all belong to exactly one trip.
// GroupID is nil when the trip has no roster; such a trip never auto-confirms.
type Trip struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	OwnerID       int64      `json:"owner_id"`
	GroupID       *int64     `json:"group_id,omitempty"`
	Status        TripStatus `json:"status"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	StartLocation *Location  `json:"start_location,omitempty"`
	EndLocation   *Location  `json:"end_location,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
