package domain

import "time"

// CheckInStatus is a member's self-reported readiness for a trip.
type CheckInStatus string

const (
	CheckInReady    CheckInStatus = "ready"
	CheckInNotReady CheckInStatus = "not-ready"
	CheckInMaybe    CheckInStatus = "maybe"
	CheckInDelayed  CheckInStatus = "delayed"

	// CheckInMissing is never stored. It is reported for roster members who
	// have not submitted anything yet.
	CheckInMissing CheckInStatus = "not-checked-in"
)

// Valid reports whether s may be submitted. CheckInMissing is read-only.
func (s CheckInStatus) Valid() bool {
	switch s {
	case CheckInReady, CheckInNotReady, CheckInMaybe, CheckInDelayed:
		return true
	}
	return false
}

// Position is an optional geolocation attached to a check-in.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CheckIn is the latest readiness signal of one user for one trip.
// There is at most one stored CheckIn per (TripID, UserID).
type CheckIn struct {
	TripID           int64         `json:"trip_id"`
	UserID           int64         `json:"user_id"`
	Status           CheckInStatus `json:"status"`
	Notes            string        `json:"notes,omitempty"`
	Position         *Position     `json:"position,omitempty"`
	LocationVerified bool          `json:"location_verified"`
	CheckedInAt      time.Time     `json:"checked_in_at"`
}

// MemberRole is a user's role inside a group.
type MemberRole string

const (
	RoleMember MemberRole = "member"
	RoleAdmin  MemberRole = "admin"
)

// Member is one entry of a group's roster.
type Member struct {
	GroupID int64      `json:"group_id"`
	UserID  int64      `json:"user_id"`
	Role    MemberRole `json:"role"`
}

// MemberStatus is one row of the roster view of a trip's check-ins.
// CheckIn is nil when Status is CheckInMissing.
type MemberStatus struct {
	UserID  int64         `json:"user_id"`
	Status  CheckInStatus `json:"status"`
	CheckIn *CheckIn      `json:"check_in,omitempty"`
}
