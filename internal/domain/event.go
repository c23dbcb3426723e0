package domain

import "fmt"

// EventType is the wire-level discriminator of a pushed event.
type EventType string

const (
	EventLifecycleChanged EventType = "lifecycle-changed"
	EventRouteDeviation   EventType = "route-deviation"
	EventCheckInUpdated   EventType = "check-in-updated"
	EventPositionUpdated  EventType = "position-updated"
)

// Event is the JSON record pushed to live sessions and mirrored to the broker.
// Fields not relevant to Type are omitted on the wire.
// Seq is assigned by the dispatcher and increases per trip.
type Event struct {
	Type    EventType     `json:"type"`
	TripID  int64         `json:"tripId"`
	Seq     uint64        `json:"seq,omitempty"`
	UserID  int64         `json:"userId,omitempty"`
	Message string        `json:"message,omitempty"`
	From    TripStatus    `json:"from,omitempty"`
	To      TripStatus    `json:"to,omitempty"`
	Status  CheckInStatus `json:"status,omitempty"`
	Lat     *float64      `json:"lat,omitempty"`
	Lng     *float64      `json:"lng,omitempty"`
}

// Droppable reports whether the event may be discarded when a recipient's
// queue overflows. Only position pings qualify; lifecycle, deviation and
// check-in events are always delivered.
func (e Event) Droppable() bool {
	return e.Type == EventPositionUpdated
}

// Ends reports whether the event is the final lifecycle event of a trip.
func (e Event) Ends() bool {
	return e.Type == EventLifecycleChanged && e.To.Terminal()
}

// LifecycleChanged builds the event emitted on every trip status transition.
func LifecycleChanged(tripID int64, from, to TripStatus) Event {
	return Event{Type: EventLifecycleChanged, TripID: tripID, From: from, To: to}
}

// CheckInUpdated builds the event emitted after a check-in is recorded.
func CheckInUpdated(c CheckIn) Event {
	return Event{Type: EventCheckInUpdated, TripID: c.TripID, UserID: c.UserID, Status: c.Status}
}

// RouteDeviation builds the event emitted when a deviation episode opens.
func RouteDeviation(tripID, userID int64, distanceMeters float64) Event {
	return Event{
		Type:    EventRouteDeviation,
		TripID:  tripID,
		UserID:  userID,
		Message: fmt.Sprintf("user %d is %.0f m off the planned route", userID, distanceMeters),
	}
}

// PositionUpdated builds the non-critical live location ping.
func PositionUpdated(p PositionReport) Event {
	lat, lng := p.Lat, p.Lng
	return Event{Type: EventPositionUpdated, TripID: p.TripID, UserID: p.UserID, Lat: &lat, Lng: &lng}
}
