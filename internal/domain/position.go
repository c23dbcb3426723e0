package domain

import "time"

// PositionReport is a single live location sample for an in-progress trip.
type PositionReport struct {
	TripID     int64     `json:"trip_id"`
	UserID     int64     `json:"user_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ReportedAt time.Time `json:"reported_at"`
}

// DeviationResult describes how a position report relates to the planned route.
// Raised is true only for the report that opened a new deviation episode.
type DeviationResult struct {
	DistanceMeters float64 `json:"distance_meters"`
	Deviated       bool    `json:"deviated"`
	Raised         bool    `json:"raised"`
}
