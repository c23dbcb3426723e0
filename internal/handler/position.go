package handler

import (
	"net/http"
	"time"

	"github.com/desaismitha/Shered-sub002/internal/domain"
)

// PositionRequest is the body of POST /trips/{tripID}/positions.
// A missing reported_at means "now".
type PositionRequest struct {
	Lat        *float64  `json:"lat"`
	Lng        *float64  `json:"lng"`
	ReportedAt time.Time `json:"reported_at,omitempty"`
}

// ReportPosition handles POST /trips/{tripID}/positions.
// Responds 202: the position was accepted and fanned out asynchronously.
func (s *Server) ReportPosition(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}
	var body PositionRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Lat == nil || body.Lng == nil {
		requestError(w, "lat and lng are required")
		return
	}

	res, err := s.svc.Tracker.Report(r.Context(), tripID, userID, *body.Lat, *body.Lng, body.ReportedAt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

// LatestPositions handles GET /trips/{tripID}/positions: the last known
// position of every member that has reported one.
func (s *Server) LatestPositions(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	reports, err := s.svc.Tracker.Latest(r.Context(), tripID, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if reports == nil {
		reports = []domain.PositionReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}
