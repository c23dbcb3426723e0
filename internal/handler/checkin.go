package handler

import (
	"net/http"

	"github.com/desaismitha/Shered-sub002/internal/domain"
)

// CheckInRequest is the body of POST /trips/{tripID}/check-ins.
type CheckInRequest struct {
	Status   domain.CheckInStatus `json:"status"`
	Notes    string               `json:"notes,omitempty"`
	Position *domain.Position     `json:"position,omitempty"`
}

// SubmitCheckIn handles POST /trips/{tripID}/check-ins. Submitting again
// replaces the caller's previous check-in.
func (s *Server) SubmitCheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}
	var body CheckInRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	c, err := s.svc.CheckIns.Submit(r.Context(), tripID, userID, body.Status, body.Notes, body.Position)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListCheckIns handles GET /trips/{tripID}/check-ins. Roster members that
// have not checked in are listed with status "not-checked-in".
func (s *Server) ListCheckIns(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	statuses, err := s.svc.CheckIns.StatusesFor(r.Context(), tripID, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if statuses == nil {
		statuses = []domain.MemberStatus{}
	}
	writeJSON(w, http.StatusOK, statuses)
}
