package handler

import (
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/desaismitha/Shered-sub002/internal/domain"
)

// CreateTripRequest is the body of POST /trips.
type CreateTripRequest struct {
	Name          string             `json:"name"`
	GroupID       *int64             `json:"group_id,omitempty"`
	StartDate     openapi_types.Date `json:"start_date"`
	EndDate       openapi_types.Date `json:"end_date"`
	StartLocation *domain.Location   `json:"start_location,omitempty"`
	EndLocation   *domain.Location   `json:"end_location,omitempty"`
}

// TripResponse is the wire form of a trip. Dates are calendar dates.
type TripResponse struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	OwnerID       int64              `json:"owner_id"`
	GroupID       *int64             `json:"group_id,omitempty"`
	Status        domain.TripStatus  `json:"status"`
	StartDate     openapi_types.Date `json:"start_date"`
	EndDate       openapi_types.Date `json:"end_date"`
	StartLocation *domain.Location   `json:"start_location,omitempty"`
	EndLocation   *domain.Location   `json:"end_location,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// TransitionRequest is the body of POST /trips/{tripID}/transitions.
type TransitionRequest struct {
	To domain.TripStatus `json:"to"`
}

// CreateTrip handles POST /trips. The caller becomes the owner.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	var body CreateTripRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	created, err := s.svc.Trips.Create(r.Context(), requestToTrip(body, userID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	trip, err := s.svc.Trips.GetByID(r.Context(), tripID, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// TransitionTrip handles POST /trips/{tripID}/transitions.
func (s *Server) TransitionTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}
	var body TransitionRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	trip, err := s.svc.Lifecycle.Transition(r.Context(), tripID, userID, body.To)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// --- mapping helpers --------------------------------------------------------

func requestToTrip(body CreateTripRequest, ownerID int64) domain.Trip {
	return domain.Trip{
		Name:          body.Name,
		OwnerID:       ownerID,
		GroupID:       body.GroupID,
		StartDate:     body.StartDate.Time,
		EndDate:       body.EndDate.Time,
		StartLocation: body.StartLocation,
		EndLocation:   body.EndLocation,
	}
}

func tripToResponse(t domain.Trip) TripResponse {
	return TripResponse{
		ID:            t.ID,
		Name:          t.Name,
		OwnerID:       t.OwnerID,
		GroupID:       t.GroupID,
		Status:        t.Status,
		StartDate:     openapi_types.Date{Time: t.StartDate},
		EndDate:       openapi_types.Date{Time: t.EndDate},
		StartLocation: t.StartLocation,
		EndLocation:   t.EndLocation,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}
