package handler

import (
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/desaismitha/Shered-sub002/internal/domain"
)

// ItineraryItemRequest is the body of POST /trips/{tripID}/itinerary.
type ItineraryItemRequest struct {
	Title      string                   `json:"title"`
	DayIndex   int                      `json:"day_index"`
	StartTime  string                   `json:"start_time,omitempty"`
	EndTime    string                   `json:"end_time,omitempty"`
	From       *domain.Location         `json:"from,omitempty"`
	To         *domain.Location         `json:"to,omitempty"`
	Recurrence domain.RecurrencePattern `json:"recurrence"`
}

// AssignmentRequest is the body of POST /trips/{tripID}/assignments.
// An empty status means scheduled.
type AssignmentRequest struct {
	DriverID   *int64                   `json:"driver_id,omitempty"`
	VehicleID  *int64                   `json:"vehicle_id,omitempty"`
	StartDate  openapi_types.Date       `json:"start_date"`
	EndDate    openapi_types.Date       `json:"end_date"`
	Recurrence domain.RecurrencePattern `json:"recurrence"`
	Status     domain.AssignmentStatus  `json:"status,omitempty"`
}

// AssignmentResponse is the wire form of a driver assignment.
type AssignmentResponse struct {
	ID         int64                    `json:"id"`
	TripID     int64                    `json:"trip_id"`
	DriverID   *int64                   `json:"driver_id,omitempty"`
	VehicleID  *int64                   `json:"vehicle_id,omitempty"`
	StartDate  openapi_types.Date       `json:"start_date"`
	EndDate    openapi_types.Date       `json:"end_date"`
	Recurrence domain.RecurrencePattern `json:"recurrence"`
	Status     domain.AssignmentStatus  `json:"status"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// ScheduleResponse is the body of GET /trips/{tripID}/schedule.
type ScheduleResponse struct {
	Date        openapi_types.Date     `json:"date"`
	Items       []domain.ItineraryItem `json:"items"`
	Assignments []AssignmentResponse   `json:"assignments"`
}

// AddItineraryItem handles POST /trips/{tripID}/itinerary.
func (s *Server) AddItineraryItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}
	var body ItineraryItemRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	created, err := s.svc.Schedule.AddItem(r.Context(), userID, domain.ItineraryItem{
		TripID:     tripID,
		Title:      body.Title,
		DayIndex:   body.DayIndex,
		StartTime:  body.StartTime,
		EndTime:    body.EndTime,
		From:       body.From,
		To:         body.To,
		Recurrence: body.Recurrence,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// AddAssignment handles POST /trips/{tripID}/assignments.
func (s *Server) AddAssignment(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}
	var body AssignmentRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	status := body.Status
	if status == "" {
		status = domain.AssignmentScheduled
	}

	created, err := s.svc.Schedule.AddAssignment(r.Context(), userID, domain.DriverAssignment{
		TripID:     tripID,
		DriverID:   body.DriverID,
		VehicleID:  body.VehicleID,
		StartDate:  body.StartDate.Time,
		EndDate:    body.EndDate.Time,
		Recurrence: body.Recurrence,
		Status:     status,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, assignmentToResponse(created))
}

// GetSchedule handles GET /trips/{tripID}/schedule?date=YYYY-MM-DD.
func (s *Server) GetSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}
	var date openapi_types.Date
	raw := r.URL.Query().Get("date")
	if raw == "" {
		requestError(w, "date is required")
		return
	}
	if err := runtime.BindStringToObject(raw, &date); err != nil {
		requestError(w, "date must be a YYYY-MM-DD calendar date")
		return
	}

	day, err := s.svc.Schedule.DayFor(r.Context(), tripID, userID, date.Time)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleToResponse(day))
}

// --- mapping helpers --------------------------------------------------------

func assignmentToResponse(a domain.DriverAssignment) AssignmentResponse {
	return AssignmentResponse{
		ID:         a.ID,
		TripID:     a.TripID,
		DriverID:   a.DriverID,
		VehicleID:  a.VehicleID,
		StartDate:  openapi_types.Date{Time: a.StartDate},
		EndDate:    openapi_types.Date{Time: a.EndDate},
		Recurrence: a.Recurrence,
		Status:     a.Status,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func scheduleToResponse(d domain.DaySchedule) ScheduleResponse {
	resp := ScheduleResponse{
		Date:        openapi_types.Date{Time: d.Date},
		Items:       d.Items,
		Assignments: make([]AssignmentResponse, len(d.Assignments)),
	}
	if resp.Items == nil {
		resp.Items = []domain.ItineraryItem{}
	}
	for i, a := range d.Assignments {
		resp.Assignments[i] = assignmentToResponse(a)
	}
	return resp
}
