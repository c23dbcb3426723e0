package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/recurrence"
	"github.com/desaismitha/Shered-sub002/internal/repo"
)

// ScheduleService authors and queries a trip's itinerary and driver
// assignments. Date queries go through the recurrence evaluator.
type ScheduleService struct {
	trips       repo.TripRepo
	groups      repo.GroupRepo
	items       repo.ItineraryRepo
	assignments repo.AssignmentRepo
	log         *slog.Logger
}

// NewScheduleService constructs a ScheduleService backed by the provided repos.
func NewScheduleService(trips repo.TripRepo, groups repo.GroupRepo, items repo.ItineraryRepo,
	assignments repo.AssignmentRepo, log *slog.Logger) *ScheduleService {
	return &ScheduleService{trips: trips, groups: groups, items: items, assignments: assignments, log: log}
}

// AddItem validates and stores an itinerary item. Only users who may manage
// the trip can edit its schedule.
func (s *ScheduleService) AddItem(ctx context.Context, actorID int64, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	if err := s.authorizeEdit(ctx, item.TripID, actorID); err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ScheduleService.AddItem: %w", err)
	}
	if err := validateItem(item); err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ScheduleService.AddItem: %w", err)
	}
	result, err := s.items.Create(ctx, item)
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ScheduleService.AddItem: %w", err)
	}
	return result, nil
}

// AddAssignment validates and stores a driver assignment.
func (s *ScheduleService) AddAssignment(ctx context.Context, actorID int64, a domain.DriverAssignment) (domain.DriverAssignment, error) {
	if err := s.authorizeEdit(ctx, a.TripID, actorID); err != nil {
		return domain.DriverAssignment{}, fmt.Errorf("service.ScheduleService.AddAssignment: %w", err)
	}
	if err := validateAssignment(a); err != nil {
		return domain.DriverAssignment{}, fmt.Errorf("service.ScheduleService.AddAssignment: %w", err)
	}
	result, err := s.assignments.Create(ctx, a)
	if err != nil {
		return domain.DriverAssignment{}, fmt.Errorf("service.ScheduleService.AddAssignment: %w", err)
	}
	return result, nil
}

// DayFor returns what happens on date for a viewer allowed to see the trip.
func (s *ScheduleService) DayFor(ctx context.Context, tripID, viewerID int64, date time.Time) (domain.DaySchedule, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.DaySchedule{}, fmt.Errorf("service.ScheduleService.DayFor: %w", err)
	}
	rs, err := loadRoster(ctx, s.groups, trip)
	if err != nil {
		return domain.DaySchedule{}, fmt.Errorf("service.ScheduleService.DayFor: %w", err)
	}
	if err := rs.authorizeView(viewerID); err != nil {
		return domain.DaySchedule{}, fmt.Errorf("service.ScheduleService.DayFor: %w", err)
	}

	items, err := s.itineraryOn(ctx, trip, date)
	if err != nil {
		return domain.DaySchedule{}, fmt.Errorf("service.ScheduleService.DayFor: %w", err)
	}
	assignments, err := s.assignmentsOn(ctx, trip.ID, date)
	if err != nil {
		return domain.DaySchedule{}, fmt.Errorf("service.ScheduleService.DayFor: %w", err)
	}
	return domain.DaySchedule{Date: date, Items: items, Assignments: assignments}, nil
}

// ItineraryOn returns the trip's itinerary items that apply on date.
// An item is anchored on StartDate + (DayIndex-1) days and recurs until the
// trip's end date. Items with malformed recurrence data are logged and
// skipped. Always returns a non-nil slice.
func (s *ScheduleService) ItineraryOn(ctx context.Context, tripID int64, date time.Time) ([]domain.ItineraryItem, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ScheduleService.ItineraryOn: %w", err)
	}
	items, err := s.itineraryOn(ctx, trip, date)
	if err != nil {
		return nil, fmt.Errorf("service.ScheduleService.ItineraryOn: %w", err)
	}
	return items, nil
}

// AssignmentsOn returns the trip's non-cancelled driver assignments that
// apply on date. Always returns a non-nil slice.
func (s *ScheduleService) AssignmentsOn(ctx context.Context, tripID int64, date time.Time) ([]domain.DriverAssignment, error) {
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.ScheduleService.AssignmentsOn: %w", err)
	}
	out, err := s.assignmentsOn(ctx, tripID, date)
	if err != nil {
		return nil, fmt.Errorf("service.ScheduleService.AssignmentsOn: %w", err)
	}
	return out, nil
}

func (s *ScheduleService) itineraryOn(ctx context.Context, trip domain.Trip, date time.Time) ([]domain.ItineraryItem, error) {
	items, err := s.items.ListByTrip(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	out := []domain.ItineraryItem{}
	for _, it := range sortedItems(items) {
		anchor := trip.StartDate.AddDate(0, 0, it.DayIndex-1)
		ok, err := recurrence.Evaluate(it.Recurrence, domain.DateRange{Start: anchor, End: trip.EndDate}, date)
		if err != nil {
			s.log.Warn("skipping itinerary item with bad recurrence", "item_id", it.ID, "trip_id", trip.ID, "error", err)
			continue
		}
		if ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *ScheduleService) assignmentsOn(ctx context.Context, tripID int64, date time.Time) ([]domain.DriverAssignment, error) {
	all, err := s.assignments.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	out := []domain.DriverAssignment{}
	for _, a := range all {
		if a.Status == domain.AssignmentCancelled {
			continue
		}
		ok, err := recurrence.Evaluate(a.Recurrence, a.Range(), date)
		if err != nil {
			s.log.Warn("skipping driver assignment with bad recurrence", "assignment_id", a.ID, "trip_id", tripID, "error", err)
			continue
		}
		if ok {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *ScheduleService) authorizeEdit(ctx context.Context, tripID, actorID int64) error {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	rs, err := loadRoster(ctx, s.groups, trip)
	if err != nil {
		return err
	}
	if rs.canManage(actorID) {
		return nil
	}
	if err := rs.authorizeView(actorID); err != nil {
		return err
	}
	return fmt.Errorf("user %d may not edit trip %d: %w", actorID, tripID, domain.ErrForbidden)
}

// sortedItems orders items by day index, then start time, then id.
// An item without a start time sorts first within its day.
func sortedItems(items []domain.ItineraryItem) []domain.ItineraryItem {
	out := append([]domain.ItineraryItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DayIndex != b.DayIndex {
			return a.DayIndex < b.DayIndex
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
	return out
}

// validateItem enforces the itinerary rules.
//   - Title must be non-empty.
//   - DayIndex is 1-based.
//   - Times, when set, are "15:04" and the window does not end before it starts.
//   - The recurrence pattern is well formed.
func validateItem(it domain.ItineraryItem) error {
	if strings.TrimSpace(it.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if it.DayIndex < 1 {
		return fmt.Errorf("%w: day_index must be at least 1", domain.ErrValidation)
	}
	for _, v := range []string{it.StartTime, it.EndTime} {
		if v == "" {
			continue
		}
		if _, err := time.Parse("15:04", v); err != nil {
			return fmt.Errorf("%w: time %q must be HH:MM", domain.ErrValidation, v)
		}
	}
	if it.StartTime != "" && it.EndTime != "" && it.EndTime < it.StartTime {
		return fmt.Errorf("%w: end_time must not be before start_time", domain.ErrValidation)
	}
	return recurrence.Validate(it.Recurrence)
}

// validateAssignment enforces EndDate >= StartDate, a known status and a
// well-formed recurrence pattern.
func validateAssignment(a domain.DriverAssignment) error {
	if a.StartDate.IsZero() || a.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrValidation)
	}
	if a.EndDate.Before(a.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	switch a.Status {
	case "", domain.AssignmentScheduled, domain.AssignmentCompleted, domain.AssignmentCancelled:
	default:
		return fmt.Errorf("%w: unknown assignment status %q", domain.ErrValidation, a.Status)
	}
	return recurrence.Validate(a.Recurrence)
}
