// Package service contains the business logic of the trip coordination
// engine. Services validate inputs, enforce roster and lifecycle rules, and
// orchestrate repo calls and event fan-out.
// No SQL lives here: services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/repo"
)

// TripService implements the plain create/read operations on trips.
// Status changes are the Coordinator's job.
type TripService struct {
	repo   repo.TripRepo
	groups repo.GroupRepo
}

// NewTripService constructs a TripService backed by the provided repos.
func NewTripService(r repo.TripRepo, groups repo.GroupRepo) *TripService {
	return &TripService{repo: r, groups: groups}
}

// Create validates and persists a new trip in the planning state.
// When the trip names a group, the owner must belong to it.
// Returns domain.ErrValidation if input violates business rules.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}
	trip.Status = domain.TripPlanning
	if trip.GroupID != nil {
		rs, err := loadRoster(ctx, s.groups, trip)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
		}
		if err := rs.authorize(trip.OwnerID); err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
		}
	}
	result, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single trip by ID if viewerID may see it.
// Returns domain.ErrNotFound if no trip with that ID exists.
func (s *TripService) GetByID(ctx context.Context, id, viewerID int64) (domain.Trip, error) {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	rs, err := loadRoster(ctx, s.groups, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	if err := rs.authorizeView(viewerID); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// validateTrip enforces business rules on new trips.
//   - Name must be non-empty (whitespace-only names are rejected).
//   - Both dates are required and EndDate must not be before StartDate.
//   - Locations, when present, are valid coordinates.
func validateTrip(trip domain.Trip) error {
	if strings.TrimSpace(trip.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if trip.StartDate.IsZero() || trip.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrValidation)
	}
	if trip.EndDate.Before(trip.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	for _, loc := range []*domain.Location{trip.StartLocation, trip.EndLocation} {
		if loc == nil {
			continue
		}
		if err := validatePosition(loc.Lat, loc.Lng); err != nil {
			return err
		}
	}
	return nil
}
