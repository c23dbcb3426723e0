package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/desaismitha/Shered-sub002/internal/clock"
	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/geo"
	"github.com/desaismitha/Shered-sub002/internal/repo"
)

// CheckInService records member readiness and feeds the Coordinator.
type CheckInService struct {
	trips    repo.TripRepo
	groups   repo.GroupRepo
	checkIns repo.CheckInRepo
	coord    *Coordinator
	notifier Notifier
	clock    clock.Clock
	radius   float64
	log      *slog.Logger
}

// NewCheckInService constructs a CheckInService. radiusMeters is the
// tolerance used to verify a check-in position against the trip's start.
func NewCheckInService(trips repo.TripRepo, groups repo.GroupRepo, checkIns repo.CheckInRepo,
	coord *Coordinator, notifier Notifier, clk clock.Clock, radiusMeters float64, log *slog.Logger) *CheckInService {
	return &CheckInService{
		trips:    trips,
		groups:   groups,
		checkIns: checkIns,
		coord:    coord,
		notifier: notifier,
		clock:    clk,
		radius:   radiusMeters,
		log:      log,
	}
}

// Submit stores status as the latest check-in of userID for tripID, replacing
// any earlier one, and dispatches check-in-updated to the trip's roster.
//
// Returns domain.ErrValidation for an unknown status or out-of-range position,
// domain.ErrNotFound for an unknown trip, domain.ErrTripNotActive once the
// trip has ended and domain.ErrNotAMember when the trip has a group that
// userID is not part of.
//
// An unverified position never blocks the check-in; it only leaves
// LocationVerified false.
func (s *CheckInService) Submit(ctx context.Context, tripID, userID int64, status domain.CheckInStatus,
	notes string, pos *domain.Position) (domain.CheckIn, error) {
	if !status.Valid() {
		return domain.CheckIn{}, fmt.Errorf("service.CheckInService.Submit: %w: unknown status %q", domain.ErrValidation, status)
	}
	if pos != nil {
		if err := validatePosition(pos.Lat, pos.Lng); err != nil {
			return domain.CheckIn{}, fmt.Errorf("service.CheckInService.Submit: %w", err)
		}
	}

	unlock := s.coord.locks.Lock(tripID)
	defer unlock()

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.CheckIn{}, fmt.Errorf("service.CheckInService.Submit: %w", err)
	}
	if trip.Status.Terminal() {
		return domain.CheckIn{}, fmt.Errorf("service.CheckInService.Submit: trip %d is %s: %w", tripID, trip.Status, domain.ErrTripNotActive)
	}
	rs, err := loadRoster(ctx, s.groups, trip)
	if err != nil {
		return domain.CheckIn{}, fmt.Errorf("service.CheckInService.Submit: %w", err)
	}
	if err := rs.authorize(userID); err != nil {
		return domain.CheckIn{}, fmt.Errorf("service.CheckInService.Submit: %w", err)
	}

	stored, err := s.checkIns.Upsert(ctx, domain.CheckIn{
		TripID:           tripID,
		UserID:           userID,
		Status:           status,
		Notes:            strings.TrimSpace(notes),
		Position:         pos,
		LocationVerified: s.verify(trip, pos),
		CheckedInAt:      s.clock.Now().UTC(),
	})
	if err != nil {
		return domain.CheckIn{}, fmt.Errorf("service.CheckInService.Submit: %w", err)
	}

	s.notifier.CheckIn(domain.CheckInUpdated(stored), rs.recipients(userID))

	if err := s.coord.recompute(ctx, rs); err != nil {
		return stored, fmt.Errorf("service.CheckInService.Submit: %w", err)
	}
	return stored, nil
}

// StatusesFor returns one entry per expected participant: every roster
// member (or, for a trip without a group, the owner and everyone who has
// checked in). Members who have not checked in are reported as
// domain.CheckInMissing. viewerID must be allowed to see the trip.
func (s *CheckInService) StatusesFor(ctx context.Context, tripID, viewerID int64) ([]domain.MemberStatus, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.CheckInService.StatusesFor: %w", err)
	}
	rs, err := loadRoster(ctx, s.groups, trip)
	if err != nil {
		return nil, fmt.Errorf("service.CheckInService.StatusesFor: %w", err)
	}
	if err := rs.authorizeView(viewerID); err != nil {
		return nil, fmt.Errorf("service.CheckInService.StatusesFor: %w", err)
	}
	checkIns, err := s.checkIns.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.CheckInService.StatusesFor: %w", err)
	}
	return memberStatuses(rs, checkIns), nil
}

// verify reports whether pos lies within the configured radius of the
// trip's start location.
func (s *CheckInService) verify(trip domain.Trip, pos *domain.Position) bool {
	if pos == nil || trip.StartLocation == nil {
		return false
	}
	start := geo.Point{Lat: trip.StartLocation.Lat, Lng: trip.StartLocation.Lng}
	return geo.Within(geo.Point{Lat: pos.Lat, Lng: pos.Lng}, start, s.radius)
}

// memberStatuses derives the roster view; placeholder rows are never stored.
func memberStatuses(rs roster, checkIns []domain.CheckIn) []domain.MemberStatus {
	byUser := make(map[int64]domain.CheckIn, len(checkIns))
	for _, ci := range checkIns {
		byUser[ci.UserID] = ci
	}

	var expected []int64
	if rs.grouped() {
		expected = rs.userIDs()
	} else {
		expected = []int64{rs.trip.OwnerID}
		for _, ci := range checkIns {
			if ci.UserID != rs.trip.OwnerID {
				expected = append(expected, ci.UserID)
			}
		}
	}

	out := make([]domain.MemberStatus, 0, len(expected))
	for _, uid := range expected {
		ci, ok := byUser[uid]
		if !ok {
			out = append(out, domain.MemberStatus{UserID: uid, Status: domain.CheckInMissing})
			continue
		}
		out = append(out, domain.MemberStatus{UserID: uid, Status: ci.Status, CheckIn: &ci})
	}
	return out
}

func validatePosition(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: position (%g, %g) out of range", domain.ErrValidation, lat, lng)
	}
	return nil
}
