package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/metrics"
	"github.com/desaismitha/Shered-sub002/internal/repo"
)

// Releaser drops per-trip state once a trip has ended.
type Releaser interface {
	Forget(ctx context.Context, tripID int64)
}

// Coordinator owns Trip.Status. It applies the automatic planning->confirmed
// edge when every roster member is ready and the explicit transitions
// requested by the owner or a group admin.
//
// All status changes for a trip happen while holding that trip's lock, which
// is shared with CheckInService and Tracker.
type Coordinator struct {
	trips     repo.TripRepo
	groups    repo.GroupRepo
	checkIns  repo.CheckInRepo
	notifier  Notifier
	locks     *TripLocks
	releasers []Releaser
	log       *slog.Logger
}

// NewCoordinator constructs a Coordinator. releasers are told to forget a
// trip after it reaches completed or cancelled.
func NewCoordinator(trips repo.TripRepo, groups repo.GroupRepo, checkIns repo.CheckInRepo,
	notifier Notifier, locks *TripLocks, log *slog.Logger, releasers ...Releaser) *Coordinator {
	return &Coordinator{
		trips:     trips,
		groups:    groups,
		checkIns:  checkIns,
		notifier:  notifier,
		locks:     locks,
		releasers: releasers,
		log:       log,
	}
}

// Transition applies an explicit status change requested by actorID.
// Returns domain.ErrValidation for an unknown status, domain.ErrNotAMember or
// domain.ErrForbidden when the actor may not manage the trip, and
// domain.ErrInvalidTransition when to is not reachable from the current status
// or, for a grouped trip, when confirming before every member is ready. A
// trip without a group may be confirmed by hand at any time.
// On error the trip is left untouched.
func (c *Coordinator) Transition(ctx context.Context, tripID, actorID int64, to domain.TripStatus) (domain.Trip, error) {
	if !to.Valid() {
		return domain.Trip{}, fmt.Errorf("service.Coordinator.Transition: %w: unknown status %q", domain.ErrValidation, to)
	}

	unlock := c.locks.Lock(tripID)
	defer unlock()

	trip, err := c.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.Coordinator.Transition: %w", err)
	}
	rs, err := loadRoster(ctx, c.groups, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.Coordinator.Transition: %w", err)
	}
	if !rs.canManage(actorID) {
		if err := rs.authorizeView(actorID); err != nil {
			return domain.Trip{}, fmt.Errorf("service.Coordinator.Transition: %w", err)
		}
		return domain.Trip{}, fmt.Errorf("service.Coordinator.Transition: user %d: %w", actorID, domain.ErrForbidden)
	}
	if !domain.CanTransition(trip.Status, to) {
		return domain.Trip{}, fmt.Errorf("service.Coordinator.Transition: %s -> %s: %w",
			trip.Status, to, domain.ErrInvalidTransition)
	}
	if to == domain.TripConfirmed && rs.grouped() {
		ready, err := c.rosterReady(ctx, rs)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("service.Coordinator.Transition: %w", err)
		}
		if !ready {
			return domain.Trip{}, fmt.Errorf("service.Coordinator.Transition: trip %d: roster not ready: %w",
				tripID, domain.ErrInvalidTransition)
		}
	}

	updated, err := c.trips.UpdateStatus(ctx, tripID, trip.Status, to)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.Coordinator.Transition: %w", err)
	}
	c.applied(ctx, rs, trip.Status, to)
	return updated, nil
}

// recompute checks aggregate readiness after a check-in and confirms the
// trip when everyone on a non-empty roster is ready. The caller holds the
// trip lock. A trip that already left planning is never touched, so a later
// change away from ready does not revert it.
func (c *Coordinator) recompute(ctx context.Context, rs roster) error {
	if rs.trip.Status != domain.TripPlanning || !rs.grouped() {
		return nil
	}

	ready, err := c.rosterReady(ctx, rs)
	if err != nil {
		return fmt.Errorf("service.Coordinator.recompute: %w", err)
	}
	if !ready {
		return nil
	}

	_, err = c.trips.UpdateStatus(ctx, rs.trip.ID, domain.TripPlanning, domain.TripConfirmed)
	if errors.Is(err, domain.ErrConflict) {
		// Another process moved the trip first; there is nothing left to do.
		c.log.Info("auto-confirm skipped, trip status changed concurrently", "trip_id", rs.trip.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("service.Coordinator.recompute: %w", err)
	}
	c.applied(ctx, rs, domain.TripPlanning, domain.TripConfirmed)
	return nil
}

// rosterReady reports whether the roster is non-empty and every member's
// latest check-in is ready.
func (c *Coordinator) rosterReady(ctx context.Context, rs roster) (bool, error) {
	if len(rs.members) == 0 {
		return false, nil
	}
	checkIns, err := c.checkIns.ListByTrip(ctx, rs.trip.ID)
	if err != nil {
		return false, err
	}
	return allReady(rs.members, checkIns), nil
}

// applied records and announces a status change that has been persisted.
func (c *Coordinator) applied(ctx context.Context, rs roster, from, to domain.TripStatus) {
	metrics.TripTransitions.WithLabelValues(string(from), string(to)).Inc()
	c.log.Info("trip status changed", "trip_id", rs.trip.ID, "from", from, "to", to)

	c.notifier.Lifecycle(domain.LifecycleChanged(rs.trip.ID, from, to), rs.recipients())

	if to.Terminal() {
		for _, r := range c.releasers {
			r.Forget(ctx, rs.trip.ID)
		}
	}
}

// allReady reports whether every member's latest check-in is ready.
func allReady(members []domain.Member, checkIns []domain.CheckIn) bool {
	latest := make(map[int64]domain.CheckInStatus, len(checkIns))
	for _, ci := range checkIns {
		latest[ci.UserID] = ci.Status
	}
	for _, m := range members {
		if latest[m.UserID] != domain.CheckInReady {
			return false
		}
	}
	return true
}
