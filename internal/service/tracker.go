package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/desaismitha/Shered-sub002/internal/clock"
	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/geo"
	"github.com/desaismitha/Shered-sub002/internal/metrics"
	"github.com/desaismitha/Shered-sub002/internal/repo"
)

// PositionStore keeps the most recent sample per (trip, user).
type PositionStore interface {
	Put(ctx context.Context, r domain.PositionReport) error
	Latest(ctx context.Context, tripID int64) ([]domain.PositionReport, error)
	Forget(ctx context.Context, tripID int64) error
}

// TrackerConfig holds the deviation detector settings.
type TrackerConfig struct {
	// ThresholdMeters is the corridor half-width around the planned route.
	ThresholdMeters float64
	// Sustain is how long reports must stay outside the corridor before a
	// deviation is raised. Zero raises on the first outside sample.
	Sustain time.Duration
}

// leg identifies one tracked traveller on one trip.
type leg struct {
	tripID int64
	userID int64
}

// legState is the hysteresis flag for one leg plus what is needed to apply
// the sustain window and ignore out-of-order samples.
type legState struct {
	inDeviation bool
	outSince    time.Time
	last        time.Time
}

// Tracker accepts live positions for in-progress trips and raises a
// route-deviation event once per deviation episode.
type Tracker struct {
	trips     repo.TripRepo
	groups    repo.GroupRepo
	items     repo.ItineraryRepo
	positions PositionStore
	notifier  Notifier
	locks     *TripLocks
	clock     clock.Clock
	cfg       TrackerConfig
	log       *slog.Logger

	mu   sync.Mutex
	legs map[leg]*legState
}

// NewTracker constructs a Tracker. locks must be the same table the
// Coordinator uses so that reports and terminal transitions are serialized.
func NewTracker(trips repo.TripRepo, groups repo.GroupRepo, items repo.ItineraryRepo, positions PositionStore,
	notifier Notifier, locks *TripLocks, clk clock.Clock, cfg TrackerConfig, log *slog.Logger) *Tracker {
	return &Tracker{
		trips:     trips,
		groups:    groups,
		items:     items,
		positions: positions,
		notifier:  notifier,
		locks:     locks,
		clock:     clk,
		cfg:       cfg,
		log:       log,
		legs:      make(map[leg]*legState),
	}
}

// Report evaluates one position sample. A zero at means now.
//
// Returns domain.ErrTripNotActive unless the trip is in progress,
// domain.ErrNotAMember for users outside a grouped trip's roster and
// domain.ErrValidation for out-of-range coordinates. A sample older than the
// last accepted one for the same user changes nothing.
func (t *Tracker) Report(ctx context.Context, tripID, userID int64, lat, lng float64, at time.Time) (domain.DeviationResult, error) {
	if err := validatePosition(lat, lng); err != nil {
		return domain.DeviationResult{}, fmt.Errorf("service.Tracker.Report: %w", err)
	}
	if at.IsZero() {
		at = t.clock.Now()
	}
	at = at.UTC()

	unlock := t.locks.Lock(tripID)
	defer unlock()

	trip, err := t.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.DeviationResult{}, fmt.Errorf("service.Tracker.Report: %w", err)
	}
	if trip.Status != domain.TripInProgress {
		return domain.DeviationResult{}, fmt.Errorf("service.Tracker.Report: trip %d is %s: %w", tripID, trip.Status, domain.ErrTripNotActive)
	}
	rs, err := loadRoster(ctx, t.groups, trip)
	if err != nil {
		return domain.DeviationResult{}, fmt.Errorf("service.Tracker.Report: %w", err)
	}
	if err := rs.authorizeView(userID); err != nil {
		return domain.DeviationResult{}, fmt.Errorf("service.Tracker.Report: %w", err)
	}
	items, err := t.items.ListByTrip(ctx, tripID)
	if err != nil {
		return domain.DeviationResult{}, fmt.Errorf("service.Tracker.Report: %w", err)
	}

	dist, onRoute := geo.DistanceToRoute(geo.Point{Lat: lat, Lng: lng}, PlannedRoute(trip, items))
	outside := onRoute && dist > t.cfg.ThresholdMeters

	res, fresh := t.step(leg{tripID: tripID, userID: userID}, at, outside)
	res.DistanceMeters = dist
	if !fresh {
		t.log.Debug("stale position report ignored", "trip_id", tripID, "user_id", userID, "reported_at", at)
		return res, nil
	}

	report := domain.PositionReport{TripID: tripID, UserID: userID, Lat: lat, Lng: lng, ReportedAt: at}
	if err := t.positions.Put(ctx, report); err != nil {
		// The store only backs the latest-position view; tracking goes on.
		t.log.Warn("store latest position", "trip_id", tripID, "user_id", userID, "error", err)
	}

	if res.Raised {
		metrics.RouteDeviations.Inc()
		t.log.Info("route deviation raised", "trip_id", tripID, "user_id", userID, "distance_m", dist)
		t.notifier.Deviation(domain.RouteDeviation(tripID, userID, dist), rs.recipients(), userID)
	}
	t.notifier.Position(domain.PositionUpdated(report), rs.recipients(), userID)
	return res, nil
}

// Latest returns the most recent sample of every traveller on the trip.
func (t *Tracker) Latest(ctx context.Context, tripID, viewerID int64) ([]domain.PositionReport, error) {
	trip, err := t.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.Tracker.Latest: %w", err)
	}
	rs, err := loadRoster(ctx, t.groups, trip)
	if err != nil {
		return nil, fmt.Errorf("service.Tracker.Latest: %w", err)
	}
	if err := rs.authorizeView(viewerID); err != nil {
		return nil, fmt.Errorf("service.Tracker.Latest: %w", err)
	}
	reports, err := t.positions.Latest(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.Tracker.Latest: %w", err)
	}
	if reports == nil {
		return []domain.PositionReport{}, nil
	}
	return reports, nil
}

// Forget drops the deviation state and stored positions of a trip.
// The Coordinator calls it when the trip ends.
func (t *Tracker) Forget(ctx context.Context, tripID int64) {
	t.mu.Lock()
	for k := range t.legs {
		if k.tripID == tripID {
			delete(t.legs, k)
		}
	}
	t.mu.Unlock()

	if err := t.positions.Forget(ctx, tripID); err != nil {
		t.log.Warn("forget trip positions", "trip_id", tripID, "error", err)
	}
}

// Legs returns the number of (trip, user) pairs with deviation state.
func (t *Tracker) Legs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.legs)
}

// step advances the hysteresis state of one leg. fresh is false when the
// sample is older than the last accepted one.
func (t *Tracker) step(k leg, at time.Time, outside bool) (res domain.DeviationResult, fresh bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.legs[k]
	if !ok {
		st = &legState{}
		t.legs[k] = st
	}
	if !st.last.IsZero() && at.Before(st.last) {
		return domain.DeviationResult{Deviated: st.inDeviation}, false
	}
	st.last = at

	if !outside {
		st.inDeviation = false
		st.outSince = time.Time{}
		return domain.DeviationResult{}, true
	}
	if st.outSince.IsZero() {
		st.outSince = at
	}
	if !st.inDeviation && at.Sub(st.outSince) >= t.cfg.Sustain {
		st.inDeviation = true
		res.Raised = true
	}
	res.Deviated = st.inDeviation
	return res, true
}

// PlannedRoute returns the waypoints of a trip: its start, the from and to
// locations of each itinerary item in (day, start time) order, then its end.
// Consecutive duplicates are collapsed.
func PlannedRoute(trip domain.Trip, items []domain.ItineraryItem) []geo.Point {
	var route []geo.Point
	add := func(loc *domain.Location) {
		if loc == nil {
			return
		}
		p := geo.Point{Lat: loc.Lat, Lng: loc.Lng}
		if n := len(route); n > 0 && route[n-1] == p {
			return
		}
		route = append(route, p)
	}

	add(trip.StartLocation)
	for _, it := range sortedItems(items) {
		add(it.From)
		add(it.To)
	}
	add(trip.EndLocation)
	return route
}
