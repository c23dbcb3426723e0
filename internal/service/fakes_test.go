package service_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/desaismitha/Shered-sub002/internal/clock"
	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/repo"
	"github.com/desaismitha/Shered-sub002/internal/service"
)

// ---- in-memory repos ---------------------------------------------------------
//
// The engine tests need state that survives across calls (check-ins feed the
// aggregate, statuses are compare-and-set), so these doubles are map-backed
// rather than function-field mocks.

type memTripRepo struct {
	mu     sync.Mutex
	trips  map[int64]domain.Trip
	nextID int64

	// getErr, when set, is returned by GetByID.
	getErr error
	// beforeUpdate, when set, runs at the start of UpdateStatus.
	beforeUpdate func(id int64)
}

func newMemTripRepo(trips ...domain.Trip) *memTripRepo {
	r := &memTripRepo{trips: make(map[int64]domain.Trip)}
	for _, t := range trips {
		r.trips[t.ID] = t
		if t.ID > r.nextID {
			r.nextID = t.ID
		}
	}
	return r
}

func (r *memTripRepo) Create(_ context.Context, trip domain.Trip) (domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	trip.ID = r.nextID
	if trip.Status == "" {
		trip.Status = domain.TripPlanning
	}
	r.trips[trip.ID] = trip
	return trip, nil
}

func (r *memTripRepo) GetByID(_ context.Context, id int64) (domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return domain.Trip{}, r.getErr
	}
	t, ok := r.trips[id]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	return t, nil
}

func (r *memTripRepo) UpdateStatus(_ context.Context, id int64, from, to domain.TripStatus) (domain.Trip, error) {
	if r.beforeUpdate != nil {
		r.beforeUpdate(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trips[id]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	if t.Status != from {
		return domain.Trip{}, domain.ErrConflict
	}
	t.Status = to
	r.trips[id] = t
	return t, nil
}

// setStatus changes a stored trip behind the services' back.
func (r *memTripRepo) setStatus(id int64, s domain.TripStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.trips[id]
	t.Status = s
	r.trips[id] = t
}

func (r *memTripRepo) status(id int64) domain.TripStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trips[id].Status
}

var _ repo.TripRepo = (*memTripRepo)(nil)

type memGroupRepo struct {
	mu      sync.Mutex
	members map[int64][]domain.Member
	nextID  int64
}

func newMemGroupRepo() *memGroupRepo {
	return &memGroupRepo{members: make(map[int64][]domain.Member)}
}

func (r *memGroupRepo) Create(_ context.Context, _ string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.members[r.nextID] = nil
	return r.nextID, nil
}

func (r *memGroupRepo) AddMember(_ context.Context, m domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.Role == "" {
		m.Role = domain.RoleMember
	}
	list := r.members[m.GroupID]
	for i := range list {
		if list[i].UserID == m.UserID {
			list[i].Role = m.Role
			return nil
		}
	}
	list = append(list, m)
	sort.Slice(list, func(i, j int) bool { return list[i].UserID < list[j].UserID })
	r.members[m.GroupID] = list
	return nil
}

func (r *memGroupRepo) ListMembers(_ context.Context, groupID int64) ([]domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Member(nil), r.members[groupID]...), nil
}

var _ repo.GroupRepo = (*memGroupRepo)(nil)

type memCheckInRepo struct {
	mu   sync.Mutex
	rows map[[2]int64]domain.CheckIn
}

func newMemCheckInRepo() *memCheckInRepo {
	return &memCheckInRepo{rows: make(map[[2]int64]domain.CheckIn)}
}

func (r *memCheckInRepo) Upsert(_ context.Context, c domain.CheckIn) (domain.CheckIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[[2]int64{c.TripID, c.UserID}] = c
	return c, nil
}

func (r *memCheckInRepo) ListByTrip(_ context.Context, tripID int64) ([]domain.CheckIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CheckIn
	for k, c := range r.rows {
		if k[0] == tripID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *memCheckInRepo) count(tripID int64) int {
	rows, _ := r.ListByTrip(context.Background(), tripID)
	return len(rows)
}

var _ repo.CheckInRepo = (*memCheckInRepo)(nil)

type memItineraryRepo struct {
	mu    sync.Mutex
	items []domain.ItineraryItem
}

func (r *memItineraryRepo) Create(_ context.Context, it domain.ItineraryItem) (domain.ItineraryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it.ID = int64(len(r.items) + 1)
	r.items = append(r.items, it)
	return it, nil
}

func (r *memItineraryRepo) ListByTrip(_ context.Context, tripID int64) ([]domain.ItineraryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ItineraryItem
	for _, it := range r.items {
		if it.TripID == tripID {
			out = append(out, it)
		}
	}
	return out, nil
}

var _ repo.ItineraryRepo = (*memItineraryRepo)(nil)

type memAssignmentRepo struct {
	mu   sync.Mutex
	rows []domain.DriverAssignment
}

func (r *memAssignmentRepo) Create(_ context.Context, a domain.DriverAssignment) (domain.DriverAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = int64(len(r.rows) + 1)
	if a.Status == "" {
		a.Status = domain.AssignmentScheduled
	}
	r.rows = append(r.rows, a)
	return a, nil
}

func (r *memAssignmentRepo) ListByTrip(_ context.Context, tripID int64) ([]domain.DriverAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DriverAssignment
	for _, a := range r.rows {
		if a.TripID == tripID {
			out = append(out, a)
		}
	}
	return out, nil
}

var _ repo.AssignmentRepo = (*memAssignmentRepo)(nil)

// ---- other doubles -----------------------------------------------------------

// delivery is one fan-out call seen by recordingNotifier.
type delivery struct {
	ev         domain.Event
	recipients []int64
	reporter   int64
}

type recordingNotifier struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (n *recordingNotifier) record(ev domain.Event, roster []int64, reporter int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = append(n.deliveries, delivery{ev: ev, recipients: append([]int64(nil), roster...), reporter: reporter})
}

func (n *recordingNotifier) Lifecycle(ev domain.Event, roster []int64) { n.record(ev, roster, 0) }
func (n *recordingNotifier) CheckIn(ev domain.Event, roster []int64)   { n.record(ev, roster, 0) }
func (n *recordingNotifier) Deviation(ev domain.Event, roster []int64, reporter int64) {
	n.record(ev, roster, reporter)
}
func (n *recordingNotifier) Position(ev domain.Event, roster []int64, reporter int64) {
	n.record(ev, roster, reporter)
}

// ofType returns the recorded deliveries of one event type, in order.
func (n *recordingNotifier) ofType(t domain.EventType) []delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []delivery
	for _, d := range n.deliveries {
		if d.ev.Type == t {
			out = append(out, d)
		}
	}
	return out
}

var _ service.Notifier = (*recordingNotifier)(nil)

type memPositions struct {
	mu      sync.Mutex
	latest  map[int64]map[int64]domain.PositionReport
	forgets []int64
}

func newMemPositions() *memPositions {
	return &memPositions{latest: make(map[int64]map[int64]domain.PositionReport)}
}

func (p *memPositions) Put(_ context.Context, r domain.PositionReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest[r.TripID] == nil {
		p.latest[r.TripID] = make(map[int64]domain.PositionReport)
	}
	p.latest[r.TripID][r.UserID] = r
	return nil
}

func (p *memPositions) Latest(_ context.Context, tripID int64) ([]domain.PositionReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.PositionReport
	for _, r := range p.latest[tripID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (p *memPositions) Forget(_ context.Context, tripID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.latest, tripID)
	p.forgets = append(p.forgets, tripID)
	return nil
}

var _ service.PositionStore = (*memPositions)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---- fixtures ----------------------------------------------------------------

var (
	tripStart = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) // a Monday
	tripEnd   = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	seattle   = domain.Location{Lat: 47.6062, Lng: -122.3321, Label: "Seattle"}
	portland  = domain.Location{Lat: 45.5152, Lng: -122.6784, Label: "Portland"}
)

const ownerID = int64(1)

// groupTrip returns trip 10 in planning, owned by ownerID, attached to group 100.
func groupTrip() domain.Trip {
	gid := int64(100)
	start, end := seattle, portland
	return domain.Trip{
		ID:            10,
		Name:          "Lake Weekend",
		OwnerID:       ownerID,
		GroupID:       &gid,
		Status:        domain.TripPlanning,
		StartDate:     tripStart,
		EndDate:       tripEnd,
		StartLocation: &start,
		EndLocation:   &end,
	}
}

// engine wires every engine service to shared in-memory state.
type engine struct {
	trips     *memTripRepo
	groups    *memGroupRepo
	checkIns  *memCheckInRepo
	items     *memItineraryRepo
	positions *memPositions
	notifier  *recordingNotifier
	locks     *service.TripLocks
	clk       *clock.Fake

	tracker *service.Tracker
	coord   *service.Coordinator
	checkIn *service.CheckInService
}

func newEngine(trip domain.Trip, members ...domain.Member) *engine {
	e := &engine{
		trips:     newMemTripRepo(trip),
		groups:    newMemGroupRepo(),
		checkIns:  newMemCheckInRepo(),
		items:     &memItineraryRepo{},
		positions: newMemPositions(),
		notifier:  &recordingNotifier{},
		locks:     service.NewTripLocks(),
		clk:       clock.NewFake(tripStart.Add(8 * time.Hour)),
	}
	for _, m := range members {
		if trip.GroupID != nil {
			m.GroupID = *trip.GroupID
		}
		_ = e.groups.AddMember(context.Background(), m)
	}
	log := discardLogger()
	e.tracker = service.NewTracker(e.trips, e.groups, e.items, e.positions, e.notifier, e.locks, e.clk,
		service.TrackerConfig{ThresholdMeters: 200, Sustain: 30 * time.Second}, log)
	e.coord = service.NewCoordinator(e.trips, e.groups, e.checkIns, e.notifier, e.locks, log, e.tracker)
	e.checkIn = service.NewCheckInService(e.trips, e.groups, e.checkIns, e.coord, e.notifier, e.clk, 250, log)
	return e
}
