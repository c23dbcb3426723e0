// Package notify fans engine events out to live sessions.
//
// Delivery is best effort: the Sender enqueues without blocking, offline
// users are skipped, and nothing is retried. Events for one trip are numbered
// and handed to recipients in order; events for different trips do not
// contend with each other.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/metrics"
)

// Sender delivers one event to one user without blocking.
// *live.Registry satisfies it.
type Sender interface {
	Send(userID int64, ev domain.Event) bool
}

// Mirror receives a copy of every dispatched event for consumers outside
// this process, e.g. a message broker.
type Mirror interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// tripStream is the per-trip bookkeeping: a sequence counter and the lock
// that keeps numbering and fan-out for one trip in step.
type tripStream struct {
	mu  sync.Mutex
	seq uint64
}

// Dispatcher routes events to the roster of the trip they belong to.
type Dispatcher struct {
	sender         Sender
	log            *slog.Logger
	notifyReporter bool
	mirror         Mirror
	mirrorQ        chan domain.Event
	streamsMu      sync.Mutex
	streams        map[int64]*tripStream
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMirror copies every dispatched event except position pings to m
// through a buffer of the given size. When the buffer is full the mirror copy is dropped; fan-out to
// live sessions is never held up by the mirror.
func WithMirror(m Mirror, buffer int) Option {
	return func(d *Dispatcher) {
		d.mirror = m
		d.mirrorQ = make(chan domain.Event, buffer)
	}
}

// NotifyReporter controls whether route deviation alerts are also sent to
// the user whose report triggered them. Off by default.
func NotifyReporter(on bool) Option {
	return func(d *Dispatcher) { d.notifyReporter = on }
}

// New constructs a Dispatcher delivering through sender.
func New(sender Sender, log *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:  sender,
		log:     log,
		streams: make(map[int64]*tripStream),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Lifecycle sends a lifecycle-changed event to every roster member.
// A transition into a terminal status is the trip's final event: the
// dispatcher forgets the trip once it has been delivered.
func (d *Dispatcher) Lifecycle(ev domain.Event, roster []int64) {
	d.dispatch(ev, roster, 0)
}

// CheckIn sends a check-in-updated event to every roster member.
func (d *Dispatcher) CheckIn(ev domain.Event, roster []int64) {
	d.dispatch(ev, roster, 0)
}

// Deviation sends a route-deviation event to the roster, skipping the
// reporting user unless NotifyReporter is on.
func (d *Dispatcher) Deviation(ev domain.Event, roster []int64, reporter int64) {
	if d.notifyReporter {
		reporter = 0
	}
	d.dispatch(ev, roster, reporter)
}

// Position sends a position ping to everyone on the roster but the reporter.
func (d *Dispatcher) Position(ev domain.Event, roster []int64, reporter int64) {
	d.dispatch(ev, roster, reporter)
}

// ActiveTrips returns the number of trips with live bookkeeping.
func (d *Dispatcher) ActiveTrips() int {
	d.streamsMu.Lock()
	defer d.streamsMu.Unlock()
	return len(d.streams)
}

// Run drains the mirror buffer until ctx is cancelled. It returns
// immediately when no mirror is configured.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.mirror == nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-d.mirrorQ:
			if err := d.mirror.Publish(ctx, ev); err != nil {
				d.log.Warn("event mirror publish failed", "type", ev.Type, "trip_id", ev.TripID, "error", err)
			}
		}
	}
}

func (d *Dispatcher) dispatch(ev domain.Event, recipients []int64, exclude int64) {
	s := d.stream(ev.TripID)
	s.mu.Lock()
	s.seq++
	ev.Seq = s.seq

	seen := make(map[int64]struct{}, len(recipients))
	for _, uid := range recipients {
		if uid == exclude {
			continue
		}
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		if d.sender.Send(uid, ev) {
			metrics.EventsDispatched.WithLabelValues(string(ev.Type)).Inc()
		}
	}
	s.mu.Unlock()

	d.mirrorCopy(ev)

	if ev.Ends() {
		d.streamsMu.Lock()
		delete(d.streams, ev.TripID)
		d.streamsMu.Unlock()
		d.log.Debug("trip ended, dispatcher state released", "trip_id", ev.TripID)
	}
}

func (d *Dispatcher) stream(tripID int64) *tripStream {
	d.streamsMu.Lock()
	defer d.streamsMu.Unlock()
	s, ok := d.streams[tripID]
	if !ok {
		s = &tripStream{}
		d.streams[tripID] = s
	}
	return s
}

func (d *Dispatcher) mirrorCopy(ev domain.Event) {
	if d.mirrorQ == nil || ev.Droppable() {
		return
	}
	select {
	case d.mirrorQ <- ev:
	default:
		d.log.Warn("event mirror buffer full, dropping copy", "type", ev.Type, "trip_id", ev.TripID)
	}
}
