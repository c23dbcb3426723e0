// Package handler implements the HTTP handlers for the trip coordination API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, checkin.go, etc.) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/live"
)

// TripServicer defines the trip operations the handlers depend on.
// Defining the interfaces here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id, viewerID int64) (domain.Trip, error)
}

// GroupServicer defines the roster operations.
type GroupServicer interface {
	Create(ctx context.Context, name string, creatorID int64) (int64, error)
	AddMember(ctx context.Context, actorID int64, m domain.Member) error
	Members(ctx context.Context, groupID, viewerID int64) ([]domain.Member, error)
}

// CheckInServicer defines the check-in operations.
type CheckInServicer interface {
	Submit(ctx context.Context, tripID, userID int64, status domain.CheckInStatus, notes string, pos *domain.Position) (domain.CheckIn, error)
	StatusesFor(ctx context.Context, tripID, viewerID int64) ([]domain.MemberStatus, error)
}

// LifecycleServicer applies explicit trip status transitions.
type LifecycleServicer interface {
	Transition(ctx context.Context, tripID, actorID int64, to domain.TripStatus) (domain.Trip, error)
}

// TrackerServicer accepts live positions.
type TrackerServicer interface {
	Report(ctx context.Context, tripID, userID int64, lat, lng float64, at time.Time) (domain.DeviationResult, error)
	Latest(ctx context.Context, tripID, viewerID int64) ([]domain.PositionReport, error)
}

// ScheduleServicer authors and queries trip schedules.
type ScheduleServicer interface {
	AddItem(ctx context.Context, actorID int64, item domain.ItineraryItem) (domain.ItineraryItem, error)
	AddAssignment(ctx context.Context, actorID int64, a domain.DriverAssignment) (domain.DriverAssignment, error)
	DayFor(ctx context.Context, tripID, viewerID int64, date time.Time) (domain.DaySchedule, error)
}

// SessionRegistry is where live websocket sessions are registered.
// *live.Registry satisfies it.
type SessionRegistry interface {
	Register(userID int64, h live.Handle)
	Release(userID int64, h live.Handle) bool
}

// Services bundles the dependencies of Server. Nil members are allowed in
// tests that do not exercise the matching endpoints.
type Services struct {
	Trips     TripServicer
	Groups    GroupServicer
	CheckIns  CheckInServicer
	Lifecycle LifecycleServicer
	Tracker   TrackerServicer
	Schedule  ScheduleServicer
	Sessions  SessionRegistry
}

// Server holds the handler dependencies.
type Server struct {
	svc       Services
	log       *slog.Logger
	queueSize int
	upgrader  websocket.Upgrader
}

// NewServer constructs the Server. queueSize bounds each live session's
// outbox; allowedOrigins is checked on websocket upgrades (empty allows any).
func NewServer(svc Services, log *slog.Logger, queueSize int, allowedOrigins []string) *Server {
	return &Server{
		svc:       svc,
		log:       log,
		queueSize: queueSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Routes registers every endpoint on a new chi router. authn guards all
// routes except /healthz and must put the caller's id in the request context
// (see middleware.Authenticate).
func (s *Server) Routes(authn func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)

	r.Group(func(r chi.Router) {
		r.Use(authn)

		r.Get("/ws", s.ServeLive)

		r.Post("/groups", s.CreateGroup)
		r.Get("/groups/{groupID}/members", s.ListMembers)
		r.Post("/groups/{groupID}/members", s.AddMember)

		r.Post("/trips", s.CreateTrip)
		r.Route("/trips/{tripID}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Post("/transitions", s.TransitionTrip)
			r.Post("/check-ins", s.SubmitCheckIn)
			r.Get("/check-ins", s.ListCheckIns)
			r.Post("/positions", s.ReportPosition)
			r.Get("/positions", s.LatestPositions)
			r.Post("/itinerary", s.AddItineraryItem)
			r.Post("/assignments", s.AddAssignment)
			r.Get("/schedule", s.GetSchedule)
		})
	})
	return r
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients do not send Origin.
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
