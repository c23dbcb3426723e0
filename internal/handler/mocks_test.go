package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/handler"
	"github.com/desaismitha/Shered-sub002/internal/middleware"
)

// Each mock is a test double for one handler.*Servicer interface.
// Set only the method fields your test needs.

type mockTripServicer struct {
	create  func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID func(ctx context.Context, id, viewerID int64) (domain.Trip, error)
}

func (m *mockTripServicer) Create(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	return m.create(ctx, t)
}
func (m *mockTripServicer) GetByID(ctx context.Context, id, viewerID int64) (domain.Trip, error) {
	return m.getByID(ctx, id, viewerID)
}

type mockGroupServicer struct {
	create    func(ctx context.Context, name string, creatorID int64) (int64, error)
	addMember func(ctx context.Context, actorID int64, m domain.Member) error
	members   func(ctx context.Context, groupID, viewerID int64) ([]domain.Member, error)
}

func (m *mockGroupServicer) Create(ctx context.Context, name string, creatorID int64) (int64, error) {
	return m.create(ctx, name, creatorID)
}
func (m *mockGroupServicer) AddMember(ctx context.Context, actorID int64, mem domain.Member) error {
	return m.addMember(ctx, actorID, mem)
}
func (m *mockGroupServicer) Members(ctx context.Context, groupID, viewerID int64) ([]domain.Member, error) {
	return m.members(ctx, groupID, viewerID)
}

type mockCheckInServicer struct {
	submit      func(ctx context.Context, tripID, userID int64, status domain.CheckInStatus, notes string, pos *domain.Position) (domain.CheckIn, error)
	statusesFor func(ctx context.Context, tripID, viewerID int64) ([]domain.MemberStatus, error)
}

func (m *mockCheckInServicer) Submit(ctx context.Context, tripID, userID int64, status domain.CheckInStatus, notes string, pos *domain.Position) (domain.CheckIn, error) {
	return m.submit(ctx, tripID, userID, status, notes, pos)
}
func (m *mockCheckInServicer) StatusesFor(ctx context.Context, tripID, viewerID int64) ([]domain.MemberStatus, error) {
	return m.statusesFor(ctx, tripID, viewerID)
}

type mockLifecycleServicer struct {
	transition func(ctx context.Context, tripID, actorID int64, to domain.TripStatus) (domain.Trip, error)
}

func (m *mockLifecycleServicer) Transition(ctx context.Context, tripID, actorID int64, to domain.TripStatus) (domain.Trip, error) {
	return m.transition(ctx, tripID, actorID, to)
}

type mockTrackerServicer struct {
	report func(ctx context.Context, tripID, userID int64, lat, lng float64, at time.Time) (domain.DeviationResult, error)
	latest func(ctx context.Context, tripID, viewerID int64) ([]domain.PositionReport, error)
}

func (m *mockTrackerServicer) Report(ctx context.Context, tripID, userID int64, lat, lng float64, at time.Time) (domain.DeviationResult, error) {
	return m.report(ctx, tripID, userID, lat, lng, at)
}
func (m *mockTrackerServicer) Latest(ctx context.Context, tripID, viewerID int64) ([]domain.PositionReport, error) {
	return m.latest(ctx, tripID, viewerID)
}

type mockScheduleServicer struct {
	addItem       func(ctx context.Context, actorID int64, item domain.ItineraryItem) (domain.ItineraryItem, error)
	addAssignment func(ctx context.Context, actorID int64, a domain.DriverAssignment) (domain.DriverAssignment, error)
	dayFor        func(ctx context.Context, tripID, viewerID int64, date time.Time) (domain.DaySchedule, error)
}

func (m *mockScheduleServicer) AddItem(ctx context.Context, actorID int64, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	return m.addItem(ctx, actorID, item)
}
func (m *mockScheduleServicer) AddAssignment(ctx context.Context, actorID int64, a domain.DriverAssignment) (domain.DriverAssignment, error) {
	return m.addAssignment(ctx, actorID, a)
}
func (m *mockScheduleServicer) DayFor(ctx context.Context, tripID, viewerID int64, date time.Time) (domain.DaySchedule, error) {
	return m.dayFor(ctx, tripID, viewerID, date)
}

// compile-time checks: every mock must satisfy its handler interface.
var (
	_ handler.TripServicer      = (*mockTripServicer)(nil)
	_ handler.GroupServicer     = (*mockGroupServicer)(nil)
	_ handler.CheckInServicer   = (*mockCheckInServicer)(nil)
	_ handler.LifecycleServicer = (*mockLifecycleServicer)(nil)
	_ handler.TrackerServicer   = (*mockTrackerServicer)(nil)
	_ handler.ScheduleServicer  = (*mockScheduleServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

var testSecret = []byte("handler-test-secret")

const callerID int64 = 7

// newHTTPHandler wires a Server with the given services behind the real
// token middleware. This mirrors how main.go wires it in production.
func newHTTPHandler(svc handler.Services) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return handler.NewServer(svc, log, 8, nil).Routes(middleware.Authenticate(testSecret))
}

func bearer(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := middleware.IssueToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

// do sends an authenticated request as callerID.
func do(t *testing.T, h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", bearer(t, callerID))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func ptr[T any](v T) *T { return &v }
