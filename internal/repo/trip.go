// Package repo contains all database access logic for the trip coordination
// engine. Each resource has its own file with an interface and a Postgres
// implementation. No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/desaismitha/Shered-sub002/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a fake.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with DB-generated
	// id, status, created_at, and updated_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.Trip, error)

	// UpdateStatus moves a trip from one status to another as a single
	// compare-and-set. Returns domain.ErrNotFound if the trip does not exist
	// and domain.ErrConflict if its stored status is no longer from.
	UpdateStatus(ctx context.Context, id int64, from, to domain.TripStatus) (domain.Trip, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, name, owner_id, group_id, status, start_date, end_date,
		start_lat, start_lng, start_label, end_lat, end_lng, end_label,
		created_at, updated_at`

// Create inserts a new trip row and returns the full persisted record.
// A zero Status is stored as planning.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	q := `
		INSERT INTO trips (name, owner_id, group_id, status, start_date, end_date,
		                   start_lat, start_lng, start_label, end_lat, end_lng, end_label)
		VALUES (@name, @owner_id, @group_id, @status, @start_date, @end_date,
		        @start_lat, @start_lng, @start_label, @end_lat, @end_lng, @end_label)
		RETURNING ` + tripColumns

	status := trip.Status
	if status == "" {
		status = domain.TripPlanning
	}
	args := pgx.NamedArgs{
		"name":       trip.Name,
		"owner_id":   trip.OwnerID,
		"group_id":   trip.GroupID, // nil becomes NULL
		"status":     string(status),
		"start_date": trip.StartDate,
		"end_date":   trip.EndDate,
	}
	bindLocation(args, "start", trip.StartLocation)
	bindLocation(args, "end", trip.EndLocation)

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// UpdateStatus performs the compare-and-set. When no row matches, a second
// lookup tells a missing trip apart from a status that moved underneath us.
func (r *pgTripRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.TripStatus) (domain.Trip, error) {
	q := `
		UPDATE trips
		SET status     = @to,
		    updated_at = now()
		WHERE id = @id AND status = @from
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{"id": id, "from": string(from), "to": string(to)}
	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.UpdateStatus: %w", err)
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.UpdateStatus: %w", getErr)
	}
	return domain.Trip{}, fmt.Errorf("repo.TripRepo.UpdateStatus: trip %d is no longer %s: %w", id, from, domain.ErrConflict)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the nullable group and location columns.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t          domain.Trip
		status     string
		startDate  pgtype.Date
		endDate    pgtype.Date
		start, end nullableLocation
	)

	err := s.Scan(&t.ID, &t.Name, &t.OwnerID, &t.GroupID, &status, &startDate, &endDate,
		&start.lat, &start.lng, &start.label, &end.lat, &end.lng, &end.label,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.Status = domain.TripStatus(status)
	t.StartDate = startDate.Time
	t.EndDate = endDate.Time
	t.StartLocation = start.toDomain()
	t.EndLocation = end.toDomain()
	return t, nil
}

// nullableLocation holds the three nullable columns that encode an optional
// domain.Location. Both coordinates must be present for the location to exist.
type nullableLocation struct {
	lat, lng *float64
	label    *string
}

func (n nullableLocation) toDomain() *domain.Location {
	if n.lat == nil || n.lng == nil {
		return nil
	}
	loc := &domain.Location{Lat: *n.lat, Lng: *n.lng}
	if n.label != nil {
		loc.Label = *n.label
	}
	return loc
}

// bindLocation adds <prefix>_lat, <prefix>_lng and <prefix>_label to args,
// binding NULLs when loc is nil.
func bindLocation(args pgx.NamedArgs, prefix string, loc *domain.Location) {
	if loc == nil {
		args[prefix+"_lat"] = nil
		args[prefix+"_lng"] = nil
		args[prefix+"_label"] = nil
		return
	}
	args[prefix+"_lat"] = loc.Lat
	args[prefix+"_lng"] = loc.Lng
	args[prefix+"_label"] = loc.Label
}
