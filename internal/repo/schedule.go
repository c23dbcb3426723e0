package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/desaismitha/Shered-sub002/internal/domain"
)

// ItineraryRepo defines the persistence operations for itinerary items.
type ItineraryRepo interface {
	// Create inserts a new item and returns the persisted record.
	Create(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)

	// ListByTrip returns all items of a trip ordered by day index, then start
	// time, then id.
	ListByTrip(ctx context.Context, tripID int64) ([]domain.ItineraryItem, error)
}

// AssignmentRepo defines the persistence operations for driver assignments.
type AssignmentRepo interface {
	// Create inserts a new assignment and returns the persisted record.
	Create(ctx context.Context, a domain.DriverAssignment) (domain.DriverAssignment, error)

	// ListByTrip returns all assignments of a trip ordered by start date, then id.
	ListByTrip(ctx context.Context, tripID int64) ([]domain.DriverAssignment, error)
}

type pgItineraryRepo struct {
	db db
}

// NewItineraryRepo constructs an ItineraryRepo backed by the provided db connection.
func NewItineraryRepo(db db) ItineraryRepo {
	return &pgItineraryRepo{db: db}
}

const itineraryColumns = `id, trip_id, title, day_index, start_time, end_time,
		from_lat, from_lng, from_label, to_lat, to_lng, to_label,
		recurrence_kind, recurrence_days, created_at, updated_at`

func (r *pgItineraryRepo) Create(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	q := `
		INSERT INTO itinerary_items (trip_id, title, day_index, start_time, end_time,
		                             from_lat, from_lng, from_label, to_lat, to_lng, to_label,
		                             recurrence_kind, recurrence_days)
		VALUES (@trip_id, @title, @day_index, @start_time, @end_time,
		        @from_lat, @from_lng, @from_label, @to_lat, @to_lng, @to_label,
		        @recurrence_kind, @recurrence_days)
		RETURNING ` + itineraryColumns

	args := pgx.NamedArgs{
		"trip_id":         item.TripID,
		"title":           item.Title,
		"day_index":       item.DayIndex,
		"start_time":      item.StartTime,
		"end_time":        item.EndTime,
		"recurrence_kind": recurrenceKind(item.Recurrence),
		"recurrence_days": recurrenceDays(item.Recurrence),
	}
	bindLocation(args, "from", item.From)
	bindLocation(args, "to", item.To)

	result, err := scanItineraryItem(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgItineraryRepo) ListByTrip(ctx context.Context, tripID int64) ([]domain.ItineraryItem, error) {
	q := `SELECT ` + itineraryColumns + `
		FROM itinerary_items
		WHERE trip_id = @trip_id
		ORDER BY day_index, start_time, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var items []domain.ItineraryItem
	for rows.Next() {
		item, err := scanItineraryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ItineraryRepo.ListByTrip: scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ItineraryRepo.ListByTrip: rows: %w", err)
	}
	return items, nil
}

func scanItineraryItem(s scanner) (domain.ItineraryItem, error) {
	var (
		it       domain.ItineraryItem
		from, to nullableLocation
		kind     string
	)
	err := s.Scan(&it.ID, &it.TripID, &it.Title, &it.DayIndex, &it.StartTime, &it.EndTime,
		&from.lat, &from.lng, &from.label, &to.lat, &to.lng, &to.label,
		&kind, &it.Recurrence.Days, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ItineraryItem{}, domain.ErrNotFound
		}
		return domain.ItineraryItem{}, err
	}
	it.From = from.toDomain()
	it.To = to.toDomain()
	it.Recurrence.Kind = domain.RecurrenceKind(kind)
	return it, nil
}

type pgAssignmentRepo struct {
	db db
}

// NewAssignmentRepo constructs an AssignmentRepo backed by the provided db connection.
func NewAssignmentRepo(db db) AssignmentRepo {
	return &pgAssignmentRepo{db: db}
}

const assignmentColumns = `id, trip_id, driver_id, vehicle_id, start_date, end_date,
		recurrence_kind, recurrence_days, status, created_at, updated_at`

func (r *pgAssignmentRepo) Create(ctx context.Context, a domain.DriverAssignment) (domain.DriverAssignment, error) {
	q := `
		INSERT INTO driver_assignments (trip_id, driver_id, vehicle_id, start_date, end_date,
		                                recurrence_kind, recurrence_days, status)
		VALUES (@trip_id, @driver_id, @vehicle_id, @start_date, @end_date,
		        @recurrence_kind, @recurrence_days, @status)
		RETURNING ` + assignmentColumns

	status := a.Status
	if status == "" {
		status = domain.AssignmentScheduled
	}
	args := pgx.NamedArgs{
		"trip_id":         a.TripID,
		"driver_id":       a.DriverID,
		"vehicle_id":      a.VehicleID,
		"start_date":      a.StartDate,
		"end_date":        a.EndDate,
		"recurrence_kind": recurrenceKind(a.Recurrence),
		"recurrence_days": recurrenceDays(a.Recurrence),
		"status":          string(status),
	}

	result, err := scanAssignment(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.DriverAssignment{}, fmt.Errorf("repo.AssignmentRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgAssignmentRepo) ListByTrip(ctx context.Context, tripID int64) ([]domain.DriverAssignment, error) {
	q := `SELECT ` + assignmentColumns + `
		FROM driver_assignments
		WHERE trip_id = @trip_id
		ORDER BY start_date, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.AssignmentRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var out []domain.DriverAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.AssignmentRepo.ListByTrip: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.AssignmentRepo.ListByTrip: rows: %w", err)
	}
	return out, nil
}

func scanAssignment(s scanner) (domain.DriverAssignment, error) {
	var (
		a                  domain.DriverAssignment
		startDate, endDate pgtype.Date
		kind, status       string
	)
	err := s.Scan(&a.ID, &a.TripID, &a.DriverID, &a.VehicleID, &startDate, &endDate,
		&kind, &a.Recurrence.Days, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DriverAssignment{}, domain.ErrNotFound
		}
		return domain.DriverAssignment{}, err
	}
	a.StartDate = startDate.Time
	a.EndDate = endDate.Time
	a.Recurrence.Kind = domain.RecurrenceKind(kind)
	a.Status = domain.AssignmentStatus(status)
	return a, nil
}

func recurrenceKind(p domain.RecurrencePattern) string {
	if p.Kind == "" {
		return string(domain.RecurNone)
	}
	return string(p.Kind)
}

// recurrenceDays never returns nil so the NOT NULL text[] column gets '{}'.
func recurrenceDays(p domain.RecurrencePattern) []string {
	if p.Days == nil {
		return []string{}
	}
	return p.Days
}
