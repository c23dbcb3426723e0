package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/desaismitha/Shered-sub002/internal/domain"
)

// CheckInRepo defines the persistence operations for check-ins.
type CheckInRepo interface {
	// Upsert stores c as the latest check-in for (c.TripID, c.UserID),
	// replacing any previous one, and returns the stored row.
	Upsert(ctx context.Context, c domain.CheckIn) (domain.CheckIn, error)

	// ListByTrip returns every stored check-in of a trip ordered by user id.
	ListByTrip(ctx context.Context, tripID int64) ([]domain.CheckIn, error)
}

// pgCheckInRepo is the Postgres implementation of CheckInRepo.
type pgCheckInRepo struct {
	db db
}

// NewCheckInRepo constructs a CheckInRepo backed by the provided db connection.
func NewCheckInRepo(db db) CheckInRepo {
	return &pgCheckInRepo{db: db}
}

const checkInColumns = `trip_id, user_id, status, notes, lat, lng, location_verified, checked_in_at`

// Upsert relies on the (trip_id, user_id) primary key so that two
// submissions can never leave two rows behind.
func (r *pgCheckInRepo) Upsert(ctx context.Context, c domain.CheckIn) (domain.CheckIn, error) {
	q := `
		INSERT INTO check_ins (trip_id, user_id, status, notes, lat, lng, location_verified, checked_in_at)
		VALUES (@trip_id, @user_id, @status, @notes, @lat, @lng, @location_verified, @checked_in_at)
		ON CONFLICT (trip_id, user_id) DO UPDATE
		SET status            = EXCLUDED.status,
		    notes             = EXCLUDED.notes,
		    lat               = EXCLUDED.lat,
		    lng               = EXCLUDED.lng,
		    location_verified = EXCLUDED.location_verified,
		    checked_in_at     = EXCLUDED.checked_in_at
		RETURNING ` + checkInColumns

	args := pgx.NamedArgs{
		"trip_id":           c.TripID,
		"user_id":           c.UserID,
		"status":            string(c.Status),
		"notes":             c.Notes,
		"lat":               nil,
		"lng":               nil,
		"location_verified": c.LocationVerified,
		"checked_in_at":     c.CheckedInAt,
	}
	if c.Position != nil {
		args["lat"] = c.Position.Lat
		args["lng"] = c.Position.Lng
	}

	result, err := scanCheckIn(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.CheckIn{}, fmt.Errorf("repo.CheckInRepo.Upsert: %w", err)
	}
	return result, nil
}

func (r *pgCheckInRepo) ListByTrip(ctx context.Context, tripID int64) ([]domain.CheckIn, error) {
	q := `SELECT ` + checkInColumns + ` FROM check_ins WHERE trip_id = @trip_id ORDER BY user_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.CheckInRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var out []domain.CheckIn
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.CheckInRepo.ListByTrip: scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.CheckInRepo.ListByTrip: rows: %w", err)
	}
	return out, nil
}

func scanCheckIn(s scanner) (domain.CheckIn, error) {
	var (
		c        domain.CheckIn
		status   string
		lat, lng *float64
	)
	err := s.Scan(&c.TripID, &c.UserID, &status, &c.Notes, &lat, &lng, &c.LocationVerified, &c.CheckedInAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CheckIn{}, domain.ErrNotFound
		}
		return domain.CheckIn{}, err
	}
	c.Status = domain.CheckInStatus(status)
	if lat != nil && lng != nil {
		c.Position = &domain.Position{Lat: *lat, Lng: *lng}
	}
	return c, nil
}
