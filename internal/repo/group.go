package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/desaismitha/Shered-sub002/internal/domain"
)

// GroupRepo defines the persistence operations for groups and their rosters.
type GroupRepo interface {
	// Create inserts a new group and returns its id.
	Create(ctx context.Context, name string) (int64, error)

	// AddMember adds a user to a group, or updates their role if they are
	// already a member.
	AddMember(ctx context.Context, m domain.Member) error

	// ListMembers returns the roster of a group ordered by user id.
	// An unknown group yields an empty roster, not an error.
	ListMembers(ctx context.Context, groupID int64) ([]domain.Member, error)
}

// pgGroupRepo is the Postgres implementation of GroupRepo.
type pgGroupRepo struct {
	db db
}

// NewGroupRepo constructs a GroupRepo backed by the provided db connection.
func NewGroupRepo(db db) GroupRepo {
	return &pgGroupRepo{db: db}
}

func (r *pgGroupRepo) Create(ctx context.Context, name string) (int64, error) {
	const q = `INSERT INTO groups (name) VALUES (@name) RETURNING id`

	var id int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name}).Scan(&id); err != nil {
		return 0, fmt.Errorf("repo.GroupRepo.Create: %w", err)
	}
	return id, nil
}

func (r *pgGroupRepo) AddMember(ctx context.Context, m domain.Member) error {
	const q = `
		INSERT INTO group_members (group_id, user_id, role)
		VALUES (@group_id, @user_id, @role)
		ON CONFLICT (group_id, user_id) DO UPDATE SET role = EXCLUDED.role`

	role := m.Role
	if role == "" {
		role = domain.RoleMember
	}
	args := pgx.NamedArgs{"group_id": m.GroupID, "user_id": m.UserID, "role": string(role)}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.GroupRepo.AddMember: %w", err)
	}
	return nil
}

func (r *pgGroupRepo) ListMembers(ctx context.Context, groupID int64) ([]domain.Member, error) {
	const q = `
		SELECT group_id, user_id, role
		FROM group_members
		WHERE group_id = @group_id
		ORDER BY user_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"group_id": groupID})
	if err != nil {
		return nil, fmt.Errorf("repo.GroupRepo.ListMembers: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var (
			m    domain.Member
			role string
		)
		if err := rows.Scan(&m.GroupID, &m.UserID, &role); err != nil {
			return nil, fmt.Errorf("repo.GroupRepo.ListMembers: scan: %w", err)
		}
		m.Role = domain.MemberRole(role)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.GroupRepo.ListMembers: rows: %w", err)
	}
	return members, nil
}
