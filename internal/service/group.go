package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/repo"
)

// GroupService manages the rosters that trips aggregate over.
type GroupService struct {
	groups repo.GroupRepo
}

// NewGroupService constructs a GroupService backed by the provided repo.
func NewGroupService(groups repo.GroupRepo) *GroupService {
	return &GroupService{groups: groups}
}

// Create makes a new group with its creator as the first admin.
func (s *GroupService) Create(ctx context.Context, name string, creatorID int64) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	id, err := s.groups.Create(ctx, strings.TrimSpace(name))
	if err != nil {
		return 0, fmt.Errorf("service.GroupService.Create: %w", err)
	}
	if err := s.groups.AddMember(ctx, domain.Member{GroupID: id, UserID: creatorID, Role: domain.RoleAdmin}); err != nil {
		return 0, fmt.Errorf("service.GroupService.Create: %w", err)
	}
	return id, nil
}

// AddMember adds m to its group. Only group admins may change a roster.
func (s *GroupService) AddMember(ctx context.Context, actorID int64, m domain.Member) error {
	switch m.Role {
	case "", domain.RoleMember, domain.RoleAdmin:
	default:
		return fmt.Errorf("%w: unknown role %q", domain.ErrValidation, m.Role)
	}
	members, err := s.groups.ListMembers(ctx, m.GroupID)
	if err != nil {
		return fmt.Errorf("service.GroupService.AddMember: %w", err)
	}
	if len(members) == 0 {
		return fmt.Errorf("service.GroupService.AddMember: group %d: %w", m.GroupID, domain.ErrNotFound)
	}
	if !isAdmin(members, actorID) {
		return fmt.Errorf("service.GroupService.AddMember: user %d: %w", actorID, domain.ErrForbidden)
	}
	if err := s.groups.AddMember(ctx, m); err != nil {
		return fmt.Errorf("service.GroupService.AddMember: %w", err)
	}
	return nil
}

// Members returns the roster of a group to one of its members.
func (s *GroupService) Members(ctx context.Context, groupID, viewerID int64) ([]domain.Member, error) {
	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("service.GroupService.Members: %w", err)
	}
	for _, m := range members {
		if m.UserID == viewerID {
			return members, nil
		}
	}
	return nil, fmt.Errorf("service.GroupService.Members: user %d: %w", viewerID, domain.ErrNotAMember)
}

func isAdmin(members []domain.Member, userID int64) bool {
	for _, m := range members {
		if m.UserID == userID && m.Role == domain.RoleAdmin {
			return true
		}
	}
	return false
}
