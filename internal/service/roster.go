package service

import (
	"context"
	"fmt"

	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/repo"
)

// Notifier is the fan-out surface the services publish through.
// *notify.Dispatcher satisfies it.
type Notifier interface {
	Lifecycle(ev domain.Event, roster []int64)
	CheckIn(ev domain.Event, roster []int64)
	Deviation(ev domain.Event, roster []int64, reporter int64)
	Position(ev domain.Event, roster []int64, reporter int64)
}

// roster is a trip together with the members of its group.
// members is empty when the trip has no group.
type roster struct {
	trip    domain.Trip
	members []domain.Member
}

func loadRoster(ctx context.Context, groups repo.GroupRepo, trip domain.Trip) (roster, error) {
	rs := roster{trip: trip}
	if trip.GroupID == nil {
		return rs, nil
	}
	members, err := groups.ListMembers(ctx, *trip.GroupID)
	if err != nil {
		return roster{}, fmt.Errorf("load roster: %w", err)
	}
	rs.members = members
	return rs, nil
}

// grouped reports whether the trip has a group and therefore a roster.
func (r roster) grouped() bool {
	return r.trip.GroupID != nil
}

func (r roster) member(userID int64) (domain.Member, bool) {
	for _, m := range r.members {
		if m.UserID == userID {
			return m, true
		}
	}
	return domain.Member{}, false
}

// authorize rejects users outside the roster of a grouped trip.
// Trips without a group are open to everyone.
func (r roster) authorize(userID int64) error {
	if !r.grouped() {
		return nil
	}
	if _, ok := r.member(userID); !ok {
		return fmt.Errorf("user %d on trip %d: %w", userID, r.trip.ID, domain.ErrNotAMember)
	}
	return nil
}

// authorizeView is authorize plus the owner, who may always read the trip.
func (r roster) authorizeView(userID int64) error {
	if userID == r.trip.OwnerID {
		return nil
	}
	return r.authorize(userID)
}

// canManage reports whether userID may apply explicit lifecycle transitions.
func (r roster) canManage(userID int64) bool {
	if userID == r.trip.OwnerID {
		return true
	}
	m, ok := r.member(userID)
	return ok && m.Role == domain.RoleAdmin
}

// userIDs returns the roster's user ids in roster order.
func (r roster) userIDs() []int64 {
	ids := make([]int64, 0, len(r.members))
	for _, m := range r.members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// recipients is everyone who should hear about the trip: the roster, the
// owner and any extra users. The dispatcher removes duplicates.
func (r roster) recipients(extra ...int64) []int64 {
	ids := append(r.userIDs(), r.trip.OwnerID)
	return append(ids, extra...)
}
