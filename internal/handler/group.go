package handler

import (
	"net/http"

	"github.com/desaismitha/Shered-sub002/internal/domain"
)

// CreateGroupRequest is the body of POST /groups.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// CreateGroupResponse carries the id of the new group.
type CreateGroupResponse struct {
	ID int64 `json:"id"`
}

// AddMemberRequest is the body of POST /groups/{groupID}/members.
// An empty role means a plain member.
type AddMemberRequest struct {
	UserID int64             `json:"user_id"`
	Role   domain.MemberRole `json:"role,omitempty"`
}

// CreateGroup handles POST /groups. The caller becomes the group's admin.
func (s *Server) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	var body CreateGroupRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	id, err := s.svc.Groups.Create(r.Context(), body.Name, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateGroupResponse{ID: id})
}

// AddMember handles POST /groups/{groupID}/members.
func (s *Server) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(w, r, "groupID")
	if !ok {
		return
	}
	var body AddMemberRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	role := body.Role
	if role == "" {
		role = domain.RoleMember
	}

	m := domain.Member{GroupID: groupID, UserID: body.UserID, Role: role}
	if err := s.svc.Groups.AddMember(r.Context(), userID, m); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ListMembers handles GET /groups/{groupID}/members.
func (s *Server) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(w, r, "groupID")
	if !ok {
		return
	}

	members, err := s.svc.Groups.Members(r.Context(), groupID, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if members == nil {
		members = []domain.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}
