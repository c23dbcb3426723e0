package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desaismitha/Shered-sub002/internal/domain"
	"github.com/desaismitha/Shered-sub002/internal/handler"
)

func TestCreateGroup(t *testing.T) {
	svc := &mockGroupServicer{
		create: func(_ context.Context, name string, creatorID int64) (int64, error) {
			assert.Equal(t, "Carpool", name)
			assert.Equal(t, callerID, creatorID)
			return 5, nil
		},
	}
	h := newHTTPHandler(handler.Services{Groups: svc})

	rec := do(t, h, http.MethodPost, "/groups", strings.NewReader(`{"name":"Carpool"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":5}`, rec.Body.String())
}

func TestAddMember_DefaultsRole(t *testing.T) {
	var got domain.Member
	svc := &mockGroupServicer{
		addMember: func(_ context.Context, actorID int64, m domain.Member) error {
			assert.Equal(t, callerID, actorID)
			got = m
			return nil
		},
	}
	h := newHTTPHandler(handler.Services{Groups: svc})

	rec := do(t, h, http.MethodPost, "/groups/5/members", strings.NewReader(`{"user_id":11}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.Member{GroupID: 5, UserID: 11, Role: domain.RoleMember}, got)
}

func TestAddMember_NonAdmin(t *testing.T) {
	svc := &mockGroupServicer{
		addMember: func(context.Context, int64, domain.Member) error {
			return fmt.Errorf("service.GroupService.AddMember: %w: only admins may add members", domain.ErrForbidden)
		},
	}
	h := newHTTPHandler(handler.Services{Groups: svc})

	rec := do(t, h, http.MethodPost, "/groups/5/members", strings.NewReader(`{"user_id":11,"role":"admin"}`))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "forbidden", e.Code)
	assert.Equal(t, "only admins may add members", e.Message)
}

func TestListMembers(t *testing.T) {
	svc := &mockGroupServicer{
		members: func(_ context.Context, groupID, viewerID int64) ([]domain.Member, error) {
			assert.Equal(t, int64(5), groupID)
			assert.Equal(t, callerID, viewerID)
			return []domain.Member{{GroupID: 5, UserID: callerID, Role: domain.RoleAdmin}}, nil
		},
	}
	h := newHTTPHandler(handler.Services{Groups: svc})

	rec := do(t, h, http.MethodGet, "/groups/5/members", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []domain.Member
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body, 1)
}
