package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/dashboard"
	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestUpdateRole(t *testing.T) {
	profiles := newMemProfiles(alice, bob, agent, admin)
	registry := dashboard.NewRegistry(NewTicketSource(newMemTickets(profiles)))
	svc := NewProfileService(profiles, registry, nil)
	ctx := context.Background()

	_, err := svc.UpdateRole(ctx, &agent, "bob", "agent")
	assert.Equal(t, "FORBIDDEN", errorCode(err))
	_, err = svc.UpdateRole(ctx, &admin, "bob", "superuser")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))
	_, err = svc.UpdateRole(ctx, &admin, "ghost", "agent")
	assert.Equal(t, "NOT_FOUND", errorCode(err))

	before := registry.For(&bob)
	updated, err := svc.UpdateRole(ctx, &admin, "bob", " Agent ")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, updated.Role)

	stored, err := profiles.GetByID(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, stored.Role)
	assert.NotSame(t, before, registry.For(&bob), "role change drops the cached dashboard")
}

func TestListProfilesAndAssignees(t *testing.T) {
	profiles := newMemProfiles(alice, bob, agent, admin)
	svc := NewProfileService(profiles, nil, nil)
	ctx := context.Background()

	_, err := svc.ListProfiles(ctx, &agent)
	assert.Equal(t, "FORBIDDEN", errorCode(err))

	all, err := svc.ListProfiles(ctx, &admin)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = svc.ListAssignees(ctx, &alice)
	assert.Equal(t, "FORBIDDEN", errorCode(err))

	assignees, err := svc.ListAssignees(ctx, &agent)
	require.NoError(t, err)
	ids := make([]string, 0, len(assignees))
	for _, p := range assignees {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"agent", "admin"}, ids)
}
