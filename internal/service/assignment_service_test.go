package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestSelfAssign(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	view := h.create(t, alice, "x")

	_, err := h.assign.SelfAssignTicket(ctx, &alice, view.ID)
	assert.Equal(t, "FORBIDDEN", errorCode(err))

	got, err := h.assign.SelfAssignTicket(ctx, &agent, view.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, "agent", *got.AssignedTo)

	entries, err := h.svc.ListHistory(ctx, &agent, view.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ChangeTypeAssignee, entries[0].ChangeType)
	assert.Nil(t, entries[0].OldValue["assigned_to"])
}

func TestAssignTicket(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	view := h.create(t, alice, "x")
	user := "bob"
	ghost := "nobody"
	target := "admin"
	blank := "  "

	_, err := h.assign.AssignTicket(ctx, &agent, view.ID, &user)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))
	_, err = h.assign.AssignTicket(ctx, &agent, view.ID, &ghost)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))
	_, err = h.assign.AssignTicket(ctx, &agent, "missing", &target)
	assert.Equal(t, "NOT_FOUND", errorCode(err))

	got, err := h.assign.AssignTicket(ctx, &agent, view.ID, &target)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, "admin", *got.AssignedTo)

	again, err := h.assign.AssignTicket(ctx, &agent, view.ID, &target)
	require.NoError(t, err)
	assert.Equal(t, "admin", *again.AssignedTo)

	cleared, err := h.assign.AssignTicket(ctx, &admin, view.ID, &blank)
	require.NoError(t, err)
	assert.Nil(t, cleared.AssignedTo)

	entries, err := h.svc.ListHistory(ctx, &admin, view.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "re-assigning the same profile records nothing")
}
