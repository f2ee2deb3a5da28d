package intake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newValidator() *Validator {
	return NewValidator(func() time.Time { return fixedNow })
}

func TestValidateBoardScenario(t *testing.T) {
	ticket, err := newValidator().Validate(Candidate{
		Subject:     "Login broken",
		Description: "Cannot log in",
		Priority:    "high",
		Assignee:    "agent1",
	}, FlowBoard)
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
	assert.Nil(t, ticket.ResolvedAt)
	assert.Nil(t, ticket.ClosedAt)
	require.NotNil(t, ticket.AssignedTo)
	assert.Equal(t, "agent1", *ticket.AssignedTo)
}

func TestValidateIgnoresCallerStatusAndCreatedAt(t *testing.T) {
	supplied := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	ticket, err := newValidator().Validate(Candidate{
		Subject:     "VPN",
		Description: "Drops every hour",
		Status:      "closed",
		CreatedBy:   "u1",
		CreatedAt:   &supplied,
	}, FlowDashboard)
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, fixedNow, ticket.CreatedAt)
	assert.Equal(t, fixedNow, ticket.UpdatedAt)
	assert.Equal(t, DefaultPriority, ticket.Priority)
	assert.Nil(t, ticket.AssignedTo)
}

func TestValidateRejectsBlankFields(t *testing.T) {
	tests := []struct {
		name  string
		c     Candidate
		flow  Flow
		field string
	}{
		{name: "blank subject", c: Candidate{Subject: "  ", Description: "d", CreatedBy: "u1"}, flow: FlowDashboard, field: "subject"},
		{name: "blank description", c: Candidate{Subject: "s", Description: "\t", CreatedBy: "u1"}, flow: FlowDashboard, field: "description"},
		{name: "missing creator", c: Candidate{Subject: "s", Description: "d", Assignee: "agent1"}, flow: FlowDashboard, field: "created_by"},
		{name: "missing assignee", c: Candidate{Subject: "s", Description: "d", CreatedBy: "u1"}, flow: FlowBoard, field: "assignee"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket, err := newValidator().Validate(tt.c, tt.flow)
			assert.Nil(t, ticket)
			require.ErrorIs(t, err, domain.ErrMissingField)
			var ferr *domain.FieldError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, tt.field, ferr.Field)
		})
	}
}

func TestValidateRejectsUnknownPriority(t *testing.T) {
	ticket, err := newValidator().Validate(Candidate{
		Subject: "s", Description: "d", CreatedBy: "u1", Priority: "critical",
	}, FlowDashboard)
	assert.Nil(t, ticket)
	assert.ErrorIs(t, err, domain.ErrInvalidEnum)
}

func TestValidateTrimsAndDropsBlankOptionals(t *testing.T) {
	blank := "  "
	category := " cat-1 "
	ticket, err := newValidator().Validate(Candidate{
		Subject:       "  Printer  ",
		Description:   " Jammed ",
		CreatedBy:     " u1 ",
		CategoryID:    &category,
		AttachmentURL: &blank,
	}, FlowDashboard)
	require.NoError(t, err)

	assert.Equal(t, "Printer", ticket.Subject)
	assert.Equal(t, "Jammed", ticket.Description)
	assert.Equal(t, "u1", ticket.CreatedBy)
	require.NotNil(t, ticket.CategoryID)
	assert.Equal(t, "cat-1", *ticket.CategoryID)
	assert.Nil(t, ticket.AttachmentURL)
}

func TestBoardFlowDefaultsCreatorToAssignee(t *testing.T) {
	ticket, err := newValidator().Validate(Candidate{Subject: "s", Description: "d", Assignee: "agent2"}, FlowBoard)
	require.NoError(t, err)
	assert.Equal(t, "agent2", ticket.CreatedBy)
}
