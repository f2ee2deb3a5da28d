// Package intake admits new tickets: it checks required fields, resolves the
// priority and hands the ticket to the lifecycle in its initial state.
package intake

import (
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
)

// Flow selects which identity a candidate must carry.
type Flow int

const (
	// FlowDashboard is the signed-in creation flow; the creator is required.
	FlowDashboard Flow = iota
	// FlowBoard is the demo board flow; the assignee is required.
	FlowBoard
)

// DefaultPriority is used when the candidate omits a priority.
const DefaultPriority = domain.TicketPriorityMedium

// Candidate holds caller-supplied ticket fields. Status and CreatedAt are accepted
// but never used.
type Candidate struct {
	Subject       string
	Description   string
	Priority      string
	Status        string
	CreatedBy     string
	Assignee      string
	CategoryID    *string
	AttachmentURL *string
	CreatedAt     *time.Time
}

// Validator turns candidates into fully formed tickets.
type Validator struct {
	now func() time.Time
}

// NewValidator builds a validator. A nil clock means time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// Validate rejects candidates with a blank subject, description or flow identity and
// returns a ticket in status open stamped with the validator's clock. No ticket is
// produced on error.
func (v *Validator) Validate(c Candidate, flow Flow) (*domain.Ticket, error) {
	subject := strings.TrimSpace(c.Subject)
	if subject == "" {
		return nil, missing("subject")
	}
	description := strings.TrimSpace(c.Description)
	if description == "" {
		return nil, missing("description")
	}

	createdBy := strings.TrimSpace(c.CreatedBy)
	assignee := strings.TrimSpace(c.Assignee)
	switch flow {
	case FlowBoard:
		if assignee == "" {
			return nil, missing("assignee")
		}
		if createdBy == "" {
			createdBy = assignee
		}
	default:
		if createdBy == "" {
			return nil, missing("created_by")
		}
	}

	priority := DefaultPriority
	if raw := strings.TrimSpace(c.Priority); raw != "" {
		p, err := domain.ParseTicketPriority(raw)
		if err != nil {
			return nil, err
		}
		priority = p
	}

	ticket := &domain.Ticket{
		Subject:       subject,
		Description:   description,
		Priority:      priority,
		CreatedBy:     createdBy,
		CategoryID:    nonBlank(c.CategoryID),
		AttachmentURL: nonBlank(c.AttachmentURL),
	}
	if assignee != "" {
		ticket.AssignedTo = &assignee
	}
	lifecycle.Initialize(ticket, v.now())

	if err := domain.ValidateShape(*ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func missing(field string) error {
	return &domain.FieldError{Field: field, Kind: domain.MissingField}
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
