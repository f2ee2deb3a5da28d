package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/dashboard"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// AssignmentService handles ticket assignment operations.
type AssignmentService struct {
	*ticketCore
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo  repository.TicketRepository
	ProfileRepo repository.ProfileRepository
	Machine     *lifecycle.Machine
	Dispatcher  events.Dispatcher
	Dashboards  *dashboard.Registry
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		ticketCore: newTicketCore(deps.TicketRepo, deps.ProfileRepo, deps.Machine, deps.Dispatcher, deps.Dashboards, deps.Metrics, deps.Logger),
	}
}

// SelfAssignTicket assigns the ticket to the acting agent or admin.
func (s *AssignmentService) SelfAssignTicket(ctx context.Context, profile *domain.Profile, ticketID string) (*domain.TicketView, error) {
	if err := requireProfile(profile); err != nil {
		return nil, err
	}
	id := profile.ID
	return s.AssignTicket(ctx, profile, ticketID, &id)
}

// AssignTicket sets the assignee of a ticket. A nil or blank assignee clears it.
func (s *AssignmentService) AssignTicket(ctx context.Context, profile *domain.Profile, ticketID string, assignee *string) (*domain.TicketView, error) {
	ticket, err := s.load(ctx, profile, ticketID, access.ActionAssign)
	if err != nil {
		return nil, err
	}
	resolved, err := s.resolveAssignee(ctx, assignee)
	if err != nil {
		return nil, err
	}

	change := s.machine.Assign(ticket, resolved)
	if !change.Changed() {
		return s.view(ctx, ticket.ID, false)
	}
	if err := s.save(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actorOf(profile),
		Payload: events.TicketAssignedPayload{
			OldAssignee: change.Old,
			NewAssignee: change.New,
		},
	})
	return s.view(ctx, ticket.ID, false)
}
