package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/dashboard"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// ticketCore holds what every ticket-mutating service needs: loading with a
// permission check, saving, publishing and keeping open dashboards current.
type ticketCore struct {
	tickets    repository.TicketRepository
	profiles   repository.ProfileRepository
	machine    *lifecycle.Machine
	dispatcher events.Dispatcher
	dashboards *dashboard.Registry
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func newTicketCore(tickets repository.TicketRepository, profiles repository.ProfileRepository, machine *lifecycle.Machine,
	dispatcher events.Dispatcher, dashboards *dashboard.Registry, metrics *observability.Metrics, logger *zap.Logger) *ticketCore {
	if machine == nil {
		machine = lifecycle.NewMachine()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ticketCore{
		tickets:    tickets,
		profiles:   profiles,
		machine:    machine,
		dispatcher: dispatcher,
		dashboards: dashboards,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// load fetches a ticket and checks that profile may perform action on it.
func (c *ticketCore) load(ctx context.Context, profile *domain.Profile, ticketID string, action access.Action) (*domain.Ticket, error) {
	if err := requireProfile(profile); err != nil {
		return nil, err
	}
	ticket, err := c.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, c.storeFailure(err, "ticket", ticketID)
	}
	if !access.Can(profile, action, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

func (c *ticketCore) save(ctx context.Context, ticket *domain.Ticket) error {
	if err := c.tickets.Update(ctx, ticket); err != nil {
		return c.storeFailure(err, "ticket", ticket.ID)
	}
	return nil
}

// view reloads the joined row and pushes it into the dashboards that hold it.
func (c *ticketCore) view(ctx context.Context, ticketID string, created bool) (*domain.TicketView, error) {
	view, err := c.tickets.GetViewByID(ctx, ticketID)
	if err != nil {
		return nil, c.storeFailure(err, "ticket", ticketID)
	}
	if c.dashboards != nil {
		c.dashboards.Each(func(v *dashboard.View) {
			if created {
				v.Prepend(*view)
			} else {
				v.Replace(*view)
			}
		})
	}
	return view, nil
}

func (c *ticketCore) storeFailure(err error, resource, id string) error {
	mapped := storeError(err, resource, id)
	if apperrors.IsCode(mapped, "PERSISTENCE_ERROR") {
		c.logger.Error("store call failed", zap.String("resource", resource), zap.String("id", id), zap.Error(err))
	}
	return mapped
}

// resolveAssignee checks that a non-blank assignee id names an agent or admin and
// returns the trimmed id, or nil for blank.
func (c *ticketCore) resolveAssignee(ctx context.Context, assignee *string) (*string, error) {
	if assignee == nil || strings.TrimSpace(*assignee) == "" {
		return nil, nil
	}
	id := strings.TrimSpace(*assignee)
	profile, err := c.profiles.GetByID(ctx, id)
	if err != nil {
		if isMissingRow(err) {
			return nil, apperrors.NewValidationError("assignee not found", map[string]any{"field": "assigned_to", "reason": "unknown_profile"})
		}
		return nil, c.storeFailure(err, "profile", id)
	}
	if !access.HasAtLeastRole(profile, domain.RoleAgent) {
		return nil, apperrors.NewValidationError("assignee must be an agent or admin", map[string]any{"field": "assigned_to", "reason": "insufficient_role"})
	}
	return &id, nil
}

func (c *ticketCore) publishEvent(ctx context.Context, event events.Event) {
	if c.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = c.now()
	}
	if err := c.dispatcher.Publish(ctx, event); err != nil {
		c.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.String("ticket_id", event.TicketID), zap.Error(err))
	}
}

func actorOf(profile *domain.Profile) events.Actor {
	return events.Actor{ProfileID: profile.ID, Role: profile.Role}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
