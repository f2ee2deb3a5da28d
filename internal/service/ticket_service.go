package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/dashboard"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/intake"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	*ticketCore
	comments   repository.CommentRepository
	votes      repository.VoteRepository
	categories repository.CategoryRepository
	history    repository.TicketHistoryRepository
	validator  *intake.Validator
	limiter    *ProfileLimiter
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	ProfileRepo  repository.ProfileRepository
	CommentRepo  repository.CommentRepository
	VoteRepo     repository.VoteRepository
	CategoryRepo repository.CategoryRepository
	HistoryRepo  repository.TicketHistoryRepository
	Machine      *lifecycle.Machine
	Validator    *intake.Validator
	Limiter      *ProfileLimiter
	Dispatcher   events.Dispatcher
	Dashboards   *dashboard.Registry
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// CreateTicketInput describes the ticket creation payload.
type CreateTicketInput struct {
	Subject       string
	Description   string
	Priority      string
	AssignedTo    *string
	CategoryID    *string
	AttachmentURL *string
}

// ListTicketsInput describes a role-scoped list request.
type ListTicketsInput struct {
	Criteria query.Criteria
	Limit    int
	Offset   int
}

// TicketPage is one page of scoped tickets plus the scoped total.
type TicketPage struct {
	Tickets []domain.TicketView
	Total   int
}

// CommentInput describes a new comment.
type CommentInput struct {
	Content       string
	IsInternal    bool
	AttachmentURL *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	validator := deps.Validator
	if validator == nil {
		validator = intake.NewValidator(nil)
	}
	return &TicketService{
		ticketCore: newTicketCore(deps.TicketRepo, deps.ProfileRepo, deps.Machine, deps.Dispatcher, deps.Dashboards, deps.Metrics, deps.Logger),
		comments:   deps.CommentRepo,
		votes:      deps.VoteRepo,
		categories: deps.CategoryRepo,
		history:    deps.HistoryRepo,
		validator:  validator,
		limiter:    deps.Limiter,
	}
}

// CreateTicket admits a ticket created by profile. Only agents and admins may set an
// assignee up front.
func (s *TicketService) CreateTicket(ctx context.Context, profile *domain.Profile, input CreateTicketInput) (*domain.TicketView, error) {
	if err := requireProfile(profile); err != nil {
		return nil, err
	}
	if !s.limiter.Allow(profile.ID) {
		return nil, apperrors.NewTooManyRequests("ticket creation rate exceeded")
	}

	candidate := intake.Candidate{
		Subject:       input.Subject,
		Description:   input.Description,
		Priority:      input.Priority,
		CreatedBy:     profile.ID,
		CategoryID:    input.CategoryID,
		AttachmentURL: input.AttachmentURL,
	}
	ticket, err := s.validator.Validate(candidate, intake.FlowDashboard)
	if err != nil {
		return nil, validationError(err)
	}

	if input.AssignedTo != nil && strings.TrimSpace(*input.AssignedTo) != "" {
		if !access.HasAtLeastRole(profile, domain.RoleAgent) {
			return nil, apperrors.NewForbidden("only agents can assign tickets")
		}
		assignee, err := s.resolveAssignee(ctx, input.AssignedTo)
		if err != nil {
			return nil, err
		}
		ticket.AssignedTo = assignee
	}
	if ticket.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *ticket.CategoryID); err != nil {
			if isMissingRow(err) {
				return nil, apperrors.NewValidationError("category not found", map[string]any{"field": "category_id", "reason": "unknown_category"})
			}
			return nil, s.storeFailure(err, "category", *ticket.CategoryID)
		}
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, s.storeFailure(err, "ticket", "")
	}
	s.metrics.RecordTicketCreated("dashboard", string(ticket.Priority))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorOf(profile),
		Payload: events.TicketCreatedPayload{
			Subject:    ticket.Subject,
			Priority:   ticket.Priority,
			CategoryID: ticket.CategoryID,
		},
	})
	return s.view(ctx, ticket.ID, true)
}

// ListTickets returns a page of the tickets profile may see, newest first.
func (s *TicketService) ListTickets(ctx context.Context, profile *domain.Profile, input ListTicketsInput) (*TicketPage, error) {
	if err := requireProfile(profile); err != nil {
		return nil, err
	}
	filter := scopedFilter(profile, input.Criteria)
	filter.Limit = input.Limit
	filter.Offset = input.Offset

	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, s.storeFailure(err, "ticket", "")
	}
	total, err := s.tickets.Count(ctx, filter)
	if err != nil {
		return nil, s.storeFailure(err, "ticket", "")
	}
	return &TicketPage{Tickets: access.Scope(profile, tickets), Total: total}, nil
}

// GetTicket returns one ticket the profile may view.
func (s *TicketService) GetTicket(ctx context.Context, profile *domain.Profile, ticketID string) (*domain.TicketView, error) {
	if err := requireProfile(profile); err != nil {
		return nil, err
	}
	view, err := s.tickets.GetViewByID(ctx, ticketID)
	if err != nil {
		return nil, s.storeFailure(err, "ticket", ticketID)
	}
	if !access.CanView(profile, view) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return view, nil
}

// UpdateStatus moves a ticket through the lifecycle.
func (s *TicketService) UpdateStatus(ctx context.Context, profile *domain.Profile, ticketID, rawStatus string) (*domain.TicketView, error) {
	status, err := domain.ParseTicketStatus(strings.TrimSpace(rawStatus))
	if err != nil {
		return nil, validationError(err)
	}
	ticket, err := s.load(ctx, profile, ticketID, access.ActionUpdateStatus)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	if _, err := s.machine.Transition(ticket, status); err != nil {
		return nil, validationError(err)
	}
	if err := s.save(ctx, ticket); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(string(oldStatus), string(status))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actorOf(profile),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: status,
		},
	})
	return s.view(ctx, ticket.ID, false)
}

// UpdatePriority changes a ticket's priority.
func (s *TicketService) UpdatePriority(ctx context.Context, profile *domain.Profile, ticketID, rawPriority string) (*domain.TicketView, error) {
	priority, err := domain.ParseTicketPriority(strings.TrimSpace(rawPriority))
	if err != nil {
		return nil, validationError(err)
	}
	ticket, err := s.load(ctx, profile, ticketID, access.ActionUpdatePriority)
	if err != nil {
		return nil, err
	}
	oldPriority := ticket.Priority
	if _, err := s.machine.SetPriority(ticket, priority); err != nil {
		return nil, validationError(err)
	}
	if err := s.save(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		Actor:    actorOf(profile),
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: priority,
		},
	})
	return s.view(ctx, ticket.ID, false)
}

// Vote records profile's up or down vote, replacing any earlier one.
func (s *TicketService) Vote(ctx context.Context, profile *domain.Profile, ticketID, rawVote string) (*domain.TicketView, error) {
	voteType, err := domain.ParseVoteType(rawVote)
	if err != nil {
		return nil, validationError(err)
	}
	ticket, err := s.load(ctx, profile, ticketID, access.ActionVote)
	if err != nil {
		return nil, err
	}
	previous, err := s.currentVote(ctx, ticket.ID, profile.ID)
	if err != nil {
		return nil, err
	}
	if previous != nil && *previous == voteType {
		return s.view(ctx, ticket.ID, false)
	}

	if err := s.votes.Upsert(ctx, &domain.TicketVote{TicketID: ticket.ID, UserID: profile.ID, VoteType: voteType}); err != nil {
		return nil, s.storeFailure(err, "vote", ticket.ID)
	}
	s.machine.ApplyVote(ticket, previous, &voteType)
	if err := s.save(ctx, ticket); err != nil {
		s.restoreVote(ctx, ticket.ID, profile.ID, previous)
		return nil, err
	}
	s.publishVote(ctx, profile, ticket, &voteType)
	return s.view(ctx, ticket.ID, false)
}

// RetractVote removes profile's vote. Retracting when no vote exists is a no-op.
func (s *TicketService) RetractVote(ctx context.Context, profile *domain.Profile, ticketID string) (*domain.TicketView, error) {
	ticket, err := s.load(ctx, profile, ticketID, access.ActionVote)
	if err != nil {
		return nil, err
	}
	previous, err := s.currentVote(ctx, ticket.ID, profile.ID)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		return s.view(ctx, ticket.ID, false)
	}

	if err := s.votes.Delete(ctx, ticket.ID, profile.ID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, s.storeFailure(err, "vote", ticket.ID)
	}
	s.machine.ApplyVote(ticket, previous, nil)
	if err := s.save(ctx, ticket); err != nil {
		s.restoreVote(ctx, ticket.ID, profile.ID, previous)
		return nil, err
	}
	s.publishVote(ctx, profile, ticket, nil)
	return s.view(ctx, ticket.ID, false)
}

// restoreVote puts the vote row back to previous after the counter update failed,
// so the row and the ticket counters keep agreeing.
func (s *TicketService) restoreVote(ctx context.Context, ticketID, profileID string, previous *domain.VoteType) {
	ctx = context.WithoutCancel(ctx)
	var err error
	if previous == nil {
		err = s.votes.Delete(ctx, ticketID, profileID)
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
	} else {
		err = s.votes.Upsert(ctx, &domain.TicketVote{TicketID: ticketID, UserID: profileID, VoteType: *previous})
	}
	if err != nil {
		s.logger.Error("vote rollback failed", zap.String("ticket_id", ticketID), zap.String("profile_id", profileID), zap.Error(err))
	}
}

func (s *TicketService) currentVote(ctx context.Context, ticketID, profileID string) (*domain.VoteType, error) {
	vote, err := s.votes.Get(ctx, ticketID, profileID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.storeFailure(err, "vote", ticketID)
	}
	return &vote.VoteType, nil
}

func (s *TicketService) publishVote(ctx context.Context, profile *domain.Profile, ticket *domain.Ticket, vote *domain.VoteType) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketVoted,
		TicketID: ticket.ID,
		Actor:    actorOf(profile),
		Payload: events.TicketVotedPayload{
			VoteType:  vote,
			Upvotes:   ticket.Upvotes,
			Downvotes: ticket.Downvotes,
		},
	})
}

// AddComment appends a comment. Internal comments need agent or admin.
func (s *TicketService) AddComment(ctx context.Context, profile *domain.Profile, ticketID string, input CommentInput) (*domain.TicketComment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, validationError(&domain.FieldError{Field: "content", Kind: domain.MissingField})
	}
	action := access.ActionComment
	if input.IsInternal {
		action = access.ActionCommentInternal
	}
	ticket, err := s.load(ctx, profile, ticketID, action)
	if err != nil {
		return nil, err
	}

	comment := &domain.TicketComment{
		TicketID:      ticket.ID,
		UserID:        profile.ID,
		Content:       content,
		AttachmentURL: input.AttachmentURL,
		IsInternal:    input.IsInternal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, s.storeFailure(err, "comment", ticket.ID)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		Actor:    actorOf(profile),
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			IsInternal:  comment.IsInternal,
			BodyPreview: stringPreview(comment.Content, 120),
		},
	})
	return comment, nil
}

// ListComments returns the thread; internal comments are omitted for the user role.
func (s *TicketService) ListComments(ctx context.Context, profile *domain.Profile, ticketID string) ([]domain.TicketComment, error) {
	ticket, err := s.load(ctx, profile, ticketID, access.ActionView)
	if err != nil {
		return nil, err
	}
	includeInternal := access.Can(profile, access.ActionCommentInternal, ticket)
	comments, err := s.comments.ListByTicket(ctx, ticket.ID, includeInternal)
	if err != nil {
		return nil, s.storeFailure(err, "comment", ticket.ID)
	}
	return comments, nil
}

// ListHistory returns the audit trail of a ticket.
func (s *TicketService) ListHistory(ctx context.Context, profile *domain.Profile, ticketID string) ([]domain.TicketHistory, error) {
	ticket, err := s.load(ctx, profile, ticketID, access.ActionViewHistory)
	if err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	entries, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, s.storeFailure(err, "history", ticket.ID)
	}
	return entries, nil
}

// scopedFilter turns criteria into a repository filter carrying the row-level scope.
func scopedFilter(profile *domain.Profile, c query.Criteria) repository.TicketFilter {
	filter := repository.TicketFilter{CreatedBy: access.CreatedByScope(profile)}
	if c.Status != "" && c.Status != query.AllValues {
		filter.Statuses = []domain.TicketStatus{domain.TicketStatus(c.Status)}
	}
	if c.Priority != "" && c.Priority != query.AllValues {
		filter.Priorities = []domain.TicketPriority{domain.TicketPriority(c.Priority)}
	}
	if c.SearchTerm != "" {
		term := c.SearchTerm
		filter.SearchTerm = &term
	}
	return filter
}
