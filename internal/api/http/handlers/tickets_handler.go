package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// PageLimits bounds the page_size query parameter.
type PageLimits struct {
	Default int
	Max     int
}

// TicketsHandler manages ticket endpoints for every role.
type TicketsHandler struct {
	tickets    *service.TicketService
	assignment *service.AssignmentService
	pages      PageLimits
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, assignment *service.AssignmentService, pages PageLimits) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, assignment: assignment, pages: pages}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	view, err := h.tickets.CreateTicket(c.UserContext(), profile, service.CreateTicketInput{
		Subject:       req.Subject,
		Description:   req.Description,
		Priority:      req.Priority,
		AssignedTo:    req.AssignedTo,
		CategoryID:    req.CategoryID,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketViewResponse(*view)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		return err
	}
	page, pageSize := h.parsePage(c)
	result, err := h.tickets.ListTickets(c.UserContext(), profile, service.ListTicketsInput{
		Criteria: criteria,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Tickets:  dto.NewTicketViewResponses(result.Tickets),
		Total:    result.Total,
		Page:     page,
		PageSize: pageSize,
	}})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	view, err := h.tickets.GetTicket(c.UserContext(), profile, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketViewResponse(*view)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	return respondView(c)(h.tickets.UpdateStatus(c.UserContext(), profile, c.Params("id"), req.Status))
}

// UpdatePriority PATCH /tickets/:id/priority.
func (h *TicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	return respondView(c)(h.tickets.UpdatePriority(c.UserContext(), profile, c.Params("id"), req.Priority))
}

// Assign PATCH /tickets/:id/assignee.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	return respondView(c)(h.assignment.AssignTicket(c.UserContext(), profile, c.Params("id"), req.AssignedTo))
}

// SelfAssign POST /tickets/:id/assign/self.
func (h *TicketsHandler) SelfAssign(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	return respondView(c)(h.assignment.SelfAssignTicket(c.UserContext(), profile, c.Params("id")))
}

// Vote POST /tickets/:id/votes.
func (h *TicketsHandler) Vote(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	var req dto.VoteRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	return respondView(c)(h.tickets.Vote(c.UserContext(), profile, c.Params("id"), req.VoteType))
}

// RetractVote DELETE /tickets/:id/votes.
func (h *TicketsHandler) RetractVote(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	return respondView(c)(h.tickets.RetractVote(c.UserContext(), profile, c.Params("id")))
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	comment, err := h.tickets.AddComment(c.UserContext(), profile, c.Params("id"), service.CommentInput{
		Content:       req.Content,
		IsInternal:    req.IsInternal,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(*comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	comments, err := h.tickets.ListComments(c.UserContext(), profile, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, dto.NewCommentResponse(comment))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	entries, err := h.tickets.ListHistory(c.UserContext(), profile, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponses(entries)})
}

func (h *TicketsHandler) parsePage(c *fiber.Ctx) (int, int) {
	page := parseInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize := parseInt(c.Query("page_size"), h.pages.Default)
	if pageSize < 1 {
		pageSize = h.pages.Default
	}
	if h.pages.Max > 0 && pageSize > h.pages.Max {
		pageSize = h.pages.Max
	}
	return page, pageSize
}

func respondView(c *fiber.Ctx) func(*domain.TicketView, error) error {
	return func(view *domain.TicketView, err error) error {
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewTicketViewResponse(*view)})
	}
}

func currentProfile(c *fiber.Ctx) (*domain.Profile, error) {
	profile, ok := auth.ProfileFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("profile required")
	}
	return profile, nil
}

func criteriaFromQuery(c *fiber.Ctx) (query.Criteria, error) {
	criteria, err := query.ParseCriteria(c.Query("search"), c.Query("status"), c.Query("priority"))
	if err != nil {
		return query.Criteria{}, validationFailure(err)
	}
	return criteria, nil
}

// validationFailure reports a rejected input field as VALIDATION_FAILED.
func validationFailure(err error) error {
	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		return apperrors.NewValidationError(fieldErr.Error(), map[string]any{
			"field":  fieldErr.Field,
			"reason": string(fieldErr.Kind),
		})
	}
	return err
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
