package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/board"
	"github.com/spec-kit/helpdesk/internal/intake"
	"github.com/spec-kit/helpdesk/internal/observability"
)

// BoardHandler serves the in-memory demo board.
type BoardHandler struct {
	board   *board.Board
	metrics *observability.Metrics
}

// NewBoardHandler constructs handler.
func NewBoardHandler(b *board.Board, metrics *observability.Metrics) *BoardHandler {
	return &BoardHandler{board: b, metrics: metrics}
}

// Get handles GET /board.
func (h *BoardHandler) Get(c *fiber.Ctx) error {
	entries := h.board.Snapshot()
	items := make([]dto.BoardEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewBoardEntryResponse(entry))
	}
	return c.JSON(fiber.Map{"data": dto.BoardResponse{Tickets: items, Stats: h.board.Stats()}})
}

// Add handles POST /board/tickets.
func (h *BoardHandler) Add(c *fiber.Ctx) error {
	var req dto.BoardTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	entry, err := h.board.Add(intake.Candidate{
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		Assignee:    req.Assignee,
	})
	if err != nil {
		return validationFailure(err)
	}
	h.metrics.RecordTicketCreated("board", string(entry.Priority))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewBoardEntryResponse(entry)})
}

// ClearNew handles POST /board/clear-new.
func (h *BoardHandler) ClearNew(c *fiber.Ctx) error {
	h.board.ClearNew()
	return c.SendStatus(http.StatusNoContent)
}
