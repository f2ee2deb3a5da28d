package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// DashboardHandler serves the per-profile dashboard.
type DashboardHandler struct {
	dashboards *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboards *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// Get handles GET /dashboard.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		return err
	}
	result, err := h.dashboards.Dashboard(c.UserContext(), profile, criteria, c.QueryBool("refresh", false))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		Tickets: dto.NewTicketViewResponses(result.Tickets),
		Stats:   result.Stats,
		Shown:   result.Shown,
		Total:   result.Total,
	}})
}
