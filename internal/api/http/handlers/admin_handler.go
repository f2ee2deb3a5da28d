package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
)

// AdminHandler exposes profile and role management.
type AdminHandler struct {
	profiles *service.ProfileService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(profiles *service.ProfileService) *AdminHandler {
	return &AdminHandler{profiles: profiles}
}

// ListProfiles handles GET /admin/profiles.
func (h *AdminHandler) ListProfiles(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	profiles, err := h.profiles.ListProfiles(c.UserContext(), profile)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponses(profiles)})
}

// ListAssignees handles GET /profiles/assignees.
func (h *AdminHandler) ListAssignees(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	profiles, err := h.profiles.ListAssignees(c.UserContext(), profile)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponses(profiles)})
}

// UpdateRole handles PATCH /admin/profiles/:id/role.
func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	profile, err := currentProfile(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	updated, err := h.profiles.UpdateRole(c.UserContext(), profile, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProfileResponse(updated)})
}

func profileResponses(profiles []domain.Profile) []dto.ProfileResponse {
	items := make([]dto.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		items = append(items, dto.NewProfileResponse(&profiles[i]))
	}
	return items
}
