package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// RequireRole guards a route group. Callers below the required role are redirected
// (303) to the dashboard and anonymous callers to the sign-in path; no error is raised.
func RequireRole(required domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, _ := ProfileFromContext(c)
		decision := access.Guard(profile, required)
		if !decision.Allowed {
			return c.Redirect(decision.RedirectTo, fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

// RequireAnyRole ensures the caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return RequireRole(domain.RoleUser)
}
