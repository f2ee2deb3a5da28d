package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration. Board is optional.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Dashboard      *handlers.DashboardHandler
	Categories     *handlers.CategoriesHandler
	Admin          *handlers.AdminHandler
	Board          *handlers.BoardHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	if cfg.Board != nil {
		board := app.Group("/board")
		board.Get("/", cfg.Board.Get)
		board.Post("/tickets", cfg.Board.Add)
		board.Post("/clear-new", cfg.Board.ClearNew)
	}

	// Everything registered below requires a signed-in profile.
	signedIn := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	signedIn.Get("/auth/me", cfg.Auth.Me)
	signedIn.Post("/auth/password/change", cfg.Auth.ChangePassword)

	signedIn.Get("/dashboard", cfg.Dashboard.Get)
	signedIn.Get("/categories", cfg.Categories.List)
	signedIn.Post("/categories", auth.RequireRole(domain.RoleAdmin), cfg.Categories.Create)
	signedIn.Get("/profiles/assignees", auth.RequireRole(domain.RoleAgent), cfg.Admin.ListAssignees)

	tickets := signedIn.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/priority", cfg.Tickets.UpdatePriority)
	tickets.Patch("/:id/assignee", cfg.Tickets.Assign)
	tickets.Post("/:id/assign/self", cfg.Tickets.SelfAssign)
	tickets.Post("/:id/votes", cfg.Tickets.Vote)
	tickets.Delete("/:id/votes", cfg.Tickets.RetractVote)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)

	admin := signedIn.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/profiles", cfg.Admin.ListProfiles)
	admin.Patch("/profiles/:id/role", cfg.Admin.UpdateRole)
}
