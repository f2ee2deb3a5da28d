package http

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/board"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/dashboard"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
)

type stubProfiles struct {
	mu   sync.Mutex
	rows map[string]domain.Profile
}

func (s *stubProfiles) Create(_ context.Context, p *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = fmt.Sprintf("p-%d", len(s.rows)+1)
	s.rows[p.ID] = *p
	return nil
}

func (s *stubProfiles) UpdateRole(_ context.Context, id string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Role = role
	s.rows[id] = p
	return nil
}

func (s *stubProfiles) UpdatePassword(context.Context, string, string) error { return nil }

func (s *stubProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (s *stubProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.rows {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubProfiles) List(context.Context) ([]domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Profile, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, p)
	}
	return out, nil
}

type stubTickets struct {
	mu   sync.Mutex
	rows []domain.Ticket
}

func (s *stubTickets) Create(_ context.Context, t *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = fmt.Sprintf("t-%d", len(s.rows)+1)
	s.rows = append(s.rows, *t)
	return nil
}

func (s *stubTickets) Update(_ context.Context, t *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == t.ID {
			s.rows[i] = *t
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (s *stubTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.rows {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubTickets) GetViewByID(ctx context.Context, id string) (*domain.TicketView, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.TicketView{Ticket: *t}, nil
}

func (s *stubTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.TicketView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.TicketView{}
	for i := len(s.rows) - 1; i >= 0; i-- {
		t := s.rows[i]
		if filter.CreatedBy != nil && t.CreatedBy != *filter.CreatedBy {
			continue
		}
		out = append(out, domain.TicketView{Ticket: t})
	}
	return out, nil
}

func (s *stubTickets) Count(ctx context.Context, filter repository.TicketFilter) (int, error) {
	views, err := s.List(ctx, filter)
	return len(views), err
}

type testServer struct {
	app      *fiber.App
	profiles *stubProfiles
	tokens   *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	profiles := &stubProfiles{rows: map[string]domain.Profile{}}
	tickets := &stubTickets{}
	dispatcher := events.NewInMemoryDispatcher()
	dashboards := dashboard.NewRegistry(service.NewTicketSource(tickets))

	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}, profiles)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  tickets,
		ProfileRepo: profiles,
		Dispatcher:  dispatcher,
		Dashboards:  dashboards,
		Metrics:     metrics,
		Logger:      logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:  tickets,
		ProfileRepo: profiles,
		Dispatcher:  dispatcher,
		Dashboards:  dashboards,
	})

	demo := board.New()
	t.Cleanup(demo.Stop)

	app := NewApp("helpdesk-test", logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk-test", "test", logger, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, assignmentService, handlers.PageLimits{Default: 20, Max: 100}),
		Dashboard:      handlers.NewDashboardHandler(service.NewDashboardService(dashboards, metrics, logger)),
		Admin:          handlers.NewAdminHandler(service.NewProfileService(profiles, dashboards, logger)),
		Board:          handlers.NewBoardHandler(demo, metrics),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), profiles),
		Gatherer:       registry,
	})
	return &testServer{app: app, profiles: profiles, tokens: authService.TokenManager()}
}

func (s *testServer) signIn(t *testing.T, role domain.Role) string {
	t.Helper()
	profile := &domain.Profile{DisplayName: role.String(), Email: role.String() + "@example.com", Role: role}
	require.NoError(t, s.profiles.Create(context.Background(), profile))
	token, _, err := s.tokens.GenerateToken(profile)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	if loc := resp.Header.Get(fiber.HeaderLocation); loc != "" {
		decoded["location"] = loc
	}
	return resp.StatusCode, decoded
}

func errorBody(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected an error body, got %v", body)
	return errBody
}

func TestHealthLive(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, fiber.MethodGet, "/health/live", "", "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])
	assert.Equal(t, "helpdesk-test", body["service"])
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, fiber.MethodGet, "/tickets", "", "")

	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorBody(t, body)["code"])
}

func TestAdminRouteRedirectsLowerRoles(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signIn(t, domain.RoleUser)

	status, body := srv.do(t, fiber.MethodGet, "/admin/profiles", token, "")

	assert.Equal(t, fiber.StatusSeeOther, status)
	assert.Equal(t, "/dashboard", body["location"])

	adminToken := srv.signIn(t, domain.RoleAdmin)
	status, _ = srv.do(t, fiber.MethodGet, "/admin/profiles", adminToken, "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRegisterThenCreateTicket(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, fiber.MethodPost, "/auth/register", "",
		`{"display_name":"Dana","email":"Dana@Example.com","password":"correct-horse"}`)
	require.Equal(t, fiber.StatusCreated, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "dana@example.com", data["profile"].(map[string]any)["email"])
	token := data["auth"].(map[string]any)["token"].(string)

	status, body = srv.do(t, fiber.MethodPost, "/tickets", token,
		`{"subject":"VPN drops","description":"Disconnects every hour"}`)
	require.Equal(t, fiber.StatusCreated, status)
	ticket := body["data"].(map[string]any)
	assert.Equal(t, "VPN drops", ticket["subject"])
	assert.Equal(t, "open", ticket["status"])
	assert.Equal(t, "medium", ticket["priority"])

	status, body = srv.do(t, fiber.MethodGet, "/tickets", token, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["data"].(map[string]any)["total"])
}

func TestCreateTicketValidationDetails(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signIn(t, domain.RoleUser)

	status, body := srv.do(t, fiber.MethodPost, "/tickets", token, `{"subject":"  ","description":"x"}`)

	assert.Equal(t, fiber.StatusBadRequest, status)
	errBody := errorBody(t, body)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
	assert.Equal(t, map[string]any{"field": "subject", "reason": "missing_field"}, errBody["details"])
}

func TestBoardEndpoints(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, fiber.MethodPost, "/board/tickets", "",
		`{"subject":"Printer","description":"Out of toner","assignee":"Sam"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, true, body["data"].(map[string]any)["is_new"])

	status, body = srv.do(t, fiber.MethodPost, "/board/tickets", "", `{"subject":"Printer","description":"Out of toner"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "assignee", errorBody(t, body)["details"].(map[string]any)["field"])

	status, _ = srv.do(t, fiber.MethodPost, "/board/clear-new", "", "")
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body = srv.do(t, fiber.MethodGet, "/board", "", "")
	require.Equal(t, fiber.StatusOK, status)
	entries := body["data"].(map[string]any)["tickets"].([]any)
	require.NotEmpty(t, entries)
	for _, entry := range entries {
		assert.Equal(t, false, entry.(map[string]any)["is_new"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, fiber.MethodGet, "/health/live", "", "")

	req := httptest.NewRequest(fiber.MethodGet, "/metrics", nil)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "helpdesk_http_total_requests")
}
