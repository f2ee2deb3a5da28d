package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/dashboard"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// NewTicketSource reads a profile's scoped ticket set straight from the repository.
func NewTicketSource(tickets repository.TicketRepository) dashboard.Source {
	return dashboard.SourceFunc(func(ctx context.Context, profile *domain.Profile) ([]domain.TicketView, error) {
		return tickets.List(ctx, repository.TicketFilter{CreatedBy: access.CreatedByScope(profile)})
	})
}

// DashboardService serves the per-profile dashboard.
type DashboardService struct {
	registry *dashboard.Registry
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(registry *dashboard.Registry, metrics *observability.Metrics, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{registry: registry, metrics: metrics, logger: logger}
}

// Dashboard loads the profile's view when it is empty or refresh is set, then filters
// it with c. A failed load keeps whatever the view already held.
func (s *DashboardService) Dashboard(ctx context.Context, profile *domain.Profile, c query.Criteria, refresh bool) (dashboard.Result, error) {
	if err := requireProfile(profile); err != nil {
		return dashboard.Result{}, err
	}
	view := s.registry.For(profile)
	if refresh || !view.Loaded() {
		applied, err := view.Load(ctx)
		switch {
		case err != nil:
			s.metrics.RecordDashboardLoad(observability.LoadFailed)
			s.logger.Error("dashboard load failed", zap.String("profile_id", profile.ID), zap.Error(err))
			return dashboard.Result{}, err
		case applied:
			s.metrics.RecordDashboardLoad(observability.LoadApplied)
		default:
			s.metrics.RecordDashboardLoad(observability.LoadSuperseded)
		}
	}
	return view.Result(c), nil
}
