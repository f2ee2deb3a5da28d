package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/dashboard"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// ProfileService manages profiles and their roles.
type ProfileService struct {
	profiles   repository.ProfileRepository
	dashboards *dashboard.Registry
	logger     *zap.Logger
}

// NewProfileService constructs the service.
func NewProfileService(profiles repository.ProfileRepository, dashboards *dashboard.Registry, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{profiles: profiles, dashboards: dashboards, logger: logger}
}

// ListProfiles returns every profile. Admin only.
func (s *ProfileService) ListProfiles(ctx context.Context, actor *domain.Profile) ([]domain.Profile, error) {
	if err := requireAction(actor, access.ActionManageRoles); err != nil {
		return nil, err
	}
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, storeError(err, "profile", "")
	}
	return profiles, nil
}

// ListAssignees returns the agents and admins a ticket can be assigned to.
func (s *ProfileService) ListAssignees(ctx context.Context, actor *domain.Profile) ([]domain.Profile, error) {
	if err := requireAction(actor, access.ActionAssign); err != nil {
		return nil, err
	}
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, storeError(err, "profile", "")
	}
	assignees := make([]domain.Profile, 0, len(profiles))
	for _, p := range profiles {
		if access.HasAtLeastRole(&p, domain.RoleAgent) {
			assignees = append(assignees, p)
		}
	}
	return assignees, nil
}

// UpdateRole changes the role of a profile. Admin only.
func (s *ProfileService) UpdateRole(ctx context.Context, actor *domain.Profile, profileID, rawRole string) (*domain.Profile, error) {
	if err := requireAction(actor, access.ActionManageRoles); err != nil {
		return nil, err
	}
	role, err := domain.ParseAssignableRole(rawRole)
	if err != nil {
		return nil, validationError(err)
	}
	target, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, storeError(err, "profile", profileID)
	}
	if target.Role == role {
		return target, nil
	}
	if err := s.profiles.UpdateRole(ctx, profileID, role); err != nil {
		return nil, storeError(err, "profile", profileID)
	}
	s.logger.Info("profile role changed",
		zap.String("profile_id", profileID),
		zap.Stringer("from", target.Role),
		zap.Stringer("to", role),
		zap.String("by", actor.ID))
	target.Role = role
	if s.dashboards != nil {
		s.dashboards.Forget(profileID)
	}
	return target, nil
}

// requireAction checks a ticket-independent action against the actor's role.
func requireAction(actor *domain.Profile, action access.Action) error {
	if err := requireProfile(actor); err != nil {
		return err
	}
	if !access.Can(actor, action, nil) {
		return apperrors.NewForbidden("insufficient role")
	}
	return nil
}
