package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const minPasswordLength = 8

// AuthService coordinates registration and login flows.
type AuthService struct {
	profiles   repository.ProfileRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	DisplayName string
	Email       string
	Password    string
}

// Session is an issued access token for a profile.
type Session struct {
	Profile   *domain.Profile
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, profiles repository.ProfileRepository) *AuthService {
	return &AuthService{
		profiles:   profiles,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a profile with the user role and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"field": "email", "reason": "invalid_format"})
	}
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, apperrors.NewValidationError("display name required", map[string]any{"field": "display_name", "reason": "missing"})
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"field": "password", "reason": "too_short"})
	}

	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, storeError(err, "profile", "")
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	profile := &domain.Profile{
		UserID:       uuid.NewString(),
		DisplayName:  name,
		Email:        email,
		Role:         domain.RoleUser,
		PasswordHash: hash,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		// A concurrent sign-up with the same address wins the unique index.
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, storeError(err, "profile", "")
	}
	return s.issue(profile)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	profile, err := s.profiles.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, storeError(err, "profile", "")
	}
	if err := auth.ComparePassword(profile.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(profile)
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, profile *domain.Profile, currentPassword, newPassword string) error {
	if err := requireProfile(profile); err != nil {
		return err
	}
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"field": "new_password", "reason": "too_short"})
	}
	stored, err := s.profiles.GetByID(ctx, profile.ID)
	if err != nil {
		return storeError(err, "profile", profile.ID)
	}
	if err := auth.ComparePassword(stored.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return storeError(s.profiles.UpdatePassword(ctx, profile.ID, hash), "profile", profile.ID)
}

func (s *AuthService) issue(profile *domain.Profile) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(profile)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{Profile: profile, Token: token, ExpiresAt: exp}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
