package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const profileKey = "auth_profile"

// ProfileGetter loads a profile by id.
type ProfileGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
}

// AuthMiddleware validates bearer tokens and loads the caller's profile.
type AuthMiddleware struct {
	tokens   *TokenManager
	profiles ProfileGetter
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, profiles ProfileGetter) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, profiles: profiles}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	profile, err := m.profiles.GetByID(c.UserContext(), claims.ProfileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("profile not found")
		}
		return apperrors.NewPersistenceError(err)
	}

	c.Locals(profileKey, profile)
	return c.Next()
}

// ProfileFromContext retrieves the authenticated profile.
func ProfileFromContext(c *fiber.Ctx) (*domain.Profile, bool) {
	profile, ok := c.Locals(profileKey).(*domain.Profile)
	return profile, ok && profile != nil
}

// WithProfile stores profile on the request, for handlers mounted behind other
// authentication schemes and for tests.
func WithProfile(c *fiber.Ctx, profile *domain.Profile) {
	c.Locals(profileKey, profile)
}
