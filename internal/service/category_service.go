package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const categoryCacheKey = "helpdesk:categories"

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// CategoryCache is the subset of the Redis wrapper the category service uses.
type CategoryCache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CategoryService lists and manages ticket categories behind a read-through cache.
type CategoryService struct {
	categories repository.CategoryRepository
	cache      CategoryCache
	ttl        time.Duration
	logger     *zap.Logger
}

// CategoryInput is the create payload.
type CategoryInput struct {
	Name        string
	Color       *string
	Description *string
}

// cachedCategory is the cache encoding; domain types carry no wire tags.
type cachedCategory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Color       *string   `json:"color,omitempty"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCategoryService constructs the service. cache may be nil.
func NewCategoryService(categories repository.CategoryRepository, cache CategoryCache, ttl time.Duration, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{categories: categories, cache: cache, ttl: ttl, logger: logger}
}

// ListCategories returns all categories ordered by name.
func (s *CategoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if s.cache != nil {
		var cached []cachedCategory
		err := s.cache.GetJSON(ctx, categoryCacheKey, &cached)
		if err == nil {
			return fromCache(cached), nil
		}
		if !errors.Is(err, persistence.ErrCacheMiss) {
			s.logger.Warn("category cache read failed", zap.Error(err))
		}
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, storeError(err, "category", "")
	}
	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.SetJSON(ctx, categoryCacheKey, toCache(categories), s.ttl); err != nil {
			s.logger.Warn("category cache write failed", zap.Error(err))
		}
	}
	return categories, nil
}

// CreateCategory adds a category. Admin only.
func (s *CategoryService) CreateCategory(ctx context.Context, actor *domain.Profile, input CategoryInput) (*domain.Category, error) {
	if err := requireAction(actor, access.ActionManageCategories); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", map[string]any{"field": "name", "reason": "missing"})
	}
	color := trimOptional(input.Color)
	if color != nil && !hexColor.MatchString(*color) {
		return nil, apperrors.NewValidationError("color must be #rrggbb", map[string]any{"field": "color", "reason": "invalid_format"})
	}

	category := &domain.Category{Name: name, Color: color, Description: trimOptional(input.Description)}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, storeError(err, "category", "")
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, categoryCacheKey); err != nil {
			s.logger.Warn("category cache invalidation failed", zap.Error(err))
		}
	}
	return category, nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toCache(categories []domain.Category) []cachedCategory {
	out := make([]cachedCategory, len(categories))
	for i, c := range categories {
		out[i] = cachedCategory{ID: c.ID, Name: c.Name, Color: c.Color, Description: c.Description, CreatedAt: c.CreatedAt}
	}
	return out
}

func fromCache(cached []cachedCategory) []domain.Category {
	out := make([]domain.Category, len(cached))
	for i, c := range cached {
		out[i] = domain.Category{ID: c.ID, Name: c.Name, Color: c.Color, Description: c.Description, CreatedAt: c.CreatedAt}
	}
	return out
}
