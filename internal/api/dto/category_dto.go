package dto

import "github.com/spec-kit/helpdesk/internal/domain"

// CategoryRequest payload for new categories.
type CategoryRequest struct {
	Name        string  `json:"name"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

// CategoryResponse represents a category.
type CategoryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

// NewCategoryResponse maps a category.
func NewCategoryResponse(c domain.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Color: c.Color, Description: c.Description}
}
