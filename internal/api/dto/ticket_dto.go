package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject       string  `json:"subject"`
	Description   string  `json:"description"`
	Priority      string  `json:"priority"`
	AssignedTo    *string `json:"assigned_to"`
	CategoryID    *string `json:"category_id"`
	AttachmentURL *string `json:"attachment_url"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority string `json:"priority"`
}

// AssignRequest payload. A null or blank assignee clears the assignment.
type AssignRequest struct {
	AssignedTo *string `json:"assigned_to"`
}

// VoteRequest payload.
type VoteRequest struct {
	VoteType string `json:"vote_type"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content       string  `json:"content"`
	IsInternal    bool    `json:"is_internal"`
	AttachmentURL *string `json:"attachment_url"`
}

// PersonResponse is the display data of a creator or assignee.
type PersonResponse struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// CategoryRefResponse is the category data shown on a ticket.
type CategoryRefResponse struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

// TicketResponse is a ticket with its joined display data.
type TicketResponse struct {
	ID            string                `json:"id"`
	Subject       string                `json:"subject"`
	Description   string                `json:"description"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	CreatedBy     string                `json:"created_by"`
	AssignedTo    *string               `json:"assigned_to"`
	CategoryID    *string               `json:"category_id"`
	AttachmentURL *string               `json:"attachment_url"`
	Upvotes       int                   `json:"upvotes"`
	Downvotes     int                   `json:"downvotes"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ResolvedAt    *time.Time            `json:"resolved_at"`
	ClosedAt      *time.Time            `json:"closed_at"`
	Category      *CategoryRefResponse  `json:"category,omitempty"`
	Creator       *PersonResponse       `json:"creator,omitempty"`
	Assignee      *PersonResponse       `json:"assignee,omitempty"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Tickets  []TicketResponse `json:"tickets"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// CommentResponse represents a thread comment.
type CommentResponse struct {
	ID            string    `json:"id"`
	TicketID      string    `json:"ticket_id"`
	UserID        string    `json:"user_id"`
	Content       string    `json:"content"`
	AttachmentURL *string   `json:"attachment_url"`
	IsInternal    bool      `json:"is_internal"`
	CreatedAt     time.Time `json:"created_at"`
}

// TicketHistoryResponse represents an audit entry.
type TicketHistoryResponse struct {
	ID         string                  `json:"id"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	ChangedBy  *string                 `json:"changed_by"`
	OldValue   map[string]any          `json:"old_value"`
	NewValue   map[string]any          `json:"new_value"`
	CreatedAt  time.Time               `json:"created_at"`
}

// DashboardResponse is the filtered dashboard with counts over the scoped set.
type DashboardResponse struct {
	Tickets []TicketResponse `json:"tickets"`
	Stats   query.Stats      `json:"stats"`
	Shown   int              `json:"shown"`
	Total   int              `json:"total"`
}

// NewTicketResponse maps a bare ticket.
func NewTicketResponse(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:            t.ID,
		Subject:       t.Subject,
		Description:   t.Description,
		Status:        t.Status,
		Priority:      t.Priority,
		CreatedBy:     t.CreatedBy,
		AssignedTo:    t.AssignedTo,
		CategoryID:    t.CategoryID,
		AttachmentURL: t.AttachmentURL,
		Upvotes:       t.Upvotes,
		Downvotes:     t.Downvotes,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		ResolvedAt:    t.ResolvedAt,
		ClosedAt:      t.ClosedAt,
	}
}

// NewTicketViewResponse maps a joined ticket.
func NewTicketViewResponse(v domain.TicketView) TicketResponse {
	resp := NewTicketResponse(v.Ticket)
	if v.Category != nil {
		resp.Category = &CategoryRefResponse{Name: v.Category.Name, Color: v.Category.Color}
	}
	if v.Creator != (domain.PersonRef{}) {
		resp.Creator = &PersonResponse{DisplayName: v.Creator.DisplayName, Email: v.Creator.Email}
	}
	if v.Assignee != nil {
		resp.Assignee = &PersonResponse{DisplayName: v.Assignee.DisplayName, Email: v.Assignee.Email}
	}
	return resp
}

// NewTicketViewResponses maps a list of joined tickets.
func NewTicketViewResponses(views []domain.TicketView) []TicketResponse {
	out := make([]TicketResponse, 0, len(views))
	for _, v := range views {
		out = append(out, NewTicketViewResponse(v))
	}
	return out
}

// NewCommentResponse maps a comment.
func NewCommentResponse(c domain.TicketComment) CommentResponse {
	return CommentResponse{
		ID:            c.ID,
		TicketID:      c.TicketID,
		UserID:        c.UserID,
		Content:       c.Content,
		AttachmentURL: c.AttachmentURL,
		IsInternal:    c.IsInternal,
		CreatedAt:     c.CreatedAt,
	}
}

// NewHistoryResponses maps audit entries.
func NewHistoryResponses(entries []domain.TicketHistory) []TicketHistoryResponse {
	resp := make([]TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, TicketHistoryResponse{
			ID:         entry.ID,
			ChangeType: entry.ChangeType,
			ChangedBy:  entry.ChangedBy,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return resp
}
