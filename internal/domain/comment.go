package domain

import "time"

// TicketComment captures communication in a ticket thread. Internal comments are
// visible to agents and admins only.
type TicketComment struct {
	ID            string
	TicketID      string
	UserID        string
	Content       string
	AttachmentURL *string
	IsInternal    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
