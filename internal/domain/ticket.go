package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketPriorities lists every priority from least to most urgent.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityUrgent,
}

// Valid reports membership in the closed status set.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Valid reports membership in the closed priority set.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// ParseTicketStatus converts a wire value into a TicketStatus.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	status := TicketStatus(strings.TrimSpace(raw))
	if !status.Valid() {
		return "", &FieldError{Field: "status", Kind: InvalidEnum, Value: raw}
	}
	return status, nil
}

// ParseTicketPriority converts a wire value into a TicketPriority.
func ParseTicketPriority(raw string) (TicketPriority, error) {
	priority := TicketPriority(strings.TrimSpace(raw))
	if !priority.Valid() {
		return "", &FieldError{Field: "priority", Kind: InvalidEnum, Value: raw}
	}
	return priority, nil
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID            string
	Subject       string
	Description   string
	Status        TicketStatus
	Priority      TicketPriority
	CreatedBy     string
	AssignedTo    *string
	CategoryID    *string
	AttachmentURL *string
	Upvotes       int
	Downvotes     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ResolvedAt    *time.Time
	ClosedAt      *time.Time
}

// Base returns the ticket itself. Types embedding Ticket inherit it, which lets the
// filtering and scoping helpers accept both bare tickets and joined views.
func (t Ticket) Base() Ticket {
	return t
}

// Ticketed is satisfied by Ticket and by every type that embeds it.
type Ticketed interface {
	Base() Ticket
}

// CategoryRef is the category display data joined onto a ticket.
type CategoryRef struct {
	Name  string
	Color *string
}

// PersonRef is the profile display data joined onto a ticket.
type PersonRef struct {
	DisplayName string
	Email       string
}

// TicketView is a ticket joined with its category, creator and assignee.
type TicketView struct {
	Ticket
	Category *CategoryRef
	Creator  PersonRef
	Assignee *PersonRef
}

