package dto

import (
	"github.com/spec-kit/helpdesk/internal/board"
	"github.com/spec-kit/helpdesk/internal/query"
)

// BoardTicketRequest payload for the demo board form.
type BoardTicketRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Assignee    string `json:"assignee"`
}

// BoardEntryResponse is a board ticket with its new marker.
type BoardEntryResponse struct {
	TicketResponse
	IsNew bool `json:"is_new"`
}

// BoardResponse is the whole demo board.
type BoardResponse struct {
	Tickets []BoardEntryResponse `json:"tickets"`
	Stats   query.Stats          `json:"stats"`
}

// NewBoardEntryResponse maps a board entry.
func NewBoardEntryResponse(e board.Entry) BoardEntryResponse {
	return BoardEntryResponse{TicketResponse: NewTicketResponse(e.Ticket), IsNew: e.IsNew}
}
