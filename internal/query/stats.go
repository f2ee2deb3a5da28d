package query

import "github.com/spec-kit/helpdesk/internal/domain"

// Stats counts tickets by status.
type Stats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
	Closed     int `json:"closed"`
}

// ComputeStats counts the given tickets from scratch.
func ComputeStats[T domain.Ticketed](tickets []T) Stats {
	stats := Stats{Total: len(tickets)}
	for _, item := range tickets {
		switch item.Base().Status {
		case domain.TicketStatusOpen:
			stats.Open++
		case domain.TicketStatusInProgress:
			stats.InProgress++
		case domain.TicketStatusResolved:
			stats.Resolved++
		case domain.TicketStatusClosed:
			stats.Closed++
		}
	}
	return stats
}
