package lifecycle

import (
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Policy decides whether a status change between two distinct states is legal.
type Policy interface {
	Name() string
	Allows(from, to domain.TicketStatus) bool
}

// Policy names accepted by PolicyByName.
const (
	PolicyFree        = "free"
	PolicyForwardOnly = "forward_only"
)

// TransitionTable is a Policy backed by an explicit adjacency list.
type TransitionTable struct {
	name  string
	edges map[domain.TicketStatus]map[domain.TicketStatus]struct{}
}

// NewTransitionTable builds a table from a from -> allowed targets mapping.
func NewTransitionTable(name string, edges map[domain.TicketStatus][]domain.TicketStatus) TransitionTable {
	table := TransitionTable{
		name:  name,
		edges: make(map[domain.TicketStatus]map[domain.TicketStatus]struct{}, len(edges)),
	}
	for from, targets := range edges {
		set := make(map[domain.TicketStatus]struct{}, len(targets))
		for _, to := range targets {
			set[to] = struct{}{}
		}
		table.edges[from] = set
	}
	return table
}

// Name identifies the table in logs and config.
func (t TransitionTable) Name() string {
	return t.name
}

// Allows reports whether from -> to is an edge of the table.
func (t TransitionTable) Allows(from, to domain.TicketStatus) bool {
	_, ok := t.edges[from][to]
	return ok
}

// FreeTransitions permits every change between distinct statuses.
func FreeTransitions() TransitionTable {
	edges := make(map[domain.TicketStatus][]domain.TicketStatus, len(domain.TicketStatuses))
	for _, from := range domain.TicketStatuses {
		for _, to := range domain.TicketStatuses {
			if from != to {
				edges[from] = append(edges[from], to)
			}
		}
	}
	return NewTransitionTable(PolicyFree, edges)
}

// ForwardOnly walks open -> in_progress -> resolved -> closed. Resolved and closed
// tickets may be reopened to open or in_progress.
func ForwardOnly() TransitionTable {
	return NewTransitionTable(PolicyForwardOnly, map[domain.TicketStatus][]domain.TicketStatus{
		domain.TicketStatusOpen:       {domain.TicketStatusInProgress},
		domain.TicketStatusInProgress: {domain.TicketStatusResolved},
		domain.TicketStatusResolved:   {domain.TicketStatusClosed, domain.TicketStatusOpen, domain.TicketStatusInProgress},
		domain.TicketStatusClosed:     {domain.TicketStatusOpen, domain.TicketStatusInProgress},
	})
}

// PolicyByName resolves a configured policy name.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyFree:
		return FreeTransitions(), nil
	case PolicyForwardOnly:
		return ForwardOnly(), nil
	}
	return nil, fmt.Errorf("unknown lifecycle policy %q", name)
}
