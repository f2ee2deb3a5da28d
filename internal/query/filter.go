// Package query filters role-scoped ticket sets and derives dashboard statistics.
package query

import (
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AllValues is the wildcard for the status and priority filters.
const AllValues = "all"

// Criteria is the dashboard filter. Status and Priority hold a wire value or AllValues.
type Criteria struct {
	SearchTerm string
	Status     string
	Priority   string
}

// MatchAll is the criteria that keeps every ticket.
var MatchAll = Criteria{Status: AllValues, Priority: AllValues}

// ParseCriteria normalizes request input: blank filters become AllValues and any other
// value must belong to its enumeration.
func ParseCriteria(search, status, priority string) (Criteria, error) {
	c := Criteria{
		SearchTerm: search,
		Status:     normalizeFilter(status),
		Priority:   normalizeFilter(priority),
	}
	if c.Status != AllValues {
		if _, err := domain.ParseTicketStatus(c.Status); err != nil {
			return Criteria{}, err
		}
	}
	if c.Priority != AllValues {
		if _, err := domain.ParseTicketPriority(c.Priority); err != nil {
			return Criteria{}, err
		}
	}
	return c, nil
}

func normalizeFilter(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, AllValues) {
		return AllValues
	}
	return v
}

// Matches reports whether a ticket satisfies the search term, the status filter and
// the priority filter.
func (c Criteria) Matches(t domain.Ticket) bool {
	return c.matches(t, strings.ToLower(c.SearchTerm))
}

// matches takes the lowered search term so Filter lowers it once per call.
func (c Criteria) matches(t domain.Ticket, term string) bool {
	if c.Status != AllValues && string(t.Status) != c.Status {
		return false
	}
	if c.Priority != AllValues && string(t.Priority) != c.Priority {
		return false
	}
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Subject), term) ||
		strings.Contains(strings.ToLower(t.Description), term)
}

// Filter returns the tickets matching c in their input order. Callers sort the base
// sequence (newest first) before filtering.
func Filter[T domain.Ticketed](tickets []T, c Criteria) []T {
	term := strings.ToLower(c.SearchTerm)
	out := make([]T, 0, len(tickets))
	for _, item := range tickets {
		if c.matches(item.Base(), term) {
			out = append(out, item)
		}
	}
	return out
}
