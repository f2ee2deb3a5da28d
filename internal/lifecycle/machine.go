// Package lifecycle applies status, priority, assignment and vote mutations to a
// ticket together with their timestamp and counter side effects.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// InitialStatus is the status every ticket is created with.
const InitialStatus = domain.TicketStatusOpen

// ErrTransitionNotAllowed is returned when the active policy rejects a status change.
var ErrTransitionNotAllowed = errors.New("status transition not allowed")

// TransitionError names the rejected edge.
type TransitionError struct {
	From   domain.TicketStatus
	To     domain.TicketStatus
	Policy string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s policy does not allow %s -> %s", e.Policy, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrTransitionNotAllowed
}

// Change describes a single applied mutation, old and new values in wire form.
type Change struct {
	Type domain.TicketChangeType
	Old  *string
	New  *string
}

// Changed reports whether the mutation altered the value.
func (c Change) Changed() bool {
	if c.Old == nil || c.New == nil {
		return c.Old != c.New
	}
	return *c.Old != *c.New
}

// Machine mutates tickets under a transition Policy.
type Machine struct {
	policy Policy
	now    func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithPolicy replaces the default all-pairs policy.
func WithPolicy(p Policy) Option {
	return func(m *Machine) {
		if p != nil {
			m.policy = p
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMachine returns a machine using FreeTransitions unless configured otherwise.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{policy: FreeTransitions(), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the active transition policy.
func (m *Machine) Policy() Policy {
	return m.policy
}

// Initialize puts a freshly constructed ticket into its initial state.
func Initialize(t *domain.Ticket, now time.Time) {
	t.Status = InitialStatus
	t.CreatedAt = now
	t.UpdatedAt = now
	t.ResolvedAt = nil
	t.ClosedAt = nil
	t.Upvotes = 0
	t.Downvotes = 0
}

// Transition moves the ticket to status to. Entering resolved or closed stamps
// ResolvedAt or ClosedAt the first time only; leaving those states keeps the stamps.
// Re-entering the current status is permitted under every policy.
func (m *Machine) Transition(t *domain.Ticket, to domain.TicketStatus) (Change, error) {
	if !to.Valid() {
		return Change{}, &domain.FieldError{Field: "status", Kind: domain.InvalidEnum, Value: string(to)}
	}
	from := t.Status
	if from != to && !m.policy.Allows(from, to) {
		return Change{}, &TransitionError{From: from, To: to, Policy: m.policy.Name()}
	}

	now := m.now()
	switch to {
	case domain.TicketStatusResolved:
		if t.ResolvedAt == nil {
			t.ResolvedAt = &now
		}
	case domain.TicketStatusClosed:
		if t.ClosedAt == nil {
			t.ClosedAt = &now
		}
	}
	t.Status = to
	t.UpdatedAt = now
	return Change{Type: domain.ChangeTypeStatus, Old: strPtr(string(from)), New: strPtr(string(to))}, nil
}

// SetPriority changes the ticket priority.
func (m *Machine) SetPriority(t *domain.Ticket, p domain.TicketPriority) (Change, error) {
	if !p.Valid() {
		return Change{}, &domain.FieldError{Field: "priority", Kind: domain.InvalidEnum, Value: string(p)}
	}
	old := t.Priority
	t.Priority = p
	t.UpdatedAt = m.now()
	return Change{Type: domain.ChangeTypePriority, Old: strPtr(string(old)), New: strPtr(string(p))}, nil
}

// Assign sets or clears the assignee. A blank id clears it.
func (m *Machine) Assign(t *domain.Ticket, assignee *string) Change {
	old := t.AssignedTo
	if assignee != nil && strings.TrimSpace(*assignee) == "" {
		assignee = nil
	}
	if assignee != nil {
		id := strings.TrimSpace(*assignee)
		assignee = &id
	}
	t.AssignedTo = assignee
	t.UpdatedAt = m.now()
	return Change{Type: domain.ChangeTypeAssignee, Old: old, New: assignee}
}

// ApplyVote replaces a profile's previous vote (nil for none) with next (nil to
// retract) and adjusts the counters. Counters never drop below zero.
func (m *Machine) ApplyVote(t *domain.Ticket, previous, next *domain.VoteType) {
	if sameVote(previous, next) {
		return
	}
	if previous != nil {
		switch *previous {
		case domain.VoteUp:
			t.Upvotes = decrement(t.Upvotes)
		case domain.VoteDown:
			t.Downvotes = decrement(t.Downvotes)
		}
	}
	if next != nil {
		switch *next {
		case domain.VoteUp:
			t.Upvotes++
		case domain.VoteDown:
			t.Downvotes++
		}
	}
	t.UpdatedAt = m.now()
}

func sameVote(a, b *domain.VoteType) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func decrement(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}

func strPtr(s string) *string {
	return &s
}
