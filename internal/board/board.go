// Package board keeps the in-memory demo ticket stack shown on the landing page.
package board

import (
	"fmt"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/intake"
	"github.com/spec-kit/helpdesk/internal/query"
)

// DefaultNewMarkerDelay is how long a freshly added ticket keeps its IsNew marker.
const DefaultNewMarkerDelay = 500 * time.Millisecond

// Entry is a board ticket plus its presentation marker.
type Entry struct {
	domain.Ticket
	IsNew bool `json:"is_new"`
}

// Board is a most-recent-first collection. All methods are safe for concurrent use.
type Board struct {
	mu        sync.Mutex
	entries   []Entry
	validator *intake.Validator
	now       func() time.Time
	delay     time.Duration
	timer     *time.Timer
	seq       uint64
}

// Option configures a Board.
type Option func(*Board)

// WithClock overrides time.Now for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		if now != nil {
			b.now = now
		}
	}
}

// WithNewMarkerDelay sets the marker lifetime. Zero or negative disables automatic clearing.
func WithNewMarkerDelay(d time.Duration) Option {
	return func(b *Board) {
		b.delay = d
	}
}

// WithEntries replaces the seeded sample tickets.
func WithEntries(tickets []domain.Ticket) Option {
	return func(b *Board) {
		b.entries = make([]Entry, 0, len(tickets))
		for _, t := range tickets {
			b.entries = append(b.entries, Entry{Ticket: t})
		}
	}
}

// New returns a board seeded with the sample tickets.
func New(opts ...Option) *Board {
	b := &Board{now: time.Now, delay: DefaultNewMarkerDelay}
	WithEntries(SampleTickets())(b)
	for _, opt := range opts {
		opt(b)
	}
	b.validator = intake.NewValidator(b.now)
	return b
}

// Add validates the candidate with the board flow and pushes it onto the top of the
// stack marked as new. The marker is cleared after the configured delay; each Add
// restarts that delay for the whole board.
func (b *Board) Add(c intake.Candidate) (Entry, error) {
	ticket, err := b.validator.Validate(c, intake.FlowBoard)
	if err != nil {
		return Entry{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	ticket.ID = fmt.Sprintf("ticket-%d-%d", ticket.CreatedAt.UnixNano(), b.seq)

	entry := Entry{Ticket: *ticket, IsNew: true}
	b.entries = append([]Entry{entry}, b.entries...)
	b.scheduleClearLocked()
	return entry, nil
}

func (b *Board) scheduleClearLocked() {
	if b.delay <= 0 {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, b.ClearNew)
}

// ClearNew drops the IsNew marker from every entry.
func (b *Board) ClearNew() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.entries {
		b.entries[i].IsNew = false
	}
}

// Snapshot returns a copy of the entries, newest first.
func (b *Board) Snapshot() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Stats counts the board entries by status.
func (b *Board) Stats() query.Stats {
	return query.ComputeStats(b.Snapshot())
}

// Stop cancels a pending marker reset.
func (b *Board) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// SampleTickets returns the tickets a fresh board starts with.
func SampleTickets() []domain.Ticket {
	day := func(d int) time.Time { return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC) }
	person := func(name string) *string { return &name }
	resolved := day(13)

	return []domain.Ticket{
		{
			ID:          "1",
			Subject:     "User authentication not working",
			Description: "Users are unable to log in to the system. The authentication service appears to be down.",
			Status:      domain.TicketStatusOpen,
			Priority:    domain.TicketPriorityHigh,
			CreatedBy:   "John Doe",
			AssignedTo:  person("John Doe"),
			CreatedAt:   day(15),
			UpdatedAt:   day(15),
		},
		{
			ID:          "2",
			Subject:     "Dashboard loading slowly",
			Description: "The main dashboard takes more than 10 seconds to load, causing poor user experience.",
			Status:      domain.TicketStatusInProgress,
			Priority:    domain.TicketPriorityMedium,
			CreatedBy:   "Jane Smith",
			AssignedTo:  person("Jane Smith"),
			CreatedAt:   day(14),
			UpdatedAt:   day(14),
		},
		{
			ID:          "3",
			Subject:     "Mobile app crashes on startup",
			Description: "iOS users report that the app crashes immediately upon opening.",
			Status:      domain.TicketStatusResolved,
			Priority:    domain.TicketPriorityUrgent,
			CreatedBy:   "Mike Johnson",
			AssignedTo:  person("Mike Johnson"),
			CreatedAt:   day(13),
			UpdatedAt:   day(13),
			ResolvedAt:  &resolved,
		},
	}
}
