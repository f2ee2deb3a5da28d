// Package dashboard holds the per-profile dashboard state: the role-scoped ticket
// set loaded from storage and the filtered result derived from it.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Source fetches the tickets visible to a profile, newest first.
type Source interface {
	ListForProfile(ctx context.Context, profile *domain.Profile) ([]domain.TicketView, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, profile *domain.Profile) ([]domain.TicketView, error)

func (f SourceFunc) ListForProfile(ctx context.Context, profile *domain.Profile) ([]domain.TicketView, error) {
	return f(ctx, profile)
}

// Result is the dashboard payload: the filtered tickets plus counts over the whole
// scoped set.
type Result struct {
	Tickets []domain.TicketView
	Stats   query.Stats
	Shown   int
	Total   int
}

// View is one profile's dashboard. Loads are numbered; a load whose number is lower
// than the last applied one is dropped when it completes. Tickets pushed in while a
// load is in flight are replayed onto its result, since its fetch may predate them.
type View struct {
	source  Source
	profile *domain.Profile
	now     func() time.Time

	mu       sync.Mutex
	issued   uint64
	applied  uint64
	tickets  []domain.TicketView
	pending  []mutation
	loadedAt time.Time
}

// mutation is a pushed ticket tagged with the load number current when it arrived.
type mutation struct {
	after   uint64
	ticket  domain.TicketView
	prepend bool
}

// NewView creates an empty view for profile.
func NewView(source Source, profile *domain.Profile) *View {
	return &View{source: source, profile: profile, now: time.Now}
}

// Load fetches the scoped ticket set. It reports whether the fetched set was applied;
// false with a nil error means a newer load already completed. On error the current
// tickets are kept and a persistence error is returned.
func (v *View) Load(ctx context.Context) (bool, error) {
	v.mu.Lock()
	v.issued++
	seq := v.issued
	profile := v.profile
	v.mu.Unlock()

	tickets, err := v.source.ListForProfile(ctx, profile)
	if err != nil {
		return false, errorutil.NewPersistenceError(err)
	}
	scoped := access.Scope(profile, tickets)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq < v.applied {
		return false, nil
	}
	v.applied = seq
	v.tickets = scoped
	// Mutations made before this load was issued are in the fetched set already;
	// only those made after a later load was issued need to outlive this one.
	kept := v.pending[:0]
	for _, m := range v.pending {
		if m.after < seq {
			continue
		}
		v.applyLocked(m)
		if m.after > seq {
			kept = append(kept, m)
		}
	}
	v.pending = kept
	v.loadedAt = v.now()
	return true, nil
}

// Loaded reports whether any load has been applied.
func (v *View) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.applied > 0
}

// LoadedAt returns the time of the last applied load.
func (v *View) LoadedAt() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loadedAt
}

// Prepend puts a newly created ticket at the top of the set if the profile may see it.
func (v *View) Prepend(ticket domain.TicketView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !access.CanView(v.profile, ticket) {
		return
	}
	v.pushLocked(mutation{ticket: ticket, prepend: true})
}

// Replace swaps in an updated copy of a ticket already held by the view.
func (v *View) Replace(ticket domain.TicketView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pushLocked(mutation{ticket: ticket})
}

func (v *View) pushLocked(m mutation) {
	v.applyLocked(m)
	if v.issued > v.applied {
		m.after = v.issued
		v.pending = append(v.pending, m)
	}
}

// applyLocked is idempotent: a prepend of a ticket already held replaces it.
func (v *View) applyLocked(m mutation) {
	for i := range v.tickets {
		if v.tickets[i].ID == m.ticket.ID {
			v.tickets[i] = m.ticket
			return
		}
	}
	if m.prepend {
		v.tickets = append([]domain.TicketView{m.ticket}, v.tickets...)
	}
}

// Result filters the held tickets with c.
func (v *View) Result(c query.Criteria) Result {
	v.mu.Lock()
	all := make([]domain.TicketView, len(v.tickets))
	copy(all, v.tickets)
	v.mu.Unlock()

	shown := query.Filter(all, c)
	return Result{
		Tickets: shown,
		Stats:   query.ComputeStats(all),
		Shown:   len(shown),
		Total:   len(all),
	}
}
