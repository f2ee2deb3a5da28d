package dashboard

import (
	"sync"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Registry hands out one View per profile. With an idle TTL, views not requested
// for that long are dropped on a later request; a dropped view reloads on next use.
type Registry struct {
	source  Source
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	views     map[string]*registered
	lastSweep time.Time
}

type registered struct {
	view   *View
	usedAt time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithIdleTTL evicts views unused for d. Zero keeps views until Forget.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) { r.idleTTL = d }
}

// WithRegistryClock overrides the clock used for idle tracking.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry builds a registry whose views read from source.
func NewRegistry(source Source, opts ...RegistryOption) *Registry {
	r := &Registry{source: source, now: time.Now, views: make(map[string]*registered)}
	for _, opt := range opts {
		opt(r)
	}
	r.lastSweep = r.now()
	return r
}

// For returns the profile's view, creating it on first use. A role change discards
// the previous view because its scoped set no longer applies.
func (r *Registry) For(profile *domain.Profile) *View {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweepLocked(now)
	if e, ok := r.views[profile.ID]; ok && e.view.profile.Role == profile.Role {
		e.usedAt = now
		return e.view
	}
	v := NewView(r.source, profile)
	r.views[profile.ID] = &registered{view: v, usedAt: now}
	return v
}

func (r *Registry) sweepLocked(now time.Time) {
	if r.idleTTL <= 0 || now.Sub(r.lastSweep) < r.idleTTL {
		return
	}
	for id, e := range r.views {
		if now.Sub(e.usedAt) >= r.idleTTL {
			delete(r.views, id)
		}
	}
	r.lastSweep = now
}

// Len returns the number of views held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Each calls fn for every view currently held.
func (r *Registry) Each(fn func(*View)) {
	r.mu.Lock()
	views := make([]*View, 0, len(r.views))
	for _, e := range r.views {
		views = append(views, e.view)
	}
	r.mu.Unlock()
	for _, v := range views {
		fn(v)
	}
}

// Forget drops the profile's view.
func (r *Registry) Forget(profileID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.views, profileID)
}
