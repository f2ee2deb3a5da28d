package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

type reply struct {
	tickets []domain.TicketView
	err     error
}

// gatedSource blocks call n until gates[n] receives a reply.
type gatedSource struct {
	calls   int32
	started chan int
	gates   []chan reply
}

func newGatedSource(n int) *gatedSource {
	s := &gatedSource{started: make(chan int, n), gates: make([]chan reply, n)}
	for i := range s.gates {
		s.gates[i] = make(chan reply, 1)
	}
	return s
}

func (s *gatedSource) ListForProfile(ctx context.Context, _ *domain.Profile) ([]domain.TicketView, error) {
	n := int(atomic.AddInt32(&s.calls, 1)) - 1
	s.started <- n
	select {
	case r := <-s.gates[n]:
		return r.tickets, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type loadOutcome struct {
	applied bool
	err     error
}

func startLoad(v *View, s *gatedSource) <-chan loadOutcome {
	out := make(chan loadOutcome, 1)
	go func() {
		applied, err := v.Load(context.Background())
		out <- loadOutcome{applied, err}
	}()
	<-s.started
	return out
}

func view(id, owner string, status domain.TicketStatus) domain.TicketView {
	return domain.TicketView{Ticket: domain.Ticket{
		ID: id, Subject: "subject " + id, Description: "d", CreatedBy: owner,
		Status: status, Priority: domain.TicketPriorityMedium,
	}}
}

func ids(tickets []domain.TicketView) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}

var agent = &domain.Profile{ID: "a1", Role: domain.RoleAgent}

func TestStaleLoadIsDiscarded(t *testing.T) {
	src := newGatedSource(2)
	v := NewView(src, agent)

	first := startLoad(v, src)
	second := startLoad(v, src)

	src.gates[1] <- reply{tickets: []domain.TicketView{view("new", "u1", domain.TicketStatusOpen)}}
	got := <-second
	require.NoError(t, got.err)
	assert.True(t, got.applied)

	src.gates[0] <- reply{tickets: []domain.TicketView{view("old", "u1", domain.TicketStatusOpen)}}
	got = <-first
	require.NoError(t, got.err)
	assert.False(t, got.applied)

	assert.Equal(t, []string{"new"}, ids(v.Result(query.MatchAll).Tickets))
}

func TestInOrderLoadsBothApply(t *testing.T) {
	src := newGatedSource(2)
	v := NewView(src, agent)

	first := startLoad(v, src)
	second := startLoad(v, src)

	src.gates[0] <- reply{tickets: []domain.TicketView{view("old", "u1", domain.TicketStatusOpen)}}
	assert.True(t, (<-first).applied)
	src.gates[1] <- reply{tickets: []domain.TicketView{view("new", "u1", domain.TicketStatusOpen)}}
	assert.True(t, (<-second).applied)

	assert.Equal(t, []string{"new"}, ids(v.Result(query.MatchAll).Tickets))
}

func TestFailedLoadKeepsPriorState(t *testing.T) {
	src := newGatedSource(2)
	v := NewView(src, agent)

	done := startLoad(v, src)
	src.gates[0] <- reply{tickets: []domain.TicketView{view("T1", "u1", domain.TicketStatusOpen)}}
	require.NoError(t, (<-done).err)

	done = startLoad(v, src)
	src.gates[1] <- reply{err: errors.New("connection refused")}
	got := <-done
	require.Error(t, got.err)
	assert.True(t, errorutil.IsCode(got.err, "PERSISTENCE_ERROR"))
	assert.False(t, got.applied)

	assert.Equal(t, []string{"T1"}, ids(v.Result(query.MatchAll).Tickets))
	assert.True(t, v.Loaded())
}

func TestLoadScopesUserProfile(t *testing.T) {
	user := &domain.Profile{ID: "u1", Role: domain.RoleUser}
	v := NewView(SourceFunc(func(context.Context, *domain.Profile) ([]domain.TicketView, error) {
		return []domain.TicketView{
			view("T1", "u1", domain.TicketStatusOpen),
			view("T2", "u2", domain.TicketStatusOpen),
		}, nil
	}), user)

	applied, err := v.Load(context.Background())
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, []string{"T1"}, ids(v.Result(query.MatchAll).Tickets))
}

func TestResultFiltersButCountsWholeSet(t *testing.T) {
	v := NewView(SourceFunc(func(context.Context, *domain.Profile) ([]domain.TicketView, error) {
		return []domain.TicketView{
			view("T3", "u1", domain.TicketStatusClosed),
			view("T2", "u1", domain.TicketStatusResolved),
			view("T1", "u2", domain.TicketStatusOpen),
		}, nil
	}), agent)
	_, err := v.Load(context.Background())
	require.NoError(t, err)

	res := v.Result(query.Criteria{Status: "open", Priority: query.AllValues})
	assert.Equal(t, []string{"T1"}, ids(res.Tickets))
	assert.Equal(t, 1, res.Shown)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, query.Stats{Total: 3, Open: 1, Resolved: 1, Closed: 1}, res.Stats)
}

func TestPrependRespectsScope(t *testing.T) {
	user := &domain.Profile{ID: "u1", Role: domain.RoleUser}
	v := NewView(SourceFunc(func(context.Context, *domain.Profile) ([]domain.TicketView, error) {
		return []domain.TicketView{view("T1", "u1", domain.TicketStatusOpen)}, nil
	}), user)
	_, err := v.Load(context.Background())
	require.NoError(t, err)

	v.Prepend(view("T2", "u1", domain.TicketStatusOpen))
	v.Prepend(view("X", "u9", domain.TicketStatusOpen))
	assert.Equal(t, []string{"T2", "T1"}, ids(v.Result(query.MatchAll).Tickets))

	updated := view("T1", "u1", domain.TicketStatusResolved)
	v.Replace(updated)
	assert.Equal(t, 1, v.Result(query.MatchAll).Stats.Resolved)
}

func TestRegistryReusesViewUntilRoleChanges(t *testing.T) {
	r := NewRegistry(SourceFunc(func(context.Context, *domain.Profile) ([]domain.TicketView, error) {
		return nil, nil
	}))

	p := &domain.Profile{ID: "p1", Role: domain.RoleUser}
	first := r.For(p)
	assert.Same(t, first, r.For(&domain.Profile{ID: "p1", Role: domain.RoleUser}))

	promoted := r.For(&domain.Profile{ID: "p1", Role: domain.RoleAgent})
	assert.NotSame(t, first, promoted)

	count := 0
	r.Each(func(*View) { count++ })
	assert.Equal(t, 1, count)

	r.Forget("p1")
	assert.NotSame(t, promoted, r.For(p))
}

func TestRegistryEvictsIdleViews(t *testing.T) {
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	r := NewRegistry(SourceFunc(func(context.Context, *domain.Profile) ([]domain.TicketView, error) {
		return nil, nil
	}), WithIdleTTL(time.Minute), WithRegistryClock(func() time.Time { return clock }))

	idle := r.For(&domain.Profile{ID: "idle", Role: domain.RoleUser})
	r.For(&domain.Profile{ID: "busy", Role: domain.RoleUser})

	clock = clock.Add(40 * time.Second)
	busy := r.For(&domain.Profile{ID: "busy", Role: domain.RoleUser})
	assert.Equal(t, 2, r.Len())

	clock = clock.Add(30 * time.Second)
	assert.Same(t, busy, r.For(&domain.Profile{ID: "busy", Role: domain.RoleUser}))
	assert.Equal(t, 1, r.Len())
	assert.NotSame(t, idle, r.For(&domain.Profile{ID: "idle", Role: domain.RoleUser}))
}

func TestPushDuringLoadSurvivesCompletion(t *testing.T) {
	src := newGatedSource(1)
	owner := &domain.Profile{ID: "u1", Role: domain.RoleUser}
	v := NewView(src, owner)

	done := startLoad(v, src)
	v.Prepend(view("created", "u1", domain.TicketStatusOpen))
	v.Replace(view("old", "u1", domain.TicketStatusResolved))
	src.gates[0] <- reply{tickets: []domain.TicketView{view("old", "u1", domain.TicketStatusOpen)}}
	outcome := <-done

	require.NoError(t, outcome.err)
	require.True(t, outcome.applied)
	result := v.Result(query.MatchAll)
	assert.Equal(t, []string{"created", "old"}, ids(result.Tickets))
	assert.Equal(t, 1, result.Stats.Resolved)
}

func TestPushDuringLoadIsNotDuplicated(t *testing.T) {
	src := newGatedSource(1)
	owner := &domain.Profile{ID: "u1", Role: domain.RoleUser}
	v := NewView(src, owner)

	done := startLoad(v, src)
	v.Prepend(view("created", "u1", domain.TicketStatusOpen))
	src.gates[0] <- reply{tickets: []domain.TicketView{
		view("created", "u1", domain.TicketStatusOpen),
		view("old", "u1", domain.TicketStatusOpen),
	}}
	<-done

	assert.Equal(t, []string{"created", "old"}, ids(v.Result(query.MatchAll).Tickets))
}
