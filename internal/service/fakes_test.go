package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type memTickets struct {
	mu       sync.Mutex
	seq      int
	rows     map[string]domain.Ticket
	order    map[string]int
	profiles *memProfiles
	fail     error
}

func newMemTickets(profiles *memProfiles) *memTickets {
	return &memTickets{rows: map[string]domain.Ticket{}, order: map[string]int{}, profiles: profiles}
}

func (m *memTickets) Create(_ context.Context, t *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.seq++
	t.ID = fmt.Sprintf("t-%d", m.seq)
	m.rows[t.ID] = *t
	m.order[t.ID] = m.seq
	return nil
}

func (m *memTickets) Update(_ context.Context, t *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.rows[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.rows[t.ID] = *t
	return nil
}

func (m *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	t, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (m *memTickets) GetViewByID(ctx context.Context, id string) (*domain.TicketView, error) {
	t, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := m.viewOf(*t)
	return &v, nil
}

func (m *memTickets) viewOf(t domain.Ticket) domain.TicketView {
	v := domain.TicketView{Ticket: t}
	if p, ok := m.profiles.lookup(t.CreatedBy); ok {
		v.Creator = domain.PersonRef{DisplayName: p.DisplayName, Email: p.Email}
	}
	if t.AssignedTo != nil {
		if p, ok := m.profiles.lookup(*t.AssignedTo); ok {
			v.Assignee = &domain.PersonRef{DisplayName: p.DisplayName, Email: p.Email}
		}
	}
	return v
}

func (m *memTickets) matching(filter repository.TicketFilter) []domain.TicketView {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TicketView
	for _, t := range m.rows {
		if filter.CreatedBy != nil && t.CreatedBy != *filter.CreatedBy {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, t.Priority) {
			continue
		}
		if filter.SearchTerm != nil {
			term := strings.ToLower(*filter.SearchTerm)
			if !strings.Contains(strings.ToLower(t.Subject), term) && !strings.Contains(strings.ToLower(t.Description), term) {
				continue
			}
		}
		out = append(out, m.viewOf(t))
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] > m.order[out[j].ID] })
	return out
}

func (m *memTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.TicketView, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	out := m.matching(filter)
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []domain.TicketView{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memTickets) Count(_ context.Context, filter repository.TicketFilter) (int, error) {
	if m.fail != nil {
		return 0, m.fail
	}
	return len(m.matching(filter)), nil
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, p domain.TicketPriority) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}

// updateFailure fails Update with err while err is set and delegates everything else.
type updateFailure struct {
	repository.TicketRepository
	err error
}

func (u *updateFailure) Update(ctx context.Context, t *domain.Ticket) error {
	if u.err != nil {
		return u.err
	}
	return u.TicketRepository.Update(ctx, t)
}

type memProfiles struct {
	mu        sync.Mutex
	seq       int
	rows      map[string]domain.Profile
	fail      error
	createErr error
}

func newMemProfiles(profiles ...domain.Profile) *memProfiles {
	m := &memProfiles{rows: map[string]domain.Profile{}}
	for _, p := range profiles {
		m.rows[p.ID] = p
	}
	return m
}

func (m *memProfiles) lookup(id string) (domain.Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	return p, ok
}

func (m *memProfiles) Create(_ context.Context, p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	p.ID = fmt.Sprintf("p-%d", m.seq)
	m.rows[p.ID] = *p
	return nil
}

func (m *memProfiles) UpdateRole(_ context.Context, id string, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Role = role
	m.rows[id] = p
	return nil
}

func (m *memProfiles) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.PasswordHash = hash
	m.rows[id] = p
	return nil
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	p, ok := m.lookup(id)
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (m *memProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	for _, p := range m.rows {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memProfiles) List(context.Context) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Profile, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memComments struct {
	mu   sync.Mutex
	rows []domain.TicketComment
}

func (m *memComments) Create(_ context.Context, c *domain.TicketComment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = fmt.Sprintf("c-%d", len(m.rows)+1)
	m.rows = append(m.rows, *c)
	return nil
}

func (m *memComments) ListByTicket(_ context.Context, ticketID string, includeInternal bool) ([]domain.TicketComment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.TicketComment{}
	for _, c := range m.rows {
		if c.TicketID != ticketID || (c.IsInternal && !includeInternal) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

type memVotes struct {
	mu   sync.Mutex
	rows map[string]domain.TicketVote
}

func newMemVotes() *memVotes {
	return &memVotes{rows: map[string]domain.TicketVote{}}
}

func (m *memVotes) Get(_ context.Context, ticketID, userID string) (*domain.TicketVote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[ticketID+"/"+userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &v, nil
}

func (m *memVotes) Upsert(_ context.Context, v *domain.TicketVote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[v.TicketID+"/"+v.UserID] = *v
	return nil
}

func (m *memVotes) Delete(_ context.Context, ticketID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, ticketID+"/"+userID)
	return nil
}

type memCategories struct {
	mu    sync.Mutex
	rows  []domain.Category
	lists int
	fail  error
}

func (m *memCategories) Create(_ context.Context, c *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = fmt.Sprintf("cat-%d", len(m.rows)+1)
	m.rows = append(m.rows, *c)
	return nil
}

func (m *memCategories) GetByID(_ context.Context, id string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	for _, c := range m.rows {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memCategories) List(context.Context) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	return append([]domain.Category{}, m.rows...), nil
}

type memHistory struct {
	mu   sync.Mutex
	rows []domain.TicketHistory
}

func (m *memHistory) Create(_ context.Context, h *domain.TicketHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = fmt.Sprintf("h-%d", len(m.rows)+1)
	m.rows = append(m.rows, *h)
	return nil
}

func (m *memHistory) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.TicketHistory{}
	for _, h := range m.rows {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}
