package repository

import (
	"context"
	"sync"

	"github.com/trustfundbaby/trustfund/internal/trust"
)

// MemoryRepo keeps everything in process memory. State is lost on restart.
// Slices of ids preserve insertion order for listings.
type MemoryRepo struct {
	mu sync.RWMutex

	users    map[string]*trust.User
	goals    map[string]*trust.Goal
	goalIDs  []string
	deposits map[string][]*trust.Deposit
	notes    map[string][]*trust.Note
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:    make(map[string]*trust.User),
		goals:    make(map[string]*trust.Goal),
		deposits: make(map[string][]*trust.Deposit),
		notes:    make(map[string][]*trust.Note),
	}
}

func (m *MemoryRepo) CreateUser(_ context.Context, u *trust.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryRepo) GetUser(_ context.Context, id string) (*trust.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryRepo) CreateGoal(_ context.Context, g *trust.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	if _, exists := m.goals[g.ID]; !exists {
		m.goalIDs = append(m.goalIDs, g.ID)
	}
	m.goals[g.ID] = &cp
	return nil
}

// GetGoal returns a copy; callers never hold a pointer into the store.
func (m *MemoryRepo) GetGoal(_ context.Context, id string) (*trust.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.goals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *MemoryRepo) ListGoals(_ context.Context, userID string) ([]*trust.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*trust.Goal, 0)
	for _, id := range m.goalIDs {
		g := m.goals[id]
		if g.UserID != userID {
			continue
		}
		cp := *g
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryRepo) MarkReal(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok {
		return ErrNotFound
	}
	g.IsReal = true
	return nil
}

func (m *MemoryRepo) AddDeposit(_ context.Context, d *trust.Deposit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[d.TrustID]
	if !ok {
		return ErrNotFound
	}
	g.CurrentBalance = trust.AddAmount(g.CurrentBalance, d.Amount)
	cp := *d
	m.deposits[d.TrustID] = append(m.deposits[d.TrustID], &cp)
	return nil
}

func (m *MemoryRepo) AddNote(_ context.Context, n *trust.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.goals[n.TrustID]; !ok {
		return ErrNotFound
	}
	cp := *n
	m.notes[n.TrustID] = append(m.notes[n.TrustID], &cp)
	return nil
}

func (m *MemoryRepo) Ledger(_ context.Context, trustID string) (*trust.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.goals[trustID]
	if !ok {
		return nil, ErrNotFound
	}
	gc := *g
	st := &trust.Statement{
		Trust:    &gc,
		Deposits: make([]*trust.Deposit, 0, len(m.deposits[trustID])),
		Notes:    make([]*trust.Note, 0, len(m.notes[trustID])),
	}
	for _, d := range m.deposits[trustID] {
		cp := *d
		st.Deposits = append(st.Deposits, &cp)
	}
	for _, n := range m.notes[trustID] {
		cp := *n
		st.Notes = append(st.Notes, &cp)
	}
	return st, nil
}

func (m *MemoryRepo) Ping(context.Context) error { return nil }

