package runstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps runs in process. Plans are stored by their JSON form so
// callers cannot mutate archived runs.
type MemoryStore struct {
	mu    sync.RWMutex
	runs  map[uuid.UUID]memRun
	order []uuid.UUID
}

type memRun struct {
	run   Run
	plans []byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: map[uuid.UUID]memRun{}}
}

func (m *MemoryStore) Save(_ context.Context, run Run) (Run, error) {
	run = prepare(run)
	raw, err := encodePlans(run.Plans)
	if err != nil {
		return Run{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; ok {
		return Run{}, ErrDuplicate
	}
	stored := run
	stored.Plans = nil
	m.runs[run.ID] = memRun{run: stored, plans: raw}
	m.order = append(m.order, run.ID)

	return run, nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (Run, error) {
	m.mu.RLock()
	r, ok := m.runs[id]
	m.mu.RUnlock()
	if !ok {
		return Run{}, ErrNotFound
	}

	return r.materialize()
}

// List returns the newest runs first.
func (m *MemoryStore) List(_ context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Run, 0, min(limit, len(m.order)))
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		run, err := m.runs[m.order[i]].materialize()
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}

	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (r memRun) materialize() (Run, error) {
	plans, err := decodePlans(r.plans)
	if err != nil {
		return Run{}, err
	}
	run := r.run
	run.Plans = plans

	return run, nil
}
