// Package store owns all case, event, and task state in memory. One Store is
// constructed per process (or per test); there are no package-level
// singletons. Each case carries its own lock, so mutations to one case are
// serialized while distinct cases proceed in parallel.
package store

import (
	"sync"

	"caseline/internal/domain"
)

// Store is the authoritative holder of cases and their events and tasks.
type Store struct {
	mu        sync.RWMutex
	cases     map[string]*CaseState
	order     []string // case ids in insertion order, for stable listings
	eventCase map[string]string
	taskCase  map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		cases:     make(map[string]*CaseState),
		eventCase: make(map[string]string),
		taskCase:  make(map[string]string),
	}
}

// CaseState is one case plus its owned events and tasks. Access only happens
// inside View or Update, under the per-case lock.
type CaseState struct {
	mu    sync.RWMutex
	store *Store

	c          domain.Case
	events     map[string]domain.CaseEvent
	eventOrder []string
	tasks      map[string]domain.CaseTask
	taskOrder  []string
}

// InsertCase registers a new case. The id must be unused.
func (s *Store) InsertCase(c domain.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cases[c.ID]; exists {
		return Invalidf("id", "case %s already exists", c.ID)
	}
	s.cases[c.ID] = &CaseState{
		store:  s,
		c:      copyCase(c),
		events: make(map[string]domain.CaseEvent),
		tasks:  make(map[string]domain.CaseTask),
	}
	s.order = append(s.order, c.ID)
	return nil
}

func (s *Store) state(caseID string) (*CaseState, error) {
	s.mu.RLock()
	cs, ok := s.cases[caseID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return cs, nil
}

// View runs fn with read access to one case's state.
func (s *Store) View(caseID string, fn func(cs *CaseState) error) error {
	cs, err := s.state(caseID)
	if err != nil {
		return err
	}
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return fn(cs)
}

// Update runs fn with exclusive access to one case's state. Callers validate
// before mutating so a failed fn leaves the case untouched.
func (s *Store) Update(caseID string, fn func(cs *CaseState) error) error {
	cs, err := s.state(caseID)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return fn(cs)
}

// EachCase runs fn with read access to every case, in insertion order.
func (s *Store) EachCase(fn func(cs *CaseState)) {
	s.mu.RLock()
	ids := append([]string(nil), s.order...)
	s.mu.RUnlock()
	for _, id := range ids {
		cs, err := s.state(id)
		if err != nil {
			continue
		}
		cs.mu.RLock()
		fn(cs)
		cs.mu.RUnlock()
	}
}

// CaseIDForEvent resolves which case owns an event id.
func (s *Store) CaseIDForEvent(eventID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.eventCase[eventID]
	return id, ok
}

// CaseIDForTask resolves which case owns a task id.
func (s *Store) CaseIDForTask(taskID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.taskCase[taskID]
	return id, ok
}

// ListCases returns copies of all cases in insertion order.
func (s *Store) ListCases() []domain.Case {
	out := []domain.Case{}
	s.EachCase(func(cs *CaseState) {
		out = append(out, cs.Case())
	})
	return out
}

// GetCase returns a copy of one case.
func (s *Store) GetCase(caseID string) (domain.Case, error) {
	var c domain.Case
	err := s.View(caseID, func(cs *CaseState) error {
		c = cs.Case()
		return nil
	})
	return c, err
}

// Case returns a copy of the case record.
func (cs *CaseState) Case() domain.Case {
	return copyCase(cs.c)
}

// SetCase replaces the case record.
func (cs *CaseState) SetCase(c domain.Case) {
	cs.c = copyCase(c)
}

// Event returns a copy of one event.
func (cs *CaseState) Event(id string) (domain.CaseEvent, bool) {
	e, ok := cs.events[id]
	if !ok {
		return domain.CaseEvent{}, false
	}
	return copyEvent(e), true
}

// Events returns copies of all events in insertion order.
func (cs *CaseState) Events() []domain.CaseEvent {
	out := make([]domain.CaseEvent, 0, len(cs.eventOrder))
	for _, id := range cs.eventOrder {
		out = append(out, copyEvent(cs.events[id]))
	}
	return out
}

// PutEvent stores an event, registering it on first insert.
func (cs *CaseState) PutEvent(e domain.CaseEvent) {
	if _, exists := cs.events[e.ID]; !exists {
		cs.eventOrder = append(cs.eventOrder, e.ID)
		cs.store.mu.Lock()
		cs.store.eventCase[e.ID] = cs.c.ID
		cs.store.mu.Unlock()
	}
	cs.events[e.ID] = copyEvent(e)
}

// Task returns a copy of one task.
func (cs *CaseState) Task(id string) (domain.CaseTask, bool) {
	t, ok := cs.tasks[id]
	if !ok {
		return domain.CaseTask{}, false
	}
	return copyTask(t), true
}

// Tasks returns copies of all tasks in insertion order.
func (cs *CaseState) Tasks() []domain.CaseTask {
	out := make([]domain.CaseTask, 0, len(cs.taskOrder))
	for _, id := range cs.taskOrder {
		out = append(out, copyTask(cs.tasks[id]))
	}
	return out
}

// TaskStatus reports the status of a task without copying it.
func (cs *CaseState) TaskStatus(id string) (domain.TaskStatus, bool) {
	t, ok := cs.tasks[id]
	if !ok {
		return "", false
	}
	return t.Status, true
}

// PutTask stores a task, registering it on first insert.
func (cs *CaseState) PutTask(t domain.CaseTask) {
	if _, exists := cs.tasks[t.ID]; !exists {
		cs.taskOrder = append(cs.taskOrder, t.ID)
		cs.store.mu.Lock()
		cs.store.taskCase[t.ID] = cs.c.ID
		cs.store.mu.Unlock()
	}
	cs.tasks[t.ID] = copyTask(t)
}
