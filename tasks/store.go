package tasks

import "sync"

// Store holds task definitions, scoped by user id. Definitions keep their
// insertion order within a user; the materializer depends on that order.
type Store interface {
	List(userID string, kind Kind) ([]Definition, error)
	Get(userID, id string) (Definition, error)
	Create(userID string, def Definition) error
	Update(userID string, def Definition) error
	Delete(userID, id string) error
}

// MemoryStore is an in-memory Store. Used by tests and as the default when
// no database is wired in.
type MemoryStore struct {
	mu   sync.RWMutex
	defs map[string][]Definition // userID -> ordered definitions
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{defs: make(map[string][]Definition)}
}

func (s *MemoryStore) List(userID string, kind Kind) ([]Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Definition
	for _, d := range s.defs[userID] {
		if kind == "" || d.Kind == kind {
			out = append(out, cloneDefinition(d))
		}
	}
	return out, nil
}

func (s *MemoryStore) Get(userID, id string) (Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.defs[userID] {
		if d.ID == id {
			return cloneDefinition(d), nil
		}
	}
	return Definition{}, ErrNotFound
}

func (s *MemoryStore) Create(userID string, def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.defs[userID] = append(s.defs[userID], cloneDefinition(def))
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Update(userID string, def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range s.defs[userID] {
		if d.ID == def.ID {
			def.CreatedAt = d.CreatedAt
			s.defs[userID][i] = cloneDefinition(def)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Delete(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.defs[userID]
	for i, d := range list {
		if d.ID == id {
			s.defs[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func cloneDefinition(d Definition) Definition {
	if d.Tags != nil {
		d.Tags = append([]string(nil), d.Tags...)
	}
	if d.Schedule != nil {
		sched := *d.Schedule
		if sched.WeekDay != nil {
			v := *sched.WeekDay
			sched.WeekDay = &v
		}
		if sched.MonthDay != nil {
			v := *sched.MonthDay
			sched.MonthDay = &v
		}
		d.Schedule = &sched
	}
	if d.StartDate != nil {
		v := *d.StartDate
		d.StartDate = &v
	}
	return d
}
