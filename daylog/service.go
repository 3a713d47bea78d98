package daylog

import (
	"strings"
	"sync"
	"time"

	"github.com/fourminutelog/fourminutelog/tasks"
)

// Clock supplies the timestamps and dates the service records. Injected so
// materialization and completion times are deterministic under test.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

// SystemClock is the real local-time clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// Service owns every day log. GetOrCreate is the only path that creates a
// log, and every mutation runs through it first, so a log always exists by
// the time an item-level operation touches it. A per-user mutex serializes
// check-then-create and mutations, keeping at most one log per (user, date).
type Service struct {
	repo  Repository
	store tasks.Store
	clock Clock
	newID func() string

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

func NewService(repo Repository, store tasks.Store, clock Clock, newID func() string) *Service {
	return &Service{
		repo:  repo,
		store: store,
		clock: clock,
		newID: newID,
		users: make(map[string]*sync.Mutex),
	}
}

func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.users[userID]
	if !ok {
		l = &sync.Mutex{}
		s.users[userID] = l
	}
	return l
}

// GetOrCreate returns the log for the given date, creating it on first
// access. A new log carries forward yesterday's incomplete to-dos (fresh
// identities, same content/time/tags) and appends the date's materialized
// items. Calling it again for the same date is a pure read.
func (s *Service) GetOrCreate(userID string, date time.Time) (DayLog, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	return s.getOrCreateLocked(userID, date)
}

func (s *Service) getOrCreateLocked(userID string, date time.Time) (DayLog, error) {
	key := DateKey(date)

	lg, ok, err := s.repo.Get(userID, key)
	if err != nil {
		return DayLog{}, err
	}
	if ok {
		return lg, nil
	}

	var carried []TodoItem
	prev, ok, err := s.repo.Get(userID, DateKey(date.AddDate(0, 0, -1)))
	if err != nil {
		return DayLog{}, err
	}
	if ok {
		for _, it := range prev.TodoTasks {
			// To-dos are never marked completed in place; the filter is a
			// safety net against bad stored data.
			if it.Completed {
				continue
			}
			it.ID = s.newID()
			if it.Tags != nil {
				it.Tags = append([]string(nil), it.Tags...)
			}
			carried = append(carried, it)
		}
	}

	recurring, err := s.store.List(userID, tasks.KindRecurring)
	if err != nil {
		return DayLog{}, err
	}
	oneOff, err := s.store.List(userID, tasks.KindOneOff)
	if err != nil {
		return DayLog{}, err
	}

	todos := append(carried, Materialize(date, recurring, oneOff, s.newID)...)
	if todos == nil {
		todos = []TodoItem{}
	}

	lg = DayLog{
		Date:           key,
		TodoTasks:      todos,
		CompletedTasks: []CompletedItem{},
		CreatedAt:      s.clock.Now(),
	}
	if err := s.repo.Put(userID, lg); err != nil {
		return DayLog{}, err
	}
	return lg, nil
}

// History returns the logs for dates strictly before the given one,
// newest first. A positive limit caps the number of logs returned;
// zero means unlimited.
func (s *Service) History(userID string, date time.Time, limit int) ([]DayLog, error) {
	logs, err := s.repo.List(userID, DateKey(date))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

// mutate runs fn against the date's log under the user lock and persists the
// result. fn reports whether it changed anything; unchanged logs are not
// rewritten.
func (s *Service) mutate(userID string, date time.Time, fn func(*DayLog) bool) (DayLog, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	lg, err := s.getOrCreateLocked(userID, date)
	if err != nil {
		return DayLog{}, err
	}
	if !fn(&lg) {
		return lg, nil
	}
	if err := s.repo.Put(userID, lg); err != nil {
		return DayLog{}, err
	}
	return lg, nil
}

// AddTodo appends a new to-do. Empty or whitespace-only content is a no-op.
func (s *Service) AddTodo(userID string, date time.Time, content string) (DayLog, error) {
	return s.mutate(userID, date, func(lg *DayLog) bool {
		if strings.TrimSpace(content) == "" {
			return false
		}
		lg.TodoTasks = append(lg.TodoTasks, TodoItem{
			ID:      s.newID(),
			Content: content,
		})
		return true
	})
}

// EditTodo replaces a to-do's content. Unknown ids are ignored.
func (s *Service) EditTodo(userID string, date time.Time, id, content string) (DayLog, error) {
	return s.mutate(userID, date, func(lg *DayLog) bool {
		for i := range lg.TodoTasks {
			if lg.TodoTasks[i].ID == id {
				lg.TodoTasks[i].Content = content
				return true
			}
		}
		return false
	})
}

// DeleteTodo removes a to-do. Unknown ids are ignored.
func (s *Service) DeleteTodo(userID string, date time.Time, id string) (DayLog, error) {
	return s.mutate(userID, date, func(lg *DayLog) bool {
		for i := range lg.TodoTasks {
			if lg.TodoTasks[i].ID == id {
				lg.TodoTasks = append(lg.TodoTasks[:i], lg.TodoTasks[i+1:]...)
				return true
			}
		}
		return false
	})
}

// UpdateTodo merges the patch's content/time/tags into a to-do.
// Unknown ids are ignored.
func (s *Service) UpdateTodo(userID string, date time.Time, id string, patch ItemPatch) (DayLog, error) {
	return s.mutate(userID, date, func(lg *DayLog) bool {
		for i := range lg.TodoTasks {
			if lg.TodoTasks[i].ID != id {
				continue
			}
			if patch.Content != nil {
				lg.TodoTasks[i].Content = *patch.Content
			}
			if patch.TimeLabel != nil {
				lg.TodoTasks[i].TimeLabel = *patch.TimeLabel
			}
			if patch.Tags != nil {
				lg.TodoTasks[i].Tags = append([]string(nil), *patch.Tags...)
			}
			return true
		}
		return false
	})
}

// CompleteTodo moves a to-do to the completed list. The completed item gets
// a fresh identity and CompletedAt = now; the to-do's id is not reused.
// Unknown ids are ignored.
func (s *Service) CompleteTodo(userID string, date time.Time, id string) (DayLog, error) {
	return s.mutate(userID, date, func(lg *DayLog) bool {
		for i, it := range lg.TodoTasks {
			if it.ID != id {
				continue
			}
			lg.TodoTasks = append(lg.TodoTasks[:i], lg.TodoTasks[i+1:]...)
			lg.CompletedTasks = append(lg.CompletedTasks, CompletedItem{
				ID:          s.newID(),
				Content:     it.Content,
				TimeLabel:   it.TimeLabel,
				Tags:        it.Tags,
				CompletedAt: s.clock.Now(),
			})
			return true
		}
		return false
	})
}

// ReverseCompleted moves a completed item back to the to-do list with a
// fresh identity. Unknown ids are ignored.
func (s *Service) ReverseCompleted(userID string, date time.Time, id string) (DayLog, error) {
	return s.mutate(userID, date, func(lg *DayLog) bool {
		for i, it := range lg.CompletedTasks {
			if it.ID != id {
				continue
			}
			lg.CompletedTasks = append(lg.CompletedTasks[:i], lg.CompletedTasks[i+1:]...)
			lg.TodoTasks = append(lg.TodoTasks, TodoItem{
				ID:        s.newID(),
				Content:   it.Content,
				Completed: false,
				TimeLabel: it.TimeLabel,
				Tags:      it.Tags,
			})
			return true
		}
		return false
	})
}

// UpdateCompleted merges the patch into a completed item. If the id is
// unknown, a new completed item is created under that id with missing
// fields defaulted (content "", completedAt now). The upsert supports the
// add-a-completed-task-directly entry flow.
func (s *Service) UpdateCompleted(userID string, date time.Time, id string, patch ItemPatch) (DayLog, error) {
	return s.mutate(userID, date, func(lg *DayLog) bool {
		for i := range lg.CompletedTasks {
			if lg.CompletedTasks[i].ID != id {
				continue
			}
			if patch.Content != nil {
				lg.CompletedTasks[i].Content = *patch.Content
			}
			if patch.TimeLabel != nil {
				lg.CompletedTasks[i].TimeLabel = *patch.TimeLabel
			}
			if patch.Tags != nil {
				lg.CompletedTasks[i].Tags = append([]string(nil), *patch.Tags...)
			}
			if patch.CompletedAt != nil {
				lg.CompletedTasks[i].CompletedAt = *patch.CompletedAt
			}
			return true
		}

		it := CompletedItem{ID: id, CompletedAt: s.clock.Now()}
		if patch.Content != nil {
			it.Content = *patch.Content
		}
		if patch.TimeLabel != nil {
			it.TimeLabel = *patch.TimeLabel
		}
		if patch.Tags != nil {
			it.Tags = append([]string(nil), *patch.Tags...)
		}
		if patch.CompletedAt != nil {
			it.CompletedAt = *patch.CompletedAt
		}
		lg.CompletedTasks = append(lg.CompletedTasks, it)
		return true
	})
}
