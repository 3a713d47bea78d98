package daylog

import (
	"sort"
	"sync"
)

// Repository stores day logs keyed by (user, date key). Put overwrites the
// whole log for its date; the service holds the only mutation path, so
// implementations need no partial-update surface.
type Repository interface {
	Get(userID, key string) (DayLog, bool, error)
	Put(userID string, lg DayLog) error
	// List returns every log with a key strictly before the given key,
	// newest first. An empty before returns all logs.
	List(userID, before string) ([]DayLog, error)
}

// MemoryRepository is an in-memory Repository for tests and databaseless runs.
type MemoryRepository struct {
	mu   sync.RWMutex
	logs map[string]map[string]DayLog // userID -> dateKey -> log
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{logs: make(map[string]map[string]DayLog)}
}

func (r *MemoryRepository) Get(userID, key string) (DayLog, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lg, ok := r.logs[userID][key]
	if !ok {
		return DayLog{}, false, nil
	}
	return cloneLog(lg), true, nil
}

func (r *MemoryRepository) Put(userID string, lg DayLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byDate, ok := r.logs[userID]
	if !ok {
		byDate = make(map[string]DayLog)
		r.logs[userID] = byDate
	}
	byDate[lg.Date] = cloneLog(lg)
	return nil
}

func (r *MemoryRepository) List(userID, before string) ([]DayLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []DayLog
	for key, lg := range r.logs[userID] {
		if before == "" || key < before {
			out = append(out, cloneLog(lg))
		}
	}
	// Newest first. Date keys sort lexically.
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}
