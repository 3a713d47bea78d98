package daylog

import "time"

// DateKeyFormat is the canonical date key layout. Keys compare and sort
// correctly as plain strings.
const DateKeyFormat = "2006-01-02"

// DateKey returns the canonical YYYY-MM-DD key for a date.
func DateKey(date time.Time) string {
	return date.Format(DateKeyFormat)
}

// TodoItem is a not-yet-done entry on a day's log.
type TodoItem struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Completed bool     `json:"completed"`
	TimeLabel string   `json:"time,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// CompletedItem is a finished entry on a day's log.
type CompletedItem struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	TimeLabel   string    `json:"time,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// DayLog aggregates one calendar date's to-do and completed items.
// Slice order is display order. CreatedAt is set once, when the log is
// first materialized, and never changes.
type DayLog struct {
	Date           string          `json:"date"`
	TodoTasks      []TodoItem      `json:"todoTasks"`
	CompletedTasks []CompletedItem `json:"completedTasks"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ItemPatch carries the optional fields of a partial item update.
// Nil fields are left untouched.
type ItemPatch struct {
	Content     *string    `json:"content,omitempty"`
	TimeLabel   *string    `json:"time,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func cloneLog(lg DayLog) DayLog {
	lg.TodoTasks = cloneTodos(lg.TodoTasks)
	lg.CompletedTasks = cloneCompleted(lg.CompletedTasks)
	return lg
}

func cloneTodos(items []TodoItem) []TodoItem {
	if items == nil {
		return nil
	}
	out := make([]TodoItem, len(items))
	for i, it := range items {
		if it.Tags != nil {
			it.Tags = append([]string(nil), it.Tags...)
		}
		out[i] = it
	}
	return out
}

func cloneCompleted(items []CompletedItem) []CompletedItem {
	if items == nil {
		return nil
	}
	out := make([]CompletedItem, len(items))
	for i, it := range items {
		if it.Tags != nil {
			it.Tags = append([]string(nil), it.Tags...)
		}
		out[i] = it
	}
	return out
}
