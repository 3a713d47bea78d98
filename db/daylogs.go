package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fourminutelog/fourminutelog/daylog"
)

// DayLogStore persists day logs in SQLite. It implements daylog.Repository;
// the daylog service is the only writer, so Put can safely rewrite the whole
// log's items in one transaction.
type DayLogStore struct{}

func NewDayLogStore() DayLogStore {
	return DayLogStore{}
}

func (DayLogStore) Get(userID, key string) (daylog.DayLog, bool, error) {
	var logID string
	var createdAt int64
	err := QueryRow(`
		SELECT id, created_at FROM daily_logs
		WHERE user_id = ? AND log_date = ?
	`, userID, key).Scan(&logID, &createdAt)
	if err == sql.ErrNoRows {
		return daylog.DayLog{}, false, nil
	}
	if err != nil {
		return daylog.DayLog{}, false, err
	}

	lg := daylog.DayLog{
		Date:           key,
		TodoTasks:      []daylog.TodoItem{},
		CompletedTasks: []daylog.CompletedItem{},
		CreatedAt:      time.UnixMilli(createdAt),
	}
	if err := loadLogItems(&lg, logID); err != nil {
		return daylog.DayLog{}, false, err
	}
	return lg, true, nil
}

func (DayLogStore) Put(userID string, lg daylog.DayLog) error {
	return Transaction(func(tx *sql.Tx) error {
		// Keep the row id stable across rewrites of the same date
		var logID string
		err := tx.QueryRow(`
			SELECT id FROM daily_logs WHERE user_id = ? AND log_date = ?
		`, userID, lg.Date).Scan(&logID)
		if err == sql.ErrNoRows {
			logID = uuid.New().String()
			_, err = tx.Exec(`
				INSERT INTO daily_logs (id, user_id, log_date, created_at)
				VALUES (?, ?, ?, ?)
			`, logID, userID, lg.Date, lg.CreatedAt.UnixMilli())
		}
		if err != nil {
			return err
		}

		// Tag rows cascade with their tasks
		if _, err := tx.Exec(`DELETE FROM tasks WHERE daily_log_id = ?`, logID); err != nil {
			return err
		}

		now := NowMs()
		for i, it := range lg.TodoTasks {
			_, err := tx.Exec(`
				INSERT INTO tasks (id, daily_log_id, content, completed, completed_at, duration, position, created_at)
				VALUES (?, ?, ?, 0, NULL, ?, ?, ?)
			`, it.ID, logID, it.Content, it.TimeLabel, i, now)
			if err != nil {
				return err
			}
			if err := insertTaskTags(tx, it.ID, it.Tags); err != nil {
				return err
			}
		}
		for i, it := range lg.CompletedTasks {
			_, err := tx.Exec(`
				INSERT INTO tasks (id, daily_log_id, content, completed, completed_at, duration, position, created_at)
				VALUES (?, ?, ?, 1, ?, ?, ?, ?)
			`, it.ID, logID, it.Content, it.CompletedAt.UnixMilli(), it.TimeLabel, i, now)
			if err != nil {
				return err
			}
			if err := insertTaskTags(tx, it.ID, it.Tags); err != nil {
				return err
			}
		}
		return nil
	})
}

func (DayLogStore) List(userID, before string) ([]daylog.DayLog, error) {
	rows, err := Query(`
		SELECT id, log_date, created_at FROM daily_logs
		WHERE user_id = ? AND (? = '' OR log_date < ?)
		ORDER BY log_date DESC
	`, userID, before, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type logRow struct {
		id string
		lg daylog.DayLog
	}
	var logs []logRow
	for rows.Next() {
		var r logRow
		var createdAt int64
		if err := rows.Scan(&r.id, &r.lg.Date, &createdAt); err != nil {
			return nil, err
		}
		r.lg.CreatedAt = time.UnixMilli(createdAt)
		r.lg.TodoTasks = []daylog.TodoItem{}
		r.lg.CompletedTasks = []daylog.CompletedItem{}
		logs = append(logs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]daylog.DayLog, 0, len(logs))
	for _, r := range logs {
		if err := loadLogItems(&r.lg, r.id); err != nil {
			return nil, err
		}
		out = append(out, r.lg)
	}
	return out, nil
}

func loadLogItems(lg *daylog.DayLog, logID string) error {
	rows, err := Query(`
		SELECT id, content, completed, completed_at, duration
		FROM tasks
		WHERE daily_log_id = ?
		ORDER BY position
	`, logID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, content string
		var completed int
		var completedAt sql.NullInt64
		var duration sql.NullString
		if err := rows.Scan(&id, &content, &completed, &completedAt, &duration); err != nil {
			return err
		}

		if completed == 1 {
			lg.CompletedTasks = append(lg.CompletedTasks, daylog.CompletedItem{
				ID:          id,
				Content:     content,
				TimeLabel:   duration.String,
				CompletedAt: time.UnixMilli(completedAt.Int64),
			})
		} else {
			lg.TodoTasks = append(lg.TodoTasks, daylog.TodoItem{
				ID:        id,
				Content:   content,
				TimeLabel: duration.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Attach tags
	for i := range lg.TodoTasks {
		tags, err := taskTags(lg.TodoTasks[i].ID)
		if err != nil {
			return err
		}
		lg.TodoTasks[i].Tags = tags
	}
	for i := range lg.CompletedTasks {
		tags, err := taskTags(lg.CompletedTasks[i].ID)
		if err != nil {
			return err
		}
		lg.CompletedTasks[i].Tags = tags
	}
	return nil
}

func taskTags(taskID string) ([]string, error) {
	rows, err := Query(`
		SELECT tag FROM task_tags WHERE task_id = ? ORDER BY position
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func insertTaskTags(tx *sql.Tx, taskID string, tags []string) error {
	for i, tag := range tags {
		_, err := tx.Exec(`
			INSERT INTO task_tags (id, task_id, tag, position)
			VALUES (?, ?, ?, ?)
		`, uuid.New().String(), taskID, tag, i)
		if err != nil {
			return err
		}
	}
	return nil
}
