package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fourminutelog/fourminutelog/tasks"
)

// DefinitionStore persists task definitions in SQLite, implementing
// tasks.Store. Recurring and one-off definitions live in separate tables
// mirroring their variant shapes; position preserves store order within
// each table, which the materializer depends on.
type DefinitionStore struct{}

func NewDefinitionStore() DefinitionStore {
	return DefinitionStore{}
}

func (DefinitionStore) List(userID string, kind tasks.Kind) ([]tasks.Definition, error) {
	var out []tasks.Definition
	if kind == "" || kind == tasks.KindRecurring {
		defs, err := listRecurring(userID)
		if err != nil {
			return nil, err
		}
		out = append(out, defs...)
	}
	if kind == "" || kind == tasks.KindOneOff {
		defs, err := listOneOff(userID)
		if err != nil {
			return nil, err
		}
		out = append(out, defs...)
	}
	return out, nil
}

func (s DefinitionStore) Get(userID, id string) (tasks.Definition, error) {
	defs, err := s.List(userID, "")
	if err != nil {
		return tasks.Definition{}, err
	}
	for _, d := range defs {
		if d.ID == id {
			return d, nil
		}
	}
	return tasks.Definition{}, tasks.ErrNotFound
}

func (DefinitionStore) Create(userID string, def tasks.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	return Transaction(func(tx *sql.Tx) error {
		switch def.Kind {
		case tasks.KindRecurring:
			var pos int
			err := tx.QueryRow(`
				SELECT COALESCE(MAX(position), 0) + 1 FROM recurring_tasks WHERE user_id = ?
			`, userID).Scan(&pos)
			if err != nil {
				return err
			}
			var weekDay, monthDay any
			if def.Schedule.WeekDay != nil {
				weekDay = *def.Schedule.WeekDay
			}
			if def.Schedule.MonthDay != nil {
				monthDay = *def.Schedule.MonthDay
			}
			_, err = tx.Exec(`
				INSERT INTO recurring_tasks (id, user_id, title, duration, frequency, week_day, month_day, position, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, def.ID, userID, def.Title, def.Duration, string(def.Schedule.Frequency), weekDay, monthDay, pos, def.CreatedAt.UnixMilli())
			if err != nil {
				return err
			}
			return insertDefinitionTags(tx, "recurring_task_tags", "recurring_task_id", def.ID, def.Tags)

		case tasks.KindOneOff:
			var pos int
			err := tx.QueryRow(`
				SELECT COALESCE(MAX(position), 0) + 1 FROM one_off_tasks WHERE user_id = ?
			`, userID).Scan(&pos)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`
				INSERT INTO one_off_tasks (id, user_id, title, duration, start_date, position, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, def.ID, userID, def.Title, def.Duration, def.StartDate.Format("2006-01-02"), pos, def.CreatedAt.UnixMilli())
			if err != nil {
				return err
			}
			return insertDefinitionTags(tx, "one_off_task_tags", "one_off_task_id", def.ID, def.Tags)
		}
		return nil
	})
}

func (DefinitionStore) Update(userID string, def tasks.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	return Transaction(func(tx *sql.Tx) error {
		switch def.Kind {
		case tasks.KindRecurring:
			var weekDay, monthDay any
			if def.Schedule.WeekDay != nil {
				weekDay = *def.Schedule.WeekDay
			}
			if def.Schedule.MonthDay != nil {
				monthDay = *def.Schedule.MonthDay
			}
			res, err := tx.Exec(`
				UPDATE recurring_tasks
				SET title = ?, duration = ?, frequency = ?, week_day = ?, month_day = ?
				WHERE id = ? AND user_id = ?
			`, def.Title, def.Duration, string(def.Schedule.Frequency), weekDay, monthDay, def.ID, userID)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return tasks.ErrNotFound
			}
			if _, err := tx.Exec(`DELETE FROM recurring_task_tags WHERE recurring_task_id = ?`, def.ID); err != nil {
				return err
			}
			return insertDefinitionTags(tx, "recurring_task_tags", "recurring_task_id", def.ID, def.Tags)

		case tasks.KindOneOff:
			res, err := tx.Exec(`
				UPDATE one_off_tasks
				SET title = ?, duration = ?, start_date = ?
				WHERE id = ? AND user_id = ?
			`, def.Title, def.Duration, def.StartDate.Format("2006-01-02"), def.ID, userID)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return tasks.ErrNotFound
			}
			if _, err := tx.Exec(`DELETE FROM one_off_task_tags WHERE one_off_task_id = ?`, def.ID); err != nil {
				return err
			}
			return insertDefinitionTags(tx, "one_off_task_tags", "one_off_task_id", def.ID, def.Tags)
		}
		return nil
	})
}

func (DefinitionStore) Delete(userID, id string) error {
	return Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM recurring_tasks WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
		res, err = tx.Exec(`DELETE FROM one_off_tasks WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return tasks.ErrNotFound
		}
		return nil
	})
}

func listRecurring(userID string) ([]tasks.Definition, error) {
	rows, err := Query(`
		SELECT id, title, duration, frequency, week_day, month_day, created_at
		FROM recurring_tasks
		WHERE user_id = ?
		ORDER BY position
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []tasks.Definition
	for rows.Next() {
		var d tasks.Definition
		var duration sql.NullString
		var frequency string
		var weekDay, monthDay sql.NullInt64
		var createdAt int64
		if err := rows.Scan(&d.ID, &d.Title, &duration, &frequency, &weekDay, &monthDay, &createdAt); err != nil {
			return nil, err
		}
		d.Kind = tasks.KindRecurring
		d.Duration = duration.String
		d.CreatedAt = time.UnixMilli(createdAt)
		sched := &tasks.Schedule{Frequency: tasks.Frequency(frequency)}
		if weekDay.Valid {
			v := int(weekDay.Int64)
			sched.WeekDay = &v
		}
		if monthDay.Valid {
			v := int(monthDay.Int64)
			sched.MonthDay = &v
		}
		d.Schedule = sched
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attachDefinitionTags(defs, "recurring_task_tags", "recurring_task_id")
}

func listOneOff(userID string) ([]tasks.Definition, error) {
	rows, err := Query(`
		SELECT id, title, duration, start_date, created_at
		FROM one_off_tasks
		WHERE user_id = ?
		ORDER BY position
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []tasks.Definition
	for rows.Next() {
		var d tasks.Definition
		var duration sql.NullString
		var startDate string
		var createdAt int64
		if err := rows.Scan(&d.ID, &d.Title, &duration, &startDate, &createdAt); err != nil {
			return nil, err
		}
		d.Kind = tasks.KindOneOff
		d.Duration = duration.String
		d.CreatedAt = time.UnixMilli(createdAt)
		if t, err := time.ParseInLocation("2006-01-02", startDate, time.Local); err == nil {
			d.StartDate = &t
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attachDefinitionTags(defs, "one_off_task_tags", "one_off_task_id")
}

func attachDefinitionTags(defs []tasks.Definition, table, fk string) ([]tasks.Definition, error) {
	for i := range defs {
		rows, err := Query(
			`SELECT tag FROM `+table+` WHERE `+fk+` = ? ORDER BY position`, defs[i].ID)
		if err != nil {
			return nil, err
		}
		var tags []string
		for rows.Next() {
			var tag string
			if err := rows.Scan(&tag); err != nil {
				rows.Close()
				return nil, err
			}
			tags = append(tags, tag)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
		defs[i].Tags = tags
	}
	return defs, nil
}

func insertDefinitionTags(tx *sql.Tx, table, fk, defID string, tags []string) error {
	for i, tag := range tags {
		_, err := tx.Exec(
			`INSERT INTO `+table+` (id, `+fk+`, tag, position) VALUES (?, ?, ?, ?)`,
			uuid.New().String(), defID, tag, i)
		if err != nil {
			return err
		}
	}
	return nil
}
