package db

import "database/sql"

func init() {
	RegisterMigration(Migration{
		Version:     1,
		Description: "Initial schema",
		Up:          migration001_initial,
	})
}

func migration001_initial(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Daily logs: at most one per (user, date)
	_, err = tx.Exec(`
		CREATE TABLE daily_logs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			log_date TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			UNIQUE(user_id, log_date)
		);

		CREATE INDEX idx_daily_logs_user_date ON daily_logs(user_id, log_date);
	`)
	if err != nil {
		return err
	}

	// Log items: to-dos and completed entries of a daily log.
	// position preserves display order within each list.
	_, err = tx.Exec(`
		CREATE TABLE tasks (
			id TEXT PRIMARY KEY,
			daily_log_id TEXT NOT NULL REFERENCES daily_logs(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			completed_at INTEGER,
			duration TEXT,
			position INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX idx_tasks_daily_log ON tasks(daily_log_id);

		CREATE TABLE task_tags (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			position INTEGER NOT NULL
		);

		CREATE INDEX idx_task_tags_task ON task_tags(task_id);
	`)
	if err != nil {
		return err
	}

	// Task definitions: recurring and one-off templates.
	_, err = tx.Exec(`
		CREATE TABLE recurring_tasks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			duration TEXT,
			frequency TEXT NOT NULL,
			week_day INTEGER,
			month_day INTEGER,
			position INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX idx_recurring_tasks_user ON recurring_tasks(user_id);

		CREATE TABLE recurring_task_tags (
			id TEXT PRIMARY KEY,
			recurring_task_id TEXT NOT NULL REFERENCES recurring_tasks(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			position INTEGER NOT NULL
		);

		CREATE TABLE one_off_tasks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			duration TEXT,
			start_date TEXT NOT NULL,
			position INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX idx_one_off_tasks_user ON one_off_tasks(user_id);

		CREATE TABLE one_off_task_tags (
			id TEXT PRIMARY KEY,
			one_off_task_id TEXT NOT NULL REFERENCES one_off_tasks(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			position INTEGER NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	// Clients and projects
	_, err = tx.Exec(`
		CREATE TABLE clients (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			emoji TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);

		CREATE INDEX idx_clients_user ON clients(user_id);

		CREATE TABLE client_tags (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			position INTEGER NOT NULL
		);

		CREATE TABLE projects (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			description TEXT,
			position INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX idx_projects_client ON projects(client_id);
	`)
	if err != nil {
		return err
	}

	// Settings and auth sessions
	_, err = tx.Exec(`
		CREATE TABLE settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE sessions (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			last_used_at INTEGER NOT NULL
		);

		CREATE INDEX idx_sessions_expires ON sessions(expires_at);
	`)
	if err != nil {
		return err
	}

	return tx.Commit()
}
