package db

import (
	"database/sql"

	"github.com/fourminutelog/fourminutelog/models"
)

// Default settings
var defaultSettings = map[string]string{
	"log_level":        "info",
	"theme":            "system",
	"week_start":       "0", // 0=Sunday
	"default_duration": "",
	"history_limit":    "30",
}

// GetSetting retrieves a setting by key
func GetSetting(key string) (string, error) {
	var value string
	err := QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		if defaultValue, ok := defaultSettings[key]; ok {
			return defaultValue, nil
		}
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting updates or creates a setting
func SetSetting(key, value string) error {
	_, err := Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, NowMs())
	return err
}

// GetAllSettings retrieves all settings
func GetAllSettings() (map[string]string, error) {
	// Start with defaults
	settings := make(map[string]string)
	for k, v := range defaultSettings {
		settings[k] = v
	}

	// Override with stored settings
	rows, err := Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}

	return settings, rows.Err()
}

// UpdateSettings updates multiple settings at once
func UpdateSettings(settings map[string]string) error {
	return Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO settings (key, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := NowMs()
		for key, value := range settings {
			if _, err := stmt.Exec(key, value, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// ResetSettings removes all stored settings, falling back to defaults.
// The password hash survives a reset so password auth keeps working.
func ResetSettings() error {
	_, err := Exec("DELETE FROM settings WHERE key != 'auth_password_hash'")
	return err
}

// LoadUserSettings assembles the typed settings structure from stored keys
func LoadUserSettings() (models.UserSettings, error) {
	raw, err := GetAllSettings()
	if err != nil {
		return models.UserSettings{}, err
	}

	return models.UserSettings{
		Preferences: models.Preferences{
			Theme:           raw["theme"],
			LogLevel:        raw["log_level"],
			WeekStart:       raw["week_start"],
			DefaultDuration: raw["default_duration"],
			HistoryLimit:    raw["history_limit"],
		},
	}, nil
}
