package models

// UserSettings represents the full application settings structure
type UserSettings struct {
	Preferences Preferences `json:"preferences"`
}

type Preferences struct {
	Theme           string `json:"theme"`
	LogLevel        string `json:"logLevel,omitempty"`
	WeekStart       string `json:"weekStart"`       // "0"=Sunday .. "6"=Saturday
	DefaultDuration string `json:"defaultDuration"` // duration label preselected in dialogs
	HistoryLimit    string `json:"historyLimit"`    // max day logs shown in history
}
