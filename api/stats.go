package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fourminutelog/fourminutelog/db"
	"github.com/fourminutelog/fourminutelog/log"
)

// StatsResponse summarizes the user's data
type StatsResponse struct {
	Logs           int `json:"logs"`
	OpenTodos      int `json:"openTodos"`
	CompletedTasks int `json:"completedTasks"`
	RecurringTasks int `json:"recurringTasks"`
	OneOffTasks    int `json:"oneOffTasks"`
	Clients        int `json:"clients"`
}

// GetStats handles GET /api/stats
func (h *Handlers) GetStats(c *gin.Context) {
	userID := CurrentUserID(c)

	var stats StatsResponse
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM daily_logs WHERE user_id = ?`, &stats.Logs},
		{`SELECT COUNT(*) FROM tasks t JOIN daily_logs l ON t.daily_log_id = l.id WHERE l.user_id = ? AND t.completed = 0`, &stats.OpenTodos},
		{`SELECT COUNT(*) FROM tasks t JOIN daily_logs l ON t.daily_log_id = l.id WHERE l.user_id = ? AND t.completed = 1`, &stats.CompletedTasks},
		{`SELECT COUNT(*) FROM recurring_tasks WHERE user_id = ?`, &stats.RecurringTasks},
		{`SELECT COUNT(*) FROM one_off_tasks WHERE user_id = ?`, &stats.OneOffTasks},
		{`SELECT COUNT(*) FROM clients WHERE user_id = ?`, &stats.Clients},
	}

	for _, count := range counts {
		if err := db.QueryRow(count.query, userID).Scan(count.dest); err != nil {
			log.Error().Err(err).Msg("failed to compute stats")
			RespondInternalError(c, "Failed to compute stats")
			return
		}
	}

	RespondData(c, stats)
}
