package rollover

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fourminutelog/fourminutelog/daylog"
	"github.com/fourminutelog/fourminutelog/db"
	"github.com/fourminutelog/fourminutelog/log"
	"github.com/fourminutelog/fourminutelog/notifications"
)

// Worker materializes the new day's log shortly after local midnight so
// incomplete items carry over and scheduled tasks appear without waiting
// for the first request. It also sweeps expired sessions.
type Worker struct {
	logs   *daylog.Service
	clock  daylog.Clock
	notify *notifications.Service
	cron   *cron.Cron
}

// NewWorker creates a rollover worker
func NewWorker(logs *daylog.Service, clock daylog.Clock, notify *notifications.Service) *Worker {
	return &Worker{
		logs:   logs,
		clock:  clock,
		notify: notify,
		cron:   cron.New(cron.WithLocation(time.Local)),
	}
}

// Start schedules the midnight rollover and begins the cron loop
func (w *Worker) Start() error {
	if _, err := w.cron.AddFunc("0 0 * * *", w.runRollover); err != nil {
		return err
	}
	w.cron.Start()
	log.Info().Msg("rollover worker started")
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish
func (w *Worker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("rollover worker stopped")
}

func (w *Worker) runRollover() {
	today := w.clock.Now()

	users, err := knownUsers()
	if err != nil {
		log.Error().Err(err).Msg("failed to list users for rollover")
		return
	}

	for _, userID := range users {
		lg, err := w.logs.GetOrCreate(userID, today)
		if err != nil {
			log.Error().Err(err).Str("user", userID).Msg("failed to roll over log")
			continue
		}
		w.notify.NotifyLogChanged(lg.Date)
		log.Info().
			Str("user", userID).
			Str("date", lg.Date).
			Int("todos", len(lg.TodoTasks)).
			Msg("rolled over daily log")
	}

	if deleted, err := db.DeleteExpiredSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to sweep expired sessions")
	} else if deleted > 0 {
		log.Info().Int64("count", deleted).Msg("swept expired sessions")
	}
}

// knownUsers returns every user id that has at least one log, plus the
// local single-user identity.
func knownUsers() ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT user_id FROM daily_logs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []string{}
	seenLocal := false
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if id == "local" {
			seenLocal = true
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !seenLocal {
		users = append(users, "local")
	}
	return users, nil
}
