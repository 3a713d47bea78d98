package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fourminutelog/fourminutelog/daylog"
	"github.com/fourminutelog/fourminutelog/log"
)

const defaultHistoryLimit = 30

// historyLimit reads the history_limit setting. Falls back to the
// default when unset or unparseable; 0 means unlimited.
func (h *Handlers) historyLimit() int {
	raw, err := h.getSetting("history_limit")
	if err != nil || raw == "" {
		return defaultHistoryLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return defaultHistoryLimit
	}
	return limit
}

// parseDateParam parses the :date path parameter as a calendar day in
// local time. Returns the zero time when the parameter is malformed.
func parseDateParam(c *gin.Context) (time.Time, bool) {
	raw := c.Param("date")
	date, err := time.ParseInLocation(daylog.DateKeyFormat, raw, time.Local)
	if err != nil {
		RespondBadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// GetLog returns the log for a date, creating it on first access.
// GET /api/logs/:date
func (h *Handlers) GetLog(c *gin.Context) {
	date, ok := parseDateParam(c)
	if !ok {
		return
	}

	lg, err := h.logs.GetOrCreate(CurrentUserID(c), date)
	if err != nil {
		log.Error().Err(err).Str("date", c.Param("date")).Msg("failed to load log")
		RespondInternalError(c, "Failed to load log")
		return
	}

	RespondData(c, lg)
}

// GetHistory returns past logs strictly before a date, newest first.
// GET /api/logs/:date/history
func (h *Handlers) GetHistory(c *gin.Context) {
	date, ok := parseDateParam(c)
	if !ok {
		return
	}

	logs, err := h.logs.History(CurrentUserID(c), date, h.historyLimit())
	if err != nil {
		log.Error().Err(err).Msg("failed to load history")
		RespondInternalError(c, "Failed to load history")
		return
	}

	RespondList(c, logs)
}

// AddTodo appends a todo to the log for a date.
// POST /api/logs/:date/todos
func (h *Handlers) AddTodo(c *gin.Context) {
	date, ok := parseDateParam(c)
	if !ok {
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidationError(c, "content is required", nil)
		return
	}

	lg, err := h.logs.AddTodo(CurrentUserID(c), date, body.Content)
	if err != nil {
		log.Error().Err(err).Msg("failed to add todo")
		RespondInternalError(c, "Failed to add todo")
		return
	}

	h.notify.NotifyLogChanged(lg.Date)
	RespondData(c, lg)
}

// UpdateTodo applies a partial update to a todo item.
// PATCH /api/logs/:date/todos/:id
func (h *Handlers) UpdateTodo(c *gin.Context) {
	date, ok := parseDateParam(c)
	if !ok {
		return
	}

	var patch daylog.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondValidationError(c, "invalid patch body", nil)
		return
	}

	lg, err := h.logs.UpdateTodo(CurrentUserID(c), date, c.Param("id"), patch)
	if err != nil {
		log.Error().Err(err).Msg("failed to update todo")
		RespondInternalError(c, "Failed to update todo")
		return
	}

	h.notify.NotifyLogChanged(lg.Date)
	RespondData(c, lg)
}

// EditTodo replaces the content of a todo item.
// PUT /api/logs/:date/todos/:id
func (h *Handlers) EditTodo(c *gin.Context) {
	date, ok := parseDateParam(c)
	if !ok {
		return
	}

	var body struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidationError(c, "content is required", nil)
		return
	}

	lg, err := h.logs.EditTodo(CurrentUserID(c), date, c.Param("id"), body.Content)
	if err != nil {
		log.Error().Err(err).Msg("failed to edit todo")
		RespondInternalError(c, "Failed to edit todo")
		return
	}

	h.notify.NotifyLogChanged(lg.Date)
	RespondData(c, lg)
}

// DeleteTodo removes a todo item. Unknown ids are a no-op.
// DELETE /api/logs/:date/todos/:id
func (h *Handlers) DeleteTodo(c *gin.Context) {
	date, ok := parseDateParam(c)
	if !ok {
		return
	}

	lg, err := h.logs.DeleteTodo(CurrentUserID(c), date, c.Param("id"))
	if err != nil {
		log.Error().Err(err).Msg("failed to delete todo")
		RespondInternalError(c, "Failed to delete todo")
		return
	}

	h.notify.NotifyLogChanged(lg.Date)
	RespondData(c, lg)
}

// CompleteTodo moves a todo to the completed list with a completion time.
// POST /api/logs/:date/todos/:id/complete
func (h *Handlers) CompleteTodo(c *gin.Context) {
	date, ok := parseDateParam(c)
	if !ok {
		return
	}

	lg, err := h.logs.CompleteTodo(CurrentUserID(c), date, c.Param("id"))
	if err != nil {
		log.Error().Err(err).Msg("failed to complete todo")
		RespondInternalError(c, "Failed to complete todo")
		return
	}

	h.notify.NotifyLogChanged(lg.Date)
	RespondData(c, lg)
}

// UpdateCompleted patches a completed item, inserting it when the id is
// not present yet.
// PUT /api/logs/:date/completed/:id
func (h *Handlers) UpdateCompleted(c *gin.Context) {
	date, ok := parseDateParam(c)
	if !ok {
		return
	}

	var patch daylog.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondValidationError(c, "invalid patch body", nil)
		return
	}

	lg, err := h.logs.UpdateCompleted(CurrentUserID(c), date, c.Param("id"), patch)
	if err != nil {
		log.Error().Err(err).Msg("failed to update completed item")
		RespondInternalError(c, "Failed to update completed item")
		return
	}

	h.notify.NotifyLogChanged(lg.Date)
	RespondData(c, lg)
}

// ReverseCompleted moves a completed item back to the todo list.
// POST /api/logs/:date/completed/:id/reverse
func (h *Handlers) ReverseCompleted(c *gin.Context) {
	date, ok := parseDateParam(c)
	if !ok {
		return
	}

	lg, err := h.logs.ReverseCompleted(CurrentUserID(c), date, c.Param("id"))
	if err != nil {
		log.Error().Err(err).Msg("failed to reverse completed item")
		RespondInternalError(c, "Failed to reverse completed item")
		return
	}

	h.notify.NotifyLogChanged(lg.Date)
	RespondData(c, lg)
}
