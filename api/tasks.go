package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fourminutelog/fourminutelog/log"
	"github.com/fourminutelog/fourminutelog/tasks"
)

type taskDefinitionRequest struct {
	Title     string          `json:"title"`
	Duration  string          `json:"time"`
	Tags      []string        `json:"tags"`
	Kind      tasks.Kind      `json:"type"`
	Schedule  *tasks.Schedule `json:"schedule"`
	StartDate *string         `json:"startDate"`
}

func (r taskDefinitionRequest) toDefinition(id string, createdAt time.Time) (tasks.Definition, error) {
	def := tasks.Definition{
		ID:        id,
		Title:     r.Title,
		Duration:  r.Duration,
		Tags:      r.Tags,
		Kind:      r.Kind,
		Schedule:  r.Schedule,
		CreatedAt: createdAt,
	}
	if r.StartDate != nil {
		start, err := time.ParseInLocation("2006-01-02", *r.StartDate, time.Local)
		if err != nil {
			return tasks.Definition{}, errors.New("startDate must be YYYY-MM-DD")
		}
		def.StartDate = &start
	}
	return def, nil
}

// ListTaskDefinitions lists definitions, optionally filtered by kind.
// GET /api/tasks?type=recurring|one-off
func (h *Handlers) ListTaskDefinitions(c *gin.Context) {
	kind := tasks.Kind(c.Query("type"))
	if kind != "" && kind != tasks.KindRecurring && kind != tasks.KindOneOff {
		RespondBadRequest(c, "Invalid type, expected recurring or one-off")
		return
	}

	defs, err := h.defs.List(CurrentUserID(c), kind)
	if err != nil {
		log.Error().Err(err).Msg("failed to list task definitions")
		RespondInternalError(c, "Failed to list tasks")
		return
	}

	RespondList(c, defs)
}

// GetTaskDefinition fetches a single definition by id.
// GET /api/tasks/:id
func (h *Handlers) GetTaskDefinition(c *gin.Context) {
	def, err := h.defs.Get(CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			RespondNotFound(c, "Task not found")
			return
		}
		log.Error().Err(err).Msg("failed to load task definition")
		RespondInternalError(c, "Failed to load task")
		return
	}

	RespondData(c, def)
}

// CreateTaskDefinition creates a recurring or one-off task definition.
// POST /api/tasks
func (h *Handlers) CreateTaskDefinition(c *gin.Context) {
	var body taskDefinitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidationError(c, "invalid task body", nil)
		return
	}

	def, err := body.toDefinition(uuid.NewString(), time.Now())
	if err != nil {
		RespondValidationError(c, err.Error(), nil)
		return
	}

	if err := def.Validate(); err != nil {
		RespondValidationError(c, err.Error(), nil)
		return
	}

	userID := CurrentUserID(c)
	if err := h.defs.Create(userID, def); err != nil {
		log.Error().Err(err).Msg("failed to create task definition")
		RespondInternalError(c, "Failed to create task")
		return
	}

	h.notify.NotifyTasksChanged()
	RespondCreated(c, def, "/api/tasks/"+def.ID)
}

// UpdateTaskDefinition replaces the mutable fields of a definition.
// PUT /api/tasks/:id
func (h *Handlers) UpdateTaskDefinition(c *gin.Context) {
	userID := CurrentUserID(c)
	id := c.Param("id")

	existing, err := h.defs.Get(userID, id)
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			RespondNotFound(c, "Task not found")
			return
		}
		log.Error().Err(err).Msg("failed to load task definition")
		RespondInternalError(c, "Failed to update task")
		return
	}

	var body taskDefinitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidationError(c, "invalid task body", nil)
		return
	}

	// Identity and creation time never change
	def, err := body.toDefinition(existing.ID, existing.CreatedAt)
	if err != nil {
		RespondValidationError(c, err.Error(), nil)
		return
	}

	if err := def.Validate(); err != nil {
		RespondValidationError(c, err.Error(), nil)
		return
	}

	if err := h.defs.Update(userID, def); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			RespondNotFound(c, "Task not found")
			return
		}
		log.Error().Err(err).Msg("failed to update task definition")
		RespondInternalError(c, "Failed to update task")
		return
	}

	h.notify.NotifyTasksChanged()
	RespondData(c, def)
}

// DeleteTaskDefinition removes a definition. Existing log items are kept.
// DELETE /api/tasks/:id
func (h *Handlers) DeleteTaskDefinition(c *gin.Context) {
	if err := h.defs.Delete(CurrentUserID(c), c.Param("id")); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			RespondNotFound(c, "Task not found")
			return
		}
		log.Error().Err(err).Msg("failed to delete task definition")
		RespondInternalError(c, "Failed to delete task")
		return
	}

	h.notify.NotifyTasksChanged()
	RespondNoContent(c)
}
