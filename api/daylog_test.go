package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourminutelog/fourminutelog/daylog"
	"github.com/fourminutelog/fourminutelog/notifications"
	"github.com/fourminutelog/fourminutelog/tasks"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func (c fixedClock) Today() time.Time {
	return time.Date(c.now.Year(), c.now.Month(), c.now.Day(), 0, 0, 0, 0, c.now.Location())
}

func newTestRouter(t *testing.T) (*gin.Engine, tasks.Store, map[string]string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := tasks.NewMemoryStore()
	clock := fixedClock{now: time.Date(2025, 6, 10, 9, 30, 0, 0, time.Local)}

	seq := 0
	newID := func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}

	settings := map[string]string{}
	getSetting := func(key string) (string, error) {
		return settings[key], nil
	}

	logs := daylog.NewService(daylog.NewMemoryRepository(), store, clock, newID)
	h := NewHandlers(logs, store, notifications.NewService(), getSetting)

	r := gin.New()
	SetupRoutes(r, h)
	return r, store, settings
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeLog(t *testing.T, w *httptest.ResponseRecorder) daylog.DayLog {
	t.Helper()

	var resp DataResponse[daylog.DayLog]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestGetLog_CreatesWithScheduledTasks(t *testing.T) {
	r, store, _ := newTestRouter(t)

	err := store.Create("local", tasks.Definition{
		ID:       "standup",
		Title:    "Standup",
		Kind:     tasks.KindRecurring,
		Schedule: &tasks.Schedule{Frequency: tasks.FrequencyDaily},
	})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/api/logs/2025-06-10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	lg := decodeLog(t, w)
	assert.Equal(t, "2025-06-10", lg.Date)
	require.Len(t, lg.TodoTasks, 1)
	assert.Equal(t, "Standup", lg.TodoTasks[0].Content)
	assert.Empty(t, lg.CompletedTasks)
}

func TestGetLog_InvalidDate(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/logs/June-10", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeBadRequest, resp.Error.Code)
}

func TestAddTodo(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/logs/2025-06-10/todos", gin.H{"content": "Write report"})
	require.Equal(t, http.StatusOK, w.Code)

	lg := decodeLog(t, w)
	require.Len(t, lg.TodoTasks, 1)
	assert.Equal(t, "Write report", lg.TodoTasks[0].Content)
}

func TestAddTodo_WhitespaceIsNoOp(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/logs/2025-06-10/todos", gin.H{"content": "   "})
	require.Equal(t, http.StatusOK, w.Code)

	lg := decodeLog(t, w)
	assert.Empty(t, lg.TodoTasks)
}

func TestCompleteAndReverseTodo(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/logs/2025-06-10/todos", gin.H{"content": "Ship release"})
	require.Equal(t, http.StatusOK, w.Code)
	todoID := decodeLog(t, w).TodoTasks[0].ID

	w = doJSON(t, r, http.MethodPost, "/api/logs/2025-06-10/todos/"+todoID+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	lg := decodeLog(t, w)
	assert.Empty(t, lg.TodoTasks)
	require.Len(t, lg.CompletedTasks, 1)
	assert.Equal(t, "Ship release", lg.CompletedTasks[0].Content)

	w = doJSON(t, r, http.MethodPost, "/api/logs/2025-06-10/completed/"+lg.CompletedTasks[0].ID+"/reverse", nil)
	require.Equal(t, http.StatusOK, w.Code)
	lg = decodeLog(t, w)
	assert.Empty(t, lg.CompletedTasks)
	require.Len(t, lg.TodoTasks, 1)
	assert.Equal(t, "Ship release", lg.TodoTasks[0].Content)
}

func TestDeleteTodo_UnknownIDIsNoOp(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/logs/2025-06-10/todos", gin.H{"content": "Keep me"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/logs/2025-06-10/todos/nope", nil)
	require.Equal(t, http.StatusOK, w.Code)

	lg := decodeLog(t, w)
	require.Len(t, lg.TodoTasks, 1)
}

func TestUpdateCompleted_UpsertsOnMiss(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/logs/2025-06-10/completed/manual-1", gin.H{"content": "Paid invoice"})
	require.Equal(t, http.StatusOK, w.Code)

	lg := decodeLog(t, w)
	require.Len(t, lg.CompletedTasks, 1)
	assert.Equal(t, "manual-1", lg.CompletedTasks[0].ID)
	assert.Equal(t, "Paid invoice", lg.CompletedTasks[0].Content)
	assert.False(t, lg.CompletedTasks[0].CompletedAt.IsZero())
}

func TestHistory(t *testing.T) {
	r, _, _ := newTestRouter(t)

	doJSON(t, r, http.MethodGet, "/api/logs/2025-06-08", nil)
	doJSON(t, r, http.MethodGet, "/api/logs/2025-06-09", nil)
	doJSON(t, r, http.MethodGet, "/api/logs/2025-06-10", nil)

	w := doJSON(t, r, http.MethodGet, "/api/logs/2025-06-10/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListResponse[daylog.DayLog]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "2025-06-09", resp.Data[0].Date)
	assert.Equal(t, "2025-06-08", resp.Data[1].Date)
}

func TestHistory_AppliesHistoryLimitSetting(t *testing.T) {
	r, _, settings := newTestRouter(t)
	settings["history_limit"] = "2"

	for _, d := range []string{"2025-06-06", "2025-06-07", "2025-06-08", "2025-06-09"} {
		doJSON(t, r, http.MethodGet, "/api/logs/"+d, nil)
	}

	w := doJSON(t, r, http.MethodGet, "/api/logs/2025-06-10/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListResponse[daylog.DayLog]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "2025-06-09", resp.Data[0].Date)
	assert.Equal(t, "2025-06-08", resp.Data[1].Date)
}

func TestGetLog_EmptyListsSerializeAsArrays(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/logs/2025-06-10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, w.Body.String(), `"todoTasks":[]`)
	assert.Contains(t, w.Body.String(), `"completedTasks":[]`)
}

func TestTaskDefinitionEndpoints(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/tasks", gin.H{
		"title": "Weekly review",
		"type":  "recurring",
		"schedule": gin.H{
			"frequency": "weekly",
			"weekDay":   5,
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created DataResponse[tasks.Definition]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Data.ID)

	w = doJSON(t, r, http.MethodGet, "/api/tasks?type=recurring", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list ListResponse[tasks.Definition]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)

	// Identity survives an update
	w = doJSON(t, r, http.MethodPut, "/api/tasks/"+created.Data.ID, gin.H{
		"title": "Weekly review (Fri)",
		"type":  "recurring",
		"schedule": gin.H{
			"frequency": "weekly",
			"weekDay":   5,
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated DataResponse[tasks.Definition]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, created.Data.ID, updated.Data.ID)
	assert.Equal(t, "Weekly review (Fri)", updated.Data.Title)

	w = doJSON(t, r, http.MethodDelete, "/api/tasks/"+created.Data.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/tasks/"+created.Data.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTaskDefinition_InvalidSchedule(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/tasks", gin.H{
		"title": "Broken",
		"type":  "recurring",
		"schedule": gin.H{
			"frequency": "weekly",
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
}
