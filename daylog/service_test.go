package daylog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourminutelog/fourminutelog/tasks"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Today() time.Time {
	return time.Date(c.now.Year(), c.now.Month(), c.now.Day(), 0, 0, 0, 0, c.now.Location())
}

func newTestService(t *testing.T) (*Service, *tasks.MemoryStore, *fakeClock) {
	t.Helper()
	store := tasks.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2024, time.January, 1, 9, 0, 0, 0, time.Local)}
	svc := NewService(NewMemoryRepository(), store, clock, seqIDs())
	return svc, store, clock
}

const user = "u1"

func TestGetOrCreate_MaterializesDailyTask(t *testing.T) {
	svc, store, _ := newTestService(t)
	require.NoError(t, store.Create(user, tasks.Definition{
		ID: "r1", Title: "Standup", Kind: tasks.KindRecurring,
		Schedule: &tasks.Schedule{Frequency: tasks.FrequencyDaily},
	}))

	lg, err := svc.GetOrCreate(user, date(2024, time.January, 1))
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01", lg.Date)
	require.Len(t, lg.TodoTasks, 1)
	assert.Equal(t, "Standup", lg.TodoTasks[0].Content)
	assert.False(t, lg.TodoTasks[0].Completed)
	assert.Empty(t, lg.CompletedTasks)
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	svc, store, clock := newTestService(t)
	require.NoError(t, store.Create(user, tasks.Definition{
		ID: "r1", Title: "Standup", Kind: tasks.KindRecurring,
		Schedule: &tasks.Schedule{Frequency: tasks.FrequencyDaily},
	}))

	first, err := svc.GetOrCreate(user, date(2024, time.January, 1))
	require.NoError(t, err)

	// Later in the day: the second call is a pure read, not a re-materialization.
	clock.now = clock.now.Add(6 * time.Hour)
	second, err := svc.GetOrCreate(user, date(2024, time.January, 1))
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, first.TodoTasks, second.TodoTasks)
	assert.Equal(t, first.CompletedTasks, second.CompletedTasks)
}

func TestGetOrCreate_CarriesForwardIncomplete(t *testing.T) {
	svc, _, _ := newTestService(t)

	lg, err := svc.AddTodo(user, date(2024, time.January, 1), "Write report")
	require.NoError(t, err)
	require.Len(t, lg.TodoTasks, 1)
	carriedFrom := lg.TodoTasks[0]

	next, err := svc.GetOrCreate(user, date(2024, time.January, 2))
	require.NoError(t, err)

	require.Len(t, next.TodoTasks, 1)
	assert.Equal(t, "Write report", next.TodoTasks[0].Content)
	assert.Empty(t, next.CompletedTasks)
	// Carry-forward mints a new identity.
	assert.NotEqual(t, carriedFrom.ID, next.TodoTasks[0].ID)

	// Yesterday's log is untouched.
	prev, err := svc.GetOrCreate(user, date(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, prev.TodoTasks, 1)
	assert.Equal(t, carriedFrom.ID, prev.TodoTasks[0].ID)
}

func TestGetOrCreate_CarriedBeforeFresh(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.AddTodo(user, date(2024, time.January, 1), "Leftover")
	require.NoError(t, err)

	require.NoError(t, store.Create(user, tasks.Definition{
		ID: "r1", Title: "Standup", Kind: tasks.KindRecurring,
		Schedule: &tasks.Schedule{Frequency: tasks.FrequencyDaily},
	}))

	lg, err := svc.GetOrCreate(user, date(2024, time.January, 2))
	require.NoError(t, err)

	require.Len(t, lg.TodoTasks, 2)
	assert.Equal(t, "Leftover", lg.TodoTasks[0].Content)
	assert.Equal(t, "Standup", lg.TodoTasks[1].Content)
}

func TestGetOrCreate_CompletedItemsDoNotRollOver(t *testing.T) {
	svc, _, _ := newTestService(t)

	lg, err := svc.AddTodo(user, date(2024, time.January, 1), "Done today")
	require.NoError(t, err)
	_, err = svc.AddTodo(user, date(2024, time.January, 1), "Still open")
	require.NoError(t, err)
	_, err = svc.CompleteTodo(user, date(2024, time.January, 1), lg.TodoTasks[0].ID)
	require.NoError(t, err)

	next, err := svc.GetOrCreate(user, date(2024, time.January, 2))
	require.NoError(t, err)

	require.Len(t, next.TodoTasks, 1)
	assert.Equal(t, "Still open", next.TodoTasks[0].Content)
	assert.Empty(t, next.CompletedTasks)
}

func TestAddTodo_WhitespaceIsNoOp(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, content := range []string{"", "   ", "\t\n"} {
		lg, err := svc.AddTodo(user, date(2024, time.January, 1), content)
		require.NoError(t, err)
		assert.Empty(t, lg.TodoTasks)
	}
}

func TestEditDeleteUpdateTodo(t *testing.T) {
	svc, _, _ := newTestService(t)
	day := date(2024, time.January, 1)

	lg, err := svc.AddTodo(user, day, "Draft email")
	require.NoError(t, err)
	id := lg.TodoTasks[0].ID

	lg, err = svc.EditTodo(user, day, id, "Send email")
	require.NoError(t, err)
	assert.Equal(t, "Send email", lg.TodoTasks[0].Content)

	label := "30m"
	tags := []string{"comms"}
	lg, err = svc.UpdateTodo(user, day, id, ItemPatch{TimeLabel: &label, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "Send email", lg.TodoTasks[0].Content)
	assert.Equal(t, "30m", lg.TodoTasks[0].TimeLabel)
	assert.Equal(t, []string{"comms"}, lg.TodoTasks[0].Tags)

	// Unknown ids are silent no-ops.
	lg, err = svc.EditTodo(user, day, "missing", "x")
	require.NoError(t, err)
	require.Len(t, lg.TodoTasks, 1)
	lg, err = svc.DeleteTodo(user, day, "missing")
	require.NoError(t, err)
	require.Len(t, lg.TodoTasks, 1)

	lg, err = svc.DeleteTodo(user, day, id)
	require.NoError(t, err)
	assert.Empty(t, lg.TodoTasks)
}

func TestCompleteThenReverse_RoundTrip(t *testing.T) {
	svc, _, clock := newTestService(t)
	day := date(2024, time.January, 1)

	lg, err := svc.AddTodo(user, day, "Pay invoice")
	require.NoError(t, err)
	todoID := lg.TodoTasks[0].ID

	label := "15m"
	tags := []string{"finance", "urgent"}
	_, err = svc.UpdateTodo(user, day, todoID, ItemPatch{TimeLabel: &label, Tags: &tags})
	require.NoError(t, err)

	lg, err = svc.CompleteTodo(user, day, todoID)
	require.NoError(t, err)
	assert.Empty(t, lg.TodoTasks)
	require.Len(t, lg.CompletedTasks, 1)

	done := lg.CompletedTasks[0]
	assert.Equal(t, "Pay invoice", done.Content)
	assert.Equal(t, "15m", done.TimeLabel)
	assert.Equal(t, []string{"finance", "urgent"}, done.Tags)
	assert.Equal(t, clock.now, done.CompletedAt)
	assert.NotEqual(t, todoID, done.ID)

	lg, err = svc.ReverseCompleted(user, day, done.ID)
	require.NoError(t, err)
	assert.Empty(t, lg.CompletedTasks)
	require.Len(t, lg.TodoTasks, 1)

	back := lg.TodoTasks[0]
	assert.Equal(t, "Pay invoice", back.Content)
	assert.Equal(t, "15m", back.TimeLabel)
	assert.Equal(t, []string{"finance", "urgent"}, back.Tags)
	assert.False(t, back.Completed)
	// Round-trip preserves content, not identity.
	assert.NotEqual(t, todoID, back.ID)
	assert.NotEqual(t, done.ID, back.ID)
}

func TestCompleteTodo_UnknownIDIsNoOp(t *testing.T) {
	svc, _, _ := newTestService(t)
	day := date(2024, time.January, 1)

	_, err := svc.AddTodo(user, day, "Keep me")
	require.NoError(t, err)

	lg, err := svc.CompleteTodo(user, day, "missing")
	require.NoError(t, err)
	require.Len(t, lg.TodoTasks, 1)
	assert.Empty(t, lg.CompletedTasks)
}

func TestUpdateCompleted_MergesInPlace(t *testing.T) {
	svc, _, _ := newTestService(t)
	day := date(2024, time.January, 1)

	lg, err := svc.AddTodo(user, day, "Pay invoice")
	require.NoError(t, err)
	lg, err = svc.CompleteTodo(user, day, lg.TodoTasks[0].ID)
	require.NoError(t, err)
	id := lg.CompletedTasks[0].ID

	content := "Paid invoice"
	lg, err = svc.UpdateCompleted(user, day, id, ItemPatch{Content: &content})
	require.NoError(t, err)
	require.Len(t, lg.CompletedTasks, 1)
	assert.Equal(t, id, lg.CompletedTasks[0].ID)
	assert.Equal(t, "Paid invoice", lg.CompletedTasks[0].Content)
}

func TestUpdateCompleted_UpsertsOnMiss(t *testing.T) {
	svc, _, clock := newTestService(t)
	day := date(2024, time.January, 1)

	content := "Paid invoice"
	lg, err := svc.UpdateCompleted(user, day, "x", ItemPatch{Content: &content})
	require.NoError(t, err)

	// The caller's id becomes the new item's identity; completedAt defaults to now.
	require.Len(t, lg.CompletedTasks, 1)
	assert.Equal(t, "x", lg.CompletedTasks[0].ID)
	assert.Equal(t, "Paid invoice", lg.CompletedTasks[0].Content)
	assert.Equal(t, clock.now, lg.CompletedTasks[0].CompletedAt)

	// Missing fields default: empty content when the patch has none.
	lg, err = svc.UpdateCompleted(user, day, "y", ItemPatch{})
	require.NoError(t, err)
	require.Len(t, lg.CompletedTasks, 2)
	assert.Equal(t, "", lg.CompletedTasks[1].Content)
}

func TestHistory_ReturnsPriorLogsNewestFirst(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, d := range []time.Time{
		date(2024, time.January, 1),
		date(2024, time.January, 2),
		date(2024, time.January, 3),
	} {
		_, err := svc.GetOrCreate(user, d)
		require.NoError(t, err)
	}

	history, err := svc.History(user, date(2024, time.January, 3), 0)
	require.NoError(t, err)

	require.Len(t, history, 2)
	assert.Equal(t, "2024-01-02", history[0].Date)
	assert.Equal(t, "2024-01-01", history[1].Date)
}

func TestHistory_LimitCapsResults(t *testing.T) {
	svc, _, _ := newTestService(t)

	for day := 1; day <= 5; day++ {
		_, err := svc.GetOrCreate(user, date(2024, time.January, day))
		require.NoError(t, err)
	}

	history, err := svc.History(user, date(2024, time.January, 5), 2)
	require.NoError(t, err)

	// The newest logs win when the limit truncates.
	require.Len(t, history, 2)
	assert.Equal(t, "2024-01-04", history[0].Date)
	assert.Equal(t, "2024-01-03", history[1].Date)
}

func TestGetOrCreate_EmptyDayHasNonNilLists(t *testing.T) {
	svc, _, _ := newTestService(t)

	lg, err := svc.GetOrCreate(user, date(2024, time.January, 1))
	require.NoError(t, err)

	assert.NotNil(t, lg.TodoTasks)
	assert.NotNil(t, lg.CompletedTasks)
}

func TestService_UsersAreIsolated(t *testing.T) {
	svc, _, _ := newTestService(t)
	day := date(2024, time.January, 1)

	_, err := svc.AddTodo("alice", day, "Alice's task")
	require.NoError(t, err)

	lg, err := svc.GetOrCreate("bob", day)
	require.NoError(t, err)
	assert.Empty(t, lg.TodoTasks)
}
