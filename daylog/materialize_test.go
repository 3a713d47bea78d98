package daylog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fourminutelog/fourminutelog/tasks"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func intPtr(v int) *int { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestMaterialize_DailyTask(t *testing.T) {
	recurring := []tasks.Definition{
		{ID: "r1", Title: "Standup", Kind: tasks.KindRecurring, Schedule: &tasks.Schedule{Frequency: tasks.FrequencyDaily}},
	}

	items := Materialize(date(2024, time.January, 1), recurring, nil, seqIDs())

	require.Len(t, items, 1)
	assert.Equal(t, "Standup", items[0].Content)
	assert.False(t, items[0].Completed)
}

func TestMaterialize_FiltersAndOrders(t *testing.T) {
	// 2024-01-03 is a Wednesday, day 3 of the month.
	target := date(2024, time.January, 3)

	recurring := []tasks.Definition{
		{ID: "r1", Title: "Standup", Duration: "15m", Kind: tasks.KindRecurring,
			Schedule: &tasks.Schedule{Frequency: tasks.FrequencyDaily}},
		{ID: "r2", Title: "Timesheet", Kind: tasks.KindRecurring,
			Schedule: &tasks.Schedule{Frequency: tasks.FrequencyWeekly, WeekDay: intPtr(5)}}, // Friday, misses
		{ID: "r3", Title: "Midweek review", Kind: tasks.KindRecurring,
			Schedule: &tasks.Schedule{Frequency: tasks.FrequencyWeekly, WeekDay: intPtr(3)}},
		{ID: "r4", Title: "Invoice", Kind: tasks.KindRecurring,
			Schedule: &tasks.Schedule{Frequency: tasks.FrequencyMonthly, MonthDay: intPtr(3)}},
	}
	startHit := date(2024, time.January, 3)
	startMiss := date(2024, time.January, 4)
	oneOff := []tasks.Definition{
		{ID: "o1", Title: "Call dentist", Kind: tasks.KindOneOff, StartDate: &startMiss},
		{ID: "o2", Title: "Renew domain", Duration: "30m", Tags: []string{"admin"}, Kind: tasks.KindOneOff, StartDate: &startHit},
	}

	items := Materialize(target, recurring, oneOff, seqIDs())

	// Applicable recurring tasks first in store order, then one-offs in store order.
	require.Len(t, items, 4)
	assert.Equal(t, []string{"Standup", "Midweek review", "Invoice", "Renew domain"},
		[]string{items[0].Content, items[1].Content, items[2].Content, items[3].Content})

	// Definition fields carry over; every item starts incomplete.
	assert.Equal(t, "15m", items[0].TimeLabel)
	assert.Equal(t, "30m", items[3].TimeLabel)
	assert.Equal(t, []string{"admin"}, items[3].Tags)
	for _, it := range items {
		assert.False(t, it.Completed)
		assert.NotEmpty(t, it.ID)
	}
}

func TestMaterialize_FreshIdentityPerCall(t *testing.T) {
	recurring := []tasks.Definition{
		{ID: "r1", Title: "Standup", Kind: tasks.KindRecurring, Schedule: &tasks.Schedule{Frequency: tasks.FrequencyDaily}},
	}

	newID := seqIDs()
	first := Materialize(date(2024, time.January, 1), recurring, nil, newID)
	second := Materialize(date(2024, time.January, 1), recurring, nil, newID)

	// No de-duplication across calls: each call mints new identities.
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].ID, second[0].ID)
}

func TestMaterialize_TagsAreCopied(t *testing.T) {
	def := tasks.Definition{
		ID: "r1", Title: "Standup", Tags: []string{"work"},
		Kind: tasks.KindRecurring, Schedule: &tasks.Schedule{Frequency: tasks.FrequencyDaily},
	}

	items := Materialize(date(2024, time.January, 1), []tasks.Definition{def}, nil, seqIDs())

	require.Len(t, items, 1)
	items[0].Tags[0] = "changed"
	assert.Equal(t, "work", def.Tags[0])
}
