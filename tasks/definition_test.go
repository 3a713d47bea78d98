package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestSchedule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sched   Schedule
		wantErr bool
	}{
		{"daily", Schedule{Frequency: FrequencyDaily}, false},
		{"daily with weekDay", Schedule{Frequency: FrequencyDaily, WeekDay: intPtr(2)}, true},
		{"weekly", Schedule{Frequency: FrequencyWeekly, WeekDay: intPtr(0)}, false},
		{"weekly saturday", Schedule{Frequency: FrequencyWeekly, WeekDay: intPtr(6)}, false},
		{"weekly missing weekDay", Schedule{Frequency: FrequencyWeekly}, true},
		{"weekly weekDay out of range", Schedule{Frequency: FrequencyWeekly, WeekDay: intPtr(7)}, true},
		{"weekly with monthDay", Schedule{Frequency: FrequencyWeekly, WeekDay: intPtr(1), MonthDay: intPtr(5)}, true},
		{"monthly", Schedule{Frequency: FrequencyMonthly, MonthDay: intPtr(31)}, false},
		{"monthly missing monthDay", Schedule{Frequency: FrequencyMonthly}, true},
		{"monthly monthDay zero", Schedule{Frequency: FrequencyMonthly, MonthDay: intPtr(0)}, true},
		{"monthly monthDay 32", Schedule{Frequency: FrequencyMonthly, MonthDay: intPtr(32)}, true},
		{"unknown frequency", Schedule{Frequency: "yearly"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sched.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidSchedule)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchedule_AppliesOn(t *testing.T) {
	tests := []struct {
		name  string
		sched Schedule
		date  time.Time
		want  bool
	}{
		{"daily monday", Schedule{Frequency: FrequencyDaily}, date(2024, time.January, 1), true},
		{"daily leap day", Schedule{Frequency: FrequencyDaily}, date(2024, time.February, 29), true},

		// 2024-01-03 is a Wednesday (weekday 3).
		{"weekly match", Schedule{Frequency: FrequencyWeekly, WeekDay: intPtr(3)}, date(2024, time.January, 3), true},
		{"weekly miss", Schedule{Frequency: FrequencyWeekly, WeekDay: intPtr(3)}, date(2024, time.January, 4), false},
		{"weekly sunday", Schedule{Frequency: FrequencyWeekly, WeekDay: intPtr(0)}, date(2024, time.January, 7), true},

		{"monthly match", Schedule{Frequency: FrequencyMonthly, MonthDay: intPtr(15)}, date(2024, time.March, 15), true},
		{"monthly miss", Schedule{Frequency: FrequencyMonthly, MonthDay: intPtr(15)}, date(2024, time.March, 14), false},

		// MonthDay past the end of the month clamps to the last day.
		{"monthDay 31 clamps to apr 30", Schedule{Frequency: FrequencyMonthly, MonthDay: intPtr(31)}, date(2024, time.April, 30), true},
		{"monthDay 31 clamps to feb 29", Schedule{Frequency: FrequencyMonthly, MonthDay: intPtr(31)}, date(2024, time.February, 29), true},
		{"monthDay 30 clamps to feb 28", Schedule{Frequency: FrequencyMonthly, MonthDay: intPtr(30)}, date(2023, time.February, 28), true},
		{"monthDay 31 not mid-april", Schedule{Frequency: FrequencyMonthly, MonthDay: intPtr(31)}, date(2024, time.April, 29), false},
		{"monthDay 31 exact in january", Schedule{Frequency: FrequencyMonthly, MonthDay: intPtr(31)}, date(2024, time.January, 31), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sched.AppliesOn(tt.date))
		})
	}
}

func TestDefinition_AppliesOn_OneOff(t *testing.T) {
	start := time.Date(2024, time.June, 10, 15, 30, 0, 0, time.Local)
	def := Definition{
		ID:        "d1",
		Title:     "Ship release",
		Kind:      KindOneOff,
		StartDate: &start,
	}

	// Time of day on the start date is ignored; only the calendar day matters.
	assert.True(t, def.AppliesOn(date(2024, time.June, 10)))
	assert.False(t, def.AppliesOn(date(2024, time.June, 9)))
	assert.False(t, def.AppliesOn(date(2024, time.June, 11)))
}

func TestDefinition_Validate(t *testing.T) {
	start := date(2024, time.June, 10)

	tests := []struct {
		name    string
		def     Definition
		wantErr bool
	}{
		{"recurring ok", Definition{Title: "Standup", Kind: KindRecurring, Schedule: &Schedule{Frequency: FrequencyDaily}}, false},
		{"recurring no schedule", Definition{Title: "Standup", Kind: KindRecurring}, true},
		{"recurring with startDate", Definition{Title: "Standup", Kind: KindRecurring, Schedule: &Schedule{Frequency: FrequencyDaily}, StartDate: &start}, true},
		{"one-off ok", Definition{Title: "Ship", Kind: KindOneOff, StartDate: &start}, false},
		{"one-off no startDate", Definition{Title: "Ship", Kind: KindOneOff}, true},
		{"one-off with schedule", Definition{Title: "Ship", Kind: KindOneOff, StartDate: &start, Schedule: &Schedule{Frequency: FrequencyDaily}}, true},
		{"empty title", Definition{Title: "   ", Kind: KindRecurring, Schedule: &Schedule{Frequency: FrequencyDaily}}, true},
		{"unknown kind", Definition{Title: "x", Kind: "habit"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMemoryStore_CRUD(t *testing.T) {
	s := NewMemoryStore()

	defs := []Definition{
		{ID: "a", Title: "Standup", Kind: KindRecurring, Schedule: &Schedule{Frequency: FrequencyDaily}},
		{ID: "b", Title: "Review", Kind: KindRecurring, Schedule: &Schedule{Frequency: FrequencyWeekly, WeekDay: intPtr(5)}},
	}
	start := date(2024, time.June, 10)
	oneOff := Definition{ID: "c", Title: "Ship", Kind: KindOneOff, StartDate: &start}

	for _, d := range defs {
		require.NoError(t, s.Create("u1", d))
	}
	require.NoError(t, s.Create("u1", oneOff))

	// List preserves insertion order and filters by kind.
	got, err := s.List("u1", KindRecurring)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	got, err = s.List("u1", KindOneOff)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)

	// Users are isolated.
	got, err = s.List("u2", "")
	require.NoError(t, err)
	assert.Empty(t, got)

	// Update replaces mutable fields, keeps identity.
	updated := defs[0]
	updated.Title = "Morning standup"
	require.NoError(t, s.Update("u1", updated))
	d, err := s.Get("u1", "a")
	require.NoError(t, err)
	assert.Equal(t, "Morning standup", d.Title)

	// Invalid updates are rejected before touching the store.
	bad := defs[1]
	bad.Schedule = &Schedule{Frequency: FrequencyWeekly}
	assert.ErrorIs(t, s.Update("u1", bad), ErrInvalidSchedule)

	// Unknown ids.
	_, err = s.Get("u1", "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete("u1", "zzz"), ErrNotFound)

	require.NoError(t, s.Delete("u1", "a"))
	got, err = s.List("u1", KindRecurring)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}
