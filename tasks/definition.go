package tasks

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes the two task definition variants.
type Kind string

const (
	KindRecurring Kind = "recurring"
	KindOneOff    Kind = "one-off"
)

// Frequency is a recurring schedule's cadence.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

var (
	// ErrInvalidSchedule is returned when a schedule is missing the field its
	// frequency requires, or carries a field its frequency forbids.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrNotFound is returned by stores for an unknown definition id.
	ErrNotFound = errors.New("task definition not found")
)

// Schedule describes when a recurring task applies.
// WeekDay is set iff Frequency is weekly, MonthDay iff monthly.
type Schedule struct {
	Frequency Frequency `json:"frequency"`
	WeekDay   *int      `json:"weekDay,omitempty"`  // 0=Sunday .. 6=Saturday
	MonthDay  *int      `json:"monthDay,omitempty"` // 1..31
}

// Validate checks the frequency/field shape invariant.
func (s Schedule) Validate() error {
	switch s.Frequency {
	case FrequencyDaily:
		if s.WeekDay != nil || s.MonthDay != nil {
			return fmt.Errorf("%w: daily schedule must not set weekDay or monthDay", ErrInvalidSchedule)
		}
	case FrequencyWeekly:
		if s.WeekDay == nil {
			return fmt.Errorf("%w: weekly schedule requires weekDay", ErrInvalidSchedule)
		}
		if *s.WeekDay < 0 || *s.WeekDay > 6 {
			return fmt.Errorf("%w: weekDay %d out of range 0..6", ErrInvalidSchedule, *s.WeekDay)
		}
		if s.MonthDay != nil {
			return fmt.Errorf("%w: weekly schedule must not set monthDay", ErrInvalidSchedule)
		}
	case FrequencyMonthly:
		if s.MonthDay == nil {
			return fmt.Errorf("%w: monthly schedule requires monthDay", ErrInvalidSchedule)
		}
		if *s.MonthDay < 1 || *s.MonthDay > 31 {
			return fmt.Errorf("%w: monthDay %d out of range 1..31", ErrInvalidSchedule, *s.MonthDay)
		}
		if s.WeekDay != nil {
			return fmt.Errorf("%w: monthly schedule must not set weekDay", ErrInvalidSchedule)
		}
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidSchedule, s.Frequency)
	}
	return nil
}

// AppliesOn reports whether the schedule fires on the given calendar date.
// Monthly schedules whose MonthDay exceeds the length of the target month
// clamp to that month's last day, so monthDay=31 fires on Feb 28 and Apr 30.
func (s Schedule) AppliesOn(date time.Time) bool {
	switch s.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return s.WeekDay != nil && *s.WeekDay == int(date.Weekday())
	case FrequencyMonthly:
		if s.MonthDay == nil {
			return false
		}
		day := *s.MonthDay
		if last := lastDayOfMonth(date); day > last {
			day = last
		}
		return date.Day() == day
	}
	return false
}

func lastDayOfMonth(date time.Time) int {
	return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, date.Location()).Day()
}

// Definition is a task template: either recurring (has a Schedule) or
// one-off (has a StartDate). Identity is immutable; the remaining fields
// are mutable through the store's Update.
type Definition struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Duration  string     `json:"time,omitempty"` // duration label, "15m".."8h"
	Tags      []string   `json:"tags,omitempty"`
	Kind      Kind       `json:"type"`
	Schedule  *Schedule  `json:"schedule,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Validate checks the variant shape: exactly one of Schedule/StartDate,
// matching the Kind, with a non-empty title.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return errors.New("title is required")
	}
	switch d.Kind {
	case KindRecurring:
		if d.Schedule == nil {
			return fmt.Errorf("%w: recurring task requires a schedule", ErrInvalidSchedule)
		}
		if d.StartDate != nil {
			return errors.New("recurring task must not set startDate")
		}
		return d.Schedule.Validate()
	case KindOneOff:
		if d.StartDate == nil {
			return errors.New("one-off task requires startDate")
		}
		if d.Schedule != nil {
			return errors.New("one-off task must not set a schedule")
		}
		return nil
	}
	return fmt.Errorf("unknown task kind %q", d.Kind)
}

// AppliesOn reports whether the definition produces an item on the given date.
// One-off start dates match on the calendar day only, ignoring time of day.
func (d Definition) AppliesOn(date time.Time) bool {
	switch d.Kind {
	case KindRecurring:
		return d.Schedule != nil && d.Schedule.AppliesOn(date)
	case KindOneOff:
		return d.StartDate != nil && sameDay(*d.StartDate, date)
	}
	return false
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
