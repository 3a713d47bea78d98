package daylog

import (
	"time"

	"github.com/fourminutelog/fourminutelog/tasks"
)

// Materialize produces the fresh to-do items for a date from the given
// definitions: every applicable recurring definition first, in store order,
// then every applicable one-off, in store order. Each call mints new item
// identities, so it must run at most once per (user, date); the service's
// GetOrCreate is the only caller.
func Materialize(date time.Time, recurring, oneOff []tasks.Definition, newID func() string) []TodoItem {
	var items []TodoItem
	for _, def := range recurring {
		if def.AppliesOn(date) {
			items = append(items, itemFromDefinition(def, newID()))
		}
	}
	for _, def := range oneOff {
		if def.AppliesOn(date) {
			items = append(items, itemFromDefinition(def, newID()))
		}
	}
	return items
}

func itemFromDefinition(def tasks.Definition, id string) TodoItem {
	var tags []string
	if def.Tags != nil {
		tags = append([]string(nil), def.Tags...)
	}
	return TodoItem{
		ID:        id,
		Content:   def.Title,
		Completed: false,
		TimeLabel: def.Duration,
		Tags:      tags,
	}
}
