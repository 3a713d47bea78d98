package api

import (
	"github.com/fourminutelog/fourminutelog/daylog"
	"github.com/fourminutelog/fourminutelog/notifications"
	"github.com/fourminutelog/fourminutelog/tasks"
)

// Handlers holds the components the API operates on
type Handlers struct {
	logs       *daylog.Service
	defs       tasks.Store
	notify     *notifications.Service
	getSetting func(key string) (string, error)
}

// NewHandlers creates a new Handlers instance
func NewHandlers(logs *daylog.Service, defs tasks.Store, notify *notifications.Service, getSetting func(key string) (string, error)) *Handlers {
	return &Handlers{
		logs:       logs,
		defs:       defs,
		notify:     notify,
		getSetting: getSetting,
	}
}
