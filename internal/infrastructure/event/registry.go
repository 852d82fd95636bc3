package event

import (
	"slices"
	"sync"

	"github.com/agency/backend/internal/domain/shared"
)

// subscription is one handler and the event types it asked for
type subscription struct {
	handler shared.EventHandler
	all     bool
	types   map[string]struct{}
}

func (s subscription) wants(eventType string) bool {
	if s.all {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// HandlerRegistry keeps subscriptions in registration order so handlers run
// in the order they were wired
type HandlerRegistry struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{}
}

// Register subscribes handler to eventTypes, or to every event when none are
// given. Registering the same handler again widens its type set.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.IndexFunc(r.subs, func(s subscription) bool { return s.handler == handler })
	if idx < 0 {
		r.subs = append(r.subs, subscription{handler: handler, types: make(map[string]struct{})})
		idx = len(r.subs) - 1
	}
	sub := &r.subs[idx]
	if len(eventTypes) == 0 {
		sub.all = true
		return
	}
	for _, t := range eventTypes {
		sub.types[t] = struct{}{}
	}
}

// Unregister drops every subscription of handler
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = slices.DeleteFunc(r.subs, func(s subscription) bool { return s.handler == handler })
}

// GetHandlers returns the handlers subscribed to eventType
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var handlers []shared.EventHandler
	for _, s := range r.subs {
		if s.wants(eventType) {
			handlers = append(handlers, s.handler)
		}
	}
	return handlers
}

// Len returns the number of subscribed handlers
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
