// Package hooks dispatches deployment lifecycle events to registered handlers.
package hooks

import (
	"context"
	"sync"

	"github.com/soyeahso/jsmdeploy/internal/logging"
)

// Event names for the hook system.
const (
	EventBeforeDeploy   = "before_deploy"
	EventAfterDeploy    = "after_deploy"
	EventBeforeUndeploy = "before_undeploy"
	EventAfterUndeploy  = "after_undeploy"
	EventStepFailed     = "step_failed"
)

// AllEvents lists all known hook event names.
var AllEvents = []string{
	EventBeforeDeploy,
	EventAfterDeploy,
	EventBeforeUndeploy,
	EventAfterUndeploy,
	EventStepFailed,
}

// Payload carries event data to hook handlers.
type Payload struct {
	Event string            `json:"event"`
	Data  map[string]string `json:"data,omitempty"`
}

// Handler handles a hook event.
// Returning an error logs the failure but does not stop processing.
type Handler func(ctx context.Context, p Payload) error

// Manager manages hook registrations and dispatches events.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers a handler for the given event.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// Emit dispatches an event to all registered handlers in registration order.
// Handler errors are logged and do not prevent later handlers from running.
// A nil Manager is a no-op.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]string) {
	if m == nil {
		return
	}
	m.mu.RLock()
	handlers := make([]namedHandler, len(m.handlers[event]))
	copy(handlers, m.handlers[event])
	m.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	payload := Payload{Event: event, Data: data}
	for _, h := range handlers {
		if err := h.handler(ctx, payload); err != nil {
			m.log.Warn().
				Err(err).
				Str("event", event).
				Str("handler", h.name).
				Msg("hook handler error")
		}
	}
}

// Count returns the number of handlers registered for an event. A nil
// Manager has none.
func (m *Manager) Count(event string) int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}
