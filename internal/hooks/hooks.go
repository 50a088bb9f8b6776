// Package hooks carries host lifecycle notifications (plugins loading,
// settings changing, flows running) to interested subsystems such as the
// monitor.
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/soyeahso/discordbridge/internal/logging"
)

// Lifecycle event names.
const (
	EventRuntimeStart    = "runtime_start"
	EventRuntimeStop     = "runtime_stop"
	EventPluginLoaded    = "plugin_loaded"
	EventPluginUnloaded  = "plugin_unloaded"
	EventSettingsChanged = "settings_changed"
	EventFlowCompleted   = "flow_completed"
	EventFlowFailed      = "flow_failed"
)

// AllEvents lists every lifecycle event name.
var AllEvents = []string{
	EventRuntimeStart,
	EventRuntimeStop,
	EventPluginLoaded,
	EventPluginUnloaded,
	EventSettingsChanged,
	EventFlowCompleted,
	EventFlowFailed,
}

// Payload is what a handler receives.
type Payload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler reacts to an event. A returned error is logged and does not stop
// the remaining handlers.
type Handler func(ctx context.Context, p Payload) error

type namedHandler struct {
	name    string
	handler Handler
}

// Manager dispatches lifecycle events to named handlers.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	log      *logging.Logger
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On adds handler for event under name.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.mu.Unlock()
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// OnAll adds handler for every lifecycle event.
func (m *Manager) OnAll(name string, handler Handler) {
	for _, ev := range AllEvents {
		m.On(ev, name, handler)
	}
}

// Off removes the handlers registered under name for event.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.handlers[event][:0:0]
	for _, h := range m.handlers[event] {
		if h.name != name {
			kept = append(kept, h)
		}
	}
	m.handlers[event] = kept
}

// Emit runs the handlers for event synchronously in registration order.
// A nil Manager is a no-op.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	if m == nil {
		return
	}
	m.mu.RLock()
	handlers := append([]namedHandler(nil), m.handlers[event]...)
	m.mu.RUnlock()

	p := Payload{Event: event, Data: data}
	for _, h := range handlers {
		if err := m.call(ctx, h, p); err != nil {
			m.log.Warn().Err(err).Str("event", event).Str("handler", h.name).Msg("hook handler error")
		}
	}
}

func (m *Manager) call(ctx context.Context, h namedHandler, p Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.handler(ctx, p)
}

// Count returns the number of handlers for event.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}

// Events returns the events with at least one handler, sorted.
func (m *Manager) Events() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []string
	for ev, hs := range m.handlers {
		if len(hs) > 0 {
			events = append(events, ev)
		}
	}
	sort.Strings(events)
	return events
}
