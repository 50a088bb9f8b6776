package bridge

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/logging"
	"github.com/soyeahso/discordbridge/internal/metrics"
)

// Handler receives one dispatched event.
type Handler func(ev domain.Event)

// Subscription identifies a registered handler.
type Subscription struct {
	ID   string
	Kind domain.EventKind
}

type entry struct {
	id      string
	handler Handler
}

// Listeners is an ordered handler table per event kind.
type Listeners struct {
	mu       sync.RWMutex
	handlers map[domain.EventKind][]entry
	log      *logging.Logger
	metrics  *metrics.Metrics
}

// NewListeners creates an empty listener table.
func NewListeners(log *logging.Logger, m *metrics.Metrics) *Listeners {
	return &Listeners{
		handlers: make(map[domain.EventKind][]entry),
		log:      log,
		metrics:  m,
	}
}

// Subscribe appends h to the kind's handlers.
func (l *Listeners) Subscribe(kind domain.EventKind, h Handler) Subscription {
	sub := Subscription{ID: uuid.NewString(), Kind: kind}

	l.mu.Lock()
	l.handlers[kind] = append(l.handlers[kind], entry{id: sub.ID, handler: h})
	n := len(l.handlers[kind])
	l.mu.Unlock()

	l.metrics.SetListeners(kind.String(), n)
	l.log.Debug().Str("kind", kind.String()).Str("subscription", sub.ID).Msg("listener registered")
	return sub
}

// Unsubscribe removes the handler with the given id. Reports whether it
// was found.
func (l *Listeners) Unsubscribe(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for kind, entries := range l.handlers {
		for i, e := range entries {
			if e.id != id {
				continue
			}
			filtered := make([]entry, 0, len(entries)-1)
			filtered = append(filtered, entries[:i]...)
			filtered = append(filtered, entries[i+1:]...)
			l.handlers[kind] = filtered
			l.metrics.SetListeners(kind.String(), len(filtered))
			return true
		}
	}
	return false
}

// Clear removes every handler of every kind.
func (l *Listeners) Clear() {
	l.mu.Lock()
	l.handlers = make(map[domain.EventKind][]entry)
	l.mu.Unlock()

	for _, kind := range domain.AllEventKinds {
		l.metrics.SetListeners(kind.String(), 0)
	}
	l.log.Debug().Msg("all listeners cleared")
}

// Count returns the number of handlers for kind.
func (l *Listeners) Count(kind domain.EventKind) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.handlers[kind])
}

// Dispatch invokes every handler registered for ev's kind, in registration
// order, on a snapshot taken before the first call. Handlers added or
// removed while dispatching take effect on the next event. A panicking
// handler is logged and does not stop the others.
func (l *Listeners) Dispatch(ev domain.Event) {
	l.mu.RLock()
	entries := make([]entry, len(l.handlers[ev.Kind()]))
	copy(entries, l.handlers[ev.Kind()])
	l.mu.RUnlock()

	for _, e := range entries {
		l.invoke(e, ev)
	}
}

func (l *Listeners) invoke(e entry, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().
				Str("kind", ev.Kind().String()).
				Str("subscription", e.id).
				Err(fmt.Errorf("%v", r)).
				Msg("listener panicked")
		}
	}()
	e.handler(ev)
}
