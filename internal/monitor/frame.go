package monitor

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/hooks"
)

// Frame is one message on the event stream. IDs sort in emission order.
type Frame struct {
	ID   string    `json:"id"`
	Kind string    `json:"kind"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

// KindHookPrefix prefixes the kind of frames carrying lifecycle hooks.
const KindHookPrefix = "hook."

func newFrame(kind string, data any) Frame {
	return Frame{ID: ulid.Make().String(), Kind: kind, At: time.Now().UTC(), Data: data}
}

// EventFrame wraps a dispatched gateway event.
func EventFrame(ev domain.Event) Frame {
	var data any
	switch e := ev.(type) {
	case domain.Message, domain.ReactionAdd:
		data = e
	}
	return newFrame(ev.Kind().String(), data)
}

// HookFrame wraps a lifecycle hook payload.
func HookFrame(p hooks.Payload) Frame {
	return newFrame(KindHookPrefix+p.Event, p.Data)
}
