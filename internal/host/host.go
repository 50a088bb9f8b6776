// Package host defines the contracts between the flow host and node
// plugins, plus the pieces of a minimal host: a node catalog, scoped
// environments and a linear flow interpreter.
package host

import (
	"context"

	"github.com/soyeahso/discordbridge/internal/logging"
)

// PinDir is the direction of a pin.
type PinDir int

const (
	PinIn PinDir = iota
	PinOut
)

// PinKind separates execution pins from data pins.
type PinKind int

const (
	PinData PinKind = iota
	PinExec
)

// PinDesc declares one input or output of a node.
type PinDesc struct {
	Name string  `json:"name"`
	Type string  `json:"type"` // "string" | "int" | "bool" | "json" | "execution"
	Dir  PinDir  `json:"dir"`
	Kind PinKind `json:"kind"`
}

// NodeFlags classify a node.
type NodeFlags int

const (
	FlagNone         NodeFlags = 0
	FlagTriggerEvent NodeFlags = 1 << 0
	FlagPureData     NodeFlags = 1 << 1
)

// NodeDesc describes a node type.
type NodeDesc struct {
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	TypeID      string    `json:"typeId"`
	Pins        []PinDesc `json:"pins"`
	Flags       NodeFlags `json:"flags"`
	Description string    `json:"description"`
}

// Inputs returns the data input pins.
func (d NodeDesc) Inputs() []PinDesc { return d.pins(PinIn, PinData) }

// Outputs returns the data output pins.
func (d NodeDesc) Outputs() []PinDesc { return d.pins(PinOut, PinData) }

func (d NodeDesc) pins(dir PinDir, kind PinKind) []PinDesc {
	var out []PinDesc
	for _, p := range d.Pins {
		if p.Dir == dir && p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// ExecContext is the per-execution view a node gets of the host.
type ExecContext interface {
	Context() context.Context
	Input(name string) string
	InputInt(name string) (int64, bool)
	Property(name string) string
	SetOutput(name string, value any)
	Trigger(pin string)
	SetError(msg string)
}

// Node is an executable action or data node. A returned error aborts the
// rest of the flow.
type Node interface {
	Execute(ec ExecContext) error
}

// EventNode is a trigger. The ExecContext passed to StartListening stays
// valid until StopListening and is used to publish outputs and fire pins.
type EventNode interface {
	StartListening(ec ExecContext) error
	StopListening()
}

// Factory creates a node instance; the result implements Node or EventNode.
type Factory func() any

// NodeRegistry receives node types from plugins.
type NodeRegistry interface {
	Register(desc NodeDesc, factory Factory) error
}

// Env is a scoped key/value lookup.
type Env interface {
	Lookup(key string) (string, bool)
}

// Services are the host facilities handed to a plugin at load.
type Services struct {
	Log     *logging.Logger
	FlowEnv Env
	AppEnv  Env

	// Settings returns the plugin's stored settings document, "" if none.
	Settings func() (string, error)
}
