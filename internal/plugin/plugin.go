// Package plugin defines the lifecycle contract between the host and a
// node plugin, and the registry that drives it.
package plugin

import (
	"context"
	"time"

	"github.com/soyeahso/discordbridge/internal/host"
)

// Plugin is implemented by every node plugin.
type Plugin interface {
	// ID returns the unique plugin id, e.g. "com.rune.discord".
	ID() string
	Name() string
	Version() string

	// Load prepares the plugin. Services stay valid until Unload.
	Load(ctx context.Context, svc host.Services) error

	// Register adds the plugin's node types to reg.
	Register(reg host.NodeRegistry) error

	// Tick is called once per host frame on the host's tick goroutine.
	Tick(dt time.Duration)

	// Unload releases everything Load acquired.
	Unload() error

	// SettingsSchema returns the JSON schema and defaults document.
	SettingsSchema() string

	// SettingsChanged delivers a new settings document.
	SettingsChanged(doc string)
}

// Info holds summary data about a plugin.
type Info struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Loaded  bool   `json:"loaded"`
}
