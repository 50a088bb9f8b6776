package plugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/soyeahso/discordbridge/internal/hooks"
	"github.com/soyeahso/discordbridge/internal/host"
	"github.com/soyeahso/discordbridge/internal/logging"
)

// ServicesFunc builds the host services handed to the plugin with id.
type ServicesFunc func(id string) host.Services

// Registry manages plugin lifecycle in registration order.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	loaded  map[string]bool
	order   []string
	hooks   *hooks.Manager
	log     *logging.Logger
}

// NewRegistry creates a plugin registry. hm may be nil.
func NewRegistry(hm *hooks.Manager, log *logging.Logger) *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
		loaded:  make(map[string]bool),
		hooks:   hm,
		log:     log.Sub("plugins"),
	}
}

// Register adds a plugin without loading it.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[p.ID()]; exists {
		return fmt.Errorf("plugin already registered: %s", p.ID())
	}
	r.plugins[p.ID()] = p
	r.order = append(r.order, p.ID())

	r.log.Info().
		Str("id", p.ID()).
		Str("name", p.Name()).
		Str("version", p.Version()).
		Msg("plugin registered")
	return nil
}

// LoadAll loads every plugin and registers its nodes with nodes. On failure
// the plugins loaded so far stay loaded; call UnloadAll to release them.
func (r *Registry) LoadAll(ctx context.Context, services ServicesFunc, nodes host.NodeRegistry) error {
	for _, id := range r.List() {
		p := r.Get(id)

		r.log.Info().Str("id", id).Msg("loading plugin")
		if err := p.Load(ctx, services(id)); err != nil {
			return fmt.Errorf("load plugin %s: %w", id, err)
		}
		r.mu.Lock()
		r.loaded[id] = true
		r.mu.Unlock()

		if err := p.Register(nodes); err != nil {
			return fmt.Errorf("register nodes of %s: %w", id, err)
		}
		r.hooks.Emit(ctx, hooks.EventPluginLoaded, map[string]any{"plugin": id, "version": p.Version()})
	}
	return nil
}

// TickAll ticks every loaded plugin.
func (r *Registry) TickAll(dt time.Duration) {
	r.mu.RLock()
	active := make([]Plugin, 0, len(r.order))
	for _, id := range r.order {
		if r.loaded[id] {
			active = append(active, r.plugins[id])
		}
	}
	r.mu.RUnlock()

	for _, p := range active {
		p.Tick(dt)
	}
}

// UnloadAll unloads loaded plugins in reverse registration order.
func (r *Registry) UnloadAll(ctx context.Context) {
	ids := r.List()
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]

		r.mu.Lock()
		was := r.loaded[id]
		r.loaded[id] = false
		p := r.plugins[id]
		r.mu.Unlock()
		if !was {
			continue
		}

		r.log.Info().Str("id", id).Msg("unloading plugin")
		if err := p.Unload(); err != nil {
			r.log.Error().Err(err).Str("id", id).Msg("plugin unload error")
		}
		r.hooks.Emit(ctx, hooks.EventPluginUnloaded, map[string]any{"plugin": id})
	}
}

// NotifySettings delivers doc to the plugin with id.
func (r *Registry) NotifySettings(ctx context.Context, id, doc string) error {
	p := r.Get(id)
	if p == nil {
		return fmt.Errorf("unknown plugin: %s", id)
	}
	p.SettingsChanged(doc)
	r.hooks.Emit(ctx, hooks.EventSettingsChanged, map[string]any{"plugin": id})
	return nil
}

// Get returns a plugin by id, or nil.
func (r *Registry) Get(id string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugins[id]
}

// List returns plugin ids in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Info summarizes every registered plugin.
func (r *Registry) Info() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		p := r.plugins[id]
		infos = append(infos, Info{ID: p.ID(), Name: p.Name(), Version: p.Version(), Loaded: r.loaded[id]})
	}
	return infos
}
