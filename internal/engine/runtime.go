// Package engine is the reference host: it loads plugins, instantiates
// flows and drives every plugin from a single tick goroutine.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/soyeahso/discordbridge/internal/config"
	"github.com/soyeahso/discordbridge/internal/hooks"
	"github.com/soyeahso/discordbridge/internal/host"
	"github.com/soyeahso/discordbridge/internal/logging"
	"github.com/soyeahso/discordbridge/internal/metrics"
	"github.com/soyeahso/discordbridge/internal/plugin"
)

// SettingsSource reads stored plugin settings documents.
type SettingsSource interface {
	Get(ctx context.Context, pluginID string) (string, error)
}

// Options configures a Runtime. Hooks, Metrics, Settings and the envs are
// optional.
type Options struct {
	Config   config.Config
	Log      *logging.Logger
	Plugins  *plugin.Registry
	Hooks    *hooks.Manager
	Metrics  *metrics.Metrics
	Settings SettingsSource
	FlowEnv  host.Env
	AppEnv   host.Env
}

// Runtime owns the host side of every loaded plugin.
type Runtime struct {
	opts    Options
	log     *logging.Logger
	catalog *host.Catalog

	mu      sync.Mutex
	flows   []*host.Flow
	started bool
}

// New creates a runtime. Nothing is loaded until Start.
func New(opts Options) *Runtime {
	if opts.FlowEnv == nil {
		opts.FlowEnv = host.MapEnv(opts.Config.Host.FlowEnv)
	}
	if opts.AppEnv == nil {
		opts.AppEnv = host.MapEnv{}
	}
	return &Runtime{
		opts:    opts,
		log:     opts.Log.Sub("engine"),
		catalog: host.NewCatalog(),
	}
}

// Catalog returns the node catalog populated by Start.
func (r *Runtime) Catalog() *host.Catalog { return r.catalog }

// Flows returns the number of listening flows.
func (r *Runtime) Flows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}

// Start loads every plugin and starts every configured flow. On error
// everything already started is stopped again.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return fmt.Errorf("runtime already started")
	}
	r.started = true
	r.mu.Unlock()

	if err := r.opts.Plugins.LoadAll(ctx, r.services(ctx), r.catalog); err != nil {
		r.Stop(ctx)
		return err
	}

	for _, fc := range r.opts.Config.Flows {
		f, err := host.NewFlow(r.catalog, fc, r.log)
		if err != nil {
			r.Stop(ctx)
			return err
		}
		f.OnRun(r.flowFinished(ctx))
		if err := f.Start(ctx); err != nil {
			r.Stop(ctx)
			return err
		}
		r.mu.Lock()
		r.flows = append(r.flows, f)
		r.mu.Unlock()
	}

	r.opts.Hooks.Emit(ctx, hooks.EventRuntimeStart, map[string]any{
		"plugins": r.opts.Plugins.List(),
		"flows":   r.Flows(),
		"nodes":   r.catalog.Len(),
	})
	r.log.Info().
		Int("plugins", r.opts.Plugins.Count()).
		Int("nodes", r.catalog.Len()).
		Int("flows", r.Flows()).
		Msg("runtime started")
	return nil
}

func (r *Runtime) services(ctx context.Context) plugin.ServicesFunc {
	return func(id string) host.Services {
		svc := host.Services{
			Log:     r.opts.Log.Sub(id),
			FlowEnv: r.opts.FlowEnv,
			AppEnv:  r.opts.AppEnv,
		}
		if r.opts.Settings != nil {
			src := r.opts.Settings
			svc.Settings = func() (string, error) { return src.Get(ctx, id) }
		}
		return svc
	}
}

func (r *Runtime) flowFinished(ctx context.Context) func(host.RunResult) {
	return func(res host.RunResult) {
		data := map[string]any{"flow": res.Flow, "executed": res.Executed}
		if res.Err != nil {
			data["error"] = res.Err.Error()
			r.opts.Hooks.Emit(ctx, hooks.EventFlowFailed, data)
			return
		}
		r.opts.Hooks.Emit(ctx, hooks.EventFlowCompleted, data)
	}
}

// Run ticks every plugin at the configured interval until ctx is done,
// then stops the runtime. Tick is only ever called from this goroutine.
func (r *Runtime) Run(ctx context.Context) error {
	interval := r.opts.Config.Host.TickInterval
	if interval <= 0 {
		interval = config.DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.Debug().Dur("interval", interval).Msg("tick loop running")
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			r.Stop(context.WithoutCancel(ctx))
			return nil
		case now := <-ticker.C:
			r.Tick(now.Sub(last))
			last = now
		}
	}
}

// Tick runs one host frame.
func (r *Runtime) Tick(dt time.Duration) {
	r.opts.Plugins.TickAll(dt)
	r.opts.Metrics.Tick()
}

// ReloadSettings re-reads every plugin's stored settings and delivers them.
func (r *Runtime) ReloadSettings(ctx context.Context) error {
	if r.opts.Settings == nil {
		return nil
	}
	for _, id := range r.opts.Plugins.List() {
		doc, err := r.opts.Settings.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("reloading settings for %s: %w", id, err)
		}
		if err := r.opts.Plugins.NotifySettings(ctx, id, doc); err != nil {
			return err
		}
		r.log.Info().Str("plugin", id).Msg("settings reloaded")
	}
	return nil
}

// Stop stops all flows and unloads all plugins. Safe to call more than once.
func (r *Runtime) Stop(ctx context.Context) {
	r.mu.Lock()
	flows := r.flows
	r.flows = nil
	was := r.started
	r.started = false
	r.mu.Unlock()
	if !was {
		return
	}

	for i := len(flows) - 1; i >= 0; i-- {
		flows[i].Stop()
	}
	r.opts.Plugins.UnloadAll(ctx)
	r.opts.Hooks.Emit(ctx, hooks.EventRuntimeStop, nil)
	r.log.Info().Msg("runtime stopped")
}
