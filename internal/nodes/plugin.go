// Package nodes is the Discord plugin: it owns the connection manager and
// exposes Discord events, actions and cached data as host nodes.
package nodes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/soyeahso/discordbridge/internal/bridge"
	"github.com/soyeahso/discordbridge/internal/config"
	"github.com/soyeahso/discordbridge/internal/credential"
	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/host"
	"github.com/soyeahso/discordbridge/internal/logging"
	"github.com/soyeahso/discordbridge/internal/metrics"
	"github.com/soyeahso/discordbridge/internal/version"
)

// Options configures the plugin.
type Options struct {
	Dial     bridge.Dialer
	Metrics  *metrics.Metrics   // optional
	Observer func(domain.Event) // optional; sees every dispatched event
}

// Plugin implements plugin.Plugin for Discord.
type Plugin struct {
	opts Options

	mu       sync.Mutex
	settings config.Settings
	log      *logging.Logger
	manager  *bridge.Manager
	fwd      *bridge.Forwarder
	creds    *credential.Resolver
}

// New creates an unloaded plugin.
func New(opts Options) *Plugin {
	return &Plugin{opts: opts, settings: config.DefaultSettings()}
}

func (p *Plugin) ID() string      { return config.PluginID }
func (p *Plugin) Name() string    { return "Discord" }
func (p *Plugin) Version() string { return version.Version }

// Load builds the connection manager and applies the stored settings.
func (p *Plugin) Load(_ context.Context, svc host.Services) error {
	if p.opts.Dial == nil {
		return fmt.Errorf("no dialer configured")
	}
	log := svc.Log
	if log == nil {
		log = logging.New(nil, "silent")
	}

	mgr := bridge.NewManager(p.opts.Dial, log, p.opts.Metrics)
	if p.opts.Observer != nil {
		mgr.SetObserver(p.opts.Observer)
	}

	p.mu.Lock()
	p.log = log
	p.manager = mgr
	p.fwd = bridge.NewForwarder(mgr)
	p.creds = &credential.Resolver{Settings: p.settingsToken, Log: log.Sub("credential")}
	if svc.FlowEnv != nil {
		p.creds.FlowEnv = svc.FlowEnv
	}
	if svc.AppEnv != nil {
		p.creds.AppEnv = svc.AppEnv
	}
	p.mu.Unlock()

	doc := ""
	if svc.Settings != nil {
		stored, err := svc.Settings()
		if err != nil {
			log.Warn().Err(err).Msg("reading stored settings failed; using defaults")
		}
		doc = stored
	}
	p.SettingsChanged(doc)

	log.Info().Str("version", p.Version()).Msg("discord plugin loaded")
	return nil
}

// Tick drains queued gateway events and dispatches them to listeners.
func (p *Plugin) Tick(time.Duration) {
	if mgr := p.Manager(); mgr != nil {
		mgr.Tick()
	}
}

// Unload shuts the connection down and drops all listeners.
func (p *Plugin) Unload() error {
	mgr := p.Manager()
	if mgr == nil {
		return nil
	}
	mgr.Shutdown()
	mgr.ClearListeners()
	p.log.Info().Msg("discord plugin unloaded")
	return nil
}

// SettingsSchema returns the settings schema and defaults.
func (p *Plugin) SettingsSchema() string { return config.SettingsSchema }

// SettingsChanged parses doc and applies it to the next connection attempt.
// An unparsable document falls back to defaults.
func (p *Plugin) SettingsChanged(doc string) {
	s, err := config.ParseSettings(doc)

	p.mu.Lock()
	p.settings = s
	mgr, log := p.manager, p.log
	p.mu.Unlock()

	if err != nil && log != nil {
		log.Warn().Err(err).Msg("invalid settings; using defaults")
	}
	if mgr != nil {
		mgr.SetConfig(s.Effective())
	}
}

// Settings returns the parsed settings currently in effect.
func (p *Plugin) Settings() config.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

// Manager returns the connection manager, nil before Load.
func (p *Plugin) Manager() *bridge.Manager {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.manager
}

func (p *Plugin) forwarder() *bridge.Forwarder {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fwd
}

func (p *Plugin) logger() *logging.Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.log == nil {
		return logging.New(nil, "silent")
	}
	return p.log
}

func (p *Plugin) settingsToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings.Token
}

// resolveToken applies the credential precedence for one call site.
func (p *Plugin) resolveToken(override, property string) (string, error) {
	p.mu.Lock()
	creds := p.creds
	p.mu.Unlock()
	if creds == nil {
		return "", domain.ErrNotConnected
	}
	res, err := creds.Resolve(override, property)
	if err != nil {
		return "", err
	}
	return res.Token, nil
}

// connect initializes the manager unless it already runs.
func (p *Plugin) connect(token string) error {
	mgr := p.Manager()
	if mgr == nil {
		return domain.ErrNotConnected
	}
	if mgr.IsRunning() {
		return nil
	}
	return mgr.Initialize(token)
}

// Register adds every Discord node type to reg.
func (p *Plugin) Register(reg host.NodeRegistry) error {
	for _, n := range p.catalog() {
		if err := reg.Register(n.desc, n.factory); err != nil {
			return err
		}
	}
	return nil
}

type nodeType struct {
	desc    host.NodeDesc
	factory host.Factory
}

const typePrefix = "com.rune.discord."

func (p *Plugin) catalog() []nodeType {
	return []nodeType{
		{onReadyDesc, func() any { return &onReadyNode{p: p} }},
		{onMessageDesc, func() any { return &onMessageNode{p: p} }},
		{onReactionDesc, func() any { return &onReactionNode{p: p} }},
		{connectDesc, func() any { return &connectNode{p: p} }},
		{disconnectDesc, func() any { return &disconnectNode{p: p} }},
		{sendMessageDesc, func() any { return &sendMessageNode{p: p} }},
		{sendEmbedDesc, func() any { return &sendEmbedNode{p: p} }},
		{replyDesc, func() any { return &replyNode{p: p} }},
		{addReactionDesc, func() any { return &addReactionNode{p: p} }},
		{sendDirectMessageDesc, func() any { return &sendDirectMessageNode{p: p} }},
		{setPresenceDesc, func() any { return &setPresenceNode{p: p} }},
		{getUserDesc, func() any { return &getUserNode{p: p} }},
		{getChannelDesc, func() any { return &getChannelNode{p: p} }},
		{buildEmbedDesc, func() any { return &buildEmbedNode{} }},
	}
}

// pin helpers keep the descriptor tables readable.

func execIn() host.PinDesc {
	return host.PinDesc{Name: "Exec", Type: "execution", Dir: host.PinIn, Kind: host.PinExec}
}

func execOut(name string) host.PinDesc {
	return host.PinDesc{Name: name, Type: "execution", Dir: host.PinOut, Kind: host.PinExec}
}

func in(name, typ string) host.PinDesc {
	return host.PinDesc{Name: name, Type: typ, Dir: host.PinIn, Kind: host.PinData}
}

func out(name, typ string) host.PinDesc {
	return host.PinDesc{Name: name, Type: typ, Dir: host.PinOut, Kind: host.PinData}
}

// fail reports msg on ec and returns it as an error.
func fail(ec host.ExecContext, msg string) error {
	ec.SetError(msg)
	return errors.New(msg)
}

// snowflake validates a required id input.
func snowflake(ec host.ExecContext, name string) (string, error) {
	id, err := domain.ParseSnowflake(ec.Input(name))
	if err != nil {
		return "", fail(ec, fmt.Sprintf("%s is invalid: %v", name, err))
	}
	return id, nil
}
