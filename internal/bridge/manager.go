// Package bridge moves gateway events from client goroutines onto the host's
// tick loop and forwards outbound actions to the live connection.
package bridge

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/samber/mo"

	"github.com/soyeahso/discordbridge/internal/config"
	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/intents"
	"github.com/soyeahso/discordbridge/internal/logging"
	"github.com/soyeahso/discordbridge/internal/metrics"
)

// State is the connection lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateRunning
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return "unknown"
	}
}

// Manager owns the single live connection and the event bridge.
type Manager struct {
	dial    Dialer
	log     *logging.Logger
	metrics *metrics.Metrics

	state atomic.Int32
	ready atomic.Bool

	mu     sync.Mutex // guards client, cfg and Initialize/Shutdown
	client Client
	cfg    config.EffectiveConfig

	queue     Queue
	listeners *Listeners

	// Observer (optional) sees every dispatched event after listeners ran.
	observer func(domain.Event)
}

// NewManager creates a Manager. m may be nil.
func NewManager(dial Dialer, log *logging.Logger, m *metrics.Metrics) *Manager {
	l := log.Sub("bridge")
	return &Manager{
		dial:      dial,
		log:       l,
		metrics:   m,
		cfg:       config.DefaultSettings().Effective(),
		listeners: NewListeners(l, m),
	}
}

// SetObserver installs a function called for every dispatched event.
// Must be called before the tick loop starts.
func (m *Manager) SetObserver(fn func(domain.Event)) {
	m.observer = fn
}

// SetConfig replaces the effective configuration. It applies to the next
// Initialize; a live connection keeps the configuration it was opened with.
func (m *Manager) SetConfig(cfg config.EffectiveConfig) {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
}

// Config returns the current effective configuration.
func (m *Manager) Config() config.EffectiveConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Initialize creates the client and starts connecting in the background.
func (m *Manager) Initialize(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() != StateUninitialized {
		m.log.Warn().Msg("initialize called but the bot is already running")
		return domain.ErrAlreadyRunning
	}
	if token == "" {
		m.log.Error().Msg("initialize called with an empty token")
		return domain.ErrInvalidCredential
	}

	opts := DialOptions{Token: token, Intents: m.cfg.CapabilityMask}
	if m.cfg.ForwardClientLogs {
		opts.ClientLog = m.log.Sub("discord-client").ClientLogFunc()
	}

	m.log.Info().
		Int("token_length", len(token)).
		Uint64("intents", opts.Intents).
		Strs("intent_names", intents.Names(opts.Intents)).
		Msg("initializing client")

	client, err := m.dial(opts)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	client.OnReady(func() { m.produceReady(client) })
	client.OnMessage(m.produceMessage)
	client.OnReaction(m.produceReaction)

	m.client = client
	m.queue.Clear()
	m.ready.Store(false)
	m.setState(StateRunning)

	go func() {
		if err := client.Open(); err != nil {
			ev := m.log.Error().Err(err)
			if domain.IsUnauthorized(err) {
				ev = ev.Str("hint", "the token was rejected; configure a valid raw bot token and reconnect")
			}
			ev.Msg("gateway connection failed")
			return
		}
		m.log.Info().Msg("gateway connection opened")
	}()
	return nil
}

// Shutdown closes the client and resets the bridge. Safe to call repeatedly.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() == StateUninitialized {
		return
	}
	m.setState(StateShuttingDown)

	client := m.client
	m.client = nil
	if client != nil {
		if err := client.Close(); err != nil {
			m.log.Warn().Err(err).Msg("error closing client")
		}
	}

	m.queue.Clear()
	m.ready.Store(false)
	m.setState(StateUninitialized)
	m.log.Info().Msg("bot shut down")
}

// IsRunning reports whether a connection is live.
func (m *Manager) IsRunning() bool {
	return m.State() == StateRunning
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// IsReady reports whether a Ready event has been dispatched since the last
// Initialize.
func (m *Manager) IsReady() bool {
	return m.ready.Load()
}

// Pending returns the number of queued, undispatched events.
func (m *Manager) Pending() int {
	return m.queue.Len()
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
	m.metrics.SetConnectionState(int(s))
}

// Tick drains every queued event and dispatches them oldest first. It must
// only be called from the host's tick goroutine.
func (m *Manager) Tick() {
	batch := m.queue.Drain()
	for _, ev := range batch {
		m.listeners.Dispatch(ev)
		m.metrics.EventDispatched(ev.Kind().String())
		if m.observer != nil {
			m.observer(ev)
		}
		// A listener may have shut the bridge down during fan-out.
		if ev.Kind() == domain.EventReady && m.IsRunning() {
			m.ready.Store(true)
		}
	}
}

func (m *Manager) push(ev domain.Event) {
	if !m.IsRunning() {
		return
	}
	m.queue.Push(ev)
	m.metrics.EventEnqueued(ev.Kind().String())
}

func (m *Manager) produceReady(client Client) {
	if m.connection() != client {
		return
	}
	client.SetPresence(domain.DefaultPresence(), func(err error) {
		if err != nil {
			m.log.Warn().Err(err).Msg("failed to publish default presence")
		}
	})
	m.push(domain.Ready{})
}

func (m *Manager) produceMessage(msg domain.Message, fromBot bool) {
	if fromBot {
		m.metrics.BotMessageDropped()
		return
	}
	m.push(msg)
}

func (m *Manager) produceReaction(r domain.ReactionAdd) {
	m.push(r)
}

// OnReady registers fn for Ready events. If a Ready has already been
// dispatched, fn is also called once before OnReady returns.
func (m *Manager) OnReady(fn func()) Subscription {
	h := func(domain.Event) { fn() }
	sub := m.listeners.Subscribe(domain.EventReady, h)
	if m.ready.Load() {
		m.listeners.invoke(entry{id: sub.ID, handler: h}, domain.Ready{})
	}
	return sub
}

// OnMessage registers fn for message events.
func (m *Manager) OnMessage(fn func(domain.Message)) Subscription {
	return m.listeners.Subscribe(domain.EventMessage, func(ev domain.Event) {
		if msg, ok := ev.(domain.Message); ok {
			fn(msg)
		}
	})
}

// OnReaction registers fn for reaction-add events.
func (m *Manager) OnReaction(fn func(domain.ReactionAdd)) Subscription {
	return m.listeners.Subscribe(domain.EventReactionAdd, func(ev domain.Event) {
		if r, ok := ev.(domain.ReactionAdd); ok {
			fn(r)
		}
	})
}

// Unsubscribe removes one listener by subscription id.
func (m *Manager) Unsubscribe(id string) bool {
	return m.listeners.Unsubscribe(id)
}

// ClearListeners removes every listener of every kind.
func (m *Manager) ClearListeners() {
	m.listeners.Clear()
}

// ListenerCount returns the number of listeners for kind.
func (m *Manager) ListenerCount(kind domain.EventKind) int {
	return m.listeners.Count(kind)
}

// connection returns the live client, or nil when not running.
func (m *Manager) connection() Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.State() != StateRunning {
		return nil
	}
	return m.client
}

// LookupUser reads cached user metadata. None when not running or unknown.
func (m *Manager) LookupUser(userID string) mo.Option[domain.UserInfo] {
	c := m.connection()
	if c == nil {
		return mo.None[domain.UserInfo]()
	}
	return c.LookupUser(userID)
}

// LookupChannel reads cached channel metadata. None when not running or unknown.
func (m *Manager) LookupChannel(channelID string) mo.Option[domain.ChannelInfo] {
	c := m.connection()
	if c == nil {
		return mo.None[domain.ChannelInfo]()
	}
	return c.LookupChannel(channelID)
}
