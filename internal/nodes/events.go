package nodes

import (
	"errors"
	"sync"

	"github.com/soyeahso/discordbridge/internal/bridge"
	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/host"
)

var onReadyDesc = host.NodeDesc{
	Name:     "On Ready",
	Category: "Discord/Events",
	TypeID:   typePrefix + "on_ready",
	Pins: []host.PinDesc{
		execOut("OnReady"),
	},
	Flags:       host.FlagTriggerEvent,
	Description: "Triggers when the bot has connected and is ready; connects first when auto_connect is on",
}

var onMessageDesc = host.NodeDesc{
	Name:     "On Message",
	Category: "Discord/Events",
	TypeID:   typePrefix + "on_message",
	Pins: []host.PinDesc{
		execOut("OnMessage"),
		out("AuthorID", "string"),
		out("AuthorName", "string"),
		out("Content", "string"),
		out("ChannelID", "string"),
		out("GuildID", "string"),
		out("MessageID", "string"),
	},
	Flags:       host.FlagTriggerEvent,
	Description: "Triggers when a message from a non-bot user is received",
}

var onReactionDesc = host.NodeDesc{
	Name:     "On Reaction Add",
	Category: "Discord/Events",
	TypeID:   typePrefix + "on_reaction",
	Pins: []host.PinDesc{
		execOut("OnReaction"),
		out("UserID", "string"),
		out("Emoji", "string"),
		out("MessageID", "string"),
		out("ChannelID", "string"),
		out("GuildID", "string"),
	},
	Flags:       host.FlagTriggerEvent,
	Description: "Triggers when a reaction is added to a message",
}

// listening tracks one subscription of an event node.
type listening struct {
	mu  sync.Mutex
	sub bridge.Subscription
	on  bool
}

func (l *listening) set(sub bridge.Subscription) {
	l.mu.Lock()
	l.sub, l.on = sub, true
	l.mu.Unlock()
}

func (l *listening) stop(p *Plugin) {
	l.mu.Lock()
	sub, on := l.sub, l.on
	l.on = false
	l.mu.Unlock()
	if !on {
		return
	}
	if mgr := p.Manager(); mgr != nil {
		mgr.Unsubscribe(sub.ID)
	}
}

type onReadyNode struct {
	p *Plugin
	listening
}

func (n *onReadyNode) StartListening(ec host.ExecContext) error {
	mgr := n.p.Manager()
	if mgr == nil {
		return fail(ec, "Discord plugin not loaded")
	}

	log := n.p.logger()
	token, err := n.p.resolveToken("", ec.Property("Token"))
	if err != nil {
		log.Error().Err(err).Msg("on ready: no bot token available")
		return fail(ec, "Discord bot token is required")
	}

	if n.p.Settings().AutoConnect && !mgr.IsRunning() {
		if err := mgr.Initialize(token); err != nil && !errors.Is(err, domain.ErrAlreadyRunning) {
			log.Error().Err(err).Msg("on ready: initialize failed")
			return fail(ec, "Failed to initialize Discord bot")
		}
	}

	n.set(mgr.OnReady(func() { ec.Trigger("OnReady") }))
	return nil
}

func (n *onReadyNode) StopListening() { n.stop(n.p) }

type onMessageNode struct {
	p *Plugin
	listening
}

func (n *onMessageNode) StartListening(ec host.ExecContext) error {
	mgr := n.p.Manager()
	if mgr == nil {
		return fail(ec, "Discord plugin not loaded")
	}
	n.set(mgr.OnMessage(func(m domain.Message) {
		ec.SetOutput("AuthorID", m.AuthorID)
		ec.SetOutput("AuthorName", m.AuthorName)
		ec.SetOutput("Content", m.Content)
		ec.SetOutput("ChannelID", m.ChannelID)
		ec.SetOutput("GuildID", m.GuildID)
		ec.SetOutput("MessageID", m.MessageID)
		ec.Trigger("OnMessage")
	}))
	return nil
}

func (n *onMessageNode) StopListening() { n.stop(n.p) }

type onReactionNode struct {
	p *Plugin
	listening
}

func (n *onReactionNode) StartListening(ec host.ExecContext) error {
	mgr := n.p.Manager()
	if mgr == nil {
		return fail(ec, "Discord plugin not loaded")
	}
	n.set(mgr.OnReaction(func(r domain.ReactionAdd) {
		ec.SetOutput("UserID", r.UserID)
		ec.SetOutput("Emoji", r.Emoji)
		ec.SetOutput("MessageID", r.MessageID)
		ec.SetOutput("ChannelID", r.ChannelID)
		ec.SetOutput("GuildID", r.GuildID)
		ec.Trigger("OnReaction")
	}))
	return nil
}

func (n *onReactionNode) StopListening() { n.stop(n.p) }
