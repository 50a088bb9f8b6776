package bridge

import (
	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/logging"
	"github.com/soyeahso/discordbridge/internal/metrics"
)

// Action names, used for logs and metrics.
const (
	ActionSendMessage       = "send_message"
	ActionSendEmbed         = "send_embed"
	ActionAddReaction       = "add_reaction"
	ActionReply             = "reply_to_message"
	ActionSendDirectMessage = "send_direct_message"
	ActionSetPresence       = "set_presence"
)

const unauthorizedHint = "the token was rejected (401/403). This usually means the bot token is invalid, " +
	"includes the 'Bot ' prefix, or has been reset. Update DISCORD_TOKEN or the settings token with a valid " +
	"raw bot token and reconnect"

// Forwarder passes outbound actions to the Manager's live connection. Every
// action is fire-and-forget; when no connection is live it is a logged no-op.
type Forwarder struct {
	m       *Manager
	log     *logging.Logger
	metrics *metrics.Metrics
}

// NewForwarder creates a Forwarder over m.
func NewForwarder(m *Manager) *Forwarder {
	return &Forwarder{m: m, log: m.log.Sub("actions"), metrics: m.metrics}
}

// SendMessage posts content to a channel.
func (f *Forwarder) SendMessage(channelID, content string) {
	if c := f.conn(ActionSendMessage); c != nil {
		c.SendMessage(channelID, content, f.outcome(ActionSendMessage, channelID))
	}
}

// SendEmbed posts a rich embed to a channel.
func (f *Forwarder) SendEmbed(channelID string, embed domain.Embed) {
	if c := f.conn(ActionSendEmbed); c != nil {
		c.SendEmbed(channelID, embed, f.outcome(ActionSendEmbed, channelID))
	}
}

// AddReaction reacts to a message.
func (f *Forwarder) AddReaction(channelID, messageID, emoji string) {
	if c := f.conn(ActionAddReaction); c != nil {
		c.AddReaction(channelID, messageID, emoji, f.outcome(ActionAddReaction, channelID))
	}
}

// Reply posts content referencing an existing message.
func (f *Forwarder) Reply(channelID, messageID, content string) {
	if c := f.conn(ActionReply); c != nil {
		c.Reply(channelID, messageID, content, f.outcome(ActionReply, channelID))
	}
}

// SetPresence updates the bot's status and activity.
func (f *Forwarder) SetPresence(p domain.Presence) {
	if c := f.conn(ActionSetPresence); c != nil {
		c.SetPresence(p, f.outcome(ActionSetPresence, ""))
	}
}

// SendDirectMessage opens a DM channel with the user and posts content.
// done, if non-nil, is called once with the outcome on a client goroutine,
// or synchronously with ErrNotConnected when no connection is live.
// Rejected credentials are logged with a hint distinguishing them from
// transient failures.
func (f *Forwarder) SendDirectMessage(userID, content string, done func(error)) {
	c := f.conn(ActionSendDirectMessage)
	if c == nil {
		if done != nil {
			done(domain.ErrNotConnected)
		}
		return
	}

	c.SendDirectMessage(userID, content, func(err error) {
		switch {
		case err == nil:
			f.metrics.Action(ActionSendDirectMessage, metrics.OutcomeSent)
		case domain.IsUnauthorized(err):
			f.metrics.Action(ActionSendDirectMessage, metrics.OutcomeFailed)
			f.log.Error().Err(err).Str("user", userID).Str("hint", unauthorizedHint).Msg("direct message rejected")
		default:
			f.metrics.Action(ActionSendDirectMessage, metrics.OutcomeFailed)
			f.log.Warn().Err(err).Str("user", userID).Msg("direct message failed; this is usually transient")
		}
		if done != nil {
			done(err)
		}
	})
}

func (f *Forwarder) conn(action string) Client {
	c := f.m.connection()
	if c == nil {
		f.metrics.Action(action, metrics.OutcomeSkipped)
		f.log.Warn().Str("action", action).Msg("called but bot is not running")
	}
	return c
}

func (f *Forwarder) outcome(action, channelID string) func(error) {
	return func(err error) {
		if err != nil {
			f.metrics.Action(action, metrics.OutcomeFailed)
			f.log.Warn().Err(err).Str("action", action).Str("channel", channelID).Msg("action failed")
			return
		}
		f.metrics.Action(action, metrics.OutcomeSent)
	}
}
