package bridge

import (
	"github.com/samber/mo"

	"github.com/soyeahso/discordbridge/internal/domain"
)

// Client is the asynchronous gateway client the Manager owns. Event
// callbacks arrive on client goroutines. Outbound calls must not block the
// caller; done, when non-nil, is invoked once with the outcome on a client
// goroutine.
type Client interface {
	OnReady(fn func())
	OnMessage(fn func(msg domain.Message, fromBot bool))
	OnReaction(fn func(r domain.ReactionAdd))

	// Open connects to the gateway. It may block until the handshake
	// completes, so the Manager always calls it from its own goroutine.
	Open() error
	Close() error

	SendMessage(channelID, content string, done func(error))
	SendEmbed(channelID string, embed domain.Embed, done func(error))
	AddReaction(channelID, messageID, emoji string, done func(error))
	Reply(channelID, messageID, content string, done func(error))
	SendDirectMessage(userID, content string, done func(error))
	SetPresence(p domain.Presence, done func(error))

	// Lookups read the client's local cache only.
	LookupUser(userID string) mo.Option[domain.UserInfo]
	LookupChannel(channelID string) mo.Option[domain.ChannelInfo]
}

// DialOptions configures a new Client.
type DialOptions struct {
	Token   string
	Intents uint64

	// ClientLog, when set, receives the client library's own diagnostics.
	ClientLog func(level int, format string, args ...any)
}

// Dialer constructs a Client without connecting it.
type Dialer func(opts DialOptions) (Client, error)
