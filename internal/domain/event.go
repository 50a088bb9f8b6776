// Package domain holds the types shared between the gateway client, the
// event bridge and the host-facing nodes.
package domain

// EventKind identifies the gateway event carried by an Event.
type EventKind int

const (
	EventReady EventKind = iota
	EventMessage
	EventReactionAdd
)

// AllEventKinds lists every event kind the bridge dispatches.
var AllEventKinds = []EventKind{EventReady, EventMessage, EventReactionAdd}

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventMessage:
		return "message"
	case EventReactionAdd:
		return "reaction_add"
	default:
		return "unknown"
	}
}

// Event is a gateway event queued by a client goroutine and consumed once
// by the tick loop. Implementations are Ready, Message and ReactionAdd.
type Event interface {
	Kind() EventKind
}

// Ready signals that the gateway session is established.
type Ready struct{}

// Message is a chat message created in a channel the bot can see.
type Message struct {
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	Content    string `json:"content"`
	ChannelID  string `json:"channelId"`
	GuildID    string `json:"guildId,omitempty"`
	MessageID  string `json:"messageId"`
}

// ReactionAdd is a reaction added to a message.
type ReactionAdd struct {
	UserID    string `json:"userId"`
	Emoji     string `json:"emoji"`
	MessageID string `json:"messageId"`
	ChannelID string `json:"channelId"`
	GuildID   string `json:"guildId,omitempty"`
}

func (Ready) Kind() EventKind       { return EventReady }
func (Message) Kind() EventKind     { return EventMessage }
func (ReactionAdd) Kind() EventKind { return EventReactionAdd }
