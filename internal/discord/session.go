// Package discord adapts a discordgo session to the bridge client contract.
package discord

import (
	"errors"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/gammazero/workerpool"
	"github.com/gorilla/websocket"
	"github.com/samber/mo"

	"github.com/soyeahso/discordbridge/internal/bridge"
	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/logging"
)

// closeAuthenticationFailed is the gateway close code for a rejected token.
const closeAuthenticationFailed = 4004

// rest is the subset of *discordgo.Session used for outbound calls.
type rest interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	UpdateStatusComplex(usd discordgo.UpdateStatusData) error
}

// Session is a bridge.Client backed by discordgo. Outbound calls run on a
// single-worker pool so callers never block and requests keep their order.
type Session struct {
	s     *discordgo.Session
	rest  rest
	state *discordgo.State
	pool  *workerpool.WorkerPool
	log   *logging.Logger

	// restoreLogger is set when this session replaced discordgo.Logger.
	restoreLogger bool
	prevLogger    func(msgL, caller int, format string, a ...interface{})

	mu     sync.RWMutex
	closed bool
}

// Dialer returns a bridge.Dialer producing discordgo-backed sessions.
func Dialer(log *logging.Logger) bridge.Dialer {
	return func(opts bridge.DialOptions) (bridge.Client, error) {
		return New(opts, log)
	}
}

// New creates an unopened session.
func New(opts bridge.DialOptions, log *logging.Logger) (*Session, error) {
	s, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.Intent(opts.Intents)
	s.StateEnabled = true

	d := &Session{
		s:     s,
		rest:  s,
		state: s.State,
		pool:  workerpool.New(1),
		log:   log.Sub("discord"),
	}

	if opts.ClientLog != nil {
		forward := opts.ClientLog
		// discordgo only exposes a package-level logger; Close puts the old one back.
		d.prevLogger, d.restoreLogger = discordgo.Logger, true
		discordgo.Logger = func(msgL, _ int, format string, a ...interface{}) {
			forward(msgL, format, a...)
		}
		s.LogLevel = discordgo.LogDebug
	}
	return d, nil
}

func (d *Session) OnReady(fn func()) {
	d.s.AddHandler(func(_ *discordgo.Session, _ *discordgo.Ready) {
		d.log.Debug().Msg("gateway ready received")
		fn()
	})
}

func (d *Session) OnMessage(fn func(msg domain.Message, fromBot bool)) {
	d.s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Message == nil || m.Author == nil {
			return
		}
		msg, fromBot := convertMessage(m.Message)
		fn(msg, fromBot)
	})
}

func (d *Session) OnReaction(fn func(r domain.ReactionAdd)) {
	d.s.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if r.MessageReaction == nil {
			return
		}
		fn(convertReaction(r.MessageReaction))
	})
}

func (d *Session) Open() error {
	if err := d.s.Open(); err != nil {
		return classify("open", err)
	}
	return nil
}

// Close stops the gateway connection and waits for queued requests.
// Outbound calls made afterwards complete with ErrNotConnected.
func (d *Session) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	var err error
	if d.s != nil {
		err = d.s.Close()
	}
	d.pool.StopWait()
	if d.restoreLogger {
		discordgo.Logger = d.prevLogger
	}
	return err
}

func (d *Session) submit(op string, done func(error), call func() error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Debug().Str("op", op).Msg("dropped outbound call on closed session")
		if done != nil {
			done(domain.ErrNotConnected)
		}
		return
	}
	d.pool.Submit(func() {
		err := call()
		if err != nil {
			err = classify(op, err)
		}
		if done != nil {
			done(err)
		}
	})
}

func (d *Session) SendMessage(channelID, content string, done func(error)) {
	d.submit("send_message", done, func() error {
		_, err := d.rest.ChannelMessageSend(channelID, content)
		return err
	})
}

func (d *Session) SendEmbed(channelID string, embed domain.Embed, done func(error)) {
	e := toMessageEmbed(embed)
	d.submit("send_embed", done, func() error {
		_, err := d.rest.ChannelMessageSendEmbed(channelID, e)
		return err
	})
}

func (d *Session) AddReaction(channelID, messageID, emoji string, done func(error)) {
	d.submit("add_reaction", done, func() error {
		return d.rest.MessageReactionAdd(channelID, messageID, emoji)
	})
}

func (d *Session) Reply(channelID, messageID, content string, done func(error)) {
	ref := &discordgo.MessageReference{MessageID: messageID, ChannelID: channelID}
	d.submit("reply_to_message", done, func() error {
		_, err := d.rest.ChannelMessageSendReply(channelID, content, ref)
		return err
	})
}

func (d *Session) SendDirectMessage(userID, content string, done func(error)) {
	d.submit("send_direct_message", done, func() error {
		ch, err := d.rest.UserChannelCreate(userID)
		if err != nil {
			return err
		}
		_, err = d.rest.ChannelMessageSend(ch.ID, content)
		return err
	})
}

func (d *Session) SetPresence(p domain.Presence, done func(error)) {
	usd := toStatusData(p)
	d.submit("set_presence", done, func() error {
		return d.rest.UpdateStatusComplex(usd)
	})
}

func (d *Session) LookupUser(userID string) mo.Option[domain.UserInfo] {
	if d.state == nil {
		return mo.None[domain.UserInfo]()
	}
	return lookupUser(d.state, userID)
}

func (d *Session) LookupChannel(channelID string) mo.Option[domain.ChannelInfo] {
	if d.state == nil {
		return mo.None[domain.ChannelInfo]()
	}
	ch, err := d.state.Channel(channelID)
	if err != nil || ch == nil {
		return mo.None[domain.ChannelInfo]()
	}
	return mo.Some(domain.ChannelInfo{
		ID:    ch.ID,
		Name:  ch.Name,
		Topic: ch.Topic,
		Type:  int(ch.Type),
	})
}

// lookupUser searches the bot's own user, then every cached guild's members.
func lookupUser(st *discordgo.State, userID string) mo.Option[domain.UserInfo] {
	st.RLock()
	var self *discordgo.User
	if st.User != nil && st.User.ID == userID {
		self = st.User
	}
	guildIDs := make([]string, 0, len(st.Guilds))
	for _, g := range st.Guilds {
		guildIDs = append(guildIDs, g.ID)
	}
	st.RUnlock()

	if self != nil {
		return mo.Some(toUserInfo(self))
	}
	for _, gid := range guildIDs {
		m, err := st.Member(gid, userID)
		if err == nil && m != nil && m.User != nil {
			return mo.Some(toUserInfo(m.User))
		}
	}
	return mo.None[domain.UserInfo]()
}

// classify wraps client errors as *domain.RemoteError, carrying the HTTP
// status when one is known.
func classify(op string, err error) error {
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return &domain.RemoteError{Op: op, Status: rerr.Response.StatusCode, Err: err}
	}
	if errors.Is(err, discordgo.ErrUnauthorized) {
		return &domain.RemoteError{Op: op, Status: http.StatusUnauthorized, Err: err}
	}
	var cerr *websocket.CloseError
	if errors.As(err, &cerr) && cerr.Code == closeAuthenticationFailed {
		return &domain.RemoteError{Op: op, Status: http.StatusUnauthorized, Err: err}
	}
	return &domain.RemoteError{Op: op, Err: err}
}
