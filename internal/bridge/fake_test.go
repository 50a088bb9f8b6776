package bridge

import (
	"bytes"
	"sync"

	"github.com/samber/mo"

	"github.com/soyeahso/discordbridge/internal/domain"
)

// fakeClient is an in-memory Client. Outbound calls complete synchronously
// with sendErr.
type fakeClient struct {
	mu sync.Mutex

	onReady    func()
	onMessage  func(domain.Message, bool)
	onReaction func(domain.ReactionAdd)

	opened   chan struct{}
	openErr  error
	closed   int
	sendErr  error
	calls    []string
	presence []domain.Presence

	users    map[string]domain.UserInfo
	channels map[string]domain.ChannelInfo
}

func newFakeClient() *fakeClient {
	return &fakeClient{opened: make(chan struct{}, 1)}
}

func (c *fakeClient) OnReady(fn func())                       { c.onReady = fn }
func (c *fakeClient) OnMessage(fn func(domain.Message, bool))  { c.onMessage = fn }
func (c *fakeClient) OnReaction(fn func(r domain.ReactionAdd)) { c.onReaction = fn }

func (c *fakeClient) Open() error {
	c.opened <- struct{}{}
	return c.openErr
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeClient) record(call string, done func(error)) {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	err := c.sendErr
	c.mu.Unlock()
	if done != nil {
		done(err)
	}
}

func (c *fakeClient) SendMessage(channelID, content string, done func(error)) {
	c.record("send:"+channelID+":"+content, done)
}

func (c *fakeClient) SendEmbed(channelID string, e domain.Embed, done func(error)) {
	c.record("embed:"+channelID+":"+e.Title, done)
}

func (c *fakeClient) AddReaction(channelID, messageID, emoji string, done func(error)) {
	c.record("react:"+channelID+":"+messageID+":"+emoji, done)
}

func (c *fakeClient) Reply(channelID, messageID, content string, done func(error)) {
	c.record("reply:"+channelID+":"+messageID+":"+content, done)
}

func (c *fakeClient) SendDirectMessage(userID, content string, done func(error)) {
	c.record("dm:"+userID+":"+content, done)
}

func (c *fakeClient) SetPresence(p domain.Presence, done func(error)) {
	c.mu.Lock()
	c.presence = append(c.presence, p)
	c.mu.Unlock()
	c.record("presence:"+string(p.Status), done)
}

func (c *fakeClient) LookupUser(id string) mo.Option[domain.UserInfo] {
	if u, ok := c.users[id]; ok {
		return mo.Some(u)
	}
	return mo.None[domain.UserInfo]()
}

func (c *fakeClient) LookupChannel(id string) mo.Option[domain.ChannelInfo] {
	if ch, ok := c.channels[id]; ok {
		return mo.Some(ch)
	}
	return mo.None[domain.ChannelInfo]()
}

func (c *fakeClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *fakeClient) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeDialer hands out a fresh fakeClient per dial and remembers them.
type fakeDialer struct {
	mu      sync.Mutex
	clients []*fakeClient
	opts    []DialOptions
	err     error
}

func (d *fakeDialer) Dial(opts DialOptions) (Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeClient()
	d.clients = append(d.clients, c)
	d.opts = append(d.opts, opts)
	return c, nil
}

func (d *fakeDialer) Last() *fakeClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.clients) == 0 {
		return nil
	}
	return d.clients[len(d.clients)-1]
}

// safeBuffer is a bytes.Buffer usable as a log sink from several goroutines.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
