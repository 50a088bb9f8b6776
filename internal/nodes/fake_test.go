package nodes

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/discordbridge/internal/bridge"
	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/host"
	"github.com/soyeahso/discordbridge/internal/logging"
)

// fakeClient records outbound calls; they complete synchronously.
type fakeClient struct {
	mu sync.Mutex

	onReady    func()
	onMessage  func(domain.Message, bool)
	onReaction func(domain.ReactionAdd)

	opened chan struct{}
	calls  []string
	embeds []domain.Embed

	users    map[string]domain.UserInfo
	channels map[string]domain.ChannelInfo
}

func (c *fakeClient) OnReady(fn func())                       { c.onReady = fn }
func (c *fakeClient) OnMessage(fn func(domain.Message, bool))  { c.onMessage = fn }
func (c *fakeClient) OnReaction(fn func(r domain.ReactionAdd)) { c.onReaction = fn }

func (c *fakeClient) Open() error {
	c.opened <- struct{}{}
	return nil
}

func (c *fakeClient) Close() error { return nil }

func (c *fakeClient) record(call string, done func(error)) {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
	if done != nil {
		done(nil)
	}
}

func (c *fakeClient) SendMessage(channelID, content string, done func(error)) {
	c.record("send:"+channelID+":"+content, done)
}

func (c *fakeClient) SendEmbed(channelID string, e domain.Embed, done func(error)) {
	c.mu.Lock()
	c.embeds = append(c.embeds, e)
	c.mu.Unlock()
	c.record("embed:"+channelID, done)
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
	c.record("presence:"+string(p.Status)+":"+p.Activity, done)
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
	return append([]string(nil), c.calls...)
}

type fakeDialer struct {
	mu      sync.Mutex
	clients []*fakeClient
	opts    []bridge.DialOptions

	users    map[string]domain.UserInfo
	channels map[string]domain.ChannelInfo
}

func (d *fakeDialer) Dial(opts bridge.DialOptions) (bridge.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := &fakeClient{opened: make(chan struct{}, 1), users: d.users, channels: d.channels}
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

func (d *fakeDialer) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients)
}

// fakeExec is an ExecContext over literal inputs.
type fakeExec struct {
	inputs  map[string]string
	props   map[string]string
	outputs map[string]any
	fired   []string
	errMsg  string
}

func newExec(inputs map[string]string) *fakeExec {
	return &fakeExec{inputs: inputs, props: map[string]string{}, outputs: map[string]any{}}
}

func (e *fakeExec) Context() context.Context { return context.Background() }
func (e *fakeExec) Input(name string) string { return e.inputs[name] }

func (e *fakeExec) InputInt(name string) (int64, bool) {
	v, err := strconv.ParseInt(e.inputs[name], 0, 64)
	return v, err == nil
}

func (e *fakeExec) Property(name string) string      { return e.props[name] }
func (e *fakeExec) SetOutput(name string, value any) { e.outputs[name] = value }
func (e *fakeExec) Trigger(pin string)               { e.fired = append(e.fired, pin) }
func (e *fakeExec) SetError(msg string)              { e.errMsg = msg }

const testToken = "MTIzNDU2Nzg5MDEyMzQ1Njc4.abcdef.ghijklmnopqrstuvwxyz0123456789ABCD"

type fixture struct {
	p      *Plugin
	dialer *fakeDialer
	cat    *host.Catalog
	events []domain.Event
}

func newFixture(t *testing.T, settings string, appEnv host.MapEnv) *fixture {
	t.Helper()
	f := &fixture{dialer: &fakeDialer{}, cat: host.NewCatalog()}
	f.p = New(Options{Dial: f.dialer.Dial, Observer: func(ev domain.Event) { f.events = append(f.events, ev) }})

	svc := host.Services{
		Log:      logging.New(nil, "silent"),
		FlowEnv:  host.MapEnv{},
		AppEnv:   appEnv,
		Settings: func() (string, error) { return settings, nil },
	}
	require.NoError(t, f.p.Load(context.Background(), svc))
	require.NoError(t, f.p.Register(f.cat))
	t.Cleanup(func() { _ = f.p.Unload() })
	return f
}

func (f *fixture) node(t *testing.T, suffix string) any {
	t.Helper()
	n, _, err := f.cat.New(typePrefix + suffix)
	require.NoError(t, err)
	return n
}

func (f *fixture) exec(t *testing.T, suffix string, inputs map[string]string) (*fakeExec, error) {
	t.Helper()
	ec := newExec(inputs)
	err := f.node(t, suffix).(host.Node).Execute(ec)
	return ec, err
}

// connect starts the bot and waits for the background Open.
func (f *fixture) connect(t *testing.T) *fakeClient {
	t.Helper()
	ec, err := f.exec(t, "connect", map[string]string{"Token": testToken})
	require.NoError(t, err, ec.errMsg)
	c := f.dialer.Last()
	require.NotNil(t, c)
	<-c.opened
	return c
}
