package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/soyeahso/discordbridge/internal/config"
	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/host"
	"github.com/soyeahso/discordbridge/internal/intents"
	"github.com/soyeahso/discordbridge/internal/logging"
)

func TestPlugin_Identity(t *testing.T) {
	p := New(Options{})
	assert.Equal(t, "com.rune.discord", p.ID())
	assert.Equal(t, "Discord", p.Name())
	assert.NotEmpty(t, p.Version())
	assert.True(t, gjson.Valid(p.SettingsSchema()))
	assert.Nil(t, p.Manager())
}

func TestPlugin_LoadRequiresDialer(t *testing.T) {
	err := New(Options{}).Load(context.Background(), host.Services{Log: logging.New(nil, "silent")})
	assert.Error(t, err)
}

func TestPlugin_RegistersCatalog(t *testing.T) {
	f := newFixture(t, "", nil)
	assert.Equal(t, 14, f.cat.Len())

	byCategory := map[string]int{}
	for _, d := range f.cat.Descriptors() {
		byCategory[d.Category]++
		assert.Contains(t, d.TypeID, "com.rune.discord.")
	}
	assert.Equal(t, map[string]int{"Discord/Events": 3, "Discord/Actions": 8, "Discord/Data": 3}, byCategory)

	d, ok := f.cat.Describe(typePrefix + "on_message")
	require.True(t, ok)
	assert.Equal(t, host.FlagTriggerEvent, d.Flags)
	assert.Len(t, d.Outputs(), 6)

	assert.Error(t, f.p.Register(f.cat), "registering twice conflicts")
}

func TestPlugin_SettingsApplyToManager(t *testing.T) {
	f := newFixture(t, `{"gateway_intents": 513, "enable_message_content_intent": true}`, nil)
	cfg := f.p.Manager().Config()
	assert.Equal(t, uint64(513)|intents.MessageContent, cfg.CapabilityMask)

	f.p.SettingsChanged(`{"auto_connect": false, "token": "abc"}`)
	cfg = f.p.Manager().Config()
	assert.False(t, cfg.AutoConnect)
	assert.Equal(t, "abc", cfg.Credential)
	assert.Equal(t, intents.Default, cfg.CapabilityMask)

	f.p.SettingsChanged(`{not json`)
	assert.Equal(t, config.DefaultSettings().Effective(), f.p.Manager().Config())
}

func TestOnReady_AutoConnectsAndFires(t *testing.T) {
	f := newFixture(t, "", host.MapEnv{"DISCORD_TOKEN": "Bot " + testToken})
	n := f.node(t, "on_ready").(host.EventNode)
	ec := newExec(nil)

	require.NoError(t, n.StartListening(ec))
	require.Equal(t, 1, f.dialer.Count())
	assert.Equal(t, testToken, f.dialer.opts[0].Token, "the Bot prefix is stripped")

	c := f.dialer.Last()
	<-c.opened
	c.onReady()
	assert.Empty(t, ec.fired, "listeners only run on tick")

	f.p.Tick(0)
	assert.Equal(t, []string{"OnReady"}, ec.fired)
	assert.Equal(t, []string{"presence:online:online"}, c.Calls())
	require.Len(t, f.events, 1)
	assert.Equal(t, domain.EventReady, f.events[0].Kind())

	// A second on_ready started after Ready is replayed immediately.
	late := newExec(nil)
	n2 := f.node(t, "on_ready").(host.EventNode)
	require.NoError(t, n2.StartListening(late))
	assert.Equal(t, []string{"OnReady"}, late.fired)
	assert.Equal(t, 1, f.dialer.Count(), "already running; no second client")

	n.StopListening()
	n2.StopListening()
	assert.Zero(t, f.p.Manager().ListenerCount(domain.EventReady))
}

func TestOnReady_RequiresToken(t *testing.T) {
	f := newFixture(t, "", nil)
	ec := newExec(nil)
	err := f.node(t, "on_ready").(host.EventNode).StartListening(ec)
	require.Error(t, err)
	assert.Equal(t, "Discord bot token is required", ec.errMsg)
	assert.Zero(t, f.dialer.Count())
}

func TestEventNodes_BeforeLoad(t *testing.T) {
	p := New(Options{Dial: (&fakeDialer{}).Dial})
	cat := host.NewCatalog()
	require.NoError(t, p.Register(cat))

	for _, suffix := range []string{"on_ready", "on_message", "on_reaction"} {
		t.Run(suffix, func(t *testing.T) {
			n, _, err := cat.New(typePrefix + suffix)
			require.NoError(t, err)
			ec := newExec(nil)
			ec.props["Token"] = testToken
			assert.NotPanics(t, func() {
				err = n.(host.EventNode).StartListening(ec)
			})
			require.Error(t, err)
			assert.Equal(t, "Discord plugin not loaded", ec.errMsg)
		})
	}
}

func TestOnReady_NoAutoConnect(t *testing.T) {
	f := newFixture(t, `{"auto_connect": false, "token": "`+testToken+`"}`, nil)
	ec := newExec(nil)
	require.NoError(t, f.node(t, "on_ready").(host.EventNode).StartListening(ec))
	assert.Zero(t, f.dialer.Count())
	assert.False(t, f.p.Manager().IsRunning())
}

func TestOnReady_PropertyToken(t *testing.T) {
	f := newFixture(t, `{"token": "from-settings-`+testToken+`"}`, nil)
	ec := newExec(nil)
	ec.props["Token"] = testToken
	require.NoError(t, f.node(t, "on_ready").(host.EventNode).StartListening(ec))
	assert.Equal(t, testToken, f.dialer.opts[0].Token)
}

func TestOnMessage_Outputs(t *testing.T) {
	f := newFixture(t, "", nil)
	n := f.node(t, "on_message").(host.EventNode)
	ec := newExec(nil)
	require.NoError(t, n.StartListening(ec))

	c := f.connect(t)
	c.onMessage(domain.Message{AuthorID: "1", AuthorName: "ann", Content: "hi", ChannelID: "2", GuildID: "3", MessageID: "4"}, false)
	c.onMessage(domain.Message{AuthorID: "9", Content: "beep"}, true)
	f.p.Tick(0)

	assert.Equal(t, []string{"OnMessage"}, ec.fired, "bot messages never reach listeners")
	assert.Equal(t, map[string]any{
		"AuthorID": "1", "AuthorName": "ann", "Content": "hi",
		"ChannelID": "2", "GuildID": "3", "MessageID": "4",
	}, ec.outputs)

	n.StopListening()
	c.onMessage(domain.Message{AuthorID: "1", Content: "again"}, false)
	f.p.Tick(0)
	assert.Len(t, ec.fired, 1)
}

func TestOnReaction_Outputs(t *testing.T) {
	f := newFixture(t, "", nil)
	ec := newExec(nil)
	require.NoError(t, f.node(t, "on_reaction").(host.EventNode).StartListening(ec))

	c := f.connect(t)
	c.onReaction(domain.ReactionAdd{UserID: "1", Emoji: "👍", MessageID: "2", ChannelID: "3"})
	f.p.Tick(0)

	assert.Equal(t, []string{"OnReaction"}, ec.fired)
	assert.Equal(t, "👍", ec.outputs["Emoji"])
	assert.Equal(t, "", ec.outputs["GuildID"])
}

func TestConnect(t *testing.T) {
	f := newFixture(t, "", nil)

	ec, err := f.exec(t, "connect", nil)
	require.Error(t, err)
	assert.Equal(t, "Discord bot token is required to connect", ec.errMsg)

	f.connect(t)
	assert.True(t, f.p.Manager().IsRunning())

	ec, err = f.exec(t, "connect", map[string]string{"Token": testToken})
	require.NoError(t, err)
	assert.Equal(t, []string{"Connected"}, ec.fired, "already running counts as connected")
	assert.Equal(t, 1, f.dialer.Count())
}

func TestDisconnect(t *testing.T) {
	f := newFixture(t, "", nil)
	f.connect(t)

	ec, err := f.exec(t, "disconnect", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Done"}, ec.fired)
	assert.False(t, f.p.Manager().IsRunning())

	_, err = f.exec(t, "disconnect", nil)
	assert.NoError(t, err, "disconnect is idempotent")
}

func TestActions_Forwarded(t *testing.T) {
	f := newFixture(t, "", nil)
	c := f.connect(t)

	tests := []struct {
		node   string
		inputs map[string]string
		call   string
	}{
		{"send_message", map[string]string{"ChannelID": "10", "Content": "hello"}, "send:10:hello"},
		{"reply_to_message", map[string]string{"ChannelID": "10", "MessageID": "11", "Content": "re"}, "reply:10:11:re"},
		{"add_reaction", map[string]string{"ChannelID": "10", "MessageID": "11", "Emoji": "🎉"}, "react:10:11:🎉"},
		{"send_direct_message", map[string]string{"UserID": "12", "Content": "psst"}, "dm:12:psst"},
		{"set_presence", map[string]string{"Status": "dnd", "ActivityText": "chess"}, "presence:dnd:chess"},
		{"set_presence", map[string]string{}, "presence:online:"},
	}
	for _, tt := range tests {
		t.Run(tt.node, func(t *testing.T) {
			ec, err := f.exec(t, tt.node, tt.inputs)
			require.NoError(t, err, ec.errMsg)
			assert.Equal(t, []string{"Done"}, ec.fired)
			calls := c.Calls()
			assert.Equal(t, tt.call, calls[len(calls)-1])
		})
	}
}

func TestActions_Validation(t *testing.T) {
	f := newFixture(t, "", nil)
	f.connect(t)

	tests := []struct {
		node   string
		inputs map[string]string
		msg    string
	}{
		{"send_message", map[string]string{"ChannelID": "10"}, "ChannelID and Content are required"},
		{"send_message", map[string]string{"Content": "x"}, "ChannelID and Content are required"},
		{"send_message", map[string]string{"ChannelID": "general", "Content": "x"}, "ChannelID is invalid"},
		{"send_embed", map[string]string{}, "ChannelID is required"},
		{"send_embed", map[string]string{"ChannelID": "10", "EmbedJSON": "{oops"}, "EmbedJSON is not valid JSON"},
		{"reply_to_message", map[string]string{"ChannelID": "10", "Content": "x"}, "ChannelID, MessageID, and Content are required"},
		{"add_reaction", map[string]string{"ChannelID": "10", "MessageID": "11"}, "ChannelID, MessageID, and Emoji are required"},
		{"send_direct_message", map[string]string{"UserID": "12"}, "UserID and Content are required"},
		{"send_direct_message", map[string]string{"UserID": "-5", "Content": "x"}, "UserID is invalid"},
		{"get_user", map[string]string{}, "UserID is required"},
		{"get_channel", map[string]string{}, "ChannelID is required"},
	}
	for _, tt := range tests {
		t.Run(tt.node+"/"+tt.msg, func(t *testing.T) {
			ec, err := f.exec(t, tt.node, tt.inputs)
			require.Error(t, err)
			assert.Contains(t, ec.errMsg, tt.msg)
			assert.Empty(t, ec.fired)
		})
	}
}

func TestActions_NotRunning(t *testing.T) {
	f := newFixture(t, "", nil)

	ec, err := f.exec(t, "send_message", map[string]string{"ChannelID": "10", "Content": "x"})
	require.NoError(t, err, "sending while offline is a logged no-op")
	assert.Equal(t, []string{"Done"}, ec.fired)

	ec, err = f.exec(t, "set_presence", map[string]string{"Status": "idle"})
	require.Error(t, err)
	assert.Equal(t, "Discord bot not initialized", ec.errMsg)

	ec, err = f.exec(t, "get_user", map[string]string{"UserID": "1"})
	require.Error(t, err)
	assert.Equal(t, "Discord bot not initialized", ec.errMsg)

	ec, err = f.exec(t, "get_channel", map[string]string{"ChannelID": "1"})
	require.Error(t, err)
	assert.Equal(t, "Discord bot not initialized", ec.errMsg)
}

func TestSendEmbed_MergesJSONAndPins(t *testing.T) {
	f := newFixture(t, "", nil)
	c := f.connect(t)

	ec, err := f.exec(t, "send_embed", map[string]string{
		"ChannelID": "10",
		"EmbedJSON": `{"title":"from json","description":"d","color":255,"footer":{"text":"f"},"image":{"url":"https://x/y.png"}}`,
		"Title":     "override",
	})
	require.NoError(t, err, ec.errMsg)

	require.Len(t, c.embeds, 1)
	assert.Equal(t, domain.Embed{Title: "override", Description: "d", Color: 255, Footer: "f", ImageURL: "https://x/y.png"}, c.embeds[0])
}

func TestGetUserAndChannel(t *testing.T) {
	f := newFixture(t, "", nil)
	f.dialer.users = map[string]domain.UserInfo{"5": {ID: "5", Username: "ann", Discriminator: "0", Bot: true}}
	f.dialer.channels = map[string]domain.ChannelInfo{"6": {ID: "6", Name: "general", Topic: "chat", Type: 0}}
	f.connect(t)

	ec, err := f.exec(t, "get_user", map[string]string{"UserID": "5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Username": "ann", "Discriminator": "0", "IsBot": true}, ec.outputs)

	ec, err = f.exec(t, "get_user", map[string]string{"UserID": "7"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Username": "", "Discriminator": "0", "IsBot": false}, ec.outputs)

	ec, err = f.exec(t, "get_channel", map[string]string{"ChannelID": "6"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Name": "general", "Topic": "chat", "Type": int64(0)}, ec.outputs)

	ec, err = f.exec(t, "get_channel", map[string]string{"ChannelID": "8"})
	require.NoError(t, err)
	assert.Equal(t, "", ec.outputs["Name"])
}

func TestBuildEmbed(t *testing.T) {
	f := newFixture(t, "", nil)

	ec, err := f.exec(t, "build_embed", map[string]string{
		"Title":    `Say "hi"`,
		"Color":    "16711680",
		"Footer":   "foot",
		"ImageURL": "https://x/y.png",
	})
	require.NoError(t, err)

	doc := ec.outputs["EmbedJSON"].(string)
	require.True(t, gjson.Valid(doc))
	assert.Equal(t, `Say "hi"`, gjson.Get(doc, "title").String())
	assert.False(t, gjson.Get(doc, "description").Exists())
	assert.Equal(t, int64(0xff0000), gjson.Get(doc, "color").Int())
	assert.Equal(t, "foot", gjson.Get(doc, "footer.text").String())
	assert.Equal(t, "https://x/y.png", gjson.Get(doc, "image.url").String())

	ec, err = f.exec(t, "build_embed", nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", ec.outputs["EmbedJSON"])

	assert.Equal(t, domain.Embed{Title: `Say "hi"`, Color: 0xff0000, Footer: "foot", ImageURL: "https://x/y.png"}, parseEmbed(doc))
}

func TestUnload_ShutsDown(t *testing.T) {
	f := newFixture(t, "", nil)
	require.NoError(t, f.node(t, "on_message").(host.EventNode).StartListening(newExec(nil)))
	f.connect(t)

	require.NoError(t, f.p.Unload())
	assert.False(t, f.p.Manager().IsRunning())
	assert.Zero(t, f.p.Manager().ListenerCount(domain.EventMessage))
}
