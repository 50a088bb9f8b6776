package nodes

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/host"
)

var connectDesc = host.NodeDesc{
	Name:     "Connect Discord",
	Category: "Discord/Actions",
	TypeID:   typePrefix + "connect",
	Pins: []host.PinDesc{
		execIn(),
		in("Token", "string"),
		execOut("Connected"),
	},
	Description: "Connect the bot; succeeds immediately when already running",
}

var disconnectDesc = host.NodeDesc{
	Name:     "Disconnect Discord",
	Category: "Discord/Actions",
	TypeID:   typePrefix + "disconnect",
	Pins: []host.PinDesc{
		execIn(),
		execOut("Done"),
	},
	Description: "Close the gateway connection and drop pending events",
}

var sendMessageDesc = host.NodeDesc{
	Name:     "Send Message",
	Category: "Discord/Actions",
	TypeID:   typePrefix + "send_message",
	Pins: []host.PinDesc{
		execIn(),
		in("ChannelID", "string"),
		in("Content", "string"),
		execOut("Done"),
	},
	Description: "Send a text message to a Discord channel",
}

var sendEmbedDesc = host.NodeDesc{
	Name:     "Send Embed",
	Category: "Discord/Actions",
	TypeID:   typePrefix + "send_embed",
	Pins: []host.PinDesc{
		execIn(),
		in("ChannelID", "string"),
		in("Title", "string"),
		in("Description", "string"),
		in("Color", "int"),
		in("EmbedJSON", "json"),
		execOut("Done"),
	},
	Description: "Send a rich embed message to a Discord channel",
}

var replyDesc = host.NodeDesc{
	Name:     "Reply To Message",
	Category: "Discord/Actions",
	TypeID:   typePrefix + "reply_to_message",
	Pins: []host.PinDesc{
		execIn(),
		in("ChannelID", "string"),
		in("MessageID", "string"),
		in("Content", "string"),
		execOut("Done"),
	},
	Description: "Reply to a specific message",
}

var addReactionDesc = host.NodeDesc{
	Name:     "Add Reaction",
	Category: "Discord/Actions",
	TypeID:   typePrefix + "add_reaction",
	Pins: []host.PinDesc{
		execIn(),
		in("ChannelID", "string"),
		in("MessageID", "string"),
		in("Emoji", "string"),
		execOut("Done"),
	},
	Description: "React to a message with a unicode or custom (name:id) emoji",
}

var sendDirectMessageDesc = host.NodeDesc{
	Name:     "Send Direct Message",
	Category: "Discord/Actions",
	TypeID:   typePrefix + "send_direct_message",
	Pins: []host.PinDesc{
		execIn(),
		in("UserID", "string"),
		in("Content", "string"),
		execOut("Done"),
	},
	Description: "Send a private message (DM) to a Discord user by ID",
}

var setPresenceDesc = host.NodeDesc{
	Name:     "Set Presence",
	Category: "Discord/Actions",
	TypeID:   typePrefix + "set_presence",
	Pins: []host.PinDesc{
		execIn(),
		in("Status", "string"),
		in("ActivityText", "string"),
		execOut("Done"),
	},
	Description: "Set the bot status (online, idle, dnd, invisible, offline) and activity text",
}

type connectNode struct{ p *Plugin }

func (n *connectNode) Execute(ec host.ExecContext) error {
	log := n.p.logger()
	token, err := n.p.resolveToken(ec.Input("Token"), ec.Property("Token"))
	if err != nil {
		log.Error().Err(err).Msg("connect: no bot token available")
		return fail(ec, "Discord bot token is required to connect")
	}

	if n.p.Manager().IsRunning() {
		log.Info().Msg("connect: bot already running")
		ec.Trigger("Connected")
		return nil
	}
	if err := n.p.connect(token); err != nil {
		log.Error().Err(err).Msg("connect: initialize failed")
		return fail(ec, "Failed to initialize Discord bot from Connect Discord node")
	}
	ec.Trigger("Connected")
	return nil
}

type disconnectNode struct{ p *Plugin }

func (n *disconnectNode) Execute(ec host.ExecContext) error {
	if mgr := n.p.Manager(); mgr != nil {
		mgr.Shutdown()
	}
	ec.Trigger("Done")
	return nil
}

type sendMessageNode struct{ p *Plugin }

func (n *sendMessageNode) Execute(ec host.ExecContext) error {
	content := ec.Input("Content")
	if ec.Input("ChannelID") == "" || content == "" {
		return fail(ec, "ChannelID and Content are required")
	}
	channelID, err := snowflake(ec, "ChannelID")
	if err != nil {
		return err
	}

	n.p.logger().Debug().Str("channel", channelID).Int("length", len(content)).Msg("send message")
	n.p.forwarder().SendMessage(channelID, content)
	ec.Trigger("Done")
	return nil
}

type sendEmbedNode struct{ p *Plugin }

func (n *sendEmbedNode) Execute(ec host.ExecContext) error {
	if ec.Input("ChannelID") == "" {
		return fail(ec, "ChannelID is required")
	}
	channelID, err := snowflake(ec, "ChannelID")
	if err != nil {
		return err
	}

	var embed domain.Embed
	if raw := strings.TrimSpace(ec.Input("EmbedJSON")); raw != "" {
		if !gjson.Valid(raw) {
			return fail(ec, "EmbedJSON is not valid JSON")
		}
		embed = parseEmbed(raw)
	}
	if v := ec.Input("Title"); v != "" {
		embed.Title = v
	}
	if v := ec.Input("Description"); v != "" {
		embed.Description = v
	}
	if v, ok := ec.InputInt("Color"); ok {
		embed.Color = int(v)
	}

	n.p.forwarder().SendEmbed(channelID, embed)
	ec.Trigger("Done")
	return nil
}

// parseEmbed reads the document produced by Build Embed.
func parseEmbed(raw string) domain.Embed {
	doc := gjson.Parse(raw)
	return domain.Embed{
		Title:       doc.Get("title").String(),
		Description: doc.Get("description").String(),
		Color:       int(doc.Get("color").Int()),
		Footer:      doc.Get("footer.text").String(),
		ImageURL:    doc.Get("image.url").String(),
	}
}

type replyNode struct{ p *Plugin }

func (n *replyNode) Execute(ec host.ExecContext) error {
	content := ec.Input("Content")
	if ec.Input("ChannelID") == "" || ec.Input("MessageID") == "" || content == "" {
		return fail(ec, "ChannelID, MessageID, and Content are required")
	}
	channelID, err := snowflake(ec, "ChannelID")
	if err != nil {
		return err
	}
	messageID, err := snowflake(ec, "MessageID")
	if err != nil {
		return err
	}

	n.p.forwarder().Reply(channelID, messageID, content)
	ec.Trigger("Done")
	return nil
}

type addReactionNode struct{ p *Plugin }

func (n *addReactionNode) Execute(ec host.ExecContext) error {
	emoji := strings.TrimSpace(ec.Input("Emoji"))
	if ec.Input("ChannelID") == "" || ec.Input("MessageID") == "" || emoji == "" {
		return fail(ec, "ChannelID, MessageID, and Emoji are required")
	}
	channelID, err := snowflake(ec, "ChannelID")
	if err != nil {
		return err
	}
	messageID, err := snowflake(ec, "MessageID")
	if err != nil {
		return err
	}

	n.p.forwarder().AddReaction(channelID, messageID, emoji)
	ec.Trigger("Done")
	return nil
}

type sendDirectMessageNode struct{ p *Plugin }

func (n *sendDirectMessageNode) Execute(ec host.ExecContext) error {
	log := n.p.logger()
	content := ec.Input("Content")
	if ec.Input("UserID") == "" || content == "" {
		log.Error().Msg("send direct message: UserID and Content are required")
		return fail(ec, "UserID and Content are required")
	}
	userID, err := snowflake(ec, "UserID")
	if err != nil {
		return err
	}

	log.Debug().Str("user", userID).Bool("bot_running", n.p.Manager().IsRunning()).Msg("sending direct message")
	n.p.forwarder().SendDirectMessage(userID, content, nil)
	ec.Trigger("Done")
	return nil
}

type setPresenceNode struct{ p *Plugin }

func (n *setPresenceNode) Execute(ec host.ExecContext) error {
	if mgr := n.p.Manager(); mgr == nil || !mgr.IsRunning() {
		n.p.logger().Error().Msg("set presence: bot not initialized")
		return fail(ec, "Discord bot not initialized")
	}

	p := domain.Presence{
		Status:   domain.ParsePresenceStatus(ec.Input("Status")),
		Activity: ec.Input("ActivityText"),
	}
	n.p.logger().Debug().Str("status", string(p.Status)).Str("activity", p.Activity).Msg("set presence")
	n.p.forwarder().SetPresence(p)
	ec.Trigger("Done")
	return nil
}
