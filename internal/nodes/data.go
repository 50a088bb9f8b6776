package nodes

import (
	"github.com/tidwall/sjson"

	"github.com/soyeahso/discordbridge/internal/host"
)

var getUserDesc = host.NodeDesc{
	Name:     "Get User",
	Category: "Discord/Data",
	TypeID:   typePrefix + "get_user",
	Pins: []host.PinDesc{
		in("UserID", "string"),
		out("Username", "string"),
		out("Discriminator", "string"),
		out("IsBot", "bool"),
	},
	Flags:       host.FlagPureData,
	Description: "Look up a user in the local cache",
}

var getChannelDesc = host.NodeDesc{
	Name:     "Get Channel",
	Category: "Discord/Data",
	TypeID:   typePrefix + "get_channel",
	Pins: []host.PinDesc{
		in("ChannelID", "string"),
		out("Name", "string"),
		out("Topic", "string"),
		out("Type", "int"),
	},
	Flags:       host.FlagPureData,
	Description: "Look up a channel in the local cache",
}

var buildEmbedDesc = host.NodeDesc{
	Name:     "Build Embed",
	Category: "Discord/Data",
	TypeID:   typePrefix + "build_embed",
	Pins: []host.PinDesc{
		in("Title", "string"),
		in("Description", "string"),
		in("Color", "int"),
		in("Footer", "string"),
		in("ImageURL", "string"),
		out("EmbedJSON", "json"),
	},
	Flags:       host.FlagPureData,
	Description: "Construct embed JSON for Send Embed",
}

type getUserNode struct{ p *Plugin }

// Execute reads the cache only; a miss yields empty outputs.
func (n *getUserNode) Execute(ec host.ExecContext) error {
	if ec.Input("UserID") == "" {
		return fail(ec, "UserID is required")
	}
	userID, err := snowflake(ec, "UserID")
	if err != nil {
		return err
	}
	mgr := n.p.Manager()
	if mgr == nil || !mgr.IsRunning() {
		return fail(ec, "Discord bot not initialized")
	}

	u, ok := mgr.LookupUser(userID).Get()
	if !ok {
		ec.SetOutput("Username", "")
		ec.SetOutput("Discriminator", "0")
		ec.SetOutput("IsBot", false)
		return nil
	}
	ec.SetOutput("Username", u.Username)
	ec.SetOutput("Discriminator", u.Discriminator)
	ec.SetOutput("IsBot", u.Bot)
	return nil
}

type getChannelNode struct{ p *Plugin }

func (n *getChannelNode) Execute(ec host.ExecContext) error {
	if ec.Input("ChannelID") == "" {
		return fail(ec, "ChannelID is required")
	}
	channelID, err := snowflake(ec, "ChannelID")
	if err != nil {
		return err
	}
	mgr := n.p.Manager()
	if mgr == nil || !mgr.IsRunning() {
		return fail(ec, "Discord bot not initialized")
	}

	c := mgr.LookupChannel(channelID).OrEmpty()
	ec.SetOutput("Name", c.Name)
	ec.SetOutput("Topic", c.Topic)
	ec.SetOutput("Type", int64(c.Type))
	return nil
}

type buildEmbedNode struct{}

// Execute emits only the fields that were provided.
func (n *buildEmbedNode) Execute(ec host.ExecContext) error {
	doc := "{}"
	set := func(path string, v any) error {
		var err error
		doc, err = sjson.Set(doc, path, v)
		return err
	}

	if v := ec.Input("Title"); v != "" {
		if err := set("title", v); err != nil {
			return fail(ec, err.Error())
		}
	}
	if v := ec.Input("Description"); v != "" {
		if err := set("description", v); err != nil {
			return fail(ec, err.Error())
		}
	}
	if v, ok := ec.InputInt("Color"); ok && v != 0 {
		if err := set("color", v); err != nil {
			return fail(ec, err.Error())
		}
	}
	if v := ec.Input("Footer"); v != "" {
		if err := set("footer.text", v); err != nil {
			return fail(ec, err.Error())
		}
	}
	if v := ec.Input("ImageURL"); v != "" {
		if err := set("image.url", v); err != nil {
			return fail(ec, err.Error())
		}
	}

	ec.SetOutput("EmbedJSON", doc)
	return nil
}
