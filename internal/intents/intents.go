// Package intents computes the gateway intent bitmask a connection
// subscribes with.
package intents

import (
	"sort"
	"strings"
)

// Bit positions as assigned by the Discord gateway.
const (
	Guilds                      uint64 = 1 << 0
	GuildMembers                uint64 = 1 << 1
	GuildModeration             uint64 = 1 << 2
	GuildEmojis                 uint64 = 1 << 3
	GuildIntegrations           uint64 = 1 << 4
	GuildWebhooks               uint64 = 1 << 5
	GuildInvites                uint64 = 1 << 6
	GuildVoiceStates            uint64 = 1 << 7
	GuildPresences              uint64 = 1 << 8
	GuildMessages               uint64 = 1 << 9
	GuildMessageReactions       uint64 = 1 << 10
	GuildMessageTyping          uint64 = 1 << 11
	DirectMessages              uint64 = 1 << 12
	DirectMessageReactions      uint64 = 1 << 13
	DirectMessageTyping         uint64 = 1 << 14
	MessageContent              uint64 = 1 << 15
	GuildScheduledEvents        uint64 = 1 << 16
	AutoModerationConfiguration uint64 = 1 << 20
	AutoModerationExecution     uint64 = 1 << 21
)

// Privileged intents must be enabled for the application in the developer
// portal and are never part of the default mask.
const Privileged = GuildMembers | GuildPresences | MessageContent

// Default is every unprivileged intent.
const Default = Guilds |
	GuildModeration |
	GuildEmojis |
	GuildIntegrations |
	GuildWebhooks |
	GuildInvites |
	GuildVoiceStates |
	GuildMessages |
	GuildMessageReactions |
	GuildMessageTyping |
	DirectMessages |
	DirectMessageReactions |
	DirectMessageTyping |
	GuildScheduledEvents |
	AutoModerationConfiguration |
	AutoModerationExecution

// Features maps the per-feature flag names accepted in settings to their bits.
var Features = map[string]uint64{
	"guilds":                        Guilds,
	"guild_members":                 GuildMembers,
	"guild_moderation":              GuildModeration,
	"guild_emojis":                  GuildEmojis,
	"guild_integrations":            GuildIntegrations,
	"guild_webhooks":                GuildWebhooks,
	"guild_invites":                 GuildInvites,
	"guild_voice_states":            GuildVoiceStates,
	"guild_presences":               GuildPresences,
	"guild_messages":                GuildMessages,
	"guild_message_reactions":       GuildMessageReactions,
	"guild_message_typing":          GuildMessageTyping,
	"direct_messages":               DirectMessages,
	"direct_message_reactions":      DirectMessageReactions,
	"direct_message_typing":         DirectMessageTyping,
	"message_content":               MessageContent,
	"guild_scheduled_events":        GuildScheduledEvents,
	"auto_moderation_configuration": AutoModerationConfiguration,
	"auto_moderation_execution":     AutoModerationExecution,
}

// Source names which layer produced the base mask.
type Source string

const (
	SourceOverride Source = "override"
	SourceFlags    Source = "flags"
	SourceDefaults Source = "defaults"
)

// Config is the layered intent configuration.
type Config struct {
	// Override, when non-zero, is used verbatim as the base mask.
	Override uint64

	// Flags holds only the per-feature flags that were explicitly set.
	// Unknown names are ignored.
	Flags map[string]bool

	// MessageContent always ORs the message-content bit into the result.
	MessageContent bool
}

// Resolve returns the effective intent mask for cfg.
func Resolve(cfg Config) uint64 {
	mask, _ := ResolveWithSource(cfg)
	return mask
}

// ResolveWithSource is Resolve that also reports which layer supplied the
// base mask, for diagnostics.
func ResolveWithSource(cfg Config) (uint64, Source) {
	var (
		mask   uint64
		source Source
	)

	switch {
	case cfg.Override != 0:
		mask, source = cfg.Override, SourceOverride
	case len(cfg.Flags) > 0:
		for name, on := range cfg.Flags {
			if on {
				mask |= Features[name]
			}
		}
		source = SourceFlags
	default:
		mask, source = Default, SourceDefaults
	}

	if cfg.MessageContent {
		mask |= MessageContent
	}
	return mask, source
}

// Names lists the feature names whose bits are set in mask, sorted.
func Names(mask uint64) []string {
	var names []string
	for name, bit := range Features {
		if mask&bit != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// IsFeature reports whether name is a known feature flag.
func IsFeature(name string) bool {
	_, ok := Features[strings.ToLower(name)]
	return ok
}
