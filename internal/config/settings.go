package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/intents"
)

// PluginID is the key the Discord plugin's settings are stored under.
const PluginID = "com.rune.discord"

// SettingsSchema describes the plugin settings document.
const SettingsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "version": 2,
  "type": "object",
  "properties": {
    "auto_connect": {"type": "boolean", "default": true, "description": "Automatically connect the Discord bot when needed"},
    "token": {"type": "string", "default": "", "description": "Discord bot token (optional if provided via env or node property)"},
    "gateway_intents": {"type": "integer", "minimum": 0, "default": 0, "description": "Raw gateway intent mask; non-zero overrides everything else"},
    "intents": {"type": "object", "additionalProperties": {"type": "boolean"}, "description": "Per-feature intent flags; when any are set they replace the default mask"},
    "enable_message_content_intent": {"type": "boolean", "default": false, "description": "Always request the privileged message content intent"},
    "enable_client_logging": {"type": "boolean", "default": false, "description": "Forward Discord client diagnostics to the log at debug level"}
  }
}`

type settingKind int

const (
	kindBool settingKind = iota
	kindString
	kindUint
	kindObject
)

var settingKinds = map[string]settingKind{
	"auto_connect":                  kindBool,
	"token":                         kindString,
	"gateway_intents":               kindUint,
	"intents":                       kindObject,
	"enable_message_content_intent": kindBool,
	"enable_client_logging":         kindBool,
}

// SettingsError reports a settings document that could not be parsed.
type SettingsError struct {
	Detail string
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("settings: %s", e.Detail)
}

func (e *SettingsError) Unwrap() error { return domain.ErrConfigParse }

// Settings is the parsed plugin settings document.
type Settings struct {
	AutoConnect          bool
	Token                string
	GatewayIntents       uint64
	IntentFlags          map[string]bool // only flags present in the document
	MessageContentIntent bool
	EnableClientLogging  bool
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{AutoConnect: true}
}

// ParseSettings reads a settings document. Fields with the wrong JSON type
// keep their defaults. An empty document yields defaults; an unparsable one
// yields defaults and a *SettingsError.
func ParseSettings(doc string) (Settings, error) {
	s := DefaultSettings()
	if strings.TrimSpace(doc) == "" {
		return s, nil
	}
	if !gjson.Valid(doc) {
		return s, &SettingsError{Detail: "invalid JSON"}
	}
	root := gjson.Parse(doc)
	if !root.IsObject() {
		return s, &SettingsError{Detail: "settings must be a JSON object"}
	}

	if v := root.Get("auto_connect"); v.IsBool() {
		s.AutoConnect = v.Bool()
	}
	if v := root.Get("token"); v.Type == gjson.String {
		s.Token = v.String()
	}
	if v := root.Get("gateway_intents"); v.Type == gjson.Number {
		if n, err := strconv.ParseUint(v.Raw, 10, 64); err == nil {
			s.GatewayIntents = n
		}
	}
	if v := root.Get("intents"); v.IsObject() {
		v.ForEach(func(key, value gjson.Result) bool {
			if value.IsBool() {
				if s.IntentFlags == nil {
					s.IntentFlags = map[string]bool{}
				}
				s.IntentFlags[strings.ToLower(key.String())] = value.Bool()
			}
			return true
		})
	}
	if v := root.Get("enable_message_content_intent"); v.IsBool() {
		s.MessageContentIntent = v.Bool()
	}
	if v := root.Get("enable_client_logging"); v.IsBool() {
		s.EnableClientLogging = v.Bool()
	}
	return s, nil
}

// EffectiveConfig is what a connection attempt actually uses.
type EffectiveConfig struct {
	Credential        string // settings-level token; the last credential fallback
	CapabilityMask    uint64
	AutoConnect       bool
	ForwardClientLogs bool
}

// IntentConfig maps settings onto the intent resolver's layers.
func (s Settings) IntentConfig() intents.Config {
	return intents.Config{
		Override:       s.GatewayIntents,
		Flags:          s.IntentFlags,
		MessageContent: s.MessageContentIntent,
	}
}

// Effective derives the effective connection configuration.
func (s Settings) Effective() EffectiveConfig {
	return EffectiveConfig{
		Credential:        s.Token,
		CapabilityMask:    intents.Resolve(s.IntentConfig()),
		AutoConnect:       s.AutoConnect,
		ForwardClientLogs: s.EnableClientLogging,
	}
}

// DefaultSettingsJSON returns the default settings document.
func DefaultSettingsJSON() string {
	doc := "{}"
	doc, _ = sjson.Set(doc, "auto_connect", true)
	doc, _ = sjson.Set(doc, "token", "")
	doc, _ = sjson.Set(doc, "gateway_intents", 0)
	doc, _ = sjson.Set(doc, "enable_message_content_intent", false)
	doc, _ = sjson.Set(doc, "enable_client_logging", false)
	return doc
}

// SetSetting writes one setting into doc, converting raw to the setting's
// JSON type. An empty doc starts from the defaults.
func SetSetting(doc, path, raw string) (string, error) {
	parts, err := ParseSettingPath(path)
	if err != nil {
		return doc, err
	}
	if strings.TrimSpace(doc) == "" {
		doc = DefaultSettingsJSON()
	}

	kind := settingKinds[parts[0]]
	if len(parts) == 2 {
		kind = kindBool
	}
	key := strings.Join(parts, ".")

	switch kind {
	case kindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return doc, &ConfigError{Message: fmt.Sprintf("%s: expected boolean, got %q", key, raw)}
		}
		return sjson.Set(doc, key, b)
	case kindUint:
		n, err := strconv.ParseUint(raw, 0, 64)
		if err != nil {
			return doc, &ConfigError{Message: fmt.Sprintf("%s: expected unsigned integer, got %q", key, raw)}
		}
		return sjson.Set(doc, key, n)
	case kindObject:
		if !gjson.Valid(raw) || !gjson.Parse(raw).IsObject() {
			return doc, &ConfigError{Message: fmt.Sprintf("%s: expected JSON object", key)}
		}
		return sjson.SetRaw(doc, key, raw)
	default:
		return sjson.Set(doc, key, raw)
	}
}

// UnsetSetting removes one setting from doc.
func UnsetSetting(doc, path string) (string, error) {
	parts, err := ParseSettingPath(path)
	if err != nil {
		return doc, err
	}
	return sjson.Delete(doc, strings.Join(parts, "."))
}

// RedactSettings returns doc with the token value masked.
func RedactSettings(doc string) string {
	tok := gjson.Get(doc, "token")
	if tok.Type != gjson.String || tok.String() == "" {
		return doc
	}
	out, err := sjson.Set(doc, "token", "********")
	if err != nil {
		return doc
	}
	return out
}
