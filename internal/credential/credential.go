// Package credential resolves the bot token used to open a connection.
package credential

import (
	"strings"

	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/logging"
)

// EnvKey is the variable looked up in the flow and app environments.
const EnvKey = "DISCORD_TOKEN"

// MinPlausibleLength is the shortest token that does not trigger a warning.
// Real bot tokens are around 70 characters.
const MinPlausibleLength = 50

// Env is a scoped environment lookup.
type Env interface {
	Lookup(key string) (string, bool)
}

// Source names where a resolved token came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceProperty Source = "property"
	SourceFlowEnv  Source = "flow_env"
	SourceAppEnv   Source = "app_env"
	SourceSettings Source = "settings"
)

// Result is a resolved, normalized token.
type Result struct {
	Token    string
	Source   Source
	Warnings []string
}

// Resolver walks the credential sources in precedence order. Nil fields are
// skipped.
type Resolver struct {
	FlowEnv  Env
	AppEnv   Env
	Settings func() string
	Log      *logging.Logger
}

// Resolve returns the first non-empty token among: override, property (a
// static default tied to the call site), flow env, app env, settings.
// Only the winning value is normalized. ErrMissingCredential is returned
// when every source is empty.
func (r *Resolver) Resolve(override, property string) (Result, error) {
	raw, src := r.pick(override, property)
	if raw == "" {
		return Result{}, domain.ErrMissingCredential
	}

	res := normalize(raw)
	res.Source = src
	if r.Log != nil {
		for _, w := range res.Warnings {
			r.Log.Warn().Str("source", string(src)).Msg(w)
		}
		r.Log.Debug().Str("source", string(src)).Int("token_length", len(res.Token)).Msg("credential resolved")
	}
	return res, nil
}

func (r *Resolver) pick(override, property string) (string, Source) {
	if override != "" {
		return override, SourceOverride
	}
	if property != "" {
		return property, SourceProperty
	}
	if v := lookup(r.FlowEnv); v != "" {
		return v, SourceFlowEnv
	}
	if v := lookup(r.AppEnv); v != "" {
		return v, SourceAppEnv
	}
	if r.Settings != nil {
		if v := r.Settings(); v != "" {
			return v, SourceSettings
		}
	}
	return "", ""
}

func lookup(env Env) string {
	if env == nil {
		return ""
	}
	v, _ := env.Lookup(EnvKey)
	return v
}

const botPrefix = "bot "

func normalize(raw string) Result {
	var res Result
	tok := raw
	if len(tok) >= len(botPrefix) && strings.EqualFold(tok[:len(botPrefix)], botPrefix) {
		tok = tok[len(botPrefix):]
		res.Warnings = append(res.Warnings, "token includes a 'Bot ' prefix; stripping it, configure the raw bot token instead")
	}
	if len(tok) < MinPlausibleLength {
		res.Warnings = append(res.Warnings, "token looks too short to be a valid bot token")
	}
	res.Token = tok
	return res
}
