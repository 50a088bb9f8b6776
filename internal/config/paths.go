package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/soyeahso/discordbridge/internal/intents"
)

const defaultBaseDir = ".discordbridge"

// Paths holds resolved filesystem paths for discordbridge data.
type Paths struct {
	Base     string // ~/.discordbridge
	Config   string // ~/.discordbridge/config.yaml
	Logs     string // ~/.discordbridge/logs
	Data     string // ~/.discordbridge/data
	Settings string // ~/.discordbridge/data/settings.db
	Lock     string // ~/.discordbridge/data/run.lock
}

// ResolvePaths computes all standard paths from the home directory.
// If DISCORDBRIDGE_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("DISCORDBRIDGE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	data := filepath.Join(base, "data")
	return Paths{
		Base:     base,
		Config:   filepath.Join(base, "config.yaml"),
		Logs:     filepath.Join(base, "logs"),
		Data:     data,
		Settings: filepath.Join(data, "settings.db"),
		Lock:     filepath.Join(data, "run.lock"),
	}, nil
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	dirs := []string{p.Base, p.Logs, p.Data}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns path unchanged when absolute, otherwise joined under Base.
func (p Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Base, path)
}

// ParseSettingPath splits a dot-separated settings key into segments and
// checks it names a known setting. Only "intents" accepts a second segment,
// which must be a feature flag.
func ParseSettingPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty setting path"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "setting path contains empty segment"}
		}
	}

	kind, ok := settingKinds[parts[0]]
	if !ok {
		return nil, &ConfigError{Message: "unknown setting: " + parts[0]}
	}
	switch {
	case kind == kindObject && len(parts) == 2:
		if !intents.IsFeature(parts[1]) {
			return nil, &ConfigError{Message: "unknown intent flag: " + parts[1]}
		}
		parts[1] = strings.ToLower(parts[1])
	case len(parts) > 1:
		return nil, &ConfigError{Message: "setting path too deep: " + raw}
	}
	return parts, nil
}
